package feedsync

import (
	"errors"
	"net/http"

	"github.com/gatherly/gatherly/internal/rest"
	"github.com/gatherly/gatherly/pkg/group"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	syncer *Syncer
}

func NewHandler(syncer *Syncer) *Handler {
	return &Handler{syncer: syncer}
}

// SyncGroup refreshes the group's feeds right away instead of waiting for the schedule.
func (h *Handler) SyncGroup(w http.ResponseWriter, r *http.Request) {
	groupId, err := rest.UUIDVar(r, "groupId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid group id", err.Error())
		return
	}
	if _, err := h.syncer.groups.GetGroup(r.Context(), groupId); err != nil {
		if errors.Is(err, group.ErrGroupNotFound) {
			rest.WriteError(w, http.StatusNotFound, "Group not found", "")
			return
		}
		log.Errorf("sync of group %s failed: %v", groupId, err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to sync group", "")
		return
	}

	report, err := h.syncer.SyncGroup(r.Context(), groupId)
	if err != nil {
		log.Errorf("sync of group %s failed: %v", groupId, err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to sync group", "")
		return
	}
	rest.WriteJSON(w, http.StatusOK, report)
}
