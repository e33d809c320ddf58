package google

import (
	"errors"
	"net/http"

	"github.com/gatherly/gatherly/internal/rest"
	"github.com/gatherly/gatherly/pkg/group"
	log "github.com/sirupsen/logrus"
)

type CalendarItemDto struct {
	Id      string `json:"id"`
	Summary string `json:"summary"`
	Color   string `json:"color,omitempty"`
	Primary bool   `json:"primary"`
}

type Handler struct {
	service Service
}

func NewHandler(s Service) *Handler {
	return &Handler{s}
}

func (h *Handler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	calendars, err := h.service.ListCalendars(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, ErrUnauthenticated):
			rest.WriteError(w, http.StatusForbidden, "Google authentication required", "")
		case errors.Is(err, group.ErrNoMember):
			rest.WriteError(w, http.StatusForbidden, "Member required", "set the X-Member-Id header")
		default:
			log.Errorf("listing Google calendars failed: %v", err)
			rest.WriteError(w, http.StatusInternalServerError, "Failed to list Google calendars", "")
		}
		return
	}

	items := make([]CalendarItemDto, 0, len(calendars))
	for _, c := range calendars {
		items = append(items, CalendarItemDto{Id: c.Id, Summary: c.Summary, Color: c.Color, Primary: c.Primary})
	}
	rest.WriteJSON(w, http.StatusOK, items)
}
