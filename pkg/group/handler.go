package group

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gatherly/gatherly/internal/rest"
	"github.com/gatherly/gatherly/pkg/availability"
	log "github.com/sirupsen/logrus"
)

type PreferencesDTO struct {
	HideHolidays bool `json:"hideHolidays"`
	DedupAllDay  bool `json:"dedupAllDay"`
}

type GroupDTO struct {
	Id          string         `json:"id"`
	Name        string         `json:"name"`
	Preferences PreferencesDTO `json:"preferences"`
	CreatedAt   time.Time      `json:"createdAt"`
}

type MemberDTO struct {
	Id          string    `json:"id"`
	GroupId     string    `json:"groupId"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating group")

	var body GroupDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}

	created, err := h.service.CreateGroup(r.Context(), body.Name, dtoToPreferences(body.Preferences))
	if err != nil {
		if errors.Is(err, ErrInvalidGroup) {
			rest.WriteError(w, http.StatusBadRequest, "Invalid group data", err.Error())
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, groupToDTO(created))
}

func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	groupId, err := rest.UUIDVar(r, "groupId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid group id", err.Error())
		return
	}

	g, err := h.service.GetGroup(r.Context(), groupId)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, groupToDTO(g))
}

func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	groupId, err := rest.UUIDVar(r, "groupId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid group id", err.Error())
		return
	}

	var body PreferencesDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}

	updated, err := h.service.UpdatePreferences(r.Context(), groupId, dtoToPreferences(body))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, groupToDTO(updated))
}

func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	groupId, err := rest.UUIDVar(r, "groupId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid group id", err.Error())
		return
	}

	var body MemberDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}

	created, err := h.service.AddMember(r.Context(), groupId, body.DisplayName)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, memberToDTO(created))
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	groupId, err := rest.UUIDVar(r, "groupId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid group id", err.Error())
		return
	}

	members, err := h.service.ListMembers(r.Context(), groupId)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	dtos := make([]MemberDTO, 0, len(members))
	for _, m := range members {
		dtos = append(dtos, memberToDTO(m))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	groupId, err := rest.UUIDVar(r, "groupId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid group id", err.Error())
		return
	}
	memberId, err := rest.UUIDVar(r, "memberId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid member id", err.Error())
		return
	}

	if err := h.service.RemoveMember(r.Context(), groupId, memberId); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CurrentMember returns the member resolved from the X-Member-Id header.
func (h *Handler) CurrentMember(w http.ResponseWriter, r *http.Request) {
	member, err := CurrentMember(r.Context())
	if err != nil {
		rest.WriteError(w, http.StatusForbidden, "No member in request", "")
		return
	}
	rest.WriteJSON(w, http.StatusOK, memberToDTO(member))
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrGroupNotFound):
		rest.WriteError(w, http.StatusNotFound, "Group not found", "")
	case errors.Is(err, ErrMemberNotFound):
		rest.WriteError(w, http.StatusNotFound, "Member not found", "")
	case errors.Is(err, ErrInvalidMember), errors.Is(err, ErrInvalidGroup):
		rest.WriteError(w, http.StatusBadRequest, "Invalid request", err.Error())
	default:
		log.Errorf("group request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func dtoToPreferences(dto PreferencesDTO) availability.Preferences {
	return availability.Preferences{
		HideHolidays: dto.HideHolidays,
		DedupAllDay:  dto.DedupAllDay,
	}
}

func groupToDTO(g Group) GroupDTO {
	return GroupDTO{
		Id:   g.Id.String(),
		Name: g.Name,
		Preferences: PreferencesDTO{
			HideHolidays: g.Preferences.HideHolidays,
			DedupAllDay:  g.Preferences.DedupAllDay,
		},
		CreatedAt: g.CreatedAt,
	}
}

func memberToDTO(m Member) MemberDTO {
	return MemberDTO{
		Id:          m.Id.String(),
		GroupId:     m.GroupId.String(),
		DisplayName: m.DisplayName,
		CreatedAt:   m.CreatedAt,
	}
}
