package freebusy

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gatherly/gatherly/internal/rest"
	"github.com/gatherly/gatherly/pkg/availability"
	"github.com/gatherly/gatherly/pkg/group"
	log "github.com/sirupsen/logrus"
)

type MemberDTO struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

type SlotDTO struct {
	Date      string                  `json:"date"`
	Hour      int                     `json:"hour"`
	Total     int                     `json:"total"`
	Free      []availability.MemberId `json:"free"`
	Busy      []availability.MemberId `json:"busy"`
	Intensity availability.Bucket     `json:"intensity"`
}

type BlockDTO struct {
	Date      string                  `json:"date"`
	Block     string                  `json:"block"`
	Start     time.Time               `json:"start"`
	End       time.Time               `json:"end"`
	Total     int                     `json:"total"`
	Free      []availability.MemberId `json:"free"`
	Busy      []availability.MemberId `json:"busy"`
	AllFree   bool                    `json:"allFree"`
	Intensity availability.Bucket     `json:"intensity"`
}

type HighlightDTO struct {
	Date        string    `json:"date"`
	Blocks      []string  `json:"blocks"`
	StartHour   int       `json:"startHour"`
	EndHour     int       `json:"endHour"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	MemberCount int       `json:"memberCount"`
	Label       string    `json:"label"`
}

type AvailabilityDTO struct {
	GroupId    string         `json:"groupId"`
	From       time.Time      `json:"from"`
	To         time.Time      `json:"to"`
	Members    []MemberDTO    `json:"members"`
	Slots      []SlotDTO      `json:"slots"`
	Blocks     []BlockDTO     `json:"blocks"`
	Highlights []HighlightDTO `json:"highlights"`
}

type Handler struct {
	service  Service
	location *time.Location
}

func NewHandler(service Service, location *time.Location) *Handler {
	return &Handler{service: service, location: location}
}

// GetAvailability accepts from/to as RFC3339 timestamps or plain dates in the configured timezone.
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	groupId, err := rest.UUIDVar(r, "groupId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid group id", err.Error())
		return
	}
	from, err := h.parseTime(r.URL.Query().Get("from"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid from (date) format", "'from' must be in RFC3339 or YYYY-MM-DD format")
		return
	}
	to, err := h.parseTime(r.URL.Query().Get("to"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid to (date) format", "'to' must be in RFC3339 or YYYY-MM-DD format")
		return
	}

	result, err := h.service.GetAvailability(r.Context(), groupId, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, availabilityToDTO(result))
}

func (h *Handler) GetHighlights(w http.ResponseWriter, r *http.Request) {
	groupId, err := rest.UUIDVar(r, "groupId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid group id", err.Error())
		return
	}
	days, err := intParam(r, "days")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid days", err.Error())
		return
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid limit", err.Error())
		return
	}

	highlights, err := h.service.GetHighlights(r.Context(), groupId, days, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, highlightsToDTO(highlights))
}

func (h *Handler) parseTime(value string) (time.Time, error) {
	if t, err := time.ParseInLocation(time.DateOnly, value, h.location); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

func intParam(r *http.Request, name string) (int, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidRange):
		rest.WriteError(w, http.StatusBadRequest, "Invalid range", err.Error())
	case errors.Is(err, group.ErrGroupNotFound):
		rest.WriteError(w, http.StatusNotFound, "Group not found", "")
	default:
		log.Errorf("availability request failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to compute availability", "")
	}
}

func availabilityToDTO(a Availability) AvailabilityDTO {
	dto := AvailabilityDTO{
		GroupId:    a.Group.Id.String(),
		From:       a.From,
		To:         a.To,
		Members:    make([]MemberDTO, 0, len(a.Members)),
		Slots:      make([]SlotDTO, 0, len(a.SlotSummaries)),
		Blocks:     make([]BlockDTO, 0, len(a.BlockSummaries)),
		Highlights: highlightsToDTO(a.Highlights),
	}
	for _, m := range a.Members {
		dto.Members = append(dto.Members, MemberDTO{Id: string(m.AvailabilityId()), Name: m.DisplayName})
	}
	for _, s := range a.SlotSummaries {
		dto.Slots = append(dto.Slots, SlotDTO{
			Date:      s.Date.Format(time.DateOnly),
			Hour:      s.Hour,
			Total:     s.TotalMembers,
			Free:      s.FreeMembers,
			Busy:      s.BusyMembers,
			Intensity: availability.Intensity(len(s.FreeMembers), s.TotalMembers),
		})
	}
	for _, b := range a.BlockSummaries {
		dto.Blocks = append(dto.Blocks, BlockDTO{
			Date:      b.Date.Format(time.DateOnly),
			Block:     b.Block.Name,
			Start:     b.Block.Start(b.Date),
			End:       b.Block.End(b.Date),
			Total:     b.TotalMembers,
			Free:      b.FreeMembers,
			Busy:      b.BusyMembers,
			AllFree:   b.AllFree,
			Intensity: availability.Intensity(len(b.FreeMembers), b.TotalMembers),
		})
	}
	return dto
}

func highlightsToDTO(highlights []availability.Highlight) []HighlightDTO {
	dtos := make([]HighlightDTO, 0, len(highlights))
	for _, h := range highlights {
		blocks := make([]string, 0, len(h.Blocks))
		for _, b := range h.Blocks {
			blocks = append(blocks, b.Name)
		}
		dtos = append(dtos, HighlightDTO{
			Date:        h.Date.Format(time.DateOnly),
			Blocks:      blocks,
			StartHour:   h.StartHour,
			EndHour:     h.EndHour,
			Start:       h.Start,
			End:         h.End,
			MemberCount: h.MemberCount,
			Label:       h.Label,
		})
	}
	return dtos
}
