package calendar

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gatherly/gatherly/internal/rest"
	"github.com/gatherly/gatherly/pkg/availability"
	"github.com/gatherly/gatherly/pkg/group"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type EventDTO struct {
	Id          string    `json:"id"`
	GroupId     string    `json:"groupId,omitempty"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"allDay"`
	Location    string    `json:"location,omitempty"`
	Type        string    `json:"type"`
	SourceName  string    `json:"sourceName,omitempty"`
	SourceColor string    `json:"sourceColor,omitempty"`
}

type FeedDTO struct {
	Id           string     `json:"id"`
	Kind         FeedKind   `json:"kind"`
	Url          string     `json:"url,omitempty"`
	CalendarId   string     `json:"calendarId,omitempty"`
	Name         string     `json:"name"`
	Color        string     `json:"color,omitempty"`
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
	LastError    string     `json:"lastError,omitempty"`
}

// Handler exposes the calendar of the member resolved from the request.
type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	member, ok := requireMember(w, r)
	if !ok {
		return
	}
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid from (date) format", "'from' must be in RFC3339 format")
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid to (date) format", "'to' must be in RFC3339 format")
		return
	}

	events, err := h.service.GetEvents(r.Context(), []uuid.UUID{member.Id}, from, to)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	dtos := make([]EventDTO, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, eventToDTO(e))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	member, ok := requireMember(w, r)
	if !ok {
		return
	}
	var body EventDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	if body.GroupId != "" && body.GroupId != member.GroupId.String() {
		rest.WriteError(w, http.StatusForbidden, "Events can only be added to your own group", "")
		return
	}

	event := dtoToEvent(body)
	event.OwnerId = member.AvailabilityId()
	created, err := h.service.AddEvent(r.Context(), event)
	if err != nil {
		if errors.Is(err, ErrInvalidEvent) {
			rest.WriteError(w, http.StatusBadRequest, "Invalid event", err.Error())
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Tracef("Created event: %+v", created)
	rest.WriteJSON(w, http.StatusCreated, eventToDTO(created))
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	member, ok := requireMember(w, r)
	if !ok {
		return
	}
	eventId, err := rest.UUIDVar(r, "eventId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid event id", err.Error())
		return
	}

	if err := h.service.DeleteEvent(r.Context(), member.Id, eventId); err != nil {
		if errors.Is(err, ErrEventNotFound) {
			rest.WriteError(w, http.StatusNotFound, "Event not found", "")
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListFeeds(w http.ResponseWriter, r *http.Request) {
	member, ok := requireMember(w, r)
	if !ok {
		return
	}
	feeds, err := h.service.ListFeeds(r.Context(), []uuid.UUID{member.Id})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	dtos := make([]FeedDTO, 0, len(feeds))
	for _, f := range feeds {
		dtos = append(dtos, feedToDTO(f))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateFeed(w http.ResponseWriter, r *http.Request) {
	member, ok := requireMember(w, r)
	if !ok {
		return
	}
	var body FeedDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}

	created, err := h.service.AddFeed(r.Context(), Feed{
		MemberId:   member.Id,
		Kind:       body.Kind,
		Url:        body.Url,
		CalendarId: body.CalendarId,
		Name:       body.Name,
		Color:      body.Color,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidFeed) {
			rest.WriteError(w, http.StatusBadRequest, "Invalid feed", err.Error())
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, feedToDTO(created))
}

func (h *Handler) DeleteFeed(w http.ResponseWriter, r *http.Request) {
	member, ok := requireMember(w, r)
	if !ok {
		return
	}
	feedId, err := rest.UUIDVar(r, "feedId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid feed id", err.Error())
		return
	}

	if err := h.service.DeleteFeed(r.Context(), member.Id, feedId); err != nil {
		if errors.Is(err, ErrFeedNotFound) {
			rest.WriteError(w, http.StatusNotFound, "Feed not found", "")
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func requireMember(w http.ResponseWriter, r *http.Request) (group.Member, bool) {
	member, err := group.CurrentMember(r.Context())
	if err != nil {
		rest.WriteError(w, http.StatusForbidden, "Member required", "set the X-Member-Id header")
		return group.Member{}, false
	}
	return member, true
}

func dtoToEvent(dto EventDTO) availability.CalendarEvent {
	return availability.CalendarEvent{
		GroupId:             dto.GroupId,
		Title:               dto.Title,
		Start:               dto.Start,
		End:                 dto.End,
		AllDay:              dto.AllDay,
		Location:            dto.Location,
		SourceCalendarName:  dto.SourceName,
		SourceCalendarColor: dto.SourceColor,
	}
}

func eventToDTO(e availability.CalendarEvent) EventDTO {
	return EventDTO{
		Id:          e.Id,
		GroupId:     e.GroupId,
		Title:       e.Title,
		Start:       e.Start,
		End:         e.End,
		AllDay:      e.AllDay,
		Location:    e.Location,
		Type:        string(e.Kind()),
		SourceName:  e.SourceCalendarName,
		SourceColor: e.SourceCalendarColor,
	}
}

func feedToDTO(f Feed) FeedDTO {
	return FeedDTO{
		Id:           f.Id.String(),
		Kind:         f.Kind,
		Url:          f.Url,
		CalendarId:   f.CalendarId,
		Name:         f.Name,
		Color:        f.Color,
		LastSyncedAt: f.LastSyncedAt,
		LastError:    f.LastError,
	}
}
