package google

import (
	"context"
	"fmt"
	"time"

	"github.com/gatherly/gatherly/pkg/availability"
	"github.com/gatherly/gatherly/pkg/group"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type CalendarItem struct {
	Id      string
	Summary string
	Color   string
	Primary bool
}

type Service interface {
	ListCalendars(ctx context.Context) ([]CalendarItem, error)
	FetchEvents(ctx context.Context, memberId uuid.UUID, calendarId string, from, to time.Time) ([]availability.CalendarEvent, error)
}

type ServiceImpl struct {
	auth *GoogleAuth
	// endpoint overrides the Calendar API base URL, empty means the Google default.
	endpoint string
}

func NewService(auth *GoogleAuth) *ServiceImpl {
	return &ServiceImpl{auth: auth}
}

// ListCalendars lists the calendars of the member making the request.
func (s *ServiceImpl) ListCalendars(ctx context.Context) ([]CalendarItem, error) {
	memberId, err := group.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current member: %w", err)
	}

	googleService, err := s.prepareGoogleService(ctx, memberId)
	if err != nil {
		return nil, err
	}
	calendars, err := googleService.CalendarList.List().Context(ctx).Do()
	if err != nil {
		err := fmt.Errorf("unable to retrieve calendars from Google Calendar: %w", err)
		log.Error(err)
		return nil, err
	}
	items := make([]CalendarItem, 0, len(calendars.Items))
	for _, cal := range calendars.Items {
		items = append(items, CalendarItem{
			Id:      cal.Id,
			Summary: cal.Summary,
			Color:   cal.BackgroundColor,
			Primary: cal.Primary,
		})
	}
	return items, nil
}

// FetchEvents reads every busy event of one calendar overlapping [from, to), recurring events expanded.
func (s *ServiceImpl) FetchEvents(ctx context.Context, memberId uuid.UUID, calendarId string, from, to time.Time) ([]availability.CalendarEvent, error) {
	googleService, err := s.prepareGoogleService(ctx, memberId)
	if err != nil {
		return nil, err
	}

	owner := availability.MemberId(memberId.String())
	events := make([]availability.CalendarEvent, 0)
	call := googleService.Events.List(calendarId).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")
	err = call.Pages(ctx, func(page *gcal.Events) error {
		for _, item := range page.Items {
			event, ok := toCalendarEvent(item, owner, page.Summary)
			if ok {
				events = append(events, event)
			}
		}
		return nil
	})
	if err != nil {
		err := fmt.Errorf("unable to retrieve events from Google Calendar: %w", err)
		log.Error(err)
		return nil, err
	}
	log.Debugf("Fetched %d Google events of member %s", len(events), memberId)
	return events, nil
}

func (s *ServiceImpl) prepareGoogleService(ctx context.Context, memberId uuid.UUID) (*gcal.Service, error) {
	client, err := s.auth.client(ctx, memberId)
	if err != nil {
		if err != ErrUnauthenticated {
			log.Errorf("unable to retrieve Google auth client: %v", err)
		}
		return nil, err
	}
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if s.endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.endpoint))
	}
	service, err := gcal.NewService(ctx, opts...)
	if err != nil {
		err := fmt.Errorf("unable to create Calendar client: %w", err)
		log.Error(err)
		return nil, err
	}
	return service, nil
}
