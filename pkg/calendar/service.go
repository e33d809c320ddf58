package calendar

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gatherly/gatherly/pkg/availability"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// allDayMargin widens range queries so floating all-day dates are found in every timezone.
const allDayMargin = 24 * time.Hour

type Service interface {
	AddEvent(ctx context.Context, event availability.CalendarEvent) (availability.CalendarEvent, error)
	DeleteEvent(ctx context.Context, ownerId uuid.UUID, eventId uuid.UUID) error
	GetEvents(ctx context.Context, ownerIds []uuid.UUID, from, to time.Time) ([]availability.CalendarEvent, error)
	AddFeed(ctx context.Context, feed Feed) (Feed, error)
	ListFeeds(ctx context.Context, memberIds []uuid.UUID) ([]Feed, error)
	DeleteFeed(ctx context.Context, memberId uuid.UUID, feedId uuid.UUID) error
	ReplaceFeedEvents(ctx context.Context, feed Feed, events []availability.CalendarEvent) (int, error)
	MarkFeedSynced(ctx context.Context, feedId uuid.UUID, at time.Time, syncErr error) error
}

type ServiceImpl struct {
	repo Repository
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

// AddEvent stores a manually created event. Events with a group id become group events.
func (s *ServiceImpl) AddEvent(ctx context.Context, event availability.CalendarEvent) (availability.CalendarEvent, error) {
	if !event.IsValid() {
		return availability.CalendarEvent{}, fmt.Errorf("%w: end is before start", ErrInvalidEvent)
	}
	if event.AllDay {
		event.Start = floatingMidnight(event.Start)
		event.End = floatingMidnight(event.End)
	}
	event.Title = strings.TrimSpace(event.Title)
	event.Type = availability.EventTypePersonal
	if event.GroupId != "" {
		event.Type = availability.EventTypeGroup
	}

	id, err := s.repo.StoreEvent(ctx, event, uuid.NullUUID{})
	if err != nil {
		return availability.CalendarEvent{}, fmt.Errorf("failed to store event: %w", err)
	}
	event.Id = id.String()
	return event, nil
}

func (s *ServiceImpl) DeleteEvent(ctx context.Context, ownerId uuid.UUID, eventId uuid.UUID) error {
	deleted, err := s.repo.DeleteEvent(ctx, ownerId, eventId)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if !deleted {
		return ErrEventNotFound
	}
	return nil
}

// GetEvents returns the events of the owners overlapping [from, to). All-day events are matched
// loosely by date, the availability engine applies the exact timezone-aware cut.
func (s *ServiceImpl) GetEvents(ctx context.Context, ownerIds []uuid.UUID, from, to time.Time) ([]availability.CalendarEvent, error) {
	stored, err := s.repo.GetEvents(ctx, ownerIds, from.Add(-allDayMargin), to.Add(allDayMargin))
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	events := make([]availability.CalendarEvent, 0, len(stored))
	for _, e := range stored {
		if e.AllDay || (e.Start.Before(to) && !e.End.Before(from)) {
			events = append(events, e)
		}
	}
	return events, nil
}

func (s *ServiceImpl) AddFeed(ctx context.Context, feed Feed) (Feed, error) {
	if err := validateFeed(feed); err != nil {
		return Feed{}, err
	}
	if feed.Name == "" {
		feed.Name = defaultFeedName(feed)
	}
	stored, err := s.repo.StoreFeed(ctx, feed)
	if err != nil {
		return Feed{}, fmt.Errorf("failed to store feed: %w", err)
	}
	log.Infof("Member %s subscribed to %s feed %s", feed.MemberId, feed.Kind, stored.Id)
	return stored, nil
}

func (s *ServiceImpl) ListFeeds(ctx context.Context, memberIds []uuid.UUID) ([]Feed, error) {
	return s.repo.ListFeeds(ctx, memberIds)
}

func (s *ServiceImpl) DeleteFeed(ctx context.Context, memberId uuid.UUID, feedId uuid.UUID) error {
	return s.repo.WithTransaction(ctx, func(repo Repository) error {
		if _, err := repo.DeleteFeedEvents(ctx, feedId); err != nil {
			return err
		}
		deleted, err := repo.DeleteFeed(ctx, memberId, feedId)
		if err != nil {
			return fmt.Errorf("failed to delete feed: %w", err)
		}
		if !deleted {
			return ErrFeedNotFound
		}
		return nil
	})
}

// ReplaceFeedEvents swaps the stored events of a feed for a freshly fetched set in one transaction.
// Events are attributed to the feed's member as personal events. Malformed events are skipped.
func (s *ServiceImpl) ReplaceFeedEvents(ctx context.Context, feed Feed, events []availability.CalendarEvent) (int, error) {
	stored := 0
	skipped := 0
	err := s.repo.WithTransaction(ctx, func(repo Repository) error {
		stored, skipped = 0, 0
		if _, err := repo.DeleteFeedEvents(ctx, feed.Id); err != nil {
			return err
		}
		feedId := uuid.NullUUID{UUID: feed.Id, Valid: true}
		for _, e := range events {
			if !e.IsValid() {
				skipped++
				continue
			}
			e.OwnerId = availability.MemberId(feed.MemberId.String())
			e.GroupId = ""
			e.Type = availability.EventTypePersonal
			if e.SourceCalendarName == "" {
				e.SourceCalendarName = feed.Name
			}
			if e.SourceCalendarColor == "" {
				e.SourceCalendarColor = feed.Color
			}
			if _, err := repo.StoreEvent(ctx, e, feedId); err != nil {
				return err
			}
			stored++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to replace events of feed %s: %w", feed.Id, err)
	}
	if skipped > 0 {
		log.Warnf("Skipped %d malformed events from feed %s", skipped, feed.Id)
	}
	log.Debugf("Stored %d events for feed %s", stored, feed.Id)
	return stored, nil
}

func (s *ServiceImpl) MarkFeedSynced(ctx context.Context, feedId uuid.UUID, at time.Time, syncErr error) error {
	message := ""
	if syncErr != nil {
		message = syncErr.Error()
	}
	return s.repo.MarkFeedSynced(ctx, feedId, at, message)
}

func validateFeed(feed Feed) error {
	if feed.MemberId == uuid.Nil {
		return fmt.Errorf("%w: member is required", ErrInvalidFeed)
	}
	switch feed.Kind {
	case FeedKindIcs:
		u, err := url.Parse(feed.Url)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "webcal") || u.Host == "" {
			return fmt.Errorf("%w: url must be an http(s) or webcal address", ErrInvalidFeed)
		}
	case FeedKindGoogle:
		if feed.CalendarId == "" {
			return fmt.Errorf("%w: calendar id is required", ErrInvalidFeed)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidFeed, feed.Kind)
	}
	return nil
}

func defaultFeedName(feed Feed) string {
	if feed.Kind == FeedKindGoogle {
		return feed.CalendarId
	}
	if u, err := url.Parse(feed.Url); err == nil {
		return u.Host
	}
	return string(feed.Kind)
}

// floatingMidnight keeps the calendar date of t and pins it to UTC midnight.
func floatingMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
