package calendar

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/gatherly/gatherly/pkg/availability"
	"github.com/google/uuid"
)

type storedEvent struct {
	event  availability.CalendarEvent
	feedId uuid.NullUUID
}

type RepositoryStub struct {
	mu     sync.RWMutex
	events map[uuid.UUID]storedEvent
	feeds  map[uuid.UUID]Feed
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		events: make(map[uuid.UUID]storedEvent),
		feeds:  make(map[uuid.UUID]Feed),
	}
}

func (r *RepositoryStub) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	r.mu.Lock()
	events := make(map[uuid.UUID]storedEvent, len(r.events))
	for k, v := range r.events {
		events[k] = v
	}
	feeds := make(map[uuid.UUID]Feed, len(r.feeds))
	for k, v := range r.feeds {
		feeds[k] = v
	}
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.events, r.feeds = events, feeds
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *RepositoryStub) StoreEvent(_ context.Context, event availability.CalendarEvent, feedId uuid.NullUUID) (uuid.UUID, error) {
	if _, err := uuid.Parse(string(event.OwnerId)); err != nil {
		return uuid.Nil, ErrInvalidEvent
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.New()
	event.Id = id.String()
	event.Type = event.Kind()
	r.events[id] = storedEvent{event: event, feedId: feedId}
	return id, nil
}

func (r *RepositoryStub) GetEvent(_ context.Context, eventId uuid.UUID) (availability.CalendarEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.events[eventId]
	if !ok {
		return availability.CalendarEvent{}, ErrEventNotFound
	}
	return stored.event, nil
}

func (r *RepositoryStub) GetEvents(_ context.Context, ownerIds []uuid.UUID, from, to time.Time) ([]availability.CalendarEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owners := make(map[string]bool, len(ownerIds))
	for _, id := range ownerIds {
		owners[id.String()] = true
	}
	events := make([]availability.CalendarEvent, 0)
	for _, stored := range r.events {
		e := stored.event
		if owners[string(e.OwnerId)] && e.Start.Before(to) && !e.End.Before(from) {
			events = append(events, e)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].Start.Equal(events[j].Start) {
			return events[i].Id < events[j].Id
		}
		return events[i].Start.Before(events[j].Start)
	})
	return events, nil
}

func (r *RepositoryStub) DeleteEvent(_ context.Context, ownerId uuid.UUID, eventId uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.events[eventId]
	if !ok || string(stored.event.OwnerId) != ownerId.String() {
		return false, nil
	}
	delete(r.events, eventId)
	return true, nil
}

func (r *RepositoryStub) DeleteFeedEvents(_ context.Context, feedId uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, stored := range r.events {
		if stored.feedId.Valid && stored.feedId.UUID == feedId {
			delete(r.events, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *RepositoryStub) StoreFeed(_ context.Context, feed Feed) (Feed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	feed.Id = uuid.New()
	r.feeds[feed.Id] = feed
	return feed, nil
}

func (r *RepositoryStub) GetFeed(_ context.Context, feedId uuid.UUID) (Feed, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	feed, ok := r.feeds[feedId]
	if !ok {
		return Feed{}, ErrFeedNotFound
	}
	return feed, nil
}

func (r *RepositoryStub) ListFeeds(_ context.Context, memberIds []uuid.UUID) ([]Feed, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	feeds := make([]Feed, 0)
	for _, feed := range r.feeds {
		if slices.Contains(memberIds, feed.MemberId) {
			feeds = append(feeds, feed)
		}
	}
	sort.Slice(feeds, func(i, j int) bool {
		return feeds[i].Name < feeds[j].Name
	})
	return feeds, nil
}

func (r *RepositoryStub) DeleteFeed(_ context.Context, memberId uuid.UUID, feedId uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	feed, ok := r.feeds[feedId]
	if !ok || feed.MemberId != memberId {
		return false, nil
	}
	delete(r.feeds, feedId)
	for id, stored := range r.events {
		if stored.feedId.Valid && stored.feedId.UUID == feedId {
			delete(r.events, id)
		}
	}
	return true, nil
}

func (r *RepositoryStub) MarkFeedSynced(_ context.Context, feedId uuid.UUID, at time.Time, syncErr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	feed, ok := r.feeds[feedId]
	if !ok {
		return ErrFeedNotFound
	}
	feed.LastSyncedAt = &at
	feed.LastError = syncErr
	r.feeds[feedId] = feed
	return nil
}

func (r *RepositoryStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = make(map[uuid.UUID]storedEvent)
	r.feeds = make(map[uuid.UUID]Feed)
}
