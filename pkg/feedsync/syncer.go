// Package feedsync refreshes the stored events of every member's calendar feeds.
package feedsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gatherly/gatherly/internal/config"
	"github.com/gatherly/gatherly/internal/event_bus"
	"github.com/gatherly/gatherly/internal/utils"
	"github.com/gatherly/gatherly/pkg/calendar"
	"github.com/gatherly/gatherly/pkg/group"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
)

type Report struct {
	GroupId uuid.UUID `json:"groupId"`
	Feeds   int       `json:"feeds"`
	Failed  int       `json:"failed"`
	Events  int       `json:"events"`
}

type Syncer struct {
	groups    group.Service
	calendars calendar.Service
	provider  *Provider
	bus       *event_bus.EventBus
	clock     utils.Clock
	cfg       config.Sync
}

func NewSyncer(
	groups group.Service,
	calendars calendar.Service,
	provider *Provider,
	bus *event_bus.EventBus,
	clock utils.Clock,
	cfg config.Sync,
) *Syncer {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = config.Defaults().Sync.HorizonDays
	}
	return &Syncer{
		groups:    groups,
		calendars: calendars,
		provider:  provider,
		bus:       bus,
		clock:     clock,
		cfg:       cfg,
	}
}

// SyncGroup refreshes the feeds of every member of the group. A failing feed keeps its previous
// events and is only counted in the report.
func (s *Syncer) SyncGroup(ctx context.Context, groupId uuid.UUID) (Report, error) {
	report := Report{GroupId: groupId}

	members, err := s.groups.ListMembers(ctx, groupId)
	if err != nil {
		return report, fmt.Errorf("failed to list members of group %s: %w", groupId, err)
	}
	memberIds := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		memberIds = append(memberIds, m.Id)
	}
	feeds, err := s.calendars.ListFeeds(ctx, memberIds)
	if err != nil {
		return report, fmt.Errorf("failed to list feeds of group %s: %w", groupId, err)
	}
	report.Feeds = len(feeds)

	from, to := s.window()
	log.Debugf("Syncing %d feeds of group %s between %s and %s", len(feeds), groupId, from.Format(time.DateOnly), to.Format(time.DateOnly))

	var mu sync.Mutex
	workers := pool.New().WithMaxGoroutines(s.cfg.Workers)
	for _, feed := range feeds {
		workers.Go(func() {
			stored, err := s.syncFeed(ctx, feed, from, to)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warnf("Sync of feed %s (member %s) failed: %v", feed.Id, feed.MemberId, err)
				report.Failed++
				return
			}
			report.Events += stored
		})
	}
	workers.Wait()

	if ctx.Err() != nil {
		return report, ctx.Err()
	}

	log.Infof("Synced group %s: %d feeds, %d failed, %d events", groupId, report.Feeds, report.Failed, report.Events)
	if s.bus != nil {
		err = s.bus.Publish(event_bus.NewEvent(ctx, event_bus.GroupSyncedType, event_bus.GroupSynced{
			GroupId: groupId.String(),
			Feeds:   report.Feeds,
			Failed:  report.Failed,
			Events:  report.Events,
		}))
		if err != nil {
			log.Errorf("failed to publish sync of group %s: %v", groupId, err)
		}
	}
	return report, nil
}

// SyncAll syncs every group in turn. Failing groups do not stop the others.
func (s *Syncer) SyncAll(ctx context.Context) error {
	groups, err := s.groups.ListGroups(ctx)
	if err != nil {
		return fmt.Errorf("failed to list groups: %w", err)
	}
	var errs []error
	for _, g := range groups {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if _, err := s.SyncGroup(ctx, g.Id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Syncer) syncFeed(ctx context.Context, feed calendar.Feed, from, to time.Time) (int, error) {
	stored, err := s.fetchAndStore(ctx, feed, from, to)
	if markErr := s.calendars.MarkFeedSynced(ctx, feed.Id, s.clock.Now(), err); markErr != nil {
		log.Errorf("failed to record sync status of feed %s: %v", feed.Id, markErr)
	}
	return stored, err
}

func (s *Syncer) fetchAndStore(ctx context.Context, feed calendar.Feed, from, to time.Time) (int, error) {
	source, err := s.provider.SourceFor(feed.Kind)
	if err != nil {
		return 0, err
	}

	fetchCtx := ctx
	if s.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
	}
	events, err := source.FetchEvents(fetchCtx, feed, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch events: %w", err)
	}
	return s.calendars.ReplaceFeedEvents(ctx, feed, events)
}

// window starts a day back so events in progress stay visible.
func (s *Syncer) window() (time.Time, time.Time) {
	from := utils.StartOfDay(s.clock.Now(), time.UTC).AddDate(0, 0, -1)
	return from, from.AddDate(0, 0, s.cfg.HorizonDays+1)
}
