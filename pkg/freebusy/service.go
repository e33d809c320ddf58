// Package freebusy answers when the members of a group are free together, from their stored events.
package freebusy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gatherly/gatherly/internal/config"
	"github.com/gatherly/gatherly/internal/event_bus"
	"github.com/gatherly/gatherly/internal/utils"
	"github.com/gatherly/gatherly/pkg/availability"
	"github.com/gatherly/gatherly/pkg/calendar"
	"github.com/gatherly/gatherly/pkg/group"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const maxRangeDays = 31

var ErrInvalidRange = errors.New("invalid range")

// Availability is the computed free/busy picture of a group over a window.
type Availability struct {
	Group   group.Group
	Members []group.Member
	From    time.Time
	To      time.Time
	availability.Result
}

type Service interface {
	GetAvailability(ctx context.Context, groupId uuid.UUID, from, to time.Time) (Availability, error)
	GetHighlights(ctx context.Context, groupId uuid.UUID, days, limit int) ([]availability.Highlight, error)
	SubscribeSyncs(bus *event_bus.EventBus) func()
}

type ServiceImpl struct {
	groups    group.Service
	calendars calendar.Service
	bus       *event_bus.EventBus
	clock     utils.Clock
	cfg       config.Availability
	location  *time.Location
}

func NewService(
	groups group.Service,
	calendars calendar.Service,
	bus *event_bus.EventBus,
	clock utils.Clock,
	cfg config.Availability,
) *ServiceImpl {
	return &ServiceImpl{
		groups:    groups,
		calendars: calendars,
		bus:       bus,
		clock:     clock,
		cfg:       cfg,
		location:  cfg.Location(),
	}
}

// GetAvailability computes slot and block summaries and highlights for [from, to). Days are taken in
// the location of from.
func (s *ServiceImpl) GetAvailability(ctx context.Context, groupId uuid.UUID, from, to time.Time) (Availability, error) {
	if !from.Before(to) {
		return Availability{}, fmt.Errorf("%w: 'from' must be before 'to'", ErrInvalidRange)
	}
	if to.Sub(from) > maxRangeDays*24*time.Hour {
		return Availability{}, fmt.Errorf("%w: at most %d days can be requested", ErrInvalidRange, maxRangeDays)
	}

	g, err := s.groups.GetGroup(ctx, groupId)
	if err != nil {
		return Availability{}, err
	}
	members, err := s.groups.ListMembers(ctx, groupId)
	if err != nil {
		return Availability{}, fmt.Errorf("failed to list members: %w", err)
	}
	ownerIds := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		ownerIds = append(ownerIds, m.Id)
	}
	// whole days are evaluated, so events before from or after to on those days still count
	dayStart, dayEnd := availability.CoveredDays(from, to)
	events, err := s.calendars.GetEvents(ctx, ownerIds, dayStart, dayEnd)
	if err != nil {
		return Availability{}, fmt.Errorf("failed to get events of group %s: %w", groupId, err)
	}

	snapshot := availability.Snapshot{
		GroupId:     groupId.String(),
		Events:      events,
		Members:     memberIds(members),
		WindowStart: from,
		WindowEnd:   to,
		Preferences: g.Preferences,
		Now:         s.clock.Now(),
	}
	result := availability.Compute(snapshot)
	if dropped := len(events) - len(result.Events); dropped > 0 {
		log.Debugf("Group %s: %d of %d events ignored for availability", groupId, dropped, len(events))
	}
	log.Tracef("Group %s: %d block summaries, %d highlights", groupId, len(result.BlockSummaries), len(result.Highlights))

	return Availability{
		Group:   g,
		Members: members,
		From:    from,
		To:      to,
		Result:  result,
	}, nil
}

// GetHighlights returns the first limit windows, starting today, when the whole group is free.
// Zero days or limit fall back to the configured defaults.
func (s *ServiceImpl) GetHighlights(ctx context.Context, groupId uuid.UUID, days, limit int) ([]availability.Highlight, error) {
	if days == 0 {
		days = s.cfg.HorizonDays
	}
	if limit == 0 {
		limit = s.cfg.HighlightLimit
	}
	if days < 0 || days > maxRangeDays || limit < 0 {
		return nil, fmt.Errorf("%w: days must be within 1-%d and limit positive", ErrInvalidRange, maxRangeDays)
	}

	start := utils.StartOfDay(s.clock.Now(), s.location)
	found, err := s.GetAvailability(ctx, groupId, start, start.AddDate(0, 0, days))
	if err != nil {
		return nil, err
	}
	highlights := found.Highlights
	if len(highlights) > limit {
		highlights = highlights[:limit]
	}

	if s.bus != nil && len(highlights) > 0 {
		err := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.HighlightsFoundType, event_bus.HighlightsFound{
			GroupId:    groupId.String(),
			GroupName:  found.Group.Name,
			Highlights: highlights,
		}))
		if err != nil {
			log.Errorf("failed to publish highlights of group %s: %v", groupId, err)
		}
	}
	return highlights, nil
}

func memberIds(members []group.Member) []availability.MemberId {
	ids := make([]availability.MemberId, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.AvailabilityId())
	}
	return ids
}
