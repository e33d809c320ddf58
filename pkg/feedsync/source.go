package feedsync

import (
	"context"
	"fmt"
	"time"

	"github.com/gatherly/gatherly/pkg/availability"
	"github.com/gatherly/gatherly/pkg/calendar"
	"github.com/gatherly/gatherly/pkg/google"
	"github.com/gatherly/gatherly/pkg/ics"
	log "github.com/sirupsen/logrus"
)

// Source reads the busy events of one feed overlapping [from, to).
type Source interface {
	FetchEvents(ctx context.Context, feed calendar.Feed, from, to time.Time) ([]availability.CalendarEvent, error)
}

// Provider picks the source that understands a feed kind.
type Provider struct {
	sources map[calendar.FeedKind]Source
}

func NewProvider(icsSource Source, googleSource Source) *Provider {
	return &Provider{
		sources: map[calendar.FeedKind]Source{
			calendar.FeedKindIcs:    icsSource,
			calendar.FeedKindGoogle: googleSource,
		},
	}
}

func (p *Provider) SourceFor(kind calendar.FeedKind) (Source, error) {
	source, ok := p.sources[kind]
	if !ok || source == nil {
		return nil, fmt.Errorf("unknown calendar type %q", kind)
	}
	return source, nil
}

type IcsSource struct {
	fetcher *ics.Fetcher
	// location applies to floating times without a TZID.
	location       *time.Location
	maxOccurrences int
}

func NewIcsSource(fetcher *ics.Fetcher, location *time.Location) *IcsSource {
	return &IcsSource{fetcher: fetcher, location: location}
}

func (s *IcsSource) FetchEvents(ctx context.Context, feed calendar.Feed, from, to time.Time) ([]availability.CalendarEvent, error) {
	fetched, err := s.fetcher.Fetch(ctx, feed.Url)
	if err != nil {
		return nil, err
	}
	if fetched.FromCache {
		log.Debugf("Feed %s not modified, reusing cached copy", feed.Id)
	}

	parsed, err := ics.Parse(fetched.Body, s.location)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", feed.Id, err)
	}
	expanded, err := ics.Expand(parsed, ics.ExpandConfig{
		RangeStart:             from,
		RangeEnd:               to,
		MaxOccurrencesPerEvent: s.maxOccurrences,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to expand feed %s: %w", feed.Id, err)
	}
	if len(expanded.Truncated) > 0 {
		log.Warnf("Feed %s: %d recurring series hit the occurrence cap", feed.Id, len(expanded.Truncated))
	}

	return ics.ToCalendarEvents(expanded.Occurrences, ics.Source{
		Owner: availability.MemberId(feed.MemberId.String()),
		Color: feed.Color,
	}), nil
}

type GoogleSource struct {
	service google.Service
}

func NewGoogleSource(service google.Service) *GoogleSource {
	return &GoogleSource{service: service}
}

func (s *GoogleSource) FetchEvents(ctx context.Context, feed calendar.Feed, from, to time.Time) ([]availability.CalendarEvent, error) {
	events, err := s.service.FetchEvents(ctx, feed.MemberId, feed.CalendarId, from, to)
	if err != nil {
		return nil, err
	}
	for i := range events {
		events[i].SourceCalendarColor = feed.Color
		if events[i].SourceCalendarName == "" {
			events[i].SourceCalendarName = feed.Name
		}
	}
	return events, nil
}
