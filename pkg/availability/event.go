// Package availability computes when the members of a group are free at the same time.
//
// Every function in this package is a pure function of its arguments: events and member ids are
// read-only snapshots, "now" is passed in by the caller and nothing is cached between calls.
package availability

import "time"

type MemberId string

type Member struct {
	Id   MemberId
	Name string
}

type EventType string

const (
	EventTypeGroup    EventType = "group"
	EventTypePersonal EventType = "personal"
)

// CalendarEvent is an immutable event taken from a member's synced calendars or created in a group.
type CalendarEvent struct {
	Id      string
	OwnerId MemberId
	// GroupId is empty for personal events.
	GroupId             string
	Title               string
	Start               time.Time
	End                 time.Time
	AllDay              bool
	Location            string
	Type                EventType
	SourceCalendarName  string
	SourceCalendarColor string
}

// Kind classifies the event. An explicit Type wins, otherwise events attached to a group are group events.
func (e CalendarEvent) Kind() EventType {
	switch e.Type {
	case EventTypeGroup, EventTypePersonal:
		return e.Type
	}
	if e.GroupId != "" {
		return EventTypeGroup
	}
	return EventTypePersonal
}

func (e CalendarEvent) IsValid() bool {
	return !e.End.Before(e.Start)
}

// span returns the interval the event keeps its owner busy, evaluated in loc.
// All-day dates are floating: they cover whole calendar days wherever they are viewed.
func span(e CalendarEvent, loc *time.Location) (time.Time, time.Time) {
	if !e.AllDay {
		return e.Start, e.End
	}
	start := floatingDay(e.Start, loc)
	end := floatingDay(e.End, loc)
	if !isMidnight(e.End) || !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

func floatingDay(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

// daysBetween counts calendar days from a to b, ignoring DST shifts.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

func distinct(ids []MemberId) []MemberId {
	seen := make(map[MemberId]bool, len(ids))
	out := make([]MemberId, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
