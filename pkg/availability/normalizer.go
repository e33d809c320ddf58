package availability

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Preferences toggles the optional exclusion rules applied by Normalize.
type Preferences struct {
	// HideHolidays drops holiday and birthday entries, which never block anyone.
	HideHolidays bool
	// DedupAllDay collapses identical all-day placeholders synced from several calendars.
	DedupAllDay bool
}

var nonBlockingVocabulary = []string{"holiday", "birthday"}

// Normalize returns the events relevant for the group within [windowStart, windowEnd).
// Malformed events are dropped silently. The relative order of the kept events is preserved.
func Normalize(
	events []CalendarEvent,
	groupId string,
	memberIds []MemberId,
	windowStart time.Time,
	windowEnd time.Time,
	prefs Preferences,
) []CalendarEvent {
	out := make([]CalendarEvent, 0, len(events))
	if windowStart.After(windowEnd) {
		return out
	}

	members := make(map[MemberId]bool, len(memberIds))
	for _, id := range memberIds {
		members[id] = true
	}

	// cases.Caser is stateful, one per call keeps Normalize safe for concurrent use
	fold := cases.Fold()
	loc := windowStart.Location()
	seenAllDay := make(map[string]bool)

	for _, e := range events {
		if !e.IsValid() {
			continue
		}
		start, end := span(e, loc)
		if !overlaps(start, end, windowStart, windowEnd) {
			continue
		}
		if !belongsTo(e, groupId, members) {
			continue
		}
		if prefs.HideHolidays && isNonBlocking(e, fold) {
			continue
		}
		if prefs.DedupAllDay && e.AllDay {
			key := string(e.OwnerId) + "|" + start.Format(time.DateOnly) + "|" + fold.String(strings.TrimSpace(e.Title))
			if seenAllDay[key] {
				continue
			}
			seenAllDay[key] = true
		}
		out = append(out, e)
	}
	return out
}

func belongsTo(e CalendarEvent, groupId string, members map[MemberId]bool) bool {
	switch e.Kind() {
	case EventTypeGroup:
		return e.GroupId == groupId
	case EventTypePersonal:
		return members[e.OwnerId]
	default:
		return false
	}
}

func isNonBlocking(e CalendarEvent, fold cases.Caser) bool {
	for _, field := range []string{e.Title, e.SourceCalendarName} {
		if field == "" {
			continue
		}
		folded := fold.String(field)
		for _, word := range nonBlockingVocabulary {
			if strings.Contains(folded, word) {
				return true
			}
		}
	}
	return false
}
