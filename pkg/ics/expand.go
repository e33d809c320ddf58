package ics

import (
	"errors"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/teambition/rrule-go"
)

const defaultMaxOccurrencesPerEvent = 1000

// ExpandConfig bounds recurrence expansion to [RangeStart, RangeEnd).
type ExpandConfig struct {
	RangeStart time.Time
	RangeEnd   time.Time
	// MaxOccurrencesPerEvent caps one series. Zero means defaultMaxOccurrencesPerEvent.
	MaxOccurrencesPerEvent int
}

// Occurrence is one concrete instance of an event.
type Occurrence struct {
	UID          string
	Summary      string
	Location     string
	CalendarName string
	Start        time.Time
	End          time.Time
	AllDay       bool
}

type ExpandResult struct {
	Occurrences []Occurrence
	// Truncated lists the UIDs of series that hit the occurrence cap.
	Truncated []string
}

// Expand turns parsed events into the occurrences overlapping the configured range, sorted by start.
// Cancelled and transparent events are left out since they never make anyone busy.
// Instances replaced through RECURRENCE-ID are emitted at their overridden time.
func Expand(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: range end is before range start")
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	series := make(map[string][]ParsedEvent)
	overrides := make(map[string][]ParsedEvent)
	var uids []string
	for _, ev := range events {
		if ev.IsOverride() {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
		} else {
			series[ev.UID] = append(series[ev.UID], ev)
		}
		if len(series[ev.UID])+len(overrides[ev.UID]) == 1 {
			uids = append(uids, ev.UID)
		}
	}

	result.Occurrences = make([]Occurrence, 0, len(events))
	for _, uid := range uids {
		for _, ev := range series[uid] {
			occurrences, truncated := expandEvent(ev, overrides[uid], cfg)
			if truncated {
				result.Truncated = append(result.Truncated, uid)
				log.Warnf("Recurring event %s truncated at %d occurrences", uid, cfg.MaxOccurrencesPerEvent)
			}
			result.Occurrences = append(result.Occurrences, occurrences...)
		}
		for _, ov := range overrides[uid] {
			if blocking(ov) && inRange(ov.Start, ov.End, ov.AllDay, cfg) {
				result.Occurrences = append(result.Occurrences, occurrenceOf(ov, ov.Start, ov.End))
			}
		}
	}

	sort.SliceStable(result.Occurrences, func(i, j int) bool {
		return result.Occurrences[i].Start.Before(result.Occurrences[j].Start)
	})
	return result, nil
}

func expandEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]Occurrence, bool) {
	if !blocking(ev) {
		return nil, false
	}
	if ev.RRule == "" {
		if inRange(ev.Start, ev.End, ev.AllDay, cfg) {
			return []Occurrence{occurrenceOf(ev, ev.Start, ev.End)}, false
		}
		return nil, false
	}

	r, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		log.Warnf("Event %s has an unreadable RRULE %q, keeping only its first instance: %v", ev.UID, ev.RRule, err)
		ev.RRule = ""
		return expandEvent(ev, overrides, cfg)
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// instances that started before the range may still overlap it
	after, before := searchRange(ev, cfg)
	starts := set.Between(after.In(ev.Start.Location()), before.In(ev.Start.Location()), true)

	truncated := false
	if len(starts) > cfg.MaxOccurrencesPerEvent {
		starts = starts[:cfg.MaxOccurrencesPerEvent]
		truncated = true
	}

	out := make([]Occurrence, 0, len(starts))
	for _, start := range starts {
		if isOverridden(start, overrides) {
			continue
		}
		end := instanceEnd(ev, start)
		if inRange(start, end, ev.AllDay, cfg) {
			out = append(out, occurrenceOf(ev, start, end))
		}
	}
	return out, truncated
}

func searchRange(ev ParsedEvent, cfg ExpandConfig) (time.Time, time.Time) {
	after := cfg.RangeStart.Add(-ev.End.Sub(ev.Start))
	before := cfg.RangeEnd
	if ev.AllDay {
		after = after.Add(-24 * time.Hour)
		before = before.Add(24 * time.Hour)
	}
	return after, before
}

func instanceEnd(ev ParsedEvent, start time.Time) time.Time {
	if ev.AllDay {
		days := int(ev.End.Sub(ev.Start).Hours() / 24)
		if days < 1 {
			days = 1
		}
		return start.AddDate(0, 0, days)
	}
	return start.Add(ev.End.Sub(ev.Start))
}

func isOverridden(start time.Time, overrides []ParsedEvent) bool {
	for _, ov := range overrides {
		if ov.RecurrenceId != nil && ov.RecurrenceId.Equal(start) {
			return true
		}
	}
	return false
}

// inRange checks overlap with the configured range. All-day dates are floating, so they are matched
// with a day of slack and cut precisely later by the availability engine.
func inRange(start, end time.Time, allDay bool, cfg ExpandConfig) bool {
	rangeStart, rangeEnd := cfg.RangeStart, cfg.RangeEnd
	if allDay {
		rangeStart = rangeStart.Add(-24 * time.Hour)
		rangeEnd = rangeEnd.Add(24 * time.Hour)
	}
	if end.Equal(start) {
		return !start.Before(rangeStart) && start.Before(rangeEnd)
	}
	return start.Before(rangeEnd) && end.After(rangeStart)
}

func blocking(ev ParsedEvent) bool {
	return ev.Status != "CANCELLED" && !ev.Transparent
}

func occurrenceOf(ev ParsedEvent, start, end time.Time) Occurrence {
	return Occurrence{
		UID:          ev.UID,
		Summary:      ev.Summary,
		Location:     ev.Location,
		CalendarName: ev.CalendarName,
		Start:        start,
		End:          end,
		AllDay:       ev.AllDay,
	}
}
