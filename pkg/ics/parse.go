package ics

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	log "github.com/sirupsen/logrus"
)

var ErrEmptyCalendar = errors.New("empty ICS body")

// ParsedEvent is a VEVENT before recurrence expansion. All-day dates are pinned to UTC midnight.
type ParsedEvent struct {
	UID      string
	Summary  string
	Location string
	// CalendarName is the X-WR-CALNAME of the feed, if any.
	CalendarName string
	Status       string
	Transparent  bool

	Start  time.Time
	End    time.Time
	AllDay bool

	RRule   string
	ExDates []time.Time
	// RecurrenceId is set on overrides of a single instance of a recurring event.
	RecurrenceId *time.Time
}

// IsOverride reports whether the event replaces one instance of a recurring series.
func (e ParsedEvent) IsOverride() bool {
	return e.RecurrenceId != nil
}

// Parse reads a calendar. Floating date-times and unknown TZIDs are read in fallback.
// Events that cannot be understood are logged and skipped.
func Parse(body []byte, fallback *time.Location) ([]ParsedEvent, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyCalendar
	}
	if fallback == nil {
		fallback = time.UTC
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar: %w", err)
	}

	calendarName := ""
	for _, p := range cal.CalendarProperties {
		if p.IANAToken == string(ical.PropertyXWRCalName) {
			calendarName = p.Value
		}
	}

	events := make([]ParsedEvent, 0)
	for _, ve := range cal.Events() {
		ev, err := parseVEvent(ve, fallback)
		if err != nil {
			log.Debugf("Skipping VEVENT: %v", err)
			continue
		}
		ev.CalendarName = calendarName
		events = append(events, ev)
	}
	return events, nil
}

func parseVEvent(ve *ical.VEvent, fallback *time.Location) (ParsedEvent, error) {
	var out ParsedEvent

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uid.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil {
		out.Status = strings.ToUpper(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyTransp); p != nil {
		out.Transparent = strings.EqualFold(p.Value, "TRANSPARENT")
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, fmt.Errorf("event %s has no DTSTART", out.UID)
	}
	start, allDay, err := propertyTime(dtStart, fallback)
	if err != nil {
		return out, fmt.Errorf("event %s: DTSTART: %w", out.UID, err)
	}
	out.Start = start
	out.AllDay = allDay

	switch {
	case ve.GetProperty(ical.ComponentPropertyDtEnd) != nil:
		end, _, err := propertyTime(ve.GetProperty(ical.ComponentPropertyDtEnd), fallback)
		if err != nil {
			return out, fmt.Errorf("event %s: DTEND: %w", out.UID, err)
		}
		out.End = end
	case ve.GetProperty(ical.ComponentPropertyDuration) != nil:
		d, err := parseDuration(ve.GetProperty(ical.ComponentPropertyDuration).Value)
		if err != nil {
			return out, fmt.Errorf("event %s: DURATION: %w", out.UID, err)
		}
		out.End = out.Start.Add(d)
	case allDay:
		out.End = out.Start.AddDate(0, 0, 1)
	default:
		out.End = out.Start
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			t, _, err := parseTimeValue(part, p.ICalParameters, out.Start.Location())
			if err != nil {
				log.Debugf("event %s: ignoring EXDATE %q: %v", out.UID, part, err)
				continue
			}
			out.ExDates = append(out.ExDates, t)
		}
	}

	if p := ve.GetProperty(ical.ComponentProperty("RECURRENCE-ID")); p != nil {
		t, _, err := propertyTime(p, fallback)
		if err != nil {
			return out, fmt.Errorf("event %s: RECURRENCE-ID: %w", out.UID, err)
		}
		out.RecurrenceId = &t
	}

	return out, nil
}

func propertyTime(p *ical.IANAProperty, fallback *time.Location) (time.Time, bool, error) {
	return parseTimeValue(p.Value, p.ICalParameters, fallback)
}

// parseTimeValue reads DATE and DATE-TIME values. DATE values are all-day and come back as UTC midnight.
func parseTimeValue(value string, params map[string][]string, fallback *time.Location) (time.Time, bool, error) {
	value = strings.TrimSpace(value)
	isDate := !strings.Contains(value, "T")
	if vs, ok := params[string(ical.ParameterValue)]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		isDate = true
	}

	if isDate {
		t, err := time.ParseInLocation("20060102", value, time.UTC)
		return t, true, err
	}
	if strings.HasSuffix(value, "Z") {
		t, err := time.Parse("20060102T150405Z", value)
		return t, false, err
	}

	loc := fallback
	if tzids, ok := params[string(ical.ParameterTzid)]; ok && len(tzids) > 0 {
		if l, err := time.LoadLocation(strings.Trim(tzids[0], `"`)); err == nil {
			loc = l
		} else {
			log.Debugf("unknown TZID %q, using %s", tzids[0], fallback)
		}
	}
	t, err := time.ParseInLocation("20060102T150405", value, loc)
	return t, false, err
}

var durationPattern = regexp.MustCompile(`^([+-])?P(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// parseDuration reads the RFC 5545 DURATION value type, e.g. PT1H30M or P2D.
func parseDuration(value string) (time.Duration, error) {
	m := durationPattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil || value == "P" || strings.HasSuffix(value, "T") {
		return 0, fmt.Errorf("invalid duration %q", value)
	}
	units := []time.Duration{7 * 24 * time.Hour, 24 * time.Hour, time.Hour, time.Minute, time.Second}
	var d time.Duration
	for i, unit := range units {
		if m[i+2] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+2])
		if err != nil {
			return 0, err
		}
		d += time.Duration(n) * unit
	}
	if m[1] == "-" {
		d = -d
	}
	return d, nil
}
