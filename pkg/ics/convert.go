package ics

import (
	"time"

	"github.com/gatherly/gatherly/pkg/availability"
)

// Source describes where occurrences came from when they become calendar events.
type Source struct {
	Owner availability.MemberId
	// Name overrides the calendar name found in the feed.
	Name  string
	Color string
}

// ToCalendarEvents converts occurrences into personal events of the source owner.
func ToCalendarEvents(occurrences []Occurrence, source Source) []availability.CalendarEvent {
	events := make([]availability.CalendarEvent, 0, len(occurrences))
	for _, occ := range occurrences {
		name := source.Name
		if name == "" {
			name = occ.CalendarName
		}
		events = append(events, availability.CalendarEvent{
			Id:                  occ.UID + "/" + occ.Start.UTC().Format(time.RFC3339),
			OwnerId:             source.Owner,
			Title:               occ.Summary,
			Start:               occ.Start,
			End:                 occ.End,
			AllDay:              occ.AllDay,
			Location:            occ.Location,
			Type:                availability.EventTypePersonal,
			SourceCalendarName:  name,
			SourceCalendarColor: source.Color,
		})
	}
	return events
}
