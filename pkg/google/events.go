package google

import (
	"time"

	"github.com/gatherly/gatherly/pkg/availability"
	log "github.com/sirupsen/logrus"
	gcal "google.golang.org/api/calendar/v3"
)

// toCalendarEvent maps a Google event. Cancelled and free ("transparent") events are dropped.
func toCalendarEvent(item *gcal.Event, owner availability.MemberId, calendarName string) (availability.CalendarEvent, bool) {
	if item == nil || item.Start == nil || item.End == nil {
		return availability.CalendarEvent{}, false
	}
	if item.Status == "cancelled" || item.Transparency == "transparent" {
		return availability.CalendarEvent{}, false
	}

	event := availability.CalendarEvent{
		Id:                 item.Id,
		OwnerId:            owner,
		Title:              item.Summary,
		Location:           item.Location,
		Type:               availability.EventTypePersonal,
		SourceCalendarName: calendarName,
	}

	if item.Start.Date != "" {
		start, errStart := time.Parse(time.DateOnly, item.Start.Date)
		end, errEnd := time.Parse(time.DateOnly, item.End.Date)
		if errStart != nil || errEnd != nil {
			log.Warnf("Ignoring Google event %s with unreadable dates %q - %q", item.Id, item.Start.Date, item.End.Date)
			return availability.CalendarEvent{}, false
		}
		event.Start, event.End, event.AllDay = start, end, true
		return event, true
	}

	start, errStart := time.Parse(time.RFC3339, item.Start.DateTime)
	end, errEnd := time.Parse(time.RFC3339, item.End.DateTime)
	if errStart != nil || errEnd != nil {
		log.Warnf("Ignoring Google event %s with unreadable times %q - %q", item.Id, item.Start.DateTime, item.End.DateTime)
		return availability.CalendarEvent{}, false
	}
	event.Start, event.End = start, end
	return event, true
}
