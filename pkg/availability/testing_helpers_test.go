package availability

import "time"

const (
	alice MemberId = "alice"
	bob   MemberId = "bob"
	carol MemberId = "carol"
)

// saturday is 2026-01-10, a Saturday.
var saturday = time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

func personal(id string, owner MemberId, start, end time.Time) CalendarEvent {
	return CalendarEvent{
		Id:      id,
		OwnerId: owner,
		Title:   "Busy " + id,
		Start:   start,
		End:     end,
		Type:    EventTypePersonal,
	}
}

func allDay(id string, owner MemberId, day time.Time, title string) CalendarEvent {
	return CalendarEvent{
		Id:      id,
		OwnerId: owner,
		Title:   title,
		Start:   day,
		End:     day.AddDate(0, 0, 1),
		AllDay:  true,
		Type:    EventTypePersonal,
	}
}
