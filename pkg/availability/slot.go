package availability

import "time"

// AvailabilitySummary tells who is free during one hour of one day.
// TotalMembers == 0 means there is no data, not that nobody is free.
type AvailabilitySummary struct {
	Date         time.Time
	Hour         int
	TotalMembers int
	FreeMembers  []MemberId
	BusyMembers  []MemberId
}

// SummarizeSlot evaluates the hour [date@hour:00, date@hour+1:00). A member is busy when any event
// they own overlaps that hour.
func SummarizeSlot(events []CalendarEvent, memberIds []MemberId, date time.Time, hour int) AvailabilitySummary {
	members := distinct(memberIds)
	slotStart := atHour(date, hour)
	slotEnd := atHour(date, hour+1)
	busy := busyOwners(events, slotStart, slotEnd)

	summary := AvailabilitySummary{
		Date:         startOfDay(date),
		Hour:         hour,
		TotalMembers: len(members),
		FreeMembers:  make([]MemberId, 0, len(members)),
		BusyMembers:  make([]MemberId, 0, len(members)),
	}
	for _, m := range members {
		if busy[m] {
			summary.BusyMembers = append(summary.BusyMembers, m)
		} else {
			summary.FreeMembers = append(summary.FreeMembers, m)
		}
	}
	return summary
}

func busyOwners(events []CalendarEvent, from, to time.Time) map[MemberId]bool {
	busy := make(map[MemberId]bool)
	for _, e := range events {
		if busy[e.OwnerId] || !e.IsValid() {
			continue
		}
		start, end := span(e, from.Location())
		if overlaps(start, end, from, to) {
			busy[e.OwnerId] = true
		}
	}
	return busy
}
