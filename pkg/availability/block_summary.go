package availability

import "time"

type BlockSummary struct {
	Date         time.Time
	Block        TimeBlock
	TotalMembers int
	// FreeMembers holds members free for every hour of the block.
	FreeMembers []MemberId
	BusyMembers []MemberId
	AllFree     bool
}

// SummarizeBlock rolls the hourly slots of a block up. A member busy for a single hour is busy for
// the whole block: a free afternoon means the entire afternoon.
func SummarizeBlock(events []CalendarEvent, memberIds []MemberId, date time.Time, block TimeBlock) BlockSummary {
	members := distinct(memberIds)
	summary := BlockSummary{
		Date:         startOfDay(date),
		Block:        block,
		TotalMembers: len(members),
		FreeMembers:  make([]MemberId, 0, len(members)),
		BusyMembers:  make([]MemberId, 0, len(members)),
	}

	hours := block.Hours()
	if len(hours) == 0 {
		summary.BusyMembers = append(summary.BusyMembers, members...)
		return summary
	}

	freeHours := make(map[MemberId]int, len(members))
	for _, hour := range hours {
		slot := SummarizeSlot(events, members, date, hour)
		for _, m := range slot.FreeMembers {
			freeHours[m]++
		}
	}
	for _, m := range members {
		if freeHours[m] == len(hours) {
			summary.FreeMembers = append(summary.FreeMembers, m)
		} else {
			summary.BusyMembers = append(summary.BusyMembers, m)
		}
	}
	summary.AllFree = summary.TotalMembers > 0 && len(summary.FreeMembers) == summary.TotalMembers
	return summary
}
