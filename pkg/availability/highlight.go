package availability

import (
	"sort"
	"strings"
	"time"
)

// Highlight is a window on a single day where every member of the group is free.
type Highlight struct {
	Date   time.Time
	Blocks []TimeBlock
	// StartHour and EndHour are inclusive, like the hours of a TimeBlock.
	StartHour   int
	EndHour     int
	Start       time.Time
	End         time.Time
	MemberCount int
	Label       string
}

// FindHighlights scans every block of every day in [startDate, endDate) and returns the windows where
// all members are free, ordered by start. Adjacent qualifying blocks of the same day are merged.
// Blocks that are over by now are skipped.
func FindHighlights(events []CalendarEvent, memberIds []MemberId, startDate, endDate, now time.Time) []Highlight {
	highlights := make([]Highlight, 0)
	members := distinct(memberIds)
	if len(members) == 0 || !startDate.Before(endDate) {
		return highlights
	}

	for date := startOfDay(startDate); date.Before(endDate); date = date.AddDate(0, 0, 1) {
		var run []TimeBlock
		flush := func() {
			if len(run) > 0 {
				highlights = append(highlights, newHighlight(date, run, len(members), now))
				run = nil
			}
		}
		for _, block := range AllBlocks() {
			if !block.End(date).After(now) {
				flush()
				continue
			}
			summary := SummarizeBlock(events, members, date, block)
			if !summary.AllFree {
				flush()
				continue
			}
			run = append(run, block)
		}
		flush()
	}

	sort.SliceStable(highlights, func(i, j int) bool {
		return highlights[i].Start.Before(highlights[j].Start)
	})
	return highlights
}

func newHighlight(date time.Time, blocks []TimeBlock, memberCount int, now time.Time) Highlight {
	first := blocks[0]
	last := blocks[len(blocks)-1]
	return Highlight{
		Date:        startOfDay(date),
		Blocks:      blocks,
		StartHour:   first.FirstHour,
		EndHour:     last.LastHour,
		Start:       first.Start(date),
		End:         last.End(date),
		MemberCount: memberCount,
		Label:       Label(date, blocks, now),
	}
}

// Label builds the short description of a window, e.g. "Today afternoon" or "Sat morning & afternoon".
// The day part is relative to now as seen in the location of date.
func Label(date time.Time, blocks []TimeBlock, now time.Time) string {
	day := relativeDay(startOfDay(date), startOfDay(now.In(date.Location())))
	phrase := blockPhrase(blocks)
	if phrase == "" {
		return day
	}
	return day + " " + phrase
}

func relativeDay(day, today time.Time) string {
	switch diff := daysBetween(today, day); {
	case diff == 0:
		return "Today"
	case diff == 1:
		return "Tomorrow"
	case diff > 1 && diff < 7:
		return day.Format("Mon")
	default:
		return day.Format("Jan 2")
	}
}

func blockPhrase(blocks []TimeBlock) string {
	if len(blocks) == 0 {
		return ""
	}
	if len(blocks) == len(AllBlocks()) {
		return "all day"
	}
	names := make([]string, 0, len(blocks))
	for _, b := range blocks {
		names = append(names, b.Name)
	}
	return strings.Join(names, " & ")
}
