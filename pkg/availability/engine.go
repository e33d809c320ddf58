package availability

import "time"

// Snapshot is everything needed for one computation.
type Snapshot struct {
	GroupId     string
	Events      []CalendarEvent
	Members     []MemberId
	WindowStart time.Time
	WindowEnd   time.Time
	Preferences Preferences
	Now         time.Time
}

type Result struct {
	// Events are the normalized events the summaries were computed from.
	Events         []CalendarEvent
	SlotSummaries  []AvailabilitySummary
	BlockSummaries []BlockSummary
	Highlights     []Highlight
}

// Compute runs the whole pipeline over a snapshot. Days are taken in the location of WindowStart and are
// always evaluated whole, see CoveredDays. Slots are produced for every hour covered by a block.
// An empty or inverted window yields an empty result.
func Compute(s Snapshot) Result {
	result := Result{
		Events:         make([]CalendarEvent, 0),
		SlotSummaries:  make([]AvailabilitySummary, 0),
		BlockSummaries: make([]BlockSummary, 0),
		Highlights:     make([]Highlight, 0),
	}
	if !s.WindowStart.Before(s.WindowEnd) {
		return result
	}

	members := distinct(s.Members)
	from, to := CoveredDays(s.WindowStart, s.WindowEnd)
	result.Events = Normalize(s.Events, s.GroupId, members, from, to, s.Preferences)

	for date := from; date.Before(to); date = date.AddDate(0, 0, 1) {
		for _, block := range AllBlocks() {
			for _, hour := range block.Hours() {
				result.SlotSummaries = append(result.SlotSummaries, SummarizeSlot(result.Events, members, date, hour))
			}
			result.BlockSummaries = append(result.BlockSummaries, SummarizeBlock(result.Events, members, date, block))
		}
	}
	result.Highlights = FindHighlights(result.Events, members, from, to, s.Now)
	return result
}

// CoveredDays widens [windowStart, windowEnd) to the whole days it touches: from the midnight of
// windowStart up to the midnight following the last day whose midnight is before windowEnd.
// Both are in windowStart's location.
func CoveredDays(windowStart, windowEnd time.Time) (time.Time, time.Time) {
	from := startOfDay(windowStart)
	to := from
	for to.Before(windowEnd) {
		to = to.AddDate(0, 0, 1)
	}
	return from, to
}
