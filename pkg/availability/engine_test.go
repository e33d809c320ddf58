package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weekendSnapshot() Snapshot {
	sunday := saturday.AddDate(0, 0, 1)
	return Snapshot{
		GroupId: "g1",
		Events: []CalendarEvent{
			personal("gym", alice, at(saturday, 9, 0), at(saturday, 10, 0)),
			{Id: "rehearsal", OwnerId: bob, GroupId: "g1", Type: EventTypeGroup, Start: at(sunday, 18, 0), End: at(sunday, 19, 30)},
			allDay("holiday", carol, sunday, "Bank Holiday"),
			personal("malformed", carol, at(saturday, 14, 0), at(saturday, 13, 0)),
		},
		Members:     []MemberId{alice, bob, carol},
		WindowStart: saturday,
		WindowEnd:   saturday.AddDate(0, 0, 2),
		Preferences: Preferences{HideHolidays: true, DedupAllDay: true},
		Now:         at(saturday, 8, 0),
	}
}

func TestCompute(t *testing.T) {
	result := Compute(weekendSnapshot())

	assert.Equal(t, []string{"gym", "rehearsal"}, ids(result.Events))
	// two days, three blocks of five hours
	assert.Len(t, result.SlotSummaries, 2*15)
	assert.Len(t, result.BlockSummaries, 2*3)

	for _, slot := range result.SlotSummaries {
		assert.Equal(t, slot.TotalMembers, len(slot.FreeMembers)+len(slot.BusyMembers))
	}

	require.Len(t, result.Highlights, 2)
	assert.Equal(t, "Today afternoon & evening", result.Highlights[0].Label)
	assert.Equal(t, "Tomorrow morning & afternoon", result.Highlights[1].Label)
}

func TestCompute_HolidayExclusionScenario(t *testing.T) {
	snapshot := weekendSnapshot()
	snapshot.Preferences.HideHolidays = false

	result := Compute(snapshot)

	assert.Contains(t, ids(result.Events), "holiday")
	for _, h := range result.Highlights {
		assert.NotEqual(t, saturday.AddDate(0, 0, 1), h.Date)
	}
}

func TestCompute_IsIdempotent(t *testing.T) {
	snapshot := weekendSnapshot()

	assert.Equal(t, Compute(snapshot), Compute(snapshot))
}

func TestCompute_EmptyOrInvertedWindow(t *testing.T) {
	snapshot := weekendSnapshot()
	snapshot.WindowEnd = snapshot.WindowStart

	empty := Compute(snapshot)
	assert.Empty(t, empty.SlotSummaries)
	assert.Empty(t, empty.BlockSummaries)
	assert.Empty(t, empty.Highlights)
	assert.NotNil(t, empty.Highlights)

	snapshot.WindowEnd = snapshot.WindowStart.AddDate(0, 0, -1)
	assert.Equal(t, empty, Compute(snapshot))
}

func TestCompute_NoMembersNeverEveryoneFree(t *testing.T) {
	snapshot := weekendSnapshot()
	snapshot.Members = nil

	result := Compute(snapshot)

	assert.Empty(t, result.Highlights)
	for _, block := range result.BlockSummaries {
		assert.False(t, block.AllFree)
		assert.NotEqual(t, EveryoneFree, Intensity(len(block.FreeMembers), block.TotalMembers))
	}
}

func TestCompute_WindowNotAlignedToMidnight(t *testing.T) {
	sunday := saturday.AddDate(0, 0, 1)

	testCases := []struct {
		name           string
		windowStart    time.Time
		windowEnd      time.Time
		events         []CalendarEvent
		wantDays       int
		wantBusy       map[string][]MemberId
		wantHighlights []string
	}{
		{
			name:           "event before a mid-day start still blocks its morning",
			windowStart:    at(saturday, 10, 0),
			windowEnd:      sunday,
			events:         []CalendarEvent{personal("breakfast", alice, at(saturday, 8, 0), at(saturday, 9, 0))},
			wantDays:       1,
			wantBusy:       map[string][]MemberId{"Sat morning": {alice}},
			wantHighlights: []string{"Today afternoon & evening"},
		},
		{
			name:           "event after a mid-day end still blocks its evening",
			windowStart:    saturday,
			windowEnd:      at(sunday, 12, 0),
			events:         []CalendarEvent{personal("dinner", bob, at(sunday, 18, 0), at(sunday, 19, 0))},
			wantDays:       2,
			wantBusy:       map[string][]MemberId{"Sun evening": {bob}},
			wantHighlights: []string{"Today all day", "Tomorrow morning & afternoon"},
		},
		{
			name:           "window inside a single afternoon covers the whole day",
			windowStart:    at(saturday, 13, 0),
			windowEnd:      at(saturday, 14, 0),
			events:         []CalendarEvent{personal("concert", alice, at(saturday, 20, 0), at(saturday, 21, 0))},
			wantDays:       1,
			wantBusy:       map[string][]MemberId{"Sat evening": {alice}},
			wantHighlights: []string{"Today morning & afternoon"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			snapshot := Snapshot{
				GroupId:     "g1",
				Events:      tc.events,
				Members:     []MemberId{alice, bob},
				WindowStart: tc.windowStart,
				WindowEnd:   tc.windowEnd,
				Now:         saturday,
			}

			// when
			result := Compute(snapshot)

			// then
			assert.Len(t, result.BlockSummaries, tc.wantDays*len(AllBlocks()))
			assert.Len(t, result.Events, len(tc.events))
			for _, block := range result.BlockSummaries {
				key := block.Date.Format("Mon") + " " + block.Block.Name
				if busy, ok := tc.wantBusy[key]; ok {
					assert.Equal(t, busy, block.BusyMembers, key)
					assert.False(t, block.AllFree, key)
				} else {
					assert.True(t, block.AllFree, key)
				}
			}
			labels := make([]string, 0, len(result.Highlights))
			for _, h := range result.Highlights {
				labels = append(labels, h.Label)
			}
			assert.Equal(t, tc.wantHighlights, labels)
		})
	}
}

func TestCoveredDays(t *testing.T) {
	sunday := saturday.AddDate(0, 0, 1)

	testCases := []struct {
		name     string
		start    time.Time
		end      time.Time
		wantFrom time.Time
		wantTo   time.Time
	}{
		{name: "aligned window", start: saturday, end: sunday, wantFrom: saturday, wantTo: sunday},
		{name: "mid-day start", start: at(saturday, 10, 0), end: sunday, wantFrom: saturday, wantTo: sunday},
		{name: "mid-day end", start: saturday, end: at(sunday, 12, 0), wantFrom: saturday, wantTo: sunday.AddDate(0, 0, 1)},
		{name: "within one day", start: at(saturday, 13, 0), end: at(saturday, 14, 0), wantFrom: saturday, wantTo: sunday},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			from, to := CoveredDays(tc.start, tc.end)

			// then
			assert.Equal(t, tc.wantFrom, from)
			assert.Equal(t, tc.wantTo, to)
		})
	}
}
