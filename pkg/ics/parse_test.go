package ics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_EventShapes(t *testing.T) {
	warsaw, err := time.LoadLocation("Europe/Warsaw")
	require.NoError(t, err)
	body := calendar(join(
		vevent(
			"UID:timed",
			"SUMMARY:Standup",
			"LOCATION:Room 1",
			"DTSTART;TZID=Europe/Warsaw:20260112T090000",
			"DTEND;TZID=Europe/Warsaw:20260112T091500",
		),
		vevent(
			"UID:utc",
			"SUMMARY:Call",
			"DTSTART:20260112T150000Z",
			"DURATION:PT1H30M",
		),
		vevent(
			"UID:allday",
			"SUMMARY:Vacation",
			"DTSTART;VALUE=DATE:20260113",
			"DTEND;VALUE=DATE:20260115",
		),
		vevent(
			"UID:allday-no-end",
			"SUMMARY:Birthday",
			"DTSTART;VALUE=DATE:20260116",
		),
		vevent(
			"UID:floating",
			"SUMMARY:Local",
			"DTSTART:20260117T100000",
		),
		vevent(
			"SUMMARY:No uid",
			"DTSTART:20260117T100000Z",
		),
		vevent(
			"UID:no-start",
			"SUMMARY:Broken",
		),
	)...)

	events, err := Parse(body, warsaw)

	require.NoError(t, err)
	require.Len(t, events, 5)
	byUID := make(map[string]ParsedEvent, len(events))
	for _, e := range events {
		byUID[e.UID] = e
		assert.Equal(t, "Team", e.CalendarName)
	}

	timed := byUID["timed"]
	assert.Equal(t, "Standup", timed.Summary)
	assert.Equal(t, "Room 1", timed.Location)
	assert.False(t, timed.AllDay)
	assert.True(t, time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC).Equal(timed.Start))
	assert.Equal(t, 15*time.Minute, timed.End.Sub(timed.Start))

	utc := byUID["utc"]
	assert.True(t, time.Date(2026, 1, 12, 16, 30, 0, 0, time.UTC).Equal(utc.End))

	allDay := byUID["allday"]
	assert.True(t, allDay.AllDay)
	assert.Equal(t, time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC), allDay.Start)
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), allDay.End)

	noEnd := byUID["allday-no-end"]
	assert.Equal(t, time.Date(2026, 1, 17, 0, 0, 0, 0, time.UTC), noEnd.End)

	floating := byUID["floating"]
	assert.Equal(t, warsaw, floating.Start.Location())
	assert.True(t, floating.Start.Equal(floating.End))
}

func TestParse_RecurrenceProperties(t *testing.T) {
	body := calendar(join(
		vevent(
			"UID:weekly",
			"SUMMARY:Training",
			"DTSTART:20260105T180000Z",
			"DTEND:20260105T200000Z",
			"RRULE:FREQ=WEEKLY;COUNT=4",
			"EXDATE:20260112T180000Z,20260126T180000Z",
			"STATUS:CONFIRMED",
		),
		vevent(
			"UID:weekly",
			"SUMMARY:Training (moved)",
			"RECURRENCE-ID:20260119T180000Z",
			"DTSTART:20260120T190000Z",
			"DTEND:20260120T210000Z",
		),
		vevent(
			"UID:free",
			"SUMMARY:Reminder",
			"DTSTART:20260105T180000Z",
			"TRANSP:TRANSPARENT",
			"STATUS:cancelled",
		),
	)...)

	events, err := Parse(body, time.UTC)

	require.NoError(t, err)
	require.Len(t, events, 3)
	base := events[0]
	assert.Equal(t, "FREQ=WEEKLY;COUNT=4", base.RRule)
	require.Len(t, base.ExDates, 2)
	assert.True(t, time.Date(2026, 1, 26, 18, 0, 0, 0, time.UTC).Equal(base.ExDates[1]))
	assert.False(t, base.IsOverride())

	override := events[1]
	require.True(t, override.IsOverride())
	assert.True(t, time.Date(2026, 1, 19, 18, 0, 0, 0, time.UTC).Equal(*override.RecurrenceId))

	free := events[2]
	assert.True(t, free.Transparent)
	assert.Equal(t, "CANCELLED", free.Status)
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse([]byte("  \r\n"), time.UTC)
	assert.ErrorIs(t, err, ErrEmptyCalendar)
}

func TestParseDuration(t *testing.T) {
	testCases := []struct {
		value   string
		want    time.Duration
		wantErr bool
	}{
		{"PT1H", time.Hour, false},
		{"PT1H30M", 90 * time.Minute, false},
		{"P1D", 24 * time.Hour, false},
		{"P1W", 7 * 24 * time.Hour, false},
		{"P1DT2H", 26 * time.Hour, false},
		{"PT45S", 45 * time.Second, false},
		{"-PT15M", -15 * time.Minute, false},
		{"P", 0, true},
		{"PT", 0, true},
		{"1H", 0, true},
	}
	for _, tc := range testCases {
		t.Run(tc.value, func(t *testing.T) {
			got, err := parseDuration(tc.value)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
