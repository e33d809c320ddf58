package freebusy

import (
	"context"
	"testing"
	"time"

	"github.com/gatherly/gatherly/internal/config"
	"github.com/gatherly/gatherly/internal/event_bus"
	"github.com/gatherly/gatherly/internal/utils"
	"github.com/gatherly/gatherly/pkg/availability"
	"github.com/gatherly/gatherly/pkg/calendar"
	"github.com/gatherly/gatherly/pkg/group"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Friday evening before a weekend.
var friday = time.Date(2026, 1, 9, 20, 0, 0, 0, time.UTC)

type fixture struct {
	groups    *group.ServiceImpl
	calendars *calendar.ServiceImpl
	bus       *event_bus.EventBus
	clock     *utils.MockClock
	service   *ServiceImpl
	group     group.Group
	ana       group.Member
	ben       group.Member
}

func newFixture(t *testing.T, prefs availability.Preferences) *fixture {
	t.Helper()
	f := &fixture{
		groups:    group.NewService(group.NewRepositoryStub()),
		calendars: calendar.NewService(calendar.NewRepositoryStub()),
		bus:       event_bus.NewEventBus(),
		clock:     &utils.MockClock{FixedNow: friday},
	}
	cfg := config.Defaults().Availability
	f.service = NewService(f.groups, f.calendars, f.bus, f.clock, cfg)

	var err error
	f.group, err = f.groups.CreateGroup(t.Context(), "Board games", prefs)
	require.NoError(t, err)
	f.ana, err = f.groups.AddMember(t.Context(), f.group.Id, "Ana")
	require.NoError(t, err)
	f.ben, err = f.groups.AddMember(t.Context(), f.group.Id, "Ben")
	require.NoError(t, err)

	// Ana is busy on Saturday afternoon.
	f.addEvent(t, availability.CalendarEvent{
		OwnerId: f.ana.AvailabilityId(),
		Title:   "Dentist",
		Start:   time.Date(2026, 1, 10, 13, 0, 0, 0, time.UTC),
		End:     time.Date(2026, 1, 10, 15, 0, 0, 0, time.UTC),
	})
	return f
}

func (f *fixture) addEvent(t *testing.T, event availability.CalendarEvent) {
	t.Helper()
	_, err := f.calendars.AddEvent(t.Context(), event)
	require.NoError(t, err)
}

func TestService_GetAvailability(t *testing.T) {
	// given
	f := newFixture(t, availability.Preferences{})
	saturday := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	// when
	result, err := f.service.GetAvailability(t.Context(), f.group.Id, saturday, saturday.AddDate(0, 0, 1))

	// then
	require.NoError(t, err)
	assert.Equal(t, f.group.Id, result.Group.Id)
	assert.Len(t, result.Members, 2)
	require.Len(t, result.BlockSummaries, 3)
	assert.Len(t, result.SlotSummaries, 15)

	allFree := map[string]bool{}
	for _, b := range result.BlockSummaries {
		allFree[b.Block.Name] = b.AllFree
		assert.Equal(t, 2, b.TotalMembers)
		assert.Equal(t, b.TotalMembers, len(b.FreeMembers)+len(b.BusyMembers))
	}
	assert.Equal(t, map[string]bool{"morning": true, "afternoon": false, "evening": true}, allFree)

	require.Len(t, result.Highlights, 2)
	assert.Equal(t, "Tomorrow morning", result.Highlights[0].Label)
	assert.Equal(t, "Tomorrow evening", result.Highlights[1].Label)
}

func TestService_GetAvailabilityWithMidDayStart(t *testing.T) {
	// given
	f := newFixture(t, availability.Preferences{})
	saturday := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	// when
	// Ana's appointment ends at 15:00, before the requested window starts
	result, err := f.service.GetAvailability(t.Context(), f.group.Id, saturday.Add(16*time.Hour), saturday.AddDate(0, 0, 1))

	// then
	require.NoError(t, err)
	require.Len(t, result.BlockSummaries, 3)
	afternoon := result.BlockSummaries[1]
	assert.Equal(t, "afternoon", afternoon.Block.Name)
	assert.False(t, afternoon.AllFree)
	assert.Equal(t, []availability.MemberId{f.ana.AvailabilityId()}, afternoon.BusyMembers)

	require.Len(t, result.Highlights, 2)
	assert.Equal(t, "Tomorrow morning", result.Highlights[0].Label)
	assert.Equal(t, "Tomorrow evening", result.Highlights[1].Label)
}

func TestService_GetAvailabilityHolidayPreference(t *testing.T) {
	testCases := []struct {
		name           string
		prefs          availability.Preferences
		wantHighlights int
	}{
		{"holidays block", availability.Preferences{}, 0},
		{"holidays hidden", availability.Preferences{HideHolidays: true}, 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			f := newFixture(t, tc.prefs)
			f.addEvent(t, availability.CalendarEvent{
				OwnerId: f.ben.AvailabilityId(),
				Title:   "Public Holiday",
				Start:   time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
				End:     time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC),
				AllDay:  true,
			})
			saturday := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

			// when
			result, err := f.service.GetAvailability(t.Context(), f.group.Id, saturday, saturday.AddDate(0, 0, 1))

			// then
			require.NoError(t, err)
			assert.Len(t, result.Highlights, tc.wantHighlights)
		})
	}
}

func TestService_GetAvailabilityIgnoresOtherGroups(t *testing.T) {
	// given
	f := newFixture(t, availability.Preferences{})
	f.addEvent(t, availability.CalendarEvent{
		OwnerId: f.ben.AvailabilityId(),
		GroupId: uuid.NewString(),
		Title:   "Other group's picnic",
		Start:   time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC),
		End:     time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC),
	})
	saturday := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	// when
	result, err := f.service.GetAvailability(t.Context(), f.group.Id, saturday, saturday.AddDate(0, 0, 1))

	// then
	require.NoError(t, err)
	require.NotEmpty(t, result.Highlights)
	assert.Equal(t, "Tomorrow morning", result.Highlights[0].Label)
}

func TestService_GetAvailabilityErrors(t *testing.T) {
	f := newFixture(t, availability.Preferences{})
	saturday := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name    string
		groupId uuid.UUID
		from    time.Time
		to      time.Time
		wantErr error
	}{
		{"inverted window", f.group.Id, saturday, saturday.Add(-time.Hour), ErrInvalidRange},
		{"empty window", f.group.Id, saturday, saturday, ErrInvalidRange},
		{"too long", f.group.Id, saturday, saturday.AddDate(0, 2, 0), ErrInvalidRange},
		{"unknown group", uuid.New(), saturday, saturday.AddDate(0, 0, 1), group.ErrGroupNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.GetAvailability(t.Context(), tc.groupId, tc.from, tc.to)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestService_GetHighlights(t *testing.T) {
	// given
	f := newFixture(t, availability.Preferences{})
	var published []event_bus.HighlightsFound
	event_bus.SubscribeTyped(f.bus, event_bus.HighlightsFoundType, func(e event_bus.EventT[event_bus.HighlightsFound]) error {
		published = append(published, e.Data)
		return nil
	})

	// when
	highlights, err := f.service.GetHighlights(t.Context(), f.group.Id, 2, 2)

	// then
	require.NoError(t, err)
	require.Len(t, highlights, 2)
	assert.Equal(t, "Today evening", highlights[0].Label)
	assert.Equal(t, "Tomorrow morning", highlights[1].Label)

	require.Len(t, published, 1)
	assert.Equal(t, f.group.Id.String(), published[0].GroupId)
	assert.Equal(t, "Board games", published[0].GroupName)
	assert.Equal(t, highlights, published[0].Highlights)
}

func TestService_GetHighlightsDefaultsAndBounds(t *testing.T) {
	f := newFixture(t, availability.Preferences{})

	highlights, err := f.service.GetHighlights(t.Context(), f.group.Id, 0, 0)
	require.NoError(t, err)
	assert.Len(t, highlights, config.Defaults().Availability.HighlightLimit)

	_, err = f.service.GetHighlights(t.Context(), f.group.Id, 90, 1)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = f.service.GetHighlights(t.Context(), f.group.Id, 1, -1)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestService_GetHighlightsUsesConfiguredTimezone(t *testing.T) {
	// given
	f := newFixture(t, availability.Preferences{})
	cfg := config.Defaults().Availability
	cfg.Timezone = "Asia/Tokyo"
	service := NewService(f.groups, f.calendars, nil, f.clock, cfg)

	// when
	highlights, err := service.GetHighlights(context.Background(), f.group.Id, 1, 10)

	// then
	require.NoError(t, err)
	// 20:00 UTC is already Saturday 05:00 in Tokyo.
	require.NotEmpty(t, highlights)
	assert.Equal(t, "2026-01-10", highlights[0].Date.Format(time.DateOnly))
	assert.Equal(t, "Asia/Tokyo", highlights[0].Start.Location().String())
}

func TestNotifier_AnnouncesEachWindowOnce(t *testing.T) {
	// given
	f := newFixture(t, availability.Preferences{})
	notifier := NewNotifier(f.clock)
	var announced []Announcement
	notifier.announce = func(a Announcement) { announced = append(announced, a) }
	unsubscribe := notifier.Subscribe(f.bus)
	defer unsubscribe()

	// when
	_, err := f.service.GetHighlights(t.Context(), f.group.Id, 2, 2)
	require.NoError(t, err)
	_, err = f.service.GetHighlights(t.Context(), f.group.Id, 2, 3)
	require.NoError(t, err)

	// then
	require.Len(t, announced, 3)
	assert.Equal(t, "Today evening", announced[0].Highlight.Label)
	assert.Equal(t, "Tomorrow evening", announced[2].Highlight.Label)
	assert.Equal(t, "Board games", announced[0].GroupName)
}

func TestNotifier_ForgetsWindowsThatAreOver(t *testing.T) {
	notifier := NewNotifier(&utils.MockClock{FixedNow: friday})
	var announced int
	notifier.announce = func(Announcement) { announced++ }
	h := availability.Highlight{
		Start: friday,
		End:   friday.Add(2 * time.Hour),
	}
	found := event_bus.HighlightsFound{GroupId: "g", Highlights: []availability.Highlight{h}}

	notifier.handle(found, friday)
	notifier.handle(found, friday.Add(time.Hour))
	assert.Equal(t, 1, announced)

	notifier.handle(event_bus.HighlightsFound{GroupId: "g"}, friday.Add(3*time.Hour))
	assert.Empty(t, notifier.seen)
}

func TestService_SyncedGroupIsAnnounced(t *testing.T) {
	// given
	f := newFixture(t, availability.Preferences{})
	notifier := NewNotifier(f.clock)
	var announced []Announcement
	notifier.announce = func(a Announcement) { announced = append(announced, a) }
	defer notifier.Subscribe(f.bus)()
	defer f.service.SubscribeSyncs(f.bus)()

	// when
	err := f.bus.Publish(event_bus.NewEvent(t.Context(), event_bus.GroupSyncedType, event_bus.GroupSynced{
		GroupId: f.group.Id.String(),
		Feeds:   2,
	}))

	// then
	require.NoError(t, err)
	require.Len(t, announced, config.Defaults().Availability.HighlightLimit)
	assert.Equal(t, "Today evening", announced[0].Highlight.Label)
	assert.Equal(t, "Tomorrow morning", announced[1].Highlight.Label)
	assert.Equal(t, "Tomorrow evening", announced[2].Highlight.Label)
	assert.Equal(t, "Board games", announced[0].GroupName)
}

func TestService_SyncOfUnknownGroupFails(t *testing.T) {
	testCases := []struct {
		name    string
		groupId string
		wantErr error
	}{
		{name: "unknown group", groupId: uuid.NewString(), wantErr: group.ErrGroupNotFound},
		{name: "malformed group id", groupId: "not-a-uuid"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			f := newFixture(t, availability.Preferences{})
			defer f.service.SubscribeSyncs(f.bus)()

			// when
			err := f.bus.Publish(event_bus.NewEvent(t.Context(), event_bus.GroupSyncedType, event_bus.GroupSynced{GroupId: tc.groupId}))

			// then
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}
