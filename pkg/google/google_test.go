package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gatherly/gatherly/internal/config"
	"github.com/gatherly/gatherly/pkg/availability"
	"github.com/gatherly/gatherly/pkg/group"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
)

var memberId = uuid.MustParse("6f1c1e43-84b2-4bd1-9d1c-4a3d7d3b7a10")

func newTestAuth(t *testing.T) (*GoogleAuth, *TokenRepositoryStub) {
	t.Helper()
	tokens := NewTokenRepositoryStub()
	cfg := config.Defaults()
	cfg.Google = config.Google{ClientId: "client", ClientSecret: "secret"}
	return NewGoogleAuth(tokens, cfg), tokens
}

func authorize(t *testing.T, tokens *TokenRepositoryStub) {
	t.Helper()
	require.NoError(t, tokens.StoreNonce(t.Context(), memberId, "nonce"))
	stored, err := tokens.StoreToken(t.Context(), "nonce", &oauth2.Token{
		AccessToken: "access",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	require.True(t, stored)
}

func TestToCalendarEvent(t *testing.T) {
	owner := availability.MemberId(memberId.String())
	testCases := []struct {
		name   string
		item   *gcal.Event
		wantOk bool
		check  func(t *testing.T, e availability.CalendarEvent)
	}{
		{
			name: "timed event",
			item: &gcal.Event{
				Id:      "a",
				Summary: "Standup",
				Start:   &gcal.EventDateTime{DateTime: "2026-01-05T09:00:00+01:00"},
				End:     &gcal.EventDateTime{DateTime: "2026-01-05T09:30:00+01:00"},
			},
			wantOk: true,
			check: func(t *testing.T, e availability.CalendarEvent) {
				assert.False(t, e.AllDay)
				assert.True(t, e.Start.Equal(time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)))
				assert.Equal(t, 30*time.Minute, e.End.Sub(e.Start))
				assert.Equal(t, owner, e.OwnerId)
				assert.Equal(t, availability.EventTypePersonal, e.Type)
				assert.Equal(t, "Work", e.SourceCalendarName)
			},
		},
		{
			name: "all-day event",
			item: &gcal.Event{
				Id:      "b",
				Summary: "Vacation",
				Start:   &gcal.EventDateTime{Date: "2026-01-05"},
				End:     &gcal.EventDateTime{Date: "2026-01-07"},
			},
			wantOk: true,
			check: func(t *testing.T, e availability.CalendarEvent) {
				assert.True(t, e.AllDay)
				assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), e.Start)
				assert.Equal(t, time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC), e.End)
			},
		},
		{
			name: "cancelled event",
			item: &gcal.Event{
				Status: "cancelled",
				Start:  &gcal.EventDateTime{Date: "2026-01-05"},
				End:    &gcal.EventDateTime{Date: "2026-01-06"},
			},
		},
		{
			name: "free event",
			item: &gcal.Event{
				Transparency: "transparent",
				Start:        &gcal.EventDateTime{Date: "2026-01-05"},
				End:          &gcal.EventDateTime{Date: "2026-01-06"},
			},
		},
		{
			name: "unreadable time",
			item: &gcal.Event{
				Start: &gcal.EventDateTime{DateTime: "soon"},
				End:   &gcal.EventDateTime{DateTime: "later"},
			},
		},
		{
			name: "missing start",
			item: &gcal.Event{End: &gcal.EventDateTime{Date: "2026-01-06"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			event, ok := toCalendarEvent(tc.item, owner, "Work")

			// then
			assert.Equal(t, tc.wantOk, ok)
			if tc.check != nil {
				tc.check(t, event)
			}
		})
	}
}

func TestService_FetchEvents(t *testing.T) {
	// given
	var pageRequests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/calendars/primary/events"), r.URL.Path)
		assert.Equal(t, "Bearer access", r.Header.Get("Authorization"))
		assert.Equal(t, "true", r.URL.Query().Get("singleEvents"))
		pageRequests++

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("pageToken") == "" {
			_ = json.NewEncoder(w).Encode(gcal.Events{
				Summary:       "Personal",
				NextPageToken: "next",
				Items: []*gcal.Event{
					{Id: "1", Summary: "Gym", Start: &gcal.EventDateTime{DateTime: "2026-01-05T18:00:00Z"}, End: &gcal.EventDateTime{DateTime: "2026-01-05T19:00:00Z"}},
					{Id: "2", Summary: "Dropped", Status: "cancelled", Start: &gcal.EventDateTime{DateTime: "2026-01-05T18:00:00Z"}, End: &gcal.EventDateTime{DateTime: "2026-01-05T19:00:00Z"}},
				},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(gcal.Events{
			Summary: "Personal",
			Items: []*gcal.Event{
				{Id: "3", Summary: "Trip", Start: &gcal.EventDateTime{Date: "2026-01-06"}, End: &gcal.EventDateTime{Date: "2026-01-07"}},
			},
		})
	}))
	defer server.Close()

	auth, tokens := newTestAuth(t)
	authorize(t, tokens)
	service := NewService(auth)
	service.endpoint = server.URL + "/"

	from := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	// when
	events, err := service.FetchEvents(t.Context(), memberId, "primary", from, from.AddDate(0, 0, 7))

	// then
	require.NoError(t, err)
	assert.Equal(t, 2, pageRequests)
	require.Len(t, events, 2)
	assert.Equal(t, "Gym", events[0].Title)
	assert.Equal(t, "Personal", events[0].SourceCalendarName)
	assert.True(t, events[1].AllDay)
}

func TestService_FetchEventsRequiresLogin(t *testing.T) {
	// given
	auth, _ := newTestAuth(t)
	service := NewService(auth)

	// when
	_, err := service.FetchEvents(t.Context(), memberId, "primary", time.Now(), time.Now().Add(time.Hour))

	// then
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestService_ListCalendars(t *testing.T) {
	// given
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/users/me/calendarList"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(gcal.CalendarList{
			Items: []*gcal.CalendarListEntry{
				{Id: "primary", Summary: "Me", Primary: true, BackgroundColor: "#123456"},
				{Id: "team", Summary: "Team"},
			},
		})
	}))
	defer server.Close()

	auth, tokens := newTestAuth(t)
	authorize(t, tokens)
	service := NewService(auth)
	service.endpoint = server.URL + "/"
	ctx := group.WithMember(context.Background(), group.Member{Id: memberId, DisplayName: "Ana"})

	// when
	calendars, err := service.ListCalendars(ctx)

	// then
	require.NoError(t, err)
	require.Len(t, calendars, 2)
	assert.Equal(t, CalendarItem{Id: "primary", Summary: "Me", Color: "#123456", Primary: true}, calendars[0])
}

func TestService_ListCalendarsWithoutMember(t *testing.T) {
	auth, _ := newTestAuth(t)
	service := NewService(auth)

	_, err := service.ListCalendars(context.Background())

	assert.ErrorIs(t, err, group.ErrNoMember)
}

func TestGoogleAuth_OAuthLogin(t *testing.T) {
	// given
	auth, tokens := newTestAuth(t)
	req := httptest.NewRequest(http.MethodGet, "/api/integrations/google/auth/login?finalUrl=/settings", nil)
	req = req.WithContext(group.WithMember(req.Context(), group.Member{Id: memberId}))
	w := httptest.NewRecorder()

	// when
	auth.OAuthLogin(w, req)

	// then
	require.Equal(t, http.StatusOK, w.Code)
	var body googleAuthRedirect
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Contains(t, body.RedirectUrl, "accounts.google.com")
	assert.Contains(t, body.RedirectUrl, "access_type=offline")
	assert.Len(t, tokens.nonces, 1)
}

func TestGoogleAuth_OAuthLoginRequiresMember(t *testing.T) {
	auth, _ := newTestAuth(t)
	w := httptest.NewRecorder()

	auth.OAuthLogin(w, httptest.NewRequest(http.MethodGet, "/api/integrations/google/auth/login", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGoogleAuth_OAuthCallbackWithMalformedState(t *testing.T) {
	// given
	auth, _ := newTestAuth(t)
	req := httptest.NewRequest(http.MethodGet, "/api/integrations/google/auth/callback?code=abc&state=garbage", nil)
	w := httptest.NewRecorder()

	// when
	auth.OAuthCallback(w, req)

	// then
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "http://localhost:3000/?success=false", w.Header().Get("Location"))
}

func TestGoogleAuth_SafeFinalUrl(t *testing.T) {
	auth, _ := newTestAuth(t)

	testCases := []struct {
		in   string
		want string
	}{
		{"/settings", "http://localhost:3000/settings"},
		{"http://localhost:3000/groups/1", "http://localhost:3000/groups/1"},
		{"https://evil.example.com", "http://localhost:3000/"},
		{"//evil.example.com", "http://localhost:3000/"},
		{"", "http://localhost:3000/"},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, auth.safeFinalUrl(tc.in))
		})
	}
}

func TestGoogleAuth_OAuthLogout(t *testing.T) {
	// given
	auth, tokens := newTestAuth(t)
	authorize(t, tokens)
	req := httptest.NewRequest(http.MethodDelete, "/api/integrations/google/auth", nil)
	req = req.WithContext(group.WithMember(req.Context(), group.Member{Id: memberId}))
	w := httptest.NewRecorder()

	// when
	auth.OAuthLogout(w, req)

	// then
	assert.Equal(t, http.StatusNoContent, w.Code)
	token, err := tokens.GetToken(t.Context(), memberId)
	require.NoError(t, err)
	assert.Nil(t, token)
}

type serviceStub struct {
	calendars []CalendarItem
	err       error
}

func (s serviceStub) ListCalendars(context.Context) ([]CalendarItem, error) {
	return s.calendars, s.err
}

func (s serviceStub) FetchEvents(context.Context, uuid.UUID, string, time.Time, time.Time) ([]availability.CalendarEvent, error) {
	return nil, s.err
}

func TestHandler_ListCalendars(t *testing.T) {
	testCases := []struct {
		name       string
		service    serviceStub
		wantStatus int
	}{
		{"listed", serviceStub{calendars: []CalendarItem{{Id: "primary", Summary: "Me"}}}, http.StatusOK},
		{"not logged in to Google", serviceStub{err: ErrUnauthenticated}, http.StatusForbidden},
		{"no member", serviceStub{err: group.ErrNoMember}, http.StatusForbidden},
		{"upstream failure", serviceStub{err: assert.AnError}, http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			NewHandler(tc.service).ListCalendars(w, httptest.NewRequest(http.MethodGet, "/api/integrations/google/calendars", nil))

			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantStatus == http.StatusOK {
				var items []CalendarItemDto
				require.NoError(t, json.NewDecoder(w.Body).Decode(&items))
				assert.Equal(t, []CalendarItemDto{{Id: "primary", Summary: "Me"}}, items)
			}
		})
	}
}
