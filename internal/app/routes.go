package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Groups and members
	r.HandleFunc("/api/group", deps.GroupHandler.CreateGroup).Methods("POST")
	r.HandleFunc("/api/group/{groupId}", deps.GroupHandler.GetGroup).Methods("GET")
	r.HandleFunc("/api/group/{groupId}/preferences", deps.GroupHandler.UpdatePreferences).Methods("PUT")
	r.HandleFunc("/api/group/{groupId}/member", deps.GroupHandler.AddMember).Methods("POST")
	r.HandleFunc("/api/group/{groupId}/member", deps.GroupHandler.ListMembers).Methods("GET")
	r.HandleFunc("/api/group/{groupId}/member/{memberId}", deps.GroupHandler.RemoveMember).Methods("DELETE")
	r.HandleFunc("/api/member/current", deps.GroupHandler.CurrentMember).Methods("GET")

	// Free/busy
	r.HandleFunc("/api/group/{groupId}/availability", deps.FreeBusyHandler.GetAvailability).Methods("GET")
	r.HandleFunc("/api/group/{groupId}/highlights", deps.FreeBusyHandler.GetHighlights).Methods("GET")
	r.HandleFunc("/api/group/{groupId}/sync", deps.SyncHandler.SyncGroup).Methods("POST")

	// Calendar
	r.HandleFunc("/api/calendar/event", deps.CalendarHandler.GetEvents).Methods("GET")
	r.HandleFunc("/api/calendar/event", deps.CalendarHandler.CreateEvent).Methods("POST")
	r.HandleFunc("/api/calendar/event/{eventId}", deps.CalendarHandler.DeleteEvent).Methods("DELETE")
	r.HandleFunc("/api/calendar/feed", deps.CalendarHandler.ListFeeds).Methods("GET")
	r.HandleFunc("/api/calendar/feed", deps.CalendarHandler.CreateFeed).Methods("POST")
	r.HandleFunc("/api/calendar/feed/{feedId}", deps.CalendarHandler.DeleteFeed).Methods("DELETE")

	// Google integration
	r.HandleFunc("/api/integrations/google/auth/login", deps.GoogleAuth.OAuthLogin).Methods("GET")
	r.HandleFunc("/api/integrations/google/auth/logout", deps.GoogleAuth.OAuthLogout).Methods("DELETE")
	r.HandleFunc("/api/integrations/google/auth/callback", deps.GoogleAuth.OAuthCallback).Methods("GET")
	r.HandleFunc("/api/integrations/google/calendars", deps.GoogleHandler.ListCalendars).Methods("GET")
}
