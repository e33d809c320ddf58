package app

import (
	"github.com/gatherly/gatherly/internal/config"
	"github.com/gatherly/gatherly/internal/event_bus"
	"github.com/gatherly/gatherly/internal/utils"
	"github.com/gatherly/gatherly/pkg/calendar"
	"github.com/gatherly/gatherly/pkg/feedsync"
	"github.com/gatherly/gatherly/pkg/freebusy"
	"github.com/gatherly/gatherly/pkg/google"
	"github.com/gatherly/gatherly/pkg/group"
	"github.com/gatherly/gatherly/pkg/ics"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus

	GroupService group.Service
	GroupHandler *group.Handler

	CalendarService calendar.Service
	CalendarHandler *calendar.Handler

	GoogleAuth    *google.GoogleAuth
	GoogleService google.Service
	GoogleHandler *google.Handler

	Syncer      *feedsync.Syncer
	SyncHandler *feedsync.Handler

	FreeBusyService freebusy.Service
	FreeBusyHandler *freebusy.Handler
	Notifier        *freebusy.Notifier
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.Clock = &utils.SystemClock{}
	deps.EventBus = event_bus.NewEventBus()

	deps.GroupService = group.NewService(group.NewRepository(db))
	deps.GroupHandler = group.NewHandler(deps.GroupService)

	deps.CalendarService = calendar.NewService(calendar.NewRepository(db))
	deps.CalendarHandler = calendar.NewHandler(deps.CalendarService)

	deps.GoogleAuth = google.NewGoogleAuth(google.NewTokenRepository(db), cfg)
	deps.GoogleService = google.NewService(deps.GoogleAuth)
	deps.GoogleHandler = google.NewHandler(deps.GoogleService)

	location := cfg.Availability.Location()
	provider := feedsync.NewProvider(
		feedsync.NewIcsSource(ics.NewFetcher(cfg.Sync.FetchTimeout, cfg.Sync.Retries), location),
		feedsync.NewGoogleSource(deps.GoogleService),
	)
	deps.Syncer = feedsync.NewSyncer(deps.GroupService, deps.CalendarService, provider, deps.EventBus, deps.Clock, cfg.Sync)
	deps.SyncHandler = feedsync.NewHandler(deps.Syncer)

	deps.FreeBusyService = freebusy.NewService(deps.GroupService, deps.CalendarService, deps.EventBus, deps.Clock, cfg.Availability)
	deps.FreeBusyHandler = freebusy.NewHandler(deps.FreeBusyService, location)
	deps.Notifier = freebusy.NewNotifier(deps.Clock)

	return deps
}
