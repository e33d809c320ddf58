package feedsync

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

type Scheduler struct {
	cron   *cron.Cron
	syncer *Syncer
	spec   string
}

func NewScheduler(syncer *Syncer, spec string, location *time.Location) *Scheduler {
	logger := cron.PrintfLogger(log.StandardLogger())
	c := cron.New(
		cron.WithLocation(location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	return &Scheduler{cron: c, syncer: syncer, spec: spec}
}

// Start registers the sync job and starts the cron loop. Jobs run with ctx until Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("invalid sync schedule %q: %w", s.spec, err)
	}
	s.cron.Start()
	log.Infof("Feed sync scheduled with %q", s.spec)
	return nil
}

// Stop stops the loop and returns a context that is done once a running sync finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) run(ctx context.Context) {
	started := time.Now()
	if err := s.syncer.SyncAll(ctx); err != nil {
		log.Errorf("Scheduled feed sync finished with errors: %v", err)
		return
	}
	log.Debugf("Scheduled feed sync finished in %s", time.Since(started))
}
