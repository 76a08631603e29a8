package calendar

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/xaulosky/travel-suites-app/internal/websocket"
)

// JobCalendarRefresh is the name of the periodic calendar sync job.
const JobCalendarRefresh = "calendar-refresh"

// Scheduler runs the periodic calendar refresh and any extra named jobs.
type Scheduler struct {
	cron        *cron.Cron
	syncService *SyncService
	broadcaster *websocket.EventBroadcaster
	interval    time.Duration

	// Track jobs by name
	jobs   map[string]cron.EntryID
	jobsMu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a new calendar sync scheduler.
func NewScheduler(syncService *SyncService, hub *websocket.Hub, interval time.Duration) *Scheduler {
	if interval < time.Minute {
		interval = 30 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:        cron.New(cron.WithSeconds()),
		syncService: syncService,
		broadcaster: websocket.NewEventBroadcaster(hub),
		interval:    interval,
		jobs:        make(map[string]cron.EntryID),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start schedules the calendar refresh and starts the cron runner.
func (s *Scheduler) Start() error {
	if err := s.AddJob(JobCalendarRefresh, everySpec(s.interval), s.syncAll); err != nil {
		return err
	}

	s.cron.Start()
	log.Info().Dur("interval", s.interval).Msg("Calendar scheduler started")
	return nil
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping calendar scheduler...")
	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("Calendar scheduler stopped")
}

// AddJob adds or replaces the job called name. spec uses the six-field cron
// format (seconds first) or a descriptor such as "@every 30m".
func (s *Scheduler) AddJob(name, spec string, fn func(ctx context.Context)) error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if existingID, exists := s.jobs[name]; exists {
		s.cron.Remove(existingID)
		delete(s.jobs, name)
	}

	entryID, err := s.cron.AddFunc(spec, func() {
		if s.ctx.Err() != nil {
			return
		}
		fn(s.ctx)
	})
	if err != nil {
		return fmt.Errorf("scheduling %s (%q): %w", name, spec, err)
	}

	s.jobs[name] = entryID
	log.Debug().Str("job", name).Str("spec", spec).Msg("Job scheduled")
	return nil
}

// TriggerSync runs a calendar refresh immediately in the background.
func (s *Scheduler) TriggerSync() {
	go s.syncAll(s.ctx)
}

func (s *Scheduler) syncAll(ctx context.Context) {
	result, err := s.syncService.SyncAll(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Error().Err(err).Msg("Calendar sync failed")
		s.broadcaster.BroadcastCalendarSyncError(err)
		return
	}

	s.broadcaster.BroadcastCalendarSyncCompleted(*result, s.GetNextRun(JobCalendarRefresh))
}

// GetNextRun returns the next scheduled run time of a job.
func (s *Scheduler) GetNextRun(name string) *time.Time {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	if entryID, exists := s.jobs[name]; exists {
		entry := s.cron.Entry(entryID)
		if !entry.Next.IsZero() {
			return &entry.Next
		}
	}
	return nil
}

// Jobs returns the names of the scheduled jobs.
func (s *Scheduler) Jobs() []string {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}

func everySpec(d time.Duration) string {
	return "@every " + d.String()
}
