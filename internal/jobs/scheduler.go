package jobs

import (
	"time"

	"barbershop_backend/internal/repositories"
	"barbershop_backend/internal/services"
	"barbershop_backend/pkg/utils"

	"github.com/robfig/cron/v3"
)

// outboxRetention is how long delivered events stay queryable for debugging.
const outboxRetention = 7 * 24 * time.Hour

// Scheduler runs the periodic maintenance jobs: the no-show sweep and the
// outbox trim.
type Scheduler struct {
	cron         *cron.Cron
	queueService services.QueueService
	outboxRepo   repositories.OutboxRepository
	noShowGrace  time.Duration
}

// NewScheduler wires the jobs. noShowGrace of zero disables the sweep, so
// called tickets then wait for a manual no-show.
func NewScheduler(qs services.QueueService, or repositories.OutboxRepository, noShowGrace time.Duration) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		queueService: qs,
		outboxRepo:   or,
		noShowGrace:  noShowGrace,
	}
}

// Start registers and launches the jobs in background goroutines.
func (s *Scheduler) Start() error {
	if s.noShowGrace > 0 {
		if _, err := s.cron.AddFunc("@every 1m", s.sweepNoShows); err != nil {
			return err
		}
	}
	if _, err := s.cron.AddFunc("@daily", s.trimOutbox); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sweepNoShows() {
	swept, err := s.queueService.SweepNoShows(s.noShowGrace)
	if err != nil {
		utils.LogError(err, "no-show sweep failed")
		return
	}
	if swept > 0 {
		utils.LogInfo("no-show sweep", map[string]interface{}{"swept": swept})
	}
}

func (s *Scheduler) trimOutbox() {
	deleted, err := s.outboxRepo.DeleteEventsBefore(time.Now().Add(-outboxRetention))
	if err != nil {
		utils.LogError(err, "outbox trim failed")
		return
	}
	if deleted > 0 {
		utils.LogInfo("outbox trim", map[string]interface{}{"deleted": deleted})
	}
}
