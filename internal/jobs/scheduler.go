package jobs

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler wires the job runner into cron. Schedules use six fields
// (seconds precision) and run in UTC.
type Scheduler struct {
	cron *cron.Cron
	jobs *JobRunner
}

func NewScheduler(jobs *JobRunner) *Scheduler {
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithSeconds(),
		),
		jobs: jobs,
	}

	s.registerJobs()

	return s
}

func (s *Scheduler) registerJobs() {
	schedule := s.jobs.Config().Booking.SweepSchedule

	_, err := s.cron.AddFunc(schedule, s.jobs.ExpireStaleBookings)
	if err != nil {
		log.Error().Err(err).Str("schedule", schedule).Msg("failed to register ExpireStaleBookings job")

		return
	}

	log.Info().Str("schedule", schedule).Msg("registered ExpireStaleBookings job")

	_, err = s.cron.AddFunc(schedule, s.jobs.CompleteFinishedBookings)
	if err != nil {
		log.Error().Err(err).Str("schedule", schedule).Msg("failed to register CompleteFinishedBookings job")

		return
	}

	log.Info().Str("schedule", schedule).Msg("registered CompleteFinishedBookings job")
}

func (s *Scheduler) Start() {
	s.cron.Start()

	log.Info().Msg("scheduler started")
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()

	log.Info().Msg("scheduler stopped")
}
