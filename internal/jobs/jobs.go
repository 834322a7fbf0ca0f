package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"sewa/config"
	"sewa/infras/otel"
	bookingService "sewa/internal/domains/booking/service"
	"sewa/shared/constant"
)

const jobTimeout = 5 * time.Minute

// JobRunner holds the background jobs the scheduler fires. Jobs never
// return errors: they log, trace and move on, the next tick retries.
type JobRunner struct {
	booking bookingService.Booking
	cfg     *config.Config
	otel    otel.Otel
}

func NewJobRunner(booking bookingService.Booking, cfg *config.Config, otel otel.Otel) *JobRunner {
	return &JobRunner{
		booking: booking,
		cfg:     cfg,
		otel:    otel,
	}
}

func (j *JobRunner) Config() *config.Config {
	return j.cfg
}

// ExpireStaleBookings sweeps pending bookings past the response TTL.
func (j *JobRunner) ExpireStaleBookings() {
	j.runWithRecovery("ExpireStaleBookings", func(ctx context.Context) {
		count, err := j.booking.ExpireStale(ctx)
		if err != nil {
			log.Error().Err(err).Msg("stale booking sweep failed")

			return
		}

		log.Info().Int("expired", count).Msg("stale booking sweep completed")
	})
}

// CompleteFinishedBookings closes out confirmed bookings whose stay has
// ended and whose funds were paid out.
func (j *JobRunner) CompleteFinishedBookings() {
	j.runWithRecovery("CompleteFinishedBookings", func(ctx context.Context) {
		count, err := j.booking.CompleteFinished(ctx)
		if err != nil {
			log.Error().Err(err).Msg("booking completion sweep failed")

			return
		}

		log.Info().Int("completed", count).Msg("booking completion sweep completed")
	})
}

func (j *JobRunner) runWithRecovery(name string, job func(ctx context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	ctx, scope := j.otel.NewScope(ctx, constant.OtelJobScopeName, constant.OtelJobScopeName+"."+name)
	defer scope.End()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("job", name).Msg("job panicked")
		}
	}()

	started := time.Now()
	job(ctx)

	log.Debug().Str("job", name).Dur("duration", time.Since(started)).Msg("job finished")
}
