package jobs_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"sewa/config"
	otelMocks "sewa/infras/otel/mocks"
	serviceMocks "sewa/internal/domains/booking/service/mocks"
	"sewa/internal/jobs"
)

func newRunner(t *testing.T) (*jobs.JobRunner, *serviceMocks.MockBooking) {
	t.Helper()

	ctrl := gomock.NewController(t)
	mockBooking := serviceMocks.NewMockBooking(ctrl)

	cfg := &config.Config{}
	cfg.Booking.SweepSchedule = "0 0 * * * *"

	return jobs.NewJobRunner(mockBooking, cfg, otelMocks.NewOtel()), mockBooking
}

func TestJobRunner_ExpireStaleBookings(t *testing.T) {
	t.Run("runs the sweep", func(t *testing.T) {
		runner, mockBooking := newRunner(t)

		mockBooking.EXPECT().ExpireStale(gomock.Any()).Return(3, nil)

		runner.ExpireStaleBookings()
	})

	t.Run("sweep errors are swallowed", func(t *testing.T) {
		runner, mockBooking := newRunner(t)

		mockBooking.EXPECT().ExpireStale(gomock.Any()).Return(0, errors.New("db down"))

		assert.NotPanics(t, runner.ExpireStaleBookings)
	})
}

func TestJobRunner_CompleteFinishedBookings(t *testing.T) {
	t.Run("runs the sweep", func(t *testing.T) {
		runner, mockBooking := newRunner(t)

		mockBooking.EXPECT().CompleteFinished(gomock.Any()).Return(1, nil)

		runner.CompleteFinishedBookings()
	})

	t.Run("sweep errors are swallowed", func(t *testing.T) {
		runner, mockBooking := newRunner(t)

		mockBooking.EXPECT().CompleteFinished(gomock.Any()).Return(0, errors.New("db down"))

		assert.NotPanics(t, runner.CompleteFinishedBookings)
	})
}

func TestScheduler_RegistersSweep(t *testing.T) {
	runner, _ := newRunner(t)

	scheduler := jobs.NewScheduler(runner)

	assert.NotNil(t, scheduler)

	scheduler.Start()
	scheduler.Stop()
}
