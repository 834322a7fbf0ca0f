package dto_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"sewa/internal/domains/booking/model"
	"sewa/internal/domains/booking/model/dto"
	"sewa/shared/failure"
)

func TestCreateBookingRequest_Interval(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		startDate string
		endDate   string
		wantErr   bool
	}{
		{
			name:      "valid future range",
			startDate: "2026-03-20",
			endDate:   "2026-03-23",
		},
		{
			name:      "starting today is allowed",
			startDate: "2026-03-15",
			endDate:   "2026-03-16",
		},
		{
			name:      "start in the past",
			startDate: "2026-03-10",
			endDate:   "2026-03-20",
			wantErr:   true,
		},
		{
			name:      "start equals end",
			startDate: "2026-03-20",
			endDate:   "2026-03-20",
			wantErr:   true,
		},
		{
			name:      "start after end",
			startDate: "2026-03-23",
			endDate:   "2026-03-20",
			wantErr:   true,
		},
		{
			name:      "malformed start date",
			startDate: "20-03-2026",
			endDate:   "2026-03-23",
			wantErr:   true,
		},
		{
			name:      "malformed end date",
			startDate: "2026-03-20",
			endDate:   "match 23rd",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := dto.CreateBookingRequest{
				StartDate: tt.startDate,
				EndDate:   tt.endDate,
			}

			start, end, err := req.Interval(now)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, 400, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
			assert.True(t, start.Before(end))
		})
	}
}

func TestCreateBookingRequest_ToModel(t *testing.T) {
	requester := uuid.NewString()
	owner := uuid.NewString()

	req := dto.CreateBookingRequest{
		AdID:      uuid.NewString(),
		StartDate: "2026-03-20",
		EndDate:   "2026-03-23",
		Message:   "Looking forward to it",
	}

	start, _ := time.Parse("2006-01-02", req.StartDate)
	end, _ := time.Parse("2006-01-02", req.EndDate)

	booking := req.ToModel(requester, owner, start, end, 150000, 30000)

	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, model.StatusPending, booking.Status)
	assert.Equal(t, requester, booking.RequesterID)
	assert.Equal(t, owner, booking.OwnerID)
	assert.Equal(t, int64(150000), booking.TotalPriceCents)
	assert.Equal(t, int64(30000), booking.DepositCents)
	assert.True(t, booking.Message.Valid)
	assert.Equal(t, requester, booking.CreatedBy)
}

func TestBookingResponse_FromModel(t *testing.T) {
	booking := model.Booking{
		ID:              uuid.NewString(),
		AdID:            uuid.NewString(),
		RequesterID:     uuid.NewString(),
		OwnerID:         uuid.NewString(),
		StartDate:       time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2026, 3, 23, 0, 0, 0, 0, time.UTC),
		TotalPriceCents: 150000,
		DepositCents:    30000,
		Status:          model.StatusPending,
	}

	res := dto.BookingResponse{}
	res.FromModel(booking)

	assert.Equal(t, booking.ID, res.ID)
	assert.Equal(t, "2026-03-20", res.StartDate)
	assert.Equal(t, "2026-03-23", res.EndDate)
	assert.Empty(t, res.PaidAt)
	assert.False(t, res.FundsReleased)
}
