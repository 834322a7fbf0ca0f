package dto

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"sewa/internal/domains/booking/model"
	"sewa/shared"
	"sewa/shared/constant"
	"sewa/shared/failure"
	gDto "sewa/shared/dto"
	gModel "sewa/shared/model"
	"sewa/shared/timezone"
)

type CreateBookingRequest struct {
	AdID         string `json:"ad_id"         validate:"required,uuid4"`
	StartDate    string `json:"start_date"    validate:"required"`
	EndDate      string `json:"end_date"      validate:"required"`
	Message      string `json:"message"       validate:"omitempty,max=500"`
	DepositCents int64  `json:"deposit_cents" validate:"omitempty,gte=0"`
}

// Interval parses and validates the requested date range: date granularity,
// half-open, start strictly before end and not in the past.
func (c *CreateBookingRequest) Interval(now time.Time) (start, end time.Time, err error) {
	start, err = time.Parse(constant.DateOnlyFormat, c.StartDate)
	if err != nil {
		return start, end, failure.BadRequestFromString("start_date must be formatted as YYYY-MM-DD") //nolint:wrapcheck
	}

	end, err = time.Parse(constant.DateOnlyFormat, c.EndDate)
	if err != nil {
		return start, end, failure.BadRequestFromString("end_date must be formatted as YYYY-MM-DD") //nolint:wrapcheck
	}

	if !start.Before(end) {
		return start, end, failure.BadRequestFromString("start_date must be before end_date") //nolint:wrapcheck
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if start.Before(today) {
		return start, end, failure.BadRequestFromString("start_date cannot be in the past") //nolint:wrapcheck
	}

	return start, end, nil
}

func (c *CreateBookingRequest) ToModel(requester, owner string, start, end time.Time, totalCents, depositCents int64) model.Booking {
	return model.Booking{
		ID:              uuid.NewString(),
		AdID:            c.AdID,
		RequesterID:     requester,
		OwnerID:         owner,
		StartDate:       start,
		EndDate:         end,
		TotalPriceCents: totalCents,
		DepositCents:    depositCents,
		Status:          model.StatusPending,
		Message:         sql.NullString{String: c.Message, Valid: c.Message != ""},
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  requester,
			ModifiedBy: requester,
		},
	}
}

// Named lifecycle actions accepted by PATCH /bookings/{id}. Arbitrary
// status strings are rejected so illegal transitions stay unrepresentable.
const (
	ActionAccept = "accept"
	ActionReject = "reject"
	ActionCancel = "cancel"
)

type UpdateBookingRequest struct {
	Action string `json:"action" validate:"required,oneof=accept reject cancel"`
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// PaymentConfirmation carries the correlation payload shared by the
// webhook and the return-URL redirect.
type PaymentConfirmation struct {
	BookingID     string `json:"booking_id"     validate:"required"`
	PaymentID     string `json:"payment_id"     validate:"required"`
	PaymentStatus string `json:"payment_status" validate:"required"`
}

type BookingResponse struct {
	ID                 string `json:"id"`
	AdID               string `json:"ad_id"`
	RequesterID        string `json:"requester_id"`
	OwnerID            string `json:"owner_id"`
	StartDate          string `json:"start_date"`
	EndDate            string `json:"end_date"`
	TotalPriceCents    int64  `json:"total_price_cents"`
	DepositCents       int64  `json:"deposit_cents"`
	Status             string `json:"status"`
	Message            string `json:"message,omitempty"`
	CancellationReason string `json:"cancellation_reason,omitempty"`
	PaymentID          string `json:"payment_id,omitempty"`
	PaymentLink        string `json:"payment_link,omitempty"`
	PaidAt             string `json:"paid_at,omitempty"`
	FundsReleased      bool   `json:"funds_released"`
	FundsReleasedAt    string `json:"funds_released_at,omitempty"`
	PayoutID           string `json:"payout_id,omitempty"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(mod model.Booking) {
	r.ID = mod.ID
	r.AdID = mod.AdID
	r.RequesterID = mod.RequesterID
	r.OwnerID = mod.OwnerID
	r.StartDate = mod.StartDate.Format(constant.DateOnlyFormat)
	r.EndDate = mod.EndDate.Format(constant.DateOnlyFormat)
	r.TotalPriceCents = mod.TotalPriceCents
	r.DepositCents = mod.DepositCents
	r.Status = mod.Status
	r.Message = mod.Message.String
	r.CancellationReason = mod.CancellationReason.String
	r.PaymentID = mod.PaymentID.String
	r.PaymentLink = mod.PaymentLink.String
	r.FundsReleased = mod.FundsReleased
	r.PayoutID = mod.PayoutID.String

	if mod.PaidAt.Valid {
		r.PaidAt = timezone.Format(mod.PaidAt.Time, constant.DateFormat)
	}

	if mod.FundsReleasedAt.Valid {
		r.FundsReleasedAt = timezone.Format(mod.FundsReleasedAt.Time, constant.DateFormat)
	}

	r.Metadata.FromModel(mod.Metadata)
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}

type AvailabilityResponse struct {
	AdID         string            `json:"ad_id"`
	Available    bool              `json:"available"`
	PendingCount int               `json:"pending_count"`
	Detail       string            `json:"detail"`
	Blockers     []BookingInterval `json:"blockers"`
}

// BookingInterval exposes only the blocked range, never the other
// party's identity.
type BookingInterval struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Status    string `json:"status"`
}
