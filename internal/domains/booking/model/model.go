package model

import (
	"database/sql"
	"time"

	"sewa/shared/model"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID                 = "id"
	FieldAdID               = "ad_id"
	FieldRequesterID        = "requester_id"
	FieldOwnerID            = "owner_id"
	FieldStartDate          = "start_date"
	FieldEndDate            = "end_date"
	FieldTotalPriceCents    = "total_price_cents"
	FieldDepositCents       = "deposit_cents"
	FieldStatus             = "status"
	FieldMessage            = "message"
	FieldCancellationReason = "cancellation_reason"
	FieldPaymentID          = "payment_id"
	FieldPaymentLink        = "payment_link"
	FieldPaidAt             = "paid_at"
	FieldFundsReleased      = "funds_released"
	FieldFundsReleasedAt    = "funds_released_at"
	FieldPayoutID           = "payout_id"
)

// Booking statuses. Pending, accepted and confirmed block conflicting
// requests; cancelled, expired and completed never do.
const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"
	StatusCompleted = "completed"
)

// BlockingStatuses are the states a booking can be in while still
// holding its date range against other requests.
var BlockingStatuses = []string{StatusPending, StatusAccepted, StatusConfirmed}

type Booking struct {
	ID                 string         `db:"id"`
	AdID               string         `db:"ad_id"`
	RequesterID        string         `db:"requester_id"`
	OwnerID            string         `db:"owner_id"`
	StartDate          time.Time      `db:"start_date"`
	EndDate            time.Time      `db:"end_date"`
	TotalPriceCents    int64          `db:"total_price_cents"`
	DepositCents       int64          `db:"deposit_cents"`
	Status             string         `db:"status"`
	Message            sql.NullString `db:"message"`
	CancellationReason sql.NullString `db:"cancellation_reason"`
	PaymentID          sql.NullString `db:"payment_id"`
	PaymentLink        sql.NullString `db:"payment_link"`
	PaidAt             sql.NullTime   `db:"paid_at"`
	FundsReleased      bool           `db:"funds_released"`
	FundsReleasedAt    sql.NullTime   `db:"funds_released_at"`
	PayoutID           sql.NullString `db:"payout_id"`
	model.Metadata
}

// IsBlocking reports whether the booking still holds its date range.
func (b *Booking) IsBlocking() bool {
	return b.Status == StatusPending || b.Status == StatusAccepted || b.Status == StatusConfirmed
}

// IsTerminal reports whether the booking reached a final state.
func (b *Booking) IsTerminal() bool {
	return b.Status == StatusCancelled || b.Status == StatusExpired || b.Status == StatusCompleted
}
