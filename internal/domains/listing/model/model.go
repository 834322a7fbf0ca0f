package model

import "sewa/shared/model"

const (
	TableName  = "ads"
	EntityName = "ad"

	FieldID          = "id"
	FieldTitle       = "title"
	FieldUserID      = "user_id"
	FieldPriceCents  = "price_cents"
	FieldPaymentMode = "payment_mode"
	FieldActive      = "active"
)

const (
	PaymentModeHourly  = "hourly"
	PaymentModeDaily   = "daily"
	PaymentModeWeekly  = "weekly"
	PaymentModeMonthly = "monthly"
	PaymentModeFixed   = "fixed"
)

// Ad is the read-only snapshot of a listing the booking engine needs:
// who owns it and how it is priced. Listing CRUD lives elsewhere.
type Ad struct {
	ID          string `db:"id"`
	Title       string `db:"title"`
	UserID      string `db:"user_id"`
	PriceCents  int64  `db:"price_cents"`
	PaymentMode string `db:"payment_mode"`
	Active      bool   `db:"active"`
	model.Metadata
}
