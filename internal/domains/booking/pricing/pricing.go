package pricing

import (
	"math"
	"time"

	listingModel "sewa/internal/domains/listing/model"
)

const (
	hoursPerDay = 24
	daysPerWeek = 7
	// Billing months are normalized to 30 days regardless of calendar month.
	daysPerMonth = 30
)

// TotalCents derives the total price in cents for renting at the given rate
// over [start, end). Partial periods always round up to a full billed unit.
// Unknown modes fall back to the fixed rate, ignoring the interval length.
func TotalCents(rateCents int64, mode string, start, end time.Time) int64 {
	if !end.After(start) {
		return 0
	}

	hours := end.Sub(start).Hours()
	days := hours / hoursPerDay

	switch mode {
	case listingModel.PaymentModeHourly:
		return int64(math.Ceil(hours)) * rateCents
	case listingModel.PaymentModeDaily:
		return int64(math.Ceil(days)) * rateCents
	case listingModel.PaymentModeWeekly:
		return int64(math.Ceil(days/daysPerWeek)) * rateCents
	case listingModel.PaymentModeMonthly:
		return int64(math.Ceil(days/daysPerMonth)) * rateCents
	default:
		return rateCents
	}
}

const basisPoints = 10000

// DepositCents applies the deposit rate to a total, rounding up to the
// nearest cent so the platform never undercollects. Rates are resolved to
// basis points to keep the arithmetic exact in integers.
func DepositCents(totalCents int64, rate float64) int64 {
	bp := int64(math.Round(rate * basisPoints))

	return (totalCents*bp + basisPoints - 1) / basisPoints
}

// PayoutCents is the amount forwarded to the owner on fund release:
// the deposit minus the service fee, rounded down.
func PayoutCents(depositCents int64, serviceFeeRate float64) int64 {
	bp := int64(math.Round(serviceFeeRate * basisPoints))

	return depositCents * (basisPoints - bp) / basisPoints
}
