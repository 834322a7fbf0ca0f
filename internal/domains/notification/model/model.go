package model

import (
	"time"

	"github.com/google/uuid"
)

// Booking event types published to the booking events topic.
const (
	EventBookingRequested = "booking.requested"
	EventBookingAccepted  = "booking.accepted"
	EventBookingRejected  = "booking.rejected"
	EventBookingCancelled = "booking.cancelled"
	EventBookingExpired   = "booking.expired"
	EventBookingCompleted = "booking.completed"
	EventPaymentConfirmed = "payment.confirmed"
	EventFundsReleased    = "funds.released"
)

// BookingEvent is the message fanned out to downstream consumers
// (in-app notification feed, mailers) whenever a booking changes state.
// RecipientID is the user the notification is addressed to.
type BookingEvent struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	BookingID   uuid.UUID `json:"bookingId"`
	AdID        uuid.UUID `json:"adId"`
	RecipientID uuid.UUID `json:"recipientId"`
	ActorID     uuid.UUID `json:"actorId"`
	PaymentLink string    `json:"paymentLink,omitempty"`
	Detail      string    `json:"detail,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

func NewBookingEvent(eventType string, bookingID, adID, recipientID, actorID uuid.UUID) BookingEvent {
	return BookingEvent{
		ID:          uuid.New(),
		Type:        eventType,
		BookingID:   bookingID,
		AdID:        adID,
		RecipientID: recipientID,
		ActorID:     actorID,
		OccurredAt:  time.Now().UTC(),
	}
}
