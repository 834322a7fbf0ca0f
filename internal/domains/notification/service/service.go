package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"sewa/config"
	"sewa/infras/kafka"
	"sewa/infras/otel"
	"sewa/internal/domains/notification/model"
	"sewa/shared/constant"
)

// Notifier publishes booking lifecycle events for downstream consumers.
// Publishing is best-effort from the caller's point of view: booking state
// transitions never depend on a delivered event.
type Notifier interface {
	Publish(ctx context.Context, event model.BookingEvent) error
}

type notifierImpl struct {
	config *config.Config
	kafka  kafka.Client
	otel   otel.Otel
}

func NewNotifier(cfg *config.Config, kafkaClient kafka.Client, otl otel.Otel) Notifier {
	return &notifierImpl{
		config: cfg,
		kafka:  kafkaClient,
		otel:   otl,
	}
}

func (svc *notifierImpl) Publish(ctx context.Context, event model.BookingEvent) (err error) {
	ctx, scope := svc.otel.NewScope(ctx, constant.OtelEventScopeName, "Notifier.Publish")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttributes(map[string]any{
		"event_type": event.Type,
		"booking_id": event.BookingID.String(),
	})

	message := kafka.Message{
		Key:   event.RecipientID.String(),
		Value: event,
	}

	err = svc.kafka.SendMessages(ctx, svc.config.Kafka.Topics.BookingEvents, message)
	if err != nil {
		log.Error().Err(err).
			Str("eventType", event.Type).
			Str("bookingID", event.BookingID.String()).
			Msg("failed to publish booking event")

		return fmt.Errorf("failed to publish booking event: %w", err)
	}

	return nil
}
