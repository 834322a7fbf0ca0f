package moneroo

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"sewa/infras/moneroo"
	"sewa/infras/otel"
	"sewa/internal/domains/booking/model/dto"
	"sewa/internal/domains/booking/service"
	"sewa/shared/constant"
	"sewa/shared/failure"
	"sewa/transport/http/response"

	"github.com/go-chi/chi/v5"
)

const (
	queryParamBookingID     = "bookingId"
	queryParamPaymentID     = "paymentId"
	queryParamPaymentStatus = "paymentStatus"

	metadataKeyBookingID = "booking_id"
)

// Handler terminates the two payment confirmation paths: the signed
// provider webhook and the browser return-URL redirect. Both funnel
// into the same service call, so replays and races converge there.
type Handler struct {
	service service.Booking
	gateway moneroo.Moneroo
	otel    otel.Otel
}

func New(service service.Booking, gateway moneroo.Moneroo, otel otel.Otel) Handler {
	return Handler{
		service: service,
		gateway: gateway,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/moneroo", func(routerGroup chi.Router) {
		routerGroup.Post("/webhook", handler.Webhook)
		routerGroup.Get("/payment/return", handler.PaymentReturn)
	})
}

type webhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		ID       string            `json:"id"`
		Status   string            `json:"status"`
		Metadata map[string]string `json:"metadata"`
	} `json:"data"`
}

// Webhook handles signed payment notifications from Moneroo.
// @Summary Moneroo payment webhook
// @Description Process a signed payment status notification. Deliveries are idempotent: replays of a processed payment return 200.
// @Tags Payment
// @Accept json
// @Produce json
// @Param X-Moneroo-Signature header string true "HMAC signature of the payload"
// @Success 200 {object} response.Base "Webhook processed"
// @Failure 400 {object} response.Error
// @Failure 401 {object} response.Error
// @Router /v1/moneroo/webhook [post]
func (handler *Handler) Webhook(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".Webhook")
	defer scope.End()

	body, err := io.ReadAll(request.Body)
	if err != nil {
		response.WithError(writer, failure.BadRequestFromString("failed to read webhook payload"))

		return
	}

	signature := request.Header.Get(constant.RequestHeaderMonerooSignature)
	if !handler.gateway.VerifyWebhookSignature(body, signature) {
		log.Warn().Msg("webhook delivery with an invalid signature")

		response.WithError(writer, failure.Unauthorized("invalid webhook signature"))

		return
	}

	payload := webhookPayload{}
	if err = json.Unmarshal(body, &payload); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to decode webhook payload")

		response.WithError(writer, failure.BadRequestFromString("malformed webhook payload"))

		return
	}

	bookingID := payload.Data.Metadata[metadataKeyBookingID]
	if bookingID == "" {
		response.WithError(writer, failure.BadRequestFromString("webhook payload has no booking reference"))

		return
	}

	confirmation := dto.PaymentConfirmation{
		BookingID:     bookingID,
		PaymentID:     payload.Data.ID,
		PaymentStatus: payload.Data.Status,
	}

	// The signature already authenticated the payload.
	if _, err = handler.service.ConfirmPayment(ctx, confirmation, true); err != nil {
		// A state clash means this delivery or its race twin was
		// already applied; acknowledge it so the provider stops
		// retrying.
		if failure.GetCode(err) == http.StatusConflict {
			log.Info().Str("bookingID", bookingID).Msg("webhook delivery for an already settled booking")

			response.WithMessage(writer, http.StatusOK, "Webhook already processed")

			return
		}

		scope.TraceError(err)
		log.Error().Err(err).Str("bookingID", bookingID).Msg("failed to process payment webhook")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Payment confirmed via webhook for booking " + bookingID)

	response.WithMessage(writer, http.StatusOK, "Webhook processed")
}

// PaymentReturn handles the browser redirect after checkout.
// @Summary Moneroo payment return URL
// @Description Confirm a payment after the customer is redirected back. The reported status is re-verified with the provider before any state changes.
// @Tags Payment
// @Produce json
// @Param bookingId query string true "Booking ID"
// @Param paymentId query string true "Payment ID"
// @Param paymentStatus query string false "Status reported by the redirect"
// @Success 200 {object} response.Data[dto.BookingResponse]
// @Failure 400 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/moneroo/payment/return [get]
func (handler *Handler) PaymentReturn(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".PaymentReturn")
	defer scope.End()

	query := request.URL.Query()

	confirmation := dto.PaymentConfirmation{
		BookingID:     query.Get(queryParamBookingID),
		PaymentID:     query.Get(queryParamPaymentID),
		PaymentStatus: query.Get(queryParamPaymentStatus),
	}

	if confirmation.BookingID == "" || confirmation.PaymentID == "" {
		response.WithError(writer, failure.BadRequestFromString("bookingId and paymentId are required"))

		return
	}

	// Anyone can hit a return URL, so the status is never trusted as-is.
	res, err := handler.service.ConfirmPayment(ctx, confirmation, false)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("bookingID", confirmation.BookingID).Msg("failed to confirm payment from return URL")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Payment confirmed via return URL for booking " + confirmation.BookingID)

	response.WithJSON(writer, http.StatusOK, res)
}
