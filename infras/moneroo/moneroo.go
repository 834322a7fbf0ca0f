package moneroo

//go:generate go run go.uber.org/mock/mockgen -source=./moneroo.go -destination=./mocks/moneroo_mock.go -package=mocks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"sewa/config"
	"sewa/infras/otel"
	"sewa/shared/constant"
)

const (
	PaymentStatusSuccess   = "success"
	PaymentStatusPending   = "pending"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
)

const (
	otelAttrPaymentID = "payment_id"
	otelAttrPayoutID  = "payout_id"
	otelAttrBookingID = "booking_id"
)

type InitializePaymentRequest struct {
	AmountCents   int64             `json:"amount"`
	Currency      string            `json:"currency"`
	Description   string            `json:"description"`
	CustomerEmail string            `json:"customer_email"`
	ReturnURL     string            `json:"return_url"`
	Metadata      map[string]string `json:"metadata"`
}

type InitializePaymentResponse struct {
	PaymentID   string `json:"id"`
	CheckoutURL string `json:"checkout_url"`
}

// VerifyPaymentResponse carries the provider's view of a payment,
// including the metadata echoed back from initialization so callers can
// check which booking the payment was actually made for.
type VerifyPaymentResponse struct {
	PaymentID   string            `json:"id"`
	Status      string            `json:"status"`
	AmountCents int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Metadata    map[string]string `json:"metadata"`
}

type InitializePayoutRequest struct {
	AmountCents int64             `json:"amount"`
	Currency    string            `json:"currency"`
	RecipientID string            `json:"recipient_id"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
}

type InitializePayoutResponse struct {
	PayoutID string `json:"id"`
	Status   string `json:"status"`
}

// Moneroo is the payment provider boundary. Calls are synchronous
// round-trips; a failed call leaves no local state behind, retrying is
// always the caller's job.
type Moneroo interface {
	InitializePayment(ctx context.Context, req InitializePaymentRequest) (InitializePaymentResponse, error)
	VerifyPayment(ctx context.Context, paymentID string) (VerifyPaymentResponse, error)
	InitializePayout(ctx context.Context, req InitializePayoutRequest) (InitializePayoutResponse, error)
	VerifyWebhookSignature(payload []byte, signature string) bool
}

type monerooImpl struct {
	client *http.Client
	config *config.Config
	otel   otel.Otel
}

func New(cfg *config.Config, otl otel.Otel) Moneroo {
	return &monerooImpl{
		client: &http.Client{
			Timeout: time.Duration(cfg.External.Moneroo.TimeoutSeconds) * time.Second,
		},
		config: cfg,
		otel:   otl,
	}
}

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (svc *monerooImpl) InitializePayment(ctx context.Context, req InitializePaymentRequest) (res InitializePaymentResponse, err error) {
	ctx, scope := svc.otel.NewScope(ctx, constant.OtelExternalScopeName, constant.OtelMonerooScopeName+".InitializePayment")
	defer scope.End()
	defer scope.TraceIfError(err)

	if req.ReturnURL == "" {
		req.ReturnURL = svc.config.External.Moneroo.ReturnURL
	}

	scope.SetAttribute(otelAttrBookingID, req.Metadata["booking_id"])

	err = svc.do(ctx, http.MethodPost, "/payments/initialize", req, &res)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize payment")

		return res, fmt.Errorf("failed to initialize payment: %w", err)
	}

	scope.SetAttribute(otelAttrPaymentID, res.PaymentID)

	return res, nil
}

func (svc *monerooImpl) VerifyPayment(ctx context.Context, paymentID string) (res VerifyPaymentResponse, err error) {
	ctx, scope := svc.otel.NewScope(ctx, constant.OtelExternalScopeName, constant.OtelMonerooScopeName+".VerifyPayment")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(otelAttrPaymentID, paymentID)

	err = svc.do(ctx, http.MethodGet, "/payments/"+paymentID+"/verify", nil, &res)
	if err != nil {
		log.Error().Err(err).Str("paymentID", paymentID).Msg("failed to verify payment")

		return res, fmt.Errorf("failed to verify payment %s: %w", paymentID, err)
	}

	return res, nil
}

func (svc *monerooImpl) InitializePayout(ctx context.Context, req InitializePayoutRequest) (res InitializePayoutResponse, err error) {
	ctx, scope := svc.otel.NewScope(ctx, constant.OtelExternalScopeName, constant.OtelMonerooScopeName+".InitializePayout")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(otelAttrBookingID, req.Metadata["booking_id"])

	err = svc.do(ctx, http.MethodPost, "/payouts/initialize", req, &res)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize payout")

		return res, fmt.Errorf("failed to initialize payout: %w", err)
	}

	scope.SetAttribute(otelAttrPayoutID, res.PayoutID)

	return res, nil
}

// VerifyWebhookSignature checks the HMAC-SHA256 signature Moneroo attaches
// to webhook deliveries against the shared webhook secret.
func (svc *monerooImpl) VerifyWebhookSignature(payload []byte, signature string) bool {
	secret := svc.config.External.Moneroo.WebhookSecret
	if secret == "" {
		log.Warn().Msg("Moneroo webhook secret not configured, skipping signature verification")

		return true
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

func (svc *monerooImpl) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}

		reader = bytes.NewReader(payload)
	}

	request, err := http.NewRequestWithContext(ctx, method, svc.config.External.Moneroo.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	request.Header.Set(constant.RequestHeaderAuthorization, "Bearer "+svc.config.External.Moneroo.APIKey)
	request.Header.Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)

	response, err := svc.client.Do(request)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("provider returned status %d: %s", response.StatusCode, string(raw))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to decode response envelope: %w", err)
	}

	payload := env.Data
	if len(payload) == 0 {
		payload = raw
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to decode response payload: %w", err)
	}

	return nil
}
