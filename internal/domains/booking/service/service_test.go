package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"sewa/config"
	"sewa/infras/moneroo"
	monerooMocks "sewa/infras/moneroo/mocks"
	otelMocks "sewa/infras/otel/mocks"
	bookingMocks "sewa/internal/domains/booking/mocks"
	"sewa/internal/domains/booking/model"
	"sewa/internal/domains/booking/model/dto"
	"sewa/internal/domains/booking/service"
	listingMocks "sewa/internal/domains/listing/mocks"
	listingModel "sewa/internal/domains/listing/model"
	notifMocks "sewa/internal/domains/notification/mocks"
	cacheMocks "sewa/shared/cache/mocks"
	"sewa/shared/constant"
	"sewa/shared/failure"
	gModel "sewa/shared/model"
	"sewa/shared/timezone"
)

const (
	testRequesterID = "5f8a2c1e-8d3b-4e0f-9a6c-1b2d3e4f5a6b"
	testOwnerID     = "9c0d1e2f-3a4b-5c6d-7e8f-9a0b1c2d3e4f"
	testOutsiderID  = "1a2b3c4d-5e6f-7a8b-9c0d-1e2f3a4b5c6d"
)

type serviceMocks struct {
	repo     *bookingMocks.MockBooking
	listings *listingMocks.MockListing
	notifier *notifMocks.MockNotifier
	gateway  *monerooMocks.MockMoneroo
	cache    *cacheMocks.MockRedisCache
}

func newService(t *testing.T) (service.Booking, serviceMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)

	m := serviceMocks{
		repo:     bookingMocks.NewMockBooking(ctrl),
		listings: listingMocks.NewMockListing(ctrl),
		notifier: notifMocks.NewMockNotifier(ctrl),
		gateway:  monerooMocks.NewMockMoneroo(ctrl),
		cache:    cacheMocks.NewMockRedisCache(ctrl),
	}

	cfg := &config.Config{}
	cfg.Booking.Currency = "XOF"
	cfg.Booking.DepositRate = 0.20
	cfg.Booking.ServiceFeeRate = 0.05
	cfg.Booking.PendingTTLHours = 24
	cfg.Booking.SweepBatchLimit = 500
	cfg.Booking.ExpirationMessage = "Request expired automatically after 24h without a response from the owner"
	cfg.Cache.TTL = 60

	// Events and cache invalidation run on detached goroutines; the
	// tests only assert they don't break the main flow.
	m.notifier.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	m.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	m.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	svc := service.New(m.repo, m.listings, m.notifier, m.gateway, cfg, m.cache, otelMocks.NewOtel())

	return svc, m
}

func requesterContext() context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, testRequesterID)

	return context.WithValue(ctx, constant.ContextKeyUserRole, constant.RoleUser)
}

func ownerContext() context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, testOwnerID)

	return context.WithValue(ctx, constant.ContextKeyUserRole, constant.RoleUser)
}

func testAd() listingModel.Ad {
	return listingModel.Ad{
		ID:          uuid.NewString(),
		Title:       "Studio apartment near the beach",
		UserID:      testOwnerID,
		PriceCents:  50000,
		PaymentMode: listingModel.PaymentModeDaily,
		Active:      true,
	}
}

func testBooking(status string) model.Booking {
	return model.Booking{
		ID:              uuid.NewString(),
		AdID:            uuid.NewString(),
		RequesterID:     testRequesterID,
		OwnerID:         testOwnerID,
		StartDate:       time.Now().UTC().AddDate(0, 0, 7),
		EndDate:         time.Now().UTC().AddDate(0, 0, 10),
		TotalPriceCents: 150000,
		DepositCents:    30000,
		Status:          status,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  testRequesterID,
			ModifiedBy: testRequesterID,
		},
	}
}

func futureDate(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format(constant.DateOnlyFormat)
}

func TestBookingService_Create(t *testing.T) {
	ad := testAd()

	validRequest := dto.CreateBookingRequest{
		AdID:      ad.ID,
		StartDate: futureDate(7),
		EndDate:   futureDate(10),
		Message:   "Is it available for a long weekend?",
	}

	tests := []struct {
		name       string
		ctx        context.Context
		req        dto.CreateBookingRequest
		setupMock  func(m serviceMocks)
		wantErr    bool
		wantCode   int
		wantDetail string
	}{
		{
			name: "successful booking with default deposit",
			ctx:  requesterContext(),
			req:  validRequest,
			setupMock: func(m serviceMocks) {
				m.listings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(ad, nil)
				m.repo.EXPECT().
					CreateChecked(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, booking model.Booking) ([]model.Booking, error) {
						// 3 days at 50000 cents, 20% deposit.
						assert.Equal(t, int64(150000), booking.TotalPriceCents)
						assert.Equal(t, int64(30000), booking.DepositCents)
						assert.Equal(t, model.StatusPending, booking.Status)

						return nil, nil
					})
			},
		},
		{
			name: "ad not found",
			ctx:  requesterContext(),
			req:  validRequest,
			setupMock: func(m serviceMocks) {
				m.listings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(listingModel.Ad{}, nil)
			},
			wantErr:  true,
			wantCode: 404,
		},
		{
			name: "inactive ad",
			ctx:  requesterContext(),
			req:  validRequest,
			setupMock: func(m serviceMocks) {
				inactive := ad
				inactive.Active = false

				m.listings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(inactive, nil)
			},
			wantErr:  true,
			wantCode: 409,
		},
		{
			name: "owner cannot book own ad",
			ctx:  ownerContext(),
			req:  validRequest,
			setupMock: func(m serviceMocks) {
				m.listings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(ad, nil)
			},
			wantErr:  true,
			wantCode: 403,
		},
		{
			name: "start date in the past",
			ctx:  requesterContext(),
			req: dto.CreateBookingRequest{
				AdID:      ad.ID,
				StartDate: futureDate(-3),
				EndDate:   futureDate(2),
			},
			setupMock: func(m serviceMocks) {
				m.listings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(ad, nil)
			},
			wantErr:  true,
			wantCode: 400,
		},
		{
			name: "deposit above total is rejected",
			ctx:  requesterContext(),
			req: dto.CreateBookingRequest{
				AdID:         ad.ID,
				StartDate:    futureDate(7),
				EndDate:      futureDate(10),
				DepositCents: 999999,
			},
			setupMock: func(m serviceMocks) {
				m.listings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(ad, nil)
			},
			wantErr:  true,
			wantCode: 400,
		},
		{
			name: "conflict with a pending request",
			ctx:  requesterContext(),
			req:  validRequest,
			setupMock: func(m serviceMocks) {
				m.listings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(ad, nil)
				m.repo.EXPECT().
					CreateChecked(gomock.Any(), gomock.Any()).
					Return([]model.Booking{testBooking(model.StatusPending)}, nil)
			},
			wantErr:    true,
			wantCode:   409,
			wantDetail: "dates already requested by another user",
		},
		{
			name: "conflict with a confirmed booking",
			ctx:  requesterContext(),
			req:  validRequest,
			setupMock: func(m serviceMocks) {
				m.listings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(ad, nil)
				m.repo.EXPECT().
					CreateChecked(gomock.Any(), gomock.Any()).
					Return([]model.Booking{testBooking(model.StatusConfirmed)}, nil)
			},
			wantErr:    true,
			wantCode:   409,
			wantDetail: "dates unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newService(t)
			tt.setupMock(m)

			res, err := svc.Create(tt.ctx, tt.req)

			if !tt.wantErr {
				assert.NoError(t, err)
				assert.Equal(t, model.StatusPending, res.Status)

				return
			}

			assert.Error(t, err)
			assert.Equal(t, tt.wantCode, failure.GetCode(err))

			if tt.wantDetail != "" {
				assert.Contains(t, err.Error(), tt.wantDetail)
			}
		})
	}
}

func TestBookingService_Accept(t *testing.T) {
	t.Run("owner accepts and payment link is issued", func(t *testing.T) {
		svc, m := newService(t)

		booking := testBooking(model.StatusPending)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
		m.repo.EXPECT().
			TransitionStatus(gomock.Any(), booking.ID, model.StatusPending, model.StatusAccepted, gomock.Any()).
			Return(true, nil)
		m.gateway.EXPECT().
			InitializePayment(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req moneroo.InitializePaymentRequest) (moneroo.InitializePaymentResponse, error) {
				assert.Equal(t, booking.DepositCents, req.AmountCents)
				assert.Equal(t, booking.ID, req.Metadata["booking_id"])

				return moneroo.InitializePaymentResponse{
					PaymentID:   "pay_123",
					CheckoutURL: "https://checkout.moneroo.io/pay_123",
				}, nil
			})
		m.repo.EXPECT().
			TransitionStatus(gomock.Any(), booking.ID, model.StatusAccepted, model.StatusAccepted, gomock.Any()).
			Return(true, nil)

		res, err := svc.Accept(ownerContext(), booking.ID)

		assert.NoError(t, err)
		assert.Equal(t, model.StatusAccepted, res.Status)
		assert.Equal(t, "https://checkout.moneroo.io/pay_123", res.PaymentLink)
	})

	t.Run("gateway failure does not undo the acceptance", func(t *testing.T) {
		svc, m := newService(t)

		booking := testBooking(model.StatusPending)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
		m.repo.EXPECT().
			TransitionStatus(gomock.Any(), booking.ID, model.StatusPending, model.StatusAccepted, gomock.Any()).
			Return(true, nil)
		m.gateway.EXPECT().
			InitializePayment(gomock.Any(), gomock.Any()).
			Return(moneroo.InitializePaymentResponse{}, errors.New("gateway timeout"))

		res, err := svc.Accept(ownerContext(), booking.ID)

		assert.NoError(t, err)
		assert.Equal(t, model.StatusAccepted, res.Status)
		assert.Empty(t, res.PaymentLink)
	})

	t.Run("requester cannot accept", func(t *testing.T) {
		svc, m := newService(t)

		booking := testBooking(model.StatusPending)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)

		_, err := svc.Accept(requesterContext(), booking.ID)

		assert.Error(t, err)
		assert.Equal(t, 403, failure.GetCode(err))
	})

	t.Run("booking no longer pending reports the winning status", func(t *testing.T) {
		svc, m := newService(t)

		// The first read still sees pending; the cancellation that won
		// the race only shows up on the reload after the lost update.
		booking := testBooking(model.StatusPending)
		cancelled := booking
		cancelled.Status = model.StatusCancelled

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
		m.repo.EXPECT().
			TransitionStatus(gomock.Any(), booking.ID, model.StatusPending, model.StatusAccepted, gomock.Any()).
			Return(false, nil)
		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(cancelled, nil)

		_, err := svc.Accept(ownerContext(), booking.ID)

		assert.Error(t, err)
		assert.Equal(t, 409, failure.GetCode(err))
		assert.Contains(t, err.Error(), model.StatusCancelled)
	})
}

func TestBookingService_Cancel(t *testing.T) {
	t.Run("requester cancels a pending booking", func(t *testing.T) {
		svc, m := newService(t)

		booking := testBooking(model.StatusPending)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
		m.repo.EXPECT().
			TransitionStatus(gomock.Any(), booking.ID, model.StatusPending, model.StatusCancelled, gomock.Any()).
			Return(true, nil)

		res, err := svc.Cancel(requesterContext(), booking.ID, "found another place")

		assert.NoError(t, err)
		assert.Equal(t, model.StatusCancelled, res.Status)
	})

	t.Run("owner cancels an accepted booking", func(t *testing.T) {
		svc, m := newService(t)

		booking := testBooking(model.StatusAccepted)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
		m.repo.EXPECT().
			TransitionStatus(gomock.Any(), booking.ID, model.StatusPending, model.StatusCancelled, gomock.Any()).
			Return(false, nil)
		m.repo.EXPECT().
			TransitionStatus(gomock.Any(), booking.ID, model.StatusAccepted, model.StatusCancelled, gomock.Any()).
			Return(true, nil)

		res, err := svc.Cancel(ownerContext(), booking.ID, "maintenance issue")

		assert.NoError(t, err)
		assert.Equal(t, model.StatusCancelled, res.Status)
	})

	t.Run("outsider cannot cancel", func(t *testing.T) {
		svc, m := newService(t)

		booking := testBooking(model.StatusPending)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)

		ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, testOutsiderID)

		_, err := svc.Cancel(ctx, booking.ID, "")

		assert.Error(t, err)
		assert.Equal(t, 403, failure.GetCode(err))
	})

	t.Run("confirmed booking cannot be cancelled", func(t *testing.T) {
		svc, m := newService(t)

		booking := testBooking(model.StatusConfirmed)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil).Times(2)
		m.repo.EXPECT().
			TransitionStatus(gomock.Any(), booking.ID, gomock.Any(), model.StatusCancelled, gomock.Any()).
			Return(false, nil).
			Times(2)

		_, err := svc.Cancel(requesterContext(), booking.ID, "")

		assert.Error(t, err)
		assert.Equal(t, 409, failure.GetCode(err))
		assert.Contains(t, err.Error(), model.StatusConfirmed)
	})
}

func TestBookingService_ConfirmPayment(t *testing.T) {
	confirmation := func(booking model.Booking) dto.PaymentConfirmation {
		return dto.PaymentConfirmation{
			BookingID:     booking.ID,
			PaymentID:     "pay_123",
			PaymentStatus: moneroo.PaymentStatusSuccess,
		}
	}

	t.Run("trusted confirmation moves accepted to confirmed", func(t *testing.T) {
		svc, m := newService(t)

		booking := testBooking(model.StatusAccepted)
		confirmed := booking
		confirmed.Status = model.StatusConfirmed
		confirmed.PaymentID = sql.NullString{String: "pay_123", Valid: true}

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
		m.repo.EXPECT().
			TransitionStatus(gomock.Any(), booking.ID, model.StatusAccepted, model.StatusConfirmed, gomock.Any()).
			Return(true, nil)
		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(confirmed, nil)

		res, err := svc.ConfirmPayment(context.Background(), confirmation(booking), true)

		assert.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, res.Status)
		assert.Equal(t, "pay_123", res.PaymentID)
	})

	t.Run("second confirmation of the same payment is rejected", func(t *testing.T) {
		svc, m := newService(t)

		booking := testBooking(model.StatusConfirmed)
		booking.PaymentID = sql.NullString{String: "pay_123", Valid: true}

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil).Times(2)
		m.repo.EXPECT().
			TransitionStatus(gomock.Any(), booking.ID, model.StatusAccepted, model.StatusConfirmed, gomock.Any()).
			Return(false, nil)

		_, err := svc.ConfirmPayment(context.Background(), confirmation(booking), true)

		assert.Error(t, err)
		assert.Equal(t, 409, failure.GetCode(err))
		assert.Contains(t, err.Error(), "current status: "+model.StatusConfirmed)
	})

	t.Run("confirmation of a pending booking is rejected", func(t *testing.T) {
		svc, m := newService(t)

		booking := testBooking(model.StatusPending)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil).Times(2)
		m.repo.EXPECT().
			TransitionStatus(gomock.Any(), booking.ID, model.StatusAccepted, model.StatusConfirmed, gomock.Any()).
			Return(false, nil)

		_, err := svc.ConfirmPayment(context.Background(), confirmation(booking), true)

		assert.Error(t, err)
		assert.Equal(t, 409, failure.GetCode(err))
	})

	t.Run("failed payment never touches the booking", func(t *testing.T) {
		svc, m := newService(t)

		booking := testBooking(model.StatusAccepted)

		conf := confirmation(booking)
		conf.PaymentStatus = moneroo.PaymentStatusFailed

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)

		_, err := svc.ConfirmPayment(context.Background(), conf, true)

		assert.Error(t, err)
		assert.Equal(t, 400, failure.GetCode(err))
	})

	t.Run("untrusted confirmation is re-verified with the provider", func(t *testing.T) {
		svc, m := newService(t)

		booking := testBooking(model.StatusAccepted)
		confirmed := booking
		confirmed.Status = model.StatusConfirmed
		confirmed.PaymentID = sql.NullString{String: "pay_123", Valid: true}

		conf := confirmation(booking)
		conf.PaymentStatus = moneroo.PaymentStatusPending

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
		m.gateway.EXPECT().
			VerifyPayment(gomock.Any(), "pay_123").
			Return(moneroo.VerifyPaymentResponse{
				PaymentID:   "pay_123",
				Status:      moneroo.PaymentStatusSuccess,
				AmountCents: booking.DepositCents,
				Metadata:    map[string]string{"booking_id": booking.ID},
			}, nil)
		m.repo.EXPECT().
			TransitionStatus(gomock.Any(), booking.ID, model.StatusAccepted, model.StatusConfirmed, gomock.Any()).
			Return(true, nil)
		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(confirmed, nil)

		res, err := svc.ConfirmPayment(context.Background(), conf, false)

		assert.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, res.Status)
	})

	t.Run("untrusted payment made for another booking is rejected", func(t *testing.T) {
		svc, m := newService(t)

		booking := testBooking(model.StatusAccepted)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
		m.gateway.EXPECT().
			VerifyPayment(gomock.Any(), "pay_123").
			Return(moneroo.VerifyPaymentResponse{
				PaymentID:   "pay_123",
				Status:      moneroo.PaymentStatusSuccess,
				AmountCents: booking.DepositCents,
				Metadata:    map[string]string{"booking_id": uuid.NewString()},
			}, nil)

		_, err := svc.ConfirmPayment(context.Background(), confirmation(booking), false)

		assert.Error(t, err)
		assert.Equal(t, 403, failure.GetCode(err))
	})

	t.Run("untrusted payment below the deposit is rejected", func(t *testing.T) {
		svc, m := newService(t)

		booking := testBooking(model.StatusAccepted)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
		m.gateway.EXPECT().
			VerifyPayment(gomock.Any(), "pay_123").
			Return(moneroo.VerifyPaymentResponse{
				PaymentID:   "pay_123",
				Status:      moneroo.PaymentStatusSuccess,
				AmountCents: booking.DepositCents - 1,
				Metadata:    map[string]string{"booking_id": booking.ID},
			}, nil)

		_, err := svc.ConfirmPayment(context.Background(), confirmation(booking), false)

		assert.Error(t, err)
		assert.Equal(t, 400, failure.GetCode(err))
	})
}

func TestBookingService_ReleaseFunds(t *testing.T) {
	startedBooking := func() model.Booking {
		booking := testBooking(model.StatusConfirmed)
		booking.StartDate = time.Now().UTC().AddDate(0, 0, -2)
		booking.PaymentID = sql.NullString{String: "pay_123", Valid: true}

		return booking
	}

	// runPayout stands in for the repository's locked release: it
	// invokes the payout callback against the given row and records the
	// outcome the way the real transaction would.
	runPayout := func(row model.Booking) func(context.Context, string, string, time.Time, func(model.Booking) (string, error)) (model.Booking, bool, error) {
		return func(_ context.Context, _, _ string, releasedAt time.Time, payout func(model.Booking) (string, error)) (model.Booking, bool, error) {
			payoutID, err := payout(row)
			if err != nil {
				return row, false, err
			}

			row.FundsReleased = true
			row.FundsReleasedAt = sql.NullTime{Time: releasedAt, Valid: true}
			row.PayoutID = sql.NullString{String: payoutID, Valid: true}

			return row, true, nil
		}
	}

	t.Run("payout fires once and flags the booking", func(t *testing.T) {
		svc, m := newService(t)

		booking := startedBooking()

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
		m.gateway.EXPECT().
			InitializePayout(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req moneroo.InitializePayoutRequest) (moneroo.InitializePayoutResponse, error) {
				// 30000 deposit minus the 5% service fee.
				assert.Equal(t, int64(28500), req.AmountCents)
				assert.Equal(t, booking.OwnerID, req.RecipientID)

				return moneroo.InitializePayoutResponse{PayoutID: "po_456"}, nil
			})
		m.repo.EXPECT().
			ReleaseFunds(gomock.Any(), booking.ID, testOwnerID, gomock.Any(), gomock.Any()).
			DoAndReturn(runPayout(booking))

		res, err := svc.ReleaseFunds(ownerContext(), booking.ID)

		assert.NoError(t, err)
		assert.True(t, res.FundsReleased)
		assert.Equal(t, "po_456", res.PayoutID)
	})

	t.Run("second release is a no-op without a gateway call", func(t *testing.T) {
		svc, m := newService(t)

		booking := startedBooking()
		booking.FundsReleased = true
		booking.PayoutID = sql.NullString{String: "po_456", Valid: true}

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)

		res, err := svc.ReleaseFunds(ownerContext(), booking.ID)

		assert.NoError(t, err)
		assert.True(t, res.FundsReleased)
	})

	t.Run("concurrent release settles under the lock without a second payout", func(t *testing.T) {
		svc, m := newService(t)

		// The precondition read still sees the row unreleased, but the
		// locked re-read inside the repository finds a concurrent
		// caller already settled it: the payout callback never runs.
		booking := startedBooking()
		settled := booking
		settled.FundsReleased = true
		settled.PayoutID = sql.NullString{String: "po_other", Valid: true}

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
		m.repo.EXPECT().
			ReleaseFunds(gomock.Any(), booking.ID, testOwnerID, gomock.Any(), gomock.Any()).
			Return(settled, false, nil)

		res, err := svc.ReleaseFunds(ownerContext(), booking.ID)

		assert.NoError(t, err)
		assert.True(t, res.FundsReleased)
		assert.Equal(t, "po_other", res.PayoutID)
	})

	t.Run("stranger cannot trigger the payout", func(t *testing.T) {
		svc, m := newService(t)

		booking := startedBooking()

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)

		_, err := svc.ReleaseFunds(requesterContext(), booking.ID)

		assert.Error(t, err)
		assert.Equal(t, 403, failure.GetCode(err))
	})

	t.Run("unconfirmed booking cannot release funds", func(t *testing.T) {
		svc, m := newService(t)

		booking := testBooking(model.StatusAccepted)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)

		_, err := svc.ReleaseFunds(ownerContext(), booking.ID)

		assert.Error(t, err)
		assert.Equal(t, 409, failure.GetCode(err))
	})

	t.Run("release before the rental starts is rejected", func(t *testing.T) {
		svc, m := newService(t)

		booking := testBooking(model.StatusConfirmed)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)

		_, err := svc.ReleaseFunds(ownerContext(), booking.ID)

		assert.Error(t, err)
		assert.Equal(t, 409, failure.GetCode(err))
	})

	t.Run("gateway failure leaves the booking retryable", func(t *testing.T) {
		svc, m := newService(t)

		booking := startedBooking()

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
		m.gateway.EXPECT().
			InitializePayout(gomock.Any(), gomock.Any()).
			Return(moneroo.InitializePayoutResponse{}, errors.New("gateway unavailable"))
		m.repo.EXPECT().
			ReleaseFunds(gomock.Any(), booking.ID, testOwnerID, gomock.Any(), gomock.Any()).
			DoAndReturn(runPayout(booking))

		_, err := svc.ReleaseFunds(ownerContext(), booking.ID)

		assert.Error(t, err)
	})
}

func TestBookingService_ExpireStale(t *testing.T) {
	t.Run("expires stale rows, skipping lost races", func(t *testing.T) {
		svc, m := newService(t)

		first := testBooking(model.StatusPending)
		second := testBooking(model.StatusPending)

		m.repo.EXPECT().
			FindStalePending(gomock.Any(), gomock.Any(), 500).
			Return([]model.Booking{first, second}, nil)
		m.repo.EXPECT().
			TransitionStatus(gomock.Any(), first.ID, model.StatusPending, model.StatusExpired, gomock.Any()).
			DoAndReturn(func(_ context.Context, _, _, _ string, fields map[string]any) (bool, error) {
				// Sweeps stamp the audit actor with the literal
				// "system", which the actor columns store verbatim.
				assert.Equal(t, "system", fields[constant.FieldModifiedBy])
				assert.NotEmpty(t, fields[model.FieldCancellationReason])

				return true, nil
			})
		m.repo.EXPECT().
			TransitionStatus(gomock.Any(), second.ID, model.StatusPending, model.StatusExpired, gomock.Any()).
			Return(false, nil)

		count, err := svc.ExpireStale(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("nothing to expire", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().
			FindStalePending(gomock.Any(), gomock.Any(), 500).
			Return(nil, nil)

		count, err := svc.ExpireStale(context.Background())

		assert.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestBookingService_CompleteFinished(t *testing.T) {
	t.Run("completes settled bookings past their end date", func(t *testing.T) {
		svc, m := newService(t)

		booking := testBooking(model.StatusConfirmed)
		booking.FundsReleased = true

		m.repo.EXPECT().
			FindFinishedConfirmed(gomock.Any(), gomock.Any(), 500).
			Return([]model.Booking{booking}, nil)
		m.repo.EXPECT().
			TransitionStatus(gomock.Any(), booking.ID, model.StatusConfirmed, model.StatusCompleted, gomock.Any()).
			Return(true, nil)

		count, err := svc.CompleteFinished(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("nothing to complete", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().
			FindFinishedConfirmed(gomock.Any(), gomock.Any(), 500).
			Return(nil, nil)

		count, err := svc.CompleteFinished(context.Background())

		assert.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestBookingService_GetAvailability(t *testing.T) {
	adID := uuid.NewString()
	start := time.Now().UTC().AddDate(0, 0, 7)
	end := time.Now().UTC().AddDate(0, 0, 10)

	t.Run("free range", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().FindOverlapping(gomock.Any(), adID, start, end).Return(nil, nil)

		res, err := svc.GetAvailability(context.Background(), adID, start, end)

		assert.NoError(t, err)
		assert.True(t, res.Available)
		assert.Equal(t, "dates are available", res.Detail)
	})

	t.Run("pending blocker changes the detail", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().
			FindOverlapping(gomock.Any(), adID, start, end).
			Return([]model.Booking{testBooking(model.StatusPending), testBooking(model.StatusConfirmed)}, nil)

		res, err := svc.GetAvailability(context.Background(), adID, start, end)

		assert.NoError(t, err)
		assert.False(t, res.Available)
		assert.Equal(t, 1, res.PendingCount)
		assert.Equal(t, "dates already requested by another user", res.Detail)
		assert.Len(t, res.Blockers, 2)
	})

	t.Run("inverted range is rejected", func(t *testing.T) {
		svc, _ := newService(t)

		_, err := svc.GetAvailability(context.Background(), adID, end, start)

		assert.Error(t, err)
		assert.Equal(t, 400, failure.GetCode(err))
	})
}
