package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"sewa/config"
	"sewa/infras/moneroo"
	"sewa/infras/otel"
	"sewa/internal/domains/booking/model"
	"sewa/internal/domains/booking/model/dto"
	"sewa/internal/domains/booking/pricing"
	"sewa/internal/domains/booking/repository"
	listingModel "sewa/internal/domains/listing/model"
	listingRepo "sewa/internal/domains/listing/repository"
	notifModel "sewa/internal/domains/notification/model"
	notifService "sewa/internal/domains/notification/service"
	"sewa/shared"
	"sewa/shared/cache"
	"sewa/shared/constant"
	gDto "sewa/shared/dto"
	"sewa/shared/failure"
	"sewa/shared/timezone"

	"github.com/google/uuid"
)

const (
	cacheGetBooking     = "booking:get"
	cacheGetAllBookings = "booking:gets"
)

const (
	detailAvailable        = "dates are available"
	detailPendingConflict  = "dates already requested by another user"
	detailUnavailable      = "dates unavailable"
	metadataKeyBookingID   = "booking_id"
	metadataKeyAdID        = "ad_id"
	metadataKeyRequesterID = "requester_id"
	metadataKeyOwnerID     = "owner_id"
	systemActor            = "system"
)

type Booking interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) (dto.BookingResponse, error)
	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	GetMyBookings(ctx context.Context, params gDto.QueryParams) (dto.GetBookingsResponse, error)
	GetReceivedBookings(ctx context.Context, params gDto.QueryParams) (dto.GetBookingsResponse, error)
	GetAvailability(ctx context.Context, adID string, start, end time.Time) (dto.AvailabilityResponse, error)
	Accept(ctx context.Context, id string) (dto.BookingResponse, error)
	Reject(ctx context.Context, id, reason string) (dto.BookingResponse, error)
	Cancel(ctx context.Context, id, reason string) (dto.BookingResponse, error)

	// ConfirmPayment is the single convergence point for the payment
	// webhook and the return-URL redirect. `trusted` marks callers whose
	// payload was already authenticated (signed webhooks); untrusted
	// callers are re-verified against the provider before any state moves.
	ConfirmPayment(ctx context.Context, confirmation dto.PaymentConfirmation, trusted bool) (dto.BookingResponse, error)

	// ReleaseFunds pays the owner the deposit minus the service fee.
	// Safe to retry: the payout fires at most once per booking.
	ReleaseFunds(ctx context.Context, id string) (dto.BookingResponse, error)

	// ExpireStale moves pending bookings older than the configured TTL
	// to expired and reports how many rows it moved.
	ExpireStale(ctx context.Context) (int, error)

	// CompleteFinished moves confirmed, funds-released bookings whose
	// end date has passed to completed, freeing their dates for new
	// requests.
	CompleteFinished(ctx context.Context) (int, error)
}

type serviceImpl struct {
	repo     repository.Booking
	listings listingRepo.Listing
	notifier notifService.Notifier
	gateway  moneroo.Moneroo
	cfg      *config.Config
	cache    cache.RedisCache
	otel     otel.Otel
}

func New(
	repo repository.Booking,
	listings listingRepo.Listing,
	notifier notifService.Notifier,
	gateway moneroo.Moneroo,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Booking {
	return &serviceImpl{
		repo:     repo,
		listings: listings,
		notifier: notifier,
		gateway:  gateway,
		cfg:      cfg,
		cache:    cache,
		otel:     otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	requester, _ := ctx.Value(constant.ContextKeyUserID).(string)

	ad, err := s.listings.Get(ctx, shared.FilterByID(req.AdID, listingModel.FieldID, listingModel.TableName))
	if err != nil {
		log.Error().Err(err).Str("adID", req.AdID).Msg("failed to load ad")

		return res, fmt.Errorf("failed to load ad: %w", err)
	}

	if ad.ID == "" {
		return res, failure.NotFound(listingModel.EntityName) //nolint:wrapcheck
	}

	if !ad.Active {
		return res, failure.Conflict("ad is no longer active") //nolint:wrapcheck
	}

	if ad.UserID == requester {
		return res, failure.Forbidden("you cannot book your own ad") //nolint:wrapcheck
	}

	start, end, err := req.Interval(timezone.Now())
	if err != nil {
		return res, err
	}

	totalCents := pricing.TotalCents(ad.PriceCents, ad.PaymentMode, start, end)

	depositCents := req.DepositCents
	if depositCents == 0 {
		depositCents = pricing.DepositCents(totalCents, s.cfg.Booking.DepositRate)
	}

	if depositCents > totalCents {
		return res, failure.BadRequestFromString("deposit cannot exceed the total price") //nolint:wrapcheck
	}

	booking := req.ToModel(requester, ad.UserID, start, end, totalCents, depositCents)

	conflicts, err := s.repo.CreateChecked(ctx, booking)
	if err != nil {
		log.Error().Err(err).Str("adID", req.AdID).Msg("failed to create booking")

		return res, fmt.Errorf("failed to create booking: %w", err)
	}

	if len(conflicts) > 0 {
		return res, failure.Conflict(conflictDetail(conflicts)) //nolint:wrapcheck
	}

	s.publishEvent(ctx, notifModel.EventBookingRequested, booking, booking.OwnerID, requester, "")

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking, err := s.loadBooking(ctx, id)
	if err != nil {
		return res, err
	}

	if err = s.authorizeParty(ctx, booking); err != nil {
		return res, err
	}

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) GetMyBookings(ctx context.Context, params gDto.QueryParams) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetMyBookings")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	return s.list(ctx, params, shared.FilterByID(user, model.FieldRequesterID, model.TableName))
}

func (s *serviceImpl) GetReceivedBookings(ctx context.Context, params gDto.QueryParams) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetReceivedBookings")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	return s.list(ctx, params, shared.FilterByID(user, model.FieldOwnerID, model.TableName))
}

func (s *serviceImpl) GetAvailability(ctx context.Context, adID string, start, end time.Time) (res dto.AvailabilityResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAvailability")
	defer scope.End()
	defer scope.TraceIfError(err)

	if !end.After(start) {
		return res, failure.BadRequestFromString("start_date must be before end_date") //nolint:wrapcheck
	}

	blockers, err := s.repo.FindOverlapping(ctx, adID, start, end)
	if err != nil {
		log.Error().Err(err).Str("adID", adID).Msg("failed to check availability")

		return res, fmt.Errorf("failed to check availability: %w", err)
	}

	res.AdID = adID
	res.Available = len(blockers) == 0
	res.Blockers = make([]dto.BookingInterval, len(blockers))

	for i, blocker := range blockers {
		if blocker.Status == model.StatusPending {
			res.PendingCount++
		}

		res.Blockers[i] = dto.BookingInterval{
			StartDate: blocker.StartDate.Format(constant.DateOnlyFormat),
			EndDate:   blocker.EndDate.Format(constant.DateOnlyFormat),
			Status:    blocker.Status,
		}
	}

	switch {
	case res.Available:
		res.Detail = detailAvailable
	case res.PendingCount > 0:
		res.Detail = detailPendingConflict
	default:
		res.Detail = detailUnavailable
	}

	return res, nil
}

func (s *serviceImpl) Accept(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Accept")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	booking, err := s.loadBooking(ctx, id)
	if err != nil {
		return res, err
	}

	if booking.OwnerID != user {
		return res, failure.Forbidden("only the ad owner can accept a booking") //nolint:wrapcheck
	}

	moved, err := s.repo.TransitionStatus(ctx, id, model.StatusPending, model.StatusAccepted, auditFields(user))
	if err != nil {
		log.Error().Err(err).Str("bookingID", id).Msg("failed to accept booking")

		return res, fmt.Errorf("failed to accept booking: %w", err)
	}

	if !moved {
		// Report the status that won the race, not the one read before
		// the update.
		if current, loadErr := s.loadBooking(ctx, id); loadErr == nil {
			booking = current
		}

		return res, failure.Conflict(fmt.Sprintf("booking is no longer pending (current status: %s)", booking.Status)) //nolint:wrapcheck
	}

	booking.Status = model.StatusAccepted

	// Payment initialization is best effort. The acceptance already
	// happened; a gateway outage must not undo it, the requester can
	// still pay later through a re-issued link.
	paymentLink := s.initializeDepositPayment(ctx, &booking)

	s.publishEvent(ctx, notifModel.EventBookingAccepted, booking, booking.RequesterID, user, paymentLink)
	s.invalidateBookingCaches(ctx)

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) Reject(ctx context.Context, id, reason string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Reject")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	booking, err := s.loadBooking(ctx, id)
	if err != nil {
		return res, err
	}

	if booking.OwnerID != user {
		return res, failure.Forbidden("only the ad owner can reject a booking") //nolint:wrapcheck
	}

	fields := auditFields(user)
	fields[model.FieldCancellationReason] = reason

	moved, err := s.repo.TransitionStatus(ctx, id, model.StatusPending, model.StatusCancelled, fields)
	if err != nil {
		log.Error().Err(err).Str("bookingID", id).Msg("failed to reject booking")

		return res, fmt.Errorf("failed to reject booking: %w", err)
	}

	if !moved {
		if current, loadErr := s.loadBooking(ctx, id); loadErr == nil {
			booking = current
		}

		return res, failure.Conflict(fmt.Sprintf("booking is no longer pending (current status: %s)", booking.Status)) //nolint:wrapcheck
	}

	booking.Status = model.StatusCancelled

	s.publishEvent(ctx, notifModel.EventBookingRejected, booking, booking.RequesterID, user, "")
	s.invalidateBookingCaches(ctx)

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) Cancel(ctx context.Context, id, reason string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Cancel")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	booking, err := s.loadBooking(ctx, id)
	if err != nil {
		return res, err
	}

	if booking.RequesterID != user && booking.OwnerID != user {
		return res, failure.Forbidden("only a booking party can cancel it") //nolint:wrapcheck
	}

	fields := auditFields(user)
	fields[model.FieldCancellationReason] = reason

	// Confirmed bookings hold paid money and cannot be cancelled here;
	// that path goes through a refund flow, not a status flip.
	for _, from := range []string{model.StatusPending, model.StatusAccepted} {
		moved, err := s.repo.TransitionStatus(ctx, id, from, model.StatusCancelled, fields)
		if err != nil {
			log.Error().Err(err).Str("bookingID", id).Msg("failed to cancel booking")

			return res, fmt.Errorf("failed to cancel booking: %w", err)
		}

		if moved {
			booking.Status = model.StatusCancelled

			recipient := booking.OwnerID
			if user == booking.OwnerID {
				recipient = booking.RequesterID
			}

			s.publishEvent(ctx, notifModel.EventBookingCancelled, booking, recipient, user, "")
			s.invalidateBookingCaches(ctx)

			res.FromModel(booking)

			return res, nil
		}
	}

	if current, loadErr := s.loadBooking(ctx, id); loadErr == nil {
		booking = current
	}

	return res, failure.Conflict(fmt.Sprintf("booking cannot be cancelled (current status: %s)", booking.Status)) //nolint:wrapcheck
}

func (s *serviceImpl) ConfirmPayment(ctx context.Context, confirmation dto.PaymentConfirmation, trusted bool) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ConfirmPayment")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking, err := s.loadBooking(ctx, confirmation.BookingID)
	if err != nil {
		return res, err
	}

	status := confirmation.PaymentStatus

	if !trusted {
		// The return-URL caller is anonymous: re-verify with the
		// provider and make sure the payment was actually made for this
		// booking's deposit, not for some cheaper one.
		verification, err := s.gateway.VerifyPayment(ctx, confirmation.PaymentID)
		if err != nil {
			log.Error().Err(err).Str("paymentID", confirmation.PaymentID).Msg("failed to verify payment with provider")

			return res, fmt.Errorf("failed to verify payment: %w", err)
		}

		if verification.Metadata[metadataKeyBookingID] != booking.ID {
			return res, failure.Forbidden("payment does not belong to this booking") //nolint:wrapcheck
		}

		if verification.AmountCents < booking.DepositCents {
			return res, failure.BadRequestFromString("payment does not cover the booking deposit") //nolint:wrapcheck
		}

		status = verification.Status
	}

	if status != moneroo.PaymentStatusSuccess {
		return res, failure.BadRequestFromString(fmt.Sprintf("payment was not successful (status: %s)", status)) //nolint:wrapcheck
	}

	fields := auditFields(systemActor)
	fields[model.FieldPaymentID] = confirmation.PaymentID
	fields[model.FieldPaidAt] = timezone.Now()

	moved, err := s.repo.TransitionStatus(ctx, confirmation.BookingID, model.StatusAccepted, model.StatusConfirmed, fields)
	if err != nil {
		log.Error().Err(err).Str("bookingID", confirmation.BookingID).Msg("failed to confirm payment")

		return res, fmt.Errorf("failed to confirm payment: %w", err)
	}

	if !moved {
		// The transition out of accepted happens exactly once. Any
		// later confirmation, including a webhook replay racing the
		// return-URL, reports the state clash; transports decide how
		// to acknowledge it.
		if current, loadErr := s.loadBooking(ctx, confirmation.BookingID); loadErr == nil {
			booking = current
		}

		return res, failure.Conflict(fmt.Sprintf("booking cannot be confirmed (current status: %s)", booking.Status)) //nolint:wrapcheck
	}

	booking, err = s.loadBooking(ctx, confirmation.BookingID)
	if err != nil {
		return res, err
	}

	s.publishEvent(ctx, notifModel.EventPaymentConfirmed, booking, booking.OwnerID, booking.RequesterID, "")
	s.invalidateBookingCaches(ctx)

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) ReleaseFunds(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ReleaseFunds")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)

	booking, err := s.loadBooking(ctx, id)
	if err != nil {
		return res, err
	}

	if role != constant.RoleAdmin && booking.OwnerID != user {
		return res, failure.Forbidden("only the ad owner can release funds") //nolint:wrapcheck
	}

	if booking.Status != model.StatusConfirmed {
		return res, failure.Conflict(fmt.Sprintf("funds can only be released for confirmed bookings (current status: %s)", booking.Status)) //nolint:wrapcheck
	}

	if booking.FundsReleased {
		res.FromModel(booking)

		return res, nil
	}

	if timezone.Now().Before(booking.StartDate) {
		return res, failure.Conflict("funds cannot be released before the rental starts") //nolint:wrapcheck
	}

	// The payout fires inside the repository's row lock: a retry racing
	// another caller waits for the first outcome instead of paying twice.
	var released bool

	booking, released, err = s.repo.ReleaseFunds(ctx, id, user, timezone.Now(), func(locked model.Booking) (string, error) {
		payoutCents := pricing.PayoutCents(locked.DepositCents, s.cfg.Booking.ServiceFeeRate)

		payout, payoutErr := s.gateway.InitializePayout(ctx, moneroo.InitializePayoutRequest{
			AmountCents: payoutCents,
			Currency:    s.cfg.Booking.Currency,
			RecipientID: locked.OwnerID,
			Description: fmt.Sprintf("Deposit payout for booking %s", locked.ID),
			Metadata: map[string]string{
				metadataKeyBookingID: locked.ID,
				metadataKeyOwnerID:   locked.OwnerID,
			},
		})
		if payoutErr != nil {
			return "", payoutErr
		}

		return payout.PayoutID, nil
	})
	if err != nil {
		log.Error().Err(err).Str("bookingID", id).Msg("failed to release funds")

		return res, fmt.Errorf("failed to release funds: %w", err)
	}

	if booking.ID == "" {
		return res, failure.NotFound(model.EntityName) //nolint:wrapcheck
	}

	if !released {
		// The locked row was settled or moved out of confirmed between
		// the read above and the lock.
		if booking.FundsReleased {
			res.FromModel(booking)

			return res, nil
		}

		return res, failure.Conflict(fmt.Sprintf("funds can only be released for confirmed bookings (current status: %s)", booking.Status)) //nolint:wrapcheck
	}

	s.publishEvent(ctx, notifModel.EventFundsReleased, booking, booking.OwnerID, user, "")
	s.invalidateBookingCaches(ctx)

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) ExpireStale(ctx context.Context) (count int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ExpireStale")
	defer scope.End()
	defer scope.TraceIfError(err)

	cutoff := timezone.Now().Add(-time.Duration(s.cfg.Booking.PendingTTLHours) * time.Hour)

	stale, err := s.repo.FindStalePending(ctx, cutoff, s.cfg.Booking.SweepBatchLimit)
	if err != nil {
		log.Error().Err(err).Msg("failed to find stale bookings")

		return 0, fmt.Errorf("failed to find stale bookings: %w", err)
	}

	fields := auditFields(systemActor)
	fields[model.FieldCancellationReason] = s.cfg.Booking.ExpirationMessage

	for _, booking := range stale {
		// Per-row CAS: a booking accepted or cancelled between the
		// listing and this update is silently skipped.
		moved, err := s.repo.TransitionStatus(ctx, booking.ID, model.StatusPending, model.StatusExpired, fields)
		if err != nil {
			log.Error().Err(err).Str("bookingID", booking.ID).Msg("failed to expire booking")

			continue
		}

		if !moved {
			continue
		}

		count++
		booking.Status = model.StatusExpired

		s.publishEvent(ctx, notifModel.EventBookingExpired, booking, booking.RequesterID, systemActor, "")
	}

	if count > 0 {
		s.invalidateBookingCaches(ctx)
	}

	log.Info().Int("expired", count).Int("candidates", len(stale)).Msg("stale booking sweep finished")

	return count, nil
}

func (s *serviceImpl) CompleteFinished(ctx context.Context) (count int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CompleteFinished")
	defer scope.End()
	defer scope.TraceIfError(err)

	finished, err := s.repo.FindFinishedConfirmed(ctx, timezone.Now(), s.cfg.Booking.SweepBatchLimit)
	if err != nil {
		log.Error().Err(err).Msg("failed to find finished bookings")

		return 0, fmt.Errorf("failed to find finished bookings: %w", err)
	}

	fields := auditFields(systemActor)

	for _, booking := range finished {
		moved, err := s.repo.TransitionStatus(ctx, booking.ID, model.StatusConfirmed, model.StatusCompleted, fields)
		if err != nil {
			log.Error().Err(err).Str("bookingID", booking.ID).Msg("failed to complete booking")

			continue
		}

		if !moved {
			continue
		}

		count++
		booking.Status = model.StatusCompleted

		s.publishEvent(ctx, notifModel.EventBookingCompleted, booking, booking.RequesterID, systemActor, "")
	}

	if count > 0 {
		s.invalidateBookingCaches(ctx)
	}

	log.Info().Int("completed", count).Int("candidates", len(finished)).Msg("booking completion sweep finished")

	return count, nil
}

func (s *serviceImpl) list(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllBookings, params, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for bookings")

		return res, nil
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	models, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(models, total, params.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Warn().Err(err).Str("cacheKey", cacheKey).Msg("failed to cache bookings")
		}
	}()

	return res, nil
}

func (s *serviceImpl) loadBooking(ctx context.Context, id string) (model.Booking, error) {
	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Str("bookingID", id).Msg("failed to load booking")

		return booking, fmt.Errorf("failed to load booking: %w", err)
	}

	if booking.ID == "" {
		return booking, failure.NotFound(model.EntityName) //nolint:wrapcheck
	}

	return booking, nil
}

func (s *serviceImpl) authorizeParty(ctx context.Context, booking model.Booking) error {
	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)

	if role == constant.RoleAdmin || booking.RequesterID == user || booking.OwnerID == user {
		return nil
	}

	return failure.Forbidden("you are not a party to this booking") //nolint:wrapcheck
}

func (s *serviceImpl) initializeDepositPayment(ctx context.Context, booking *model.Booking) string {
	payment, err := s.gateway.InitializePayment(ctx, moneroo.InitializePaymentRequest{
		AmountCents: booking.DepositCents,
		Currency:    s.cfg.Booking.Currency,
		Description: fmt.Sprintf("Deposit for booking %s", booking.ID),
		Metadata: map[string]string{
			metadataKeyBookingID:   booking.ID,
			metadataKeyAdID:        booking.AdID,
			metadataKeyRequesterID: booking.RequesterID,
			metadataKeyOwnerID:     booking.OwnerID,
		},
	})
	if err != nil {
		log.Error().Err(err).Str("bookingID", booking.ID).Msg("failed to initialize deposit payment, booking stays accepted")

		return ""
	}

	fields := auditFields(booking.OwnerID)
	fields[model.FieldPaymentLink] = payment.CheckoutURL

	if _, err = s.repo.TransitionStatus(ctx, booking.ID, model.StatusAccepted, model.StatusAccepted, fields); err != nil {
		log.Error().Err(err).Str("bookingID", booking.ID).Msg("failed to store payment link")
	}

	booking.PaymentLink.String = payment.CheckoutURL
	booking.PaymentLink.Valid = true

	return payment.CheckoutURL
}

func (s *serviceImpl) publishEvent(ctx context.Context, eventType string, booking model.Booking, recipientID, actorID, paymentLink string) {
	event := notifModel.BookingEvent{
		ID:          uuid.New(),
		Type:        eventType,
		PaymentLink: paymentLink,
		OccurredAt:  timezone.Now(),
	}

	event.BookingID, _ = uuid.Parse(booking.ID)
	event.AdID, _ = uuid.Parse(booking.AdID)
	event.RecipientID, _ = uuid.Parse(recipientID)

	if actorID != systemActor {
		event.ActorID, _ = uuid.Parse(actorID)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.notifier.Publish(c, event); err != nil {
			log.Warn().Err(err).Str("eventType", eventType).Str("bookingID", booking.ID).Msg("failed to publish booking event")
		}
	}()
}

func (s *serviceImpl) invalidateBookingCaches(ctx context.Context) {
	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetBooking)
		shared.InvalidateCaches(c, s.cache, cacheGetAllBookings)
	}()
}

func auditFields(actor string) map[string]any {
	return map[string]any{
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: actor,
	}
}

func conflictDetail(conflicts []model.Booking) string {
	for _, conflict := range conflicts {
		if conflict.Status == model.StatusPending {
			return detailPendingConflict
		}
	}

	return detailUnavailable
}
