package booking

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"sewa/infras/otel"
	"sewa/internal/domains/booking/model/dto"
	"sewa/internal/domains/booking/service"
	"sewa/shared/constant"
	gDto "sewa/shared/dto"
	"sewa/shared/failure"
	"sewa/shared/validator"
	"sewa/transport/http/response"
)

type Handler struct {
	service service.Booking
	otel    otel.Otel
}

func New(service service.Booking, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/bookings", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateBooking)
		routerGroup.Get("/my-bookings", handler.GetMyBookings)
		routerGroup.Get("/received-bookings", handler.GetReceivedBookings)
		routerGroup.Get("/ad/{adId}/availability", handler.GetAvailability)
		routerGroup.Get("/{id}", handler.GetBookingByID)
		routerGroup.Patch("/{id}", handler.UpdateBooking)
		routerGroup.Post("/{id}/release-funds", handler.ReleaseFunds)
	})
}

// CreateBooking requests a reservation on an ad.
// @Summary Create a new booking request
// @Description Request a reservation for an ad over a date range. The range is checked for conflicts before the request is stored.
// @Tags Booking
// @Accept json
// @Produce json
// @Param request body dto.CreateBookingRequest true "Create Booking Request"
// @Success 201 {object} response.Data[dto.BookingResponse] "Booking requested successfully"
// @Failure 400 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings [post]
// @Security BearerAuth
func (handler *Handler) CreateBooking(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateBooking")
	defer scope.End()

	req := dto.CreateBookingRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	res, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create booking")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Booking requested by user " + user)

	response.WithJSON(writer, http.StatusCreated, res)
}

// GetMyBookings lists the bookings the caller requested.
// @Summary Get my bookings
// @Description Retrieve the bookings the authenticated user requested, paginated.
// @Tags Booking
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Success 200 {object} response.Data[dto.GetBookingsResponse]
// @Failure 500 {object} response.Error
// @Router /v1/bookings/my-bookings [get]
// @Security BearerAuth
func (handler *Handler) GetMyBookings(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetMyBookings")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(request, true)

	res, err := handler.service.GetMyBookings(ctx, queryParams)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get my bookings")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}

// GetReceivedBookings lists the bookings made against the caller's ads.
// @Summary Get received bookings
// @Description Retrieve the bookings other users requested on the authenticated user's ads, paginated.
// @Tags Booking
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Success 200 {object} response.Data[dto.GetBookingsResponse]
// @Failure 500 {object} response.Error
// @Router /v1/bookings/received-bookings [get]
// @Security BearerAuth
func (handler *Handler) GetReceivedBookings(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetReceivedBookings")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(request, true)

	res, err := handler.service.GetReceivedBookings(ctx, queryParams)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get received bookings")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}

// GetAvailability checks whether a date range is free on an ad.
// @Summary Check ad availability
// @Description Report whether the given date range is free on the ad, with the blocked intervals when it is not.
// @Tags Booking
// @Produce json
// @Param adId path string true "Ad ID"
// @Param start_date query string true "Start date (YYYY-MM-DD)"
// @Param end_date query string true "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Data[dto.AvailabilityResponse]
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/ad/{adId}/availability [get]
// @Security BearerAuth
func (handler *Handler) GetAvailability(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetAvailability")
	defer scope.End()

	adID := chi.URLParam(request, constant.RequestParamAdID)

	start, err := time.Parse(constant.DateOnlyFormat, request.URL.Query().Get(constant.RequestParamStartDate))
	if err != nil {
		response.WithError(writer, failure.BadRequestFromString("start_date must be formatted as YYYY-MM-DD"))

		return
	}

	end, err := time.Parse(constant.DateOnlyFormat, request.URL.Query().Get(constant.RequestParamEndDate))
	if err != nil {
		response.WithError(writer, failure.BadRequestFromString("end_date must be formatted as YYYY-MM-DD"))

		return
	}

	res, err := handler.service.GetAvailability(ctx, adID, start, end)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to check availability")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}

// GetBookingByID retrieves a single booking.
// @Summary Get booking by ID
// @Description Retrieve a booking. Only the requester, the ad owner or an admin can see it.
// @Tags Booking
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.BookingResponse]
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetBookingByID(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookingByID")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	res, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get booking")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}

// UpdateBooking applies a lifecycle action to a booking.
// @Summary Accept, reject or cancel a booking
// @Description Apply a lifecycle action. Accept and reject are owner-only; cancel is open to both parties.
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.UpdateBookingRequest true "Lifecycle action"
// @Success 200 {object} response.Data[dto.BookingResponse]
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateBooking(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateBooking")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	req := dto.UpdateBookingRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	var (
		res dto.BookingResponse
		err error
	)

	switch req.Action {
	case dto.ActionAccept:
		res, err = handler.service.Accept(ctx, id)
	case dto.ActionReject:
		res, err = handler.service.Reject(ctx, id, req.Reason)
	case dto.ActionCancel:
		res, err = handler.service.Cancel(ctx, id, req.Reason)
	default:
		err = failure.BadRequestFromString("unknown action: " + req.Action)
	}

	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("action", req.Action).Msg("failed to update booking")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Booking " + req.Action + " applied")

	response.WithJSON(writer, http.StatusOK, res)
}

// ReleaseFunds pays out the deposit for a started, confirmed booking.
// @Summary Release booked funds to the owner
// @Description Pay the owner the deposit minus the service fee once the rental has started. Retrying is safe, the payout fires at most once.
// @Tags Booking
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.BookingResponse]
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/release-funds [post]
// @Security BearerAuth
func (handler *Handler) ReleaseFunds(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ReleaseFunds")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	res, err := handler.service.ReleaseFunds(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to release funds")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}
