//go:build wireinject
// +build wireinject

package di

import (
	"sewa/config"
	"sewa/infras/jwt"
	"sewa/infras/kafka"
	"sewa/infras/moneroo"
	"sewa/infras/otel"
	"sewa/infras/postgres"
	"sewa/infras/redis"
	"sewa/internal/jobs"
	"sewa/permissions"
	"sewa/shared/cache"
	"sewa/transport/http"
	"sewa/transport/http/middleware"
	"sewa/transport/http/router"

	bookingRepository "sewa/internal/domains/booking/repository"
	bookingService "sewa/internal/domains/booking/service"
	listingRepository "sewa/internal/domains/listing/repository"
	notificationService "sewa/internal/domains/notification/service"
	bookingHandler "sewa/internal/handlers/booking"
	monerooHandler "sewa/internal/handlers/moneroo"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	kafka.New,
	moneroo.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var listingDomain = wire.NewSet(
	listingRepository.New,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	bookingService.New,
)

var notificationDomain = wire.NewSet(
	notificationService.NewNotifier,
)

var domains = wire.NewSet(
	listingDomain,
	bookingDomain,
	notificationDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	bookingHandler.New,
	monerooHandler.New,
	router.New,
)

var scheduling = wire.NewSet(
	jobs.NewJobRunner,
	jobs.NewScheduler,
)

func InitializeApp() *App {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		scheduling,
		http.New,
		wire.Struct(new(App), "*"),
	)

	return &App{}
}
