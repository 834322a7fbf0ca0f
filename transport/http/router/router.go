package router

import (
	"github.com/go-chi/chi/v5"

	"sewa/internal/handlers/booking"
	"sewa/internal/handlers/moneroo"
)

type DomainHandlers struct {
	Booking booking.Handler
	Moneroo moneroo.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
}

func (r *Router) SetupRoutes(router chi.Router) {
	router.Route("/v1", func(routerGroup chi.Router) {
		r.DomainHandlers.Booking.Router(routerGroup)
		r.DomainHandlers.Moneroo.Router(routerGroup)
	})
}

func New(domainHandlers DomainHandlers) Router {
	return Router{
		DomainHandlers: domainHandlers,
	}
}
