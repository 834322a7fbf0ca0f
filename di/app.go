package di

import (
	"sewa/internal/jobs"
	"sewa/transport/http"
)

// App bundles the long-running pieces of the service: the HTTP server
// and the cron scheduler that runs the booking sweeps.
type App struct {
	HTTP      *http.HTTP
	Scheduler *jobs.Scheduler
}
