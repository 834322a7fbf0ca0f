package main

import (
	"sewa/config"
	"sewa/di"
	"sewa/shared/logger"
)

func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	app := di.InitializeApp()

	app.Scheduler.Start()
	defer app.Scheduler.Stop()

	app.HTTP.Serve()
}
