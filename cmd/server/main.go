package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"dispatch-service/internal/app"
	"dispatch-service/internal/config"
	"dispatch-service/internal/server"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("component", "dispatch").Logger()

	cfgPath := os.Getenv("CONFIG_FILE")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to db")
	}
	defer pool.Close()

	appInstance, err := app.New(cfg, &app.PGStore{DB: pool}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init app")
	}
	appInstance.Outbox.Start(ctx)
	defer appInstance.Outbox.Close()

	router := gin.Default()

	// OAuth2 callback (must be before auth middleware)
	router.GET("/oauth2callback", appInstance.LinkCallbackHandler)

	router.Use(app.AuthMiddleware(cfg.Auth))

	api := router.Group("/api")
	{
		api.GET("/schedule/:date", appInstance.LoadDayHandler)
		api.POST("/bookings", appInstance.CreateBookingHandler)
		api.POST("/bookings/:id/assignment", appInstance.ReassignHandler)

		google := api.Group("/google")
		{
			google.GET("/auth", appInstance.AuthURLHandler)
			google.GET("/status", appInstance.StatusHandler)
			google.GET("/calendars", appInstance.ListCalendarsHandler)
			google.POST("/calendars/select", appInstance.SelectCalendarHandler)
		}

		sync := api.Group("/sync")
		{
			sync.POST("/event", appInstance.SyncEventHandler)
			sync.POST("/bookings", appInstance.SyncAllHandler)
		}
	}

	if err := server.Run(router, cfg.Server.Addr); err != nil {
		log.Fatal().Err(err).Msg("http server")
	}
}
