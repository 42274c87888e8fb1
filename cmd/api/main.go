package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mgorcz2/shipment-monitoring-project/internal/config"
	"github.com/mgorcz2/shipment-monitoring-project/internal/db"
	"github.com/mgorcz2/shipment-monitoring-project/internal/geocode"
	"github.com/mgorcz2/shipment-monitoring-project/internal/server"
)

func main() {
	cfg := config.Load()
	log := logrus.StandardLogger()

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		log.Fatal("DATABASE_URL not set. Please export DATABASE_URL before running.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect db")
	}
	defer pool.Close()
	// Verify connectivity proactively
	if err := pool.Ping(ctx); err != nil {
		log.WithError(err).Fatal("database ping failed")
	}

	geocoder := geocode.New(cfg.GeocoderBaseURL, &http.Client{Timeout: 8 * time.Second})
	h := server.New(pool, geocoder)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Infof("api listening on :%s (geocoder=%s)", cfg.Port, cfg.GeocoderBaseURL)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server error")
	}
}
