package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL     string
	Port            string
	GeocoderBaseURL string
}

func Load() Config {
	// A local .env is optional; deployments set the environment directly.
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	geocoder := os.Getenv("GEOCODER_BASE_URL")
	if geocoder == "" {
		geocoder = "https://nominatim.openstreetmap.org"
	}
	return Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		Port:            port,
		GeocoderBaseURL: geocoder,
	}
}
