package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"fieldhealth.io/vhwt/internal/api"
	"fieldhealth.io/vhwt/internal/dal"
	"fieldhealth.io/vhwt/internal/geocode"
	"fieldhealth.io/vhwt/internal/metrics"
	"fieldhealth.io/vhwt/internal/visits"
	"fieldhealth.io/vhwt/pkg/zerolog_config"
)

func main() {
	// Load .env, falling back to ambient environment variables
	if err := godotenv.Load(".env"); err != nil {
		log.Info().Msg("No .env file found, assuming environment variables are set")
	}

	elasticsearchURL := getEnvOrDefault("ELASTICSEARCH_URL", "")
	apiPort := getEnvOrDefault("API_PORT", "8080")
	apiLogLevel := getEnvOrDefault("API_LOG_LEVEL", "info")

	zerolog_config.SetAppPrefix("vhwt-api")
	zerolog_config.StartupWithEnv(elasticsearchURL, "logs", apiLogLevel)

	log.Info().Msg("Starting vhwt-api service")

	// System metrics collection (no-op unless enabled)
	metrics.StartSystemMetricsCollection("vhwt-api", 15*time.Second)

	conn, err := dal.GetConnOrGenConn()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Couchbase")
	}

	patients := dal.NewPatientModel(conn)
	users := dal.NewUserModel(conn)
	geocoder := geocode.NewClient()
	visitService := visits.NewService(patients, geocoder, nil)

	server := api.NewServer(patients, users, visitService)
	router := api.SetupRoutes(server)

	httpServer := &http.Server{
		Addr:    ":" + apiPort,
		Handler: router,
	}

	// Listen for shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().
			Str("port", apiPort).
			Msg("Server starting")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().
				Err(err).
				Msg("Failed to start server")
		}
	}()

	<-sigChan
	log.Info().Msg("Received shutdown signal, shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Closing database connection...")
	if err := conn.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close database connection")
	}

	log.Info().Msg("vhwt-api shutdown complete")
}

// Helper function to get environment variable with default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
