// Package bootstrap builds the app for the serverless entry point in api/.
package bootstrap

import (
	"club25-backend/internal/config"
	"club25-backend/internal/interfaces/router"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// New loads configuration and creates the Fiber app. Serverless logs stay JSON;
// debug lines are kept outside production.
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	app, _, _, err := router.CreateApp(cfg)
	return app, err
}
