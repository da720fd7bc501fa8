package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/rs/zerolog"
)

// CORS allows the configured frontend origin. An empty origin allows any.
func CORS(frontendURL string) fiber.Handler {
	origins := frontendURL
	if origins == "" {
		origins = "*"
	}
	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	})
}

// RequestLogger writes one access line per request into log.
func RequestLogger(log zerolog.Logger) fiber.Handler {
	return logger.New(logger.Config{
		Format:     "${status} ${method} ${path} ${latency}\n",
		TimeFormat: "2006-01-02T15:04:05Z07:00",
		Output:     log.With().Str("component", "http").Logger(),
	})
}
