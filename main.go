package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"productos/internal/cache"
	"productos/internal/config"
	"productos/internal/database"
	"productos/internal/handlers"
	"productos/internal/logger"
	"productos/internal/middleware"
	"productos/internal/repositories"
	"productos/internal/services"
	"productos/pkg/rabbitmq"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

func main() {
	// --- Configuration ---
	cfg, envLoaded := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if !envLoaded {
		log.Debug().Msg("no .env file found, reading configuration from the environment")
	}

	srv, err := NewServer(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("Hubo un error al conectar a la DB")
		os.Exit(1)
	}

	// --- Start HTTP Server ---
	go func() {
		log.Info().Str("addr", cfg.AppPort).Msg("REST API funcionando")
		if err := srv.App.Listen(cfg.AppPort); err != nil {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"productos-api": func(ctx context.Context) error {
				log.Info().Msg("shutting down server")
				return srv.Shutdown(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Info().Int("exit_code", exitCode).Msg("server stopped")
	os.Exit(exitCode)
}

type closer struct {
	name  string
	close func() error
}

// Server is the fiber app together with the connections it owns.
type Server struct {
	App     *fiber.App
	closers []closer
	log     zerolog.Logger
}

// NewServer connects the store, the optional cache and the optional event
// publisher and mounts every route. Only a store failure is fatal; Redis and
// RabbitMQ fall back to no-op implementations.
func NewServer(cfg config.Config, log zerolog.Logger) (*Server, error) {
	srv := &Server{log: log}

	// --- Store ---
	var (
		repo   repositories.ProductRepository
		pingDB func(ctx context.Context) error
	)
	switch cfg.DBDriver {
	case database.DriverMemory:
		repo = repositories.NewMemoryProductRepository()
	default:
		db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN, cfg.DBDebug)
		if err != nil {
			return nil, err
		}
		repo = repositories.NewGORMProductRepository(db)
		pingDB = func(ctx context.Context) error { return database.Ping(ctx, db) }
		srv.closers = append(srv.closers, closer{"database", func() error { return database.Close(db) }})
	}
	log.Info().Str("driver", cfg.DBDriver).Msg("Conexión exitosa a la BD")

	// --- Cache ---
	var productCache cache.Cache = cache.NoopCache{}
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rc, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.CachePrefix, cfg.CacheTTL)
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("product cache disabled")
		} else {
			productCache = rc
			srv.closers = append(srv.closers, closer{"redis", rc.Close})
		}
	}

	// --- Events ---
	var publisher rabbitmq.Publisher = rabbitmq.NoopPublisher{}
	if cfg.RabbitMQURL != "" {
		client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log)
		if err != nil {
			log.Warn().Err(err).Msg("product events disabled")
		} else {
			publisher = client
			srv.closers = append(srv.closers, closer{"rabbitmq", client.Close})
		}
	}

	productService := services.NewProductService(repo, productCache, publisher, log)
	productHandler := handlers.NewProductHandler(productService)
	healthHandler := handlers.NewHealthHandler(pingDB, productCache)

	// --- Initialize Fiber App ---
	app := fiber.New(fiber.Config{
		AppName:               "Productos API",
		DisableStartupMessage: true,
		ErrorHandler:          handlers.ErrorHandler(log),
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(log))
	app.Use(middleware.CORS(cfg.FrontendURL))

	// --- Routes ---
	healthHandler.RegisterRoutes(app)
	productHandler.RegisterRoutes(app.Group("/api"))

	srv.App = app
	return srv, nil
}

// Shutdown stops accepting requests and then closes every connection,
// newest first.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.App != nil {
		if err := s.App.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("fiber: %w", err))
		}
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		c := s.closers[i]
		if err := c.close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		} else {
			s.log.Debug().Str("resource", c.name).Msg("closed")
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}
