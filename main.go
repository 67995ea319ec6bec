package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"veterinary-backend/config"
	"veterinary-backend/controllers"
	"veterinary-backend/database"
	"veterinary-backend/logger"
	"veterinary-backend/middlewares"
	"veterinary-backend/repositories"
	"veterinary-backend/routes"
	"veterinary-backend/services"
)

const usage = `usage:
  veterinary-backend                      start the HTTP server
  veterinary-backend hash-key <key>       print a bcrypt hash for VET_AUTH__FUNCTION_KEYS
  veterinary-backend issue-token <sub>    print a signed bearer token`

func main() {
	if len(os.Args) > 1 {
		if err := runCommand(os.Args[1], os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg)

	if err := serve(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func runCommand(name string, args []string) error {
	switch name {
	case "hash-key":
		if len(args) != 1 {
			return errors.New(usage)
		}
		hashed, err := middlewares.HashFunctionKey(args[0])
		if err != nil {
			return err
		}
		fmt.Println(hashed)
		return nil
	case "issue-token":
		if len(args) != 1 {
			return errors.New(usage)
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		token, err := middlewares.GenerateJWT(cfg.Auth.JWTSecret, args[0], cfg.Auth.TokenTTL)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	case "-h", "--help", "help":
		fmt.Println(usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", name, usage)
	}
}

func serve(cfg *config.Config, log zerolog.Logger) error {
	// ---- Store
	var (
		db   *gorm.DB
		repo repositories.CustomerRepository
		ping controllers.Pinger
	)
	if cfg.Database.Driver == config.DriverMemory {
		log.Warn().Msg("using in-memory customer store, data is lost on restart")
		repo = repositories.NewMemoryCustomerRepo()
	} else {
		var err error
		db, err = database.Connect(cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := database.Close(db); err != nil {
				log.Error().Err(err).Msg("failed to close database")
			}
		}()

		if cfg.Database.AutoMigrate {
			if err := database.Migrate(context.Background(), db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info().Msg("database migrated")
		}

		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("could not access sql pool: %w", err)
		}
		repo = repositories.NewGormCustomerRepo(db)
		ping = sqlDB
	}

	customers := controllers.NewCustomerController(services.NewCustomerService(repo))
	health := controllers.NewHealthController(ping, cfg.Env)

	app := newApp(cfg, log)

	var store []fiber.Handler
	if db != nil {
		// Idempotency guard FIRST (not tied to request TX)
		store = append(store, middlewares.Idempotency(db), middlewares.Transaction(db))
	}
	routes.Register(app, cfg.Server.RoutePrefix, customers, health, middlewares.Authorize(cfg.Auth), store...)

	// ---- Start
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("prefix", cfg.Server.RoutePrefix).Msg("API server starting")
		errCh <- app.Listen(":" + cfg.Server.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

// newApp builds the Fiber app with the global error handler and the
// middleware shared by every route.
func newApp(cfg *config.Config, log zerolog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          middlewares.ErrorHandler,
		BodyLimit:             cfg.Server.BodyLimitBytes,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.IdleTimeout,
		DisableStartupMessage: cfg.IsProduction(),
	})

	app.Use(middlewares.RequestLogger(log))
	app.Use(fiberrecover.New(fiberrecover.Config{EnableStackTrace: !cfg.IsProduction()}))

	// ---- CORS
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowCredentials: false, // using function keys / Bearer tokens, not cookies
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " +
			middlewares.FunctionKeyHeader + ", " + middlewares.IdempotencyKeyHeader + ", " + middlewares.RequestIDHeader,
	}))

	// ---- Global rate limiter (default KeyGenerator = client IP)
	if cfg.Server.RateLimitMax > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.Server.RateLimitMax,
			Expiration: cfg.Server.RateLimitWindow,
		}))
	}
	return app
}
