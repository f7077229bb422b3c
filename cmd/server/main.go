package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/lithammer/shortuuid/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/cinema-booking/internal/clock"
	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/logging"
	"github.com/iliyamo/cinema-booking/internal/queue"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/repository/memory"
	"github.com/iliyamo/cinema-booking/internal/router"
	"github.com/iliyamo/cinema-booking/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	logging.Init(os.Getenv("LOG_LEVEL"), os.Getenv("APP_ENV"))

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logging.Init(cfg.LogLevel, cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	log := logrus.WithField("env", cfg.Env)
	checks := map[string]handler.Pinger{}

	var store repository.Store
	switch cfg.StoreDriver {
	case config.StoreMemory:
		log.Warn("using in-memory store; data is lost on restart")
		store = memory.New()
	default:
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		store = repository.NewMySQLStore(db)
		checks["mysql"] = db.PingContext
	}

	rdb, err := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if err != nil {
		log.WithError(err).Warn("redis unavailable; caching and rate limiting disabled")
	} else {
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	var events service.EventPublisher
	if cfg.RabbitURL != "" {
		events = queue.NewPublisher(cfg.RabbitURL)
	} else {
		log.Warn("RABBITMQ_URL not set; booking events are not published")
	}

	clk := clock.NewTheater(cfg.TheaterOffset)
	accounts := service.NewAccountService(store, clk, service.TokenConfig{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
		BcryptCost: cfg.BcryptCost,
	})
	bookings := service.NewBookingService(store, clk, events)

	if cfg.BootstrapOwnerEmail != "" && cfg.BootstrapOwnerPassword != "" {
		created, err := accounts.BootstrapOwner(ctx, cfg.BootstrapOwnerEmail, cfg.BootstrapOwnerPassword, cfg.BootstrapOwnerName)
		if err != nil {
			return err
		}
		if created {
			log.WithField("email", cfg.BootstrapOwnerEmail).Info("owner account created")
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: shortuuid.New}))
	e.Use(logging.Middleware())
	e.Use(echomw.Recover())

	timeout := cfg.RequestTimeout
	router.Register(e, router.Handlers{
		Auth:         handler.NewAuthHandler(accounts, timeout),
		Rooms:        handler.NewRoomHandler(service.NewRoomService(store, clk), timeout),
		Showtimes:    handler.NewShowtimeHandler(service.NewShowtimeService(store, clk), clk, timeout),
		Transactions: handler.NewTransactionHandler(bookings, timeout),
		Catalog:      handler.NewCatalogHandler(service.NewCatalogService(store, clk), timeout),
		Reports:      handler.NewReportHandler(service.NewReportService(store, clk), timeout),
	}, router.Options{
		JWTSecret: cfg.JWTSecret,
		Roles:     accounts,
		Redis:     rdb,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		Health:    checks,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.WithField("addr", addr).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if cfg.RabbitURL != "" {
		consumer := queue.NewConsumer(cfg.RabbitURL, cfg.BookingLogDir)
		g.Go(func() error { return consumer.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := e.Shutdown(shutdownCtx)
		bookings.Wait()
		return err
	})
	return g.Wait()
}
