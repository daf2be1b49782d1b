package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diagnosis/turneja/internal/auth"
	"github.com/diagnosis/turneja/internal/http/handlers"
	httpmw "github.com/diagnosis/turneja/internal/http/middleware"
	"github.com/diagnosis/turneja/internal/http/response"
	"github.com/diagnosis/turneja/internal/payment"
	"github.com/diagnosis/turneja/internal/repository"
	"github.com/diagnosis/turneja/internal/service"
	"github.com/diagnosis/turneja/internal/store"
	"github.com/diagnosis/turneja/internal/store/memstore"
	"github.com/diagnosis/turneja/internal/store/mongostore"
	"github.com/diagnosis/turneja/internal/store/pgstore"
	"github.com/diagnosis/turneja/pkg/config"
	"github.com/diagnosis/turneja/pkg/database"
	"github.com/diagnosis/turneja/pkg/events"
	"github.com/diagnosis/turneja/pkg/logger"
	mw "github.com/diagnosis/turneja/pkg/middleware"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	ctx := context.Background()

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		logger.Error("Failed to open document store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	logger.Info("Document store ready", "driver", cfg.Store.Driver)

	var eventBus events.Publisher = events.Nop{}
	if cfg.NATS.URL != "" {
		nb, err := events.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		eventBus = nb
	}
	defer eventBus.Close()

	var provider payment.Provider = payment.Unconfigured{}
	if cfg.Stripe.SecretKey != "" {
		provider = payment.NewStripeProvider(cfg.Stripe.SecretKey)
	} else {
		logger.Warn("PAYMENT_SECRET_KEY not set, payment intents are disabled")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(st)
	roomRepo := repository.NewRoomRepository(st)
	bookingRepo := repository.NewBookingRepository(st)

	// Initialize services
	tokens := auth.NewTokenService(userRepo, cfg.Auth.TokenSecret, cfg.Auth.TokenTTL,
		auth.NewCookiePolicy(cfg.Auth.CookieName, cfg.IsProduction()))
	userService := service.NewUserService(userRepo, eventBus)
	roomService := service.NewRoomService(roomRepo, eventBus)
	paymentService := service.NewPaymentService(provider, cfg.Stripe.Currency, eventBus)
	bookingService := service.NewBookingService(bookingRepo, roomRepo, eventBus)

	routerCfg := handlers.RouterConfig{
		Gate:           httpmw.NewGate(tokens, userService),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Ping:           st.Ping,
	}
	if cfg.Redis.URL != "" {
		rdb, err := mw.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()

		routerCfg.Idempotency = mw.IdempotencyMiddleware(mw.NewRedisIdempotencyStore(rdb), cfg.Redis.IdempotencyTTL)
		routerCfg.TokenLimit = mw.NewRateLimiter(rdb, mw.RateLimitConfig{
			Requests: cfg.Redis.JWTRateLimit,
			Window:   time.Minute,
			KeyFunc:  mw.IPKeyFunc,
			OnLimit: func(w http.ResponseWriter, r *http.Request) {
				response.RateLimit(w)
			},
		}).Middleware()
	}

	h := handlers.New(tokens, userService, roomService, paymentService, bookingService)

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	if cfg.Reconcile.Interval > 0 {
		go service.NewReconciler(bookingService, eventBus).Run(runCtx, cfg.Reconcile.Interval)
		logger.Info("Reconciler started", "interval", cfg.Reconcile.Interval.String())
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      h.Routes(routerCfg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down turneja...")
		stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := st.Close(ctx); err != nil {
			logger.Error("Store close error", "error", err)
		}
	}()

	logger.Info("turneja is running", "port", cfg.Server.Port, "env", cfg.Env)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	<-done
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "mongo", "":
		s, err := mongostore.NewStore(ctx, cfg.MongoURI, cfg.Database)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		pool, err := database.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s, err := pgstore.New(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return s, nil
	case "memory":
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Driver)
	}
}
