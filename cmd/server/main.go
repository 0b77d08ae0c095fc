package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resto-be/internal/catalog"
	"resto-be/internal/config"
	"resto-be/internal/db"
	"resto-be/internal/logger"
	"resto-be/internal/metrics"
	"resto-be/internal/middleware"
	"resto-be/internal/order"
	"resto-be/internal/realtime"
	"resto-be/internal/user"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var (
	initDBFunc        = db.InitDB
	startServerFunc   = startServer
	connectBrokerFunc = realtime.NewBroker
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := initDBFunc(cfg)
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router, err := newServer(ctx, cfg, database)
	if err != nil {
		return err
	}

	logger.L().Info("server starting", zap.String("port", cfg.AppPort), zap.String("env", cfg.AppEnv))
	return startServerFunc(ctx, ":"+cfg.AppPort, router)
}

type routes struct {
	menu    *catalog.Handler
	orders  *order.Handler
	users   *user.Handler
	hub     *realtime.Hub
	metrics *metrics.Orders
}

// newServer wires repositories, services and handlers. Background janitors
// and the broker connection live until ctx is done.
func newServer(ctx context.Context, cfg *config.Config, database *sql.DB) (http.Handler, error) {
	m := &metrics.Orders{}

	guard, err := order.NewGuard(cfg.DuplicateCacheSize, cfg.DuplicateWindow, time.Now)
	if err != nil {
		return nil, err
	}
	go guard.Run(ctx)

	limiter := middleware.NewRateLimiter(cfg.InternalKey)
	go limiter.Run(ctx)

	hub := realtime.NewHub(cfg.CORSOrigin)
	publishers := []realtime.Publisher{hub}

	if cfg.RabbitMQURL != "" {
		broker, err := connectBrokerFunc(cfg.RabbitMQURL, cfg.EventsExchange)
		if err != nil {
			// realtime clients still get events through the hub
			logger.L().Warn("broker disabled", zap.Error(err))
		} else {
			publishers = append(publishers, broker)
			go func() {
				<-ctx.Done()
				broker.Close()
			}()
		}
	}

	userRepo := user.NewRepository(database)
	userSvc := user.NewService(userRepo, cfg.JWTSecret)

	catalogRepo := catalog.NewRepository(database)
	orderSvc := order.NewService(order.Deps{
		Repo:    order.NewRepository(database),
		Catalog: catalogRepo,
		Guard:   guard,
		Roles:   userSvc,
		Events:  realtime.NewFanout(&m.PublishFailures, publishers...),
		Metrics: m,
	})

	return setupRouter(cfg, routes{
		menu:    catalog.NewHandler(catalog.NewMenuReader(database)),
		orders:  order.NewHandler(orderSvc),
		users:   user.NewHandler(userSvc, cfg.AppEnv == "production"),
		hub:     hub,
		metrics: m,
	}, limiter), nil
}

func setupRouter(cfg *config.Config, rt routes, limiter *middleware.RateLimiter) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", metrics.Handler(rt.metrics))
	mux.HandleFunc("GET /ws", rt.hub.ServeWS)

	rt.menu.Register(mux)
	rt.orders.Register(mux)
	rt.users.Register(mux)

	// outermost first: CORS, request id, logging, auth, rate limit
	var h http.Handler = mux
	h = limiter.Middleware(h)
	h = middleware.AuthMiddleware(cfg.JWTSecret)(h)
	h = logger.LoggingMiddleware(h)
	h = logger.RequestIDMiddleware(h)
	h = middleware.CORS(cfg.CORSOrigin)(h)
	return h
}

func startServer(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
