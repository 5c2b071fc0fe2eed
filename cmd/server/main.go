package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"

	"github.com/cyhinverse/mobile-store-server/internal/auth"
	"github.com/cyhinverse/mobile-store-server/internal/config"
	"github.com/cyhinverse/mobile-store-server/internal/controllers/http"
	"github.com/cyhinverse/mobile-store-server/internal/controllers/ws"
	"github.com/cyhinverse/mobile-store-server/internal/domain"
	"github.com/cyhinverse/mobile-store-server/internal/infra"
	"github.com/cyhinverse/mobile-store-server/internal/infra/gateway"
	mmysql "github.com/cyhinverse/mobile-store-server/internal/infra/mysql"
	"github.com/cyhinverse/mobile-store-server/internal/infra/rabbitmq"
	"github.com/cyhinverse/mobile-store-server/internal/notify"
	mysqlrepo "github.com/cyhinverse/mobile-store-server/internal/repository/mysql"
	"github.com/cyhinverse/mobile-store-server/internal/services"
)

func main() {
	cfg := config.MustLoad(os.Getenv("CONFIG_PATH"))

	slog.SetDefault(newLogger(cfg.App.LogLevel, cfg.App.Name))

	db, err := mmysql.NewMySQL(cfg.MySQL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
	if err != nil {
		slog.Error("rabbitmq connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer publisher.Close()

	catalog := infra.NewCachedCatalog(
		infra.NewCatalogClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout),
		redisClient,
		cfg.Catalog.CacheTTL,
	)

	adapter := gateway.NewAdapter()
	adapter.Register(domain.MethodCashOnDelivery, gateway.NewCashOnDeliveryProvider())
	adapter.Register(domain.MethodBankTransfer,
		gateway.NewHTTPProvider("bank_transfer", cfg.Payment.BankTransferURL, cfg.Payment.ProviderTimeout))
	adapter.Register(domain.MethodEWalletB,
		gateway.NewHTTPProvider("e_wallet_b", cfg.Payment.EWalletURL, cfg.Payment.ProviderTimeout))

	dispatcher := notify.NewDispatcher()

	orderRepo := mysqlrepo.NewOrderRepository(db)
	paymentRepo := mysqlrepo.NewPaymentRepository(db)
	reviewRepo := mysqlrepo.NewReviewRepository(db)

	orderService := services.NewOrderService(orderRepo, paymentRepo, catalog, adapter, dispatcher, publisher)
	adapter.BindLedger(orderService)

	reviewService := services.NewReviewService(reviewRepo)
	sweeper := services.NewPaymentSweeper(paymentRepo, orderService, cfg.Payment.PendingTimeout, cfg.Payment.SweepInterval)

	issuer := auth.NewIssuer(cfg.Auth)

	handler := http.NewHandler(orderService, reviewService, adapter, issuer)
	wsHandler := ws.NewHandler(issuer, dispatcher)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	handler.RegisterRoutes(r)
	r.GET("/ws", wsHandler.Serve)

	srv := &nethttp.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server starting", slog.Int("port", cfg.HTTP.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return sweeper.Run(ctx)
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func newLogger(level, service string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})).
		With(slog.String("service", service))
}
