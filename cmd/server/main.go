package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/rl1809/storefront/internal/adapter/events"
	"github.com/rl1809/storefront/internal/adapter/handler"
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/config"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/job"
	"github.com/rl1809/storefront/internal/logging"
	"github.com/rl1809/storefront/internal/port"
)

var (
	configPath = flag.String("c", "", "path to the YAML config file")
	envFile    = flag.String("env", ".env", "dotenv file loaded before STOREFRONT_* variables")
	seed       = flag.Bool("seed", false, "create the demo catalog and user on startup")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.Logger)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("app", cfg.System.Appname), zap.String("env", cfg.System.Env))

	if err := run(cfg, logger); err != nil {
		logger.Fatal("storefront stopped", zap.Error(err))
	}
}

func run(cfg *config.AppConfig, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := sql.Open(cfg.Database.DriverName(), cfg.Database.DSN())
	if err != nil {
		return errors.Wrap(err, "open database")
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxConn)
	db.SetMaxIdleConns(cfg.Database.IdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		return errors.Wrapf(err, "ping %s", cfg.Database.Type)
	}
	logger.Info("connected to database", zap.String("type", cfg.Database.Type))

	if cfg.Database.Migrate {
		if err := storage.Migrate(ctx, db, cfg.Database.Type); err != nil {
			return err
		}
		logger.Info("schema migrated")
	}

	store, err := storage.NewSQLAdapter(db, cfg.Database.Type)
	if err != nil {
		return err
	}
	logger.Info("storage ready", zap.String("dialect", store.Dialect()))

	// Redis is optional: without it adds are not deduplicated and events stay in-process.
	var idempotency port.IdempotencyStore
	var rdb *redis.Client
	var cache *storage.RedisAdapter
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: 100,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return errors.Wrap(err, "ping redis")
		}
		logger.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))

		cache = storage.NewRedisAdapter(rdb, storage.RedisOptions{
			IdempotencyTTL: cfg.Redis.IdempotencyTTL,
			EventStream:    cfg.Redis.EventStream,
			StreamMaxLen:   cfg.Redis.StreamMaxLen,
		})
		idempotency = cache
	}

	// Event bus
	bus, err := events.NewBus(events.Options{
		Workers:        cfg.Events.Workers,
		MaxSubscribers: cfg.Events.MaxSubscribers,
	}, logger.Named("events"))
	if err != nil {
		return err
	}
	defer bus.Close()

	if err := bus.Subscribe("log", events.LogSubscriber(logger.Named("cart"))); err != nil {
		return err
	}

	if cache != nil {
		if err := bus.SubscribeAsync("redis-stream", events.StreamSubscriber(cache)); err != nil {
			return err
		}
	}

	// Services
	catalog := service.NewCatalogService(store)
	users := service.NewUserService(store, domain.User{
		ID:    cfg.Demo.UserID,
		Email: cfg.Demo.Email,
		Name:  cfg.Demo.Name,
	})
	carts := service.NewCartService(store, store, store, bus, idempotency, logger.Named("cart"))

	if *seed {
		result, err := catalog.SeedProducts(ctx)
		if err != nil {
			return err
		}
		user, err := users.SeedDemoUser(ctx)
		if err != nil {
			return err
		}
		logger.Info("demo data ready", zap.Int("products_created", result.Created), zap.String("user_id", user.ID))
	}

	// Idle cart sweeper
	if cfg.Cart.SweepSchedule != "" {
		sweeper, err := job.NewSweeper(carts, cfg.Cart.SweepSchedule, cfg.Cart.AbandonAfter, logger)
		if err != nil {
			return err
		}
		sweeper.Start()
		defer sweeper.Stop()
		logger.Info("cart sweeper scheduled", zap.String("schedule", cfg.Cart.SweepSchedule))
	}

	errCh := make(chan error, 2)

	// gRPC server
	var grpcServer *grpc.Server
	if cfg.Grpc.Enabled {
		grpcServer = grpc.NewServer(grpc.UnaryInterceptor(handler.UnaryLogger(logger.Named("grpc"))))
		handler.RegisterCartServiceServer(grpcServer, handler.NewGRPCHandler(carts, logger.Named("grpc")))

		lis, err := net.Listen("tcp", cfg.Grpc.Addr())
		if err != nil {
			return errors.Wrapf(err, "listen %s", cfg.Grpc.Addr())
		}
		go func() {
			logger.Info("gRPC server listening", zap.String("addr", cfg.Grpc.Addr()))
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- errors.Wrap(err, "grpc server")
			}
		}()
	}

	// HTTP server
	httpHandler := handler.NewHTTPHandler(catalog, carts, users, logger.Named("http"))
	httpHandler.AddHealthCheck(cfg.Database.Type, db.PingContext)
	if cache != nil {
		httpHandler.AddHealthCheck("redis", cache.Ping)
	}
	e := handler.NewEcho(cfg.Web, httpHandler, logger.Named("http"))

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Web.Addr()))
		if err := e.Start(cfg.Web.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- errors.Wrap(err, "http server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case runErr = <-errCh:
		logger.Error("server failed, shutting down", zap.Error(runErr))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", zap.Error(err))
	}
	logger.Info("HTTP server stopped")

	if grpcServer != nil {
		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")
	}

	return runErr
}
