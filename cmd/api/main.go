package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	httpadp "mediatheque/internal/adapter/http"
	mw "mediatheque/internal/adapter/middleware"
	"mediatheque/internal/adapter/repository/mongostore"
	"mediatheque/internal/adapter/repository/sqlstore"
	"mediatheque/internal/config"
	"mediatheque/internal/domain/store"
	"mediatheque/internal/infrastructure/cache"
	"mediatheque/internal/infrastructure/db"
	"mediatheque/internal/infrastructure/docstore"
	"mediatheque/internal/usecase/circulation"
	"mediatheque/internal/usecase/document"
	"mediatheque/internal/usecase/loan"
	"mediatheque/internal/usecase/subscriber"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

// backend is an opened store plus what the process needs to probe and close it.
type backend struct {
	repos store.Repos
	check httpadp.Check
	close func()
}

func openStore(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, mdb, err := docstore.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo: %w", err)
		}
		if err := mongostore.EnsureIndexes(ctx, mdb); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return &backend{
			repos: mongostore.NewRepos(mdb),
			check: httpadp.Check{Name: "store", Ping: func(ctx context.Context) error {
				return client.Ping(ctx, readpref.Primary())
			}},
			close: func() { _ = client.Disconnect(context.Background()) },
		}, nil
	default:
		gdb, err := db.OpenGorm(cfg.StoreDriver, cfg.SQLDSN())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cfg.StoreDriver, err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		if err := sqlstore.Migrate(gdb); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return &backend{
			repos: sqlstore.NewRepos(gdb),
			check: httpadp.Check{Name: "store", Ping: sqlDB.PingContext},
			close: func() { _ = sqlDB.Close() },
		}, nil
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	be, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.close()
	logger.Info("store ready", "driver", cfg.StoreDriver)

	checks := []httpadp.Check{be.check}
	var idemp echo.MiddlewareFunc
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	switch {
	case errors.Is(err, cache.ErrDisabled):
		logger.Info("redis disabled, loans run without idempotency keys")
	case err != nil:
		return err
	default:
		defer func(r *redis.Client) { _ = r.Close() }(rdb)
		idemp = mw.Idempotency(rdb, cfg.IdempotencyTTL())
		checks = append(checks, httpadp.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}

	engine, err := circulation.NewEngine(be.repos,
		circulation.WithLogger(logger),
		circulation.WithLoanPeriod(cfg.LoanPeriod()),
		circulation.WithExtension(cfg.LoanExtension()),
		// a claim has to outlive the request that made it
		circulation.WithClaimGrace(max(circulation.DefaultClaimGrace, 2*cfg.RequestTimeout)),
	)
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			Generator: func() string { return uuid.NewString() },
		}),
		mw.RequestLog(logger),
		middleware.Recover(),
		middleware.CORS(),
		middleware.ContextTimeout(cfg.RequestTimeout),
	)

	httpadp.Register(e, httpadp.Routes{
		Health:      httpadp.NewHandler(checks...),
		Subscribers: httpadp.NewSubscriberHandler(subscriber.NewUsecase(be.repos.Subscribers, engine)),
		Documents:   httpadp.NewDocumentHandler(document.NewUsecase(be.repos.Documents, engine)),
		Loans:       httpadp.NewLoanHandler(loan.NewUsecase(be.repos.Loans, engine)),
		Idempotency: idemp,
	})

	errc := make(chan error, 1)
	go func() {
		addr := ":" + cfg.AppPort
		logger.Info("listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
