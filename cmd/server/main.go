package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/sheikh-saqib/idea-funding-ledger/internal/api"
	"github.com/sheikh-saqib/idea-funding-ledger/internal/config"
	"github.com/sheikh-saqib/idea-funding-ledger/internal/events/kafka"
	eventlog "github.com/sheikh-saqib/idea-funding-ledger/internal/events/memory"
	"github.com/sheikh-saqib/idea-funding-ledger/internal/events/redis"
	interfaces "github.com/sheikh-saqib/idea-funding-ledger/internal/interfaces"
	"github.com/sheikh-saqib/idea-funding-ledger/internal/ledger"
	"github.com/sheikh-saqib/idea-funding-ledger/internal/logger"
	"github.com/sheikh-saqib/idea-funding-ledger/internal/payout"
	"github.com/sheikh-saqib/idea-funding-ledger/internal/storage/memory"
	"github.com/sheikh-saqib/idea-funding-ledger/internal/storage/postgres"
)

func main() {
	os.Exit(serve(".env"))
}

// serve runs the server until a signal arrives and returns the exit code.
// Deferred cleanup runs before main exits.
func serve(envFile string) int {
	cfg, err := config.Load(envFile)
	if err != nil {
		log.Printf("config: %v", err)
		return 1
	}

	logg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Printf("logger: %v", err)
		return 1
	}
	defer logg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error("server stopped", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg config.Config, logg *logger.Logger) error {
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logg.Warn("close failed", "error", err)
			}
		}
	}()

	var store interfaces.CampaignStore
	switch cfg.Store {
	case config.StorePostgres:
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		closers = append(closers, db)
		pg := postgres.NewPostgresCampaignStore(db)
		if err := pg.Migrate(ctx); err != nil {
			return err
		}
		store = pg
	default:
		store = memory.NewMemoryCampaignStore()
	}

	var publisher interfaces.EventPublisher
	switch cfg.EventSink {
	case config.SinkKafka:
		p := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		closers = append(closers, p)
		publisher = p
	case config.SinkRedis:
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		closers = append(closers, client)
		publisher = redis.NewPublisher(client, cfg.RedisStream)
	default:
		publisher = eventlog.NewLog()
	}

	book := payout.NewBook(cfg.AmountScale)
	ledgerService := ledger.NewLedger(store, publisher, book, cfg.AdminID, logg)

	if cfg.LogMode == "prod" || cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: api.NewRouter(api.NewHandlers(ledgerService, book, logg), logg),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logg.Info("starting server", "addr", cfg.HTTPAddr, "store", cfg.Store, "event_sink", cfg.EventSink, "admin", cfg.AdminID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logg.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
