package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-ledger-transfer/internal/api/handler"
	"github.com/sanosuguru/go-ledger-transfer/internal/api/router"
	"github.com/sanosuguru/go-ledger-transfer/internal/application"
	"github.com/sanosuguru/go-ledger-transfer/internal/config"
	"github.com/sanosuguru/go-ledger-transfer/internal/domain/account"
	"github.com/sanosuguru/go-ledger-transfer/internal/domain/transaction"
	"github.com/sanosuguru/go-ledger-transfer/internal/domain/transfer"
	"github.com/sanosuguru/go-ledger-transfer/internal/infrastructure/kafka"
	"github.com/sanosuguru/go-ledger-transfer/internal/infrastructure/memory"
	redisinfra "github.com/sanosuguru/go-ledger-transfer/internal/infrastructure/redis"
	"github.com/sanosuguru/go-ledger-transfer/internal/infrastructure/sqlstore"
	"github.com/sanosuguru/go-ledger-transfer/internal/pkg/logger"
	"github.com/sanosuguru/go-ledger-transfer/internal/pkg/metrics"
	"github.com/sanosuguru/go-ledger-transfer/internal/worker"
)

const (
	balanceCacheTTL = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	// .env は任意（存在しなければ環境変数のみ使用）
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg.Env)
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Fatal("起動に失敗しました", zap.Error(err))
	}
}

// backend は選択されたストアの構成要素
type backend struct {
	txManager transaction.Manager
	repo      account.Repository
	stats     worker.StatsSource
	ping      handler.HealthCheck
	closer    io.Closer
}

func run(cfg *config.Config) error {
	ctx := context.Background()
	m := metrics.Init()

	store, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	if store.closer != nil {
		defer store.closer.Close()
	}
	healthChecks := map[string]handler.HealthCheck{"database": store.ping}

	// Redis（任意）
	var redisClient *goredis.Client
	if cfg.Redis.Enabled {
		redisClient = redisinfra.NewClient(&cfg.Redis)
		defer redisClient.Close()
		if err := redisinfra.Ping(ctx, redisClient); err != nil {
			return err
		}
		healthChecks["redis"] = func(ctx context.Context) error { return redisinfra.Ping(ctx, redisClient) }
		logger.Info("Redisに接続しました", zap.String("addr", cfg.Redis.Addr()))
	}

	publisher, closePublisher, err := newPublisher(cfg, redisClient)
	if err != nil {
		return err
	}
	defer closePublisher()

	var cache application.BalanceCache
	opts := []application.TransferOption{application.WithMetrics(m)}
	if redisClient != nil {
		accountCache := redisinfra.NewAccountCache(redisClient, balanceCacheTTL)
		cache = accountCache
		opts = append(opts, application.WithBalanceCache(accountCache))
		if cfg.Transfer.LockEnabled {
			locker := redisinfra.NewAccountLocker(redisinfra.NewLockManager(redisClient), cfg.Transfer.LockTTL)
			opts = append(opts, application.WithLocker(locker))
		}
	}
	if publisher != nil {
		opts = append(opts, application.WithPublisher(publisher))
	}

	policy := transfer.NewBlockedAccountPolicy(cfg.Transfer.BlockedAccounts...)
	transferService := application.NewTransferService(store.txManager, store.repo, policy, opts...)
	accountService := application.NewAccountService(store.txManager, store.repo, cache)

	e := router.New(router.Dependencies{
		AccountService:  accountService,
		TransferService: transferService,
		HealthChecks:    healthChecks,
		Metrics:         m,
		Gatherer:        prometheus.DefaultGatherer,
		MetricsAuth:     cfg.Metrics,
		RequestTimeout:  cfg.Server.WriteTimeout,
	})
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	// コネクションプール監視
	reporter := worker.NewPoolStatsReporter(store.stats, m, cfg.Worker.PoolStatsInterval)
	go reporter.Start(ctx)

	go func() {
		logger.Info("サーバーを起動します",
			zap.String("port", cfg.Server.Port),
			zap.String("driver", cfg.Database.Driver),
		)
		if err := e.Start(fmt.Sprintf(":%s", cfg.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("サーバーシャットダウンエラー: %w", err)
	}
	reporter.Stop()

	logger.Info("サーバーが正常にシャットダウンしました")
	return nil
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	if cfg.Database.Driver == "memory" {
		store := memory.NewStore(cfg.Database.MaxOpenConns)
		logger.Warn("インメモリストアで起動します（再起動でデータは失われます）")
		return &backend{
			txManager: memory.NewTxManager(store),
			repo:      memory.NewAccountRepository(),
			stats:     store,
			ping:      func(context.Context) error { return nil },
		}, nil
	}

	db, err := sqlstore.NewConnection(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := sqlstore.RunMigrations(db.DB, cfg.Database.Driver, cfg.Database.MigrationsPath); err != nil {
		if !errors.Is(err, sqlstore.ErrMigrationUnsupported) {
			db.Close()
			return nil, err
		}
		logger.Warn("マイグレーションをスキップしました", zap.Error(err))
	}
	logger.Info("データベースに接続しました",
		zap.String("driver", cfg.Database.Driver),
		zap.String("host", cfg.Database.Host),
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.String("isolation", cfg.Database.Isolation().String()),
	)
	return &backend{
		txManager: sqlstore.NewTxManager(db, cfg.Database.Isolation()),
		repo:      sqlstore.NewAccountRepository(),
		stats:     db,
		ping:      func(ctx context.Context) error { return sqlstore.Ping(ctx, db) },
		closer:    db,
	}, nil
}

func newPublisher(cfg *config.Config, redisClient *goredis.Client) (transfer.Publisher, func(), error) {
	switch cfg.Events.Backend {
	case "", "none":
		return nil, func() {}, nil
	case "redis":
		if redisClient == nil {
			return nil, nil, errors.New("EVENTS_BACKEND=redis には REDIS_ENABLED=true が必要です")
		}
		return redisinfra.NewStreamPublisher(redisClient, cfg.Events.RedisStream), func() {}, nil
	case "kafka":
		p := kafka.NewPublisher(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic)
		return p, func() {
			if err := p.Close(); err != nil {
				logger.Warn("Kafkaライターのクローズに失敗", zap.Error(err))
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("未対応の EVENTS_BACKEND です: %s", cfg.Events.Backend)
	}
}
