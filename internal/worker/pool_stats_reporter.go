package worker

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-ledger-transfer/internal/pkg/logger"
	"github.com/sanosuguru/go-ledger-transfer/internal/pkg/metrics"
)

// StatsSource はコネクションプールの統計を返す
// *sqlx.DB と *memory.Store が満たす
type StatsSource interface {
	Stats() sql.DBStats
}

// PoolStatsReporter はコネクションプールの状態を定期的にメトリクスとログへ出力するワーカー
type PoolStatsReporter struct {
	source   StatsSource
	metrics  *metrics.Metrics
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once

	lastWaitCount int64
}

// DefaultPoolStatsInterval は監視間隔の既定値
const DefaultPoolStatsInterval = 15 * time.Second

// NewPoolStatsReporter は新しいレポーターを作成
// m が nil の場合はログ出力のみ行う
func NewPoolStatsReporter(source StatsSource, m *metrics.Metrics, interval time.Duration) *PoolStatsReporter {
	if interval <= 0 {
		logger.Warn("不正な監視間隔のため既定値を使用します",
			zap.Duration("interval", interval), zap.Duration("default", DefaultPoolStatsInterval))
		interval = DefaultPoolStatsInterval
	}
	return &PoolStatsReporter{
		source:   source,
		metrics:  m,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start はレポーターを開始（Stop かコンテキストのキャンセルまでブロックする）
func (r *PoolStatsReporter) Start(ctx context.Context) {
	logger.Info("コネクションプール監視開始", zap.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	defer close(r.doneCh)

	r.report()
	for {
		select {
		case <-ctx.Done():
			logger.Info("コネクションプール監視停止（コンテキストキャンセル）")
			return
		case <-r.stopCh:
			logger.Info("コネクションプール監視停止（シグナル受信）")
			return
		case <-ticker.C:
			r.report()
		}
	}
}

// Stop はレポーターを停止し、Start の終了を待つ
func (r *PoolStatsReporter) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	<-r.doneCh
}

// report は現在のプール統計を出力する
func (r *PoolStatsReporter) report() {
	stats := r.source.Stats()

	if r.metrics != nil {
		r.metrics.DBConnections.WithLabelValues("open").Set(float64(stats.OpenConnections))
		r.metrics.DBConnections.WithLabelValues("in_use").Set(float64(stats.InUse))
		r.metrics.DBConnections.WithLabelValues("idle").Set(float64(stats.Idle))
		r.metrics.DBWaitCount.Set(float64(stats.WaitCount))
	}

	fields := []zap.Field{
		zap.Int("max_open", stats.MaxOpenConnections),
		zap.Int("open", stats.OpenConnections),
		zap.Int("in_use", stats.InUse),
		zap.Int("idle", stats.Idle),
		zap.Int64("wait_count", stats.WaitCount),
		zap.Duration("wait_duration", stats.WaitDuration),
	}

	// 前回からコネクション待ちが発生していればプール不足として警告する
	if waited := stats.WaitCount - r.lastWaitCount; waited > 0 {
		logger.Warn("コネクション取得待ちが発生", append(fields, zap.Int64("waited", waited))...)
	} else {
		logger.Debug("コネクションプール状態", fields...)
	}
	r.lastWaitCount = stats.WaitCount
}
