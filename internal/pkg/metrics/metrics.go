package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 送金の総数（status: success, rejected, not_found, conn_unavailable, busy, error）
	TransfersTotal *prometheus.CounterVec

	// 送金処理の所要時間（status）
	TransferDuration *prometheus.HistogramVec

	// 分散ロックの操作時間（operation: acquire/release, status: success/failed）
	DistributedLockDuration *prometheus.HistogramVec

	// コネクションプールの状態（state: open, in_use, idle）
	DBConnections *prometheus.GaugeVec

	// コネクション取得待ちの累計回数
	DBWaitCount prometheus.Gauge
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		TransfersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_transfers_total",
				Help: "Total number of transfer attempts by outcome",
			},
			[]string{"status"},
		),
		TransferDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_transfer_duration_seconds",
				Help:    "Time spent inside a transfer transaction",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"status"},
		),
		DistributedLockDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "distributed_lock_duration_seconds",
				Help:    "Time spent on distributed lock operations",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation", "status"},
		),
		DBConnections: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ledger_db_connections",
				Help: "Current number of database connections by state",
			},
			[]string{"state"},
		),
		DBWaitCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ledger_db_wait_count",
				Help: "Total number of connections waited for",
			},
		),
	}

	// レジストリに登録
	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.TransfersTotal,
		m.TransferDuration,
		m.DistributedLockDuration,
		m.DBConnections,
		m.DBWaitCount,
	)

	return m
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get はデフォルトのメトリクスインスタンスを返す
func Get() *Metrics {
	return defaultMetrics
}
