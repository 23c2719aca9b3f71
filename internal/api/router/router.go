package router

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanosuguru/go-ledger-transfer/internal/api"
	"github.com/sanosuguru/go-ledger-transfer/internal/api/handler"
	"github.com/sanosuguru/go-ledger-transfer/internal/api/middleware"
	"github.com/sanosuguru/go-ledger-transfer/internal/config"
	"github.com/sanosuguru/go-ledger-transfer/internal/pkg/metrics"
)

// Dependencies はルーティングに必要な依存
type Dependencies struct {
	AccountService  handler.AccountServiceInterface
	TransferService handler.TransferServiceInterface
	HealthChecks    map[string]handler.HealthCheck

	// Metrics が nil の場合は HTTP メトリクスと /metrics を無効にする
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	MetricsAuth    config.MetricsConfig
	RequestTimeout time.Duration
}

// New はルーティング設定済みの Echo インスタンスを作成する
func New(d Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler

	middleware.SetupMiddleware(e, d.RequestTimeout)

	if d.Metrics != nil {
		e.Use(middleware.PrometheusMiddleware(d.Metrics, "/metrics", "/health"))
		gatherer := d.Gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})),
			middleware.MetricsBasicAuth(d.MetricsAuth))
	}

	e.GET("/health", handler.NewHealthHandler(d.HealthChecks).Check)

	accountHandler := handler.NewAccountHandler(d.AccountService)
	transferHandler := handler.NewTransferHandler(d.TransferService)

	v1 := e.Group("/api/v1")
	v1.POST("/accounts", accountHandler.Create)
	v1.GET("/accounts/:id", accountHandler.GetByID)
	v1.DELETE("/accounts/:id", accountHandler.Delete)
	v1.POST("/transfers", transferHandler.Create)

	return e
}
