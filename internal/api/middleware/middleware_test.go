package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-ledger-transfer/internal/pkg/metrics"
)

func TestSetupMiddleware(t *testing.T) {
	e := echo.New()
	SetupMiddleware(e, time.Second)

	e.GET("/test", func(c echo.Context) error {
		return c.String(http.StatusOK, "test")
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestSetupMiddleware_RequestTimeout(t *testing.T) {
	e := echo.New()
	SetupMiddleware(e, 50*time.Millisecond)

	var deadlineSet bool
	e.GET("/slow", func(c echo.Context) error {
		_, deadlineSet = c.Request().Context().Deadline()
		<-c.Request().Context().Done()
		return c.Request().Context().Err()
	})

	req := httptest.NewRequest(http.MethodGet, "/slow", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.True(t, deadlineSet)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSetupMiddleware_BodyLimit(t *testing.T) {
	e := echo.New()
	SetupMiddleware(e, 0)

	e.POST("/api/v1/transfers", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers", strings.NewReader(strings.Repeat("a", 65*1024)))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name    string
		handler echo.HandlerFunc
		want    int
	}{
		{
			name:    "成功",
			handler: func(c echo.Context) error { return c.String(http.StatusOK, "success") },
			want:    http.StatusOK,
		},
		{
			name:    "HTTPError",
			handler: func(c echo.Context) error { return echo.NewHTTPError(http.StatusUnprocessableEntity, "rejected") },
			want:    http.StatusUnprocessableEntity,
		},
		{
			name:    "サーバーエラー",
			handler: func(c echo.Context) error { return c.String(http.StatusInternalServerError, "internal error") },
			want:    http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.Use(RequestLogger())
			e.GET("/test", tt.handler)

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestResponseStatus(t *testing.T) {
	e := echo.New()

	t.Run("HTTPError のコードを優先する", func(t *testing.T) {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		assert.Equal(t, http.StatusNotFound, responseStatus(c, echo.NewHTTPError(http.StatusNotFound)))
	})

	t.Run("未送信の一般エラーは500", func(t *testing.T) {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		assert.Equal(t, http.StatusInternalServerError, responseStatus(c, context.Canceled))
	})

	t.Run("エラーなしはレスポンスのステータス", func(t *testing.T) {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		require.NoError(t, c.NoContent(http.StatusNoContent))
		assert.Equal(t, http.StatusNoContent, responseStatus(c, nil))
	})
}

func TestPrometheusMiddleware(t *testing.T) {
	e := echo.New()
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	e.Use(PrometheusMiddleware(m, "/metrics"))

	e.GET("/api/v1/accounts/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.POST("/api/v1/transfers", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "rejected")
	})
	e.GET("/metrics", func(c echo.Context) error {
		return c.String(http.StatusOK, "metrics")
	})

	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/accounts/memberA"},
		{http.MethodGet, "/api/v1/accounts/memberB"},
		{http.MethodPost, "/api/v1/transfers"},
		{http.MethodGet, "/metrics"},
	} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(r.method, r.path, nil))
	}

	// パスパラメータはルート単位で集計される
	assert.Equal(t, float64(2), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/accounts/:id", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/transfers", "422")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/metrics", "200")))
}
