package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-ledger-transfer/internal/pkg/logger"
)

// RequestLogger はリクエストの構造化ログを出力するミドルウェア
// middleware.RequestID の後に登録する
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			req := c.Request()
			status := responseStatus(c, err)
			fields := []zap.Field{
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.String("method", req.Method),
				zap.String("route", routeOf(c)),
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote_ip", c.RealIP()),
			}

			switch {
			case status >= 500:
				logger.Error("server error", append(fields, zap.Error(err))...)
			case status >= 400:
				logger.Warn("client error", append(fields, zap.Error(err))...)
			default:
				logger.Info("request completed", fields...)
			}
			return err
		}
	}
}

// routeOf はパスパラメータを含まないルート名を返す
func routeOf(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return c.Request().URL.Path
}
