package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// requestBodyLimit は口座作成・送金リクエストの最大サイズ
const requestBodyLimit = "64K"

// SetupMiddleware は共通ミドルウェアを設定する
// requestTimeout はハンドラーに渡すコンテキストの期限で、
// 送金がコネクションを占有し続けないよう上限を設ける
func SetupMiddleware(e *echo.Echo, requestTimeout time.Duration) {
	// リクエストID
	e.Use(middleware.RequestID())

	// 構造化リクエストログ（zap）
	e.Use(RequestLogger())

	// パニックリカバリー
	e.Use(middleware.Recover())

	e.Use(middleware.BodyLimit(requestBodyLimit))

	if requestTimeout > 0 {
		e.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
			Timeout: requestTimeout,
		}))
	}
}

// responseStatus はハンドラーのエラーを考慮した最終的なステータスコードを返す
func responseStatus(c echo.Context, err error) int {
	if err != nil {
		if he, ok := err.(*echo.HTTPError); ok {
			return he.Code
		}
		if !c.Response().Committed {
			return 500
		}
	}
	return c.Response().Status
}
