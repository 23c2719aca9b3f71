package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// healthCheckTimeout は依存先ごとの確認の上限時間
const healthCheckTimeout = 2 * time.Second

// HealthCheck は依存先の疎通を確認する関数
type HealthCheck func(ctx context.Context) error

// HealthHandler はヘルスチェックハンドラー
type HealthHandler struct {
	checks map[string]HealthCheck
}

// NewHealthHandler はHealthHandlerを作成する
// checks のキーは応答の components に表示される名前
func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// HealthResponse はヘルスチェックのレスポンス
type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Components map[string]string `json:"components,omitempty"`
}

// Check はヘルスチェックを行う
// @Summary ヘルスチェック
// @Description データベースなど依存先の疎通を確認する
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Check(c echo.Context) error {
	resp := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().Format(time.RFC3339),
	}
	code := http.StatusOK

	if len(h.checks) > 0 {
		resp.Components = make(map[string]string, len(h.checks))
		for name, check := range h.checks {
			ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
			err := check(ctx)
			cancel()
			if err != nil {
				resp.Components[name] = "down"
				resp.Status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Components[name] = "up"
		}
	}
	return c.JSON(code, resp)
}
