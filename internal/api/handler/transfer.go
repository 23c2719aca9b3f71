package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-ledger-transfer/internal/domain/transfer"
)

type TransferHandler struct {
	service TransferServiceInterface
}

func NewTransferHandler(s TransferServiceInterface) *TransferHandler {
	return &TransferHandler{service: s}
}

// 金額の正値チェックは送金処理本体では行わないため、ここで検証する
type CreateTransferRequest struct {
	FromID string `json:"from_account_id" validate:"account_id" example:"memberA"`
	ToID   string `json:"to_account_id" validate:"account_id" example:"memberB"`
	Amount int64  `json:"amount" validate:"gt=0" example:"2000"`
}

type TransferResponse struct {
	ID        string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	FromID    string    `json:"from_account_id" example:"memberA"`
	ToID      string    `json:"to_account_id" example:"memberB"`
	Amount    int64     `json:"amount" example:"2000"`
	CreatedAt time.Time `json:"created_at"`
}

func toTransferResponse(t *transfer.Transfer) TransferResponse {
	return TransferResponse{
		ID: t.ID, FromID: t.FromID, ToID: t.ToID,
		Amount: t.Amount, CreatedAt: t.CreatedAt,
	}
}

// Create godoc
// @Summary 送金
// @Description 送金元から送金先へ金額を移します。失敗時は両口座とも変更されません
// @Tags transfers
// @Accept json
// @Produce json
// @Param request body CreateTransferRequest true "送金情報"
// @Success 201 {object} TransferResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string "口座が存在しない"
// @Failure 409 {object} map[string]string "口座が他の送金で使用中"
// @Failure 422 {object} map[string]string "送金が拒否された"
// @Failure 503 {object} map[string]string "コネクションを取得できない"
// @Router /transfers [post]
func (h *TransferHandler) Create(c echo.Context) error {
	var req CreateTransferRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	t, err := h.service.Transfer(c.Request().Context(), req.FromID, req.ToID, req.Amount)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toTransferResponse(t))
}
