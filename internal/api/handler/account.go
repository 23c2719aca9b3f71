package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-ledger-transfer/internal/application"
	"github.com/sanosuguru/go-ledger-transfer/internal/domain/account"
)

type AccountHandler struct {
	service AccountServiceInterface
}

func NewAccountHandler(s AccountServiceInterface) *AccountHandler {
	return &AccountHandler{service: s}
}

type CreateAccountRequest struct {
	ID      string `json:"id" validate:"account_id" example:"memberA"`
	Balance int64  `json:"balance" validate:"gte=0" example:"10000"`
}

type AccountResponse struct {
	ID      string `json:"id" example:"memberA"`
	Balance int64  `json:"balance" example:"10000"`
}

func toAccountResponse(a *account.Account) AccountResponse {
	return AccountResponse{ID: a.ID, Balance: a.Balance}
}

// Create godoc
// @Summary 口座を作成
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body CreateAccountRequest true "口座情報"
// @Success 201 {object} AccountResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string "口座IDが重複"
// @Router /accounts [post]
func (h *AccountHandler) Create(c echo.Context) error {
	var req CreateAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	a, err := h.service.CreateAccount(c.Request().Context(), application.CreateAccountInput{
		ID: req.ID, Balance: req.Balance,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toAccountResponse(a))
}

// GetByID godoc
// @Summary 口座を取得
// @Tags accounts
// @Produce json
// @Param id path string true "口座ID"
// @Success 200 {object} AccountResponse
// @Failure 404 {object} map[string]string
// @Router /accounts/{id} [get]
func (h *AccountHandler) GetByID(c echo.Context) error {
	a, err := h.service.GetAccount(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toAccountResponse(a))
}

// Delete godoc
// @Summary 口座を削除
// @Description 存在しない口座を指定してもエラーにしない
// @Tags accounts
// @Param id path string true "口座ID"
// @Success 204
// @Router /accounts/{id} [delete]
func (h *AccountHandler) Delete(c echo.Context) error {
	if err := h.service.DeleteAccount(c.Request().Context(), c.Param("id")); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
