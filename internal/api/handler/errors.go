package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-ledger-transfer/internal/domain/account"
	"github.com/sanosuguru/go-ledger-transfer/internal/domain/transaction"
	"github.com/sanosuguru/go-ledger-transfer/internal/domain/transfer"
)

// toHTTPError はドメインエラーを HTTP ステータスに変換する
// 送金の失敗は ErrTransferFailed にラップされているため原因側で判定する
func toHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, transfer.ErrTransferRejected):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error()).SetInternal(err)
	case errors.Is(err, account.ErrAccountNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error()).SetInternal(err)
	case errors.Is(err, account.ErrDuplicateAccount), errors.Is(err, transfer.ErrAccountsBusy):
		return echo.NewHTTPError(http.StatusConflict, err.Error()).SetInternal(err)
	case errors.Is(err, account.ErrAccountIDRequired), errors.Is(err, account.ErrAccountIDTooLong):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	case errors.Is(err, transaction.ErrConnectionUnavailable), errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "現在処理できません。時間をおいて再試行してください").SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "内部サーバーエラー").SetInternal(err)
	}
}
