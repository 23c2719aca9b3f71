package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-ledger-transfer/internal/domain/account"
)

// CustomValidator はEcho用のカスタムバリデーター
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator は新しいバリデーターを作成する
// account_id タグは口座IDの形式（空白を含まない・最大長以内）を検証する
func NewValidator() *CustomValidator {
	v := validator.New()
	_ = v.RegisterValidation("account_id", validateAccountID)
	return &CustomValidator{validator: v}
}

func validateAccountID(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	return id != "" && len(id) <= account.MaxIDLength && !strings.ContainsAny(id, " \t\r\n")
}

// Validate はリクエストのバリデーションを実行する
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	return echo.NewHTTPError(http.StatusBadRequest, "入力値が不正です: "+strings.Join(msgs, ", "))
}
