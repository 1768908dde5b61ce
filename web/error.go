package web

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"github.com/hatlonely/webx/record"
)

// Error 携带 HTTP 状态码的错误，处理器返回它时状态码原样透传
type Error struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%d] %s", e.Status, e.Message)
}

func NewError(status int, format string, args ...any) *Error {
	return &Error{Status: status, Message: fmt.Sprintf(format, args...)}
}

// statusOf 处理器错误到状态码的翻译规则
// 映射核心的调用方错误为 400，其余一律 500
func statusOf(err error) int {
	var webErr *Error
	if errors.As(err, &webErr) {
		return webErr.Status
	}
	switch {
	case errors.Is(err, record.ErrMissingPrimaryKey),
		errors.Is(err, record.ErrEmptyCondition),
		errors.Is(err, record.ErrInvalidOrderBy),
		errors.Is(err, record.ErrNothingToSave):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
