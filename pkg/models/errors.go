package models

import "fmt"

// ValidationError 入力データの検証エラー。外部呼び出しの前に検出され、リトライされない。
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError ValidationErrorを作成
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// FailureKind 外部サービス失敗の分類
type FailureKind string

const (
	FailureAuth      FailureKind = "auth"
	FailureRateLimit FailureKind = "rate_limit"
	FailureNetwork   FailureKind = "network"
	FailureServer    FailureKind = "server"
	FailureResponse  FailureKind = "response"
	FailureUnknown   FailureKind = "unknown"
)

// ExternalServiceError テキスト生成サービスから有効な出力を得られなかったことを表す
type ExternalServiceError struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
	Err     error       `json:"-"`
}

func (e *ExternalServiceError) Error() string {
	return e.Message
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}
