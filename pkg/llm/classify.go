package llm

import (
	"context"
	"errors"
	"strings"

	"life-reflection-api/pkg/models"
)

// エラーメッセージのキーワードによる分類。
// 型付きエラーコードに切り替える場合はこのファイルだけを差し替える。

var transientKeywords = []string{"rate limit", "quota", "timeout", "network", "503", "429"}

var classificationRules = []struct {
	kind     models.FailureKind
	keywords []string
}{
	{models.FailureAuth, []string{"api key", "unauthorized", "401"}},
	{models.FailureRateLimit, []string{"rate limit", "quota", "429"}},
	{models.FailureNetwork, []string{"network", "connection", "timeout"}},
	{models.FailureServer, []string{"500", "502", "503", "server error"}},
}

var failureMessages = map[models.FailureKind]string{
	models.FailureAuth:      "APIキーが無効です。テキスト生成APIのAPIキーを確認してください。",
	models.FailureRateLimit: "API利用制限に達しました。しばらく時間をおいてから再試行してください。",
	models.FailureNetwork:   "ネットワークエラーが発生しました。インターネット接続を確認してください。",
	models.FailureServer:    "テキスト生成APIサーバーエラーが発生しました。しばらく時間をおいてから再試行してください。",
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// IsTransient リトライ対象のエラーかどうか
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return containsAny(strings.ToLower(err.Error()), transientKeywords)
}

// Classify 失敗の種類を判定する
func Classify(err error) models.FailureKind {
	if err == nil {
		return models.FailureUnknown
	}
	msg := strings.ToLower(err.Error())
	for _, rule := range classificationRules {
		if containsAny(msg, rule.keywords) {
			return rule.kind
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return models.FailureNetwork
	}
	var ext *models.ExternalServiceError
	if errors.As(err, &ext) && ext.Kind != "" {
		return ext.Kind
	}
	return models.FailureUnknown
}

// ToExternalServiceError 任意のエラーを人が読めるメッセージ付きのExternalServiceErrorに変換する
func ToExternalServiceError(err error) *models.ExternalServiceError {
	kind := Classify(err)
	msg, ok := failureMessages[kind]
	if !ok {
		msg = "分析中にエラーが発生しました: " + err.Error()
	}
	return &models.ExternalServiceError{Kind: kind, Message: msg, Err: err}
}
