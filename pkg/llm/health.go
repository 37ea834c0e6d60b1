package llm

import (
	"context"
	"time"

	"life-reflection-api/pkg/models"
)

const (
	healthProbePrompt     = "こんにちは"
	healthProbeMaxTokens  = 10
	healthResponsePreview = 50
)

// HealthStatus テキスト生成APIの接続状態
type HealthStatus struct {
	Status       string    `json:"status"` // healthy / error
	Provider     string    `json:"provider"`
	Reachable    bool      `json:"reachable"`
	APIKeyValid  bool      `json:"api_key_valid"`
	TestResponse *string   `json:"test_response,omitempty"`
	Error        string    `json:"error,omitempty"`
	FailureKind  string    `json:"failure_kind,omitempty"`
	CheckedAt    time.Time `json:"checked_at"`
}

// Healthy 正常かどうか
func (h HealthStatus) Healthy() bool {
	return h.Status == "healthy"
}

// HealthCheck 最小のプローブ呼び出しを1回だけ行う（リトライなし）
func HealthCheck(ctx context.Context, gen Generator) HealthStatus {
	status := HealthStatus{Provider: gen.Name(), CheckedAt: time.Now()}

	params := DefaultGenerationParams()
	params.MaxOutputTokens = healthProbeMaxTokens

	resp, err := gen.Generate(ctx, healthProbePrompt, params)
	if err != nil {
		kind := Classify(err)
		status.Status = "error"
		status.Error = err.Error()
		status.FailureKind = string(kind)
		// ネットワーク不通ならキーの有効性は判定できない
		status.Reachable = kind != models.FailureNetwork
		status.APIKeyValid = status.Reachable && kind != models.FailureAuth
		return status
	}

	status.Status = "healthy"
	status.Reachable = true
	status.APIKeyValid = true
	if text, textErr := resp.PlainText(); textErr == nil {
		preview := truncateRunes(text, healthResponsePreview)
		status.TestResponse = &preview
	}
	return status
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
