// Package llm はテキスト生成サービスとの境界。プロバイダーごとの応答を
// Response に一度だけ正規化し、呼び出し側が構造を探索しなくて済むようにする。
package llm

import (
	"context"
	"errors"
	"strings"
)

// Generator プロンプトからテキストを生成する外部サービス
type Generator interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (*Response, error)
	Name() string
}

// GenerationParams 生成設定
type GenerationParams struct {
	Temperature     float32 `json:"temperature" yaml:"temperature"`             // 創造性 0〜1
	MaxOutputTokens int32   `json:"max_output_tokens" yaml:"max_output_tokens"` // 最大出力トークン数
	TopP            float32 `json:"top_p" yaml:"top_p"`
	TopK            int32   `json:"top_k" yaml:"top_k"`
}

// DefaultGenerationParams 既定の生成設定
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		Temperature:     0.7,
		MaxOutputTokens: 1000,
		TopP:            0.9,
		TopK:            40,
	}
}

// HarmCategory モデレーション対象のカテゴリ
type HarmCategory string

const (
	HarmHateSpeech       HarmCategory = "hate_speech"
	HarmDangerousContent HarmCategory = "dangerous_content"
	HarmSexualContent    HarmCategory = "sexual_content"
	HarmHarassment       HarmCategory = "harassment"
)

// BlockedCategories 中程度以上をブロックするカテゴリ
var BlockedCategories = []HarmCategory{
	HarmHateSpeech,
	HarmDangerousContent,
	HarmSexualContent,
	HarmHarassment,
}

// Candidate 候補応答
type Candidate struct {
	Parts        []string `json:"parts"`
	FinishReason string   `json:"finish_reason,omitempty"`
}

// TokenUsage トークン使用量。プロバイダーが返さない値はnil。
type TokenUsage struct {
	PromptTokens     *int `json:"prompt_tokens,omitempty"`
	CandidatesTokens *int `json:"candidates_tokens,omitempty"`
	TotalTokens      *int `json:"total_tokens,omitempty"`
}

// Response 正規化済みの生成結果
type Response struct {
	Text       string      `json:"text"`
	Candidates []Candidate `json:"candidates,omitempty"`
	Usage      *TokenUsage `json:"usage,omitempty"`
}

// ErrNoText 応答からテキストが見つからない
var ErrNoText = errors.New("レスポンスから分析テキストを抽出できませんでした")

// PlainText 主テキスト、なければ先頭候補の先頭パートからテキストを取り出す
func (r *Response) PlainText() (string, error) {
	if r == nil {
		return "", ErrNoText
	}
	if t := strings.TrimSpace(r.Text); t != "" {
		return t, nil
	}
	if len(r.Candidates) > 0 && len(r.Candidates[0].Parts) > 0 {
		if t := strings.TrimSpace(r.Candidates[0].Parts[0]); t != "" {
			return t, nil
		}
	}
	return "", ErrNoText
}

// TotalTokens 合計トークン数。合計がなければ入力+出力から算出する。
func (r *Response) TotalTokens() (int, bool) {
	if r == nil || r.Usage == nil {
		return 0, false
	}
	if r.Usage.TotalTokens != nil {
		return *r.Usage.TotalTokens, true
	}
	if r.Usage.PromptTokens != nil && r.Usage.CandidatesTokens != nil {
		return *r.Usage.PromptTokens + *r.Usage.CandidatesTokens, true
	}
	return 0, false
}

func intPtr(v int) *int {
	return &v
}
