package models

import (
	"strings"
	"time"
)

// Focus 分析の焦点
type Focus string

const (
	FocusMood       Focus = "mood"       // 気分中心
	FocusActivities Focus = "activities" // 活動中心
	FocusBalance    Focus = "balance"    // 生活バランス
	FocusWellness   Focus = "wellness"   // ウェルネス全般
)

// DetailLevel 分析結果の詳細度
type DetailLevel string

const (
	DetailBrief    DetailLevel = "brief"
	DetailStandard DetailLevel = "standard"
	DetailDetailed DetailLevel = "detailed"
)

// ResponseStyle 応答の文体・口調
type ResponseStyle string

const (
	StyleFriendly     ResponseStyle = "friendly"
	StyleProfessional ResponseStyle = "professional"
	StyleEncouraging  ResponseStyle = "encouraging"
	StyleCasual       ResponseStyle = "casual"
)

func AllFocuses() []Focus {
	return []Focus{FocusMood, FocusActivities, FocusBalance, FocusWellness}
}

func AllDetailLevels() []DetailLevel {
	return []DetailLevel{DetailBrief, DetailStandard, DetailDetailed}
}

func AllResponseStyles() []ResponseStyle {
	return []ResponseStyle{StyleFriendly, StyleProfessional, StyleEncouraging, StyleCasual}
}

func (f Focus) Valid() bool {
	for _, v := range AllFocuses() {
		if f == v {
			return true
		}
	}
	return false
}

func (d DetailLevel) Valid() bool {
	for _, v := range AllDetailLevels() {
		if d == v {
			return true
		}
	}
	return false
}

func (s ResponseStyle) Valid() bool {
	for _, v := range AllResponseStyles() {
		if s == v {
			return true
		}
	}
	return false
}

func (f Focus) String() string         { return string(f) }
func (d DetailLevel) String() string   { return string(d) }
func (s ResponseStyle) String() string { return string(s) }

// ParseFocus 文字列タグからFocusを取得
func ParseFocus(s string) (Focus, error) {
	f := Focus(strings.TrimSpace(s))
	if !f.Valid() {
		return "", NewValidationError("focus", "Invalid analysis_focus: %s", s)
	}
	return f, nil
}

// ParseDetailLevel 文字列タグからDetailLevelを取得
func ParseDetailLevel(s string) (DetailLevel, error) {
	d := DetailLevel(strings.TrimSpace(s))
	if !d.Valid() {
		return "", NewValidationError("detail_level", "Invalid detail_level: %s", s)
	}
	return d, nil
}

// ParseResponseStyle 文字列タグからResponseStyleを取得
func ParseResponseStyle(s string) (ResponseStyle, error) {
	r := ResponseStyle(strings.TrimSpace(s))
	if !r.Valid() {
		return "", NewValidationError("response_style", "Invalid response_style: %s", s)
	}
	return r, nil
}

// AnalysisRequest 分析リクエストのパラメータ
type AnalysisRequest struct {
	Focus         Focus         `json:"analysis_focus"`
	DetailLevel   DetailLevel   `json:"detail_level"`
	ResponseStyle ResponseStyle `json:"response_style"`
	DateFrom      *string       `json:"date_from"` // YYYY-MM-DD
	DateTo        *string       `json:"date_to"`   // YYYY-MM-DD
}

// Validate 3つの列挙値がすべて有効であることを検証
func (r AnalysisRequest) Validate() error {
	if !r.Focus.Valid() {
		return NewValidationError("focus", "Invalid analysis_focus: %s", r.Focus)
	}
	if !r.DetailLevel.Valid() {
		return NewValidationError("detail_level", "Invalid detail_level: %s", r.DetailLevel)
	}
	if !r.ResponseStyle.Valid() {
		return NewValidationError("response_style", "Invalid response_style: %s", r.ResponseStyle)
	}
	bounds := []struct {
		field string
		value *string
	}{{"date_from", r.DateFrom}, {"date_to", r.DateTo}}
	for _, b := range bounds {
		if b.value == nil {
			continue
		}
		if _, err := ParseDate(*b.value); err != nil {
			return NewValidationError(b.field, "%s", err.Error())
		}
	}
	return nil
}

// ToMap キー・バリュー形式に変換
func (r AnalysisRequest) ToMap() map[string]any {
	return map[string]any{
		"analysis_focus": string(r.Focus),
		"detail_level":   string(r.DetailLevel),
		"response_style": string(r.ResponseStyle),
		"date_from":      optString(r.DateFrom),
		"date_to":        optString(r.DateTo),
	}
}

// AnalysisRequestFromMap リクエストボディ（focus, detail_level, response_style, date_from, date_to）から生成
func AnalysisRequestFromMap(data map[string]any) (AnalysisRequest, error) {
	var req AnalysisRequest

	required := func(key string) (string, error) {
		v, ok := data[key]
		if !ok || v == nil {
			return "", NewValidationError(key, "%sは必須です", key)
		}
		s, ok := v.(string)
		if !ok {
			return "", NewValidationError(key, "文字列である必要があります: %s", describe(v))
		}
		return s, nil
	}

	focus, err := required("focus")
	if err != nil {
		return req, err
	}
	if req.Focus, err = ParseFocus(focus); err != nil {
		return req, err
	}

	detail, err := required("detail_level")
	if err != nil {
		return req, err
	}
	if req.DetailLevel, err = ParseDetailLevel(detail); err != nil {
		return req, err
	}

	style, err := required("response_style")
	if err != nil {
		return req, err
	}
	if req.ResponseStyle, err = ParseResponseStyle(style); err != nil {
		return req, err
	}

	if req.DateFrom, err = kvString(data, "date_from"); err != nil {
		return req, err
	}
	if req.DateTo, err = kvString(data, "date_to"); err != nil {
		return req, err
	}
	if req.DateFrom != nil && *req.DateFrom == "" {
		req.DateFrom = nil
	}
	if req.DateTo != nil && *req.DateTo == "" {
		req.DateTo = nil
	}
	return req, req.Validate()
}

// PromptPreviewLength プロンプトプレビューの最大文字数
const PromptPreviewLength = 200

// PromptPreview 先頭200文字（超過時は "..." を付与）
func PromptPreview(prompt string) string {
	runes := []rune(prompt)
	if len(runes) <= PromptPreviewLength {
		return prompt
	}
	return string(runes[:PromptPreviewLength]) + "..."
}

// AnalysisResult 分析結果と付随メタデータ。生成後は変更しない。
type AnalysisResult struct {
	AnalysisText     string          `json:"analysis_text"`
	Parameters       AnalysisRequest `json:"parameters"`
	ActivityCount    int             `json:"activity_count"`
	MoodCount        int             `json:"mood_count"`
	ProcessingTimeMs *int64          `json:"processing_time_ms"`
	TokenCount       *int            `json:"token_count"`
	PromptPreview    string          `json:"prompt_preview"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ToMap キー・バリュー形式に変換
func (r AnalysisResult) ToMap() map[string]any {
	var tokens any
	if r.TokenCount != nil {
		tokens = *r.TokenCount
	}
	return map[string]any{
		"analysis_text":      r.AnalysisText,
		"parameters":         r.Parameters.ToMap(),
		"activity_count":     r.ActivityCount,
		"mood_count":         r.MoodCount,
		"processing_time_ms": optInt64(r.ProcessingTimeMs),
		"token_count":        tokens,
		"prompt_preview":     r.PromptPreview,
		"created_at":         r.CreatedAt.Format(time.RFC3339),
	}
}
