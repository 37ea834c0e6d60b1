package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel 既定のGeminiモデル
const DefaultGeminiModel = "gemini-1.5-flash"

var geminiHarmCategories = map[HarmCategory]genai.HarmCategory{
	HarmHateSpeech:       genai.HarmCategoryHateSpeech,
	HarmDangerousContent: genai.HarmCategoryDangerousContent,
	HarmSexualContent:    genai.HarmCategorySexuallyExplicit,
	HarmHarassment:       genai.HarmCategoryHarassment,
}

// GeminiGenerator Gemini APIによるGenerator実装
type GeminiGenerator struct {
	client    *genai.Client
	modelName string
	safety    []*genai.SafetySetting
}

// NewGeminiGenerator 新しいGeminiGeneratorを作成
func NewGeminiGenerator(ctx context.Context, apiKey, modelName string) (*GeminiGenerator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("Gemini APIキーが設定されていません。環境変数GEMINI_API_KEYを設定してください")
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	safety := make([]*genai.SafetySetting, 0, len(BlockedCategories))
	for _, c := range BlockedCategories {
		safety = append(safety, &genai.SafetySetting{
			Category:  geminiHarmCategories[c],
			Threshold: genai.HarmBlockMediumAndAbove,
		})
	}

	return &GeminiGenerator{
		client:    client,
		modelName: modelName,
		safety:    safety,
	}, nil
}

func (g *GeminiGenerator) Name() string {
	return "gemini:" + g.modelName
}

// Generate Gemini APIを1回呼び出す（リトライはRetrierが担当）
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, params GenerationParams) (*Response, error) {
	genModel := g.client.GenerativeModel(g.modelName)
	genModel.SafetySettings = g.safety
	genModel.SetTemperature(params.Temperature)
	genModel.SetMaxOutputTokens(params.MaxOutputTokens)
	genModel.SetTopP(params.TopP)
	genModel.SetTopK(params.TopK)

	resp, err := genModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed (%s): %w", g.modelName, err)
	}
	return normalizeGemini(resp), nil
}

// Close はクライアントをクローズ
func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}

func normalizeGemini(resp *genai.GenerateContentResponse) *Response {
	out := &Response{}
	if resp == nil {
		return out
	}

	for _, cand := range resp.Candidates {
		if cand == nil {
			continue
		}
		c := Candidate{FinishReason: cand.FinishReason.String()}
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if text, ok := part.(genai.Text); ok {
					c.Parts = append(c.Parts, string(text))
				}
			}
		}
		out.Candidates = append(out.Candidates, c)
	}
	if len(out.Candidates) > 0 {
		out.Text = strings.Join(out.Candidates[0].Parts, "")
	}

	if u := resp.UsageMetadata; u != nil {
		out.Usage = &TokenUsage{
			PromptTokens:     intPtr(int(u.PromptTokenCount)),
			CandidatesTokens: intPtr(int(u.CandidatesTokenCount)),
		}
		if u.TotalTokenCount > 0 {
			out.Usage.TotalTokens = intPtr(int(u.TotalTokenCount))
		}
	}
	return out
}
