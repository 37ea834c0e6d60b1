package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openaigo "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	DefaultOpenAIBaseURL        = "https://api.openai.com/v1"
	DefaultOpenAIModel          = "gpt-4o-mini"
	DefaultOpenAIRequestTimeout = 75 * time.Second
)

// OpenAIGenerator OpenAI互換APIによるGenerator実装。
// top_kとモデレーション設定はChat Completions APIに対応項目がないため送信しない。
type OpenAIGenerator struct {
	client openaigo.Client
	model  string
}

// NewOpenAIGenerator 新しいOpenAIGeneratorを作成
func NewOpenAIGenerator(apiKey, baseURL, model string) (*OpenAIGenerator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OpenAI APIキーが設定されていません。環境変数OPENAI_API_KEYを設定してください")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultOpenAIModel
	}

	client := openaigo.NewClient(
		option.WithBaseURL(strings.TrimRight(strings.TrimSpace(baseURL), "/")),
		option.WithAPIKey(strings.TrimSpace(apiKey)),
		option.WithHTTPClient(&http.Client{Timeout: DefaultOpenAIRequestTimeout}),
		// リトライはRetrierで一元管理する
		option.WithMaxRetries(0),
		option.WithRequestTimeout(DefaultOpenAIRequestTimeout),
	)

	return &OpenAIGenerator{client: client, model: strings.TrimSpace(model)}, nil
}

func (g *OpenAIGenerator) Name() string {
	return "openai:" + g.model
}

// Generate Chat Completions APIを1回呼び出す
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string, params GenerationParams) (*Response, error) {
	req := openaigo.ChatCompletionNewParams{
		Model: openaigo.ChatModel(g.model),
		Messages: []openaigo.ChatCompletionMessageParamUnion{
			openaigo.UserMessage(prompt),
		},
		Temperature: openaigo.Float(float64(params.Temperature)),
		TopP:        openaigo.Float(float64(params.TopP)),
		MaxTokens:   openaigo.Int(int64(params.MaxOutputTokens)),
	}

	completion, err := g.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai API call failed (%s): %w", g.model, err)
	}
	return normalizeOpenAI(completion), nil
}

func normalizeOpenAI(completion *openaigo.ChatCompletion) *Response {
	out := &Response{}
	if completion == nil {
		return out
	}

	for _, choice := range completion.Choices {
		c := Candidate{FinishReason: choice.FinishReason}
		if choice.Message.Content != "" {
			c.Parts = []string{choice.Message.Content}
		}
		out.Candidates = append(out.Candidates, c)
	}
	if len(completion.Choices) > 0 {
		out.Text = completion.Choices[0].Message.Content
	}

	u := completion.Usage
	if u.TotalTokens > 0 || u.PromptTokens > 0 || u.CompletionTokens > 0 {
		out.Usage = &TokenUsage{
			PromptTokens:     intPtr(int(u.PromptTokens)),
			CandidatesTokens: intPtr(int(u.CompletionTokens)),
			TotalTokens:      intPtr(int(u.TotalTokens)),
		}
	}
	return out
}
