package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"life-reflection-api/pkg/llm"
	"life-reflection-api/pkg/models"
	"life-reflection-api/pkg/prompt"
)

// MaxActivities 1回の分析で受け付ける活動データの上限
const MaxActivities = 1000

// AnalysisService 活動・ムードデータからテキスト生成APIで振り返り分析を行う
type AnalysisService struct {
	generator llm.Generator
	retrier   *llm.Retrier
	params    llm.GenerationParams
	logger    *slog.Logger
	now       func() time.Time
}

// AnalysisOption AnalysisServiceの生成オプション
type AnalysisOption func(*AnalysisService)

// WithGenerationParams 生成設定を差し替える
func WithGenerationParams(p llm.GenerationParams) AnalysisOption {
	return func(s *AnalysisService) { s.params = p }
}

// WithRetrier リトライ設定を差し替える
func WithRetrier(r *llm.Retrier) AnalysisOption {
	return func(s *AnalysisService) { s.retrier = r }
}

// WithClock 処理時間と作成日時の計測に使う時計を差し替える
func WithClock(now func() time.Time) AnalysisOption {
	return func(s *AnalysisService) { s.now = now }
}

// NewAnalysisService 新しい分析サービスを作成
func NewAnalysisService(gen llm.Generator, logger *slog.Logger, opts ...AnalysisOption) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &AnalysisService{
		generator: gen,
		params:    llm.DefaultGenerationParams(),
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.retrier == nil {
		s.retrier = llm.NewRetrier(llm.DefaultMaxAttempts, logger)
	}
	return s
}

// Provider 利用中のテキスト生成プロバイダー名
func (s *AnalysisService) Provider() string {
	return s.generator.Name()
}

// Analyze 入力を検証し、プロンプトを生成してテキスト生成APIを呼び出す。
// 返すエラーは *models.ValidationError か *models.ExternalServiceError のいずれか。
func (s *AnalysisService) Analyze(ctx context.Context, activities []models.Activity, moods []models.DailyMood, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	if err := validateAnalysisInput(activities, moods, req); err != nil {
		s.logger.WarnContext(ctx, "分析リクエストが不正です", slog.Any("error", err))
		return nil, err
	}

	start := s.now()

	text := prompt.Build(activities, moods, req)
	s.logger.InfoContext(ctx, "プロンプトを生成しました", slog.Int("length", len([]rune(text))))

	s.logger.InfoContext(ctx, "テキスト生成APIによる分析を開始します", slog.String("provider", s.generator.Name()))
	resp, err := s.retrier.Do(ctx, s.generator, text, s.params)
	if err != nil {
		return nil, s.fail(ctx, start, err)
	}

	analysisText, err := resp.PlainText()
	if err != nil {
		return nil, s.fail(ctx, start, &models.ExternalServiceError{
			Kind:    models.FailureResponse,
			Message: "レスポンスの解析に失敗しました: " + err.Error(),
			Err:     err,
		})
	}

	end := s.now()
	processing := end.Sub(start).Milliseconds()

	var tokenCount *int
	if n, ok := resp.TotalTokens(); ok {
		tokenCount = &n
	} else {
		s.logger.WarnContext(ctx, "トークン数の取得に失敗しました")
	}

	result := &models.AnalysisResult{
		AnalysisText:     analysisText,
		Parameters:       req,
		ActivityCount:    len(activities),
		MoodCount:        len(moods),
		ProcessingTimeMs: &processing,
		TokenCount:       tokenCount,
		PromptPreview:    models.PromptPreview(text),
		CreatedAt:        end,
	}

	s.logger.InfoContext(ctx, "分析が完了しました",
		slog.Int64("processing_time_ms", processing),
		slog.Any("token_count", tokenCount),
	)
	return result, nil
}

// Status テキスト生成APIの接続状態（リトライなし）
func (s *AnalysisService) Status(ctx context.Context) llm.HealthStatus {
	return llm.HealthCheck(ctx, s.generator)
}

func (s *AnalysisService) fail(ctx context.Context, start time.Time, err error) error {
	processing := s.now().Sub(start).Milliseconds()
	s.logger.ErrorContext(ctx, "分析中にエラーが発生しました",
		slog.Int64("processing_time_ms", processing),
		slog.Any("error", err),
	)

	var ext *models.ExternalServiceError
	if errors.As(err, &ext) && ext.Kind == models.FailureResponse {
		return ext
	}
	return llm.ToExternalServiceError(err)
}

func validateAnalysisInput(activities []models.Activity, moods []models.DailyMood, req models.AnalysisRequest) error {
	if len(activities) == 0 {
		return models.NewValidationError("activities", "分析対象の活動データがありません")
	}
	if len(moods) == 0 {
		return models.NewValidationError("daily_moods", "分析対象の日次ムードデータがありません")
	}
	if len(activities) > MaxActivities {
		return models.NewValidationError("activities", "分析対象の活動データが多すぎます（最大%d件）", MaxActivities)
	}

	for i, a := range activities {
		if err := a.Validate(); err != nil {
			return wrapValidation(err, "activities", "活動データが不正です (%d件目)", i+1)
		}
	}
	for i, m := range moods {
		if err := m.Validate(); err != nil {
			return wrapValidation(err, "daily_moods", "日次ムードデータが不正です (%d件目)", i+1)
		}
	}
	if err := req.Validate(); err != nil {
		return wrapValidation(err, "request", "分析リクエストが不正です")
	}
	return nil
}

func wrapValidation(err error, fallbackField, format string, args ...any) error {
	field := fallbackField
	msg := err.Error()
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		if verr.Field != "" {
			field = fallbackField + "." + verr.Field
		}
		msg = verr.Message
	}
	prefix := models.NewValidationError(field, format, args...)
	prefix.Message += ": " + msg
	return prefix
}
