// Package app はストア、LLMクライアント、サービス、ハンドラを組み立てます。
// cmd/serverとサーバーレスのエントリポイント(api/)の双方から利用されます。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	config "life-reflection-api/configs"
	"life-reflection-api/pkg/handlers"
	"life-reflection-api/pkg/llm"
	"life-reflection-api/pkg/services"
	"life-reflection-api/pkg/store"

	"github.com/gin-gonic/gin"
)

// Application はサーバーを構成するコンポーネント一式です。
type Application struct {
	Config    *config.Config
	Router    *gin.Engine
	Scheduler *services.Scheduler

	logger     *slog.Logger
	store      *store.SQLiteStore
	generator  llm.Generator
	sampleData *services.SampleDataService
}

// Bootstrap は設定を検証し、生成設定とLLMクライアントを読み込んでApplicationを構築します。
func Bootstrap(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	settings, err := config.LoadGenerationSettings(cfg.GenerationConfigPath)
	if err != nil {
		return nil, err
	}
	gen, err := NewGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg, settings, gen, logger)
}

// NewGenerator はLLM_PROVIDERに応じたテキスト生成クライアントを作成します。
func NewGenerator(ctx context.Context, cfg *config.Config) (llm.Generator, error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		return llm.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case config.ProviderOpenAI:
		return llm.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	default:
		return nil, fmt.Errorf("未対応のLLM_PROVIDERです: %q", cfg.LLMProvider)
	}
}

// New はストア、サービス、ハンドラを初期化してルーターを構築します。
func New(ctx context.Context, cfg *config.Config, settings *config.GenerationSettings, gen llm.Generator, logger *slog.Logger) (*Application, error) {
	st, err := store.NewSQLiteStore(ctx, cfg.DBPath, logger.With(slog.String("component", "store")))
	if err != nil {
		return nil, err
	}

	// サービスの初期化
	retrier := llm.NewRetrier(settings.Retry.MaxAttempts, logger.With(slog.String("component", "retrier")))
	analysisService := services.NewAnalysisService(gen, logger.With(slog.String("component", "analysis")),
		services.WithGenerationParams(settings.Generation),
		services.WithRetrier(retrier),
	)
	sampleData := services.NewSampleDataService(st, cfg.SampleDataDays, cfg.SampleDataSeed, logger.With(slog.String("component", "sample_data")))
	spreadsheet := services.NewSpreadsheetService(st, logger.With(slog.String("component", "spreadsheet")))
	statistics := services.NewStatisticsService(st, logger.With(slog.String("component", "statistics")))
	monitoringService := services.NewMonitoringService(logger.With(slog.String("component", "http")))

	// ハンドラーの初期化
	router := handlers.NewRouter(handlers.RouterDeps{
		APIKey:     cfg.APIKey,
		Analysis:   handlers.NewAnalysisHandler(analysisService, st, logger),
		Data:       handlers.NewDataHandler(st, sampleData, spreadsheet, logger),
		Insights:   handlers.NewInsightsHandler(statistics, logger),
		Admin:      handlers.NewAdminHandler(cfg, logger),
		Monitoring: monitoringService,
	})

	return &Application{
		Config:     cfg,
		Router:     router,
		Scheduler:  services.NewScheduler(logger.With(slog.String("component", "scheduler"))),
		logger:     logger,
		store:      st,
		generator:  gen,
		sampleData: sampleData,
	}, nil
}

// Provider は使用中のテキスト生成クライアント名です。
func (a *Application) Provider() string {
	return a.generator.Name()
}

// Start はサンプルデータの投入と定期ジョブの登録を行います。
// サンプルデータは活動とムードが空のストアにのみ投入し、既存データは残します。
func (a *Application) Start(ctx context.Context) error {
	if a.Config.SampleData {
		summary, seeded, err := a.sampleData.SeedIfEmpty(ctx)
		if err != nil {
			return fmt.Errorf("サンプルデータの初期化に失敗しました: %w", err)
		}
		stats, err := a.store.GetStatistics(ctx)
		if err != nil {
			return err
		}
		attrs := []any{
			slog.Bool("seeded", seeded),
			slog.Int("activities", stats.TotalActivities),
			slog.Int("moods", stats.TotalMoods),
		}
		if seeded {
			attrs = append(attrs, slog.String("from", summary.StartDate), slog.String("to", summary.EndDate))
		}
		a.logger.Info("データベース統計", attrs...)
	}

	if a.Config.SampleDataCron != "" {
		if _, err := a.Scheduler.ScheduleRegeneration(a.Config.SampleDataCron, a.sampleData); err != nil {
			return err
		}
	}
	a.Scheduler.Start()
	return nil
}

// Close はストアとテキスト生成クライアントを閉じます。
func (a *Application) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("データベースのクローズに失敗しました", slog.Any("error", err))
	}
	if closer, ok := a.generator.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.logger.Warn("テキスト生成クライアントのクローズに失敗しました", slog.Any("error", err))
		}
	}
}
