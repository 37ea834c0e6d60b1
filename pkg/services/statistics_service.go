package services

import (
	"context"
	"fmt"
	"log/slog"

	"life-reflection-api/pkg/models"
)

// StatisticsStore は統計分析が参照するレコードです。
type StatisticsStore interface {
	GetActivitiesByDateRange(ctx context.Context, from, to *string) ([]models.Activity, error)
	GetDailyMoods(ctx context.Context, from, to *string) ([]models.DailyMood, error)
}

// StatisticsService は蓄積された活動とムードからLLMを使わない統計的な洞察を計算します。
type StatisticsService struct {
	store  StatisticsStore
	logger *slog.Logger
}

func NewStatisticsService(store StatisticsStore, logger *slog.Logger) *StatisticsService {
	return &StatisticsService{store: store, logger: logger}
}

// MoodCorrelations は指定期間のデータでAnalyzeMoodCorrelationsを実行します。
func (s *StatisticsService) MoodCorrelations(ctx context.Context, from, to *string) (*models.MoodCorrelationReport, error) {
	activities, err := s.store.GetActivitiesByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("活動データの取得に失敗: %w", err)
	}
	moods, err := s.store.GetDailyMoods(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("ムードデータの取得に失敗: %w", err)
	}

	report, err := AnalyzeMoodCorrelations(activities, moods)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "ムード相関分析完了",
		slog.Int("days", report.Days),
		slog.Int("correlations", len(report.Correlations)))
	return report, nil
}
