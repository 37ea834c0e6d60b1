package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"life-reflection-api/pkg/models"
)

// DefaultSampleDays 既定のサンプルデータ日数
const DefaultSampleDays = 7

// SampleDataStore サンプルデータの投入先
type SampleDataStore interface {
	ReplaceAll(ctx context.Context, activities []models.Activity, moods []models.DailyMood) (int, int, error)
	GetStatistics(ctx context.Context) (models.StoreStatistics, error)
}

// SampleDataService ストアのデータをサンプルデータで入れ替える。
// HTTPとスケジューラの両方から呼ばれるため、再生成は直列に実行する。
type SampleDataService struct {
	store  SampleDataStore
	days   int
	seed   func() int64
	now    func() time.Time
	logger *slog.Logger
	mu     sync.Mutex
}

// NewSampleDataService 新しいSampleDataServiceを作成。seedが0の場合は実行ごとに時刻からシードを決める。
func NewSampleDataService(store SampleDataStore, days int, seed int64, logger *slog.Logger) *SampleDataService {
	if days <= 0 {
		days = DefaultSampleDays
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &SampleDataService{
		store:  store,
		days:   days,
		now:    time.Now,
		logger: logger,
	}
	if seed != 0 {
		s.seed = func() int64 { return seed }
	} else {
		s.seed = func() int64 { return s.now().UnixNano() }
	}
	return s
}

// SeedIfEmpty 活動とムードが1件もない場合のみサンプルデータを投入する。
// 投入した場合はtrueを返す。
func (s *SampleDataService) SeedIfEmpty(ctx context.Context) (models.RegenerateSummary, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := s.store.GetStatistics(ctx)
	if err != nil {
		return models.RegenerateSummary{}, false, fmt.Errorf("既存データの確認に失敗しました: %w", err)
	}
	if stats.TotalActivities > 0 || stats.TotalMoods > 0 {
		s.logger.InfoContext(ctx, "既存データがあるためサンプルデータを投入しません",
			slog.Int("activities", stats.TotalActivities),
			slog.Int("moods", stats.TotalMoods))
		return models.RegenerateSummary{}, false, nil
	}
	summary, err := s.regenerate(ctx)
	if err != nil {
		return models.RegenerateSummary{}, false, err
	}
	return summary, true, nil
}

// Regenerate 既存の活動・ムードを新しいサンプルデータで入れ替える
func (s *SampleDataService) Regenerate(ctx context.Context) (models.RegenerateSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regenerate(ctx)
}

func (s *SampleDataService) regenerate(ctx context.Context) (models.RegenerateSummary, error) {
	seed := s.seed()
	gen := NewSampleDataGenerator(seed, s.logger)
	gen.now = s.now
	base := models.DateOf(s.now())

	var (
		activities []models.Activity
		moods      []models.DailyMood
	)
	if s.days == DefaultSampleDays {
		activities, moods = gen.GenerateWeekData(base)
	} else {
		var err error
		activities, moods, err = gen.GenerateCustomData(SampleDataOptions{
			Days:          s.days,
			MinActivities: 4,
			MaxActivities: 9,
			BaseDate:      base,
		})
		if err != nil {
			return models.RegenerateSummary{}, err
		}
	}

	activityCount, moodCount, err := s.store.ReplaceAll(ctx, activities, moods)
	if err != nil {
		return models.RegenerateSummary{}, fmt.Errorf("サンプルデータの入れ替えに失敗しました: %w", err)
	}

	summary := models.RegenerateSummary{
		ActivitiesCreated: activityCount,
		MoodsCreated:      moodCount,
		StartDate:         base.AddDays(-(s.days - 1)).String(),
		EndDate:           base.String(),
		Seed:              seed,
		GeneratedAt:       s.now(),
	}
	s.logger.InfoContext(ctx, "サンプルデータの挿入が完了しました",
		slog.Int("activities", activityCount),
		slog.Int("moods", moodCount),
		slog.Int64("seed", seed),
	)
	return summary, nil
}
