package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"life-reflection-api/pkg/models"
)

// GetStatistics は活動件数、活動の日付範囲、ムードの平均・最小・最大を返します。
func (s *SQLiteStore) GetStatistics(ctx context.Context) (models.StoreStatistics, error) {
	var stats models.StoreStatistics

	var minDate, maxDate sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(date), MAX(date) FROM activities`,
	).Scan(&stats.TotalActivities, &minDate, &maxDate)
	if err != nil {
		return stats, fmt.Errorf("活動統計の取得に失敗しました: %w", err)
	}
	stats.DateRange = models.DateRange{Start: stringPtr(minDate), End: stringPtr(maxDate)}

	var avg sql.NullFloat64
	var minMood, maxMood sql.NullInt64
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), AVG(mood), MIN(mood), MAX(mood) FROM daily_moods`,
	).Scan(&stats.TotalMoods, &avg, &minMood, &maxMood)
	if err != nil {
		return stats, fmt.Errorf("ムード統計の取得に失敗しました: %w", err)
	}
	if avg.Valid {
		stats.MoodStatistics.Average = math.Round(avg.Float64*100) / 100
	}
	if minMood.Valid {
		stats.MoodStatistics.Minimum = models.Ptr(int(minMood.Int64))
	}
	if maxMood.Valid {
		stats.MoodStatistics.Maximum = models.Ptr(int(maxMood.Int64))
	}
	return stats, nil
}
