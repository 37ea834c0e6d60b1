package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"life-reflection-api/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudentTCDF(t *testing.T) {
	// df=1 はコーシー分布、df=2 は閉形式 0.5 + t/(2*sqrt(2+t^2))
	assert.InDelta(t, 0.5, studentTCDF(0, 5), 1e-12)
	assert.InDelta(t, 0.75, studentTCDF(1, 1), 1e-9)
	assert.InDelta(t, 0.908248, studentTCDF(2, 2), 1e-6)
	assert.InDelta(t, 0.091752, studentTCDF(-2, 2), 1e-6)
}

func TestCorrelationPValue(t *testing.T) {
	assert.Equal(t, 1.0, correlationPValue(0.9, 2))
	assert.InDelta(t, 1.0, correlationPValue(0, 10), 1e-9)
	assert.Equal(t, 0.0, correlationPValue(1, 10))
	assert.Less(t, correlationPValue(0.9, 20), 0.001)
}

func TestAdjustPValuesBH(t *testing.T) {
	adj := adjustPValuesBH([]float64{0.01, 0.04, 0.03})
	require.Len(t, adj, 3)
	assert.InDelta(t, 0.03, adj[0], 1e-12)
	assert.InDelta(t, 0.04, adj[1], 1e-12)
	assert.InDelta(t, 0.04, adj[2], 1e-12)

	assert.Empty(t, adjustPValuesBH(nil))
}

func TestPearson(t *testing.T) {
	r, err := pearson([]float64{1, 2, 3}, []float64{2, 4, 6})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r, 1e-12)

	_, err = pearson([]float64{1, 1, 1}, []float64{1, 2, 3})
	assert.ErrorIs(t, err, errConstantSeries)

	_, err = pearson([]float64{1}, []float64{1, 2})
	assert.Error(t, err)
}

// correlationFixture は運動時間がムードに比例し、仕事時間が反比例する6日分のデータです。
func correlationFixture() ([]models.Activity, []models.DailyMood) {
	scores := []int{1, 2, 3, 4, 5, 3}
	var activities []models.Activity
	var moods []models.DailyMood
	for i, score := range scores {
		date := models.NewDate(2024, 1, 1+i) // 月曜始まり
		moods = append(moods, models.DailyMood{Date: models.Ptr(date), Mood: models.Ptr(score)})
		activities = append(activities,
			models.Activity{
				Date:      models.Ptr(date),
				StartTime: models.Ptr(models.NewTimeOfDay(7, 0)),
				EndTime:   models.Ptr(models.NewTimeOfDay(7, score*30)),
				Title:     models.Ptr("ランニング"),
				Category:  models.Ptr("運動"),
			},
			models.Activity{
				Date:      models.Ptr(date),
				StartTime: models.Ptr(models.NewTimeOfDay(10, 0)),
				EndTime:   models.Ptr(models.NewTimeOfDay(10+6-score, 0)),
				Title:     models.Ptr("作業"),
				Category:  models.Ptr("仕事"),
			},
		)
	}
	// 時刻のない活動は集計対象外
	activities = append(activities, models.Activity{Date: models.Ptr(models.NewDate(2024, 1, 2)), Title: models.Ptr("散歩")})
	return activities, moods
}

func findCorrelation(t *testing.T, results []models.CorrelationResult, factor string, lag int) models.CorrelationResult {
	t.Helper()
	for _, r := range results {
		if r.Factor == factor && r.Lag == lag {
			return r
		}
	}
	require.Failf(t, "correlation not found", "%s lag=%d", factor, lag)
	return models.CorrelationResult{}
}

func TestAnalyzeMoodCorrelations(t *testing.T) {
	activities, moods := correlationFixture()

	report, err := AnalyzeMoodCorrelations(activities, moods)
	require.NoError(t, err)

	assert.Equal(t, "2024-01-01", report.DateFrom)
	assert.Equal(t, "2024-01-06", report.DateTo)
	assert.Equal(t, 6, report.Days)
	assert.InDelta(t, 3.0, report.MoodMean, 1e-9)
	assert.InDelta(t, 1.29, report.MoodStdDev, 1e-9)

	exercise := findCorrelation(t, report.Correlations, "運動", 0)
	assert.InDelta(t, 1.0, exercise.CorrelationCoef, 1e-9)
	assert.InDelta(t, 0.0, exercise.PValue, 1e-6)
	assert.Equal(t, 6, exercise.Days)
	assert.InDelta(t, 90.0, exercise.AverageMinutes, 1e-9)
	assert.Equal(t, "当日の運動とムードに強い正の相関（統計的に有意）", exercise.Interpretation)

	work := findCorrelation(t, report.Correlations, "仕事", 0)
	assert.InDelta(t, -1.0, work.CorrelationCoef, 1e-9)
	assert.Contains(t, work.Interpretation, "負の")

	lagged := findCorrelation(t, report.Correlations, "運動", 1)
	assert.Equal(t, 5, lagged.Days)
	assert.Contains(t, lagged.Interpretation, "前日の運動")
	assert.GreaterOrEqual(t, lagged.AdjustedPValue, lagged.PValue)

	findCorrelation(t, report.Correlations, "合計時間", 0)
	for i := 1; i < len(report.Correlations); i++ {
		prev, cur := report.Correlations[i-1].CorrelationCoef, report.Correlations[i].CorrelationCoef
		assert.GreaterOrEqual(t, abs(prev), abs(cur), "相関の強い順")
	}

	require.Len(t, report.Weekdays, 6)
	assert.Equal(t, models.WeekdayMood{Weekday: "月曜日", Days: 1, Average: 1}, report.Weekdays[0])
	assert.Equal(t, models.WeekdayMood{Weekday: "土曜日", Days: 1, Average: 3}, report.Weekdays[5])
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func TestAnalyzeMoodCorrelationsRequiresEnoughDays(t *testing.T) {
	activities, moods := correlationFixture()
	moods = moods[:4]
	moods = append(moods, models.DailyMood{Date: models.Ptr(models.NewDate(2024, 1, 9))}) // ムード値なし

	_, err := AnalyzeMoodCorrelations(activities, moods)
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, "moods", verr.Field)
}

func TestAnalyzeMoodCorrelationsWithoutActivities(t *testing.T) {
	_, moods := correlationFixture()

	report, err := AnalyzeMoodCorrelations(nil, moods)
	require.NoError(t, err)
	assert.NotNil(t, report.Correlations)
	assert.Empty(t, report.Correlations)
}

type fakeStatisticsStore struct {
	activities []models.Activity
	moods      []models.DailyMood
	err        error
	from, to   *string
}

func (f *fakeStatisticsStore) GetActivitiesByDateRange(_ context.Context, from, to *string) ([]models.Activity, error) {
	f.from, f.to = from, to
	return f.activities, f.err
}

func (f *fakeStatisticsStore) GetDailyMoods(context.Context, *string, *string) ([]models.DailyMood, error) {
	return f.moods, nil
}

func TestStatisticsServiceMoodCorrelations(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	activities, moods := correlationFixture()
	st := &fakeStatisticsStore{activities: activities, moods: moods}
	svc := NewStatisticsService(st, logger)

	from := "2024-01-01"
	report, err := svc.MoodCorrelations(context.Background(), &from, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, report.Days)
	assert.Equal(t, &from, st.from)
	assert.Nil(t, st.to)

	st.err = errors.New("disk I/O error")
	_, err = svc.MoodCorrelations(context.Background(), nil, nil)
	assert.ErrorContains(t, err, "disk I/O error")
}
