package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"life-reflection-api/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	seq := 0
	s, err := NewSQLiteStore(context.Background(), ":memory:",
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func act(date, start, end, title string) models.Activity {
	d, _ := models.ParseDate(date)
	a := models.Activity{Date: &d, Title: models.Ptr(title), Category: models.Ptr("仕事")}
	if start != "" {
		st, _ := models.ParseTimeOfDay(start)
		a.StartTime = &st
	}
	if end != "" {
		et, _ := models.ParseTimeOfDay(end)
		a.EndTime = &et
	}
	return a
}

func moodOn(date string, v int) models.DailyMood {
	d, _ := models.ParseDate(date)
	return models.DailyMood{Date: &d, Mood: models.Ptr(v)}
}

func TestActivityCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.InsertActivity(ctx, act("2024-01-01", "09:00", "10:00", "会議"))
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := s.GetActivityByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "会議", *got.Title)
	assert.Equal(t, "09:00", got.StartTime.String())
	assert.Equal(t, int64(1), *got.UserID)
	require.NotNil(t, got.CreatedAt)
	assert.True(t, fixedNow.Equal(*got.CreatedAt))
	assert.Nil(t, got.Contents)

	updated := act("2024-01-02", "13:00", "14:30", "レビュー")
	updated.Contents = models.Ptr("コードレビュー")
	ok, err := s.UpdateActivity(ctx, id, updated)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err = s.GetActivityByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "レビュー", *got.Title)
	assert.Equal(t, "2024-01-02", got.Date.String())
	assert.Equal(t, "コードレビュー", *got.Contents)

	ok, err = s.UpdateActivity(ctx, 999, updated)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.DeleteActivity(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.GetActivityByID(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err = s.DeleteActivity(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestActivityQueriesAndOrdering(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	n, err := s.InsertActivitiesBatch(ctx, []models.Activity{
		act("2024-01-02", "07:00", "07:30", "朝食"),
		act("2024-01-01", "18:00", "19:00", "夕食"),
		act("2024-01-03", "09:00", "17:00", "仕事"),
		act("2024-01-01", "08:00", "09:00", "散歩"),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	all, err := s.GetAllActivities(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "仕事", *all[0].Title)
	assert.Equal(t, "散歩", *all[3].Title)

	from, to := "2024-01-01", "2024-01-02"
	ranged, err := s.GetActivitiesByDateRange(ctx, &from, &to)
	require.NoError(t, err)
	require.Len(t, ranged, 3)
	assert.Equal(t, "散歩", *ranged[0].Title)
	assert.Equal(t, "夕食", *ranged[1].Title)
	assert.Equal(t, "朝食", *ranged[2].Title)

	open, err := s.GetActivitiesByDateRange(ctx, &to, nil)
	require.NoError(t, err)
	assert.Len(t, open, 2)

	empty, err := s.InsertActivitiesBatch(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, empty)
}

func TestDailyMoods(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	n, err := s.InsertDailyMoodsBatch(ctx, []models.DailyMood{
		moodOn("2024-01-03", 2),
		moodOn("2024-01-01", 4),
		moodOn("2024-01-02", 3),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// 同じ日付は置き換え
	replacement := moodOn("2024-01-02", 5)
	replacement.Note = models.Ptr("最高の一日")
	_, err = s.InsertDailyMood(ctx, replacement)
	require.NoError(t, err)

	moods, err := s.GetDailyMoods(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, moods, 3)
	assert.Equal(t, "2024-01-01", moods[0].Date.String())
	assert.Equal(t, "2024-01-03", moods[2].Date.String())
	assert.Equal(t, 5, *moods[1].Mood)
	assert.Equal(t, "最高の一日", *moods[1].Note)

	from := "2024-01-02"
	ranged, err := s.GetDailyMoods(ctx, &from, &from)
	require.NoError(t, err)
	require.Len(t, ranged, 1)

	got, err := s.GetDailyMoodByDate(ctx, "2024-01-03")
	require.NoError(t, err)
	assert.Equal(t, 2, *got.Mood)

	_, err = s.GetDailyMoodByDate(ctx, "2023-12-31")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.InsertDailyMood(ctx, models.DailyMood{Mood: models.Ptr(3)})
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = s.InsertDailyMood(ctx, moodOn("2024-02-01", 7))
	assert.Error(t, err)
}

func TestGetStatistics(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	stats, err := s.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalActivities)
	assert.Nil(t, stats.DateRange.Start)
	assert.Zero(t, stats.MoodStatistics.Average)
	assert.Nil(t, stats.MoodStatistics.Minimum)

	_, err = s.InsertActivitiesBatch(ctx, []models.Activity{
		act("2024-01-05", "09:00", "10:00", "a"),
		act("2024-01-01", "09:00", "10:00", "b"),
	})
	require.NoError(t, err)
	_, err = s.InsertDailyMoodsBatch(ctx, []models.DailyMood{
		moodOn("2024-01-01", 4), moodOn("2024-01-02", 4), moodOn("2024-01-03", 3),
	})
	require.NoError(t, err)

	stats, err = s.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalActivities)
	assert.Equal(t, 3, stats.TotalMoods)
	assert.Equal(t, "2024-01-01", *stats.DateRange.Start)
	assert.Equal(t, "2024-01-05", *stats.DateRange.End)
	assert.Equal(t, 3.67, stats.MoodStatistics.Average)
	assert.Equal(t, 3, *stats.MoodStatistics.Minimum)
	assert.Equal(t, 4, *stats.MoodStatistics.Maximum)
}

func TestAnalysisHistory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	base := models.AnalysisResult{
		AnalysisText: "よく頑張りました",
		Parameters: models.AnalysisRequest{
			Focus:         models.FocusMood,
			DetailLevel:   models.DetailBrief,
			ResponseStyle: models.StyleCasual,
			DateFrom:      models.Ptr("2024-01-01"),
		},
		ActivityCount:    3,
		MoodCount:        2,
		ProcessingTimeMs: models.Ptr(int64(1234)),
		PromptPreview:    "あなたは...",
		CreatedAt:        fixedNow,
	}
	first, err := s.SaveAnalysisResult(ctx, "gemini:test", base)
	require.NoError(t, err)
	assert.Equal(t, "id-1", first.ID)

	later := base
	later.AnalysisText = "次の分析"
	later.TokenCount = models.Ptr(321)
	later.CreatedAt = fixedNow.Add(time.Hour)
	_, err = s.SaveAnalysisResult(ctx, "gemini:test", later)
	require.NoError(t, err)

	records, err := s.ListAnalysisResults(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "id-2", records[0].ID)
	assert.Equal(t, 321, *records[0].Result.TokenCount)
	assert.Nil(t, records[1].Result.TokenCount)

	got, err := s.GetAnalysisResult(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, base.Parameters, got.Result.Parameters)
	assert.Equal(t, int64(1234), *got.Result.ProcessingTimeMs)
	assert.True(t, fixedNow.Equal(got.Result.CreatedAt))

	_, err = s.GetAnalysisResult(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	limited, err := s.ListAnalysisResults(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.InsertActivity(ctx, act("2024-01-01", "", "", "メモ"))
	require.NoError(t, err)
	_, err = s.InsertDailyMood(ctx, moodOn("2024-01-01", 3))
	require.NoError(t, err)
	_, err = s.SaveAnalysisResult(ctx, "p", models.AnalysisResult{CreatedAt: fixedNow})
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx))

	all, err := s.GetAllActivities(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	moods, err := s.GetDailyMoods(ctx, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, moods)

	history, err := s.ListAnalysisResults(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	require.NoError(t, s.Ping(ctx))
}

func TestReplaceAll(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.InsertActivity(ctx, act("2024-01-01", "", "", "古い活動"))
	require.NoError(t, err)
	_, err = s.InsertDailyMood(ctx, moodOn("2024-01-01", 2))
	require.NoError(t, err)

	nActs, nMoods, err := s.ReplaceAll(ctx,
		[]models.Activity{
			act("2024-01-02", "09:00", "10:00", "新しい活動"),
			act("2024-01-03", "", "", "メモ"),
		},
		[]models.DailyMood{moodOn("2024-01-02", 4)},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, nActs)
	assert.Equal(t, 1, nMoods)

	all, err := s.GetAllActivities(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "新しい活動", *all[0].Title)

	// ムードの挿入に失敗した場合は削除も含めて取り消される
	_, _, err = s.ReplaceAll(ctx,
		[]models.Activity{act("2024-01-05", "", "", "失敗する入れ替え")},
		[]models.DailyMood{{Mood: models.Ptr(3)}},
	)
	require.Error(t, err)

	all, err = s.GetAllActivities(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	moods, err := s.GetDailyMoods(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, moods, 1)
	assert.Equal(t, 4, *moods[0].Mood)
}
