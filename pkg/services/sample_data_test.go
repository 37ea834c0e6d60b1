package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"life-reflection-api/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-01-08 は月曜日
var sampleBase = models.NewDate(2024, 1, 8)

func fixedNow() time.Time {
	return time.Date(2024, 1, 8, 21, 0, 0, 0, time.UTC)
}

func newTestGenerator(seed int64) *SampleDataGenerator {
	g := NewSampleDataGenerator(seed, discardLogger())
	g.now = fixedNow
	return g
}

func TestGenerateWeekData(t *testing.T) {
	activities, moods := newTestGenerator(42).GenerateWeekData(sampleBase)

	require.Len(t, moods, 7)
	for i, m := range moods {
		assert.Equal(t, sampleBase.AddDays(-i), *m.Date)
		require.NoError(t, m.Validate())
	}

	perDay := map[models.Date][]models.Activity{}
	for _, a := range activities {
		require.NoError(t, a.Validate())
		require.NotNil(t, a.StartTime)
		require.NotNil(t, a.EndTime)
		assert.Less(t, *a.StartTime, *a.EndTime)
		assert.LessOrEqual(t, *a.EndTime, lastMinuteOfDay)
		assert.Zero(t, a.StartTime.Minute())
		perDay[*a.Date] = append(perDay[*a.Date], a)
	}
	require.Len(t, perDay, 7)

	for day, list := range perDay {
		if day.IsWeekend() {
			assert.GreaterOrEqual(t, len(list), 4, day.String())
			assert.LessOrEqual(t, len(list), 7, day.String())
		} else {
			assert.GreaterOrEqual(t, len(list), 5, day.String())
			assert.LessOrEqual(t, len(list), 9, day.String())
		}
		seen := map[int]bool{}
		for i, a := range list {
			hour := a.StartTime.Hour()
			assert.False(t, seen[hour], "開始時刻が重複しない")
			seen[hour] = true
			if i > 0 {
				assert.Less(t, *list[i-1].StartTime, *a.StartTime, "開始時刻順に並ぶ")
			}
		}
	}
}

func TestGenerateWeekDataIsDeterministic(t *testing.T) {
	a1, m1 := newTestGenerator(7).GenerateWeekData(sampleBase)
	a2, m2 := newTestGenerator(7).GenerateWeekData(sampleBase)
	assert.Equal(t, a1, a2)
	assert.Equal(t, m1, m2)
}

func TestGenerateCustomData(t *testing.T) {
	activities, moods, err := newTestGenerator(1).GenerateCustomData(SampleDataOptions{
		Days:          3,
		MinActivities: 2,
		MaxActivities: 2,
		MoodBias:      2,
		BaseDate:      sampleBase,
	})
	require.NoError(t, err)
	assert.Len(t, activities, 6)
	require.Len(t, moods, 3)
	for _, m := range moods {
		assert.GreaterOrEqual(t, *m.Mood, 3, "バイアス+2で最低でも3")
	}
	assert.Equal(t, models.NewDate(2024, 1, 6), *moods[2].Date)
}

func TestGenerateCustomDataDefaultsBaseToNow(t *testing.T) {
	_, moods, err := newTestGenerator(1).GenerateCustomData(SampleDataOptions{Days: 1, MinActivities: 1, MaxActivities: 1})
	require.NoError(t, err)
	require.Len(t, moods, 1)
	assert.Equal(t, models.DateOf(fixedNow()), *moods[0].Date)
}

func TestGenerateCustomDataValidation(t *testing.T) {
	tests := []struct {
		name  string
		opts  SampleDataOptions
		field string
	}{
		{"zero days", SampleDataOptions{Days: 0, MaxActivities: 1}, "days"},
		{"inverted range", SampleDataOptions{Days: 1, MinActivities: 5, MaxActivities: 2}, "activities_per_day"},
		{"bias too high", SampleDataOptions{Days: 1, MaxActivities: 1, MoodBias: 2.5}, "mood_bias"},
		{"bias too low", SampleDataOptions{Days: 1, MaxActivities: 1, MoodBias: -3}, "mood_bias"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := newTestGenerator(1).GenerateCustomData(tt.opts)
			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestApplyMoodBias(t *testing.T) {
	tests := []struct {
		mood int
		bias float64
		want int
	}{
		{3, 0, 3},
		{3, 0.5, 4},
		{2, 0.5, 2},
		{5, 1, 5},
		{1, -2, 1},
		{4, -1.4, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ApplyMoodBias(tt.mood, tt.bias), "mood=%d bias=%.1f", tt.mood, tt.bias)
	}
}

func TestNewSampleActivityCapsEndOfDay(t *testing.T) {
	tpl := activityTemplate{Category: "趣味", CategorySub: "映画", Title: "映画鑑賞", Contents: "配信", Minutes: 120}
	a := newSampleActivity(sampleBase, 22, tpl, 15, fixedNow())
	assert.Equal(t, "23:59", a.EndTime.String())

	short := newSampleActivity(sampleBase, 9, activityTemplate{Minutes: 10}, -10, fixedNow())
	d, ok := short.DurationMinutes()
	require.True(t, ok)
	assert.Equal(t, 5, d)
}

// fakeSampleStore は入れ替えが失敗した場合に既存データを残す。
type fakeSampleStore struct {
	memoryImportStore
	replaces   int
	replaceErr error
}

func (f *fakeSampleStore) ReplaceAll(_ context.Context, activities []models.Activity, moods []models.DailyMood) (int, int, error) {
	f.replaces++
	if f.replaceErr != nil {
		return 0, 0, f.replaceErr
	}
	f.activities = append([]models.Activity(nil), activities...)
	f.moods = append([]models.DailyMood(nil), moods...)
	return len(activities), len(moods), nil
}

func (f *fakeSampleStore) GetStatistics(context.Context) (models.StoreStatistics, error) {
	return models.StoreStatistics{TotalActivities: len(f.activities), TotalMoods: len(f.moods)}, nil
}

func TestSampleDataServiceRegenerate(t *testing.T) {
	store := &fakeSampleStore{}
	store.activities = []models.Activity{{Title: models.Ptr("古いデータ")}}
	svc := NewSampleDataService(store, 0, 99, discardLogger())
	svc.now = fixedNow

	summary, err := svc.Regenerate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, store.replaces)
	assert.Equal(t, len(store.activities), summary.ActivitiesCreated)
	assert.Equal(t, 7, summary.MoodsCreated)
	assert.Equal(t, "2024-01-02", summary.StartDate)
	assert.Equal(t, "2024-01-08", summary.EndDate)
	assert.Equal(t, int64(99), summary.Seed)
	assert.Equal(t, fixedNow(), summary.GeneratedAt)
	for _, a := range store.activities {
		assert.NotEqual(t, "古いデータ", *a.Title)
	}
}

func TestSampleDataServiceCustomDays(t *testing.T) {
	store := &fakeSampleStore{}
	svc := NewSampleDataService(store, 3, 5, discardLogger())
	svc.now = fixedNow

	summary, err := svc.Regenerate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.MoodsCreated)
	assert.GreaterOrEqual(t, summary.ActivitiesCreated, 12)
	assert.Equal(t, "2024-01-06", summary.StartDate)
}

func TestSampleDataServiceTimeSeed(t *testing.T) {
	svc := NewSampleDataService(&fakeSampleStore{}, 7, 0, discardLogger())
	svc.now = fixedNow

	summary, err := svc.Regenerate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fixedNow().UnixNano(), summary.Seed)
}

func TestSampleDataServiceReplaceFailureKeepsData(t *testing.T) {
	boom := errors.New("disk full")
	store := &fakeSampleStore{replaceErr: boom}
	store.moods = []models.DailyMood{{Date: models.Ptr(sampleBase), Mood: models.Ptr(4)}}
	svc := NewSampleDataService(store, 7, 1, discardLogger())

	_, err := svc.Regenerate(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Len(t, store.moods, 1)
}

func TestSampleDataServiceSeedIfEmpty(t *testing.T) {
	store := &fakeSampleStore{}
	svc := NewSampleDataService(store, 7, 1, discardLogger())
	svc.now = fixedNow

	summary, seeded, err := svc.SeedIfEmpty(context.Background())
	require.NoError(t, err)
	assert.True(t, seeded)
	assert.Equal(t, 7, summary.MoodsCreated)
	assert.Equal(t, 1, store.replaces)

	// 2回目はデータがあるので何もしない
	_, seeded, err = svc.SeedIfEmpty(context.Background())
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.Equal(t, 1, store.replaces)
}

func TestSampleDataServiceSeedIfEmptyKeepsUserData(t *testing.T) {
	store := &fakeSampleStore{}
	store.activities = []models.Activity{{Title: models.Ptr("自分の記録")}}
	svc := NewSampleDataService(store, 7, 1, discardLogger())

	_, seeded, err := svc.SeedIfEmpty(context.Background())
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.Zero(t, store.replaces)
	require.Len(t, store.activities, 1)
	assert.Equal(t, "自分の記録", *store.activities[0].Title)
}

func TestScheduler(t *testing.T) {
	s := NewScheduler(discardLogger())
	svc := NewSampleDataService(&fakeSampleStore{}, 7, 1, discardLogger())

	_, err := s.ScheduleRegeneration("@every 1h", svc)
	require.NoError(t, err)
	_, err = s.ScheduleRegeneration("0 3 * * *", svc)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Jobs())

	_, err = s.ScheduleRegeneration("every day", svc)
	assert.Error(t, err)
	assert.Equal(t, 2, s.Jobs())

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
