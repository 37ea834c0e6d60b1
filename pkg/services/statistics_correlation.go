package services

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"life-reflection-api/pkg/models"
)

const (
	// MinCorrelationDays は相関分析に必要なムード記録の日数です。
	MinCorrelationDays = 5

	totalFactor       = "合計時間"
	uncategorized     = "未分類"
	significanceLevel = 0.05
)

var weekdayLabels = [...]string{"日曜日", "月曜日", "火曜日", "水曜日", "木曜日", "金曜日", "土曜日"}

// AnalyzeMoodCorrelations はカテゴリ別の活動時間（分）と日次ムードの相関を計算します。
// 当日の活動(lag 0)と前日の活動(lag 1)の両方を調べ、p値はBenjamini-Hochberg法で補正します。
// 分散が0の系列は結果に含めません。
func AnalyzeMoodCorrelations(activities []models.Activity, moods []models.DailyMood) (*models.MoodCorrelationReport, error) {
	moodByDate := make(map[string]float64)
	var days []models.Date
	for _, m := range moods {
		if m.Date == nil || m.Mood == nil {
			continue
		}
		key := m.Date.String()
		if _, dup := moodByDate[key]; !dup {
			days = append(days, *m.Date)
		}
		moodByDate[key] = float64(*m.Mood)
	}
	if len(days) < MinCorrelationDays {
		return nil, models.NewValidationError("moods",
			"相関分析には最低%d日分のムードデータが必要です (got %d)", MinCorrelationDays, len(days))
	}
	slices.SortFunc(days, models.Date.Compare)

	// 日付 -> カテゴリ -> 分
	minutes := make(map[string]map[string]float64)
	factors := []string{totalFactor}
	for _, a := range activities {
		if a.Date == nil {
			continue
		}
		d, ok := a.DurationMinutes()
		if !ok {
			continue
		}
		category := uncategorized
		if a.Category != nil && *a.Category != "" {
			category = *a.Category
		}
		if !slices.Contains(factors, category) {
			factors = append(factors, category)
		}
		day := minutes[a.Date.String()]
		if day == nil {
			day = make(map[string]float64)
			minutes[a.Date.String()] = day
		}
		day[category] += float64(d)
		day[totalFactor] += float64(d)
	}

	var results []models.CorrelationResult
	for _, factor := range factors {
		for lag := 0; lag <= 1; lag++ {
			var xs, ys []float64
			for _, d := range days {
				src := d.AddDays(-lag).String()
				if _, recorded := moodByDate[src]; !recorded {
					continue
				}
				xs = append(xs, minutes[src][factor])
				ys = append(ys, moodByDate[d.String()])
			}
			if len(xs) < MinCorrelationDays {
				continue
			}
			r, err := pearson(xs, ys)
			if err != nil {
				continue
			}
			results = append(results, models.CorrelationResult{
				Factor:          factor,
				Lag:             lag,
				Days:            len(xs),
				CorrelationCoef: r,
				PValue:          correlationPValue(r, len(xs)),
				AverageMinutes:  round2(calculateMean(xs)),
			})
		}
	}

	pvals := make([]float64, len(results))
	for i, r := range results {
		pvals[i] = r.PValue
	}
	for i, adj := range adjustPValuesBH(pvals) {
		results[i].AdjustedPValue = adj
		results[i].Interpretation = interpretCorrelation(results[i])
	}
	slices.SortStableFunc(results, func(a, b models.CorrelationResult) int {
		return cmp.Compare(math.Abs(b.CorrelationCoef), math.Abs(a.CorrelationCoef))
	})

	scores := make([]float64, len(days))
	for i, d := range days {
		scores[i] = moodByDate[d.String()]
	}
	if results == nil {
		results = []models.CorrelationResult{}
	}
	return &models.MoodCorrelationReport{
		DateFrom:     days[0].String(),
		DateTo:       days[len(days)-1].String(),
		Days:         len(days),
		MoodMean:     round2(calculateMean(scores)),
		MoodStdDev:   round2(calculateStandardDeviation(scores)),
		Correlations: results,
		Weekdays:     weekdayMoods(days, moodByDate),
	}, nil
}

// weekdayMoods 月曜始まりで記録のある曜日のみ返す
func weekdayMoods(days []models.Date, moodByDate map[string]float64) []models.WeekdayMood {
	var sums [7]float64
	var counts [7]int
	for _, d := range days {
		wd := d.Weekday()
		sums[wd] += moodByDate[d.String()]
		counts[wd]++
	}
	out := []models.WeekdayMood{}
	for i := 1; i <= 7; i++ {
		wd := time.Weekday(i % 7)
		if counts[wd] == 0 {
			continue
		}
		out = append(out, models.WeekdayMood{
			Weekday: weekdayLabels[wd],
			Days:    counts[wd],
			Average: round2(sums[wd] / float64(counts[wd])),
		})
	}
	return out
}

// interpretCorrelation 相関係数を人間が読める形で解釈
func interpretCorrelation(r models.CorrelationResult) string {
	abs := math.Abs(r.CorrelationCoef)
	var strength string
	switch {
	case abs >= 0.7:
		strength = "強い"
	case abs >= 0.4:
		strength = "中程度の"
	case abs >= 0.2:
		strength = "弱い"
	default:
		strength = "ほぼ無い"
	}

	direction := "正の"
	if r.CorrelationCoef < 0 {
		direction = "負の"
	}

	subject := "当日の" + r.Factor
	if r.Lag > 0 {
		subject = "前日の" + r.Factor
	}

	significance := "統計的に有意ではない"
	if r.AdjustedPValue < significanceLevel {
		significance = "統計的に有意"
	}
	return fmt.Sprintf("%sとムードに%s%s相関（%s）", subject, strength, direction, significance)
}
