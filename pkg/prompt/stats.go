package prompt

import "life-reflection-api/pkg/models"

// MoodBucket ムード値1つ分の分布
type MoodBucket struct {
	Value      int     `json:"value"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// MoodStatistics 日次ムードの基本統計量
type MoodStatistics struct {
	Average      float64      `json:"average"`
	Max          int          `json:"max"`
	MaxCount     int          `json:"max_count"`
	Min          int          `json:"min"`
	MinCount     int          `json:"min_count"`
	Total        int          `json:"total"`
	Distribution []MoodBucket `json:"distribution"` // 1〜5の順
}

// ComputeMoodStatistics 値が記録されているムードのみを対象に統計を計算する。
// 対象が0件の場合は ok=false。
func ComputeMoodStatistics(moods []models.DailyMood) (MoodStatistics, bool) {
	var counts [models.MaxMood + 1]int
	var sum, total int
	stats := MoodStatistics{}

	for _, m := range moods {
		if m.Mood == nil {
			continue
		}
		v := *m.Mood
		if total == 0 || v > stats.Max {
			stats.Max = v
		}
		if total == 0 || v < stats.Min {
			stats.Min = v
		}
		if v >= models.MinMood && v <= models.MaxMood {
			counts[v]++
		}
		sum += v
		total++
	}
	if total == 0 {
		return MoodStatistics{}, false
	}

	stats.Total = total
	stats.Average = float64(sum) / float64(total)
	for _, m := range moods {
		if m.Mood == nil {
			continue
		}
		if *m.Mood == stats.Max {
			stats.MaxCount++
		}
		if *m.Mood == stats.Min {
			stats.MinCount++
		}
	}

	stats.Distribution = make([]MoodBucket, 0, models.MaxMood)
	for v := models.MinMood; v <= models.MaxMood; v++ {
		stats.Distribution = append(stats.Distribution, MoodBucket{
			Value:      v,
			Count:      counts[v],
			Percentage: float64(counts[v]) / float64(total) * 100,
		})
	}
	return stats, true
}
