package models

// CorrelationResult 活動カテゴリの時間量とムードの相関
type CorrelationResult struct {
	Factor          string  `json:"factor"`
	Lag             int     `json:"lag_days"` // 1なら前日の活動と当日のムード
	Days            int     `json:"days"`
	CorrelationCoef float64 `json:"correlation_coef"`
	PValue          float64 `json:"p_value"`
	AdjustedPValue  float64 `json:"adjusted_p_value"` // Benjamini-Hochberg補正
	AverageMinutes  float64 `json:"average_minutes"`
	Interpretation  string  `json:"interpretation"`
}

// WeekdayMood 曜日別の平均ムード
type WeekdayMood struct {
	Weekday string  `json:"weekday"`
	Days    int     `json:"days"`
	Average float64 `json:"average"`
}

// MoodCorrelationReport ムード相関分析の結果
type MoodCorrelationReport struct {
	DateFrom     string              `json:"date_from"`
	DateTo       string              `json:"date_to"`
	Days         int                 `json:"days"`
	MoodMean     float64             `json:"mood_mean"`
	MoodStdDev   float64             `json:"mood_std_dev"`
	Correlations []CorrelationResult `json:"correlations"`
	Weekdays     []WeekdayMood       `json:"weekdays"`
}
