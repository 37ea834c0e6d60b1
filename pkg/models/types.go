package models

import "time"

// DateRange 活動データの日付範囲。データがない場合はnil。
type DateRange struct {
	Start *string `json:"start"`
	End   *string `json:"end"`
}

// MoodSummary ストア全体のムード集計
type MoodSummary struct {
	Average float64 `json:"average"` // 小数点以下2桁、データなしは0
	Minimum *int    `json:"minimum"`
	Maximum *int    `json:"maximum"`
}

// StoreStatistics レコードストアの統計情報
type StoreStatistics struct {
	TotalActivities int         `json:"total_activities"`
	TotalMoods      int         `json:"total_moods"`
	DateRange       DateRange   `json:"date_range"`
	MoodStatistics  MoodSummary `json:"mood_statistics"`
}

// AnalysisRecord 保存済みの分析結果
type AnalysisRecord struct {
	ID       string         `json:"id"`
	Provider string         `json:"provider"`
	Result   AnalysisResult `json:"result"`
}

// ImportSummary スプレッドシート取り込み結果
type ImportSummary struct {
	ActivitiesImported int      `json:"activities_imported"`
	MoodsImported      int      `json:"moods_imported"`
	SkippedRows        []string `json:"skipped_rows,omitempty"` // "シート名!行番号: 理由"
}

// RegenerateSummary サンプルデータ再生成結果
type RegenerateSummary struct {
	ActivitiesCreated int       `json:"activities_created"`
	MoodsCreated      int       `json:"moods_created"`
	StartDate         string    `json:"start_date"`
	EndDate           string    `json:"end_date"`
	Seed              int64     `json:"seed"`
	GeneratedAt       time.Time `json:"generated_at"`
}
