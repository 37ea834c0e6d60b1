package models

import (
	"fmt"
	"strings"
	"time"
)

// Activity ユーザーの日常活動1件
type Activity struct {
	ID          *int64     `json:"id"`
	UserID      *int64     `json:"user_id"`
	Date        *Date      `json:"date"`
	StartTime   *TimeOfDay `json:"start_time"`
	EndTime     *TimeOfDay `json:"end_time"`
	Title       *string    `json:"title"`
	Contents    *string    `json:"contents"`
	Category    *string    `json:"category"`
	CategorySub *string    `json:"category_sub"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// Validate 活動データの妥当性検証
func (a Activity) Validate() error {
	if a.Title != nil && strings.TrimSpace(*a.Title) == "" {
		return NewValidationError("title", "活動タイトルは必須です")
	}
	if a.StartTime != nil && a.EndTime != nil && *a.StartTime >= *a.EndTime {
		return NewValidationError("start_time", "開始時刻は終了時刻より前である必要があります (%s >= %s)", a.StartTime, a.EndTime)
	}
	return nil
}

// DurationMinutes 活動時間（分）。開始・終了の両方がある場合のみ ok=true
func (a Activity) DurationMinutes() (int, bool) {
	if a.StartTime == nil || a.EndTime == nil {
		return 0, false
	}
	return int(*a.EndTime - *a.StartTime), true
}

// TimeRangeString 時間範囲の表示文字列
func (a Activity) TimeRangeString() string {
	switch {
	case a.StartTime != nil && a.EndTime != nil:
		return fmt.Sprintf("%s-%s", a.StartTime, a.EndTime)
	case a.StartTime != nil:
		return fmt.Sprintf("%s-", a.StartTime)
	default:
		return "時間不明"
	}
}

// ToMap キー・バリュー形式に変換
func (a Activity) ToMap() map[string]any {
	return map[string]any{
		"id":           optInt64(a.ID),
		"user_id":      optInt64(a.UserID),
		"date":         optDate(a.Date),
		"start_time":   optTime(a.StartTime),
		"end_time":     optTime(a.EndTime),
		"title":        optString(a.Title),
		"contents":     optString(a.Contents),
		"category":     optString(a.Category),
		"category_sub": optString(a.CategorySub),
		"created_at":   optTimestamp(a.CreatedAt),
		"updated_at":   optTimestamp(a.UpdatedAt),
	}
}

// ActivityFromMap キー・バリュー形式からActivityを生成
func ActivityFromMap(data map[string]any) (Activity, error) {
	var a Activity
	var errs [11]error
	a.ID, errs[0] = kvInt64(data, "id")
	a.UserID, errs[1] = kvInt64(data, "user_id")
	a.Date, errs[2] = kvDate(data, "date")
	a.StartTime, errs[3] = kvTime(data, "start_time")
	a.EndTime, errs[4] = kvTime(data, "end_time")
	a.Title, errs[5] = kvString(data, "title")
	a.Contents, errs[6] = kvString(data, "contents")
	a.Category, errs[7] = kvString(data, "category")
	a.CategorySub, errs[8] = kvString(data, "category_sub")
	a.CreatedAt, errs[9] = kvTimestamp(data, "created_at")
	a.UpdatedAt, errs[10] = kvTimestamp(data, "updated_at")
	if err := firstErr(errs[:]...); err != nil {
		return Activity{}, err
	}
	return a, nil
}
