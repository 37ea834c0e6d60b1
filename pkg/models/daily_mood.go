package models

import "time"

const (
	MinMood = 1
	MaxMood = 5
)

var moodEmojis = map[int]string{
	1: "😫",
	2: "😞",
	3: "😐",
	4: "😊",
	5: "😄",
}

var moodDescriptions = map[int]string{
	1: "とても悪い",
	2: "悪い",
	3: "普通",
	4: "良い",
	5: "とても良い",
}

// DailyMood 1日1件のムード記録
type DailyMood struct {
	ID        *int64     `json:"id"`
	Date      *Date      `json:"date"`
	Mood      *int       `json:"mood"`
	Note      *string    `json:"note"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// Validate ムードデータの妥当性検証
func (m DailyMood) Validate() error {
	if m.Mood != nil && (*m.Mood < MinMood || *m.Mood > MaxMood) {
		return NewValidationError("mood", "気分値は1-5の範囲で入力してください (got %d)", *m.Mood)
	}
	if m.Date == nil {
		return NewValidationError("date", "日付は必須です")
	}
	return nil
}

// Emoji ムード値に対応する絵文字
func (m DailyMood) Emoji() string {
	if m.Mood == nil {
		return "❓"
	}
	if e, ok := moodEmojis[*m.Mood]; ok {
		return e
	}
	return "❓"
}

// Description ムード値の説明
func (m DailyMood) Description() string {
	if m.Mood == nil {
		return "未記録"
	}
	if d, ok := moodDescriptions[*m.Mood]; ok {
		return d
	}
	return "不明"
}

// ToMap キー・バリュー形式に変換
func (m DailyMood) ToMap() map[string]any {
	var mood any
	if m.Mood != nil {
		mood = *m.Mood
	}
	return map[string]any{
		"id":         optInt64(m.ID),
		"date":       optDate(m.Date),
		"mood":       mood,
		"note":       optString(m.Note),
		"created_at": optTimestamp(m.CreatedAt),
		"updated_at": optTimestamp(m.UpdatedAt),
	}
}

// DailyMoodFromMap キー・バリュー形式からDailyMoodを生成
func DailyMoodFromMap(data map[string]any) (DailyMood, error) {
	var m DailyMood
	var errs [6]error
	var mood *int64
	m.ID, errs[0] = kvInt64(data, "id")
	m.Date, errs[1] = kvDate(data, "date")
	mood, errs[2] = kvInt64(data, "mood")
	m.Note, errs[3] = kvString(data, "note")
	m.CreatedAt, errs[4] = kvTimestamp(data, "created_at")
	m.UpdatedAt, errs[5] = kvTimestamp(data, "updated_at")
	if err := firstErr(errs[:]...); err != nil {
		return DailyMood{}, err
	}
	if mood != nil {
		m.Mood = Ptr(int(*mood))
	}
	return m, nil
}
