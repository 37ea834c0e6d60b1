package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout 日付の交換フォーマット (YYYY-MM-DD)
	DateLayout = "2006-01-02"
	// TimeLayout 時刻の交換フォーマット (HH:MM)
	TimeLayout = "15:04"
)

// Date 時刻を持たない暦日
type Date struct {
	time.Time
}

// NewDate 年月日からDateを作成
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf time.Timeの暦日部分を取り出す
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate YYYY-MM-DD形式の文字列を解析
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("日付の形式が不正です (YYYY-MM-DD): %q", s)
	}
	return Date{Time: t}, nil
}

// String YYYY-MM-DD形式
func (d Date) String() string {
	return d.Format(DateLayout)
}

// AddDays n日後の日付
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// Compare -1, 0, +1 を返す
func (d Date) Compare(other Date) int {
	switch {
	case d.Before(other.Time):
		return -1
	case d.After(other.Time):
		return 1
	default:
		return 0
	}
}

// IsWeekend 土日かどうか
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TimeOfDay 0時からの経過分で表す時刻
type TimeOfDay int

// NewTimeOfDay 時と分からTimeOfDayを作成
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay HH:MM形式の文字列を解析
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse(TimeLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("時刻の形式が不正です (HH:MM): %q", s)
	}
	return NewTimeOfDay(t.Hour(), t.Minute()), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// String HH:MM形式
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Ptr 値のポインタを返す
func Ptr[T any](v T) *T {
	return &v
}
