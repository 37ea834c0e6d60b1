package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// キー・バリュー形式（map[string]any）との相互変換ヘルパー。
// JSONデコード経由の値（float64, json.Number）も受け付ける。

func kvString(data map[string]any, key string) (*string, error) {
	v, ok := data[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, NewValidationError(key, "文字列である必要があります")
	}
	return &s, nil
}

func kvInt64(data map[string]any, key string) (*int64, error) {
	v, ok := data[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch n := v.(type) {
	case int:
		return Ptr(int64(n)), nil
	case int32:
		return Ptr(int64(n)), nil
	case int64:
		return Ptr(n), nil
	case float64:
		if n != math.Trunc(n) {
			return nil, NewValidationError(key, "整数である必要があります")
		}
		return Ptr(int64(n)), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return nil, NewValidationError(key, "整数である必要があります")
		}
		return Ptr(i), nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return nil, NewValidationError(key, "整数である必要があります")
		}
		return Ptr(i), nil
	default:
		return nil, NewValidationError(key, "整数である必要があります")
	}
}

func kvDate(data map[string]any, key string) (*Date, error) {
	s, err := kvString(data, key)
	if err != nil || s == nil || *s == "" {
		return nil, err
	}
	// ISO-8601の日時が渡された場合は日付部分のみを使う
	raw := *s
	if len(raw) > len(DateLayout) {
		raw = raw[:len(DateLayout)]
	}
	d, err := ParseDate(raw)
	if err != nil {
		return nil, NewValidationError(key, "%s", err.Error())
	}
	return &d, nil
}

func kvTime(data map[string]any, key string) (*TimeOfDay, error) {
	s, err := kvString(data, key)
	if err != nil || s == nil || *s == "" {
		return nil, err
	}
	t, err := ParseTimeOfDay(*s)
	if err != nil {
		return nil, NewValidationError(key, "%s", err.Error())
	}
	return &t, nil
}

func kvTimestamp(data map[string]any, key string) (*time.Time, error) {
	s, err := kvString(data, key)
	if err != nil || s == nil || *s == "" {
		return nil, err
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04:05.999999"} {
		if t, perr := time.Parse(layout, *s); perr == nil {
			return &t, nil
		}
	}
	return nil, NewValidationError(key, "ISO-8601形式のタイムスタンプである必要があります: %q", *s)
}

func optString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func optInt64(n *int64) any {
	if n == nil {
		return nil
	}
	return *n
}

func optDate(d *Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func optTime(t *TimeOfDay) any {
	if t == nil {
		return nil
	}
	return t.String()
}

func optTimestamp(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func describe(v any) string {
	return fmt.Sprintf("%v", v)
}
