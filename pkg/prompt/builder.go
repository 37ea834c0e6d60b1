// Package prompt は活動データと日次ムードデータから生成AI向けのプロンプトを組み立てる。
// 入力が同じであれば出力は常にバイト単位で一致し、入力の並び順には依存しない。
package prompt

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"life-reflection-api/pkg/models"
)

const (
	unknownDate = "不明"
	noData      = "データがありません。"
	barGlyph    = "■"
)

var weekdayNames = []string{"日", "月", "火", "水", "木", "金", "土"}

// Build 活動データ・日次ムードデータ・分析リクエストからプロンプトを生成する。
// リクエストの列挙値は検証済みであること。
func Build(activities []models.Activity, moods []models.DailyMood, req models.AnalysisRequest) string {
	parts := []string{
		SystemRole,
		"\n" + FormatActivities(activities),
		"\n" + FormatDailyMoods(moods),
		"\n" + FormatMoodStatistics(moods),
		FocusInstruction(req.Focus),
		DetailInstruction(req.DetailLevel),
		StyleInstruction(req.ResponseStyle),
		ClosingInstruction,
	}
	return strings.Join(parts, "\n")
}

// FormatActivities 活動データを日付ごとにまとめ、開始時刻順に整形する
func FormatActivities(activities []models.Activity) string {
	if len(activities) == 0 {
		return "【活動データ】\n" + noData
	}

	sorted := slices.Clone(activities)
	slices.SortStableFunc(sorted, compareActivities)

	lines := []string{"【活動データ（時系列順）】"}
	currentHeader := ""
	for i, a := range sorted {
		header := formatDate(a.Date)
		if i == 0 || header != currentHeader {
			lines = append(lines, "\n◆ "+header)
			currentHeader = header
		}

		line := fmt.Sprintf("  %s - %s", a.TimeRangeString(), deref(a.Title))
		if tag := categoryTag(a); tag != "" {
			line += " " + tag
		}
		lines = append(lines, line)

		if a.Contents != nil && strings.TrimSpace(*a.Contents) != "" {
			lines = append(lines, "    内容: "+*a.Contents)
		}
		if minutes, ok := a.DurationMinutes(); ok && minutes > 0 {
			lines = append(lines, fmt.Sprintf("    時間: %d分", minutes))
		}
	}
	return strings.Join(lines, "\n")
}

// FormatDailyMoods 日次ムードデータを日付順に整形する
func FormatDailyMoods(moods []models.DailyMood) string {
	if len(moods) == 0 {
		return "【日次ムードデータ】\n" + noData
	}

	sorted := slices.Clone(moods)
	slices.SortStableFunc(sorted, compareMoods)

	lines := []string{"【日次ムードデータ（時系列順）】"}
	for _, m := range sorted {
		value := "-"
		if m.Mood != nil {
			value = fmt.Sprintf("%d", *m.Mood)
		}
		lines = append(lines, fmt.Sprintf("◆ %s: %s/5 %s (%s)", formatDate(m.Date), value, m.Emoji(), m.Description()))
		if m.Note != nil && strings.TrimSpace(*m.Note) != "" {
			lines = append(lines, "   メモ: "+*m.Note)
		}
	}
	return strings.Join(lines, "\n")
}

// FormatMoodStatistics ムードの統計情報と分布を整形する
func FormatMoodStatistics(moods []models.DailyMood) string {
	stats, ok := ComputeMoodStatistics(moods)
	if !ok {
		return "【ムード統計】\nムードデータがありません。"
	}

	lines := []string{
		"【日次ムード統計】",
		fmt.Sprintf("平均ムード: %.1f/5.0", stats.Average),
		fmt.Sprintf("最高ムード: %d/5 (記録日数: %d日)", stats.Max, stats.MaxCount),
		fmt.Sprintf("最低ムード: %d/5 (記録日数: %d日)", stats.Min, stats.MinCount),
		fmt.Sprintf("総記録日数: %d日", stats.Total),
		"",
		"ムード分布:",
	}
	for _, b := range stats.Distribution {
		emoji := strings.Repeat("😊", b.Value)
		bar := strings.Repeat(barGlyph, b.Count/2)
		lines = append(lines, fmt.Sprintf("  %d点 %s: %d日 (%.1f%%) %s", b.Value, emoji, b.Count, b.Percentage, bar))
	}
	return strings.Join(lines, "\n")
}

func formatDate(d *models.Date) string {
	if d == nil {
		return unknownDate
	}
	return fmt.Sprintf("%s (%s)", d.String(), weekdayNames[d.Weekday()])
}

func categoryTag(a models.Activity) string {
	if a.Category == nil || *a.Category == "" {
		return ""
	}
	if a.CategorySub != nil && *a.CategorySub != "" {
		return fmt.Sprintf("[%s/%s]", *a.Category, *a.CategorySub)
	}
	return fmt.Sprintf("[%s]", *a.Category)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// 日付不明のグループは最後。同日内は開始時刻順（未設定が先頭）。
// 残りのフィールドで順序を確定させ、入力順に依存しないようにする。
func compareActivities(a, b models.Activity) int {
	if c := compareDates(a.Date, b.Date, false); c != 0 {
		return c
	}
	if c := compareOptional(a.StartTime, b.StartTime); c != 0 {
		return c
	}
	if c := compareOptional(a.EndTime, b.EndTime); c != 0 {
		return c
	}
	return cmp.Or(
		cmp.Compare(deref(a.Title), deref(b.Title)),
		cmp.Compare(deref(a.Category), deref(b.Category)),
		cmp.Compare(deref(a.CategorySub), deref(b.CategorySub)),
		cmp.Compare(deref(a.Contents), deref(b.Contents)),
	)
}

// 日付未設定が先頭
func compareMoods(a, b models.DailyMood) int {
	if c := compareDates(a.Date, b.Date, true); c != 0 {
		return c
	}
	if c := compareOptional(a.Mood, b.Mood); c != 0 {
		return c
	}
	return cmp.Compare(deref(a.Note), deref(b.Note))
}

func compareDates(a, b *models.Date, missingFirst bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		if missingFirst {
			return -1
		}
		return 1
	case b == nil:
		if missingFirst {
			return 1
		}
		return -1
	default:
		return a.Compare(*b)
	}
}

func compareOptional[T cmp.Ordered](a, b *T) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return cmp.Compare(*a, *b)
	}
}
