package services

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"life-reflection-api/pkg/models"
)

// activityTemplate 活動テンプレート（カテゴリ, サブカテゴリ, タイトル, 内容, 標準所要時間）
type activityTemplate struct {
	Category    string
	CategorySub string
	Title       string
	Contents    string
	Minutes     int
}

var activityTemplates = []activityTemplate{
	// 仕事
	{"仕事", "メール", "メール確認・返信", "受信メールの確認と返信作業", 30},
	{"仕事", "会議", "チームミーティング", "週次チーム進捗会議に参加", 60},
	{"仕事", "資料作成", "プレゼン資料作成", "次回プレゼン用の資料作成", 90},
	{"仕事", "コーディング", "システム開発", "新機能の実装作業", 120},
	{"仕事", "企画", "新企画の検討", "次期プロジェクトの企画立案", 75},

	// 運動
	{"運動", "ランニング", "朝ランニング", "公園での30分ジョギング", 30},
	{"運動", "筋トレ", "筋力トレーニング", "ジムでのウェイトトレーニング", 45},
	{"運動", "ヨガ", "モーニングヨガ", "家でのヨガセッション", 30},
	{"運動", "散歩", "午後の散歩", "近所の公園を散歩", 20},
	{"運動", "ストレッチ", "ストレッチタイム", "体をほぐすストレッチ", 15},

	// 食事
	{"食事", "朝食", "朝食時間", "パンとコーヒーで朝食", 20},
	{"食事", "昼食", "お昼時間", "オフィス近くのレストランでランチ", 45},
	{"食事", "夕食", "夕食時間", "家族と一緒に夕食", 30},
	{"食事", "料理", "夕食の料理", "今日の夕食を作る", 40},
	{"食事", "軽食", "おやつタイム", "コーヒーとお菓子でブレイク", 15},

	// 趣味
	{"趣味", "読書", "本を読む", "気になっていた本を読み進める", 60},
	{"趣味", "映画", "映画鑑賞", "配信サービスで映画を観る", 90},
	{"趣味", "音楽", "音楽鑑賞", "お気に入りの音楽を聞く", 30},
	{"趣味", "ゲーム", "ゲームプレイ", "スマホゲームでリラックス", 45},
	{"趣味", "創作", "創作活動", "絵を描いたり文章を書いたり", 60},

	// 家事
	{"家事", "掃除", "部屋の掃除", "リビングと寝室の掃除", 40},
	{"家事", "洗濯", "洗濯・洗濯物干し", "洗濯機を回して洗濯物を干す", 20},
	{"家事", "買い物", "スーパーで買い物", "今日の材料を買いに行く", 30},
	{"家事", "整理", "部屋の整理整頓", "クローゼットや机の整理", 45},

	// 学習
	{"学習", "プログラミング", "プログラミング学習", "オンライン講座でGoを学ぶ", 60},
	{"学習", "語学", "英語の勉強", "英会話アプリでレッスン", 30},
	{"学習", "資格", "資格試験勉強", "来月の試験に向けて勉強", 90},
	{"学習", "読書", "専門書を読む", "仕事に関連する技術書を読む", 45},

	// 交流
	{"交流", "家族", "家族との時間", "家族と会話しながら過ごす", 45},
	{"交流", "友人", "友人との電話", "久しぶりに友人と電話", 30},
	{"交流", "SNS", "SNSチェック", "ソーシャルメディアをチェック", 15},
	{"交流", "コミュニティ", "オンライン交流", "趣味のコミュニティで交流", 30},

	// 移動
	{"移動", "通勤", "会社への通勤", "電車で会社まで移動", 40},
	{"移動", "帰宅", "会社から帰宅", "会社から家まで帰る", 40},
	{"移動", "外出", "買い物の移動", "ショッピングセンターへ移動", 25},

	// 休憩
	{"休憩", "仮眠", "昼休み", "ソファで少し仮眠", 20},
	{"休憩", "コーヒー", "コーヒーブレイク", "カフェでコーヒーを飲む", 15},
	{"休憩", "入浴", "お風呂タイム", "リラックスしながら入浴", 25},
	{"休憩", "瞑想", "瞑想・深呼吸", "心を落ち着かせる時間", 10},
}

// startHours 開始時刻の候補（毎正時 7:00〜22:00）
var startHours = []int{7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22}

// 空文字はメモなし
var moodNotes = []string{
	"今日は調子が良い",
	"普通の一日",
	"少し疲れている",
	"気分爽快！",
	"まあまあの気分",
	"充実した一日",
	"リラックスできた",
	"",
	"",
	"",
}

// lastMinuteOfDay 終了時刻の上限（日付をまたがない）
const lastMinuteOfDay = models.TimeOfDay(23*60 + 59)

// SampleDataOptions サンプルデータの生成条件
type SampleDataOptions struct {
	Days          int         // 生成日数（基準日から過去へ）
	MinActivities int         // 1日あたりの最小活動数
	MaxActivities int         // 1日あたりの最大活動数
	MoodBias      float64     // ムードのバイアス（-2.0〜+2.0）
	BaseDate      models.Date // 基準日（最新の日）
}

// SampleDataGenerator 活動パターンを模したサンプルデータを生成する。
// 同じシードからは同じデータが生成される。
type SampleDataGenerator struct {
	rng    *rand.Rand
	now    func() time.Time
	logger *slog.Logger
}

// NewSampleDataGenerator 新しいSampleDataGeneratorを作成
func NewSampleDataGenerator(seed int64, logger *slog.Logger) *SampleDataGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &SampleDataGenerator{
		rng:    rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)),
		now:    time.Now,
		logger: logger,
	}
}

// GenerateWeekData 基準日を含む過去7日分のデータを生成（平日5〜9件、週末4〜7件）
func (g *SampleDataGenerator) GenerateWeekData(base models.Date) ([]models.Activity, []models.DailyMood) {
	var activities []models.Activity
	var moods []models.DailyMood

	for daysAgo := 0; daysAgo < 7; daysAgo++ {
		day := base.AddDays(-daysAgo)
		lo, hi := 5, 9
		if day.IsWeekend() {
			lo, hi = 4, 7
		}
		activities = append(activities, g.dailyActivities(day, g.intBetween(lo, hi))...)
		moods = append(moods, g.dailyMood(day))
	}

	g.logger.Info("サンプルデータを生成しました",
		slog.Int("activities", len(activities)), slog.Int("moods", len(moods)))
	return activities, moods
}

// GenerateCustomData 日数・活動数・ムードバイアスを指定してデータを生成
func (g *SampleDataGenerator) GenerateCustomData(opts SampleDataOptions) ([]models.Activity, []models.DailyMood, error) {
	if opts.Days <= 0 {
		return nil, nil, models.NewValidationError("days", "生成日数は1以上である必要があります")
	}
	if opts.MinActivities < 0 || opts.MaxActivities < opts.MinActivities {
		return nil, nil, models.NewValidationError("activities_per_day", "活動数の範囲が不正です (%d-%d)", opts.MinActivities, opts.MaxActivities)
	}
	if opts.MoodBias < -2 || opts.MoodBias > 2 {
		return nil, nil, models.NewValidationError("mood_bias", "ムードバイアスは-2.0〜+2.0の範囲で指定してください")
	}
	base := opts.BaseDate
	if base.IsZero() {
		base = models.DateOf(g.now())
	}

	var activities []models.Activity
	var moods []models.DailyMood
	for daysAgo := 0; daysAgo < opts.Days; daysAgo++ {
		day := base.AddDays(-daysAgo)
		activities = append(activities, g.dailyActivities(day, g.intBetween(opts.MinActivities, opts.MaxActivities))...)

		mood := g.dailyMood(day)
		mood.Mood = models.Ptr(ApplyMoodBias(*mood.Mood, opts.MoodBias))
		moods = append(moods, mood)
	}

	g.logger.Info("カスタムサンプルデータを生成しました",
		slog.Int("activities", len(activities)), slog.Int("moods", len(moods)),
		slog.Float64("mood_bias", opts.MoodBias))
	return activities, moods, nil
}

// ApplyMoodBias バイアスを加えて偶数丸めし、1〜5に収める
func ApplyMoodBias(mood int, bias float64) int {
	adjusted := int(math.RoundToEven(float64(mood) + bias))
	return max(models.MinMood, min(models.MaxMood, adjusted))
}

func (g *SampleDataGenerator) dailyActivities(day models.Date, count int) []models.Activity {
	weekend := day.IsWeekend()
	available := slices.Clone(startHours)
	created := g.now()

	activities := make([]models.Activity, 0, count)
	for i := 0; i < count && len(available) > 0; i++ {
		idx := g.rng.IntN(len(available))
		hour := available[idx]
		available = slices.Delete(available, idx, idx+1)

		tpl := g.pickTemplate(hour, weekend)
		activities = append(activities, newSampleActivity(day, hour, tpl, g.intBetween(-10, 15), created))
	}

	slices.SortFunc(activities, func(a, b models.Activity) int {
		return int(*a.StartTime - *b.StartTime)
	})
	return activities
}

func newSampleActivity(day models.Date, hour int, tpl activityTemplate, variation int, created time.Time) models.Activity {
	start := models.NewTimeOfDay(hour, 0)
	end := start + models.TimeOfDay(max(5, tpl.Minutes+variation))
	if end > lastMinuteOfDay {
		end = lastMinuteOfDay
	}
	return models.Activity{
		UserID:      models.Ptr(int64(1)),
		Date:        models.Ptr(day),
		StartTime:   &start,
		EndTime:     &end,
		Title:       models.Ptr(tpl.Title),
		Contents:    models.Ptr(tpl.Contents),
		Category:    models.Ptr(tpl.Category),
		CategorySub: models.Ptr(tpl.CategorySub),
		CreatedAt:   models.Ptr(created),
		UpdatedAt:   models.Ptr(created),
	}
}

// categoryWeights 時間帯ごとの優先カテゴリ（重み1）とその他カテゴリの重み
func categoryWeights(hour int, weekend bool) (preferred []string, other float64) {
	switch {
	case hour >= 7 && hour < 9:
		return []string{"食事", "移動", "運動"}, 0.1
	case hour >= 9 && hour < 12:
		if weekend {
			return []string{"家事", "趣味", "運動"}, 0.2
		}
		return []string{"仕事"}, 0.1
	case hour >= 12 && hour < 14:
		return []string{"食事", "休憩"}, 0.2
	case hour >= 14 && hour < 18:
		if weekend {
			return []string{"趣味", "学習", "家事"}, 0.3
		}
		return []string{"仕事"}, 0.2
	case hour >= 18 && hour < 21:
		return []string{"食事", "家事", "趣味", "交流"}, 0.3
	default:
		return []string{"趣味", "休憩", "学習"}, 0.2
	}
}

func (g *SampleDataGenerator) pickTemplate(hour int, weekend bool) activityTemplate {
	preferred, other := categoryWeights(hour, weekend)

	weights := make([]float64, len(activityTemplates))
	var total float64
	for i, tpl := range activityTemplates {
		w := other
		if slices.Contains(preferred, tpl.Category) {
			w = 1
		}
		weights[i] = w
		total += w
	}

	r := g.rng.Float64() * total
	for i, w := range weights {
		if r < w {
			return activityTemplates[i]
		}
		r -= w
	}
	return activityTemplates[len(activityTemplates)-1]
}

func (g *SampleDataGenerator) dailyMood(day models.Date) models.DailyMood {
	base := []int{2, 3, 3, 4, 4}
	if day.IsWeekend() {
		base = []int{3, 3, 4, 4, 5}
	}
	variation := []int{-1, 0, 0, 1}

	value := base[g.rng.IntN(len(base))] + variation[g.rng.IntN(len(variation))]
	value = max(models.MinMood, min(models.MaxMood, value))

	var note *string
	if n := moodNotes[g.rng.IntN(len(moodNotes))]; n != "" {
		note = &n
	}

	created := g.now()
	return models.DailyMood{
		Date:      models.Ptr(day),
		Mood:      models.Ptr(value),
		Note:      note,
		CreatedAt: models.Ptr(created),
		UpdatedAt: models.Ptr(created),
	}
}

// intBetween lo以上hi以下の整数
func (g *SampleDataGenerator) intBetween(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + g.rng.IntN(hi-lo+1)
}

func (o SampleDataOptions) String() string {
	return fmt.Sprintf("days=%d activities=%d-%d mood_bias=%.1f", o.Days, o.MinActivities, o.MaxActivities, o.MoodBias)
}
