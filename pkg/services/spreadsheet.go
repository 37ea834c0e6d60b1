package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"life-reflection-api/pkg/models"

	"github.com/xuri/excelize/v2"
)

// スプレッドシート（.xlsx / .csv）による活動・ムードデータの取り込みと、分析結果のExcel出力

const (
	resultSheet   = "分析結果"
	activitySheet = "活動"
	moodSheet     = "ムード"
)

var (
	dateAliases        = []string{"date", "日付"}
	startAliases       = []string{"start_time", "開始時刻", "開始"}
	endAliases         = []string{"end_time", "終了時刻", "終了"}
	titleAliases       = []string{"title", "タイトル", "活動"}
	contentsAliases    = []string{"contents", "内容"}
	categoryAliases    = []string{"category", "カテゴリ"}
	categorySubAliases = []string{"category_sub", "サブカテゴリ"}
	moodAliases        = []string{"mood", "ムード", "気分"}
	noteAliases        = []string{"note", "メモ"}
)

var importDateLayouts = []string{"2006-01-02", "2006/1/2", "2006/01/02", "2006-1-2"}
var importTimeLayouts = []string{"15:04", "15:04:05", "3:04 PM"}

// ImportedData 取り込み結果（検証済みのレコードとスキップした行）
type ImportedData struct {
	Activities []models.Activity
	Moods      []models.DailyMood
	Skipped    []string
}

// ImportStore 取り込みデータの保存先
type ImportStore interface {
	InsertActivitiesBatch(ctx context.Context, activities []models.Activity) (int, error)
	InsertDailyMoodsBatch(ctx context.Context, moods []models.DailyMood) (int, error)
}

// SpreadsheetService スプレッドシートの取り込みと出力
type SpreadsheetService struct {
	store  ImportStore
	logger *slog.Logger
}

// NewSpreadsheetService 新しいSpreadsheetServiceを作成
func NewSpreadsheetService(store ImportStore, logger *slog.Logger) *SpreadsheetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SpreadsheetService{store: store, logger: logger}
}

// Import ファイル名の拡張子で形式を判定して取り込み、ストアに保存する
func (s *SpreadsheetService) Import(ctx context.Context, fileName string, r io.Reader) (models.ImportSummary, error) {
	var (
		data ImportedData
		err  error
	)
	switch lower := strings.ToLower(fileName); {
	case strings.HasSuffix(lower, ".xlsx"):
		data, err = ParseWorkbook(r)
	case strings.HasSuffix(lower, ".csv"):
		data, err = ParseCSV(r)
	default:
		return models.ImportSummary{}, models.NewValidationError("file", "サポートされていないファイル形式です。.xlsxまたは.csvをアップロードしてください。")
	}
	if err != nil {
		return models.ImportSummary{}, err
	}
	if len(data.Activities) == 0 && len(data.Moods) == 0 {
		return models.ImportSummary{SkippedRows: data.Skipped}, models.NewValidationError("file", "取り込み可能な行がありませんでした")
	}

	summary := models.ImportSummary{SkippedRows: data.Skipped}
	if summary.ActivitiesImported, err = s.store.InsertActivitiesBatch(ctx, data.Activities); err != nil {
		return summary, err
	}
	if summary.MoodsImported, err = s.store.InsertDailyMoodsBatch(ctx, data.Moods); err != nil {
		return summary, err
	}

	s.logger.InfoContext(ctx, "スプレッドシートを取り込みました",
		slog.String("file", fileName),
		slog.Int("activities", summary.ActivitiesImported),
		slog.Int("moods", summary.MoodsImported),
		slog.Int("skipped", len(summary.SkippedRows)),
	)
	return summary, nil
}

// ParseWorkbook 全シートを読み、ヘッダーから活動シートかムードシートかを判定する
func ParseWorkbook(r io.Reader) (ImportedData, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return ImportedData{}, models.NewValidationError("file", "Excelファイルの読み込みに失敗しました: %v", err)
	}
	defer f.Close()

	var data ImportedData
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return ImportedData{}, fmt.Errorf("Excelシートの行取得に失敗しました (%s): %w", sheet, err)
		}
		parseTable(sheet, rows, &data)
	}
	return data, nil
}

// ParseCSV 1つの表として読み込む
func ParseCSV(r io.Reader) (ImportedData, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return ImportedData{}, models.NewValidationError("file", "CSVファイルの解析に失敗しました: %v", err)
	}
	var data ImportedData
	parseTable("csv", rows, &data)
	return data, nil
}

func parseTable(name string, rows [][]string, data *ImportedData) {
	if len(rows) < 2 {
		return
	}
	header := rows[0]

	switch {
	case findColumn(header, moodAliases...) >= 0:
		cols := moodColumns{
			date: findColumn(header, dateAliases...),
			mood: findColumn(header, moodAliases...),
			note: findColumn(header, noteAliases...),
		}
		for i, row := range rows[1:] {
			if isBlankRow(row) {
				continue
			}
			m, err := cols.parse(row)
			if err == nil {
				err = m.Validate()
			}
			if err != nil {
				data.Skipped = append(data.Skipped, fmt.Sprintf("%s!%d: %v", name, i+2, err))
				continue
			}
			data.Moods = append(data.Moods, m)
		}
	case findColumn(header, titleAliases...) >= 0:
		cols := activityColumns{
			date:        findColumn(header, dateAliases...),
			start:       findColumn(header, startAliases...),
			end:         findColumn(header, endAliases...),
			title:       findColumn(header, titleAliases...),
			contents:    findColumn(header, contentsAliases...),
			category:    findColumn(header, categoryAliases...),
			categorySub: findColumn(header, categorySubAliases...),
		}
		for i, row := range rows[1:] {
			if isBlankRow(row) {
				continue
			}
			a, err := cols.parse(row)
			if err == nil {
				err = a.Validate()
			}
			if err != nil {
				data.Skipped = append(data.Skipped, fmt.Sprintf("%s!%d: %v", name, i+2, err))
				continue
			}
			data.Activities = append(data.Activities, a)
		}
	}
}

type activityColumns struct {
	date, start, end, title, contents, category, categorySub int
}

func (c activityColumns) parse(row []string) (models.Activity, error) {
	var a models.Activity
	var err error
	if a.Date, err = cellDate(row, c.date); err != nil {
		return a, err
	}
	if a.StartTime, err = cellTime(row, c.start, "start_time"); err != nil {
		return a, err
	}
	if a.EndTime, err = cellTime(row, c.end, "end_time"); err != nil {
		return a, err
	}
	a.Title = cellString(row, c.title)
	if a.Title == nil {
		return a, models.NewValidationError("title", "活動タイトルは必須です")
	}
	a.Contents = cellString(row, c.contents)
	a.Category = cellString(row, c.category)
	a.CategorySub = cellString(row, c.categorySub)
	return a, nil
}

type moodColumns struct {
	date, mood, note int
}

func (c moodColumns) parse(row []string) (models.DailyMood, error) {
	var m models.DailyMood
	var err error
	if m.Date, err = cellDate(row, c.date); err != nil {
		return m, err
	}
	if v := cellString(row, c.mood); v != nil {
		n, convErr := strconv.Atoi(*v)
		if convErr != nil {
			return m, models.NewValidationError("mood", "気分値は整数である必要があります: %q", *v)
		}
		m.Mood = &n
	}
	m.Note = cellString(row, c.note)
	return m, nil
}

func findColumn(header []string, aliases ...string) int {
	for _, alias := range aliases {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), alias) {
				return i
			}
		}
	}
	return -1
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func cellString(row []string, idx int) *string {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	v := strings.TrimSpace(row[idx])
	if v == "" {
		return nil
	}
	return &v
}

func cellDate(row []string, idx int) (*models.Date, error) {
	v := cellString(row, idx)
	if v == nil {
		return nil, nil
	}
	for _, layout := range importDateLayouts {
		if t, err := time.Parse(layout, *v); err == nil {
			return models.Ptr(models.DateOf(t)), nil
		}
	}
	return nil, models.NewValidationError("date", "日付の形式が不正です: %q", *v)
}

func cellTime(row []string, idx int, field string) (*models.TimeOfDay, error) {
	v := cellString(row, idx)
	if v == nil {
		return nil, nil
	}
	for _, layout := range importTimeLayouts {
		if t, err := time.Parse(layout, *v); err == nil {
			return models.Ptr(models.NewTimeOfDay(t.Hour(), t.Minute())), nil
		}
	}
	return nil, models.NewValidationError(field, "時刻の形式が不正です: %q", *v)
}

// ExportWorkbook 分析結果と対象データを3シートのExcelブックに出力する
func ExportWorkbook(record models.AnalysisRecord, activities []models.Activity, moods []models.DailyMood) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultSheet); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	res := record.Result
	tokens := "-"
	if res.TokenCount != nil {
		tokens = strconv.Itoa(*res.TokenCount)
	}
	processing := "-"
	if res.ProcessingTimeMs != nil {
		processing = strconv.FormatInt(*res.ProcessingTimeMs, 10)
	}
	summary := [][]any{
		{"分析ID", record.ID},
		{"プロバイダー", record.Provider},
		{"作成日時", res.CreatedAt.Format(time.RFC3339)},
		{"分析の焦点", string(res.Parameters.Focus)},
		{"詳細度", string(res.Parameters.DetailLevel)},
		{"応答スタイル", string(res.Parameters.ResponseStyle)},
		{"活動件数", res.ActivityCount},
		{"ムード件数", res.MoodCount},
		{"処理時間(ms)", processing},
		{"トークン数", tokens},
		{"分析結果", res.AnalysisText},
	}
	for i, row := range summary {
		if err := setRow(f, resultSheet, i+1, row); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(resultSheet, "A1", fmt.Sprintf("A%d", len(summary)), bold); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(resultSheet, "A", "A", 16); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(resultSheet, "B", "B", 80); err != nil {
		return nil, err
	}

	activityRows := [][]any{{"date", "start_time", "end_time", "title", "contents", "category", "category_sub"}}
	for _, a := range activities {
		activityRows = append(activityRows, []any{
			strOrEmpty(a.Date), strOrEmpty(a.StartTime), strOrEmpty(a.EndTime),
			deref(a.Title), deref(a.Contents), deref(a.Category), deref(a.CategorySub),
		})
	}
	if err := writeSheet(f, activitySheet, activityRows, bold); err != nil {
		return nil, err
	}

	moodRows := [][]any{{"date", "mood", "note"}}
	for _, m := range moods {
		var mood any = ""
		if m.Mood != nil {
			mood = *m.Mood
		}
		moodRows = append(moodRows, []any{strOrEmpty(m.Date), mood, deref(m.Note)})
	}
	if err := writeSheet(f, moodSheet, moodRows, bold); err != nil {
		return nil, err
	}

	return f.WriteToBuffer()
}

func writeSheet(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+1, row); err != nil {
			return err
		}
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, headerStyle)
}

func setRow(f *excelize.File, sheet string, rowNum int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func strOrEmpty[T fmt.Stringer](v *T) string {
	if v == nil {
		return ""
	}
	return (*v).String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
