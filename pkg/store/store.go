// Package store は活動・ムード・分析履歴を保持するSQLiteレコードストアです。
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"life-reflection-api/pkg/models"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound は対象レコードが存在しないことを示します。
var ErrNotFound = errors.New("レコードが見つかりません")

// Store は分析サービスとHTTPハンドラが利用するレコードストアです。
type Store interface {
	GetAllActivities(ctx context.Context) ([]models.Activity, error)
	GetActivitiesByDateRange(ctx context.Context, from, to *string) ([]models.Activity, error)
	GetActivityByID(ctx context.Context, id int64) (*models.Activity, error)
	InsertActivity(ctx context.Context, a models.Activity) (int64, error)
	InsertActivitiesBatch(ctx context.Context, activities []models.Activity) (int, error)
	UpdateActivity(ctx context.Context, id int64, a models.Activity) (bool, error)
	DeleteActivity(ctx context.Context, id int64) (bool, error)

	GetDailyMoods(ctx context.Context, from, to *string) ([]models.DailyMood, error)
	GetDailyMoodByDate(ctx context.Context, date string) (*models.DailyMood, error)
	InsertDailyMood(ctx context.Context, m models.DailyMood) (int64, error)
	InsertDailyMoodsBatch(ctx context.Context, moods []models.DailyMood) (int, error)

	GetStatistics(ctx context.Context) (models.StoreStatistics, error)

	SaveAnalysisResult(ctx context.Context, provider string, result models.AnalysisResult) (models.AnalysisRecord, error)
	ListAnalysisResults(ctx context.Context, limit int) ([]models.AnalysisRecord, error)
	GetAnalysisResult(ctx context.Context, id string) (*models.AnalysisRecord, error)

	Reset(ctx context.Context) error
	ReplaceAll(ctx context.Context, activities []models.Activity, moods []models.DailyMood) (int, int, error)
	Close() error
}

// SQLiteStore はmattn/go-sqlite3を使ったStoreの実装です。
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS activities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER DEFAULT 1,
		date TEXT,
		start_time TEXT,
		end_time TEXT,
		title TEXT,
		contents TEXT,
		category TEXT,
		category_sub TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS daily_moods (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL UNIQUE,
		mood INTEGER CHECK(mood IS NULL OR (mood >= 1 AND mood <= 5)),
		note TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS analysis_results (
		id TEXT PRIMARY KEY,
		provider TEXT NOT NULL,
		analysis_text TEXT NOT NULL,
		parameters TEXT NOT NULL,
		activity_count INTEGER NOT NULL,
		mood_count INTEGER NOT NULL,
		processing_time_ms INTEGER,
		token_count INTEGER,
		prompt_preview TEXT,
		created_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_activities_date ON activities(date)`,
	`CREATE INDEX IF NOT EXISTS idx_activities_user_date ON activities(user_id, date)`,
	`CREATE INDEX IF NOT EXISTS idx_activities_category ON activities(category)`,
	`CREATE INDEX IF NOT EXISTS idx_analysis_results_created ON analysis_results(created_at)`,
}

// Option はSQLiteStoreの生成オプションです。
type Option func(*SQLiteStore)

// WithClock は作成・更新日時に使う時計を差し替えます。
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) { s.now = now }
}

// WithIDGenerator は分析履歴のID生成を差し替えます。
func WithIDGenerator(newID func() string) Option {
	return func(s *SQLiteStore) { s.newID = newID }
}

// NewSQLiteStore はデータベースを開き、スキーマを作成します。
// path が ":memory:" の場合はプロセス内のインメモリDBになります。
func NewSQLiteStore(ctx context.Context, path string, logger *slog.Logger, opts ...Option) (*SQLiteStore, error) {
	if path == "" {
		path = ":memory:"
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("データベースのオープンに失敗しました: %w", err)
	}
	// インメモリDBは接続ごとに別DBになるため単一接続に固定する
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("データベースへの接続に失敗しました: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		path:   path,
		logger: logger,
		now:    time.Now,
		newID:  newAnalysisID,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("データベースを初期化しました", slog.String("path", path))
	return s, nil
}

func (s *SQLiteStore) init(ctx context.Context) error {
	for _, query := range schema {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("テーブルの作成に失敗しました: %w", err)
		}
	}
	return nil
}

// Reset は活動データとムードデータを全件削除します。分析履歴は保持します。
func (s *SQLiteStore) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := clearRecords(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Info("活動データとムードデータを削除しました")
	return nil
}

// ReplaceAll は活動とムードを1トランザクションで入れ替えます。失敗時は既存データが残ります。
func (s *SQLiteStore) ReplaceAll(ctx context.Context, activities []models.Activity, moods []models.DailyMood) (int, int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	if err := clearRecords(ctx, tx); err != nil {
		return 0, 0, err
	}
	now := s.timestamp()
	activityCount, err := insertActivities(ctx, tx, activities, now)
	if err != nil {
		return 0, 0, err
	}
	moodCount, err := upsertMoods(ctx, tx, moods, now)
	if err != nil {
		return 0, 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	s.logger.Info("活動データとムードデータを入れ替えました",
		slog.Int("activities", activityCount), slog.Int("moods", moodCount))
	return activityCount, moodCount, nil
}

func clearRecords(ctx context.Context, tx *sql.Tx) error {
	for _, q := range []string{`DELETE FROM activities`, `DELETE FROM daily_moods`} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("データの削除に失敗しました: %w", err)
		}
	}
	return nil
}

// Ping はデータベース接続を確認します。
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close はデータベース接続を閉じます。
func (s *SQLiteStore) Close() error {
	s.logger.Info("データベース接続を閉じました", slog.String("path", s.path))
	return s.db.Close()
}

func (s *SQLiteStore) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

// nullable helpers

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullDate(d *models.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullTime(t *models.TimeOfDay) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.String(), Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func datePtr(ns sql.NullString) (*models.Date, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	d, err := models.ParseDate(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func timePtr(ns sql.NullString) (*models.TimeOfDay, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := models.ParseTimeOfDay(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func timestampPtr(s string) *time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	return &t
}
