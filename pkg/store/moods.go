package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"life-reflection-api/pkg/models"
)

const moodColumns = `id, date, mood, note, created_at, updated_at`

// 同じ日付は置き換える
const upsertMoodSQL = `
	INSERT OR REPLACE INTO daily_moods (
		date, mood, note, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?)`

func scanDailyMood(row rowScanner) (models.DailyMood, error) {
	var (
		m                    models.DailyMood
		id, mood             sql.NullInt64
		date, note           sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&id, &date, &mood, &note, &createdAt, &updatedAt); err != nil {
		return m, err
	}

	var err error
	if m.Date, err = datePtr(date); err != nil {
		return m, fmt.Errorf("daily_moods.date: %w", err)
	}
	if id.Valid {
		m.ID = models.Ptr(id.Int64)
	}
	if mood.Valid {
		m.Mood = models.Ptr(int(mood.Int64))
	}
	m.Note = stringPtr(note)
	m.CreatedAt = timestampPtr(createdAt)
	m.UpdatedAt = timestampPtr(updatedAt)
	return m, nil
}

func moodArgs(m models.DailyMood, now string) ([]any, error) {
	if m.Date == nil {
		return nil, models.NewValidationError("date", "日付は必須です")
	}
	return []any{nullDate(m.Date), nullInt(m.Mood), nullString(m.Note), now, now}, nil
}

// GetDailyMoods は日付範囲（両端を含む）のムードを日付昇順で返します。
func (s *SQLiteStore) GetDailyMoods(ctx context.Context, from, to *string) ([]models.DailyMood, error) {
	where, args := dateRangeClause(from, to)
	rows, err := s.db.QueryContext(ctx, `SELECT `+moodColumns+` FROM daily_moods`+where+` ORDER BY date ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("日次ムードデータの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	moods := make([]models.DailyMood, 0)
	for rows.Next() {
		m, err := scanDailyMood(rows)
		if err != nil {
			return nil, err
		}
		moods = append(moods, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.logger.Debug("日次ムードデータを取得しました",
		slog.Any("from", from), slog.Any("to", to), slog.Int("count", len(moods)))
	return moods, nil
}

// GetDailyMoodByDate は指定日のムードを返します。存在しない場合はErrNotFoundを返します。
func (s *SQLiteStore) GetDailyMoodByDate(ctx context.Context, date string) (*models.DailyMood, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+moodColumns+` FROM daily_moods WHERE date = ?`, date)
	m, err := scanDailyMood(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// InsertDailyMood はムードを挿入します（同じ日付は置き換え）。
func (s *SQLiteStore) InsertDailyMood(ctx context.Context, m models.DailyMood) (int64, error) {
	args, err := moodArgs(m, s.timestamp())
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, upsertMoodSQL, args...)
	if err != nil {
		return 0, fmt.Errorf("日次ムードデータの挿入に失敗しました: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	s.logger.Debug("日次ムードデータを挿入/更新しました", slog.Int64("id", id))
	return id, nil
}

// InsertDailyMoodsBatch はムードを一括で挿入・置き換えし、処理件数を返します。
func (s *SQLiteStore) InsertDailyMoodsBatch(ctx context.Context, moods []models.DailyMood) (int, error) {
	if len(moods) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	inserted, err := upsertMoods(ctx, tx, moods, s.timestamp())
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	s.logger.Info("日次ムードデータを一括挿入しました", slog.Int("count", inserted))
	return inserted, nil
}

func upsertMoods(ctx context.Context, tx *sql.Tx, moods []models.DailyMood, now string) (int, error) {
	stmt, err := tx.PrepareContext(ctx, upsertMoodSQL)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, m := range moods {
		args, err := moodArgs(m, now)
		if err != nil {
			return 0, fmt.Errorf("index %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("日次ムードデータの一括挿入に失敗しました (index %d): %w", i, err)
		}
	}
	return len(moods), nil
}
