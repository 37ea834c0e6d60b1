package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"life-reflection-api/pkg/models"
)

const activityColumns = `id, user_id, date, start_time, end_time, title, contents, category, category_sub, created_at, updated_at`

const insertActivitySQL = `
	INSERT INTO activities (
		user_id, date, start_time, end_time, title, contents,
		category, category_sub, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// defaultUserID サンプル用の固定ユーザー
const defaultUserID int64 = 1

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivity(row rowScanner) (models.Activity, error) {
	var (
		a                                 models.Activity
		id, userID                        sql.NullInt64
		date, start, end                  sql.NullString
		title, contents, category, subCat sql.NullString
		createdAt, updatedAt              string
	)
	if err := row.Scan(&id, &userID, &date, &start, &end, &title, &contents, &category, &subCat, &createdAt, &updatedAt); err != nil {
		return a, err
	}

	var err error
	if a.Date, err = datePtr(date); err != nil {
		return a, fmt.Errorf("activities.date: %w", err)
	}
	if a.StartTime, err = timePtr(start); err != nil {
		return a, fmt.Errorf("activities.start_time: %w", err)
	}
	if a.EndTime, err = timePtr(end); err != nil {
		return a, fmt.Errorf("activities.end_time: %w", err)
	}
	if id.Valid {
		a.ID = models.Ptr(id.Int64)
	}
	if userID.Valid {
		a.UserID = models.Ptr(userID.Int64)
	}
	a.Title = stringPtr(title)
	a.Contents = stringPtr(contents)
	a.Category = stringPtr(category)
	a.CategorySub = stringPtr(subCat)
	a.CreatedAt = timestampPtr(createdAt)
	a.UpdatedAt = timestampPtr(updatedAt)
	return a, nil
}

func (s *SQLiteStore) queryActivities(ctx context.Context, query string, args ...any) ([]models.Activity, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := make([]models.Activity, 0)
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func activityArgs(a models.Activity, now string) []any {
	userID := defaultUserID
	if a.UserID != nil {
		userID = *a.UserID
	}
	return []any{
		userID,
		nullDate(a.Date),
		nullTime(a.StartTime),
		nullTime(a.EndTime),
		nullString(a.Title),
		nullString(a.Contents),
		nullString(a.Category),
		nullString(a.CategorySub),
		now,
		now,
	}
}

// GetAllActivities は全活動を日付・開始時刻の降順で返します。
func (s *SQLiteStore) GetAllActivities(ctx context.Context) ([]models.Activity, error) {
	activities, err := s.queryActivities(ctx,
		`SELECT `+activityColumns+` FROM activities ORDER BY date DESC, start_time DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("活動データの取得に失敗しました: %w", err)
	}
	s.logger.Debug("活動データを取得しました", slog.Int("count", len(activities)))
	return activities, nil
}

// GetActivitiesByDateRange は日付範囲（両端を含む）の活動を昇順で返します。
// from / to がnilの場合、その側は制限しません。
func (s *SQLiteStore) GetActivitiesByDateRange(ctx context.Context, from, to *string) ([]models.Activity, error) {
	where, args := dateRangeClause(from, to)
	activities, err := s.queryActivities(ctx,
		`SELECT `+activityColumns+` FROM activities`+where+` ORDER BY date, start_time, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("日付範囲の活動データの取得に失敗しました: %w", err)
	}
	s.logger.Debug("日付範囲の活動データを取得しました",
		slog.Any("from", from), slog.Any("to", to), slog.Int("count", len(activities)))
	return activities, nil
}

// GetActivityByID はIDで活動を取得します。存在しない場合はErrNotFoundを返します。
func (s *SQLiteStore) GetActivityByID(ctx context.Context, id int64) (*models.Activity, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// InsertActivity は活動を1件挿入し、採番されたIDを返します。
func (s *SQLiteStore) InsertActivity(ctx context.Context, a models.Activity) (int64, error) {
	res, err := s.db.ExecContext(ctx, insertActivitySQL, activityArgs(a, s.timestamp())...)
	if err != nil {
		return 0, fmt.Errorf("活動データの挿入に失敗しました: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	s.logger.Debug("活動データを挿入しました", slog.Int64("id", id))
	return id, nil
}

// InsertActivitiesBatch は活動を1トランザクションで一括挿入し、挿入件数を返します。
func (s *SQLiteStore) InsertActivitiesBatch(ctx context.Context, activities []models.Activity) (int, error) {
	if len(activities) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	inserted, err := insertActivities(ctx, tx, activities, s.timestamp())
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	s.logger.Info("活動データを一括挿入しました", slog.Int("count", inserted))
	return inserted, nil
}

func insertActivities(ctx context.Context, tx *sql.Tx, activities []models.Activity, now string) (int, error) {
	stmt, err := tx.PrepareContext(ctx, insertActivitySQL)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for i, a := range activities {
		res, err := stmt.ExecContext(ctx, activityArgs(a, now)...)
		if err != nil {
			return 0, fmt.Errorf("活動データの一括挿入に失敗しました (index %d): %w", i, err)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}
	return inserted, nil
}

// UpdateActivity は活動を更新します。対象がない場合はfalseを返します。
func (s *SQLiteStore) UpdateActivity(ctx context.Context, id int64, a models.Activity) (bool, error) {
	// 先頭8列 + updated_at
	args := append(activityArgs(a, s.timestamp())[:9], id)

	res, err := s.db.ExecContext(ctx, `
		UPDATE activities SET
			user_id = ?, date = ?, start_time = ?, end_time = ?,
			title = ?, contents = ?, category = ?, category_sub = ?,
			updated_at = ?
		WHERE id = ?`, args...)
	if err != nil {
		return false, fmt.Errorf("活動データの更新に失敗しました: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		s.logger.Warn("更新対象の活動が見つかりませんでした", slog.Int64("id", id))
		return false, nil
	}
	return true, nil
}

// DeleteActivity は活動を削除します。対象がない場合はfalseを返します。
func (s *SQLiteStore) DeleteActivity(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("活動データの削除に失敗しました: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		s.logger.Warn("削除対象の活動が見つかりませんでした", slog.Int64("id", id))
		return false, nil
	}
	return true, nil
}

func dateRangeClause(from, to *string) (string, []any) {
	var conds []string
	var args []any
	if from != nil && *from != "" {
		conds = append(conds, "date >= ?")
		args = append(args, *from)
	}
	if to != nil && *to != "" {
		conds = append(conds, "date <= ?")
		args = append(args, *to)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
