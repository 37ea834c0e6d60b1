package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"life-reflection-api/pkg/models"

	"github.com/google/uuid"
)

// DefaultHistoryLimit 分析履歴一覧の既定件数
const DefaultHistoryLimit = 20

const analysisColumns = `id, provider, analysis_text, parameters, activity_count, mood_count, processing_time_ms, token_count, prompt_preview, created_at`

func newAnalysisID() string {
	return uuid.New().String()
}

// SaveAnalysisResult は分析結果を履歴として保存します。
func (s *SQLiteStore) SaveAnalysisResult(ctx context.Context, provider string, result models.AnalysisResult) (models.AnalysisRecord, error) {
	params, err := json.Marshal(result.Parameters)
	if err != nil {
		return models.AnalysisRecord{}, fmt.Errorf("分析パラメータのシリアライズに失敗しました: %w", err)
	}

	var processing sql.NullInt64
	if result.ProcessingTimeMs != nil {
		processing = sql.NullInt64{Int64: *result.ProcessingTimeMs, Valid: true}
	}

	record := models.AnalysisRecord{ID: s.newID(), Provider: provider, Result: result}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analysis_results (`+analysisColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		provider,
		result.AnalysisText,
		string(params),
		result.ActivityCount,
		result.MoodCount,
		processing,
		nullInt(result.TokenCount),
		result.PromptPreview,
		result.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return models.AnalysisRecord{}, fmt.Errorf("分析結果の保存に失敗しました: %w", err)
	}

	s.logger.Info("分析結果を保存しました", slog.String("id", record.ID), slog.String("provider", provider))
	return record, nil
}

// ListAnalysisResults は新しい順に分析履歴を返します。
func (s *SQLiteStore) ListAnalysisResults(ctx context.Context, limit int) ([]models.AnalysisRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+analysisColumns+` FROM analysis_results ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("分析履歴の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	records := make([]models.AnalysisRecord, 0)
	for rows.Next() {
		rec, err := scanAnalysisRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetAnalysisResult はIDで分析履歴を取得します。
func (s *SQLiteStore) GetAnalysisResult(ctx context.Context, id string) (*models.AnalysisRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+analysisColumns+` FROM analysis_results WHERE id = ?`, id)
	rec, err := scanAnalysisRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func scanAnalysisRecord(row rowScanner) (models.AnalysisRecord, error) {
	var (
		rec                models.AnalysisRecord
		params, createdAt  string
		preview            sql.NullString
		processing, tokens sql.NullInt64
	)
	err := row.Scan(
		&rec.ID,
		&rec.Provider,
		&rec.Result.AnalysisText,
		&params,
		&rec.Result.ActivityCount,
		&rec.Result.MoodCount,
		&processing,
		&tokens,
		&preview,
		&createdAt,
	)
	if err != nil {
		return rec, err
	}

	if err := json.Unmarshal([]byte(params), &rec.Result.Parameters); err != nil {
		return rec, fmt.Errorf("analysis_results.parameters: %w", err)
	}
	if processing.Valid {
		rec.Result.ProcessingTimeMs = models.Ptr(processing.Int64)
	}
	if tokens.Valid {
		rec.Result.TokenCount = models.Ptr(int(tokens.Int64))
	}
	rec.Result.PromptPreview = preview.String
	if t := timestampPtr(createdAt); t != nil {
		rec.Result.CreatedAt = *t
	}
	return rec, nil
}
