package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"life-reflection-api/pkg/models"
)

// DefaultMaxAttempts 既定の試行回数（初回を含む）
const DefaultMaxAttempts = 3

// ErrEmptyResponse 成功応答だが本文が空
var ErrEmptyResponse = errors.New("テキスト生成APIから空のレスポンスが返されました")

// Sleeper バックオフ待機。ctxが終了した場合はエラーを返す。
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepWithContext ctxを尊重してdだけ待機する
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Backoff 試行attempt（0始まり）の後に待つ時間: 2^attempt + 1 秒
func Backoff(attempt int) time.Duration {
	return time.Duration((1<<attempt)+1) * time.Second
}

// Retrier 一時的な失敗のみを逐次リトライする
type Retrier struct {
	MaxAttempts int
	Sleep       Sleeper
	Logger      *slog.Logger
}

// NewRetrier 新しいRetrierを作成
func NewRetrier(maxAttempts int, logger *slog.Logger) *Retrier {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrier{
		MaxAttempts: maxAttempts,
		Sleep:       SleepWithContext,
		Logger:      logger,
	}
}

// Do 生成を実行する。最終的に失敗した場合は最後のエラーを包んだExternalServiceErrorを返す。
func (r *Retrier) Do(ctx context.Context, gen Generator, prompt string, params GenerationParams) (*Response, error) {
	maxAttempts := r.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = SleepWithContext
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err := gen.Generate(ctx, prompt, params)
		if err == nil {
			if _, textErr := resp.PlainText(); textErr == nil {
				return resp, nil
			}
			err = ErrEmptyResponse
		}
		lastErr = err

		if attempt >= maxAttempts-1 || !IsTransient(err) {
			break
		}

		wait := Backoff(attempt)
		logger.WarnContext(ctx, "テキスト生成APIの呼び出しに失敗、リトライします",
			slog.String("provider", gen.Name()),
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", maxAttempts),
			slog.Duration("backoff", wait),
			slog.Any("error", err),
		)
		if sleepErr := sleep(ctx, wait); sleepErr != nil {
			lastErr = fmt.Errorf("リトライ待機中に中断されました: %w (last error: %v)", sleepErr, err)
			break
		}
	}

	return nil, &models.ExternalServiceError{
		Kind:    Classify(lastErr),
		Message: fmt.Sprintf("テキスト生成APIの呼び出しが失敗しました: %v", lastErr),
		Err:     lastErr,
	}
}
