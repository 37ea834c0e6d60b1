// Package observability は構造化ログの初期化を行う。
package observability

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// Options ログ出力の設定
type Options struct {
	Format string // "json" | "text"（既定: text）
	Level  string // "debug" | "info" | "warn" | "error"（既定: info）
	Output io.Writer
}

// Init slogのロガーを作成し、既定のロガーと標準logの出力先に設定する。
// レベルとメッセージのキーはCloud Loggingに合わせて severity / message にする。
func Init(opts Options) *slog.Logger {
	logger := New(opts)
	slog.SetDefault(logger)

	log.SetFlags(0)
	log.SetOutput(&slogWriter{logger: logger, level: slog.LevelInfo})
	return logger
}

// New 既定のロガーを変更せずにロガーを作成
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{
		Level:       ParseLevel(opts.Level),
		ReplaceAttr: replaceAttr,
	}

	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}
	return slog.New(handler).With(slog.String("app", "life-reflection-api"))
}

func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.LevelKey:
		level := slog.LevelInfo
		switch v := a.Value.Any().(type) {
		case slog.Level:
			level = v
		case slog.Leveler:
			level = v.Level()
		}
		return slog.String("severity", severity(level))
	case slog.MessageKey:
		a.Key = "message"
	}
	return a
}

// ParseLevel ログレベル文字列を変換。不明な値はinfo。
func ParseLevel(v string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func severity(l slog.Level) string {
	switch {
	case l <= slog.LevelDebug:
		return "DEBUG"
	case l < slog.LevelWarn:
		return "INFO"
	case l < slog.LevelError:
		return "WARNING"
	default:
		return "ERROR"
	}
}

type slogWriter struct {
	logger *slog.Logger
	level  slog.Level
}

func (w *slogWriter) Write(p []byte) (int, error) {
	msg := strings.TrimSpace(string(p))
	if msg != "" {
		w.logger.Log(context.Background(), w.level, msg)
	}
	return len(p), nil
}
