package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	config "life-reflection-api/configs"
	"life-reflection-api/internal/app"
	"life-reflection-api/internal/observability"
)

var (
	application *app.Application
	setupErr    error
	once        sync.Once
)

// setupApp はアプリケーションを初期化します。
// サーバーレス環境ではリクエストごとに初期化が走らないようsync.Onceで一度だけ実行します。
// .envは読み込まず、環境変数はデプロイ先の設定から渡されます。
// 定期再生成ジョブはリクエスト間でプロセスが維持されないため登録しません。
func setupApp() (*app.Application, error) {
	once.Do(func() {
		cfg := config.LoadConfig()
		cfg.SampleDataCron = ""
		logger := observability.Init(observability.Options{Format: "json", Level: cfg.LogLevel})

		application, setupErr = app.Bootstrap(context.Background(), cfg, logger)
		if setupErr != nil {
			logger.Error("アプリケーションの初期化に失敗しました", slog.Any("error", setupErr))
			return
		}
		if setupErr = application.Start(context.Background()); setupErr != nil {
			logger.Error("サンプルデータの初期化に失敗しました", slog.Any("error", setupErr))
		}
	})
	return application, setupErr
}

// Handler はサーバーレス環境からのすべてのリクエストを処理するエントリーポイントです。
func Handler(w http.ResponseWriter, r *http.Request) {
	a, err := setupApp()
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":"error","message":"サーバーの初期化に失敗しました","code":"INTERNAL_ERROR"}`))
		return
	}
	a.Router.ServeHTTP(w, r)
}
