package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	config "life-reflection-api/configs"
	"life-reflection-api/pkg/llm"
	"life-reflection-api/pkg/models"
	"life-reflection-api/pkg/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoGenerator struct{ closed bool }

func (g *echoGenerator) Generate(context.Context, string, llm.GenerationParams) (*llm.Response, error) {
	return &llm.Response{Text: "ok"}, nil
}

func (g *echoGenerator) Name() string { return "echo" }

func (g *echoGenerator) Close() error {
	g.closed = true
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewGenerator(t *testing.T) {
	ctx := context.Background()

	gen, err := NewGenerator(ctx, &config.Config{LLMProvider: config.ProviderOpenAI, OpenAIAPIKey: "sk-test", OpenAIModel: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.Equal(t, "openai:gpt-4o-mini", gen.Name())

	_, err = NewGenerator(ctx, &config.Config{LLMProvider: config.ProviderGemini})
	assert.Error(t, err, "APIキーなしではGeminiクライアントを作成しない")

	_, err = NewGenerator(ctx, &config.Config{LLMProvider: "unknown"})
	assert.Error(t, err)
}

func TestApplicationLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	cfg := &config.Config{
		DBPath:         ":memory:",
		SampleData:     true,
		SampleDataDays: 7,
		SampleDataSeed: 3,
		SampleDataCron: "@every 1h",
	}
	gen := &echoGenerator{}

	a, err := New(ctx, cfg, config.DefaultGenerationSettings(), gen, discardLogger())
	require.NoError(t, err)
	require.NoError(t, a.Start(ctx))
	assert.Equal(t, 1, a.Scheduler.Jobs())
	assert.Equal(t, "echo", a.Provider())

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	a.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/daily-moods", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 7, body["count"])

	a.Scheduler.Stop(ctx)
	a.Close()
	assert.True(t, gen.closed)
}

func TestStartKeepsExistingRecords(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "life.db")

	st, err := store.NewSQLiteStore(ctx, dbPath, discardLogger())
	require.NoError(t, err)
	_, err = st.InsertActivity(ctx, models.Activity{
		Date:  models.Ptr(models.NewDate(2024, 1, 1)),
		Title: models.Ptr("自分で登録した活動"),
	})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	cfg := &config.Config{DBPath: dbPath, SampleData: true, SampleDataDays: 7, SampleDataSeed: 3}
	a, err := New(ctx, cfg, config.DefaultGenerationSettings(), &echoGenerator{}, discardLogger())
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.Start(ctx))
	defer a.Scheduler.Stop(ctx)

	activities, err := a.store.GetAllActivities(ctx)
	require.NoError(t, err)
	require.Len(t, activities, 1, "既存データがあればサンプルデータを投入しない")
	assert.Equal(t, "自分で登録した活動", *activities[0].Title)
}

func TestStartSeedsEmptyFileStore(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		DBPath:         filepath.Join(t.TempDir(), "life.db"),
		SampleData:     true,
		SampleDataDays: 7,
		SampleDataSeed: 3,
	}

	a, err := New(ctx, cfg, config.DefaultGenerationSettings(), &echoGenerator{}, discardLogger())
	require.NoError(t, err)
	require.NoError(t, a.Start(ctx))
	a.Scheduler.Stop(ctx)
	stats, err := a.store.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, stats.TotalMoods)
	seeded := stats.TotalActivities
	a.Close()

	// 再起動してもサンプルデータは再生成されない
	a, err = New(ctx, cfg, config.DefaultGenerationSettings(), &echoGenerator{}, discardLogger())
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.Start(ctx))
	defer a.Scheduler.Stop(ctx)
	stats, err = a.store.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, seeded, stats.TotalActivities)
	assert.Equal(t, 7, stats.TotalMoods)
}

func TestStartRejectsBadCron(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{DBPath: ":memory:", SampleDataDays: 7, SampleDataCron: "whenever"}

	a, err := New(ctx, cfg, config.DefaultGenerationSettings(), &echoGenerator{}, discardLogger())
	require.NoError(t, err)
	defer a.Close()
	assert.Error(t, a.Start(ctx))
}

func TestBootstrap(t *testing.T) {
	ctx := context.Background()

	_, err := Bootstrap(ctx, &config.Config{LLMProvider: "none", SampleDataDays: 7}, discardLogger())
	assert.Error(t, err)

	cfg := &config.Config{
		LLMProvider:          config.ProviderOpenAI,
		OpenAIAPIKey:         "sk-test",
		OpenAIModel:          "gpt-4o-mini",
		DBPath:               ":memory:",
		SampleDataDays:       7,
		GenerationConfigPath: "does-not-exist.yaml",
	}
	a, err := Bootstrap(ctx, cfg, discardLogger())
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, "openai:gpt-4o-mini", a.Provider())
}
