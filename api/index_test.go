package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")
	t.Setenv("DB_PATH", ":memory:")
	t.Setenv("GENERATION_CONFIG_PATH", "../configs/generation.yaml")
	t.Setenv("SAMPLE_DATA_CRON", "@every 1m")
	t.Setenv("LOG_LEVEL", "error")

	w := httptest.NewRecorder()
	Handler(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	require.NotNil(t, application)
	assert.Zero(t, application.Scheduler.Jobs(), "サーバーレスでは定期ジョブを登録しない")
	assert.Equal(t, "openai:gpt-4o-mini", application.Provider())
}
