package main

import (
	"io"
	"log/slog"
	"os"
	"testing"

	config "life-reflection-api/configs"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	// テスト環境の設定
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	err := run(&config.Config{LLMProvider: "none", SampleDataDays: 7}, logger)
	assert.Error(t, err)

	err = run(&config.Config{LLMProvider: config.ProviderGemini, SampleDataDays: 7}, logger)
	assert.Error(t, err, "APIキーが未設定なら起動しない")
}
