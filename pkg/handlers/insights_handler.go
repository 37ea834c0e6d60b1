package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"life-reflection-api/pkg/models"
	"life-reflection-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// InsightsHandler LLMを使わない統計的な洞察のハンドラ
type InsightsHandler struct {
	statistics *services.StatisticsService
	logger     *slog.Logger
}

func NewInsightsHandler(statistics *services.StatisticsService, logger *slog.Logger) *InsightsHandler {
	return &InsightsHandler{statistics: statistics, logger: logger}
}

// MoodCorrelations は活動カテゴリとムードの相関レポートを返します。
func (h *InsightsHandler) MoodCorrelations(c *gin.Context) {
	from, to, err := dateBounds(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidParameters, err.Error())
		return
	}

	report, err := h.statistics.MoodCorrelations(c.Request.Context(), from, to)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			respondError(c, http.StatusBadRequest, CodeNoMoodData, verr.Error())
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "ムード相関分析エラー", slog.Any("error", err))
		respondError(c, http.StatusInternalServerError, CodeDataFetchError, "相関分析用データの取得に失敗しました")
		return
	}
	respondSuccess(c, http.StatusOK, report)
}
