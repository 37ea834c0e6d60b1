package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"life-reflection-api/pkg/models"
	"life-reflection-api/pkg/services"
	"life-reflection-api/pkg/store"

	"github.com/gin-gonic/gin"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxHistoryLimit = 100
)

// AnalysisHandler は振り返り分析のハンドラです。
type AnalysisHandler struct {
	analysis *services.AnalysisService
	store    store.Store
	logger   *slog.Logger
}

// NewAnalysisHandler は新しいAnalysisHandlerを生成します。
func NewAnalysisHandler(analysis *services.AnalysisService, st store.Store, logger *slog.Logger) *AnalysisHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisHandler{analysis: analysis, store: st, logger: logger}
}

// analysisResponse 分析結果に履歴IDとプロバイダーを付けたレスポンス
type analysisResponse struct {
	ID       string `json:"id,omitempty"`
	Provider string `json:"provider"`
	models.AnalysisResult
}

type analysisRun struct {
	record     models.AnalysisRecord
	activities []models.Activity
	moods      []models.DailyMood
}

// Analyze は保存済みの活動・ムードデータを分析します。
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	run, ok := h.runAnalysis(c)
	if !ok {
		return
	}
	respondSuccess(c, http.StatusOK, analysisResponse{
		ID:             run.record.ID,
		Provider:       run.record.Provider,
		AnalysisResult: run.record.Result,
	})
}

// ExportAnalysis は分析を実行し、結果と対象データをExcelファイルで返します。
func (h *AnalysisHandler) ExportAnalysis(c *gin.Context) {
	run, ok := h.runAnalysis(c)
	if !ok {
		return
	}
	h.sendWorkbook(c, run.record, run.activities, run.moods)
}

// ListHistory は保存済みの分析結果を新しい順に返します。
func (h *AnalysisHandler) ListHistory(c *gin.Context) {
	limit := store.DefaultHistoryLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxHistoryLimit {
			respondError(c, http.StatusBadRequest, CodeInvalidParameters, fmt.Sprintf("limitは1〜%dの整数で指定してください", maxHistoryLimit))
			return
		}
		limit = n
	}

	records, err := h.store.ListAnalysisResults(c.Request.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "分析履歴の取得に失敗しました", slog.Any("error", err))
		respondError(c, http.StatusInternalServerError, CodeDataFetchError, "分析履歴の取得に失敗しました")
		return
	}
	respondList(c, records)
}

// GetHistory はIDで指定された分析結果を返します。
func (h *AnalysisHandler) GetHistory(c *gin.Context) {
	record, ok := h.lookupRecord(c)
	if !ok {
		return
	}
	respondSuccess(c, http.StatusOK, record)
}

// ExportHistory は保存済みの分析結果をExcelファイルで返します。
func (h *AnalysisHandler) ExportHistory(c *gin.Context) {
	record, ok := h.lookupRecord(c)
	if !ok {
		return
	}
	h.sendWorkbook(c, *record, nil, nil)
}

// GetStatus はストアの統計とテキスト生成APIの状態を返します。
func (h *AnalysisHandler) GetStatus(c *gin.Context) {
	ctx := c.Request.Context()
	stats, err := h.store.GetStatistics(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "状態確認に失敗しました", slog.Any("error", err))
		respondError(c, http.StatusInternalServerError, CodeStatusError, "状態確認に失敗しました: "+err.Error())
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"application": "healthy",
		"provider":    h.analysis.Provider(),
		"database":    stats,
		"gemini_api":  h.analysis.Status(ctx),
	})
}

func (h *AnalysisHandler) runAnalysis(c *gin.Context) (*analysisRun, bool) {
	ctx := c.Request.Context()

	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil || len(body) == 0 {
		if err == nil || errors.Is(err, io.EOF) {
			respondError(c, http.StatusBadRequest, CodeMissingRequestBody, "リクエストボディが必要です")
		} else {
			respondError(c, http.StatusBadRequest, CodeInvalidParameters, "リクエストパラメータが不正です: "+err.Error())
		}
		return nil, false
	}

	req, err := models.AnalysisRequestFromMap(body)
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidParameters, "リクエストパラメータが不正です: "+err.Error())
		return nil, false
	}

	var activities []models.Activity
	if req.DateFrom == nil && req.DateTo == nil {
		activities, err = h.store.GetAllActivities(ctx)
	} else {
		activities, err = h.store.GetActivitiesByDateRange(ctx, req.DateFrom, req.DateTo)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "活動データの取得に失敗しました", slog.Any("error", err))
		respondError(c, http.StatusInternalServerError, CodeDataFetchError, "活動データの取得に失敗しました")
		return nil, false
	}
	moods, err := h.store.GetDailyMoods(ctx, req.DateFrom, req.DateTo)
	if err != nil {
		h.logger.ErrorContext(ctx, "日次ムードデータの取得に失敗しました", slog.Any("error", err))
		respondError(c, http.StatusInternalServerError, CodeMoodFetchError, "日次ムードデータの取得に失敗しました")
		return nil, false
	}

	if len(activities) == 0 {
		respondError(c, http.StatusBadRequest, CodeNoData, "分析対象の活動データがありません")
		return nil, false
	}
	if len(moods) == 0 {
		respondError(c, http.StatusBadRequest, CodeNoMoodData, "分析対象のムードデータがありません")
		return nil, false
	}

	h.logger.InfoContext(ctx, "分析を開始します",
		slog.String("focus", req.Focus.String()),
		slog.String("detail_level", req.DetailLevel.String()),
		slog.String("response_style", req.ResponseStyle.String()),
		slog.Int("activities", len(activities)),
		slog.Int("moods", len(moods)),
	)
	result, err := h.analysis.Analyze(ctx, activities, moods, req)
	if err != nil {
		respondAnalysisError(c, err)
		return nil, false
	}

	record, err := h.store.SaveAnalysisResult(ctx, h.analysis.Provider(), *result)
	if err != nil {
		// 履歴の保存に失敗しても分析結果は返す
		h.logger.WarnContext(ctx, "分析結果の保存に失敗しました", slog.Any("error", err))
		record = models.AnalysisRecord{Provider: h.analysis.Provider(), Result: *result}
	}
	h.logger.InfoContext(ctx, "分析が正常に完了しました", slog.String("id", record.ID))

	return &analysisRun{record: record, activities: activities, moods: moods}, true
}

func (h *AnalysisHandler) lookupRecord(c *gin.Context) (*models.AnalysisRecord, bool) {
	id := c.Param("id")
	record, err := h.store.GetAnalysisResult(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, http.StatusNotFound, CodeNotFound, "分析結果が見つかりません: "+id)
		return nil, false
	}
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "分析結果の取得に失敗しました", slog.Any("error", err))
		respondError(c, http.StatusInternalServerError, CodeDataFetchError, "分析結果の取得に失敗しました")
		return nil, false
	}
	return record, true
}

func (h *AnalysisHandler) sendWorkbook(c *gin.Context, record models.AnalysisRecord, activities []models.Activity, moods []models.DailyMood) {
	buf, err := services.ExportWorkbook(record, activities, moods)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "Excelファイルの作成に失敗しました", slog.Any("error", err))
		respondError(c, http.StatusInternalServerError, CodeInternalError, "Excelファイルの作成に失敗しました")
		return
	}
	name := fmt.Sprintf("reflection-%s.xlsx", record.Result.CreatedAt.Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
