package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"life-reflection-api/pkg/models"
	"life-reflection-api/pkg/services"
	"life-reflection-api/pkg/store"

	"github.com/gin-gonic/gin"
)

// maxUploadBytes 取り込みファイルの上限サイズ
const maxUploadBytes = 10 << 20

// DataHandler は活動・ムードデータの参照と更新のハンドラです。
type DataHandler struct {
	store       store.Store
	sampleData  *services.SampleDataService
	spreadsheet *services.SpreadsheetService
	logger      *slog.Logger
}

// NewDataHandler は新しいDataHandlerを生成します。
func NewDataHandler(st store.Store, sampleData *services.SampleDataService, spreadsheet *services.SpreadsheetService, logger *slog.Logger) *DataHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataHandler{store: st, sampleData: sampleData, spreadsheet: spreadsheet, logger: logger}
}

// ListActivities は活動データを返します。date_from / date_to 指定時は日付の昇順、未指定時は新しい順です。
func (h *DataHandler) ListActivities(c *gin.Context) {
	from, to, err := dateBounds(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidParameters, err.Error())
		return
	}

	ctx := c.Request.Context()
	var activities []models.Activity
	if from == nil && to == nil {
		activities, err = h.store.GetAllActivities(ctx)
	} else {
		activities, err = h.store.GetActivitiesByDateRange(ctx, from, to)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "活動データ取得エラー", slog.Any("error", err))
		respondError(c, http.StatusInternalServerError, CodeDataFetchError, "活動データの取得に失敗しました")
		return
	}
	h.logger.InfoContext(ctx, "活動データを返却しました", slog.Int("count", len(activities)))
	respondList(c, activities)
}

// GetActivity はIDで指定された活動を返します。
func (h *DataHandler) GetActivity(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	activity, err := h.store.GetActivityByID(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, http.StatusNotFound, CodeNotFound, "活動が見つかりません")
		return
	}
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "活動データ取得エラー", slog.Any("error", err))
		respondError(c, http.StatusInternalServerError, CodeDataFetchError, "活動データの取得に失敗しました")
		return
	}
	respondSuccess(c, http.StatusOK, activity)
}

// CreateActivity は活動を1件登録します。
func (h *DataHandler) CreateActivity(c *gin.Context) {
	var activity models.Activity
	if !bindRecord(c, &activity) {
		return
	}
	if err := activity.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidParameters, err.Error())
		return
	}

	ctx := c.Request.Context()
	id, err := h.store.InsertActivity(ctx, activity)
	if err != nil {
		h.logger.ErrorContext(ctx, "活動の登録に失敗しました", slog.Any("error", err))
		respondError(c, http.StatusInternalServerError, CodeInternalError, "活動の登録に失敗しました")
		return
	}
	created, err := h.store.GetActivityByID(ctx, id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, CodeDataFetchError, "活動データの取得に失敗しました")
		return
	}
	respondSuccess(c, http.StatusCreated, created)
}

// UpdateActivity はIDで指定された活動を更新します。
func (h *DataHandler) UpdateActivity(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var activity models.Activity
	if !bindRecord(c, &activity) {
		return
	}
	if err := activity.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidParameters, err.Error())
		return
	}

	ctx := c.Request.Context()
	updated, err := h.store.UpdateActivity(ctx, id, activity)
	if err != nil {
		h.logger.ErrorContext(ctx, "活動の更新に失敗しました", slog.Any("error", err))
		respondError(c, http.StatusInternalServerError, CodeInternalError, "活動の更新に失敗しました")
		return
	}
	if !updated {
		respondError(c, http.StatusNotFound, CodeNotFound, "活動が見つかりません")
		return
	}
	stored, err := h.store.GetActivityByID(ctx, id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, CodeDataFetchError, "活動データの取得に失敗しました")
		return
	}
	respondSuccess(c, http.StatusOK, stored)
}

// DeleteActivity はIDで指定された活動を削除します。
func (h *DataHandler) DeleteActivity(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	deleted, err := h.store.DeleteActivity(c.Request.Context(), id)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "活動の削除に失敗しました", slog.Any("error", err))
		respondError(c, http.StatusInternalServerError, CodeInternalError, "活動の削除に失敗しました")
		return
	}
	if !deleted {
		respondError(c, http.StatusNotFound, CodeNotFound, "活動が見つかりません")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "活動を削除しました"})
}

// ListDailyMoods は日次ムードデータを日付の昇順で返します。
func (h *DataHandler) ListDailyMoods(c *gin.Context) {
	from, to, err := dateBounds(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidParameters, err.Error())
		return
	}
	moods, err := h.store.GetDailyMoods(c.Request.Context(), from, to)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "日次ムードデータ取得エラー", slog.Any("error", err))
		respondError(c, http.StatusInternalServerError, CodeMoodFetchError, "日次ムードデータの取得に失敗しました")
		return
	}
	h.logger.InfoContext(c.Request.Context(), "日次ムードデータを返却しました", slog.Int("count", len(moods)))
	respondList(c, moods)
}

// GetDailyMood は指定日のムードを返します。
func (h *DataHandler) GetDailyMood(c *gin.Context) {
	date := c.Param("date")
	if _, err := models.ParseDate(date); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidParameters, err.Error())
		return
	}
	mood, err := h.store.GetDailyMoodByDate(c.Request.Context(), date)
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, http.StatusNotFound, CodeNotFound, "ムードが記録されていません: "+date)
		return
	}
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "日次ムードデータ取得エラー", slog.Any("error", err))
		respondError(c, http.StatusInternalServerError, CodeMoodFetchError, "日次ムードデータの取得に失敗しました")
		return
	}
	respondSuccess(c, http.StatusOK, mood)
}

// UpsertDailyMood は日次ムードを登録します。同じ日付の記録は置き換えます。
func (h *DataHandler) UpsertDailyMood(c *gin.Context) {
	var mood models.DailyMood
	if !bindRecord(c, &mood) {
		return
	}
	if err := mood.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidParameters, err.Error())
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.InsertDailyMood(ctx, mood); err != nil {
		h.logger.ErrorContext(ctx, "日次ムードの登録に失敗しました", slog.Any("error", err))
		respondError(c, http.StatusInternalServerError, CodeInternalError, "日次ムードの登録に失敗しました")
		return
	}
	stored, err := h.store.GetDailyMoodByDate(ctx, mood.Date.String())
	if err != nil {
		respondError(c, http.StatusInternalServerError, CodeMoodFetchError, "日次ムードデータの取得に失敗しました")
		return
	}
	respondSuccess(c, http.StatusOK, stored)
}

// RegenerateData は活動・ムードデータを削除してサンプルデータを再投入します。
func (h *DataHandler) RegenerateData(c *gin.Context) {
	ctx := c.Request.Context()
	summary, err := h.sampleData.Regenerate(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "データ再生成エラー", slog.Any("error", err))
		respondError(c, http.StatusInternalServerError, CodeRegenerateError, "データ再生成に失敗しました: "+err.Error())
		return
	}
	stats, err := h.store.GetStatistics(ctx)
	if err != nil {
		respondError(c, http.StatusInternalServerError, CodeRegenerateError, "データ再生成に失敗しました: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"message":    "サンプルデータを再生成しました",
		"data":       stats,
		"generation": summary,
	})
}

// ImportSpreadsheet はアップロードされた .xlsx / .csv から活動・ムードデータを取り込みます。
func (h *DataHandler) ImportSpreadsheet(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeMissingRequestBody, "ファイルのアップロードに失敗しました: "+err.Error())
		return
	}
	defer file.Close()

	summary, err := h.spreadsheet.Import(c.Request.Context(), header.Filename, file)
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"status":       "error",
			"message":      verr.Message,
			"code":         CodeInvalidParameters,
			"skipped_rows": summary.SkippedRows,
		})
		return
	case err != nil:
		h.logger.ErrorContext(c.Request.Context(), "ファイルの取り込みに失敗しました", slog.Any("error", err))
		respondError(c, http.StatusInternalServerError, CodeImportError, "ファイルの取り込みに失敗しました")
		return
	}
	respondSuccess(c, http.StatusOK, summary)
}

// bindRecord はJSONボディをデコードします。失敗時はエラーレスポンスを返してfalse。
func bindRecord(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			respondError(c, http.StatusBadRequest, CodeMissingRequestBody, "リクエストボディが必要です")
		} else {
			respondError(c, http.StatusBadRequest, CodeInvalidParameters, "リクエストボディが不正です: "+err.Error())
		}
		return false
	}
	return true
}
