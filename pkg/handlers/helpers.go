package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"life-reflection-api/pkg/models"

	"github.com/gin-gonic/gin"
)

// エラーコード
const (
	CodeMissingRequestBody = "MISSING_REQUEST_BODY"
	CodeInvalidParameters  = "INVALID_PARAMETERS"
	CodeNoData             = "NO_DATA"
	CodeNoMoodData         = "NO_MOOD_DATA"
	CodeGeminiAPIError     = "GEMINI_API_ERROR"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeDataFetchError     = "DATA_FETCH_ERROR"
	CodeMoodFetchError     = "MOOD_FETCH_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeMaintenance        = "MAINTENANCE"
	CodeRegenerateError    = "REGENERATE_ERROR"
	CodeImportError        = "IMPORT_ERROR"
	CodeStatusError        = "STATUS_ERROR"
)

func respondSuccess(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"status": "success",
		"data":   data,
	})
}

func respondList[T any](c *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   items,
		"count":  len(items),
	})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"status":  "error",
		"message": message,
		"code":    code,
	})
}

// respondAnalysisError 分析処理のエラーをHTTPステータスとエラーコードに対応付ける
func respondAnalysisError(c *gin.Context, err error) {
	var verr *models.ValidationError
	var ext *models.ExternalServiceError
	switch {
	case errors.As(err, &verr):
		respondError(c, http.StatusBadRequest, CodeInvalidParameters, "リクエストパラメータが不正です: "+verr.Error())
	case errors.As(err, &ext):
		respondError(c, http.StatusBadGateway, CodeGeminiAPIError, ext.Message)
	default:
		respondError(c, http.StatusInternalServerError, CodeInternalError, "分析中に内部エラーが発生しました")
	}
}

// dateBounds クエリの date_from / date_to を検証して返す
func dateBounds(c *gin.Context) (from, to *string, err error) {
	for _, b := range []struct {
		key string
		dst **string
	}{{"date_from", &from}, {"date_to", &to}} {
		v := strings.TrimSpace(c.Query(b.key))
		if v == "" {
			continue
		}
		if _, err := models.ParseDate(v); err != nil {
			return nil, nil, models.NewValidationError(b.key, "%s", err.Error())
		}
		*b.dst = &v
	}
	return from, to, nil
}

func int64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, CodeInvalidParameters, "IDが不正です: "+c.Param(name))
		return 0, false
	}
	return id, true
}
