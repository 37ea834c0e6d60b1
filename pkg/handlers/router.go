package handlers

import (
	"net/http"
	"time"

	"life-reflection-api/pkg/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterDeps はルーターの構築に必要なハンドラとサービスです。
type RouterDeps struct {
	APIKey     string
	Analysis   *AnalysisHandler
	Data       *DataHandler
	Insights   *InsightsHandler
	Admin      *AdminHandler
	Monitoring *services.MonitoringService
}

// NewRouter はミドルウェアとルートを登録したGinエンジンを生成します。
func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()

	// ミドルウェアの登録
	r.Use(gin.Recovery())
	r.Use(d.Monitoring.LoggingMiddleware())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", APIKeyHeader, services.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Disposition", services.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// ヘルスチェックエンドポイント
	r.GET("/health", d.Admin.HealthCheck)

	monitoringHandler := NewMonitoringHandler(d.Monitoring)

	// APIバージョン1のルートグループ
	v1 := r.Group("/api/v1")
	v1.Use(APIKeyMiddleware(d.APIKey), d.Admin.MaintenanceMiddleware("/api/v1/admin"))
	{
		// 活動データAPI
		v1.GET("/activities", d.Data.ListActivities)
		v1.POST("/activities", d.Data.CreateActivity)
		v1.POST("/activities/import", d.Data.ImportSpreadsheet)
		v1.GET("/activities/:id", d.Data.GetActivity)
		v1.PUT("/activities/:id", d.Data.UpdateActivity)
		v1.DELETE("/activities/:id", d.Data.DeleteActivity)

		// 日次ムードAPI
		v1.GET("/daily-moods", d.Data.ListDailyMoods)
		v1.PUT("/daily-moods", d.Data.UpsertDailyMood)
		v1.GET("/daily-moods/:date", d.Data.GetDailyMood)

		// 分析API
		v1.POST("/analyze", d.Analysis.Analyze)
		v1.POST("/analyze/export", d.Analysis.ExportAnalysis)
		v1.GET("/analysis-history", d.Analysis.ListHistory)
		v1.GET("/analysis-history/:id", d.Analysis.GetHistory)
		v1.GET("/analysis-history/:id/export", d.Analysis.ExportHistory)

		// 統計的な洞察API
		v1.GET("/insights/mood-correlations", d.Insights.MoodCorrelations)

		v1.GET("/status", d.Analysis.GetStatus)
		v1.POST("/regenerate-data", d.Data.RegenerateData)

		// 管理者向けAPI
		admin := v1.Group("/admin")
		{
			admin.GET("/health-status", d.Admin.GetHealthStatus)
			admin.POST("/maintenance/start", d.Admin.StartMaintenance)
			admin.POST("/maintenance/stop", d.Admin.StopMaintenance)
		}

		// モニタリングAPI
		monitoring := v1.Group("/monitoring")
		{
			monitoring.GET("/logs", monitoringHandler.GetLogs)
		}
	}

	return r
}
