package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	config "life-reflection-api/configs"

	"github.com/gin-gonic/gin"
)

// AdminHandler は管理者向け操作とメンテナンスモードを扱うハンドラです。
type AdminHandler struct {
	adminUsername string
	adminPassword string
	maintenance   atomic.Bool
	logger        *slog.Logger
}

// NewAdminHandler は新しいAdminHandlerを生成します。
func NewAdminHandler(cfg *config.Config, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{
		adminUsername: cfg.AdminUsername,
		adminPassword: cfg.AdminPassword,
		logger:        logger,
	}
}

// AdminCredentials は管理者認証のためのリクエストボディです。
type AdminCredentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// StartMaintenance はメンテナンスモードを開始します。
func (h *AdminHandler) StartMaintenance(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	h.maintenance.Store(true)
	h.logger.WarnContext(c.Request.Context(), "メンテナンスモードを開始しました")
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Maintenance mode started"})
}

// StopMaintenance はメンテナンスモードを停止します。
func (h *AdminHandler) StopMaintenance(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	h.maintenance.Store(false)
	h.logger.InfoContext(c.Request.Context(), "メンテナンスモードを停止しました")
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Maintenance mode stopped"})
}

// GetHealthStatus は現在のサーバーの状態を返します。
func (h *AdminHandler) GetHealthStatus(c *gin.Context) {
	respondSuccess(c, http.StatusOK, gin.H{"isMaintenanceMode": h.maintenance.Load()})
}

// InMaintenance はメンテナンスモード中かどうかを返します。
func (h *AdminHandler) InMaintenance() bool {
	return h.maintenance.Load()
}

// HealthCheck は外部のヘルスチェッカー（例: ロードバランサー）からのリクエストに応答します。
func (h *AdminHandler) HealthCheck(c *gin.Context) {
	if h.maintenance.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "message": "Server is in maintenance mode"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// MaintenanceMiddleware はメンテナンスモード中、管理者API以外へのリクエストを503で拒否します。
func (h *AdminHandler) MaintenanceMiddleware(adminPrefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.maintenance.Load() && !strings.HasPrefix(c.Request.URL.Path, adminPrefix) {
			respondError(c, http.StatusServiceUnavailable, CodeMaintenance, "メンテナンス中です。しばらくしてから再度お試しください。")
			return
		}
		c.Next()
	}
}

func (h *AdminHandler) authorize(c *gin.Context) bool {
	if h.adminPassword == "" {
		respondError(c, http.StatusForbidden, CodeUnauthorized, "管理者認証が設定されていません")
		return false
	}
	var input AdminCredentials
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidParameters, "Username and password are required")
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(input.Username), []byte(h.adminUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(input.Password), []byte(h.adminPassword)) == 1
	if !userOK || !passOK {
		h.logger.WarnContext(c.Request.Context(), "管理者認証に失敗しました", slog.String("username", input.Username))
		respondError(c, http.StatusUnauthorized, CodeUnauthorized, "Invalid credentials")
		return false
	}
	return true
}
