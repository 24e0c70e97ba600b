package handlers

import (
	"net/http"
	"sync/atomic"

	config "ai-sales-report/configs"

	"github.com/gin-gonic/gin"
)

// AdminHandler は管理者向け操作のハンドラです。
// メンテナンスモード中はレポートAPIとヘルスチェックが503を返します。
type AdminHandler struct {
	AdminUsername string
	AdminPassword string

	maintenance atomic.Bool
}

// NewAdminHandler は新しいAdminHandlerを生成します。
func NewAdminHandler(cfg *config.Config) *AdminHandler {
	return &AdminHandler{
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
	}
}

// AdminCredentials は管理者認証のためのリクエストボディです。
type AdminCredentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AdminHandler) authorize(c *gin.Context) bool {
	var input AdminCredentials
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return false
	}

	// 管理者資格情報が未設定の場合は常に拒否する
	if h.AdminUsername == "" || h.AdminPassword == "" ||
		input.Username != h.AdminUsername || input.Password != h.AdminPassword {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return false
	}
	return true
}

// StartMaintenance はメンテナンスモードを開始します。
func (h *AdminHandler) StartMaintenance(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	h.maintenance.Store(true)
	c.JSON(http.StatusOK, gin.H{"message": "Maintenance mode started"})
}

// StopMaintenance はメンテナンスモードを停止します。
func (h *AdminHandler) StopMaintenance(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	h.maintenance.Store(false)
	c.JSON(http.StatusOK, gin.H{"message": "Maintenance mode stopped"})
}

// GetHealthStatus は現在のサーバーの状態を返します。
func (h *AdminHandler) GetHealthStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"isMaintenanceMode": h.maintenance.Load()})
}

// MaintenanceGuard はメンテナンスモード中のリクエストを503で拒否します。
func (h *AdminHandler) MaintenanceGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.maintenance.Load() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Server is in maintenance mode"})
			return
		}
		c.Next()
	}
}

// HealthCheck は外部のヘルスチェッカー（例: ロードバランサー）からのリクエストに応答します。
func (h *AdminHandler) HealthCheck(c *gin.Context) {
	if h.maintenance.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "message": "Server is in maintenance mode"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
