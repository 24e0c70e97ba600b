package handlers

import (
	"net/http"
	"time"

	"ai-sales-report/pkg/services"

	"github.com/gin-gonic/gin"
)

// MonitoringHandler はモニタリング関連の操作のハンドラです。
type MonitoringHandler struct {
	Service *services.MonitoringService
}

// NewMonitoringHandler は新しいMonitoringHandlerを生成します。
func NewMonitoringHandler(service *services.MonitoringService) *MonitoringHandler {
	return &MonitoringHandler{
		Service: service,
	}
}

// GetLogs は集計されたリクエストログとレポート実行履歴を返します。
func (h *MonitoringHandler) GetLogs(c *gin.Context) {
	var period time.Duration

	switch c.DefaultQuery("period", "24h") {
	case "1h":
		period = time.Hour
	case "7d":
		period = 7 * 24 * time.Hour
	default:
		period = 24 * time.Hour
	}

	c.JSON(http.StatusOK, h.Service.GetDashboardData(period))
}
