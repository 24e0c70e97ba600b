package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterConfig ルーター構築に必要な依存関係
type RouterConfig struct {
	Reports        *ReportHandler
	Admin          *AdminHandler
	Monitoring     *MonitoringHandler
	APIKey         string
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter Ginルーターを初期化してエンドポイントを登録する
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// ミドルウェアの登録
	if cfg.Monitoring != nil {
		r.Use(cfg.Monitoring.Service.LoggingMiddleware())
	}
	r.Use(cors.Default())

	// ヘルスチェックエンドポイント
	r.GET("/health", cfg.Admin.HealthCheck)

	// APIバージョン1のルートグループ
	v1 := r.Group("/api/v1")
	v1.Use(APIKeyAuth(cfg.APIKey))
	{
		// 管理者向けAPI
		admin := v1.Group("/admin")
		{
			admin.GET("/health-status", cfg.Admin.GetHealthStatus)
			admin.POST("/maintenance/start", cfg.Admin.StartMaintenance)
			admin.POST("/maintenance/stop", cfg.Admin.StopMaintenance)
		}

		// モニタリングAPI
		if cfg.Monitoring != nil {
			monitoring := v1.Group("/monitoring")
			{
				monitoring.GET("/logs", cfg.Monitoring.GetLogs)
			}
		}

		// レポートAPI
		reports := v1.Group("/reports")
		reports.Use(cfg.Admin.MaintenanceGuard(), NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Middleware())
		{
			reports.POST("/preview", cfg.Reports.PreviewReport)
			reports.POST("/send", cfg.Reports.SendReport)
		}
	}

	return r
}
