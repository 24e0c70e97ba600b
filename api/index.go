package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	config "ai-sales-report/configs"
	"ai-sales-report/pkg/app"
	"ai-sales-report/pkg/logging"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	engine   *gin.Engine
	setupErr error
	once     sync.Once
)

// availableFeatures 認証情報が揃っている外部サービスだけを有効にする
func availableFeatures(cfg *config.Config) app.Features {
	return app.Features{
		Narrative: cfg.Validate(true, false) == nil,
		Mail:      cfg.Validate(false, true) == nil,
	}
}

// setupApp はGinアプリケーションを初期化します。
// サーバーレス環境では、リクエストごとに初期化が走らないようsync.Onceで一度だけ実行します。
func setupApp() (*gin.Engine, error) {
	once.Do(func() {
		// 環境変数はデプロイ先の設定から読み込まれるため、ここではgodotenvを呼び出しません。
		cfg := config.LoadConfig()
		// 書き込み可能なのは一時ディレクトリのみ
		if os.Getenv("OUTPUT_DIR") == "" {
			cfg.OutputDir = filepath.Join(os.TempDir(), "sales-report")
		}

		logger, err := logging.NewLogger(cfg.Environment, cfg.LogLevel, false)
		if err != nil {
			setupErr = err
			return
		}

		features := availableFeatures(cfg)
		logger.Info("🟢 [setupApp] 初期化します",
			zap.Bool("narrative", features.Narrative),
			zap.Bool("email", features.Mail),
		)

		svc, err := app.NewReportService(context.Background(), cfg, features, logger)
		if err != nil {
			logger.Error("❌ [setupApp] 初期化に失敗しました", zap.Error(err))
			setupErr = err
			return
		}

		gin.SetMode(gin.ReleaseMode)
		engine = app.NewRouter(cfg, svc, features, logger)
	})
	return engine, setupErr
}

// Handler はサーバーレス関数のエントリーポイントです。
func Handler(w http.ResponseWriter, r *http.Request) {
	// Ginアプリケーションをセットアップ（初回のみ実行される）
	e, err := setupApp()
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"application setup failed"}`))
		return
	}
	e.ServeHTTP(w, r)
}
