package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ai-sales-report/pkg/app"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// serve HTTP APIサーバーを起動し、シグナルを受けたらグレースフルに停止する
func serve(cmd *cobra.Command, args []string) error {
	f := features()
	if err := cfg.Validate(f.Narrative, f.Mail); err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	svc, err := app.NewReportService(ctx, cfg, f, logger)
	if err != nil {
		return err
	}

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.NewRouter(cfg, svc, f, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("🌐 [サーバー] 起動しました", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("サーバーの起動に失敗: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("🛑 [サーバー] 停止します")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("サーバーの停止に失敗: %w", err)
	}
	return nil
}
