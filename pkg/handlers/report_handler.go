package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"ai-sales-report/pkg/mailer"
	"ai-sales-report/pkg/models"
	"ai-sales-report/pkg/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 1リクエストで生成できるレコード数の上限
const maxRecordsPerRequest = 10000

// ReportRunner レポートパイプライン（services.ReportService）
type ReportRunner interface {
	Build(ctx context.Context, opts services.ReportOptions) (*models.Report, error)
	Run(ctx context.Context, opts services.ReportOptions) (*models.Report, error)
}

// ReportDefaults リクエストで省略された項目の既定値
type ReportDefaults struct {
	Records          int
	Seed             *int64
	SampleRows       int
	SkipNarrative    bool
	AllowPlaceholder bool
}

// ReportHandler レポートのプレビュー・送信API
type ReportHandler struct {
	runner     ReportRunner
	monitoring *services.MonitoringService
	defaults   ReportDefaults
	logger     *zap.Logger
}

// NewReportHandler 新しいReportHandlerを作成
func NewReportHandler(runner ReportRunner, monitoring *services.MonitoringService, defaults ReportDefaults, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{
		runner:     runner,
		monitoring: monitoring,
		defaults:   defaults,
		logger:     logger,
	}
}

func (h *ReportHandler) options(c *gin.Context) (services.ReportOptions, bool) {
	var req models.ReportRequest
	// ボディなしのリクエストは既定値で実行する
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストの形式が正しくありません", "details": err.Error()})
		return services.ReportOptions{}, false
	}
	if req.Records < 0 || req.Records > maxRecordsPerRequest {
		c.JSON(http.StatusBadRequest, gin.H{"error": "records は 1〜10000 の範囲で指定してください"})
		return services.ReportOptions{}, false
	}

	opts := services.ReportOptions{
		Records:          h.defaults.Records,
		Seed:             h.defaults.Seed,
		SampleRows:       h.defaults.SampleRows,
		SkipNarrative:    h.defaults.SkipNarrative,
		AllowPlaceholder: h.defaults.AllowPlaceholder,
	}
	// 同時リクエストの成果物が混ざらないよう実行ごとに分ける
	opts.SeparateRunDir = true
	if req.Records > 0 {
		opts.Records = req.Records
	}
	if req.Seed != nil {
		opts.Seed = req.Seed
	}
	if req.IncludeNarrative != nil {
		opts.SkipNarrative = opts.SkipNarrative || !*req.IncludeNarrative
	}
	return opts, true
}

// PreviewReport レポートを生成して返す。メールは送信しない。
func (h *ReportHandler) PreviewReport(c *gin.Context) {
	opts, ok := h.options(c)
	if !ok {
		return
	}
	opts.SkipEmail = true

	started := time.Now()
	report, err := h.runner.Build(c.Request.Context(), opts)
	h.record(started, report, err)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// SendReport レポートを生成してメールで送信する
func (h *ReportHandler) SendReport(c *gin.Context) {
	opts, ok := h.options(c)
	if !ok {
		return
	}

	started := time.Now()
	report, err := h.runner.Run(c.Request.Context(), opts)
	h.record(started, report, err)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) record(started time.Time, report *models.Report, err error) {
	if h.monitoring != nil {
		h.monitoring.RecordRun(started, report, err)
	}
}

// respondError パイプラインのエラーをHTTPステータスに対応付ける
func (h *ReportHandler) respondError(c *gin.Context, err error) {
	var (
		narrativeErr *services.NarrativeError
		transportErr *mailer.TransportError
		renderErr    *services.RenderError
	)

	status := http.StatusInternalServerError
	message := "レポートの生成に失敗しました"
	switch {
	case errors.Is(err, services.ErrMailNotConfigured):
		status = http.StatusServiceUnavailable
		message = "メール送信が設定されていないため送信できません"
	case errors.As(err, &narrativeErr):
		status = http.StatusBadGateway
		message = "ナラティブ生成サービスの呼び出しに失敗しました"
	case errors.As(err, &transportErr):
		status = http.StatusBadGateway
		message = "レポートのメール送信に失敗しました"
	case errors.As(err, &renderErr):
		message = "チャートの描画に失敗しました"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		message = "処理がタイムアウトしました"
	}

	h.logger.Error("❌ [API] レポート処理に失敗しました", zap.Int("status", status), zap.Error(err))
	c.JSON(status, gin.H{"error": message, "details": err.Error()})
}
