package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"ai-sales-report/pkg/models"

	"go.uber.org/zap"
)

// 既定値
const (
	DefaultRecordCount = 50
	DefaultSampleRows  = 20
	DefaultSubject     = "Daily AI Sales Summary"
)

// bodySeparator 統計サマリーとナラティブの区切り
const bodySeparator = "\n\n---\n\n"

// ReportOptions 1回のパイプライン実行のオプション
type ReportOptions struct {
	Records          int
	Seed             *int64
	SampleRows       int
	SkipNarrative    bool
	SkipEmail        bool
	AllowPlaceholder bool // ナラティブ生成失敗時にプレースホルダーで続行する
	SeparateRunDir   bool // 成果物を出力ディレクトリ直下ではなく <出力先>/<RunID>/ に書き出す
}

// ReportDeps ReportServiceの依存関係。NarrativeとExporterとDispatcherはnil可。
type ReportDeps struct {
	Statistics *StatisticsService
	Narrative  *NarrativeService
	Charts     *ChartService
	Exporter   *ExportService
	Dispatcher Dispatcher
	Subject    string
	Clock      func() time.Time
	Logger     *zap.Logger
}

// ReportService シミュレーションから送信までのパイプラインを組み立てる
type ReportService struct {
	deps ReportDeps
}

// NewReportService 新しいReportServiceを作成
func NewReportService(deps ReportDeps) *ReportService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Statistics == nil {
		deps.Statistics = NewStatisticsService(deps.Logger)
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Subject == "" {
		deps.Subject = DefaultSubject
	}
	return &ReportService{deps: deps}
}

// ComposeBody メール本文（サマリー + 区切り + ナラティブ）
func ComposeBody(summary, narrative string) string {
	return summary + bodySeparator + narrative
}

// Build データ生成・統計・ナラティブ・チャート・ワークブックを実行し、送信前のレポートを返す
func (s *ReportService) Build(ctx context.Context, opts ReportOptions) (*models.Report, error) {
	log := s.deps.Logger
	if opts.Records <= 0 {
		opts.Records = DefaultRecordCount
	}
	if opts.SampleRows <= 0 {
		opts.SampleRows = DefaultSampleRows
	}

	// ステップ1: データ生成
	ds, err := NewSalesSimulator(opts.Seed, s.deps.Clock).Generate(opts.Records)
	if err != nil {
		return nil, fmt.Errorf("データ生成に失敗: %w", err)
	}
	log.Info("🎲 [パイプライン] データを生成しました",
		zap.String("run_id", ds.RunID),
		zap.Int("records", len(ds.Records)),
	)

	// ステップ2: 統計
	facts, err := s.deps.Statistics.Summarize(ds)
	if err != nil {
		return nil, fmt.Errorf("統計計算に失敗: %w", err)
	}
	report := &models.Report{
		RunID:       ds.RunID,
		GeneratedAt: s.deps.Clock(),
		Facts:       facts,
		SummaryText: FormatSummary(facts),
	}

	// ステップ3: ナラティブ
	if err := s.narrate(ctx, report, ds, opts); err != nil {
		return nil, err
	}

	// ステップ4: チャート
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.deps.Charts != nil {
		charts, err := s.deps.Charts.RenderTo(runDir(s.deps.Charts.OutputDir(), ds.RunID, opts), ds)
		if err != nil {
			return nil, err
		}
		report.Charts = charts
	}

	// ステップ5: ワークブック（失敗しても添付から外すだけ）
	if s.deps.Exporter != nil {
		path, err := s.deps.Exporter.ExportTo(runDir(s.deps.Exporter.OutputDir(), ds.RunID, opts), ds, facts)
		if err != nil {
			log.Warn("⚠️ [パイプライン] ワークブックの出力をスキップします", zap.Error(err))
		} else {
			report.WorkbookPath = path
		}
	}

	report.Message = models.ReportMessage{
		Subject:     s.deps.Subject,
		Body:        ComposeBody(report.SummaryText, report.Narrative),
		Attachments: attachmentsOf(report),
	}
	return report, nil
}

func (s *ReportService) narrate(ctx context.Context, report *models.Report, ds models.SaleDataset, opts ReportOptions) error {
	if opts.SkipNarrative || s.deps.Narrative == nil {
		report.Narrative = PlaceholderNarrative
		report.Placeholder = true
		s.deps.Logger.Info("⏭️ [パイプライン] ナラティブ生成をスキップしました")
		return nil
	}

	text, err := s.deps.Narrative.Generate(ctx, report.Facts, ds.Sample(opts.SampleRows))
	if err == nil {
		report.Narrative = text
		return nil
	}

	var narrativeErr *NarrativeError
	if opts.AllowPlaceholder && errors.As(err, &narrativeErr) && ctx.Err() == nil {
		s.deps.Logger.Warn("⚠️ [パイプライン] ナラティブ生成に失敗したためプレースホルダーを使用します", zap.Error(err))
		report.Narrative = PlaceholderNarrative
		report.Placeholder = true
		return nil
	}
	return err
}

// runDir 並行する実行同士で成果物が上書きされないよう実行ごとのディレクトリを返す
func runDir(base, runID string, opts ReportOptions) string {
	if !opts.SeparateRunDir {
		return base
	}
	return filepath.Join(base, runID)
}

func attachmentsOf(report *models.Report) []string {
	paths := make([]string, 0, len(report.Charts)+1)
	for _, chart := range report.Charts {
		paths = append(paths, chart.Path)
	}
	if report.WorkbookPath != "" {
		paths = append(paths, report.WorkbookPath)
	}
	return paths
}

// Run Buildしたレポートを送信する。送信に失敗した場合はエラーを返し、成功ログは出さない。
func (s *ReportService) Run(ctx context.Context, opts ReportOptions) (*models.Report, error) {
	report, err := s.Build(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := s.Dispatch(ctx, report, opts.SkipEmail); err != nil {
		return nil, err
	}
	return report, nil
}

// Dispatch Build済みのレポートを送信する。
// skipがfalseで送信手段が設定されていない場合は ErrMailNotConfigured を返す。
func (s *ReportService) Dispatch(ctx context.Context, report *models.Report, skip bool) error {
	if skip {
		s.deps.Logger.Info("⏭️ [パイプライン] メール送信をスキップしました", zap.String("run_id", report.RunID))
		return nil
	}
	if s.deps.Dispatcher == nil {
		return ErrMailNotConfigured
	}

	if err := s.deps.Dispatcher.Send(ctx, report.Message); err != nil {
		return fmt.Errorf("レポートの送信に失敗: %w", err)
	}
	report.Dispatched = true
	s.deps.Logger.Info("✅ [パイプライン] レポートを送信しました",
		zap.String("run_id", report.RunID),
		zap.Int("attachments", len(report.Message.Attachments)),
	)
	return nil
}
