package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"ai-sales-report/pkg/app"
	"ai-sales-report/pkg/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func features() app.Features {
	return app.Features{Narrative: !noAI, Mail: !noEmail}
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// runReport パイプラインを1回実行し、最終レポートを標準出力に書き出す
func runReport(cmd *cobra.Command, args []string) error {
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

	logger.Info("🚀 [CLI] レポート生成を開始します",
		zap.Int("records", cfg.RecordCount),
		zap.String("output_dir", cfg.OutputDir),
		zap.Bool("email", f.Mail),
		zap.Bool("narrative", f.Narrative),
	)

	opts := app.ReportOptions(cfg, f)
	report, err := svc.Build(ctx, opts)
	if err != nil {
		logger.Error("❌ [CLI] レポート生成に失敗しました", zap.Error(err), zap.Int("exit_code", exitCode(err)))
		return err
	}

	// 送信に失敗しても生成済みのレポートは標準出力に残す
	out := cmd.OutOrStdout()
	printReport(out, report)

	if err := svc.Dispatch(ctx, report, opts.SkipEmail); err != nil {
		logger.Error("❌ [CLI] レポートの送信に失敗しました", zap.Error(err), zap.Int("exit_code", exitCode(err)))
		return err
	}

	printStatus(out, report)
	return nil
}

func printReport(w io.Writer, report *models.Report) {
	fmt.Fprintf(w, "Subject: %s\n\n%s\n", report.Message.Subject, report.Message.Body)
	if len(report.Message.Attachments) > 0 {
		fmt.Fprintln(w, "\nAttachments:")
		for _, path := range report.Message.Attachments {
			fmt.Fprintf(w, "  - %s\n", path)
		}
	}
}

func printStatus(w io.Writer, report *models.Report) {
	if report.Dispatched {
		fmt.Fprintln(w, "\n✅ Report generated and emailed successfully.")
	} else {
		fmt.Fprintln(w, "\n✅ Report generated (email skipped).")
	}
}
