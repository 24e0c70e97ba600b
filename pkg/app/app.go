// Package app は設定からレポートパイプラインとHTTPルーターを組み立てます。
package app

import (
	"context"
	"fmt"
	"net/http"

	config "ai-sales-report/configs"
	"ai-sales-report/pkg/azure"
	"ai-sales-report/pkg/gemini"
	"ai-sales-report/pkg/handlers"
	"ai-sales-report/pkg/mailer"
	"ai-sales-report/pkg/models"
	"ai-sales-report/pkg/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Features 外部サービスを使うかどうか
type Features struct {
	Narrative bool
	Mail      bool
}

// NewTextGenerator 設定されたプロバイダのクライアントを1つだけ作成する
func NewTextGenerator(ctx context.Context, c *config.Config) (services.TextGenerator, error) {
	switch c.NarrativeProvider {
	case config.ProviderAzure:
		return azure.NewOpenAIClient(
			c.AzureOpenAIEndpoint,
			c.AzureOpenAIAPIKey,
			c.AzureOpenAIAPIVersion,
			c.AzureOpenAIDeploymentName,
			&http.Client{Timeout: c.NarrativeTimeout},
		), nil
	case config.ProviderGemini:
		return gemini.NewClient(ctx, c.GeminiAPIKey, c.GeminiModel, gemini.Options{})
	default:
		return nil, &config.ConfigError{Reason: fmt.Sprintf("未対応の NARRATIVE_PROVIDER です: %s", c.NarrativeProvider)}
	}
}

// NewReportService 設定からパイプラインを組み立てる。
// 無効な機能については外部サービスのクライアントを作らない。
func NewReportService(ctx context.Context, c *config.Config, features Features, log *zap.Logger) (*services.ReportService, error) {
	deps := services.ReportDeps{
		Statistics: services.NewStatisticsService(log),
		Charts:     services.NewChartService(c.OutputDir, log),
		Subject:    c.ReportSubject,
		Logger:     log,
	}

	if features.Narrative {
		client, err := NewTextGenerator(ctx, c)
		if err != nil {
			return nil, err
		}
		prompt, err := config.LoadPromptConfig(c.PromptFile)
		if err != nil {
			return nil, &config.ConfigError{Reason: err.Error()}
		}

		opts := services.DefaultNarrativeOptions()
		opts.Timeout = c.NarrativeTimeout
		opts.Params = models.GenerationParams{
			MaxNewTokens: c.NarrativeMaxTokens,
			DoSample:     c.NarrativeTemperature > 0,
			Temperature:  c.NarrativeTemperature,
		}
		deps.Narrative = services.NewNarrativeService(client, prompt, opts, log)
	}

	if c.ExportWorkbook {
		deps.Exporter = services.NewExportService(c.OutputDir, log)
	}

	if features.Mail {
		deps.Dispatcher = mailer.NewSMTPDispatcher(mailer.Options{
			Host:      c.SMTPHost,
			Port:      c.SMTPPort,
			Username:  c.SMTPUsername,
			Password:  c.SMTPPassword,
			Recipient: c.ReportRecipient,
			Timeout:   c.SMTPTimeout,
		}, log)
	}

	return services.NewReportService(deps), nil
}

// ReportOptions 設定値からパイプラインのオプションを作る
func ReportOptions(c *config.Config, features Features) services.ReportOptions {
	return services.ReportOptions{
		Records:          c.RecordCount,
		Seed:             c.SimulatorSeed,
		SampleRows:       c.SampleRows,
		SkipNarrative:    !features.Narrative,
		SkipEmail:        !features.Mail,
		AllowPlaceholder: c.NarrativeFallback,
	}
}

// NewRouter レポートAPIのGinルーターを組み立てる
func NewRouter(c *config.Config, runner handlers.ReportRunner, features Features, log *zap.Logger) *gin.Engine {
	monitoring := services.NewMonitoringService(log)
	opts := ReportOptions(c, features)

	return handlers.NewRouter(handlers.RouterConfig{
		Reports: handlers.NewReportHandler(runner, monitoring, handlers.ReportDefaults{
			Records:          opts.Records,
			Seed:             opts.Seed,
			SampleRows:       opts.SampleRows,
			SkipNarrative:    opts.SkipNarrative,
			AllowPlaceholder: opts.AllowPlaceholder,
		}, log),
		Admin:          handlers.NewAdminHandler(c),
		Monitoring:     handlers.NewMonitoringHandler(monitoring),
		APIKey:         c.APIKey,
		RateLimitRPS:   c.RateLimitRPS,
		RateLimitBurst: c.RateLimitBurst,
	})
}
