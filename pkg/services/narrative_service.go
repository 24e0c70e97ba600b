package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	config "ai-sales-report/configs"
	"ai-sales-report/pkg/models"

	"go.uber.org/zap"
)

// PlaceholderNarrative テキスト生成に失敗し、フォールバックが有効な場合に本文へ入れる文章
const PlaceholderNarrative = "_AI narrative unavailable for this run. The statistics above were computed from the full dataset._"

// NarrativeOptions ナラティブ生成の実行パラメータ
type NarrativeOptions struct {
	Timeout     time.Duration // 1回の試行あたりのタイムアウト
	MaxAttempts int           // 初回 + リトライ回数
	RetryDelay  time.Duration
	Params      models.GenerationParams
}

// DefaultNarrativeOptions 60秒タイムアウト、リトライ1回
func DefaultNarrativeOptions() NarrativeOptions {
	return NarrativeOptions{
		Timeout:     60 * time.Second,
		MaxAttempts: 2,
		RetryDelay:  2 * time.Second,
		Params: models.GenerationParams{
			MaxNewTokens: 512,
			DoSample:     true,
			Temperature:  0.7,
		},
	}
}

// NarrativeService Summary Factsから自然言語のレポートを生成するサービス
type NarrativeService struct {
	client TextGenerator
	prompt *config.PromptConfig
	opts   NarrativeOptions
	logger *zap.Logger
}

// NewNarrativeService 新しいNarrativeServiceを作成。
// clientは呼び出し側で一度だけ初期化したものを渡す。
func NewNarrativeService(client TextGenerator, prompt *config.PromptConfig, opts NarrativeOptions, logger *zap.Logger) *NarrativeService {
	if prompt == nil {
		prompt = config.DefaultPromptConfig()
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NarrativeService{
		client: client,
		prompt: prompt,
		opts:   opts,
		logger: logger,
	}
}

// BuildPrompt Summary Factsとデータサンプルからプロンプトを構築
func (n *NarrativeService) BuildPrompt(facts *models.SummaryFacts, sample []models.SaleRecord) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("You are %s. %s\n\n", n.prompt.System.Role, n.prompt.Instruction))

	sb.WriteString("Your response MUST include the following markdown sections **with actual insights**:\n")
	for i, section := range n.prompt.Sections {
		sb.WriteString(fmt.Sprintf("%d. **%s** - %s\n", i+1, section.Title, section.Guidance))
	}
	sb.WriteString("\n")

	sb.WriteString("Facts:\n")
	sb.WriteString(FormatSummary(facts))
	sb.WriteString("\n\n")

	if len(sample) > 0 {
		sb.WriteString(fmt.Sprintf("Data sample (first %d of %d transactions):\n", len(sample), facts.RecordCount))
		sb.WriteString("order_id | product | quantity | unit_price | region | country | total_sales\n")
		for _, r := range sample {
			sb.WriteString(fmt.Sprintf("%d | %s | %d | %.2f | %s | %s | %.2f\n",
				r.OrderID, r.Product, r.Quantity, r.UnitPrice, r.Region, r.Country, r.Total))
		}
		sb.WriteString("\n")
	}

	if len(n.prompt.Charts) > 0 {
		sb.WriteString("Charts available:\n")
		for _, chart := range n.prompt.Charts {
			sb.WriteString(fmt.Sprintf("- %s\n", chart))
		}
		sb.WriteString("\n")
	}

	if len(n.prompt.Examples) > 0 {
		sb.WriteString("Example:\n")
		for _, example := range n.prompt.Examples {
			sb.WriteString(fmt.Sprintf("- %s\n", example))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(n.prompt.Closing)
	return sb.String()
}

// Generate プロンプトを送信し、トリム済みの応答をそのまま返す。
// 失敗時は *NarrativeError を返す。
func (n *NarrativeService) Generate(ctx context.Context, facts *models.SummaryFacts, sample []models.SaleRecord) (string, error) {
	prompt := n.BuildPrompt(facts, sample)

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= n.opts.MaxAttempts; attempt++ {
		attempts = attempt
		text, err := n.attempt(ctx, prompt)
		if err == nil {
			n.logger.Info("🤖 [ナラティブ] 生成が完了しました",
				zap.Int("attempt", attempt),
				zap.Int("chars", len(text)),
			)
			return text, nil
		}

		lastErr = err
		n.logger.Warn("⚠️ [ナラティブ] 生成に失敗しました",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", n.opts.MaxAttempts),
			zap.Error(err),
		)

		// 呼び出し元がキャンセルした場合はリトライしない
		if ctx.Err() != nil || attempt == n.opts.MaxAttempts {
			break
		}
		if err := sleepContext(ctx, n.opts.RetryDelay); err != nil {
			break
		}
	}

	return "", &NarrativeError{Attempts: attempts, Cause: lastErr}
}

func (n *NarrativeService) attempt(ctx context.Context, prompt string) (string, error) {
	attemptCtx := ctx
	if n.opts.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, n.opts.Timeout)
		defer cancel()
	}

	text, err := n.client.Generate(attemptCtx, prompt, n.opts.Params)
	if err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("タイムアウト（%v）: %w", n.opts.Timeout, err)
		}
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyNarrative
	}
	return text, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
