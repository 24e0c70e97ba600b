package main

import (
	"errors"
	"fmt"
	"os"

	config "ai-sales-report/configs"
	"ai-sales-report/pkg/logging"
	"ai-sales-report/pkg/mailer"
	"ai-sales-report/pkg/services"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// 終了コード
const (
	exitOK         = 0
	exitUnexpected = 1
	exitConfig     = 2
	exitNarrative  = 3
	exitTransport  = 4
	exitRender     = 5
)

var (
	// Global flags
	envFile          string
	verbose          bool
	records          int
	seed             int64
	outputDir        string
	noEmail          bool
	noAI             bool
	allowPlaceholder bool

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd 引数なしの場合はレポートを1回生成して送信する
var rootCmd = &cobra.Command{
	Use:   "sales-report",
	Short: "Generate and email the daily AI sales summary",
	Long: `Simulates a day of sales transactions, summarizes them statistically,
asks a text-generation service for a business narrative, renders charts
and emails the composed report.

Credentials are read from the environment (or a .env file):
  AZURE_OPENAI_API_KEY / GEMINI_API_KEY, SMTP_USERNAME, SMTP_PASSWORD`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runReport,
}

// runCmd は rootCmd と同じ処理を明示的に実行する
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the report pipeline once",
	RunE:  runReport,
}

// serveCmd HTTP APIサーバーを起動する
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the report pipeline over HTTP",
	RunE:  serve,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&envFile, "env-file", "", "path to a .env file (default: ./.env if present)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flags.IntVarP(&records, "records", "n", 0, "number of transactions to simulate (default: RECORD_COUNT)")
	flags.Int64Var(&seed, "seed", 0, "seed for reproducible datasets (default: SIMULATOR_SEED or time-based)")
	flags.StringVarP(&outputDir, "output-dir", "o", "", "directory for charts and workbook (default: OUTPUT_DIR)")
	flags.BoolVar(&noEmail, "no-email", false, "build the report without sending it")
	flags.BoolVar(&noAI, "no-ai", false, "skip the narrative and use a placeholder")
	flags.BoolVar(&allowPlaceholder, "allow-placeholder", false, "continue with a placeholder when the narrative fails")

	rootCmd.AddCommand(runCmd, serveCmd)
}

// setup .envと設定を読み込み、フラグで上書きしてロガーを初期化する
func setup(cmd *cobra.Command, args []string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return &config.ConfigError{Reason: fmt.Sprintf(".envファイルを読み込めません: %v", err)}
		}
	} else {
		// .env は任意
		_ = godotenv.Load()
	}

	cfg = config.LoadConfig()
	applyFlags(cmd, cfg)

	var err error
	logger, err = logging.NewLogger(cfg.Environment, cfg.LogLevel, verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("records") {
		c.RecordCount = records
	}
	if flags.Changed("seed") {
		s := seed
		c.SimulatorSeed = &s
	}
	if flags.Changed("output-dir") {
		c.OutputDir = outputDir
	}
	if allowPlaceholder {
		c.NarrativeFallback = true
	}
}

// exitCode エラーの種類から終了コードを決める
func exitCode(err error) int {
	var (
		configErr    *config.ConfigError
		narrativeErr *services.NarrativeError
		transportErr *mailer.TransportError
		renderErr    *services.RenderError
	)

	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &configErr), errors.Is(err, services.ErrMailNotConfigured):
		return exitConfig
	case errors.As(err, &narrativeErr):
		return exitNarrative
	case errors.As(err, &transportErr):
		return exitTransport
	case errors.As(err, &renderErr):
		return exitRender
	default:
		return exitUnexpected
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
