package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration
type Config struct {
	Environment string
	LogLevel    string

	// HTTP API (serve サブコマンド)
	Port           string
	APIKey         string
	RateLimitRPS   float64
	RateLimitBurst int
	AdminUsername  string
	AdminPassword  string

	// データ生成・出力
	RecordCount    int
	SimulatorSeed  *int64
	SampleRows     int
	OutputDir      string
	ExportWorkbook bool

	// ナラティブ生成
	NarrativeProvider    string
	NarrativeTimeout     time.Duration
	NarrativeMaxTokens   int
	NarrativeTemperature float32
	NarrativeFallback    bool
	PromptFile           string

	AzureOpenAIEndpoint       string
	AzureOpenAIAPIKey         string
	AzureOpenAIAPIVersion     string
	AzureOpenAIDeploymentName string

	GeminiAPIKey string
	GeminiModel  string

	// メール送信
	SMTPHost        string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string
	SMTPTimeout     time.Duration
	ReportRecipient string
	ReportSubject   string

	// 解釈できなかった環境変数名（Validateでエラーにする）
	invalid []string
}

// ナラティブ生成のプロバイダ名
const (
	ProviderAzure  = "azure"
	ProviderGemini = "gemini"
)

// ConfigError 起動時の設定エラー（必須項目の欠落・不正値）
type ConfigError struct {
	Missing []string
	Reason  string
}

func (e *ConfigError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("必須の設定が不足しています: %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("設定が不正です: %s", e.Reason)
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	r := &envReader{}
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		Port:           getEnv("PORT", "8080"),
		APIKey:         getEnv("API_KEY", ""),
		RateLimitRPS:   r.Float("RATE_LIMIT_RPS", 1),
		RateLimitBurst: r.Int("RATE_LIMIT_BURST", 3),
		AdminUsername:  getEnv("ADMIN_USERNAME", ""),
		AdminPassword:  getEnv("ADMIN_PASSWORD", ""),

		RecordCount:    r.Int("RECORD_COUNT", 50),
		SampleRows:     r.Int("SAMPLE_ROWS", 20),
		OutputDir:      getEnv("OUTPUT_DIR", "charts"),
		ExportWorkbook: r.Bool("EXPORT_WORKBOOK", true),

		NarrativeProvider:    strings.ToLower(getEnv("NARRATIVE_PROVIDER", ProviderAzure)),
		NarrativeTimeout:     r.Duration("NARRATIVE_TIMEOUT", 60*time.Second),
		NarrativeMaxTokens:   r.Int("NARRATIVE_MAX_TOKENS", 512),
		NarrativeTemperature: float32(r.Float("NARRATIVE_TEMPERATURE", 0.7)),
		NarrativeFallback:    r.Bool("NARRATIVE_FALLBACK", false),
		PromptFile:           getEnv("PROMPT_FILE", "configs/report_prompt.yaml"),

		AzureOpenAIEndpoint:       getEnv("AZURE_OPENAI_ENDPOINT", ""),
		AzureOpenAIAPIKey:         getEnv("AZURE_OPENAI_API_KEY", ""),
		AzureOpenAIAPIVersion:     getEnv("AZURE_OPENAI_API_VERSION", "2023-12-01-preview"),
		AzureOpenAIDeploymentName: getEnv("AZURE_OPENAI_DEPLOYMENT_NAME", "gpt-4o-mini"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		SMTPHost:        getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:        r.Int("SMTP_PORT", 465),
		SMTPUsername:    getEnv("SMTP_USERNAME", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
		SMTPTimeout:     r.Duration("SMTP_TIMEOUT", 30*time.Second),
		ReportRecipient: getEnv("REPORT_RECIPIENT", ""),
		ReportSubject:   getEnv("REPORT_SUBJECT", "Daily AI Sales Summary"),
	}

	if v := os.Getenv("SIMULATOR_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.SimulatorSeed = &seed
		} else {
			r.fail("SIMULATOR_SEED")
		}
	}
	cfg.invalid = r.invalid

	// 受信者未指定の場合は送信者自身に送る
	if cfg.ReportRecipient == "" {
		cfg.ReportRecipient = cfg.SMTPUsername
	}

	return cfg
}

// Validate 実行モードに必要な設定が揃っているか検証する。
// ネットワーク呼び出しの前に必ず呼ぶこと。
func (c *Config) Validate(needNarrative, needMail bool) error {
	if len(c.invalid) > 0 {
		return &ConfigError{Reason: fmt.Sprintf("値を解釈できない環境変数があります: %s", strings.Join(c.invalid, ", "))}
	}
	if c.RecordCount < 1 {
		return &ConfigError{Reason: fmt.Sprintf("RECORD_COUNT は1以上である必要があります: %d", c.RecordCount)}
	}
	if c.NarrativeTimeout <= 0 {
		return &ConfigError{Reason: "NARRATIVE_TIMEOUT は正の値である必要があります"}
	}

	var missing []string
	if needNarrative {
		switch c.NarrativeProvider {
		case ProviderAzure:
			if c.AzureOpenAIEndpoint == "" {
				missing = append(missing, "AZURE_OPENAI_ENDPOINT")
			}
			if c.AzureOpenAIAPIKey == "" {
				missing = append(missing, "AZURE_OPENAI_API_KEY")
			}
		case ProviderGemini:
			if c.GeminiAPIKey == "" {
				missing = append(missing, "GEMINI_API_KEY")
			}
		default:
			return &ConfigError{Reason: fmt.Sprintf("未対応の NARRATIVE_PROVIDER です: %s", c.NarrativeProvider)}
		}
	}
	if needMail {
		if c.SMTPUsername == "" {
			missing = append(missing, "SMTP_USERNAME")
		}
		if c.SMTPPassword == "" {
			missing = append(missing, "SMTP_PASSWORD")
		}
		if c.ReportRecipient == "" {
			missing = append(missing, "REPORT_RECIPIENT")
		}
		if c.SMTPPort < 1 || c.SMTPPort > 65535 {
			return &ConfigError{Reason: fmt.Sprintf("SMTP_PORT が範囲外です: %d", c.SMTPPort)}
		}
	}

	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envReader 型付きの環境変数を読み、解釈できなかったキーを記録する
type envReader struct {
	invalid []string
}

func (r *envReader) fail(key string) {
	r.invalid = append(r.invalid, key)
}

func (r *envReader) Int(key string, defaultValue int) int {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key)
		return defaultValue
	}
	return n
}

func (r *envReader) Float(key string, defaultValue float64) float64 {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key)
		return defaultValue
	}
	return f
}

func (r *envReader) Bool(key string, defaultValue bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key)
		return defaultValue
	}
	return b
}

// Duration "30s" 形式のほか、単位なしの数値は秒として扱う
func (r *envReader) Duration(key string, defaultValue time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if sec, err := strconv.Atoi(v); err == nil {
		return time.Duration(sec) * time.Second
	}
	r.fail(key)
	return defaultValue
}
