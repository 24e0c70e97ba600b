package gemini

import (
	"context"
	"fmt"
	"net/http"

	"ai-sales-report/pkg/models"

	"google.golang.org/genai"
)

// DefaultModel GEMINI_MODEL 未指定時のモデル
const DefaultModel = "gemini-2.0-flash"

// Client はGoogle Gemini APIでテキストを生成します。
type Client struct {
	client *genai.Client
	model  string
}

// Options テスト用に接続先を差し替えるためのオプション
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient 新しいGeminiクライアントを作成
func NewClient(ctx context.Context, apiKey, model string, opts Options) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key が設定されていません")
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("Geminiクライアントの作成に失敗: %w", err)
	}

	return &Client{client: client, model: model}, nil
}

// Generate プロンプトを送信して生成テキストを返す
func (c *Client) Generate(ctx context.Context, prompt string, params models.GenerationParams) (string, error) {
	temperature := params.Temperature
	if !params.DoSample {
		temperature = 0
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(temperature),
		MaxOutputTokens: int32(params.MaxNewTokens),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("Gemini API 呼び出しに失敗: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("Gemini からの応答が空です")
	}
	return text, nil
}

// Name ログ出力用の識別子
func (c *Client) Name() string {
	return fmt.Sprintf("gemini:%s", c.model)
}
