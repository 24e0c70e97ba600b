package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-sales-report/pkg/models"
)

const systemPrompt = "You are an experienced business analyst who writes concise markdown business intelligence reports."

// OpenAIClient はAzure OpenAI REST APIへのリクエストを管理します。
type OpenAIClient struct {
	endpoint       string
	apiKey         string
	apiVersion     string
	deploymentName string
	httpClient     *http.Client
}

// NewOpenAIClient は新しいAzure OpenAIクライアントを作成します。
// httpClientがnilの場合は60秒タイムアウトのクライアントを使います。
func NewOpenAIClient(endpoint, apiKey, apiVersion, deploymentName string, httpClient *http.Client) *OpenAIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &OpenAIClient{
		endpoint:       endpoint,
		apiKey:         apiKey,
		apiVersion:     apiVersion,
		deploymentName: deploymentName,
		httpClient:     httpClient,
	}
}

// --- データ構造定義 ---

// ChatMessage チャットメッセージ
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest チャット補完リクエスト
type ChatCompletionRequest struct {
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature"`
	TopP        float32       `json:"top_p,omitempty"`
}

// ChatCompletionResponse チャット補完レスポンス
type ChatCompletionResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// --- メソッド定義 ---

// ChatCompletion チャット補完を実行
func (c *OpenAIClient) ChatCompletion(ctx context.Context, messages []ChatMessage, maxTokens int, temperature float32, topP float32) (*ChatCompletionResponse, error) {
	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimSuffix(c.endpoint, "/"), c.deploymentName, c.apiVersion)

	request := ChatCompletionRequest{
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	var response ChatCompletionResponse
	if err := c.doRequest(ctx, url, request, &response); err != nil {
		return nil, fmt.Errorf("Azure OpenAI API 呼び出しに失敗: %w", err)
	}
	return &response, nil
}

// Generate プロンプトを送信して生成テキストを返す。
// サンプリング無効時は temperature=0 で決定的に生成する。
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, params models.GenerationParams) (string, error) {
	messages := []ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: prompt},
	}

	temperature := params.Temperature
	topP := float32(0.95)
	if !params.DoSample {
		temperature = 0
		topP = 0
	}

	response, err := c.ChatCompletion(ctx, messages, params.MaxNewTokens, temperature, topP)
	if err != nil {
		return "", err
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("Azure OpenAI からの応答が空です")
	}
	return response.Choices[0].Message.Content, nil
}

// doRequest はHTTPリクエストの実行と基本的なレスポンス処理を行う共通メソッドです。
func (c *OpenAIClient) doRequest(ctx context.Context, url string, requestData interface{}, responseData interface{}) error {
	if c.apiKey == "" {
		return fmt.Errorf("API key が設定されていません")
	}

	requestBody, err := json.Marshal(requestData)
	if err != nil {
		return fmt.Errorf("リクエストのJSON化に失敗: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBody))
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの実行に失敗: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("レスポンスの読み取りに失敗: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.Error.Message != "" {
			return fmt.Errorf("Azure OpenAI API エラー (status: %d): %s", resp.StatusCode, errorResp.Error.Message)
		}
		return fmt.Errorf("Azure OpenAI API エラー (status: %d): %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, responseData); err != nil {
		return fmt.Errorf("レスポンスのJSON解析に失敗: %w", err)
	}

	return nil
}
