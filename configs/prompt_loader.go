package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PromptConfig はreport_prompt.yamlの構造を定義
type PromptConfig struct {
	System struct {
		Role    string `yaml:"role"`
		Version string `yaml:"version"`
	} `yaml:"system"`

	Instruction string `yaml:"instruction"`

	Sections []struct {
		Title    string `yaml:"title"`
		Guidance string `yaml:"guidance"`
	} `yaml:"sections"`

	Charts   []string `yaml:"charts"`
	Examples []string `yaml:"examples"`
	Closing  string   `yaml:"closing"`
}

// DefaultPromptConfig ファイルが存在しない場合に使う組み込みのプロンプト設定
func DefaultPromptConfig() *PromptConfig {
	c := &PromptConfig{}
	c.System.Role = "an experienced business analyst"
	c.System.Version = "1"
	c.Instruction = "Based on the following sales statistics and chart insights, generate a detailed business intelligence report."
	c.Sections = []struct {
		Title    string `yaml:"title"`
		Guidance string `yaml:"guidance"`
	}{
		{Title: "Sales Trends", Guidance: "summarize key patterns in sales data"},
		{Title: "Anomalies", Guidance: "identify unusual sales or outliers"},
		{Title: "Observations", Guidance: "provide general analysis of what the data suggests"},
		{Title: "Recommendations", Guidance: "what actions should be taken next?"},
	}
	c.Charts = []string{
		"Sales by Product",
		"Product Sales by Region",
		"Sales Distribution per Product (Box Plot)",
	}
	c.Examples = []string{
		"Sales Trends: Sales increased for Classic Cars and Planes.",
		"Anomalies: One transaction over $20,000 was recorded for Planes in Germany.",
		"Observations: Sales are consistent across all products except Ships.",
		"Recommendations: Focus marketing efforts on Planes in West region.",
	}
	c.Closing = "Write the full response."
	return c
}

// LoadPromptConfig はYAMLファイルからプロンプト設定を読み込む。
// ファイルが無い場合は組み込みのデフォルトを返す。
func LoadPromptConfig(path string) (*PromptConfig, error) {
	if path == "" {
		return DefaultPromptConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultPromptConfig(), nil
		}
		return nil, fmt.Errorf("プロンプト設定ファイルの読み込みに失敗: %w", err)
	}

	var config PromptConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("YAMLのパースに失敗: %w", err)
	}

	// 必須セクションが欠けている場合はデフォルトで補完
	defaults := DefaultPromptConfig()
	if config.System.Role == "" {
		config.System.Role = defaults.System.Role
	}
	if config.Instruction == "" {
		config.Instruction = defaults.Instruction
	}
	if len(config.Sections) == 0 {
		config.Sections = defaults.Sections
	}
	if config.Closing == "" {
		config.Closing = defaults.Closing
	}

	return &config, nil
}
