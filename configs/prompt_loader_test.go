package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPromptConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadPromptConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPromptConfig().System.Role, cfg.System.Role)
	assert.Len(t, cfg.Sections, 4)
}

func TestLoadPromptConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.yaml")
	content := `
system:
  role: "a retail strategist"
sections:
  - title: "Sales Trends"
    guidance: "patterns"
  - title: "Recommendations"
    guidance: "next steps"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadPromptConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "a retail strategist", cfg.System.Role)
	assert.Len(t, cfg.Sections, 2)
	// 未指定の項目はデフォルトで補完される
	assert.Equal(t, DefaultPromptConfig().Closing, cfg.Closing)
}

func TestLoadPromptConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sections: [:"), 0o644))

	_, err := LoadPromptConfig(path)
	assert.Error(t, err)
}

func TestBundledPromptFileParses(t *testing.T) {
	cfg, err := LoadPromptConfig("report_prompt.yaml")
	require.NoError(t, err)
	assert.Len(t, cfg.Sections, 4)
	assert.Len(t, cfg.Charts, 3)
}
