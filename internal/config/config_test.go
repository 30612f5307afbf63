package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 测试默认配置
func TestLoadConfigDefaults(t *testing.T) {
	// 指向不存在的目录避免读到真实用户配置
	cwd, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(cwd)
	require.NoError(t, os.Chdir(t.TempDir()))

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Provider)
	assert.Equal(t, "http://localhost:11434", cfg.BaseURL)
	assert.Equal(t, "translategemma", cfg.Model)
	assert.Equal(t, "Russian", cfg.TargetLang)
	assert.Equal(t, 4000, cfg.MaxChars)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Equal(t, 10*time.Minute, cfg.RequestTimeoutDuration())
	assert.Equal(t, 10*time.Second, cfg.RetryDelayDuration())
}

// 测试从文件加载并覆盖默认值
func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `provider: openai
base_url: https://api.example.com/v1
model: gpt-4o-mini
target_lang: German
max_chars: 2000
retry_delay: 2.5
concurrency: 4
use_markdown_prompt: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "https://api.example.com/v1", cfg.BaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, "German", cfg.TargetLang)
	assert.Equal(t, 2000, cfg.MaxChars)
	assert.Equal(t, 2500*time.Millisecond, cfg.RetryDelayDuration())
	assert.Equal(t, 4, cfg.Concurrency)
	assert.True(t, cfg.UseMarkdownPrompt)

	// 未覆盖的字段保留默认值
	assert.Equal(t, 3, cfg.MaxRetries)
}

// 测试配置文件格式错误时报错
func TestLoadConfigInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
