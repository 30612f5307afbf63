package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config 保存流水线的所有配置
type Config struct {
	Provider          string  `mapstructure:"provider"`            // 提供商: ollama 或 openai
	BaseURL           string  `mapstructure:"base_url"`            // 端点 URL
	APIKey            string  `mapstructure:"api_key"`             // OpenAI 兼容端点的密钥
	Model             string  `mapstructure:"model"`               // 模型标识
	TargetLang        string  `mapstructure:"target_lang"`         // 默认目标语言
	MaxChars          int     `mapstructure:"max_chars"`           // 单片段字符上限
	RequestTimeout    float64 `mapstructure:"request_timeout"`     // 请求超时（秒）
	MaxRetries        int     `mapstructure:"max_retries"`         // 超时重试预算
	RetryDelay        float64 `mapstructure:"retry_delay"`         // 重试延迟（秒）
	Concurrency       int     `mapstructure:"concurrency"`         // 批量翻译并发度
	UseMarkdownPrompt bool    `mapstructure:"use_markdown_prompt"` // Markdown 保持型提示词
	FormatMarkdown    bool    `mapstructure:"format_markdown"`     // 切块前归一化 Markdown
	MinerUBackend     string  `mapstructure:"mineru_backend"`      // MinerU 后端
	Debug             bool    `mapstructure:"debug"`
}

// RequestTimeoutDuration 请求超时
func (c *Config) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout * float64(time.Second))
}

// RetryDelayDuration 重试延迟
func (c *Config) RetryDelayDuration() time.Duration {
	return time.Duration(c.RetryDelay * float64(time.Second))
}

// LoadConfig 从文件加载配置。路径为空时依次查找家目录与当前目录下的
// .doctranslator.yaml，找不到则使用默认值；环境变量前缀 DOCTRANSLATOR。
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".doctranslator")
		v.SetConfigType("yaml")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("DOCTRANSLATOR")

	if err := v.ReadInConfig(); err != nil {
		// 找不到配置文件时使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", "ollama")
	v.SetDefault("base_url", "http://localhost:11434")
	v.SetDefault("model", "translategemma")
	v.SetDefault("target_lang", "Russian")
	v.SetDefault("max_chars", 4000)
	v.SetDefault("request_timeout", 600)
	v.SetDefault("max_retries", 3)
	v.SetDefault("retry_delay", 10)
	v.SetDefault("concurrency", 1)
	v.SetDefault("use_markdown_prompt", false)
	v.SetDefault("format_markdown", false)
	v.SetDefault("mineru_backend", "pipeline")
	v.SetDefault("debug", false)
}
