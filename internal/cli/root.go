// Package cli 实现 doctranslator 的命令行入口。
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-doc-translator/internal/config"
	"github.com/nerdneilsfield/go-doc-translator/pkg/providers"
	"github.com/nerdneilsfield/go-doc-translator/pkg/providers/ollama"
	"github.com/nerdneilsfield/go-doc-translator/pkg/providers/openai"
	"github.com/nerdneilsfield/go-doc-translator/pkg/translator"
)

var (
	// 命令行标志变量
	cfgFile           string
	providerName      string
	baseURL           string
	apiKey            string
	modelName         string
	targetLang        string
	maxChars          int
	requestTimeout    float64
	maxRetries        int
	retryDelay        float64
	concurrency       int
	useMarkdownPrompt bool
	formatMarkdown    bool
	useMinerU         bool
	minerUBackend     string
	forceOverwrite    bool
	streamOutput      bool
	debugMode         bool
)

// NewRootCommand 创建根命令
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "doctranslator",
		Short: "文档翻译工具：切块、翻译、重组",
		Long: `文档翻译工具把文档拆分为体积受限的片段，逐片段发给本地或远程
大语言模型翻译，再把译文装回原文档结构。表格作为原子单元处理，
失败的片段降级为哨兵标记而不会丢失原文。

支持的输入格式:
  - .json: 结构化元素文档（段落 + 表格，保留格式元数据）
  - .docx: Word 文档（需要 pandoc）
  - .pdf:  PDF 文档（优先 MinerU，缺失时退回纯文本提取）

支持的提供商:
  - ollama: 本地 Ollama 端点
  - openai: OpenAI 兼容聊天端点`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addGlobalFlags(rootCmd)

	rootCmd.AddCommand(NewTranslateCommand())
	rootCmd.AddCommand(NewChunkCommand())
	rootCmd.AddCommand(NewModelsCommand())

	return rootCmd
}

// addGlobalFlags 添加全局标志
func addGlobalFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径")
	rootCmd.PersistentFlags().StringVar(&providerName, "provider", "", "翻译提供商 (ollama, openai)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "ollama-url", "", "端点 URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "OpenAI 兼容端点的密钥")
	rootCmd.PersistentFlags().StringVarP(&modelName, "model", "m", "", "模型标识")
	rootCmd.PersistentFlags().StringVarP(&targetLang, "language", "l", "", "目标语言")
	rootCmd.PersistentFlags().IntVar(&maxChars, "max-chars", 0, "单片段字符上限")
	rootCmd.PersistentFlags().Float64Var(&requestTimeout, "timeout", 0, "请求超时（秒）")
	rootCmd.PersistentFlags().IntVar(&maxRetries, "max-retries", 0, "超时重试预算")
	rootCmd.PersistentFlags().Float64Var(&retryDelay, "retry-delay", 0, "重试延迟（秒）")
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 0, "批量翻译并发度")
	rootCmd.PersistentFlags().BoolVar(&useMarkdownPrompt, "markdown-prompt", false, "使用 Markdown 保持型系统提示词")
	rootCmd.PersistentFlags().BoolVar(&formatMarkdown, "format-markdown", false, "切块前归一化 Markdown")
	rootCmd.PersistentFlags().BoolVar(&useMinerU, "mineru", false, "PDF 强制使用 MinerU")
	rootCmd.PersistentFlags().StringVar(&minerUBackend, "mineru-backend", "", "MinerU 后端")
	rootCmd.PersistentFlags().BoolVarP(&forceOverwrite, "force", "f", false, "覆盖已存在的输出文件")
	rootCmd.PersistentFlags().BoolVar(&streamOutput, "stream", false, "启用流式输出（实时显示模型增量）")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "启用调试模式")
}

// resolveConfig 加载配置并用命令行参数覆盖
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("provider") {
		cfg.Provider = providerName
	}
	if cmd.Flags().Changed("ollama-url") {
		cfg.BaseURL = baseURL
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = apiKey
	}
	if cmd.Flags().Changed("model") {
		cfg.Model = modelName
	}
	if cmd.Flags().Changed("language") {
		cfg.TargetLang = targetLang
	}
	if cmd.Flags().Changed("max-chars") {
		cfg.MaxChars = maxChars
	}
	if cmd.Flags().Changed("timeout") {
		cfg.RequestTimeout = requestTimeout
	}
	if cmd.Flags().Changed("max-retries") {
		cfg.MaxRetries = maxRetries
	}
	if cmd.Flags().Changed("retry-delay") {
		cfg.RetryDelay = retryDelay
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = concurrency
	}
	if cmd.Flags().Changed("markdown-prompt") {
		cfg.UseMarkdownPrompt = useMarkdownPrompt
	}
	if cmd.Flags().Changed("format-markdown") {
		cfg.FormatMarkdown = formatMarkdown
	}
	if cmd.Flags().Changed("mineru-backend") {
		cfg.MinerUBackend = minerUBackend
	}
	if cmd.Flags().Changed("debug") {
		cfg.Debug = debugMode
	}

	return cfg, nil
}

// buildProvider 根据配置创建提供商客户端
func buildProvider(cfg *config.Config) (providers.Provider, error) {
	switch cfg.Provider {
	case "", "ollama":
		ollamaCfg := ollama.DefaultConfig()
		if cfg.BaseURL != "" {
			ollamaCfg.BaseURL = cfg.BaseURL
		}
		ollamaCfg.Timeout = cfg.RequestTimeoutDuration()
		return ollama.New(ollamaCfg), nil
	case "openai":
		openaiCfg := openai.DefaultConfig()
		openaiCfg.APIKey = cfg.APIKey
		openaiCfg.BaseURL = cfg.BaseURL
		openaiCfg.Timeout = cfg.RequestTimeoutDuration()
		return openai.New(openaiCfg), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

// buildTranslator 根据配置创建翻译驱动。onDelta 非空时启用流式生成
func buildTranslator(cfg *config.Config, provider providers.Provider, log *zap.Logger, onDelta providers.StreamFunc) *translator.Translator {
	return translator.New(provider, translator.Config{
		Model:             cfg.Model,
		MaxRetries:        cfg.MaxRetries,
		RetryDelay:        cfg.RetryDelayDuration(),
		UseMarkdownPrompt: cfg.UseMarkdownPrompt,
		Concurrency:       cfg.Concurrency,
		OnDelta:           onDelta,
	}, log)
}
