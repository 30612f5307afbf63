// Package translator 实现弹性批量转换驱动：
// 逐片段调用外部转换端点，带超时重试、响应净化和单片段降级。
package translator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-doc-translator/pkg/document"
	"github.com/nerdneilsfield/go-doc-translator/pkg/providers"
)

// 降级哨兵标签：批量模式下失败的片段不会丢失，
// 标签加原文原样进入结果，保证部分结果始终可检查。
const (
	// UntranslatedTag 超时耗尽重试预算后的哨兵
	UntranslatedTag = "[не переведено]"
	// FailedTag 其他传输错误的哨兵
	FailedTag = "[ошибка перевода]"
)

// Config 翻译驱动配置
type Config struct {
	// Model 端点使用的模型标识
	Model string
	// MaxRetries 超时重试预算（总尝试次数）
	MaxRetries int
	// RetryDelay 重试之间的固定延迟
	RetryDelay time.Duration
	// UseMarkdownPrompt 使用 Markdown 保持型系统提示词
	UseMarkdownPrompt bool
	// SystemPrompt 自定义系统提示词，优先于内置的两种
	SystemPrompt string
	// Concurrency 批量翻译的并发度，<=1 表示严格按序号串行
	Concurrency int
	// OnDelta 非空时批量翻译走流式生成，每个文本增量触发一次回调
	OnDelta providers.StreamFunc
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		RetryDelay: 10 * time.Second,
	}
}

// ProgressFunc 批量进度回调
type ProgressFunc func(current, total int, status string)

// Translator 弹性转换驱动。提供商连接在构造时获取，
// Close 必须在所有退出路径上被调用。
type Translator struct {
	provider     providers.Provider
	config       Config
	systemPrompt string
	logger       *zap.Logger
}

// New 创建翻译驱动。系统提示词在构造时确定：
// 自定义 > Markdown 保持型 > 纯文本默认。
func New(provider providers.Provider, config Config, logger *zap.Logger) *Translator {
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	systemPrompt := DefaultSystemPrompt
	if config.UseMarkdownPrompt {
		systemPrompt = MarkdownSystemPrompt
	}
	if config.SystemPrompt != "" {
		systemPrompt = config.SystemPrompt
	}

	return &Translator{
		provider:     provider,
		config:       config,
		systemPrompt: systemPrompt,
		logger:       logger,
	}
}

// CheckConnectivity 在任何批量工作开始之前检查端点连通性。
// 不可达是整个任务的致命错误，不重试。
func (t *Translator) CheckConnectivity(ctx context.Context) error {
	if !t.provider.CheckConnection(ctx) {
		return &TranslationError{
			Code:    ErrCodeConnectivity,
			Message: fmt.Sprintf("provider %q is not reachable", t.provider.Name()),
			Cause:   ErrConnectivity,
		}
	}
	return nil
}

// ListModels 列出端点可用的模型
func (t *Translator) ListModels(ctx context.Context) ([]string, error) {
	return t.provider.ListModels(ctx)
}

// Translate 翻译单个片段。提供进度回调时走流式模式，否则走阻塞模式；
// 超时按预算重试，耗尽后错误向调用方传播。
func (t *Translator) Translate(ctx context.Context, fragment *document.Fragment, targetLanguage string, onProgress providers.StreamFunc) (*document.TranslatedFragment, error) {
	req := &providers.Request{
		Model:  t.config.Model,
		Prompt: BuildPrompt(fragment.Text, targetLanguage),
		System: t.systemPrompt,
	}

	var raw string
	var err error
	if onProgress != nil {
		raw, err = t.provider.GenerateStream(ctx, req, onProgress)
	} else {
		raw, err = t.generateWithRetry(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	text := Sanitize(raw)
	degraded := false
	if text == "" {
		// 净化链兜底：永远不返回空结果
		text = UntranslatedTag + "\n" + fragment.Text
		degraded = true
	}

	return &document.TranslatedFragment{
		Original:       fragment,
		Text:           text,
		TargetLanguage: targetLanguage,
		ModelID:        t.config.Model,
		Degraded:       degraded,
	}, nil
}

// generateWithRetry 阻塞生成，仅对瞬时超时重试，固定延迟，可被上下文取消
func (t *Translator) generateWithRetry(ctx context.Context, req *providers.Request) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= t.config.MaxRetries; attempt++ {
		if attempt > 1 {
			t.logger.Warn("翻译请求超时，等待后重试",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", t.config.MaxRetries),
				zap.Duration("delay", t.config.RetryDelay))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(t.config.RetryDelay):
			}
		}

		resp, err := t.provider.Generate(ctx, req)
		if err == nil {
			return resp.Text, nil
		}
		lastErr = err

		if !IsTimeout(err) {
			return "", WrapError(err, ErrCodeTransport, "translation request failed")
		}
	}

	return "", WrapError(lastErr, ErrCodeTimeout,
		fmt.Sprintf("translation timed out after %d attempts", t.config.MaxRetries))
}

// TranslateBatch 批量翻译。片段按序号顺序处理；单个片段的失败被隔离：
// 超时降级为 UntranslatedTag 哨兵，其他传输错误降级为 FailedTag 哨兵，
// 原文始终保留，批量处理永远不会因为一个片段而中止。
func (t *Translator) TranslateBatch(ctx context.Context, fragments []*document.Fragment, targetLanguage string, onProgress ProgressFunc) ([]*document.TranslatedFragment, error) {
	if t.config.Concurrency > 1 {
		return t.translateBatchParallel(ctx, fragments, targetLanguage, onProgress)
	}

	total := len(fragments)
	results := make([]*document.TranslatedFragment, 0, total)

	for i, fragment := range fragments {
		if onProgress != nil {
			onProgress(i+1, total, fmt.Sprintf("translating fragment %d/%d", i+1, total))
		}

		tf := t.translateOrDegrade(ctx, fragment, targetLanguage)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		results = append(results, tf)

		if onProgress != nil {
			onProgress(i+1, total, fmt.Sprintf("fragment %d/%d done", i+1, total))
		}
	}

	return results, nil
}

// translateOrDegrade 单片段翻译，失败时替换为哨兵结果
func (t *Translator) translateOrDegrade(ctx context.Context, fragment *document.Fragment, targetLanguage string) *document.TranslatedFragment {
	tf, err := t.Translate(ctx, fragment, targetLanguage, t.config.OnDelta)
	if err == nil {
		return tf
	}

	tag := FailedTag
	if IsTimeout(err) {
		tag = UntranslatedTag
	}
	t.logger.Warn("片段翻译失败，使用降级哨兵",
		zap.Int("fragment", fragment.Index),
		zap.String("tag", tag),
		zap.Error(err))

	return &document.TranslatedFragment{
		Original:       fragment,
		Text:           tag + "\n" + fragment.Text,
		TargetLanguage: targetLanguage,
		ModelID:        t.config.Model,
		Degraded:       true,
	}
}

// translateBatchParallel 有界并发的批量翻译。
// 片段之间没有共享可变状态，结果按序号位置写入后整体返回，
// 进度计数单调递增。
func (t *Translator) translateBatchParallel(ctx context.Context, fragments []*document.Fragment, targetLanguage string, onProgress ProgressFunc) ([]*document.TranslatedFragment, error) {
	total := len(fragments)
	results := make([]*document.TranslatedFragment, total)
	sem := make(chan struct{}, t.config.Concurrency)

	var wg sync.WaitGroup
	var mu sync.Mutex
	done := 0

	for i, fragment := range fragments {
		wg.Add(1)
		go func(pos int, fragment *document.Fragment) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[pos] = t.translateOrDegrade(ctx, fragment, targetLanguage)

			mu.Lock()
			done++
			current := done
			mu.Unlock()
			if onProgress != nil {
				onProgress(current, total, fmt.Sprintf("fragment %d/%d done", current, total))
			}
		}(i, fragment)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return results, nil
}

// Close 释放提供商连接
func (t *Translator) Close() error {
	return t.provider.Close()
}
