package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-doc-translator/pkg/document"
	"github.com/nerdneilsfield/go-doc-translator/pkg/translator"
)

// Result 一次翻译任务的结果摘要
type Result struct {
	RunID          string
	InputFile      string
	OutputFile     string
	TargetLanguage string
	TotalFragments int
	FailedCount    int
	Duration       time.Duration
}

// Pipeline 完整翻译流程：连通性检查 → 切块 → 批量翻译 → 回装
type Pipeline struct {
	processor  Processor
	translator *translator.Translator
	logger     *zap.Logger
}

// NewPipeline 创建流水线
func NewPipeline(processor Processor, trans *translator.Translator, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{processor: processor, translator: trans, logger: logger}
}

// Run 执行完整翻译任务。端点不可达时立刻失败；
// 片段级失败被降级为哨兵，不会中断整个任务。
func (p *Pipeline) Run(ctx context.Context, inputPath, outputPath, targetLanguage string, onProgress translator.ProgressFunc) (*Result, error) {
	runID := uuid.NewString()
	start := time.Now()
	log := p.logger.With(zap.String("run_id", runID))

	log.Info("开始翻译任务",
		zap.String("input", inputPath),
		zap.String("output", outputPath),
		zap.String("target_lang", targetLanguage))

	if err := p.translator.CheckConnectivity(ctx); err != nil {
		return nil, err
	}

	fragments, err := p.processor.Chunk(ctx, inputPath)
	if err != nil {
		return nil, fmt.Errorf("chunking failed: %w", err)
	}
	if len(fragments) == 0 {
		return nil, fmt.Errorf("no translatable content in %s", inputPath)
	}
	log.Info("切块完成", zap.Int("fragments", len(fragments)))

	translated, err := p.translator.TranslateBatch(ctx, fragments, targetLanguage, onProgress)
	if err != nil {
		return nil, err
	}

	failed := countDegraded(translated)
	if failed > 0 {
		log.Warn("部分片段降级为哨兵", zap.Int("failed", failed), zap.Int("total", len(translated)))
	}

	if err := p.processor.Assemble(ctx, translated, outputPath); err != nil {
		return nil, fmt.Errorf("assembly failed: %w", err)
	}

	result := &Result{
		RunID:          runID,
		InputFile:      inputPath,
		OutputFile:     outputPath,
		TargetLanguage: targetLanguage,
		TotalFragments: len(translated),
		FailedCount:    failed,
		Duration:       time.Since(start),
	}
	log.Info("翻译任务完成",
		zap.Int("fragments", result.TotalFragments),
		zap.Int("failed", result.FailedCount),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// countDegraded 统计降级为哨兵的片段数
func countDegraded(fragments []*document.TranslatedFragment) int {
	count := 0
	for _, tf := range fragments {
		if tf.Degraded {
			count++
		}
	}
	return count
}
