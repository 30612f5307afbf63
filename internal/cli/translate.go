package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-doc-translator/internal/logger"
	"github.com/nerdneilsfield/go-doc-translator/pkg/pipeline"
	"github.com/nerdneilsfield/go-doc-translator/pkg/providers"
	"github.com/nerdneilsfield/go-doc-translator/pkg/translator"
)

// NewTranslateCommand 创建 translate 子命令
func NewTranslateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "translate input_file [output_file]",
		Short: "翻译文档",
		Long: `翻译文档。省略输出路径时在输入文件名后追加 _translated。
端点不可达时任务立刻失败；单个片段的失败降级为哨兵标记，
原文保留在输出中，批量处理不会中断。`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			log := logger.NewLogger(cfg.Debug)
			defer func() {
				_ = log.Sync()
			}()

			inputPath := args[0]
			if _, err := os.Stat(inputPath); err != nil {
				return fmt.Errorf("input file not accessible: %w", err)
			}

			outputPath := defaultOutputPath(inputPath, cfg.TargetLang)
			if len(args) > 1 {
				outputPath = args[1]
			}
			if _, err := os.Stat(outputPath); err == nil && !forceOverwrite {
				color.Yellow("输出文件已存在: %s（使用 --force 覆盖）", outputPath)
				return fmt.Errorf("output file already exists: %s", outputPath)
			}

			processor, err := pipeline.SelectProcessor(inputPath, pipeline.Options{
				MaxChars:       cfg.MaxChars,
				UseMinerU:      useMinerU,
				MinerUBackend:  cfg.MinerUBackend,
				FormatMarkdown: cfg.FormatMarkdown,
				Logger:         log,
			})
			if err != nil {
				return err
			}

			// 流式输出：模型增量直接写到终端，进度退化为片段标题行，
			// 并发强制串行避免增量交错
			var onDelta providers.StreamFunc
			progress := progressReporter()
			if streamOutput {
				cfg.Concurrency = 1
				onDelta = func(delta string) { fmt.Print(delta) }
				progress = streamProgressReporter()
			}

			provider, err := buildProvider(cfg)
			if err != nil {
				return err
			}
			trans := buildTranslator(cfg, provider, log, onDelta)
			defer func() {
				_ = trans.Close()
			}()

			ctx := cmd.Context()
			if err := checkModelAvailable(ctx, trans, cfg.Model); err != nil {
				if !forceOverwrite {
					return err
				}
				color.Yellow("%v（--force 跳过检查，继续执行）", err)
			}

			log.Info("目标语言",
				zap.String("language", cfg.TargetLang),
				zap.String("display", languageDisplayName(cfg.TargetLang)))

			pipe := pipeline.NewPipeline(processor, trans, log)
			result, err := pipe.Run(ctx, inputPath, outputPath, cfg.TargetLang, progress)
			if err != nil {
				return err
			}

			if result.FailedCount > 0 {
				color.Yellow("%d/%d 个片段翻译失败，输出中以 %s 或 %s 标记并保留原文",
					result.FailedCount, result.TotalFragments,
					translator.UntranslatedTag, translator.FailedTag)
			}
			fmt.Printf("翻译完成: %s (%d 个片段, 耗时 %s)\n",
				result.OutputFile, result.TotalFragments, result.Duration.Round(timeRound))
			return nil
		},
	}
}

// progressReporter 返回基于 pterm 进度条的批量进度回调
func progressReporter() translator.ProgressFunc {
	var bar *pterm.ProgressbarPrinter
	return func(current, total int, status string) {
		if bar == nil {
			bar, _ = pterm.DefaultProgressbar.
				WithTotal(total).
				WithTitle("翻译进度").
				Start()
		}
		if bar == nil {
			return
		}
		bar.UpdateTitle(status)
		if delta := current - bar.Current; delta > 0 {
			bar.Add(delta)
		}
		if current >= total && strings.Contains(status, "done") {
			_, _ = bar.Stop()
		}
	}
}

// streamProgressReporter 流式模式的进度回调：增量会直接写到终端，
// 进度条会和增量交错，改为每个片段打印一行标题
func streamProgressReporter() translator.ProgressFunc {
	return func(current, total int, status string) {
		if strings.Contains(status, "done") {
			fmt.Println()
			return
		}
		color.Cyan("--- 片段 %d/%d ---", current, total)
	}
}

// checkModelAvailable 检查模型是否在端点的模型列表中，不在时返回错误并
// 给出模糊匹配建议。列表获取失败或为空时放行，端点可能不支持模型枚举。
func checkModelAvailable(ctx context.Context, trans *translator.Translator, model string) error {
	models, err := trans.ListModels(ctx)
	if err != nil || len(models) == 0 {
		return nil
	}
	for _, m := range models {
		if m == model || strings.TrimSuffix(m, ":latest") == model {
			return nil
		}
	}

	msg := fmt.Sprintf("model %q is not available on the endpoint", model)
	if ranks := fuzzy.RankFindNormalizedFold(model, models); len(ranks) > 0 {
		sort.Sort(ranks)
		msg += fmt.Sprintf(" (did you mean %q?)", ranks[0].Target)
	}
	return fmt.Errorf("%s", msg)
}

// defaultOutputPath 省略输出路径时的默认值：<stem>_translated_<语言><ext>
func defaultOutputPath(inputPath, targetLanguage string) string {
	ext := filepath.Ext(inputPath)
	base := strings.TrimSuffix(inputPath, ext)
	return base + "_translated_" + targetLanguage + ext
}
