// Package pipeline 把提取、分片、翻译与重组编排为完整流程。
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-doc-translator/internal/converter"
	"github.com/nerdneilsfield/go-doc-translator/internal/formatter"
	"github.com/nerdneilsfield/go-doc-translator/pkg/document"
	"github.com/nerdneilsfield/go-doc-translator/pkg/markdown"
)

// Processor 单种文档格式的处理器：切块与回装
type Processor interface {
	// Chunk 把文档切分为体积受限的片段
	Chunk(ctx context.Context, path string) ([]*document.Fragment, error)
	// Assemble 把翻译后的片段装回输出文档
	Assemble(ctx context.Context, fragments []*document.TranslatedFragment, outputPath string) error
	// Extensions 支持的文件扩展名
	Extensions() []string
}

// Options 处理器选择与切块选项
type Options struct {
	MaxChars       int
	UseMinerU      bool
	MinerUBackend  string
	FormatMarkdown bool
	Logger         *zap.Logger
}

// SelectProcessor 按扩展名选择处理器。
// 结构化 JSON 走元素模型流水线；docx 走 Pandoc Markdown 流水线；
// pdf 优先 MinerU，缺失时退回纯文本提取。
func SelectProcessor(path string, opts Options) (Processor, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return NewStructuredProcessor(opts.MaxChars, opts.Logger), nil
	case ".docx":
		if !converter.CheckPandoc() {
			return nil, fmt.Errorf("docx pipeline requires pandoc: %w", converter.ErrUnavailable)
		}
		return NewPandocProcessor(opts.MaxChars, opts.FormatMarkdown, opts.Logger), nil
	case ".pdf":
		if opts.UseMinerU || converter.CheckMinerU() {
			if !converter.CheckMinerU() {
				return nil, fmt.Errorf("pdf pipeline requires mineru: %w", converter.ErrUnavailable)
			}
			if !converter.CheckPandoc() {
				return nil, fmt.Errorf("pdf pipeline requires pandoc for docx output: %w", converter.ErrUnavailable)
			}
			return NewMinerUProcessor(opts.MaxChars, opts.MinerUBackend, opts.FormatMarkdown, opts.Logger), nil
		}
		return NewPDFTextProcessor(opts.MaxChars, opts.Logger), nil
	default:
		return nil, fmt.Errorf("unsupported file format: %s", filepath.Ext(path))
	}
}

// StructuredProcessor 结构化文档流水线：
// JSON 元素模型 → 提取 → 分片，重组时克隆原始表格形状。
type StructuredProcessor struct {
	assembler   *document.Assembler
	reassembler *document.Reassembler
}

// NewStructuredProcessor 创建结构化文档处理器
func NewStructuredProcessor(maxChars int, logger *zap.Logger) *StructuredProcessor {
	return &StructuredProcessor{
		assembler:   document.NewAssembler(maxChars, logger),
		reassembler: document.NewReassembler(logger),
	}
}

// Extensions 支持的扩展名
func (p *StructuredProcessor) Extensions() []string {
	return []string{".json"}
}

// Chunk 加载结构化文档并切分为片段
func (p *StructuredProcessor) Chunk(ctx context.Context, path string) ([]*document.Fragment, error) {
	src, err := document.LoadSource(path)
	if err != nil {
		return nil, err
	}
	elements := document.Extract(src)
	return p.assembler.Assemble(elements, path), nil
}

// Assemble 重组翻译结果并保存为结构化 JSON。
// 片段记录的源文件仍然可读时作为表格形状的模板；
// 否则使用裸默认文档。
func (p *StructuredProcessor) Assemble(ctx context.Context, fragments []*document.TranslatedFragment, outputPath string) error {
	var src *document.Source
	if len(fragments) > 0 && fragments[0].Original.SourceFile != "" {
		if loaded, err := document.LoadSource(fragments[0].Original.SourceFile); err == nil {
			src = loaded
		}
	}

	out, err := p.reassembler.Reassemble(fragments, src)
	if err != nil {
		return err
	}
	return out.Save(outputPath)
}

// markdownChunk Markdown 流水线共用的切块逻辑
func markdownChunk(content, sourceFile string, maxChars int, format bool, logger *zap.Logger) []*document.Fragment {
	if format {
		if normalized, err := formatter.NormalizeMarkdown([]byte(content)); err == nil {
			content = string(normalized)
		} else if logger != nil {
			logger.Warn("Markdown 归一化失败，使用原始文本", zap.Error(err))
		}
	}
	blocks := markdown.SplitBlocks(content)
	groups := markdown.GroupBlocks(blocks, maxChars)
	return markdown.Fragments(groups, sourceFile)
}

// joinTranslated 按片段序号拼接翻译文本
func joinTranslated(fragments []*document.TranslatedFragment) string {
	sorted := make([]*document.TranslatedFragment, len(fragments))
	copy(sorted, fragments)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Index() < sorted[j].Index()
	})

	texts := make([]string, 0, len(sorted))
	for _, tf := range sorted {
		texts = append(texts, strings.TrimSpace(tf.Text))
	}
	return strings.Join(texts, document.Separator)
}

// PandocProcessor Word 文档流水线：docx → Markdown → 模型 → docx。
// 回装时用源文档作为 --reference-doc 保留样式。
type PandocProcessor struct {
	maxChars       int
	formatMarkdown bool
	logger         *zap.Logger
}

// NewPandocProcessor 创建 Pandoc Word 处理器
func NewPandocProcessor(maxChars int, formatMarkdown bool, logger *zap.Logger) *PandocProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PandocProcessor{maxChars: maxChars, formatMarkdown: formatMarkdown, logger: logger}
}

// Extensions 支持的扩展名
func (p *PandocProcessor) Extensions() []string {
	return []string{".docx"}
}

// Chunk 把 docx 转为 Markdown 并按块切分
func (p *PandocProcessor) Chunk(ctx context.Context, path string) ([]*document.Fragment, error) {
	md, err := converter.DocxToMarkdown(ctx, path, "none")
	if err != nil {
		return nil, err
	}
	return markdownChunk(md, path, p.maxChars, p.formatMarkdown, p.logger), nil
}

// Assemble 拼接译文并转回 docx，源文档作为样式模板
func (p *PandocProcessor) Assemble(ctx context.Context, fragments []*document.TranslatedFragment, outputPath string) error {
	if len(fragments) == 0 {
		return document.ErrNoFragments
	}
	reference := fragments[0].Original.SourceFile
	return converter.MarkdownToDocx(ctx, joinTranslated(fragments), outputPath, reference)
}

// MinerUProcessor PDF 流水线：PDF → Markdown (MinerU) → 模型 → docx (Pandoc)
type MinerUProcessor struct {
	maxChars       int
	backend        string
	formatMarkdown bool
	logger         *zap.Logger
}

// NewMinerUProcessor 创建 MinerU PDF 处理器
func NewMinerUProcessor(maxChars int, backend string, formatMarkdown bool, logger *zap.Logger) *MinerUProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MinerUProcessor{maxChars: maxChars, backend: backend, formatMarkdown: formatMarkdown, logger: logger}
}

// Extensions 支持的扩展名
func (p *MinerUProcessor) Extensions() []string {
	return []string{".pdf"}
}

// Chunk 把 PDF 提取为 Markdown 并按块切分
func (p *MinerUProcessor) Chunk(ctx context.Context, path string) ([]*document.Fragment, error) {
	md, err := converter.PDFToMarkdown(ctx, path, p.backend)
	if err != nil {
		return nil, err
	}
	return markdownChunk(md, path, p.maxChars, p.formatMarkdown, p.logger), nil
}

// Assemble 拼接译文并转为 docx。源文档是 PDF，没有可用的样式模板，
// 输出路径的 .pdf 扩展名被改写为 .docx。
func (p *MinerUProcessor) Assemble(ctx context.Context, fragments []*document.TranslatedFragment, outputPath string) error {
	if len(fragments) == 0 {
		return document.ErrNoFragments
	}
	outputPath = forceDocxExt(outputPath)
	return converter.MarkdownToDocx(ctx, joinTranslated(fragments), outputPath, "")
}

// PDFTextProcessor 纯文本 PDF 流水线：MinerU 缺失时的兜底。
// 提取的文本按 Markdown 块规则切分；回装时有 pandoc 则产出 docx，
// 否则写纯文本。
type PDFTextProcessor struct {
	maxChars int
	logger   *zap.Logger
}

// NewPDFTextProcessor 创建纯文本 PDF 处理器
func NewPDFTextProcessor(maxChars int, logger *zap.Logger) *PDFTextProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDFTextProcessor{maxChars: maxChars, logger: logger}
}

// Extensions 支持的扩展名
func (p *PDFTextProcessor) Extensions() []string {
	return []string{".pdf"}
}

// Chunk 提取 PDF 纯文本并按块切分
func (p *PDFTextProcessor) Chunk(ctx context.Context, path string) ([]*document.Fragment, error) {
	text, err := converter.ExtractPDFText(path)
	if err != nil {
		return nil, err
	}
	return markdownChunk(text, path, p.maxChars, false, p.logger), nil
}

// Assemble 拼接译文写出结果
func (p *PDFTextProcessor) Assemble(ctx context.Context, fragments []*document.TranslatedFragment, outputPath string) error {
	if len(fragments) == 0 {
		return document.ErrNoFragments
	}
	joined := joinTranslated(fragments)

	if converter.CheckPandoc() {
		return converter.MarkdownToDocx(ctx, joined, forceDocxExt(outputPath), "")
	}
	return os.WriteFile(outputPath, []byte(joined+"\n"), 0o644)
}

// forceDocxExt 把 .pdf 输出路径改写为 .docx（不支持直接写 PDF）
func forceDocxExt(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return strings.TrimSuffix(path, filepath.Ext(path)) + ".docx"
	}
	return path
}
