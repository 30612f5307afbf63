// Package converter 封装外部转换工具（Pandoc、MinerU）。
// 核心流水线把它们当作黑盒：工具缺失、非零退出或输出异常
// 都归结为同一类"转换器不可用/失败"错误，由调用方决定是否重试。
package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// ErrUnavailable 转换器不在 PATH 中
var ErrUnavailable = errors.New("converter unavailable")

// ConverterError 外部转换工具执行失败
type ConverterError struct {
	Tool   string
	Output string
	Err    error
}

// Error 实现 error 接口
func (e *ConverterError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s failed: %s", e.Tool, e.Output)
	}
	return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
}

// Unwrap 返回原因错误
func (e *ConverterError) Unwrap() error {
	return e.Err
}

// CheckPandoc 检查 pandoc 是否可用
func CheckPandoc() bool {
	_, err := exec.LookPath("pandoc")
	return err == nil
}

// DocxToMarkdown 通过 Pandoc 把 DOCX 转换为 Markdown。
// wrap 控制换行模式："none"、"auto" 或 "preserve"。
func DocxToMarkdown(ctx context.Context, docxPath, wrap string) (string, error) {
	if !CheckPandoc() {
		return "", fmt.Errorf("pandoc: %w", ErrUnavailable)
	}
	if _, err := os.Stat(docxPath); err != nil {
		return "", fmt.Errorf("input file not found: %w", err)
	}
	if wrap == "" {
		wrap = "none"
	}

	cmd := exec.CommandContext(ctx, "pandoc",
		"-f", "docx",
		"-t", "markdown",
		"--wrap", wrap,
		docxPath,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &ConverterError{Tool: "pandoc docx->markdown", Output: stderr.String(), Err: err}
	}
	return stdout.String(), nil
}

// MarkdownToDocx 通过 Pandoc 把 Markdown 转换为 DOCX。
// referenceDocx 非空且存在时作为样式模板（--reference-doc），
// 保留原始文档的样式；否则使用 Pandoc 的默认文档。
func MarkdownToDocx(ctx context.Context, markdownContent, outputPath, referenceDocx string) error {
	if !CheckPandoc() {
		return fmt.Errorf("pandoc: %w", ErrUnavailable)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	args := []string{
		"-f", "markdown",
		"-t", "docx",
		"-o", outputPath,
	}
	if referenceDocx != "" {
		if _, err := os.Stat(referenceDocx); err == nil {
			args = append(args, "--reference-doc", referenceDocx)
		}
	}

	cmd := exec.CommandContext(ctx, "pandoc", args...)
	cmd.Stdin = bytes.NewBufferString(markdownContent)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &ConverterError{Tool: "pandoc markdown->docx", Output: stderr.String(), Err: err}
	}
	return nil
}
