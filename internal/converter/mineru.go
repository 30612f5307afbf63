package converter

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CheckMinerU 检查 mineru 是否可用
func CheckMinerU() bool {
	_, err := exec.LookPath("mineru")
	return err == nil
}

// PDFToMarkdown 通过 MinerU 把 PDF 提取为结构化 Markdown
// （标题、表格、公式，必要时 OCR）。backend 为 "pipeline" 或
// "hybrid-auto-engine"，解析可能很慢，超时交给 ctx 控制。
func PDFToMarkdown(ctx context.Context, pdfPath, backend string) (string, error) {
	if !CheckMinerU() {
		return "", fmt.Errorf("mineru: %w", ErrUnavailable)
	}
	if _, err := os.Stat(pdfPath); err != nil {
		return "", fmt.Errorf("input file not found: %w", err)
	}
	if backend == "" {
		backend = "pipeline"
	}

	tmpDir, err := os.MkdirTemp("", "doctranslator_mineru_")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outDir := filepath.Join(tmpDir, "out")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	cmd := exec.CommandContext(ctx, "mineru",
		"-p", pdfPath,
		"-o", outDir,
		"-b", backend,
	)
	cmd.Dir = outDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		output := stderr.String()
		if output == "" {
			output = stdout.String()
		}
		return "", &ConverterError{Tool: "mineru", Output: output, Err: err}
	}

	mdPath, err := locateMarkdown(outDir, pdfPath)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(mdPath)
	if err != nil {
		return "", fmt.Errorf("failed to read mineru output: %w", err)
	}
	return string(data), nil
}

// locateMarkdown 在 MinerU 的输出目录中找到主 Markdown 文件：
// 优先与 PDF 同名的 .md，找不到时取第一个。
func locateMarkdown(outDir, pdfPath string) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))

	var mdFiles []string
	err := filepath.WalkDir(outDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".md") {
			mdFiles = append(mdFiles, path)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to scan mineru output: %w", err)
	}

	for _, f := range mdFiles {
		if strings.TrimSuffix(filepath.Base(f), ".md") == stem {
			return f, nil
		}
	}
	if len(mdFiles) > 0 {
		return mdFiles[0], nil
	}
	return "", &ConverterError{Tool: "mineru", Output: "no markdown produced in " + outDir}
}
