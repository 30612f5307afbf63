package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nerdneilsfield/go-doc-translator/internal/logger"
	"github.com/nerdneilsfield/go-doc-translator/pkg/pipeline"
)

// NewChunkCommand 创建 chunk 子命令
func NewChunkCommand() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "chunk input_file",
		Short: "切块检查：把文档拆成的片段逐个写成文件，不调用翻译端点",
		Args:  cobra.ExactArgs(1),
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

			fragments, err := processor.Chunk(cmd.Context(), inputPath)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"#", "字符数", "元素数", "预览"})

			totalChars := 0
			totalElements := 0
			for _, f := range fragments {
				t.AppendRow(table.Row{f.Index, f.CharCount, len(f.Elements), previewText(f.Text, 48)})
				totalChars += f.CharCount
				totalElements += len(f.Elements)
			}
			t.AppendFooter(table.Row{"合计", totalChars, totalElements, ""})
			t.SetStyle(table.StyleLight)
			t.Render()

			// 片段写成单独的文件，便于逐个检查切块边界
			dir := outputDir
			if dir == "" {
				dir = filepath.Join(filepath.Dir(inputPath), "chunks")
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create chunk directory: %w", err)
			}
			for _, f := range fragments {
				path := filepath.Join(dir, fmt.Sprintf("chunk_%03d.txt", f.Index))
				if err := os.WriteFile(path, []byte(f.Text), 0o644); err != nil {
					return fmt.Errorf("failed to write chunk file: %w", err)
				}
			}

			fmt.Printf("共 %d 个片段，字符上限 %d，已保存到 %s\n", len(fragments), cfg.MaxChars, dir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "片段输出目录（默认 <输入目录>/chunks）")
	return cmd
}
