package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-doc-translator/pkg/document"
	"github.com/nerdneilsfield/go-doc-translator/pkg/providers"
	"github.com/nerdneilsfield/go-doc-translator/pkg/translator"
)

// listProvider 只实现模型枚举的假提供商
type listProvider struct {
	models  []string
	listErr error
}

func (p *listProvider) Generate(ctx context.Context, req *providers.Request) (*providers.Response, error) {
	return &providers.Response{Text: "", Model: req.Model}, nil
}

func (p *listProvider) GenerateStream(ctx context.Context, req *providers.Request, onDelta providers.StreamFunc) (string, error) {
	return "", nil
}

func (p *listProvider) ListModels(ctx context.Context) ([]string, error) {
	return p.models, p.listErr
}

func (p *listProvider) CheckConnection(ctx context.Context) bool { return true }
func (p *listProvider) Name() string                             { return "list" }
func (p *listProvider) Close() error                             { return nil }

func newListTranslator(p providers.Provider) *translator.Translator {
	return translator.New(p, translator.Config{Model: "translategemma"}, nil)
}

// 测试模型可用性检查：在列表中放行，不在时报错并给出模糊建议
func TestCheckModelAvailable(t *testing.T) {
	ctx := context.Background()

	trans := newListTranslator(&listProvider{models: []string{"translategemma:latest", "llama3"}})
	assert.NoError(t, checkModelAvailable(ctx, trans, "translategemma"))
	assert.NoError(t, checkModelAvailable(ctx, trans, "llama3"))

	err := checkModelAvailable(ctx, trans, "translatgemma")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "translatgemma")
	assert.Contains(t, err.Error(), "translategemma:latest")
}

// 测试模型枚举失败或为空时放行，端点可能不支持枚举
func TestCheckModelAvailableListUnavailable(t *testing.T) {
	ctx := context.Background()

	trans := newListTranslator(&listProvider{listErr: errors.New("not supported")})
	assert.NoError(t, checkModelAvailable(ctx, trans, "anything"))

	trans = newListTranslator(&listProvider{})
	assert.NoError(t, checkModelAvailable(ctx, trans, "anything"))
}

// 测试默认输出路径带目标语言后缀
func TestDefaultOutputPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		language string
		want     string
	}{
		{"JSON 文档", "/a/doc.json", "Russian", "/a/doc_translated_Russian.json"},
		{"Word 文档", "report.docx", "Chinese", "report_translated_Chinese.docx"},
		{"无扩展名", "notes", "Russian", "notes_translated_Russian"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, defaultOutputPath(tt.input, tt.language))
		})
	}
}

func writeTestSource(t *testing.T, dir string) string {
	t.Helper()
	src := &document.Source{}
	src.AddParagraph("первый абзац документа", document.Metadata{})
	src.AddParagraph("второй абзац документа", document.Metadata{})
	path := filepath.Join(dir, "doc.json")
	require.NoError(t, src.Save(path))
	return path
}

// 测试 chunk 命令把每个片段写成单独的 chunk_NNN.txt 文件
func TestChunkCommandWritesFiles(t *testing.T) {
	dir := t.TempDir()
	srcPath := writeTestSource(t, dir)
	outDir := filepath.Join(dir, "out")

	cmd := NewRootCommand("test", "none", "today")
	cmd.SetArgs([]string{"chunk", srcPath, "-o", outDir, "--max-chars", "10"})
	require.NoError(t, cmd.Execute())

	// 字符上限小于单个段落，每个段落成为独立片段
	first, err := os.ReadFile(filepath.Join(outDir, "chunk_000.txt"))
	require.NoError(t, err)
	assert.Equal(t, "первый абзац документа", string(first))

	second, err := os.ReadFile(filepath.Join(outDir, "chunk_001.txt"))
	require.NoError(t, err)
	assert.Equal(t, "второй абзац документа", string(second))
}

// 测试 chunk 命令省略 -o 时写入 <输入目录>/chunks
func TestChunkCommandDefaultDirectory(t *testing.T) {
	dir := t.TempDir()
	srcPath := writeTestSource(t, dir)

	cmd := NewRootCommand("test", "none", "today")
	cmd.SetArgs([]string{"chunk", srcPath})
	require.NoError(t, cmd.Execute())

	entries, err := os.ReadDir(filepath.Join(dir, "chunks"))
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}
