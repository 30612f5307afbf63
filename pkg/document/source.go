package document

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// SourceItem 结构化文档中的一个条目。
// 段落使用 Text，表格使用 Cells（按行排列的单元格）。
type SourceItem struct {
	Kind  string     `json:"kind"`
	Text  string     `json:"text,omitempty"`
	Meta  Metadata   `json:"meta,omitempty"`
	Cells [][]string `json:"cells,omitempty"`
}

// Source 结构化文档模型。外部转换器负责原生二进制格式与该模型之间的转换，
// 核心流水线只处理这一层。
type Source struct {
	Path  string       `json:"path,omitempty"`
	Items []SourceItem `json:"items"`
}

// 条目类型的序列化取值
const (
	itemParagraph = "paragraph"
	itemTable     = "table"
	itemBlock     = "block"
)

// ItemKind 把序列化类型映射为 ElementKind
func (it *SourceItem) ItemKind() ElementKind {
	switch it.Kind {
	case itemTable:
		return KindTable
	case itemBlock:
		return KindBlock
	default:
		return KindParagraph
	}
}

// LoadSource 从 JSON 文件加载结构化文档
func LoadSource(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source document: %w", err)
	}
	var src Source
	if err := json.Unmarshal(data, &src); err != nil {
		return nil, fmt.Errorf("failed to parse source document: %w", err)
	}
	if src.Path == "" {
		src.Path = path
	}
	return &src, nil
}

// Save 把结构化文档写入 JSON 文件
func (s *Source) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

// AddParagraph 追加一个段落条目
func (s *Source) AddParagraph(text string, meta Metadata) {
	s.Items = append(s.Items, SourceItem{Kind: itemParagraph, Text: text, Meta: meta})
}

// AddTable 追加一个表格条目
func (s *Source) AddTable(cells [][]string, meta Metadata) {
	s.Items = append(s.Items, SourceItem{Kind: itemTable, Cells: cells, Meta: meta})
}

// TableText 把单元格渲染为发给模型的行文本，一行一条，单元格之间用 " | " 连接
func TableText(cells [][]string) string {
	rows := make([]string, 0, len(cells))
	for _, row := range cells {
		trimmed := make([]string, 0, len(row))
		for _, cell := range row {
			trimmed = append(trimmed, strings.TrimSpace(cell))
		}
		rows = append(rows, strings.Join(trimmed, " | "))
	}
	return strings.Join(rows, "\n")
}

// WrapTable 给表格文本加上包围标记
func WrapTable(text string) string {
	return TableStartMarker + "\n" + text + "\n" + TableEndMarker
}
