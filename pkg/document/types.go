package document

import (
	"strings"
	"unicode/utf8"
)

// ElementKind 文档结构元素的类型（封闭枚举）
type ElementKind int

const (
	// KindParagraph 普通段落
	KindParagraph ElementKind = iota
	// KindTable 表格（原子元素，分片时不可拆分）
	KindTable
	// KindBlock 不透明文本块（Markdown 流水线使用）
	KindBlock
)

// String 返回元素类型的名称
func (k ElementKind) String() string {
	switch k {
	case KindParagraph:
		return "paragraph"
	case KindTable:
		return "table"
	case KindBlock:
		return "block"
	default:
		return "unknown"
	}
}

// 表格文本的包围标记与片段内元素之间的分隔符。
// 标记随文本一起发给模型，系统提示词要求模型原样保留它们。
const (
	TableStartMarker = "[ТАБЛИЦА]"
	TableEndMarker   = "[/ТАБЛИЦА]"
	Separator        = "\n\n"
)

// Metadata 元素的格式元数据，创建后只读
type Metadata struct {
	StyleName string            `json:"style_name,omitempty"`
	FontName  string            `json:"font_name,omitempty"`
	FontSize  float64           `json:"font_size,omitempty"`
	Bold      bool              `json:"bold,omitempty"`
	Italic    bool              `json:"italic,omitempty"`
	Underline bool              `json:"underline,omitempty"`
	Alignment string            `json:"alignment,omitempty"`
	Rows      int               `json:"rows,omitempty"`
	Cols      int               `json:"cols,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// Element 文档的一个结构元素
type Element struct {
	Kind ElementKind
	Text string
	Meta Metadata
	// Ref 指向外部元素表（Source.Items）的索引，仅在重建表格形状时使用。
	// -1 表示没有回引用（纯文本流水线）。
	Ref int
}

// Fragment 体积受限的元素分组，作为一个整体发给转换服务
type Fragment struct {
	Index      int
	Elements   []Element
	Text       string
	CharCount  int
	SourceFile string
}

// JoinElements 按分隔符拼接元素文本
func JoinElements(elements []Element) string {
	texts := make([]string, 0, len(elements))
	for _, el := range elements {
		texts = append(texts, el.Text)
	}
	return strings.Join(texts, Separator)
}

// NewFragment 由元素序列创建片段，CharCount 等于拼接文本的字符数
func NewFragment(index int, elements []Element, sourceFile string) *Fragment {
	text := JoinElements(elements)
	return &Fragment{
		Index:      index,
		Elements:   elements,
		Text:       text,
		CharCount:  utf8.RuneCountInString(text),
		SourceFile: sourceFile,
	}
}

// TranslatedFragment 翻译后的片段，保留对原始片段的引用。
// Degraded 在翻译失败、文本被替换为哨兵加原文时置位，
// 比检查文本前缀可靠（正常译文也可能以哨兵字样开头）。
type TranslatedFragment struct {
	Original       *Fragment
	Text           string
	TargetLanguage string
	ModelID        string
	Degraded       bool
}

// Index 返回原始片段的序号
func (tf *TranslatedFragment) Index() int {
	return tf.Original.Index
}

// Elements 返回原始片段的元素序列（只读视图）
func (tf *TranslatedFragment) Elements() []Element {
	return tf.Original.Elements
}
