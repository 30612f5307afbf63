package document

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paragraph(text string) Element {
	return Element{Kind: KindParagraph, Text: text, Ref: -1}
}

func tableElement(text string, rows, cols int) Element {
	return Element{
		Kind: KindTable,
		Text: TableStartMarker + "\n" + text + "\n" + TableEndMarker,
		Meta: Metadata{Rows: rows, Cols: cols},
		Ref:  -1,
	}
}

// 测试贪心打包：片段不超过字符上限，序号连续，元素顺序保持
func TestAssembleGreedyPacking(t *testing.T) {
	assembler := NewAssembler(20, nil)

	elements := []Element{
		paragraph("aaaaa"),      // 5
		paragraph("bbbbb"),      // 5 + 2 分隔符 = 12
		paragraph("cccccccccc"), // 再加 12 超过 20，另起片段
		paragraph("ddd"),
	}

	fragments := assembler.Assemble(elements, "test.json")
	require.Len(t, fragments, 2)

	// 序号从 0 起连续递增
	for i, f := range fragments {
		assert.Equal(t, i, f.Index)
		assert.Equal(t, "test.json", f.SourceFile)
	}

	// 片段文本等于元素文本按分隔符拼接
	assert.Equal(t, "aaaaa"+Separator+"bbbbb", fragments[0].Text)
	assert.Equal(t, "cccccccccc"+Separator+"ddd", fragments[1].Text)

	// 字符数按 Unicode 字符计
	for _, f := range fragments {
		assert.Equal(t, utf8.RuneCountInString(f.Text), f.CharCount)
		assert.LessOrEqual(t, f.CharCount, 20)
	}
}

// 测试非 ASCII 文本按字符而非字节计数
func TestAssembleCountsRunes(t *testing.T) {
	assembler := NewAssembler(10, nil)

	// 每个中文字符 3 字节，但只算 1 个字符
	elements := []Element{
		paragraph("四个汉字"), // 4 字符 12 字节
		paragraph("再四个字"), // 4 + 2 分隔符 = 10，恰好放得下
	}

	fragments := assembler.Assemble(elements, "")
	require.Len(t, fragments, 1)
	assert.Equal(t, 10, fragments[0].CharCount)
}

// 测试超限表格独占片段：之前的缓冲先封口，表格之后立即封口
func TestAssembleOversizedTable(t *testing.T) {
	assembler := NewAssembler(30, nil)

	bigTable := tableElement(strings.Repeat("c | c\n", 20), 20, 2)
	elements := []Element{
		paragraph("before"),
		bigTable,
		paragraph("after"),
	}

	fragments := assembler.Assemble(elements, "")
	require.Len(t, fragments, 3)

	assert.Equal(t, "before", fragments[0].Text)
	assert.Equal(t, bigTable.Text, fragments[1].Text)
	assert.Equal(t, "after", fragments[2].Text)

	// 只有表格片段允许超限
	assert.Greater(t, fragments[1].CharCount, 30)
	assert.LessOrEqual(t, fragments[0].CharCount, 30)
	assert.LessOrEqual(t, fragments[2].CharCount, 30)
}

// 测试表格作为原子元素不被拆开
func TestAssembleTableAtomic(t *testing.T) {
	assembler := NewAssembler(100, nil)

	tbl := tableElement("a | b\nc | d", 2, 2)
	elements := []Element{paragraph("intro"), tbl, paragraph("outro")}

	fragments := assembler.Assemble(elements, "")
	require.Len(t, fragments, 1)

	// 表格文本连同标记完整出现在片段里
	assert.Contains(t, fragments[0].Text, TableStartMarker)
	assert.Contains(t, fragments[0].Text, TableEndMarker)
	assert.Contains(t, fragments[0].Text, "a | b\nc | d")
}

// 测试空输入与零上限的默认值
func TestAssembleEdgeCases(t *testing.T) {
	assembler := NewAssembler(0, nil)
	assert.Equal(t, DefaultMaxChars, assembler.MaxChars())

	fragments := assembler.Assemble(nil, "")
	assert.Empty(t, fragments)
}
