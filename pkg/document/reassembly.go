package document

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// ErrNoFragments 重组输入为空
var ErrNoFragments = errors.New("no translated fragments to reassemble")

var cellSplitRe = regexp.MustCompile(`\s*\|\s*`)

// Reassembler 把翻译后的片段按原始结构顺序重建为输出文档。
// 模型可能在表格中间插入多余空行，把一张表拆成相邻的多个分段；
// 重组时通过前瞻合并把它们收回同一张表。
type Reassembler struct {
	logger *zap.Logger
}

// NewReassembler 创建重组器
func NewReassembler(logger *zap.Logger) *Reassembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reassembler{logger: logger}
}

// Reassemble 按片段序号排序后逐个消费翻译文本，产出新的结构化文档。
// src 为原始文档（用于克隆表格形状），可以为 nil，此时使用裸默认文档。
func (r *Reassembler) Reassemble(fragments []*TranslatedFragment, src *Source) (*Source, error) {
	if len(fragments) == 0 {
		return nil, ErrNoFragments
	}

	sorted := make([]*TranslatedFragment, len(fragments))
	copy(sorted, fragments)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Index() < sorted[j].Index()
	})

	out := &Source{}
	for _, tf := range sorted {
		r.consumeFragment(tf, src, out)
	}
	return out, nil
}

// consumeFragment 把一个片段的翻译文本映射回其原始元素序列。
// 分段数量与元素数量可能漂移：分段先耗尽时静默停止，不伪造内容。
func (r *Reassembler) consumeFragment(tf *TranslatedFragment, src *Source, out *Source) {
	segments := strings.Split(tf.Text, Separator)
	segIdx := 0

	for _, el := range tf.Elements() {
		if segIdx >= len(segments) {
			r.logger.Debug("翻译分段先于元素耗尽，停止消费",
				zap.Int("fragment", tf.Index()),
				zap.Int("segments", len(segments)),
				zap.Int("elements", len(tf.Elements())))
			return
		}

		switch el.Kind {
		case KindParagraph, KindBlock:
			text := segments[segIdx]
			segIdx++
			out.Items = append(out.Items, SourceItem{
				Kind: itemParagraph,
				Text: strings.TrimSpace(text),
				Meta: el.Meta,
			})

		case KindTable:
			tableText, consumed := collectTableSegments(segments[segIdx:], el.Meta.Rows)
			segIdx += consumed
			out.Items = append(out.Items, r.rebuildTable(tableText, el, src))
		}
	}
}

// collectTableSegments 收集属于同一张表的连续分段。
// 每消费一个分段后依次检查：结束标记、已解析的非空行数达到元数据记录的行数；
// 只有从未出现开始标记时才回退为恰好消费一个分段。
func collectTableSegments(segments []string, expectedRows int) (string, int) {
	var blocks []string
	consumed := 0

	for consumed < len(segments) {
		blocks = append(blocks, segments[consumed])
		consumed++
		combined := strings.Join(blocks, "\n")

		if strings.Contains(combined, TableEndMarker) {
			break
		}
		if expectedRows > 0 {
			raw := stripTableMarkers(combined)
			if countNonEmptyLines(raw) >= expectedRows {
				break
			}
		}
		// 没有任何开始标记：一个分段就是一张完整的表
		if !strings.Contains(combined, TableStartMarker) {
			break
		}
	}

	return strings.Join(blocks, "\n"), consumed
}

// rebuildTable 解析表格文本并按行主序填入克隆的表格形状。
// 超出解析结果的单元格留空，而不是报错。
func (r *Reassembler) rebuildTable(tableText string, el Element, src *Source) SourceItem {
	raw := stripTableMarkers(tableText)

	var rowsData [][]string
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rowsData = append(rowsData, cellSplitRe.Split(strings.TrimSpace(line), -1))
	}

	var flat []string
	for _, row := range rowsData {
		flat = append(flat, row...)
	}

	rows, cols := tableShape(el, src, rowsData)

	cells := make([][]string, rows)
	idx := 0
	for i := 0; i < rows; i++ {
		cells[i] = make([]string, cols)
		for j := 0; j < cols; j++ {
			if idx < len(flat) {
				cells[i][j] = flat[idx]
			}
			idx++
		}
	}

	return SourceItem{Kind: itemTable, Cells: cells, Meta: el.Meta}
}

// tableShape 确定重建表格的行列数：优先克隆原始文档中的表格形状，
// 没有原始文档时按解析结果自适应。
func tableShape(el Element, src *Source, parsed [][]string) (rows, cols int) {
	if src != nil && el.Ref >= 0 && el.Ref < len(src.Items) {
		orig := src.Items[el.Ref]
		if orig.ItemKind() == KindTable && len(orig.Cells) > 0 {
			rows = len(orig.Cells)
			for _, row := range orig.Cells {
				if len(row) > cols {
					cols = len(row)
				}
			}
			return rows, cols
		}
	}
	if el.Meta.Rows > 0 && el.Meta.Cols > 0 {
		return el.Meta.Rows, el.Meta.Cols
	}
	rows = len(parsed)
	for _, row := range parsed {
		if len(row) > cols {
			cols = len(row)
		}
	}
	return rows, cols
}

func stripTableMarkers(text string) string {
	text = strings.ReplaceAll(text, TableStartMarker, "")
	text = strings.ReplaceAll(text, TableEndMarker, "")
	return strings.TrimSpace(text)
}

func countNonEmptyLines(text string) int {
	count := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count
}
