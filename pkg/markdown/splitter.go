// Package markdown 把平面 Markdown 文本切分为结构块并按字符上限分组。
// 表格是唯一一种意外切碎后会静默破坏输出的结构，所以切分器对任何
// 形似表格语法的内容都刻意保守（倾向合并）。
package markdown

import (
	"strings"
	"unicode/utf8"

	"github.com/nerdneilsfield/go-doc-translator/pkg/document"
)

// IsTableLine 判断一行是否属于表格语法。
// 管道表以 | 开头，Pandoc 网格表以 + 或 = 开头。
func IsTableLine(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return false
	}
	switch trimmed[0] {
	case '+', '=', '|':
		return true
	}
	return false
}

// SplitBlocks 把 Markdown 按空行切分为块。
// 一旦当前块中出现表格行，后续空行被并入块内，直到遇到非表格行为止，
// 这样带内部空白边框行的网格表/管道表不会被提前切断。
// 切分之后再做一遍合并：首行是表格行的块并入同样以表格行开头的前一块，
// 以恢复被多余空行拆开的表格续行。
func SplitBlocks(markdown string) []string {
	if strings.TrimSpace(markdown) == "" {
		return nil
	}

	var blocks []string
	var current []string
	var pendingBlanks []string
	inTable := false

	flush := func() {
		if len(current) > 0 {
			blocks = append(blocks, strings.Join(current, "\n"))
			current = nil
		}
		pendingBlanks = nil
		inTable = false
	}

	for _, line := range strings.Split(markdown, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(current) == 0 {
				continue
			}
			if inTable {
				pendingBlanks = append(pendingBlanks, line)
				continue
			}
			flush()
			continue
		}

		if len(pendingBlanks) > 0 {
			if IsTableLine(line) {
				current = append(current, pendingBlanks...)
				pendingBlanks = nil
			} else {
				flush()
			}
		}

		current = append(current, line)
		if IsTableLine(line) {
			inTable = true
		}
	}
	flush()

	return mergeTableContinuations(blocks)
}

// mergeTableContinuations 把相邻的表格块合并回一个块
func mergeTableContinuations(blocks []string) []string {
	if len(blocks) < 2 {
		return blocks
	}
	merged := make([]string, 0, len(blocks))
	merged = append(merged, blocks[0])
	for _, block := range blocks[1:] {
		prev := merged[len(merged)-1]
		if IsTableLine(firstLine(block)) && IsTableLine(firstLine(prev)) {
			merged[len(merged)-1] = prev + "\n" + block
		} else {
			merged = append(merged, block)
		}
	}
	return merged
}

func firstLine(block string) string {
	if i := strings.IndexByte(block, '\n'); i >= 0 {
		return block[:i]
	}
	return block
}

// GroupBlocks 把块按字符上限贪心分组，块之间按 2 个字符的分隔符计数。
// 单个块超过上限时独占一组。
func GroupBlocks(blocks []string, maxChars int) [][]string {
	if len(blocks) == 0 {
		return nil
	}
	if maxChars <= 0 {
		maxChars = document.DefaultMaxChars
	}

	sepLen := utf8.RuneCountInString(document.Separator)
	var groups [][]string
	var current []string
	currentLen := 0

	for _, block := range blocks {
		added := utf8.RuneCountInString(block)
		if len(current) > 0 {
			added += sepLen
		}
		if currentLen+added > maxChars && len(current) > 0 {
			groups = append(groups, current)
			current = nil
			currentLen = 0
			added = utf8.RuneCountInString(block)
		}
		current = append(current, block)
		currentLen += added
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// Fragments 把分组后的块转换为纯文本流水线的片段。
// 块作为不透明元素，无格式元数据，也没有回引用。
func Fragments(groups [][]string, sourceFile string) []*document.Fragment {
	fragments := make([]*document.Fragment, 0, len(groups))
	for i, group := range groups {
		elements := make([]document.Element, 0, len(group))
		for _, block := range group {
			elements = append(elements, document.Element{
				Kind: document.KindBlock,
				Text: block,
				Ref:  -1,
			})
		}
		fragments = append(fragments, document.NewFragment(i, elements, sourceFile))
	}
	return fragments
}
