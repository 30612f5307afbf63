package document

import (
	"unicode/utf8"

	"go.uber.org/zap"
)

// DefaultMaxChars 单个片段的默认字符上限
const DefaultMaxChars = 4000

// Assembler 把元素序列按字符上限贪心打包成片段。
// 元素永远不会被拆开：超过上限的原子元素独占一个片段，调用方需容忍该超限。
type Assembler struct {
	maxChars int
	logger   *zap.Logger
}

// NewAssembler 创建片段组装器
func NewAssembler(maxChars int, logger *zap.Logger) *Assembler {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{maxChars: maxChars, logger: logger}
}

// MaxChars 返回字符上限
func (a *Assembler) MaxChars() int {
	return a.maxChars
}

// Assemble 线性扫描元素序列并产出片段，序号从 0 起连续递增。
// 缓冲区内相邻元素之间按 2 个字符的分隔符计数。
func (a *Assembler) Assemble(elements []Element, sourceFile string) []*Fragment {
	var fragments []*Fragment
	var buffer []Element
	bufferLen := 0
	nextIndex := 0
	sepLen := utf8.RuneCountInString(Separator)

	flush := func() {
		if len(buffer) == 0 {
			return
		}
		fragments = append(fragments, NewFragment(nextIndex, buffer, sourceFile))
		nextIndex++
		buffer = nil
		bufferLen = 0
	}

	for _, el := range elements {
		textLen := utf8.RuneCountInString(el.Text)
		oversized := el.Kind == KindTable && textLen > a.maxChars
		if oversized {
			a.logger.Warn("表格超过片段字符上限，将独占一个片段",
				zap.Int("table_chars", textLen),
				zap.Int("max_chars", a.maxChars))
		}

		added := textLen
		if len(buffer) > 0 {
			added += sepLen
		}
		if bufferLen+added > a.maxChars && len(buffer) > 0 {
			flush()
			added = textLen
		}

		buffer = append(buffer, el)
		bufferLen += added

		// 超限表格之后立即封口，保证没有元素尾随在同一片段里
		if oversized {
			flush()
		}
	}

	flush()
	return fragments
}
