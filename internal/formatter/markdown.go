// Package formatter 在切块之前对 Markdown 做归一化，
// 让转换器输出的不规整文本获得稳定的块边界。
package formatter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Kunde21/markdownfmt/v3"
	"github.com/Kunde21/markdownfmt/v3/markdown"
)

// 需要在格式化期间保护的区域：围栏代码块、行内代码与数学公式。
// markdownfmt 会重排这些内容，先用占位符换出、格式化后再换回。
var protectedPatterns = []struct {
	prefix string
	re     *regexp.Regexp
}{
	{"CODE", regexp.MustCompile("(?s)```.*?```")},
	{"INLINE_CODE", regexp.MustCompile("`[^`\n]+`")},
	{"MATH_BLOCK", regexp.MustCompile(`(?s)\$\$.*?\$\$`)},
	{"MATH_INLINE", regexp.MustCompile(`\$[^$\n]+\$`)},
}

// NormalizeMarkdown 用 markdownfmt 归一化 Markdown 文本。
// 失败时返回错误，调用方可以选择跳过归一化继续流程。
func NormalizeMarkdown(content []byte) ([]byte, error) {
	protected, markers := protectBlocks(string(content))

	mdOpts := []markdown.Option{
		markdown.WithCodeFormatters(markdown.GoCodeFormatter),
	}
	formatted, err := markdownfmt.Process("", []byte(protected), mdOpts...)
	if err != nil {
		return nil, fmt.Errorf("markdown formatting failed: %w", err)
	}

	result := restoreBlocks(string(formatted), markers)
	result = cleanExtraEmptyLines(result)
	return []byte(result), nil
}

// protectBlocks 把受保护区域替换为占位符
func protectBlocks(text string) (string, map[string]string) {
	markers := make(map[string]string)
	counter := 0
	for _, p := range protectedPatterns {
		text = p.re.ReplaceAllStringFunc(text, func(match string) string {
			counter++
			marker := fmt.Sprintf("@@%s_%d@@", p.prefix, counter)
			markers[marker] = match
			return marker
		})
	}
	return text, markers
}

// restoreBlocks 把占位符换回原始内容
func restoreBlocks(text string, markers map[string]string) string {
	for marker, original := range markers {
		text = strings.ReplaceAll(text, marker, original)
	}
	return text
}

var extraEmptyLinesRe = regexp.MustCompile(`\n{3,}`)

// cleanExtraEmptyLines 把连续多个空行压成一个空行，
// 并保证文件以单个换行符结束
func cleanExtraEmptyLines(text string) string {
	text = extraEmptyLinesRe.ReplaceAllString(text, "\n\n")
	text = strings.TrimLeft(text, "\n")
	return strings.TrimRight(text, "\n") + "\n"
}
