package translator

import (
	"regexp"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/nerdneilsfield/go-doc-translator/pkg/document"
	"github.com/nerdneilsfield/go-doc-translator/pkg/markdown"
)

// 净化流水线：每个阶段都是纯函数，按顺序组合，对不适用的输入保持无操作。

// 推理块标记对。有些模型（DeepSeek R1 等）会把思考过程插进回答里，
// 翻译只需要最终文本。
var reasoningPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)\s*<think>.*?</think>`),
	regexp.MustCompile(`(?is)\s*<thinking>.*?</thinking>`),
	regexp.MustCompile(`(?is)\s*<reasoning>.*?</reasoning>`),
	regexp.MustCompile(`(?s)\s*\[THINKING\].*?\[/THINKING\]`),
}

var reasoningDelimiters = []string{
	"<think>", "</think>",
	"<thinking>", "</thinking>",
	"<reasoning>", "</reasoning>",
	"[THINKING]", "[/THINKING]",
}

// 译文标记：模型经常把提示词尾部的引导标记回显出来，
// 截断到最后一次出现之后的内容。
var translationMarkers = []string{
	"TRANSLATION:",
	"ПЕРЕВОД:",
	"Перевод:",
	"翻译:",
	"译文:",
}

// 伪随机噪声行：长且无空白、主要由 base64 字母表组成、
// 不含可识别的词。需要前瞻断言，标准库 regexp 不支持。
var noiseLineRe = regexp2.MustCompile(`^(?=.{48,}$)(?!.*\s)(?=.*[0-9+/=])[A-Za-z0-9+/=_-]+$`, regexp2.None)

// 内嵌的 base64 data-URI
var dataURIRe = regexp.MustCompile(`data:[a-zA-Z0-9/+.-]+;base64,[A-Za-z0-9+/=]+`)

// stripReasoning 移除推理块（阶段 a）
func stripReasoning(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	for _, re := range reasoningPatterns {
		text = re.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}

// hasReasoningDelimiters 检查文本是否仍残留推理块分隔符
func hasReasoningDelimiters(text string) bool {
	lower := strings.ToLower(text)
	for _, tag := range reasoningDelimiters {
		if strings.Contains(lower, strings.ToLower(tag)) {
			return true
		}
	}
	return false
}

// extractAfterMarker 截断到最后一个译文标记之后（阶段 b）
func extractAfterMarker(text string) string {
	cut := -1
	for _, marker := range translationMarkers {
		if idx := strings.LastIndex(text, marker); idx >= 0 && idx+len(marker) > cut {
			cut = idx + len(marker)
		}
	}
	if cut < 0 {
		return text
	}
	return strings.TrimSpace(text[cut:])
}

// unwrapCodeFence 如果整段文本被代码围栏包裹，剥掉一层（阶段 c）
func unwrapCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return text
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[len(lines)-1]) != "```" {
		return text
	}
	return strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
}

// 成对的包裹引号
var quotePairs = [][2]string{
	{`"`, `"`},
	{`'`, `'`},
	{"«", "»"},
	{"“", "”"},
	{"「", "」"},
}

// stripQuotes 剥掉一层包裹整段文本的引号（阶段 d）
func stripQuotes(text string) string {
	trimmed := strings.TrimSpace(text)
	for _, pair := range quotePairs {
		if len(trimmed) > len(pair[0])+len(pair[1]) &&
			strings.HasPrefix(trimmed, pair[0]) && strings.HasSuffix(trimmed, pair[1]) {
			return strings.TrimSpace(trimmed[len(pair[0]) : len(trimmed)-len(pair[1])])
		}
	}
	return text
}

// removeNoise 删除 base64 样噪声行与内嵌 data-URI（阶段 e）
func removeNoise(text string) string {
	text = dataURIRe.ReplaceAllString(text, "")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if isNoiseLine(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func isNoiseLine(line string) bool {
	matched, err := noiseLineRe.MatchString(strings.TrimSpace(line))
	return err == nil && matched
}

// collapseBlankLines 把 3 个及以上连续空行压成恰好一个空行（阶段 f）
func collapseBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	blankRun := 0

	flushRun := func() {
		if blankRun == 0 {
			return
		}
		if blankRun >= 3 {
			result = append(result, "")
		} else {
			for i := 0; i < blankRun; i++ {
				result = append(result, "")
			}
		}
		blankRun = 0
	}

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blankRun++
			continue
		}
		flushRun()
		result = append(result, line)
	}
	flushRun()

	return strings.Join(result, "\n")
}

// removeTableBlankLines 删除夹在两条表格语法行之间的空行（阶段 g），
// 保证表格在重组前保持连续。
func removeTableBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	var result []string

	for i, line := range lines {
		if strings.TrimSpace(line) == "" && i > 0 && i < len(lines)-1 {
			prev := lastNonEmpty(result)
			next := nextNonEmpty(lines, i+1)
			if isTableSyntaxLine(prev) && isTableSyntaxLine(next) {
				continue
			}
		}
		result = append(result, line)
	}
	return strings.Join(result, "\n")
}

func isTableSyntaxLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == document.TableStartMarker || trimmed == document.TableEndMarker {
		return true
	}
	if markdown.IsTableLine(trimmed) {
		return true
	}
	// 结构化流水线的表格行没有前导符号，用单元格分隔符识别
	return strings.Contains(trimmed, " | ")
}

func lastNonEmpty(lines []string) string {
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			return lines[i]
		}
	}
	return ""
}

func nextNonEmpty(lines []string, from int) string {
	for i := from; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "" {
			return lines[i]
		}
	}
	return ""
}

// Sanitize 按顺序应用净化流水线。
// 结果为空或仍残留推理分隔符时回退到仅去除推理块的原始文本；
// 连回退都为空时返回空串，由调用方改用降级哨兵。
func Sanitize(raw string) string {
	stripped := stripReasoning(raw)

	result := stripped
	result = extractAfterMarker(result)
	result = unwrapCodeFence(result)
	result = stripQuotes(result)
	result = removeNoise(result)
	result = collapseBlankLines(result)
	result = removeTableBlankLines(result)
	result = strings.TrimSpace(result)

	if result == "" || hasReasoningDelimiters(result) {
		return strings.TrimSpace(stripped)
	}
	return result
}
