package cli

import (
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// timeRound 耗时展示精度
const timeRound = 100 * time.Millisecond

// languageDisplayName 把 BCP 47 语言代码转为英文显示名。
// 输入不是合法代码时（如直接给出 "Russian"）原样返回。
func languageDisplayName(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return lang
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return lang
}

// previewText 截取片段文本的单行预览
func previewText(text string, maxRunes int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxRunes]) + "…"
}
