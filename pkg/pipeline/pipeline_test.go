package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nerdneilsfield/go-doc-translator/pkg/document"
	"github.com/nerdneilsfield/go-doc-translator/pkg/translator"
)

// 测试降级统计只看标志位：以哨兵字样开头的正常译文不计入
func TestCountDegraded(t *testing.T) {
	fragments := []*document.TranslatedFragment{
		{Text: "обычный перевод"},
		{Text: translator.UntranslatedTag + "\nисходный текст", Degraded: true},
		{Text: translator.UntranslatedTag + " упоминается в документации"},
		{Text: translator.FailedTag + "\nещё один", Degraded: true},
	}

	assert.Equal(t, 2, countDegraded(fragments))
	assert.Equal(t, 0, countDegraded(nil))
}
