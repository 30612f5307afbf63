package translator

import "fmt"

// DefaultSystemPrompt 纯文本模式的系统提示词：
// 要求模型原样保留段落结构与表格标记。
const DefaultSystemPrompt = `You are a professional translator specializing in clinical and regulatory documents.
Your task is to translate the text accurately while:
- Preserving the exact meaning and terminology
- Maintaining the document structure (paragraphs, lists, tables)
- Keeping any special markers like [ТАБЛИЦА] and [/ТАБЛИЦА] unchanged
- Not adding any explanations or comments
- Translating ONLY the content, nothing else

If you see text formatted as a table (with | separators), preserve that format exactly.`

// MarkdownSystemPrompt Markdown 模式的系统提示词：
// 禁止改动任何 Markdown 语法，只翻译可见文本。
const MarkdownSystemPrompt = `You are a professional translator. The input is a fragment of a document in Markdown format.
Translate ONLY the natural language text to the target language. You MUST:
- Keep all Markdown syntax exactly as in the input: headers (# ## ###), tables (| ... |), lists (- * 1.), bold/italic (** *), code blocks (` + "```" + `), links, etc.
- Do not add or remove any structural markup; only translate the visible text content.
- Output valid Markdown with the same structure. Do not add explanations or comments.`

// BuildPrompt 构造用户提示词，以 TRANSLATION: 结尾引导模型直接输出译文
func BuildPrompt(text, targetLanguage string) string {
	return fmt.Sprintf(`Translate the following text to %s.

TEXT TO TRANSLATE:
%s

TRANSLATION:`, targetLanguage, text)
}
