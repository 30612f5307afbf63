package converter

import (
	"fmt"
	"os"
	"sort"
	"strings"

	rpdf "rsc.io/pdf"
)

// ExtractPDFText 不依赖外部工具的纯文本 PDF 提取，
// 作为 MinerU 缺失时的兜底路径。按页收集文本条目，
// 以坐标近似还原阅读顺序，行间距明显时插入段落边界。
func ExtractPDFText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat pdf: %w", err)
	}

	doc, err := rpdf.NewReader(f, st.Size())
	if err != nil {
		return "", &ConverterError{Tool: "pdf reader", Err: err}
	}

	var pages []string
	for i := 1; i <= doc.NumPage(); i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		text := pageText(page)
		if strings.TrimSpace(text) != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}

// pageText 把一页的文本条目按 Y 降序、X 升序排列并拼成段落
func pageText(page rpdf.Page) string {
	content := page.Content()
	items := content.Text
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Y != items[j].Y {
			return items[i].Y > items[j].Y
		}
		return items[i].X < items[j].X
	})

	var sb strings.Builder
	var lastY float64
	for i, item := range items {
		if i > 0 {
			gap := lastY - item.Y
			switch {
			case gap > item.FontSize*1.8:
				// 行距明显大于字号：视为段落边界
				sb.WriteString("\n\n")
			case gap > item.FontSize*0.5:
				sb.WriteString("\n")
			}
		}
		sb.WriteString(item.S)
		lastY = item.Y
	}
	return sb.String()
}
