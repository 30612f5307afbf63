package document

import "strings"

// Extract 按原始顺序遍历结构化文档并产出元素序列。
// 空段落被跳过；表格被渲染为带标记的行文本，行列数记入元数据。
// 元素持有指向 src.Items 的索引作为回引用，提取方不持有文档本身。
func Extract(src *Source) []Element {
	if src == nil {
		return nil
	}

	var elements []Element
	for i, item := range src.Items {
		switch item.ItemKind() {
		case KindParagraph:
			text := strings.TrimSpace(item.Text)
			if text == "" {
				continue
			}
			elements = append(elements, Element{
				Kind: KindParagraph,
				Text: text,
				Meta: item.Meta,
				Ref:  i,
			})

		case KindTable:
			meta := item.Meta
			meta.Rows = len(item.Cells)
			meta.Cols = 0
			for _, row := range item.Cells {
				if len(row) > meta.Cols {
					meta.Cols = len(row)
				}
			}
			elements = append(elements, Element{
				Kind: KindTable,
				Text: WrapTable(TableText(item.Cells)),
				Meta: meta,
				Ref:  i,
			})

		case KindBlock:
			text := strings.TrimSpace(item.Text)
			if text == "" {
				continue
			}
			elements = append(elements, Element{
				Kind: KindBlock,
				Text: text,
				Meta: item.Meta,
				Ref:  i,
			})
		}
	}
	return elements
}
