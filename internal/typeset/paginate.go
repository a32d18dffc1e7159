package typeset

import "sort"

// Sheet 是分页后的一张纸，坐标相对于该页左上角（px）。
type Sheet struct {
	Texts []Text
	Rules []Rule
}

type flowItem struct {
	top    float64
	height float64
	text   *Text
	rule   *Rule
}

// Paginate 把排版结果切成若干页，内容从不截断：跨越页底边距的行整体移到下一页，
// 续页从上边距开始，其后的内容保持原有间距。
func (p *Page) Paginate() []Sheet {
	items := make([]flowItem, 0, len(p.Texts)+len(p.Rules))
	for i := range p.Texts {
		t := &p.Texts[i]
		items = append(items, flowItem{top: t.Top, height: t.Height, text: t})
	}
	for i := range p.Rules {
		r := &p.Rules[i]
		items = append(items, flowItem{top: r.Y, height: r.Thickness, rule: r})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].top < items[j].top })

	sheets := []Sheet{{}}
	if p.Height <= 2*p.Padding {
		return sheets
	}
	shift := 0.0
	current := 0
	for _, it := range items {
		pos := it.top + shift
		for pos+it.height > float64(current+1)*p.Height-p.Padding {
			origin := float64(current) * p.Height
			if pos <= origin+p.Padding {
				// 单行比可用高度还高，只能原样放置。
				break
			}
			current++
			sheets = append(sheets, Sheet{})
			next := float64(current)*p.Height + p.Padding
			if pos < next {
				shift += next - pos
				pos = next
			}
		}
		offset := float64(current) * p.Height
		sheet := &sheets[current]
		if it.text != nil {
			t := *it.text
			t.Top = pos - offset
			t.Baseline = it.text.Baseline + (pos - it.top) - offset
			sheet.Texts = append(sheet.Texts, t)
			continue
		}
		r := *it.rule
		r.Y = pos - offset
		sheet.Rules = append(sheet.Rules, r)
	}
	return sheets
}
