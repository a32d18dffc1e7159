package typeset

import "fitResume/internal/layout"

// Text 是一行已定位的文字，坐标为未缩放页面坐标（px，左上角为原点）。
type Text struct {
	X        float64 `json:"x"`
	Top      float64 `json:"top"`
	Baseline float64 `json:"baseline"`
	Height   float64 `json:"height"`
	Content  string  `json:"content"`
	SizePt   float64 `json:"sizePt"`
	Bold     bool    `json:"bold,omitempty"`
	Muted    bool    `json:"muted,omitempty"`
}

// Rule 是一条水平分隔线。
type Rule struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Thickness float64 `json:"thickness"`
}

// Page 是排版结果。ContentHeight 包含上下页边距，可能超过 Height。
type Page struct {
	PresetID      string
	Width         float64
	Height        float64
	ContentHeight float64
	// Padding 是上下左右的页边距（px）。
	Padding       float64
	Texts         []Text
	Rules         []Rule
	Fragments     map[layout.FragmentKey]layout.Rect
}

// Snapshot 转换为控制器与镜头使用的测量快照。
func (p *Page) Snapshot() layout.Snapshot {
	frags := make(map[layout.FragmentKey]layout.Rect, len(p.Fragments))
	for k, v := range p.Fragments {
		frags[k] = v
	}
	return layout.Snapshot{
		PresetID:      p.PresetID,
		PageWidth:     p.Width,
		PageHeight:    p.Height,
		ContentHeight: p.ContentHeight,
		Fragments:     frags,
	}
}

// Overflows reports whether content runs past the page by more than eps.
func (p *Page) Overflows(eps float64) bool {
	return p.ContentHeight-p.Height > eps
}
