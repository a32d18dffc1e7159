// Package typeset 用真实字体度量把简历排到 A4 页面上，
// 产出预览测量快照（layout.Snapshot）以及导出用的定位文本行。
package typeset

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/tdewolff/canvas"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"fitResume/internal/density"
	"fitResume/internal/layout"
	"fitResume/internal/resume"
)

// 96dpi 下的单位换算。
const (
	PxPerMm = 96 / 25.4
	PxPerPt = 96.0 / 72.0
	MmPerPt = 25.4 / 72.0

	// A4 尺寸（px）。
	A4WidthPx  = 210 * PxPerMm
	A4HeightPx = 297 * PxPerMm
)

var (
	mutedColor = color.RGBA{R: 160, G: 160, B: 160, A: 255}
	inkColor   = color.RGBA{R: 20, G: 20, B: 20, A: 255}
)

// Options 控制排版细节。
type Options struct {
	// Placeholders 为 true 时空字段以灰色占位文字渲染（编辑预览），否则跳过空区块（导出）。
	Placeholders bool
}

// Typesetter 持有已加载的字体族。canvas 的字体对象不保证并发安全，Layout 串行执行。
type Typesetter struct {
	mu         sync.Mutex
	family     *canvas.FontFamily
	pageWidth  float64
	pageHeight float64
}

// New 加载内置 Go 字体并创建排版器，页面尺寸单位为 px。
func New(pageWidthPx, pageHeightPx float64) (*Typesetter, error) {
	if pageWidthPx <= 0 || pageHeightPx <= 0 {
		return nil, fmt.Errorf("invalid page size %.1fx%.1f", pageWidthPx, pageHeightPx)
	}
	family := canvas.NewFontFamily("fitresume")
	if err := family.LoadFont(goregular.TTF, 0, canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("load regular font: %w", err)
	}
	if err := family.LoadFont(gobold.TTF, 0, canvas.FontBold); err != nil {
		return nil, fmt.Errorf("load bold font: %w", err)
	}
	return &Typesetter{family: family, pageWidth: pageWidthPx, pageHeight: pageHeightPx}, nil
}

// PageSize 返回页面尺寸（px）。
func (t *Typesetter) PageSize() (float64, float64) { return t.pageWidth, t.pageHeight }

// FaceFunc 按字号与样式取字体面。
type FaceFunc func(sizePt float64, bold, muted bool) *canvas.FontFace

// WithFaces 在排版器锁内调用 fn，导出绘制期间不与 Layout 并发。
func (t *Typesetter) WithFaces(fn func(face FaceFunc) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(t.face)
}

func (t *Typesetter) face(sizePt float64, bold, muted bool) *canvas.FontFace {
	style := canvas.FontRegular
	if bold {
		style = canvas.FontBold
	}
	col := inkColor
	if muted {
		col = mutedColor
	}
	return t.family.Face(sizePt, col, style, canvas.FontNormal)
}

// Measure 以编辑预览的方式排版并返回测量快照。
func (t *Typesetter) Measure(doc resume.Document, preset density.Preset) (layout.Snapshot, error) {
	page, err := t.Layout(doc, preset, Options{Placeholders: true})
	if err != nil {
		return layout.Snapshot{}, err
	}
	return page.Snapshot(), nil
}

// Layout 排版整份文档。内容超出页面时不截断，ContentHeight 如实反映总高度。
func (t *Typesetter) Layout(doc resume.Document, preset density.Preset, opts Options) (*Page, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	b := &builder{
		ts:     t,
		preset: preset,
		opts:   opts,
		faces:  make(map[faceKey]*canvas.FontFace),
		page: &Page{
			PresetID:  preset.ID,
			Width:     t.pageWidth,
			Height:    t.pageHeight,
			Fragments: make(map[layout.FragmentKey]layout.Rect),
		},
	}
	b.build(doc)
	return b.page, nil
}

type faceKey struct {
	sizePt float64
	bold   bool
	muted  bool
}

func (b *builder) face(sizePt float64, bold, muted bool) *canvas.FontFace {
	key := faceKey{sizePt, bold, muted}
	if f, ok := b.faces[key]; ok {
		return f
	}
	f := b.ts.face(sizePt, bold, muted)
	b.faces[key] = f
	return f
}

// textWidth 返回文字宽度（px）；canvas 的宽度单位为 mm。
func (b *builder) textWidth(s string, sizePt float64, bold bool) float64 {
	return b.face(sizePt, bold, false).TextWidth(s) * PxPerMm
}

// ascent 返回字体上升部（px）。
func (b *builder) ascent(sizePt float64, bold bool) float64 {
	return b.face(sizePt, bold, false).Metrics().Ascent * PxPerMm
}
