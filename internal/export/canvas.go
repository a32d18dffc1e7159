package export

import (
	"bytes"
	"context"
	"fmt"
	"image/color"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"fitResume/internal/density"
	"fitResume/internal/resume"
	"fitResume/internal/typeset"
)

var ruleColor = color.RGBA{R: 200, G: 200, B: 200, A: 255}

// CanvasRenderer 直接把排版结果绘制到 PDF，不依赖浏览器。
// 超出一页的内容续排到新页，从不截断。
type CanvasRenderer struct {
	ts *typeset.Typesetter
}

var _ Renderer = (*CanvasRenderer)(nil)

// NewCanvasRenderer 创建基于 tdewolff/canvas 的渲染器。
func NewCanvasRenderer(ts *typeset.Typesetter) *CanvasRenderer {
	return &CanvasRenderer{ts: ts}
}

// Render 实现 Renderer。
func (r *CanvasRenderer) Render(ctx context.Context, doc resume.Document, preset density.Preset) ([]byte, error) {
	page, err := r.ts.Layout(doc, preset, typeset.Options{})
	if err != nil {
		return nil, fmt.Errorf("layout document: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sheets := page.Paginate()
	width := page.Width / typeset.PxPerMm
	height := page.Height / typeset.PxPerMm

	var buf bytes.Buffer
	writer := pdf.New(&buf, width, height, nil)
	writer.SetInfo(documentTitle(doc), "", "", doc.Personal.FullName(), "fitResume")

	err = r.ts.WithFaces(func(face typeset.FaceFunc) error {
		for i, sheet := range sheets {
			if i > 0 {
				writer.NewPage(width, height)
			}
			c := canvas.New(width, height)
			cctx := canvas.NewContext(c)
			// 左上角为原点，与排版坐标一致
			cctx.SetCoordSystem(canvas.CartesianIV)
			drawSheet(cctx, sheet, face)
			c.RenderTo(writer)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func drawSheet(ctx *canvas.Context, sheet typeset.Sheet, face typeset.FaceFunc) {
	ctx.SetStrokeColor(canvas.Transparent)
	ctx.SetFillColor(ruleColor)
	for _, rule := range sheet.Rules {
		ctx.DrawPath(rule.X/typeset.PxPerMm, rule.Y/typeset.PxPerMm,
			canvas.Rectangle(rule.Width/typeset.PxPerMm, rule.Thickness/typeset.PxPerMm))
	}
	for _, txt := range sheet.Texts {
		line := canvas.NewTextLine(face(txt.SizePt, txt.Bold, txt.Muted), txt.Content, canvas.Left)
		ctx.DrawText(txt.X/typeset.PxPerMm, txt.Baseline/typeset.PxPerMm, line)
	}
}

func documentTitle(doc resume.Document) string {
	if name := doc.Personal.FullName(); name != "" {
		return name + " - Resume"
	}
	return "Resume"
}
