package export

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitResume/internal/density"
	"fitResume/internal/resume"
	"fitResume/internal/typeset"
)

func sampleDocument(bullets int) resume.Document {
	doc := resume.New()
	doc.Personal = resume.Personal{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Headline:  "Staff Engineer",
		Email:     "ada@example.com",
		Summary:   "Builds analytical engines & <fast> things.",
	}
	doc.Experience[0] = resume.Experience{
		ID: "1", Company: "Analytical Engines", Position: "Engineer",
		StartDate: "2019-03-01", Current: true,
	}
	for i := 0; i < bullets; i++ {
		doc.Experience[0].Description = append(doc.Experience[0].Description,
			strings.Repeat("Shipped a reliable service used by many teams across the company ", 2))
	}
	doc.Skills.Technical = []string{"Go", "Redis"}
	return doc
}

func newCanvasRenderer(t *testing.T) *CanvasRenderer {
	t.Helper()
	ts, err := typeset.New(typeset.A4WidthPx, typeset.A4HeightPx)
	require.NoError(t, err)
	return NewCanvasRenderer(ts)
}

func TestCanvasRendererWritesPDF(t *testing.T) {
	r := newCanvasRenderer(t)
	data, err := r.Render(context.Background(), sampleDocument(3), density.Standard.At(0))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestCanvasRendererContinuesOnNewPages(t *testing.T) {
	r := newCanvasRenderer(t)
	page, err := r.ts.Layout(sampleDocument(60), density.Standard.At(0), typeset.Options{})
	require.NoError(t, err)
	require.Greater(t, len(page.Paginate()), 1)

	short, err := r.Render(context.Background(), sampleDocument(1), density.Standard.At(0))
	require.NoError(t, err)
	long, err := r.Render(context.Background(), sampleDocument(60), density.Standard.At(0))
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(long, []byte("%PDF")))
	assert.Greater(t, len(long), len(short))
}

func TestCanvasRendererHonoursCancellation(t *testing.T) {
	r := newCanvasRenderer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Render(ctx, sampleDocument(1), density.Standard.At(0))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderHTMLUsesPresetAndEscapes(t *testing.T) {
	html, err := RenderHTML(sampleDocument(1), density.Standard.At(2))
	require.NoError(t, err)

	assert.Contains(t, html, "<h1>Ada Lovelace</h1>")
	assert.Contains(t, html, "font-size: 9pt")
	assert.Contains(t, html, "margin: 15mm")
	assert.Contains(t, html, "&lt;fast&gt;")
	assert.Contains(t, html, "Go, Redis")
	assert.NotContains(t, html, "<h2>Education</h2>")
}

func TestResolvePreset(t *testing.T) {
	assert.Equal(t, "dense", ResolvePreset(density.Standard, "dense").ID)
	assert.Equal(t, "standard", ResolvePreset(density.Standard, "").ID)
	assert.Equal(t, "standard", ResolvePreset(density.Standard, "gone").ID)
}

func TestNewRenderer(t *testing.T) {
	ts, err := typeset.New(typeset.A4WidthPx, typeset.A4HeightPx)
	require.NoError(t, err)

	r, err := NewRenderer("", ts)
	require.NoError(t, err)
	assert.IsType(t, &CanvasRenderer{}, r)

	r, err = NewRenderer("browser", ts)
	require.NoError(t, err)
	assert.IsType(t, &BrowserRenderer{}, r)

	_, err = NewRenderer("word", ts)
	assert.ErrorIs(t, err, ErrUnknownRenderer)
}
