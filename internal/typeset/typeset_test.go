package typeset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitResume/internal/density"
	"fitResume/internal/layout"
	"fitResume/internal/resume"
)

func newTypesetter(t *testing.T) *Typesetter {
	t.Helper()
	ts, err := New(A4WidthPx, A4HeightPx)
	require.NoError(t, err)
	return ts
}

func longBullet(n int) string {
	return strings.Repeat("Led a cross-functional team to deliver measurable improvements in reliability ", n)
}

func filledDocument(bullets int) resume.Document {
	doc := resume.New()
	doc.Personal = resume.Personal{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Headline:  "Staff Engineer",
		Email:     "ada@example.com",
		Location:  "London",
		Summary:   longBullet(3),
	}
	doc.Experience[0] = resume.Experience{
		ID: "1", Company: "Analytical Engines", Position: "Engineer",
		StartDate: "2019-03-01", Current: true,
	}
	for i := 0; i < bullets; i++ {
		doc.Experience[0].Description = append(doc.Experience[0].Description, longBullet(2))
	}
	doc.Education[0] = resume.Education{ID: "1", Institution: "Cambridge", Degree: "BA", Field: "Mathematics"}
	doc.Skills = resume.Skills{Technical: []string{"Go", "PostgreSQL", "Redis"}, Languages: []string{"English"}}
	return doc
}

func TestEmptyDocumentFitsAtEveryPreset(t *testing.T) {
	ts := newTypesetter(t)
	for _, p := range density.Standard.Presets() {
		snap, err := ts.Measure(resume.New(), p)
		require.NoError(t, err)
		assert.Less(t, snap.ContentHeight, snap.PageHeight, p.ID)
		_, ok := snap.Fragment(layout.Key(layout.FragmentName, 0))
		assert.True(t, ok, "placeholder name fragment should be measurable at %s", p.ID)
	}
}

func TestDenserPresetsProduceShorterContent(t *testing.T) {
	ts := newTypesetter(t)
	doc := filledDocument(8)
	prev := 0.0
	for i, p := range density.Standard.Presets() {
		snap, err := ts.Measure(doc, p)
		require.NoError(t, err)
		if i > 0 {
			assert.Less(t, snap.ContentHeight, prev, "preset %s should be shorter", p.ID)
		}
		prev = snap.ContentHeight
	}
}

func TestFragmentsAreOrderedTopToBottom(t *testing.T) {
	ts := newTypesetter(t)
	doc := filledDocument(2)
	snap, err := ts.Measure(doc, density.Standard.At(0))
	require.NoError(t, err)

	order := []layout.FragmentKey{
		layout.Key(layout.FragmentName, 0),
		layout.Key(layout.FragmentContact, 0),
		layout.Key(layout.FragmentSummary, 0),
		layout.Key(layout.FragmentExperienceHeader, 0),
		layout.Key(layout.FragmentExperienceBullets, 0),
		layout.Key(layout.FragmentEducation, 0),
		layout.Key(layout.FragmentSkills, 0),
	}
	last := -1.0
	for _, key := range order {
		r, ok := snap.Fragment(key)
		require.True(t, ok, key.String())
		assert.Greater(t, r.Top, last, key.String())
		last = r.Top
	}
}

func TestExportLayoutSkipsEmptySections(t *testing.T) {
	ts := newTypesetter(t)
	doc := resume.New()
	doc.Personal.FirstName = "Ada"
	page, err := ts.Layout(doc, density.Standard.At(0), Options{})
	require.NoError(t, err)

	_, hasSummary := page.Fragments[layout.Key(layout.FragmentSummary, 0)]
	_, hasSkills := page.Fragments[layout.Key(layout.FragmentSkills, 0)]
	assert.False(t, hasSummary)
	assert.False(t, hasSkills)
	for _, txt := range page.Texts {
		assert.False(t, txt.Muted, "export must not contain placeholders: %q", txt.Content)
	}
}

func TestLongContentIsNeverTruncated(t *testing.T) {
	ts := newTypesetter(t)
	doc := filledDocument(40)
	page, err := ts.Layout(doc, density.Standard.At(density.Standard.Last()), Options{})
	require.NoError(t, err)
	assert.True(t, page.Overflows(2))

	bullets := 0
	for _, txt := range page.Texts {
		if txt.Content == "•" {
			bullets++
		}
	}
	assert.Equal(t, 40, bullets)
}

func TestWrapText(t *testing.T) {
	measure := func(s string) float64 { return float64(len(s)) }
	lines := wrapText("alpha beta gamma", 11, measure)
	assert.Equal(t, []string{"alpha beta", "gamma"}, lines)

	lines = wrapText("abcdefghij", 4, measure)
	assert.Equal(t, []string{"abcd", "efgh", "ij"}, lines)

	lines = wrapText("one\ntwo", 100, measure)
	assert.Equal(t, []string{"one", "two"}, lines)
}

func TestPaginateSinglePage(t *testing.T) {
	ts := newTypesetter(t)
	page, err := ts.Layout(filledDocument(2), density.Standard.At(0), Options{})
	require.NoError(t, err)
	require.False(t, page.Overflows(2))

	sheets := page.Paginate()
	require.Len(t, sheets, 1)
	assert.Len(t, sheets[0].Texts, len(page.Texts))
	assert.Len(t, sheets[0].Rules, len(page.Rules))
}

func TestPaginateSpillsOntoFollowingSheets(t *testing.T) {
	ts := newTypesetter(t)
	page, err := ts.Layout(filledDocument(40), density.Standard.At(density.Standard.Last()), Options{})
	require.NoError(t, err)

	sheets := page.Paginate()
	require.Greater(t, len(sheets), 1)

	total := 0
	for i, sheet := range sheets {
		total += len(sheet.Texts)
		for _, txt := range sheet.Texts {
			assert.GreaterOrEqual(t, txt.Top, 0.0, "sheet %d", i)
			assert.LessOrEqual(t, txt.Top+txt.Height, page.Height-page.Padding+0.01, "sheet %d: %q", i, txt.Content)
		}
	}
	assert.Equal(t, len(page.Texts), total)
	require.NotEmpty(t, sheets[1].Texts)
	assert.GreaterOrEqual(t, sheets[1].Texts[0].Top, page.Padding-0.01)
}
