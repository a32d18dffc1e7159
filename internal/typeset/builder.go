package typeset

import (
	"math"
	"strings"

	"github.com/tdewolff/canvas"

	"fitResume/internal/density"
	"fitResume/internal/layout"
	"fitResume/internal/resume"
)

// 与预设无关的固定间距（px）。
const (
	fragmentPad  = 8.0
	entryPad     = 4.0
	rowGap       = 4.0
	bulletIndent = 16.0
	bulletGap    = 4.0
	columnGap    = 32.0
	headerRule   = 1.0
	dividerRule  = 2.0
	titleLeading = 1.25
)

type builder struct {
	ts     *Typesetter
	preset density.Preset
	opts   Options
	faces  map[faceKey]*canvas.FontFace
	page   *Page

	pad   float64
	left  float64
	width float64
	y     float64
}

func (b *builder) build(doc resume.Document) {
	b.pad = b.preset.PagePadding * PxPerMm
	b.left = b.pad
	b.width = b.page.Width - 2*b.pad
	b.y = b.pad
	b.page.Padding = b.pad

	hasHeader := b.nameBlock(doc)
	hasHeader = b.contactBlock(doc) || hasHeader
	if hasHeader {
		b.rule(b.left, b.y, b.width, dividerRule)
		b.y += dividerRule + b.preset.SectionMargin
	}
	b.summaryBlock(doc)
	b.experienceBlock(doc)
	b.educationBlock(doc)
	b.skillsBlock(doc)

	b.page.ContentHeight = b.y + b.pad
}

func (b *builder) lineHeight(sizePt float64) float64 {
	return sizePt * PxPerPt * b.preset.LineHeight
}

// text 放置单行文字，返回行高。
func (b *builder) text(x, top float64, content string, sizePt, leading float64, bold, muted bool) float64 {
	h := sizePt * PxPerPt * leading
	// 行内居中：半行距在上下平分。
	glyph := sizePt * PxPerPt
	baseline := top + (h-glyph)/2 + b.ascent(sizePt, bold)
	b.page.Texts = append(b.page.Texts, Text{
		X:        x,
		Top:      top,
		Baseline: baseline,
		Height:   h,
		Content:  content,
		SizePt:   sizePt,
		Bold:     bold,
		Muted:    muted,
	})
	return h
}

// paragraph 在宽度内换行排版，返回总高度。
func (b *builder) paragraph(x, top, width float64, content string, sizePt float64, bold, muted bool) float64 {
	return b.paragraphLeading(x, top, width, content, sizePt, b.preset.LineHeight, bold, muted)
}

func (b *builder) rule(x, y, width, thickness float64) {
	b.page.Rules = append(b.page.Rules, Rule{X: x, Y: y, Width: width, Thickness: thickness})
}

func (b *builder) fragment(key layout.FragmentKey, top float64) {
	b.page.Fragments[key] = layout.Rect{Top: top, Left: b.left, Width: b.width, Height: b.y - top}
}

// pick 返回值或占位文字；不渲染占位时第二个返回值为 false。
func (b *builder) pick(value, placeholder string) (string, bool, bool) {
	if resume.HasText(value) {
		return strings.TrimSpace(value), false, true
	}
	if b.opts.Placeholders {
		return placeholder, true, true
	}
	return "", false, false
}

func (b *builder) nameBlock(doc resume.Document) bool {
	p := doc.Personal
	name := p.FullName()
	headline := strings.TrimSpace(p.Headline)
	if headline == "" && len(doc.Experience) > 0 {
		headline = strings.TrimSpace(doc.Experience[0].Position)
	}
	if name == "" && headline == "" && !b.opts.Placeholders {
		return false
	}

	top := b.y
	nameText, nameMuted, ok := b.pick(name, "FIRST LAST")
	if ok {
		b.y += b.paragraphLeading(b.left, b.y, b.width, strings.ToUpper(nameText), b.preset.HeaderSize, titleLeading, true, nameMuted)
	}
	roleText, roleMuted, ok := b.pick(headline, "JOB TITLE")
	if ok {
		b.y += rowGap
		b.y += b.paragraph(b.left, b.y, b.width, strings.ToUpper(roleText), b.preset.RoleSize, true, roleMuted)
	}
	b.fragment(layout.Key(layout.FragmentName, 0), top)
	b.y += b.preset.SectionMargin / 3
	return true
}

func (b *builder) paragraphLeading(x, top, width float64, content string, sizePt, leading float64, bold, muted bool) float64 {
	measure := func(s string) float64 { return b.textWidth(s, sizePt, bold) }
	h := 0.0
	for _, line := range wrapText(content, width, measure) {
		h += b.text(x, top+h, line, sizePt, leading, bold, muted)
	}
	return h
}

func (b *builder) contactBlock(doc resume.Document) bool {
	p := doc.Personal
	segments := []struct{ value, placeholder string }{
		{p.Location, "Location"},
		{p.Email, "Email"},
		{p.Phone, "Phone"},
		{p.LinkedIn, "LinkedIn"},
	}
	var parts []string
	filled := false
	for _, s := range segments {
		if resume.HasText(s.value) {
			parts = append(parts, strings.TrimSpace(s.value))
			filled = true
		} else if b.opts.Placeholders {
			parts = append(parts, s.placeholder)
		}
	}
	if len(parts) == 0 {
		return false
	}
	top := b.y
	b.y += entryPad
	b.y += b.paragraph(b.left, b.y, b.width, strings.Join(parts, "  |  "), b.preset.FontSize, false, !filled)
	b.y += entryPad
	b.fragment(layout.Key(layout.FragmentContact, 0), top)
	b.y += b.preset.SectionMargin
	return true
}

// sectionTitle 绘制带下划线的分组标题，返回新的 y。
func (b *builder) sectionTitle(x, y, width float64, title string) float64 {
	y += b.text(x, y, title, b.preset.SectionHeaderSize, b.preset.LineHeight, true, false)
	y += rowGap
	b.rule(x, y, width, headerRule)
	return y + headerRule + b.preset.ItemMargin
}

func (b *builder) summaryBlock(doc resume.Document) {
	summary, muted, ok := b.pick(doc.Personal.Summary, "Your professional summary will appear here...")
	if !ok {
		return
	}
	top := b.y
	b.y += fragmentPad
	b.y = b.sectionTitle(b.left, b.y, b.width, "SUMMARY")
	b.y += b.paragraph(b.left, b.y, b.width, summary, b.preset.FontSize, false, muted)
	b.y += fragmentPad
	b.fragment(layout.Key(layout.FragmentSummary, 0), top)
	b.y += b.preset.SectionMargin
}

func (b *builder) experienceBlock(doc resume.Document) {
	var entries []int
	for i, exp := range doc.Experience {
		if exp.HasData() || (i == 0 && b.opts.Placeholders) {
			entries = append(entries, i)
		}
	}
	if len(entries) == 0 {
		return
	}
	b.y = b.sectionTitle(b.left, b.y, b.width, "PROFESSIONAL EXPERIENCE")
	for n, i := range entries {
		if n > 0 {
			b.y += b.preset.ItemMargin
		}
		exp := doc.Experience[i]
		b.experienceHeader(i, exp)
		b.experienceBullets(i, exp)
	}
	b.y += b.preset.SectionMargin
}

func (b *builder) experienceHeader(i int, exp resume.Experience) {
	top := b.y
	b.y += fragmentPad

	position, posMuted, _ := b.pick(exp.Position, "Position")
	company, compMuted, _ := b.pick(exp.Company, "Company")
	title := joinNonEmpty(", ", position, company)

	end := resume.FormatDate(exp.EndDate)
	if exp.Current {
		end = "Present"
	}
	start, _, _ := b.pick(resume.FormatDate(exp.StartDate), "Start")
	end, _, _ = b.pick(end, "End")
	dates := joinNonEmpty(" - ", start, end)

	b.y += b.row(title, posMuted && compMuted, dates)
	b.y += rowGap

	if loc, muted, ok := b.pick(exp.Location, "Location"); ok {
		b.y += b.paragraph(b.left, b.y, b.width, loc, b.preset.FontSize, false, muted)
		b.y += rowGap
	}
	b.y += fragmentPad
	b.fragment(layout.Key(layout.FragmentExperienceHeader, i), top)
}

// row 绘制左侧加粗标题与右对齐的日期，返回行高。
func (b *builder) row(title string, titleMuted bool, dates string) float64 {
	size := b.preset.FontSize
	dateWidth := 0.0
	if dates != "" {
		dateWidth = b.textWidth(dates, size, true)
		b.text(b.left+b.width-dateWidth, b.y, dates, size, b.preset.LineHeight, true, false)
	}
	titleWidth := b.width
	if dateWidth > 0 {
		titleWidth = math.Max(b.width-dateWidth-bulletIndent, b.width/3)
	}
	h := b.lineHeight(size)
	if title != "" {
		h = math.Max(h, b.paragraph(b.left, b.y, titleWidth, title, size, true, titleMuted))
	}
	return h
}

func (b *builder) experienceBullets(i int, exp resume.Experience) {
	if len(exp.Description) == 0 && !b.opts.Placeholders {
		return
	}
	b.y += rowGap
	top := b.y
	b.y += fragmentPad
	size := b.preset.FontSize
	if len(exp.Description) == 0 {
		b.y += b.paragraph(b.left+bulletIndent, b.y, b.width-bulletIndent, "Add your achievements and responsibilities...", size, false, true)
	}
	for n, bullet := range exp.Description {
		if n > 0 {
			b.y += bulletGap
		}
		b.text(b.left+bulletIndent/4, b.y, "•", size, b.preset.LineHeight, false, false)
		b.y += b.paragraph(b.left+bulletIndent, b.y, b.width-bulletIndent, bullet, size, false, false)
	}
	b.y += fragmentPad
	b.fragment(layout.Key(layout.FragmentExperienceBullets, i), top)
}

func (b *builder) educationBlock(doc resume.Document) {
	var entries []int
	for i, edu := range doc.Education {
		hasContent := resume.HasText(edu.Institution) || resume.HasText(edu.Degree) || resume.HasText(edu.Field)
		if hasContent || (i == 0 && b.opts.Placeholders) {
			entries = append(entries, i)
		}
	}
	if len(entries) == 0 {
		return
	}
	b.y += fragmentPad
	b.y = b.sectionTitle(b.left, b.y, b.width, "EDUCATION")
	for n, i := range entries {
		if n > 0 {
			b.y += b.preset.ItemMargin
		}
		edu := doc.Education[i]
		top := b.y
		b.y += entryPad

		degree, degMuted, _ := b.pick(edu.Degree, "Degree")
		field, fieldMuted, _ := b.pick(edu.Field, "Field")
		start, _, _ := b.pick(resume.FormatDate(edu.StartDate), "Start")
		end, _, _ := b.pick(resume.FormatDate(edu.EndDate), "End")
		b.y += b.row(joinNonEmpty(" in ", degree, field), degMuted && fieldMuted, joinNonEmpty(" - ", start, end))
		b.y += rowGap
		if inst, muted, ok := b.pick(edu.Institution, "Institution"); ok {
			b.y += b.paragraph(b.left, b.y, b.width, inst, b.preset.FontSize, false, muted)
		}
		b.y += entryPad
		b.fragment(layout.Key(layout.FragmentEducation, i), top)
	}
	b.y += fragmentPad
	b.y += b.preset.SectionMargin
}

func (b *builder) skillsBlock(doc resume.Document) {
	langs, techs := doc.Skills.Languages, doc.Skills.Technical
	if len(langs) == 0 && len(techs) == 0 && !b.opts.Placeholders {
		return
	}
	top := b.y
	b.y += fragmentPad
	size := b.preset.FontSize
	colWidth := (b.width - 2*columnGap) / 3

	// 语言占一列，技能占两列并再分成两栏。
	langBottom := b.y
	if len(langs) > 0 || b.opts.Placeholders {
		y := b.sectionTitle(b.left, b.y, colWidth, "LANGUAGES")
		if len(langs) == 0 {
			y += b.paragraph(b.left, y, colWidth, "Add languages...", size, false, true)
		}
		for n, lang := range langs {
			if n > 0 {
				y += bulletGap
			}
			y += b.paragraph(b.left, y, colWidth, lang, size, false, false)
		}
		langBottom = y
	}

	techBottom := b.y
	if len(techs) > 0 || b.opts.Placeholders {
		x := b.left + colWidth + columnGap
		width := 2*colWidth + columnGap
		if len(langs) == 0 && !b.opts.Placeholders {
			x, width = b.left, b.width
		}
		y := b.sectionTitle(x, b.y, width, "SKILLS")
		if len(techs) == 0 {
			y += b.paragraph(x, y, width, "Add skills...", size, false, true)
		}
		cell := (width - columnGap) / 2
		for n := 0; n < len(techs); n += 2 {
			if n > 0 {
				y += bulletGap
			}
			h := b.paragraph(x, y, cell, techs[n], size, false, false)
			if n+1 < len(techs) {
				h = math.Max(h, b.paragraph(x+cell+columnGap, y, cell, techs[n+1], size, false, false))
			}
			y += h
		}
		techBottom = y
	}

	b.y = math.Max(langBottom, techBottom) + fragmentPad
	b.fragment(layout.Key(layout.FragmentSkills, 0), top)
}

func joinNonEmpty(sep string, parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
