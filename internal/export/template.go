package export

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"fitResume/internal/density"
	"fitResume/internal/resume"
)

// pageTemplate 与排版引擎使用相同的 A4 尺寸和预设数值；
// 分页交给浏览器的打印引擎，内容从不截断。
const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
    @page { size: A4; margin: {{mm .Preset.PagePadding}}; }
    body {
        margin: 0;
        font-family: 'Go', 'Helvetica Neue', Arial, sans-serif;
        font-size: {{pt .Preset.FontSize}};
        line-height: {{.Preset.LineHeight}};
        color: #141414;
    }
    h1 { font-size: {{pt .Preset.HeaderSize}}; margin: 0; line-height: 1.15; }
    .headline { font-size: {{pt .Preset.RoleSize}}; color: #505050; }
    .contact { margin-top: {{px .Preset.Gap}}; }
    section { margin-top: {{px .Preset.SectionMargin}}; }
    h2 {
        font-size: {{pt .Preset.SectionHeaderSize}};
        text-transform: uppercase;
        border-bottom: 1px solid #c8c8c8;
        margin: 0 0 {{px .Preset.Gap}} 0;
    }
    .entry { margin-bottom: {{px .Preset.ItemMargin}}; break-inside: avoid; }
    .row { display: flex; justify-content: space-between; font-weight: bold; }
    .muted { color: #505050; }
    ul { margin: 0; padding-left: 14px; }
</style>
</head>
<body>
<header>
    {{with .Name}}<h1>{{.}}</h1>{{end}}
    {{with .Doc.Personal.Headline}}<div class="headline">{{.}}</div>{{end}}
    {{with .Contact}}<div class="contact">{{.}}</div>{{end}}
</header>
{{with .Doc.Personal.Summary}}
<section>
    <h2>Summary</h2>
    <p>{{.}}</p>
</section>
{{end}}
{{if .Experience}}
<section>
    <h2>Experience</h2>
    {{range .Experience}}
    <div class="entry">
        <div class="row"><span>{{.Position}}{{with .Company}} · {{.}}{{end}}</span><span>{{.DateRange}}</span></div>
        {{with .Location}}<div class="muted">{{.}}</div>{{end}}
        {{if .Description}}<ul>{{range .Description}}<li>{{.}}</li>{{end}}</ul>{{end}}
    </div>
    {{end}}
</section>
{{end}}
{{if .Education}}
<section>
    <h2>Education</h2>
    {{range .Education}}
    <div class="entry">
        <div class="row"><span>{{.Institution}}</span><span>{{.DateRange}}</span></div>
        <div class="muted">{{join ", " .Degree .Field}}</div>
    </div>
    {{end}}
</section>
{{end}}
{{if or .Doc.Skills.Technical .Doc.Skills.Languages}}
<section>
    <h2>Skills</h2>
    {{with .Doc.Skills.Technical}}<div><strong>Technical:</strong> {{join ", " .}}</div>{{end}}
    {{with .Doc.Skills.Languages}}<div><strong>Languages:</strong> {{join ", " .}}</div>{{end}}
</section>
{{end}}
</body>
</html>
`

var pageTmpl = template.Must(template.New("resume").Funcs(template.FuncMap{
	"pt": func(v float64) string { return fmt.Sprintf("%gpt", v) },
	"px": func(v float64) string { return fmt.Sprintf("%gpx", v) },
	"mm": func(v float64) string { return fmt.Sprintf("%gmm", v) },
	"join": func(sep string, parts ...any) string {
		var out []string
		for _, p := range parts {
			switch v := p.(type) {
			case string:
				if strings.TrimSpace(v) != "" {
					out = append(out, v)
				}
			case []string:
				for _, s := range v {
					if strings.TrimSpace(s) != "" {
						out = append(out, s)
					}
				}
			}
		}
		return strings.Join(out, sep)
	},
}).Parse(pageTemplate))

type pageData struct {
	Title      string
	Name       string
	Contact    string
	Doc        resume.Document
	Preset     density.Preset
	Experience []resume.Experience
	Education  []resume.Education
}

// RenderHTML 生成导出用的 HTML 页面。空条目不输出。
func RenderHTML(doc resume.Document, preset density.Preset) (string, error) {
	data := pageData{
		Title:  documentTitle(doc),
		Name:   doc.Personal.FullName(),
		Doc:    doc,
		Preset: preset,
	}
	var contact []string
	for _, v := range []string{doc.Personal.Email, doc.Personal.Phone, doc.Personal.Location, doc.Personal.LinkedIn} {
		if resume.HasText(v) {
			contact = append(contact, v)
		}
	}
	data.Contact = strings.Join(contact, " | ")
	for _, exp := range doc.Experience {
		if exp.HasData() {
			data.Experience = append(data.Experience, exp)
		}
	}
	for _, edu := range doc.Education {
		if edu.HasData() {
			data.Education = append(data.Education, edu)
		}
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute resume template: %w", err)
	}
	return buf.String(), nil
}
