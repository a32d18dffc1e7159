package improve

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"fitResume/internal/resume"
)

var ErrUnknownTarget = errors.New("unknown improvement target")

// Apply 把结果写回文档副本。整份结果直接替换；单字段结果按 Section/Field/Identifier 定位。
func Apply(doc resume.Document, req Request, res Result) (resume.Document, error) {
	if res.Document != nil {
		return res.Document.Clone(), nil
	}
	out := doc.Clone()
	switch req.Section {
	case "personal", "summary":
		field := req.Field
		if field == "" {
			field = "summary"
		}
		return out, out.UpdatePersonal(field, res.text())
	case "experience":
		i, err := entryIndex(req.Identifier, len(out.Experience), func(j int) string { return out.Experience[j].ID })
		if err != nil {
			return doc, err
		}
		if req.Field == "description" {
			return out, out.SetBullets(i, res.items())
		}
		return out, out.UpdateExperience(i, req.Field, res.text())
	case "education":
		i, err := entryIndex(req.Identifier, len(out.Education), func(j int) string { return out.Education[j].ID })
		if err != nil {
			return doc, err
		}
		return out, out.UpdateEducation(i, req.Field, res.text())
	case "skills":
		return out, out.SetSkills(resume.SkillKind(req.Field), res.items())
	default:
		return doc, fmt.Errorf("%w: %s", ErrUnknownTarget, req.Section)
	}
}

// entryIndex 先按条目 ID 匹配，再按数字下标解析。
func entryIndex(identifier string, n int, id func(int) string) (int, error) {
	for j := 0; j < n; j++ {
		if id(j) == identifier {
			return j, nil
		}
	}
	i, err := strconv.Atoi(identifier)
	if err != nil || i < 0 || i >= n {
		return 0, fmt.Errorf("entry %q: %w", identifier, resume.ErrIndexOutOfRange)
	}
	return i, nil
}

func (r Result) text() string {
	if r.Text != "" || len(r.Items) == 0 {
		return r.Text
	}
	return strings.Join(r.Items, " ")
}

// items 把纯文本结果按行拆成列表项，并去掉常见的项目符号。
func (r Result) items() []string {
	if len(r.Items) > 0 {
		return r.Items
	}
	var out []string
	for _, line := range strings.Split(r.Text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-•*"))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
