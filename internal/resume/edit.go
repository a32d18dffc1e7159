package resume

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnknownField     = errors.New("unknown field")
	ErrIndexOutOfRange  = errors.New("entry index out of range")
	ErrUnknownSkillKind = errors.New("unknown skill kind")
	ErrInvalidValue     = errors.New("invalid field value")
)

// SkillKind 区分技术技能与语言。
type SkillKind string

const (
	SkillTechnical SkillKind = "technical"
	SkillLanguages SkillKind = "languages"
)

// UpdatePersonal 按 JSON 字段名更新个人信息。
func (d *Document) UpdatePersonal(field, value string) error {
	p := &d.Personal
	switch field {
	case "firstName":
		p.FirstName = value
	case "lastName":
		p.LastName = value
	case "headline":
		p.Headline = value
	case "email":
		p.Email = value
	case "phone":
		p.Phone = value
	case "location":
		p.Location = value
	case "linkedin":
		p.LinkedIn = value
	case "summary":
		p.Summary = value
	case "image":
		p.Image = value
	default:
		return fmt.Errorf("personal.%s: %w", field, ErrUnknownField)
	}
	return nil
}

// AddExperience 追加一条空白经历并返回其下标。
func (d *Document) AddExperience(now time.Time) int {
	d.Experience = append(d.Experience, Experience{
		ID:          NewEntryID(now),
		Description: []string{},
	})
	return len(d.Experience) - 1
}

// UpdateExperience 更新第 i 条经历的字段。current 字段接受 "true"/"false"。
func (d *Document) UpdateExperience(i int, field, value string) error {
	if i < 0 || i >= len(d.Experience) {
		return fmt.Errorf("experience[%d]: %w", i, ErrIndexOutOfRange)
	}
	exp := &d.Experience[i]
	switch field {
	case "company":
		exp.Company = value
	case "position":
		exp.Position = value
	case "location":
		exp.Location = value
	case "startDate":
		exp.StartDate = value
	case "endDate":
		exp.EndDate = value
	case "current":
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true":
			exp.Current = true
		case "false", "":
			exp.Current = false
		default:
			return fmt.Errorf("experience[%d].current=%q: %w", i, value, ErrInvalidValue)
		}
	default:
		return fmt.Errorf("experience[%d].%s: %w", i, field, ErrUnknownField)
	}
	return nil
}

// SetBullets 整体替换第 i 条经历的要点列表。
func (d *Document) SetBullets(i int, bullets []string) error {
	if i < 0 || i >= len(d.Experience) {
		return fmt.Errorf("experience[%d]: %w", i, ErrIndexOutOfRange)
	}
	d.Experience[i].Description = append([]string{}, bullets...)
	return nil
}

// AddBullet 为第 i 条经历追加要点，空白文本被忽略。
func (d *Document) AddBullet(i int, text string) error {
	if i < 0 || i >= len(d.Experience) {
		return fmt.Errorf("experience[%d]: %w", i, ErrIndexOutOfRange)
	}
	if !HasText(text) {
		return nil
	}
	d.Experience[i].Description = append(d.Experience[i].Description, text)
	return nil
}

// RemoveBullet 删除第 i 条经历的第 j 条要点。
func (d *Document) RemoveBullet(i, j int) error {
	if i < 0 || i >= len(d.Experience) {
		return fmt.Errorf("experience[%d]: %w", i, ErrIndexOutOfRange)
	}
	bullets := d.Experience[i].Description
	if j < 0 || j >= len(bullets) {
		return fmt.Errorf("experience[%d].description[%d]: %w", i, j, ErrIndexOutOfRange)
	}
	d.Experience[i].Description = append(append([]string{}, bullets[:j]...), bullets[j+1:]...)
	return nil
}

// AddEducation 追加一条空白教育经历并返回其下标。
func (d *Document) AddEducation(now time.Time) int {
	d.Education = append(d.Education, Education{ID: NewEntryID(now)})
	return len(d.Education) - 1
}

func (d *Document) UpdateEducation(i int, field, value string) error {
	if i < 0 || i >= len(d.Education) {
		return fmt.Errorf("education[%d]: %w", i, ErrIndexOutOfRange)
	}
	edu := &d.Education[i]
	switch field {
	case "institution":
		edu.Institution = value
	case "degree":
		edu.Degree = value
	case "field":
		edu.Field = value
	case "startDate":
		edu.StartDate = value
	case "endDate":
		edu.EndDate = value
	default:
		return fmt.Errorf("education[%d].%s: %w", i, field, ErrUnknownField)
	}
	return nil
}

// AddSkill 追加技能，空白文本被忽略。
func (d *Document) AddSkill(kind SkillKind, value string) error {
	list, err := d.skillList(kind)
	if err != nil {
		return err
	}
	if !HasText(value) {
		return nil
	}
	*list = append(*list, value)
	return nil
}

func (d *Document) RemoveSkill(kind SkillKind, j int) error {
	list, err := d.skillList(kind)
	if err != nil {
		return err
	}
	if j < 0 || j >= len(*list) {
		return fmt.Errorf("skills.%s[%d]: %w", kind, j, ErrIndexOutOfRange)
	}
	*list = append(append([]string{}, (*list)[:j]...), (*list)[j+1:]...)
	return nil
}

// SetSkills 整体替换某一类技能。
func (d *Document) SetSkills(kind SkillKind, values []string) error {
	list, err := d.skillList(kind)
	if err != nil {
		return err
	}
	*list = append([]string{}, values...)
	return nil
}

func (d *Document) skillList(kind SkillKind) (*[]string, error) {
	switch kind {
	case SkillTechnical:
		return &d.Skills.Technical, nil
	case SkillLanguages:
		return &d.Skills.Languages, nil
	default:
		return nil, fmt.Errorf("skills.%s: %w", kind, ErrUnknownSkillKind)
	}
}
