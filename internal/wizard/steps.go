package wizard

import (
	"math"

	"fitResume/internal/layout"
	"fitResume/internal/resume"
)

// Section 是侧边栏中的分组。
type Section string

const (
	SectionPersonal   Section = "personal"
	SectionSummary    Section = "summary"
	SectionExperience Section = "experience"
	SectionEducation  Section = "education"
	SectionSkills     Section = "skills"
)

// Sections 按展示顺序列出所有分组。
var Sections = []Section{SectionPersonal, SectionSummary, SectionExperience, SectionEducation, SectionSkills}

// SectionStatus 是分组的完成状态。
type SectionStatus string

const (
	StatusComplete   SectionStatus = "complete"
	StatusInProgress SectionStatus = "in-progress"
	StatusIncomplete SectionStatus = "incomplete"
)

// Step 是向导中的一步。
type Step struct {
	Key      string          `json:"key"`
	Section  Section         `json:"section"`
	Fragment layout.Fragment `json:"fragment"`
	Fields   []string        `json:"fields"`
	Optional bool            `json:"optional,omitempty"`
	Multi    bool            `json:"multi,omitempty"`
}

// Steps 是固定的步骤表。
var Steps = []Step{
	{Key: "name", Section: SectionPersonal, Fragment: layout.FragmentName, Fields: []string{"firstName", "lastName"}},
	{Key: "contact", Section: SectionPersonal, Fragment: layout.FragmentContact, Fields: []string{"email", "phone", "location", "linkedin"}, Optional: true},
	{Key: "summary", Section: SectionSummary, Fragment: layout.FragmentSummary, Fields: []string{"summary"}, Optional: true},
	{Key: "experience", Section: SectionExperience, Fragment: layout.FragmentExperienceHeader, Fields: []string{"company", "position", "startDate", "endDate"}, Multi: true},
	{Key: "experience-bullets", Section: SectionExperience, Fragment: layout.FragmentExperienceBullets, Fields: []string{"description"}, Multi: true},
	{Key: "education", Section: SectionEducation, Fragment: layout.FragmentEducation, Fields: []string{"institution", "degree", "field", "startDate", "endDate"}, Multi: true, Optional: true},
	{Key: "skills", Section: SectionSkills, Fragment: layout.FragmentSkills, Fields: []string{"technical", "languages"}, Optional: true},
}

func stepIndex(f layout.Fragment) int {
	for i, s := range Steps {
		if s.Fragment == f {
			return i
		}
	}
	return -1
}

// Completion 返回每个步骤是否完成，键为 Step.Key。
func Completion(doc resume.Document) map[string]bool {
	anyExp := func(pred func(resume.Experience) bool) bool {
		for _, e := range doc.Experience {
			if pred(e) {
				return true
			}
		}
		return false
	}
	eduComplete := false
	for _, e := range doc.Education {
		if e.Complete() {
			eduComplete = true
			break
		}
	}
	return map[string]bool{
		"name":               resume.HasText(doc.Personal.FirstName) && resume.HasText(doc.Personal.LastName),
		"contact":            resume.HasText(doc.Personal.Email),
		"summary":            resume.HasText(doc.Personal.Summary),
		"experience":         anyExp(resume.Experience.HeaderComplete),
		"experience-bullets": anyExp(resume.Experience.Complete),
		"education":          eduComplete,
		"skills":             len(doc.Skills.Technical) > 0 || len(doc.Skills.Languages) > 0,
	}
}

// Progress 返回已完成步骤的百分比（四舍五入）。
func Progress(doc resume.Document) int {
	done := Completion(doc)
	completed := 0
	for _, s := range Steps {
		if done[s.Key] {
			completed++
		}
	}
	return int(math.Round(float64(completed) / float64(len(Steps)) * 100))
}

func sectionHasData(doc resume.Document, s Section) bool {
	switch s {
	case SectionPersonal:
		return resume.HasText(doc.Personal.FirstName) || resume.HasText(doc.Personal.LastName)
	case SectionSummary:
		return resume.HasText(doc.Personal.Summary)
	case SectionExperience:
		return len(doc.Experience) > 0 && doc.Experience[0].HasData()
	case SectionEducation:
		return len(doc.Education) > 0 &&
			(resume.HasText(doc.Education[0].Institution) || resume.HasText(doc.Education[0].Degree))
	case SectionSkills:
		return len(doc.Skills.Technical) > 0 || len(doc.Skills.Languages) > 0
	}
	return false
}

// StatusOf 计算分组状态：所有步骤完成为 complete，有数据为 in-progress，否则 incomplete。
func StatusOf(doc resume.Document, s Section) SectionStatus {
	done := Completion(doc)
	complete := true
	for _, step := range Steps {
		if step.Section == s && !done[step.Key] {
			complete = false
			break
		}
	}
	switch {
	case complete:
		return StatusComplete
	case sectionHasData(doc, s):
		return StatusInProgress
	default:
		return StatusIncomplete
	}
}

// Statuses 返回全部分组的状态。
func Statuses(doc resume.Document) map[Section]SectionStatus {
	out := make(map[Section]SectionStatus, len(Sections))
	for _, s := range Sections {
		out[s] = StatusOf(doc, s)
	}
	return out
}
