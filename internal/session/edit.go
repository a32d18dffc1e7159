package session

import (
	"errors"
	"fmt"
	"time"

	"fitResume/internal/layout"
	"fitResume/internal/resume"
)

// ErrUnknownEdit 表示不支持的编辑操作。
var ErrUnknownEdit = errors.New("unknown edit operation")

// 编辑操作。
const (
	OpSetPersonal   = "personal.set"
	OpAddExperience = "experience.add"
	OpSetExperience = "experience.set"
	OpAddBullet     = "experience.bullet.add"
	OpRemoveBullet  = "experience.bullet.remove"
	OpSetBullets    = "experience.bullet.replace"
	OpAddEducation  = "education.add"
	OpSetEducation  = "education.set"
	OpAddSkill      = "skills.add"
	OpRemoveSkill   = "skills.remove"
	OpSetSkills     = "skills.replace"
)

// EditOp 是 PATCH 文档时的一条操作。
type EditOp struct {
	Op     string   `json:"op" binding:"required"`
	Index  int      `json:"index,omitempty"`
	Item   int      `json:"item,omitempty"`
	Field  string   `json:"field,omitempty"`
	Value  string   `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
	Kind   string   `json:"kind,omitempty"`
}

// focus 非 nil 时，操作成功后向导跳到新增的条目。
type focus struct {
	fragment layout.Fragment
	index    int
}

func (op EditOp) apply(doc *resume.Document, now time.Time) (*focus, error) {
	switch op.Op {
	case OpSetPersonal:
		return nil, doc.UpdatePersonal(op.Field, op.Value)
	case OpAddExperience:
		i := doc.AddExperience(now)
		return &focus{fragment: layout.FragmentExperienceHeader, index: i}, nil
	case OpSetExperience:
		return nil, doc.UpdateExperience(op.Index, op.Field, op.Value)
	case OpAddBullet:
		return nil, doc.AddBullet(op.Index, op.Value)
	case OpRemoveBullet:
		return nil, doc.RemoveBullet(op.Index, op.Item)
	case OpSetBullets:
		return nil, doc.SetBullets(op.Index, op.Values)
	case OpAddEducation:
		i := doc.AddEducation(now)
		return &focus{fragment: layout.FragmentEducation, index: i}, nil
	case OpSetEducation:
		return nil, doc.UpdateEducation(op.Index, op.Field, op.Value)
	case OpAddSkill:
		return nil, doc.AddSkill(resume.SkillKind(op.Kind), op.Value)
	case OpRemoveSkill:
		return nil, doc.RemoveSkill(resume.SkillKind(op.Kind), op.Item)
	case OpSetSkills:
		return nil, doc.SetSkills(resume.SkillKind(op.Kind), op.Values)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEdit, op.Op)
	}
}

// ApplyEdits 原子地应用一组操作：任一操作失败时文档不变。
// 新增条目后向导会跳到最后一个新增的条目。
func (s *Session) ApplyEdits(ops []EditOp, now time.Time) error {
	var last *focus
	err := s.Edit(func(doc *resume.Document) error {
		for i, op := range ops {
			f, err := op.apply(doc, now)
			if err != nil {
				return fmt.Errorf("op %d (%s): %w", i, op.Op, err)
			}
			if f != nil {
				last = f
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if last != nil {
		index := last.index
		return s.Navigate(Navigation{Action: NavJump, Fragment: last.fragment, Index: &index})
	}
	return nil
}
