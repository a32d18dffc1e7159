package wizard

import (
	"errors"
	"fmt"

	"fitResume/internal/layout"
	"fitResume/internal/resume"
)

var ErrUnknownFragment = errors.New("unknown fragment")

// Cursor 是导航器的可序列化状态。
type Cursor struct {
	Step       int    `json:"step"`
	StepKey    string `json:"stepKey"`
	Experience int    `json:"experienceIndex"`
	Education  int    `json:"educationIndex"`
	Preview    bool   `json:"preview"`
}

// Navigator 在步骤表上移动光标，并给出镜头需要对准的区域。
type Navigator struct {
	step    int
	exp     int
	edu     int
	preview bool
}

// NewNavigator 从第一步开始。
func NewNavigator() *Navigator { return &Navigator{} }

// Cursor 返回当前光标。
func (n *Navigator) Cursor() Cursor {
	return Cursor{
		Step:       n.step,
		StepKey:    Steps[n.step].Key,
		Experience: n.exp,
		Education:  n.edu,
		Preview:    n.preview,
	}
}

// Step 返回当前步骤。
func (n *Navigator) Step() Step { return Steps[n.step] }

// ActiveFragment 返回当前步骤对应的区域。
func (n *Navigator) ActiveFragment() layout.FragmentKey {
	f := Steps[n.step].Fragment
	switch f {
	case layout.FragmentExperienceHeader, layout.FragmentExperienceBullets:
		return layout.Key(f, n.exp)
	case layout.FragmentEducation:
		return layout.Key(f, n.edu)
	default:
		return layout.Key(f, 0)
	}
}

// Next 前进一步。经历在抬头与要点之间交替，直到最后一条；
// 教育逐条前进；最后一步之后进入预览模式。
func (n *Navigator) Next(doc resume.Document) {
	step := Steps[n.step]
	if step.Multi {
		switch step.Fragment {
		case layout.FragmentExperienceHeader:
			n.step = stepIndex(layout.FragmentExperienceBullets)
			return
		case layout.FragmentExperienceBullets:
			if n.exp < len(doc.Experience)-1 {
				n.exp++
				n.step = stepIndex(layout.FragmentExperienceHeader)
				return
			}
			n.exp = 0
			n.advance()
			return
		case layout.FragmentEducation:
			if n.edu < len(doc.Education)-1 {
				n.edu++
				return
			}
			n.edu = 0
			n.advance()
			return
		}
	}
	if n.step < len(Steps)-1 {
		n.step++
		return
	}
	n.preview = true
}

func (n *Navigator) advance() {
	if n.step < len(Steps)-1 {
		n.step++
	}
}

// Previous 后退一步，与 Next 对称。
func (n *Navigator) Previous() {
	step := Steps[n.step]
	if step.Multi {
		switch step.Fragment {
		case layout.FragmentExperienceHeader:
			if n.exp == 0 {
				if n.step > 0 {
					n.step--
				}
				return
			}
			n.exp--
			n.step = stepIndex(layout.FragmentExperienceBullets)
			return
		case layout.FragmentExperienceBullets:
			n.step = stepIndex(layout.FragmentExperienceHeader)
			return
		case layout.FragmentEducation:
			if n.edu > 0 {
				n.edu--
				return
			}
			if n.step > 0 {
				n.step--
			}
			return
		}
	}
	if n.step > 0 {
		n.step--
	}
}

// JumpTo 直接跳到某个区域；index 为负表示保留当前条目下标。
func (n *Navigator) JumpTo(f layout.Fragment, index int) error {
	i := stepIndex(f)
	if i < 0 {
		return fmt.Errorf("jump to %q: %w", f, ErrUnknownFragment)
	}
	n.step = i
	if index >= 0 {
		switch f {
		case layout.FragmentExperienceHeader, layout.FragmentExperienceBullets:
			n.exp = index
		case layout.FragmentEducation:
			n.edu = index
		}
	}
	return nil
}

// SelectExperience 将经历光标移到第 i 条（例如新增经历后）。
func (n *Navigator) SelectExperience(i int) { n.exp = i }

// SelectEducation 将教育光标移到第 i 条。
func (n *Navigator) SelectEducation(i int) { n.edu = i }

// SetPreview 进入或退出整页预览。
func (n *Navigator) SetPreview(on bool) { n.preview = on }

// Clamp 确保条目下标不超出文档现有条目。
func (n *Navigator) Clamp(doc resume.Document) {
	n.exp = clampIndex(n.exp, len(doc.Experience))
	n.edu = clampIndex(n.edu, len(doc.Education))
}

func clampIndex(i, length int) int {
	if i >= length {
		i = length - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// Reset 回到第一步并退出预览。
func (n *Navigator) Reset() { *n = Navigator{} }
