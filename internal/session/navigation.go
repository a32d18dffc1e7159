package session

import (
	"errors"
	"fmt"

	"fitResume/internal/layout"
	"fitResume/internal/resume"
	"fitResume/internal/wizard"
)

// ErrUnknownNavigation 表示不支持的导航动作。
var ErrUnknownNavigation = errors.New("unknown navigation action")

// 导航动作。
const (
	NavNext     = "next"
	NavPrevious = "previous"
	NavJump     = "jump"
	NavPreview  = "preview"
	NavEdit     = "edit"
	NavReset    = "reset"
)

// Navigation 是一次向导导航请求。Jump 时 Fragment 必填，Index 为 nil 表示保留当前条目。
type Navigation struct {
	Action   string          `json:"action" binding:"required"`
	Fragment layout.Fragment `json:"fragment,omitempty"`
	Index    *int            `json:"index,omitempty"`
}

func (n Navigation) apply(nav *wizard.Navigator, doc resume.Document) error {
	switch n.Action {
	case NavNext:
		nav.Next(doc)
	case NavPrevious:
		nav.Previous()
	case NavJump:
		index := -1
		if n.Index != nil {
			index = *n.Index
		}
		if err := nav.JumpTo(n.Fragment, index); err != nil {
			return err
		}
		nav.SetPreview(false)
		nav.Clamp(doc)
	case NavPreview:
		nav.SetPreview(true)
	case NavEdit:
		nav.SetPreview(false)
	case NavReset:
		nav.Reset()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownNavigation, n.Action)
	}
	return nil
}
