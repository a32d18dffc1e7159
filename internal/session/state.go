package session

import (
	"fitResume/internal/camera"
	"fitResume/internal/fit"
	"fitResume/internal/layout"
	"fitResume/internal/wizard"
)

// PresetOption 是预设选择器中的一项。
type PresetOption struct {
	ID    string `json:"id"`
	Valid bool   `json:"valid"`
}

// State 是会话对外暴露的只读视图。
type State struct {
	ID            string                                  `json:"id"`
	Version       uint64                                  `json:"version"`
	PresetID      string                                  `json:"presetId"`
	PresetIndex   int                                     `json:"presetIndex"`
	MinValidIndex int                                     `json:"minValidPresetIndex"`
	Settled       bool                                    `json:"settled"`
	Auto          bool                                    `json:"autoEnabled"`
	Status        fit.Status                              `json:"status"`
	Presets       []PresetOption                          `json:"presets"`
	Measuring     bool                                    `json:"measuring"`
	ContentHeight float64                                 `json:"contentHeight"`
	PageHeight    float64                                 `json:"pageHeight"`
	Viewport      layout.Viewport                         `json:"viewport"`
	Camera        camera.Transform                        `json:"camera"`
	Focus         string                                  `json:"focus"`
	Cursor        wizard.Cursor                           `json:"cursor"`
	Progress      int                                     `json:"progress"`
	Sections      map[wizard.Section]wizard.SectionStatus `json:"sections"`
	MeasureError  string                                  `json:"measureError,omitempty"`
	AutosaveError string                                  `json:"autosaveError,omitempty"`
}

// ValidPresets 返回可以手动选择的预设 ID。
func (st State) ValidPresets() []string {
	out := make([]string, 0, len(st.Presets))
	for _, p := range st.Presets {
		if p.Valid {
			out = append(out, p.ID)
		}
	}
	return out
}

// State 返回当前视图。
func (s *Session) State() State {
	fs := s.ctrl.State()
	presets := s.ladder.Presets()
	options := make([]PresetOption, len(presets))
	for i, p := range presets {
		options[i] = PresetOption{ID: p.ID, Valid: s.ctrl.Valid(i)}
	}
	st := State{
		ID:            s.id,
		Version:       s.version,
		PresetID:      s.ladder.At(fs.Current).ID,
		PresetIndex:   fs.Current,
		MinValidIndex: fs.MinValid,
		Settled:       fs.Settled,
		Auto:          fs.Auto,
		Status:        s.ctrl.Status(),
		Presets:       options,
		Measuring:     s.measureTimer != nil,
		ContentHeight: s.snap.ContentHeight,
		PageHeight:    s.snap.PageHeight,
		Viewport:      s.viewport,
		Camera:        s.xform,
		Focus:         s.nav.ActiveFragment().String(),
		Cursor:        s.nav.Cursor(),
		Progress:      wizard.Progress(s.doc),
		Sections:      wizard.Statuses(s.doc),
	}
	if s.measureErr != nil {
		st.MeasureError = s.measureErr.Error()
	}
	if s.saveErr != nil {
		st.AutosaveError = s.saveErr.Error()
	}
	return st
}
