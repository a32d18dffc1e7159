package main

import (
	"fmt"
	"os"

	"fitResume/internal/density"
	"fitResume/internal/fit"
	"fitResume/internal/resume"
	"fitResume/internal/session"
)

// probeResult 是离线搜索中的一次测量。
type probeResult struct {
	PresetID      string     `json:"presetId"`
	ContentHeight float64    `json:"contentHeight"`
	PageHeight    float64    `json:"pageHeight"`
	Overflowing   bool       `json:"overflowing"`
	Status        fit.Status `json:"status"`
}

// search 按会话的规则逐级测量，直到控制器不再切换预设。
// 每次切换至少前进一级，因此测量次数不超过阶梯长度。
func search(m session.Measurer, prober fit.Prober, ladder *density.Ladder, doc resume.Document) ([]probeResult, fit.State, error) {
	ctrl := fit.NewController(ladder.Len())
	var probes []probeResult
	for n := 0; n < ladder.Len(); n++ {
		i := ctrl.State().Current
		preset := ladder.At(i)
		snap, err := m.Measure(doc, preset)
		if err != nil {
			return probes, ctrl.State(), fmt.Errorf("measure %s: %w", preset.ID, err)
		}
		over := prober.Overflowing(snap.ContentHeight, snap.PageHeight)
		d := ctrl.Observe(i, over)
		probes = append(probes, probeResult{
			PresetID:      preset.ID,
			ContentHeight: snap.ContentHeight,
			PageHeight:    snap.PageHeight,
			Overflowing:   over,
			Status:        d.Status,
		})
		if !d.Switched {
			break
		}
	}
	return probes, ctrl.State(), nil
}

func readDocument(path string) (resume.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return resume.Document{}, fmt.Errorf("read document: %w", err)
	}
	doc, err := resume.Decode(raw)
	if err != nil {
		return resume.Document{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc, nil
}
