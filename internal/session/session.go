// Package session 把自动排版控制器、镜头、向导与测量器组合成一个编辑会话。
// 会话的所有方法都必须在其调度器的拥有者上下文中调用（生产环境为 scheduler.Loop）。
package session

import (
	"errors"
	"fmt"
	"log/slog"

	"fitResume/internal/camera"
	"fitResume/internal/density"
	"fitResume/internal/drafts"
	"fitResume/internal/fit"
	"fitResume/internal/layout"
	"fitResume/internal/metrics"
	"fitResume/internal/resume"
	"fitResume/internal/scheduler"
	"fitResume/internal/wizard"
)

// ErrUnknownPreset 表示按 ID 选择的预设不在阶梯中。
var ErrUnknownPreset = errors.New("unknown preset")

// Measurer 是渲染层：在给定预设下排版文档并返回测量快照。
type Measurer interface {
	Measure(doc resume.Document, preset density.Preset) (layout.Snapshot, error)
}

// Options 描述会话的依赖。
type Options struct {
	ID        string
	Ladder    *density.Ladder
	Prober    fit.Prober
	Camera    camera.Camera
	Measurer  Measurer
	Scheduler scheduler.Scheduler
	// Autosaver 为 nil 时不保存草稿。
	Autosaver *drafts.Autosaver
	Logger    *slog.Logger
	// OnChange 在每次对外可见的状态变化后调用，运行在拥有者上下文中。
	OnChange func(State)
}

// Session 是单个编辑会话的状态。
type Session struct {
	id       string
	ladder   *density.Ladder
	prober   fit.Prober
	camera   camera.Camera
	measurer Measurer
	sched    scheduler.Scheduler
	saver    *drafts.Autosaver
	logger   *slog.Logger
	onChange func(State)

	doc      resume.Document
	ctrl     *fit.Controller
	nav      *wizard.Navigator
	viewport layout.Viewport
	snap     layout.Snapshot
	xform    camera.Transform

	// measureTimer 非 nil 表示下一帧有一次待执行的测量；同一帧内的多次请求合并为一次。
	measureTimer scheduler.Timer
	searchFrames int
	atMax        bool
	measureErr   error
	saveErr      error
	version      uint64
	closed       bool
}

// New 创建会话并在下一帧安排首次测量。
func New(opts Options, doc resume.Document) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		id:       opts.ID,
		ladder:   opts.Ladder,
		prober:   opts.Prober,
		camera:   opts.Camera,
		measurer: opts.Measurer,
		sched:    opts.Scheduler,
		saver:    opts.Autosaver,
		logger:   logger.With(slog.String("session_id", opts.ID)),
		onChange: opts.OnChange,
		doc:      doc.Clone(),
		ctrl:     fit.NewController(opts.Ladder.Len()),
		nav:      wizard.NewNavigator(),
	}
	if s.saver != nil {
		s.saver.OnError = func(err error) {
			s.saveErr = err
			metrics.AutosaveFailed()
			s.publish()
		}
		s.saver.OnSaved = func() {
			if s.saveErr != nil {
				s.saveErr = nil
				s.publish()
			}
		}
	}
	s.xform = s.camera.Compute(s.nav.ActiveFragment(), s.snap, s.viewport)
	s.requestMeasure()
	return s
}

// ID 返回会话 ID。
func (s *Session) ID() string { return s.id }

// Document 返回当前文档的副本。
func (s *Session) Document() resume.Document { return s.doc.Clone() }

// Snapshot 返回最近一次测量结果。
func (s *Session) Snapshot() layout.Snapshot { return s.snap }

// Edit 修改文档。fn 返回错误时文档保持不变。
func (s *Session) Edit(fn func(doc *resume.Document) error) error {
	next := s.doc.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	s.documentChanged(next)
	return nil
}

// Replace 用新文档整体替换当前文档。
func (s *Session) Replace(doc resume.Document) {
	s.documentChanged(doc.Clone())
}

func (s *Session) documentChanged(next resume.Document) {
	shapeChanged := next.Shape() != s.doc.Shape()
	s.doc = next
	s.nav.Clamp(s.doc)
	if shapeChanged && s.ctrl.ShapeChanged() {
		s.logger.Info("document shape changed, restarting fit search")
		s.searchFrames = 0
	}
	if s.saver != nil {
		s.saver.Schedule(s.doc)
	}
	s.requestMeasure()
	s.publish()
}

// SetViewport 更新视口尺寸并重新计算镜头。
func (s *Session) SetViewport(vp layout.Viewport) {
	s.viewport = vp
	s.recomputeCamera()
	s.publish()
}

// SelectPreset 手动选择第 i 级预设，低于有效下限时返回 fit.ErrBelowValidFloor。
func (s *Session) SelectPreset(i int) error {
	if err := s.ctrl.Select(i); err != nil {
		return err
	}
	s.requestMeasure()
	s.publish()
	return nil
}

// SelectPresetID 按 ID 手动选择预设。
func (s *Session) SelectPresetID(id string) error {
	i, err := s.ladder.IndexOf(id)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownPreset, id)
	}
	return s.SelectPreset(i)
}

// SetAuto 打开或关闭自动模式。
func (s *Session) SetAuto(enabled bool) {
	if s.ctrl.SetAuto(enabled) {
		s.searchFrames = 0
		s.requestMeasure()
	}
	s.publish()
}

// Navigate 执行一次向导导航。
func (s *Session) Navigate(n Navigation) error {
	if err := n.apply(s.nav, s.doc); err != nil {
		return err
	}
	s.recomputeCamera()
	s.publish()
	return nil
}

// Close 写出等待中的草稿并取消所有定时回调。
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if s.measureTimer != nil {
		s.measureTimer.Stop()
		s.measureTimer = nil
	}
	if s.saver != nil {
		s.saver.Flush()
		s.saver.Stop()
	}
	if s.atMax {
		metrics.OverflowAtMaxChanged(false)
		s.atMax = false
	}
}

func (s *Session) requestMeasure() {
	if s.closed || s.measureTimer != nil {
		return
	}
	s.measureTimer = s.sched.NextFrame(s.measure)
}

// measure 在当前预设下测量一次并把结果交给控制器。预设发生切换时
// 在下一帧重新测量，否则用同一份快照更新镜头。
func (s *Session) measure() {
	s.measureTimer = nil
	if s.closed {
		return
	}
	index := s.ctrl.State().Current
	preset := s.ladder.At(index)
	snap, err := s.measurer.Measure(s.doc, preset)
	if err != nil {
		s.measureErr = err
		s.logger.Error("measure document", slog.String("preset", preset.ID), slog.String("error", err.Error()))
		s.publish()
		return
	}
	s.measureErr = nil
	s.snap = snap
	s.searchFrames++

	overflowing := s.prober.Overflowing(snap.ContentHeight, snap.PageHeight)
	metrics.ObserveProbe(overflowing)
	d := s.ctrl.Observe(index, overflowing)

	if d.Switched {
		next := s.ladder.At(d.State.Current)
		s.logger.Info("overflow detected, switching preset",
			slog.String("from", preset.ID),
			slog.String("to", next.ID),
			slog.Float64("content_height", snap.ContentHeight),
			slog.Float64("page_height", snap.PageHeight),
		)
		metrics.ObservePresetSwitch(next.ID)
		s.requestMeasure()
		s.publish()
		return
	}

	if d.State.Settled && !d.Previous.Settled {
		metrics.ObserveSearch(s.searchFrames)
		s.searchFrames = 0
	}
	s.setAtMax(d.Status == fit.StatusOverflowAtMax, preset)
	s.recomputeCamera()
	s.publish()
}

func (s *Session) setAtMax(atMax bool, preset density.Preset) {
	if atMax == s.atMax {
		return
	}
	s.atMax = atMax
	metrics.OverflowAtMaxChanged(atMax)
	if atMax {
		s.searchFrames = 0
		s.logger.Warn("overflow at maximum density",
			slog.String("preset", preset.ID),
			slog.Float64("content_height", s.snap.ContentHeight),
			slog.Float64("page_height", s.snap.PageHeight),
		)
	}
}

// recomputeCamera 在预设切换未完成时推迟，由随后的测量重新触发。
func (s *Session) recomputeCamera() {
	if s.measureTimer != nil {
		return
	}
	if s.nav.Cursor().Preview {
		s.xform = camera.Transform{Scale: camera.PreviewScale(s.viewport.Height, s.snap.PageHeight)}
		return
	}
	s.xform = s.camera.Compute(s.nav.ActiveFragment(), s.snap, s.viewport)
}

func (s *Session) publish() {
	s.version++
	if s.onChange != nil {
		s.onChange(s.State())
	}
}
