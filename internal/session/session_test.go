package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitResume/internal/camera"
	"fitResume/internal/config"
	"fitResume/internal/density"
	"fitResume/internal/drafts"
	"fitResume/internal/fit"
	"fitResume/internal/layout"
	"fitResume/internal/resume"
	"fitResume/internal/scheduler"
)

const pageHeight = 1123

// fakeMeasurer 按预设返回固定的内容高度，并为每个区域给出固定矩形。
type fakeMeasurer struct {
	heights map[string]float64
	calls   int
	err     error
}

func (m *fakeMeasurer) Measure(doc resume.Document, preset density.Preset) (layout.Snapshot, error) {
	m.calls++
	if m.err != nil {
		return layout.Snapshot{}, m.err
	}
	frags := map[layout.FragmentKey]layout.Rect{
		layout.Key(layout.FragmentName, 0):    {Top: 40, Width: 700, Height: 60},
		layout.Key(layout.FragmentContact, 0): {Top: 110, Width: 700, Height: 20},
	}
	for i := range doc.Experience {
		frags[layout.Key(layout.FragmentExperienceHeader, i)] = layout.Rect{Top: 300 + float64(i)*120, Width: 700, Height: 40}
	}
	return layout.Snapshot{
		PresetID:      preset.ID,
		PageWidth:     794,
		PageHeight:    pageHeight,
		ContentHeight: m.heights[preset.ID],
		Fragments:     frags,
	}, nil
}

type harness struct {
	clock    *scheduler.Virtual
	measurer *fakeMeasurer
	store    *drafts.MemoryStore
	sess     *Session
	states   []State
}

func newHarness(t *testing.T, heights map[string]float64) *harness {
	t.Helper()
	prober, err := fit.NewProber(fit.DefaultEpsilonPx)
	require.NoError(t, err)
	h := &harness{
		clock:    scheduler.NewVirtual(16 * time.Millisecond),
		measurer: &fakeMeasurer{heights: heights},
		store:    drafts.NewMemoryStore(),
	}
	saver := drafts.NewAutosaver(h.clock, h.store, "s1:resume-draft", 500*time.Millisecond, nil)
	h.sess = New(Options{
		ID:        "s1",
		Ladder:    density.Standard,
		Prober:    prober,
		Camera:    camera.New(config.DefaultFit()),
		Measurer:  h.measurer,
		Scheduler: h.clock,
		Autosaver: saver,
		OnChange:  func(st State) { h.states = append(h.states, st) },
	}, resume.New())
	return h
}

func TestSessionSwitchesToCompactAndSettles(t *testing.T) {
	h := newHarness(t, map[string]float64{"standard": 1300, "compact": 1100, "dense": 1000, "ultra-dense": 900})
	st := h.sess.State()
	assert.True(t, st.Measuring)
	assert.Equal(t, fit.StatusSearching, st.Status)

	h.clock.Step()
	st = h.sess.State()
	assert.Equal(t, "compact", st.PresetID)
	assert.True(t, st.Measuring, "switch pending until the next frame measures")
	assert.Equal(t, 1, st.MinValidIndex)

	h.clock.Step()
	st = h.sess.State()
	assert.Equal(t, "compact", st.PresetID)
	assert.Equal(t, fit.StatusFitting, st.Status)
	assert.True(t, st.Settled)
	assert.False(t, st.Measuring)
	assert.Equal(t, []string{"compact", "dense", "ultra-dense"}, st.ValidPresets())
	assert.Equal(t, 2, h.measurer.calls)

	// 稳定后不再有测量回调。
	assert.Zero(t, h.clock.Flush(10))
}

func TestSessionRejectsPresetBelowFloor(t *testing.T) {
	h := newHarness(t, map[string]float64{"standard": 1300, "compact": 1100})
	h.clock.Step()
	h.clock.Step()

	err := h.sess.SelectPresetID("standard")
	assert.ErrorIs(t, err, fit.ErrBelowValidFloor)
	assert.Equal(t, "compact", h.sess.State().PresetID)
	assert.True(t, h.sess.State().Auto)

	require.NoError(t, h.sess.SelectPresetID("dense"))
	h.clock.Step()
	st := h.sess.State()
	assert.False(t, st.Auto)
	assert.Equal(t, "dense", st.PresetID)
	assert.Equal(t, 1, st.MinValidIndex)

	assert.ErrorIs(t, h.sess.SelectPresetID("tiny"), ErrUnknownPreset)
}

func TestSessionOverflowAtMaximumDensity(t *testing.T) {
	h := newHarness(t, map[string]float64{"standard": 2000, "compact": 1900, "dense": 1800, "ultra-dense": 1700})
	h.clock.Flush(20)
	st := h.sess.State()
	assert.Equal(t, "ultra-dense", st.PresetID)
	assert.Equal(t, fit.StatusOverflowAtMax, st.Status)
	assert.False(t, st.Settled)
	assert.Equal(t, 4, h.measurer.calls)
}

func TestSessionCoalescesMeasurementsPerFrame(t *testing.T) {
	h := newHarness(t, map[string]float64{"standard": 900})
	h.clock.Step()
	require.Equal(t, 1, h.measurer.calls)

	for _, name := range []string{"A", "Ad", "Ada"} {
		require.NoError(t, h.sess.ApplyEdits([]EditOp{{Op: OpSetPersonal, Field: "firstName", Value: name}}, time.Now()))
	}
	h.clock.Step()
	assert.Equal(t, 2, h.measurer.calls)
	assert.Equal(t, "Ada", h.sess.Document().Personal.FirstName)
}

func TestSessionShapeChangeRestartsSearch(t *testing.T) {
	heights := map[string]float64{"standard": 1300, "compact": 1100}
	h := newHarness(t, heights)
	h.clock.Flush(10)
	require.Equal(t, "compact", h.sess.State().PresetID)

	heights["standard"] = 1000
	require.NoError(t, h.sess.ApplyEdits([]EditOp{{Op: OpAddExperience}}, time.Unix(1700000000, 0)))
	st := h.sess.State()
	assert.Equal(t, "standard", st.PresetID)
	assert.Equal(t, 0, st.MinValidIndex)
	assert.False(t, st.Settled)
	assert.Equal(t, "experience-header-1", st.Focus, "new entry is focused")

	h.clock.Flush(10)
	st = h.sess.State()
	assert.Equal(t, "standard", st.PresetID)
	assert.Equal(t, fit.StatusFitting, st.Status)
}

func TestSessionContentEditWithoutShapeChangeKeepsPreset(t *testing.T) {
	heights := map[string]float64{"standard": 1300, "compact": 1100}
	h := newHarness(t, heights)
	h.clock.Flush(10)

	heights["standard"] = 800
	heights["compact"] = 700
	require.NoError(t, h.sess.ApplyEdits([]EditOp{{Op: OpSetPersonal, Field: "summary", Value: "short"}}, time.Now()))
	h.clock.Flush(10)
	st := h.sess.State()
	assert.Equal(t, "compact", st.PresetID)
	assert.Equal(t, 1, st.MinValidIndex)
}

func TestSessionApplyEditsIsAtomic(t *testing.T) {
	h := newHarness(t, map[string]float64{"standard": 900})
	err := h.sess.ApplyEdits([]EditOp{
		{Op: OpSetPersonal, Field: "firstName", Value: "Ada"},
		{Op: OpSetExperience, Index: 7, Field: "company", Value: "X"},
	}, time.Now())
	assert.ErrorIs(t, err, resume.ErrIndexOutOfRange)
	assert.Empty(t, h.sess.Document().Personal.FirstName)

	assert.ErrorIs(t, h.sess.ApplyEdits([]EditOp{{Op: "nope"}}, time.Now()), ErrUnknownEdit)
}

func TestSessionCameraDeferredWhileSwitching(t *testing.T) {
	h := newHarness(t, map[string]float64{"standard": 1300, "compact": 1100})
	h.sess.SetViewport(layout.Viewport{Width: 1280, Height: 800})
	assert.True(t, h.sess.State().Camera.Fallback)

	h.clock.Step()
	assert.True(t, h.sess.State().Camera.Fallback, "camera waits for the switched preset to be measured")

	h.clock.Step()
	st := h.sess.State()
	assert.False(t, st.Camera.Fallback)
	assert.Greater(t, st.Camera.Scale, 0.0)

	require.NoError(t, h.sess.Navigate(Navigation{Action: NavNext}))
	assert.Equal(t, "contact", h.sess.State().Focus)

	require.NoError(t, h.sess.Navigate(Navigation{Action: NavPreview}))
	st = h.sess.State()
	assert.True(t, st.Cursor.Preview)
	assert.InDelta(t, camera.PreviewScale(800, pageHeight), st.Camera.Scale, 1e-9)

	assert.ErrorIs(t, h.sess.Navigate(Navigation{Action: "sideways"}), ErrUnknownNavigation)
}

func TestSessionAutosavesAfterQuiescence(t *testing.T) {
	h := newHarness(t, map[string]float64{"standard": 900})
	require.NoError(t, h.sess.ApplyEdits([]EditOp{{Op: OpSetPersonal, Field: "firstName", Value: "Ada"}}, time.Now()))
	h.clock.Advance(400 * time.Millisecond)
	assert.Zero(t, h.store.Len())
	h.clock.Advance(200 * time.Millisecond)
	assert.Equal(t, 1, h.store.Len())

	h.store.Fail = errors.New("disk full")
	require.NoError(t, h.sess.ApplyEdits([]EditOp{{Op: OpSetPersonal, Field: "lastName", Value: "Lovelace"}}, time.Now()))
	h.clock.Advance(time.Second)
	st := h.sess.State()
	assert.Contains(t, st.AutosaveError, "disk full")
	assert.Equal(t, "Lovelace", h.sess.Document().Personal.LastName, "document is never rolled back")
}

func TestSessionMeasureErrorIsReported(t *testing.T) {
	h := newHarness(t, nil)
	h.measurer.err = errors.New("font missing")
	h.clock.Step()
	st := h.sess.State()
	assert.Equal(t, "font missing", st.MeasureError)
	assert.Equal(t, fit.StatusSearching, st.Status)
}

func TestSessionCloseFlushesDraft(t *testing.T) {
	h := newHarness(t, map[string]float64{"standard": 900})
	require.NoError(t, h.sess.ApplyEdits([]EditOp{{Op: OpAddSkill, Kind: "technical", Value: "Go"}}, time.Now()))
	h.sess.Close()
	data, found, err := h.store.Load(context.Background(), "s1:resume-draft")
	require.NoError(t, err)
	require.True(t, found)
	doc, err := resume.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, doc.Skills.Technical)
	assert.Zero(t, h.clock.Pending())
}

func TestSessionReenablingAutoAtFirstPresetRemeasures(t *testing.T) {
	heights := map[string]float64{"standard": 1000, "compact": 900}
	h := newHarness(t, heights)
	h.clock.Flush(10)
	require.Equal(t, "standard", h.sess.State().PresetID)

	require.NoError(t, h.sess.SelectPresetID("standard"))
	heights["standard"] = 1300
	require.NoError(t, h.sess.ApplyEdits([]EditOp{{Op: OpSetPersonal, Field: "summary", Value: "A much longer summary."}}, time.Now()))
	h.clock.Flush(10)
	st := h.sess.State()
	require.False(t, st.Auto)
	require.Equal(t, "standard", st.PresetID)
	require.Equal(t, fit.StatusOverflowing, st.Status)
	require.Equal(t, 1, st.MinValidIndex)

	calls := h.measurer.calls
	h.sess.SetAuto(true)
	assert.True(t, h.sess.State().Measuring)
	h.clock.Flush(20)
	st = h.sess.State()
	assert.True(t, st.Auto)
	assert.Equal(t, "compact", st.PresetID)
	assert.Equal(t, fit.StatusFitting, st.Status)
	assert.True(t, st.Settled)
	assert.Equal(t, calls+2, h.measurer.calls)
}
