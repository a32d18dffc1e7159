package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitResume/internal/density"
	"fitResume/internal/fit"
	"fitResume/internal/layout"
	"fitResume/internal/resume"
)

type heightMeasurer map[string]float64

func (m heightMeasurer) Measure(_ resume.Document, preset density.Preset) (layout.Snapshot, error) {
	return layout.Snapshot{PresetID: preset.ID, PageHeight: 1123, ContentHeight: m[preset.ID]}, nil
}

func TestSearchStopsAtFirstFittingPreset(t *testing.T) {
	prober, err := fit.NewProber(fit.DefaultEpsilonPx)
	require.NoError(t, err)

	probes, state, err := search(heightMeasurer{"standard": 1300, "compact": 1200, "dense": 1100}, prober, density.Standard, resume.New())
	require.NoError(t, err)
	require.Len(t, probes, 3)
	assert.Equal(t, "dense", probes[2].PresetID)
	assert.False(t, probes[2].Overflowing)
	assert.Equal(t, fit.StatusFitting, probes[2].Status)
	assert.Equal(t, 2, state.Current)
	assert.Equal(t, 2, state.MinValid)
	assert.True(t, state.Settled)
}

func TestSearchOverflowAtMaximumDensity(t *testing.T) {
	prober, err := fit.NewProber(fit.DefaultEpsilonPx)
	require.NoError(t, err)

	heights := heightMeasurer{"standard": 2000, "compact": 2000, "dense": 2000, "ultra-dense": 2000}
	probes, state, err := search(heights, prober, density.Standard, resume.New())
	require.NoError(t, err)
	require.Len(t, probes, density.Standard.Len())
	assert.Equal(t, fit.StatusOverflowAtMax, probes[len(probes)-1].Status)
	assert.Equal(t, density.Standard.Last(), state.Current)
	assert.False(t, state.Settled)
}

func TestFitCommandPrintsJSON(t *testing.T) {
	doc := resume.New()
	doc.Personal.FirstName = "Ada"
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"fit", path, "--json"})
	require.NoError(t, rootCmd.Execute())

	var got struct {
		Probes []probeResult `json:"probes"`
		State  fit.State     `json:"state"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got.Probes, 1)
	assert.Equal(t, "standard", got.Probes[0].PresetID)
	assert.True(t, got.State.Settled)
}
