package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitResume/internal/resume"
)

func TestDraftRoundTrip(t *testing.T) {
	s := newTestServer(t, nil)
	path := "/v1/drafts/owner-7:resume-draft"

	w := s.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPut, path, sampleDocument())
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var doc resume.Document
	decodeBody(t, w, &doc)
	assert.Equal(t, "Ada", doc.Personal.FirstName)
	assert.NotNil(t, doc.Experience)

	w = s.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDraftRejectsInvalidInput(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodPut, "/v1/drafts/owner-7", `{"personal": "nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/v1/drafts/"+strings.Repeat("k", 200), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/v1/drafts/owner-7", strings.Repeat("x", maxDraftBytes+10))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestDraftWithoutStore(t *testing.T) {
	s := newTestServer(t, func(d *Deps) { d.Drafts = nil })
	w := s.do(t, http.MethodGet, "/v1/drafts/owner-7", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
