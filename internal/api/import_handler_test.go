package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dutchcoders/go-clamd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitResume/internal/database"
	"fitResume/internal/drafts"
	"fitResume/internal/errcode"
	"fitResume/internal/importer"
)

type fakeImporter struct {
	result importer.Result
	err    error
	calls  int
}

func (f *fakeImporter) Import(_ context.Context, _ string, _ []byte) (importer.Result, error) {
	f.calls++
	return f.result, f.err
}

type fakeScanner struct {
	status string
}

func (f fakeScanner) ScanStream(r io.Reader, _ chan bool) (chan *clamd.ScanResult, error) {
	_, _ = io.Copy(io.Discard, r)
	ch := make(chan *clamd.ScanResult, 1)
	ch <- &clamd.ScanResult{Status: f.status}
	close(ch)
	return ch, nil
}

func newMultipartUpload(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func postUpload(t *testing.T, s *testServer, filename string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := newMultipartUpload(t, filename, content, fields)
	req := httptest.NewRequest(http.MethodPost, "/v1/import", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n%%EOF")

func TestImportStoresResultAsUploadDraft(t *testing.T) {
	doc := sampleDocument()
	im := &fakeImporter{result: importer.Result{Success: true, Message: "ok", Document: &doc, Kind: importer.KindPDF}}
	s := newTestServer(t, func(d *Deps) {
		d.Importer = im
		d.Scanner = fakeScanner{status: clamd.RES_OK}
	})

	w := postUpload(t, s, "my cv.pdf", samplePDF, map[string]string{"draft_key": "owner-9"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result importer.Result
	decodeBody(t, w, &result)
	assert.True(t, result.Success)
	require.NotNil(t, result.Document)
	assert.Equal(t, "Ada", result.Document.Personal.FirstName)

	_, found, err := s.deps.Drafts.Load(context.Background(), drafts.Namespaced("owner-9", drafts.UploadKey))
	require.NoError(t, err)
	assert.True(t, found)

	var uploads []database.Upload
	require.NoError(t, s.deps.DB.Find(&uploads).Error)
	require.Len(t, uploads, 1)
	assert.Equal(t, "my_cv.pdf", uploads[0].FileName)
	assert.Equal(t, "owner-9", uploads[0].DraftKey)
	assert.Contains(t, s.storage.uploaded, uploads[0].ObjectKey)

	created := createSession(t, s, map[string]any{"draftKey": "owner-9"})
	assert.Equal(t, drafts.SourceUpload, created.Source)
}

func TestImportRejectsBadFiles(t *testing.T) {
	im := &fakeImporter{}
	s := newTestServer(t, func(d *Deps) {
		d.Importer = im
		d.Scanner = fakeScanner{status: clamd.RES_FOUND}
		d.MaxUploadBytes = 64
	})

	w := postUpload(t, s, "notes.txt", []byte("plain text"), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), importer.MsgInvalidType)

	w = postUpload(t, s, "big.pdf", append(append([]byte{}, samplePDF...), bytes.Repeat([]byte("x"), 100)...), nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = postUpload(t, s, "virus.pdf", samplePDF, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "malicious file detected")

	w = postUpload(t, s, "cv.pdf", samplePDF, map[string]string{"draft_key": "bad key"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Zero(t, im.calls)
}

func TestImportInsufficientTextIsSoftFailure(t *testing.T) {
	im := &fakeImporter{result: importer.Result{InsufficientText: true, Message: "too little text", Kind: importer.KindPDF}}
	s := newTestServer(t, func(d *Deps) { d.Importer = im })

	w := postUpload(t, s, "cv.pdf", samplePDF, map[string]string{"draft_key": "owner-3"})
	require.Equal(t, http.StatusOK, w.Code)
	var result importer.Result
	decodeBody(t, w, &result)
	assert.True(t, result.InsufficientText)
	assert.Nil(t, result.Document)

	_, found, err := s.deps.Drafts.Load(context.Background(), drafts.Namespaced("owner-3", drafts.UploadKey))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestImportMapsErrors(t *testing.T) {
	im := &fakeImporter{err: &importer.ExtractionError{Message: "Failed to extract text", Details: "corrupt", Err: errors.New("eof")}}
	s := newTestServer(t, func(d *Deps) { d.Importer = im })

	w := postUpload(t, s, "cv.pdf", samplePDF, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]any
	decodeBody(t, w, &body)
	assert.EqualValues(t, errcode.InsufficientText, body["code"])

	im.err = importer.ErrStructure
	w = postUpload(t, s, "cv.pdf", samplePDF, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	im.err = errors.New("upstream")
	w = postUpload(t, s, "cv.pdf", samplePDF, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	decodeBody(t, w, &body)
	assert.EqualValues(t, errcode.UpstreamFailed, body["code"])
}

func TestImportUnavailableWithoutImporter(t *testing.T) {
	s := newTestServer(t, nil)
	w := postUpload(t, s, "cv.pdf", samplePDF, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
