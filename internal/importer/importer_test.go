package importer

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitResume/internal/llm"
)

type fakeLLM struct {
	replies map[llm.Tier]string
	err     error
	calls   []llm.Request
}

func (f *fakeLLM) Complete(_ context.Context, req llm.Request) (string, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return "", f.err
	}
	return f.replies[req.Tier], nil
}

func (f *fakeLLM) Close() error { return nil }

const resumeText = `Ada Lovelace
Senior Software Engineer at Analytical Engines Ltd from 2019 until today, building
compilers, numerical libraries and distributed schedulers for scientific computing teams.
Education: University of London, Bachelor of Science in Mathematics.`

const structured = "<think>let me parse</think>\n```json\n" + `{
  "personal": {"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com"},
  "experience": [{"id": 1, "company": "Analytical Engines", "position": "Engineer", "startDate": "2019-01-01", "current": true, "description": ["Built compilers"]}],
  "education": [{"institution": "University of London", "degree": "BSc", "field": "Mathematics"}],
  "skills": {"technical": ["Go"], "languages": ["English"]}
}` + "\n```"

func buildDOCX(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t xml:space="preserve">` + p + `</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)
	_, err = w.Write([]byte(body.String()))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestSufficient(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "empty", text: "   ", want: false},
		{name: "short", text: "Ada Lovelace engineer", want: false},
		{name: "long but few words", text: strings.Repeat("a", 150), want: false},
		{name: "digits only", text: strings.Repeat("12345 ", 30), want: false},
		{name: "resume", text: resumeText, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sufficient(tt.text))
		})
	}
}

func TestDetectKind(t *testing.T) {
	docx := buildDOCX(t, "hello")
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	tests := []struct {
		name        string
		contentType string
		data        []byte
		want        Kind
		wantErr     bool
	}{
		{name: "pdf by header", contentType: "application/pdf", want: KindPDF},
		{name: "docx by header", contentType: docxContentType, want: KindDOCX},
		{name: "jpeg alias", contentType: "image/jpg", want: KindImage},
		{name: "sniff pdf", data: []byte("%PDF-1.7\n"), want: KindPDF},
		{name: "sniff docx", contentType: "application/octet-stream", data: docx, want: KindDOCX},
		{name: "sniff png", data: png, want: KindImage},
		{name: "text rejected", contentType: "text/plain", wantErr: true},
		{name: "unknown bytes", data: []byte("hello"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectKind(tt.contentType, tt.data)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestImportDOCX(t *testing.T) {
	client := &fakeLLM{replies: map[llm.Tier]string{llm.TierReasoning: structured}}
	im := New(client, nil)
	data := buildDOCX(t, strings.Split(resumeText, "\n")...)

	res, err := im.Import(context.Background(), docxContentType, data)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, MsgProcessed, res.Message)
	require.NotNil(t, res.Document)
	assert.Equal(t, "Ada", res.Document.Personal.FirstName)
	assert.Equal(t, "1", res.Document.Experience[0].ID)
	assert.NotEmpty(t, res.Document.Education[0].ID)

	require.Len(t, client.calls, 1)
	assert.Contains(t, client.calls[0].Prompt, "Analytical Engines Ltd")
}

func TestImportImageUsesOCR(t *testing.T) {
	client := &fakeLLM{replies: map[llm.Tier]string{
		llm.TierOCR:       resumeText,
		llm.TierReasoning: structured,
	}}
	res, err := New(client, nil).Import(context.Background(), "image/png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, client.calls, 2)
	assert.Equal(t, "Free OCR.", client.calls[0].Prompt)
	assert.Equal(t, [][]byte{[]byte("png-bytes")}, client.calls[0].Images)
}

func TestImportInsufficientText(t *testing.T) {
	client := &fakeLLM{replies: map[llm.Tier]string{llm.TierOCR: "Ada Lovelace"}}
	res, err := New(client, nil).Import(context.Background(), "image/jpeg", []byte("jpg"))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.True(t, res.InsufficientText)
	assert.Equal(t, MsgInsufficientHint, res.Suggestion)
	assert.Nil(t, res.Document)
	assert.Len(t, client.calls, 1, "structuring is skipped")
}

func TestImportEmptyText(t *testing.T) {
	_, err := New(&fakeLLM{}, nil).Import(context.Background(), docxContentType, buildDOCX(t))
	var ee *ExtractionError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, MsgNoText, ee.Message)
	assert.Equal(t, MsgNoTextDetails, ee.Details)
}

func TestImportCorruptPDF(t *testing.T) {
	_, err := New(&fakeLLM{}, nil).Import(context.Background(), "application/pdf", []byte("%PDF-garbage"))
	var ee *ExtractionError
	assert.True(t, errors.As(err, &ee))
}

// brokenXrefPDF 的对象表把 2 号对象指向 1 号对象的偏移。
func brokenXrefPDF() []byte {
	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	catalog := b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 3\n0000000000 65535 f \n%010d 00000 n \n%010d 00000 n \n", catalog, catalog)
	fmt.Fprintf(&b, "trailer\n<< /Size 3 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xref)
	return b.Bytes()
}

func TestImportMalformedXrefPDF(t *testing.T) {
	client := &fakeLLM{}
	var err error
	require.NotPanics(t, func() {
		_, err = New(client, nil).Import(context.Background(), "application/pdf", brokenXrefPDF())
	})
	var ee *ExtractionError
	require.True(t, errors.As(err, &ee), "got %v", err)
	assert.Equal(t, MsgExtractHint, ee.Details)
	assert.Contains(t, ee.Error(), "malformed pdf")
	assert.Empty(t, client.calls)
}

func TestStructureFailures(t *testing.T) {
	im := New(&fakeLLM{replies: map[llm.Tier]string{llm.TierReasoning: "I could not find a resume."}}, nil)
	_, err := im.Structure(context.Background(), resumeText)
	assert.ErrorIs(t, err, ErrStructure)

	upstream := errors.New("connection reset")
	im = New(&fakeLLM{err: upstream}, nil)
	_, err = im.Structure(context.Background(), resumeText)
	assert.ErrorIs(t, err, ErrStructure)
	assert.ErrorIs(t, err, upstream)
}
