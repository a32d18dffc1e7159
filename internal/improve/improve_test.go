package improve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitResume/internal/llm"
	"fitResume/internal/resume"
)

type fakeLLM struct {
	reply string
	err   error
	last  llm.Request
}

func (f *fakeLLM) Complete(_ context.Context, req llm.Request) (string, error) {
	f.last = req
	return f.reply, f.err
}

func (f *fakeLLM) Close() error { return nil }

func sampleDoc() *resume.Document {
	doc := resume.New()
	doc.Personal.FirstName = "Ada"
	doc.Personal.Summary = "I like engines."
	doc.Experience[0].ID = "exp-1"
	doc.Experience[0].Company = "Analytical Engines"
	doc.Experience[0].Description = []string{"did stuff"}
	return &doc
}

func TestModes(t *testing.T) {
	assert.Equal(t, ModeGlobal, Request{}.Mode())
	assert.Equal(t, ModeScratch, Request{GenerateFromScratch: true}.Mode())
	assert.Equal(t, ModeTargeted, Request{Section: "experience", GenerateFromScratch: true}.Mode())
}

func TestImproveTargetedBullets(t *testing.T) {
	client := &fakeLLM{reply: "<think>hmm</think>```json\n[\"Designed the difference engine\", \"Cut costs 30%\"]\n```"}
	svc := New(client, nil)
	req := Request{Document: sampleDoc(), Section: "experience", Identifier: "exp-1", Field: "description", Instruction: "make it punchy"}

	res, err := svc.Improve(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"Designed the difference engine", "Cut costs 30%"}, res.Items)
	assert.Equal(t, llm.TierImprove, client.last.Tier)
	assert.InDelta(t, 0.3, client.last.Temperature, 1e-6)
	assert.Contains(t, client.last.Prompt, `Target Part: "experience (ID/Index: exp-1) -> description"`)
	assert.Contains(t, client.last.Prompt, "User Request: make it punchy")

	updated, err := Apply(*req.Document, req, res)
	require.NoError(t, err)
	assert.Equal(t, res.Items, updated.Experience[0].Description)
	assert.Equal(t, []string{"did stuff"}, req.Document.Experience[0].Description, "input untouched")
}

func TestImproveTargetedText(t *testing.T) {
	svc := New(&fakeLLM{reply: "Engineer who ships analytical engines."}, nil)
	req := Request{Document: sampleDoc(), Section: "personal", Field: "summary"}
	res, err := svc.Improve(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Engineer who ships analytical engines.", res.Text)

	updated, err := Apply(*req.Document, req, res)
	require.NoError(t, err)
	assert.Equal(t, res.Text, updated.Personal.Summary)
}

func TestImproveGlobal(t *testing.T) {
	client := &fakeLLM{reply: `Here you go: {"personal":{"firstName":"Ada","summary":"Better."},"experience":[{"id":"exp-1","company":"AE","description":["Led"]}],"education":[],"skills":{"technical":["Go"],"languages":[]}}`}
	res, err := New(client, nil).Improve(context.Background(), Request{Document: sampleDoc(), JobDescription: "Go engineer"})
	require.NoError(t, err)
	require.NotNil(t, res.Document)
	assert.Equal(t, "Better.", res.Document.Personal.Summary)
	assert.Equal(t, "exp-1", res.Document.Experience[0].ID)
	assert.Contains(t, client.last.Prompt, "Job Description:\nGo engineer")

	updated, err := Apply(*sampleDoc(), Request{}, res)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, updated.Skills.Technical)
}

func TestImproveScratchWithoutDocument(t *testing.T) {
	client := &fakeLLM{reply: `{"personal":{"firstName":"Grace"},"experience":[],"education":[],"skills":{}}`}
	res, err := New(client, nil).Improve(context.Background(), Request{GenerateFromScratch: true, JobDescription: "Grace Hopper, COBOL"})
	require.NoError(t, err)
	assert.Equal(t, "Grace", res.Document.Personal.FirstName)
	assert.Contains(t, client.last.Prompt, "Information provided:\nGrace Hopper, COBOL")
}

func TestImproveErrors(t *testing.T) {
	_, err := New(&fakeLLM{}, nil).Improve(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrDocumentRequired)

	_, err = New(&fakeLLM{err: errors.New("timeout")}, nil).Improve(context.Background(), Request{Document: sampleDoc()})
	var se *ServiceError
	require.True(t, errors.As(err, &se))
	assert.True(t, se.Retryable())

	_, err = New(&fakeLLM{reply: "no json here"}, nil).Improve(context.Background(), Request{Document: sampleDoc()})
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Failed to parse AI response", se.Message)
}

func TestImproveTargetedEmptyReply(t *testing.T) {
	for _, reply := range []string{"", "  \n ", `""`, `[]`, `["", " "]`, "<think>hmm</think>"} {
		doc := sampleDoc()
		_, err := New(&fakeLLM{reply: reply}, nil).Improve(context.Background(), Request{Document: doc, Section: "personal", Field: "summary"})
		var se *ServiceError
		require.True(t, errors.As(err, &se), "reply %q", reply)
		assert.Equal(t, "Empty AI response", se.Message)
		assert.True(t, se.Retryable())
		assert.Equal(t, "I like engines.", doc.Personal.Summary)
	}
}

func TestApplyTargets(t *testing.T) {
	doc := *sampleDoc()
	_, err := Apply(doc, Request{Section: "experience", Identifier: "9", Field: "company"}, Result{Text: "X"})
	assert.ErrorIs(t, err, resume.ErrIndexOutOfRange)

	out, err := Apply(doc, Request{Section: "experience", Identifier: "0", Field: "company"}, Result{Text: "Babbage & Co"})
	require.NoError(t, err)
	assert.Equal(t, "Babbage & Co", out.Experience[0].Company)

	out, err = Apply(doc, Request{Section: "skills", Field: "technical"}, Result{Text: "- Go\n- SQL\n"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "SQL"}, out.Skills.Technical)

	_, err = Apply(doc, Request{Section: "hobbies"}, Result{Text: "x"})
	assert.ErrorIs(t, err, ErrUnknownTarget)
}
