package tasks

import (
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportPDFTaskPayload(t *testing.T) {
	task, err := NewExportPDFTask(42, "dense", "corr-1", asynq.MaxRetry(3))
	require.NoError(t, err)
	assert.Equal(t, TypeExportPDF, task.Type())

	p, err := ParseExportPDFPayload(task)
	require.NoError(t, err)
	assert.Equal(t, ExportPDFPayload{ResumeID: 42, PresetID: "dense", CorrelationID: "corr-1"}, p)
}

func TestParseExportPDFPayloadRejectsBadInput(t *testing.T) {
	_, err := ParseExportPDFPayload(asynq.NewTask(TypeExportPDF, []byte("{")))
	assert.Error(t, err)

	_, err = ParseExportPDFPayload(asynq.NewTask(TypeExportPDF, []byte(`{"correlation_id":"x"}`)))
	assert.Error(t, err)
}
