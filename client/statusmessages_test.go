package client

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusMessageDecoding(t *testing.T) {
	var msg WSStatusMessage
	err := json.Unmarshal([]byte(`{"type": "status", "data": {"status": {"exec_info": {"queue_remaining": 3}}}}`), &msg)
	require.NoError(t, err)

	require.Equal(t, "status", msg.Type)
	data, ok := msg.Data.(*WSMessageDataStatus)
	require.True(t, ok)
	assert.Equal(t, 3, data.Status.ExecInfo.QueueRemaining)
}

func TestExecutedMessageDecoding(t *testing.T) {
	raw := `{"type": "executed", "data": {
		"node": "19",
		"output": {
			"images": [{"filename": "ComfyUI_00046_.png", "subfolder": "", "type": "output"}],
			"text": ["raw text output"]
		},
		"prompt_id": "ed986d60-2a27-4d28-8871-2fdb36582902"
	}}`

	var msg WSStatusMessage
	err := json.Unmarshal([]byte(raw), &msg)
	require.NoError(t, err)

	data, ok := msg.Data.(*WSMessageDataExecuted)
	require.True(t, ok)
	assert.Equal(t, "19", data.Node)
	assert.Equal(t, "ed986d60-2a27-4d28-8871-2fdb36582902", data.PromptID)

	// only image records survive; raw text outputs are dropped
	require.Len(t, data.Output, 1)
	require.Len(t, data.Output["images"], 1)
	assert.Equal(t, "ComfyUI_00046_.png", data.Output["images"][0].Filename)
	assert.Equal(t, "output", data.Output["images"][0].Type)
}

func TestUnknownMessageTypeDecodesWithNilPayload(t *testing.T) {
	var msg WSStatusMessage
	err := json.Unmarshal([]byte(`{"type": "crystools.monitor", "data": {"cpu": 12}}`), &msg)
	require.NoError(t, err)
	assert.Nil(t, msg.Data)
}
