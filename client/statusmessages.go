package client

import (
	"encoding/json"
)

// DataOutput identifies an image stored on the ComfyUI server.  The triple
// doubles as the parameter set of the /view endpoint.
type DataOutput struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

// WSStatusMessage is the envelope of the server's websocket status feed.
// The payload type depends on the message type; types this client does not
// consume decode with a nil payload.
type WSStatusMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"-"`
}

func (sm *WSStatusMessage) UnmarshalJSON(b []byte) error {
	// Unmarshal into an anonymous equivalent type to avoid infinite
	// recursion
	var temp struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &temp); err != nil {
		return err
	}

	sm.Type = temp.Type

	switch sm.Type {
	case "status":
		sm.Data = &WSMessageDataStatus{}
	case "executed":
		sm.Data = &WSMessageDataExecuted{}
	default:
		sm.Data = nil
	}

	if sm.Data != nil {
		if err := json.Unmarshal(temp.Data, sm.Data); err != nil {
			return err
		}
	}

	return nil
}

type WSMessageDataStatus struct {
	Status struct {
		ExecInfo struct {
			QueueRemaining int `json:"queue_remaining"`
		} `json:"exec_info"`
	} `json:"status"`
}

/*
{"type": "status", "data": {"status": {"exec_info": {"queue_remaining": 1}}}}
*/

type WSMessageDataExecuted struct {
	Node     string                  `json:"node"`
	Output   map[string][]DataOutput `json:"output"`
	PromptID string                  `json:"prompt_id"`
}

func (mde *WSMessageDataExecuted) UnmarshalJSON(b []byte) error {
	var temp struct {
		Node     string                     `json:"node"`
		Output   map[string]json.RawMessage `json:"output"`
		PromptID string                     `json:"prompt_id"`
	}
	if err := json.Unmarshal(b, &temp); err != nil {
		return err
	}

	mde.Node = temp.Node
	mde.PromptID = temp.PromptID
	mde.Output = make(map[string][]DataOutput)

	// output entries are not always image records; raw text outputs appear
	// as plain strings and are skipped here
	for k, raw := range temp.Output {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			continue
		}
		outputs := make([]DataOutput, 0, len(items))
		for _, item := range items {
			var entry DataOutput
			if err := json.Unmarshal(item, &entry); err != nil || entry.Filename == "" {
				continue
			}
			outputs = append(outputs, entry)
		}
		if len(outputs) != 0 {
			mde.Output[k] = outputs
		}
	}

	return nil
}

/*
{"type": "executed", "data": {"node": "19", "output": {"images": [{"filename": "ComfyUI_00046_.png", "subfolder": "", "type": "output"}]}, "prompt_id": "ed986d60-2a27-4d28-8871-2fdb36582902"}}
*/
