package promptapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Edge references the output slot of a producer node within a PromptGraph.
type Edge struct {
	NodeID string
	Slot   int
}

// InputValue is one entry in a node's inputs mapping.  ComfyUI serializes an
// input as either a literal scalar or a 2-element array where:
//
//	[0] is the id of the producer node (string, or number in older exports)
//	[1] is the producer's output slot index
//
// Exactly one of Literal and Edge is populated.
type InputValue struct {
	Literal interface{}
	Edge    *Edge
}

func (v *InputValue) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '[' {
		var arr []interface{}
		if err := json.Unmarshal(b, &arr); err != nil {
			return err
		}
		if len(arr) == 2 {
			id, idok := edgeNodeID(arr[0])
			slot, slotok := arr[1].(float64)
			if idok && slotok {
				v.Edge = &Edge{NodeID: id, Slot: int(slot)}
				return nil
			}
		}
		v.Literal = arr
		return nil
	}

	var lit interface{}
	if err := json.Unmarshal(b, &lit); err != nil {
		return err
	}
	v.Literal = lit
	return nil
}

// it seems some exporters write edge node ids as numbers rather than strings,
// so both are accepted and normalized to strings
func edgeNodeID(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	}
	return "", false
}

func (v InputValue) MarshalJSON() ([]byte, error) {
	if v.Edge != nil {
		return json.Marshal([]interface{}{v.Edge.NodeID, v.Edge.Slot})
	}
	return json.Marshal(v.Literal)
}

// IsEdge returns true if the input is a connection to a producer node.
func (v InputValue) IsEdge() bool {
	return v.Edge != nil
}

// StringValue returns the input's literal string value, if it has one.
func (v InputValue) StringValue() (string, bool) {
	if v.Edge != nil {
		return "", false
	}
	s, ok := v.Literal.(string)
	return s, ok
}

type NodeMeta struct {
	Title string `json:"title"`
}

// PromptNode is a single node of the API-format workflow that ComfyUI stores
// in the "prompt" metadata entry of the PNG files it renders.
type PromptNode struct {
	ClassType string                `json:"class_type"`
	Inputs    map[string]InputValue `json:"inputs"`
	Meta      *NodeMeta             `json:"_meta,omitempty"`
}

// Title returns the node's free-text label, or "" if it has none.
func (n *PromptNode) Title() string {
	if n.Meta == nil {
		return ""
	}
	return n.Meta.Title
}

func (n *PromptNode) input(name string) (InputValue, bool) {
	if n.Inputs == nil {
		var zero InputValue
		return zero, false
	}
	v, ok := n.Inputs[name]
	return v, ok
}

// literalString returns the named input as a string when it carries a
// literal scalar.  Connected inputs report not-ok.
func (n *PromptNode) literalString(name string) (string, bool) {
	v, ok := n.input(name)
	if !ok || v.Edge != nil {
		return "", false
	}
	return literalToString(v.Literal), true
}

func literalToString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// PromptGraph is a mapping of node id to PromptNode.  The insertion order of
// the decoded JSON object is preserved; scans over the graph visit nodes in
// that order, which is the only documented tie-break when several nodes
// could claim the same prompt channel.
type PromptGraph struct {
	Nodes map[string]*PromptNode

	order []string
}

func (g *PromptGraph) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("prompt graph is not a JSON object")
	}

	g.Nodes = make(map[string]*PromptNode)
	g.order = g.order[:0]

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("prompt graph has a non-string node id")
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}

		node := &PromptNode{}
		if err := json.Unmarshal(raw, node); err != nil {
			// entries that are not node objects carry no prompt data
			continue
		}
		if _, seen := g.Nodes[key]; !seen {
			g.order = append(g.order, key)
		}
		g.Nodes[key] = node
	}

	// consume the closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

func (g *PromptGraph) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range g.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		node, err := json.Marshal(g.Nodes[id])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(node)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Node returns the node with the given id, or nil.
func (g *PromptGraph) Node(id string) *PromptNode {
	val, ok := g.Nodes[id]
	if ok {
		return val
	}
	return nil
}

// NodeIDs returns the node ids in the insertion order of the decoded JSON.
func (g *PromptGraph) NodeIDs() []string {
	retv := make([]string, len(g.order))
	copy(retv, g.order)
	return retv
}

// RepairJSON rewrites the bare NaN literals that some custom nodes leave in
// their serialized inputs.  encoding/json rejects NaN, so the occurrences
// are replaced with null before decoding.
func RepairJSON(data []byte) []byte {
	return bytes.ReplaceAll(data, []byte(": NaN"), []byte(": null"))
}

// NewPromptGraphFromJSON repairs and decodes the value of the "prompt"
// metadata entry of a ComfyUI generated PNG.
func NewPromptGraphFromJSON(data []byte) (*PromptGraph, error) {
	graph := &PromptGraph{}
	if err := json.Unmarshal(RepairJSON(data), graph); err != nil {
		return nil, err
	}
	return graph, nil
}
