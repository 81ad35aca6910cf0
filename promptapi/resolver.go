package promptapi

import (
	"sort"
	"strconv"
	"strings"
)

// Prompts holds the recovered prompt pair.  Sides the graph does not
// resolve are left empty; that is a normal outcome, not an error.
type Prompts struct {
	Positive string
	Negative string
}

// input names that denote the positive/negative conditioning channels of a
// sampler-like node
var positiveInputNames = []string{"positive", "conditioning_positive", "pos"}
var negativeInputNames = []string{"negative", "conditioning_negative", "nag_negative", "neg"}

const maxConcatInputs = 10

// ExtractPrompts walks the graph's producer edges back to the text that fed
// the positive and negative conditioning channels.  Resolution runs in four
// ordered stages; the first stage to produce a node id for a side wins:
//
//  1. match channel-named inputs (positive/negative and their variants)
//  2. heuristic scan of all edges leading out of text-encoder nodes
//  3. recursive text resolution of the chosen nodes
//  4. title-based fallback over plain text-encode nodes
//
// The graph is never mutated and ExtractPrompts never panics past its own
// boundary; a malformed graph degrades to empty strings.
func (g *PromptGraph) ExtractPrompts() (result Prompts) {
	defer func() {
		// degrade to whatever was resolved before the failure
		_ = recover()
	}()

	if g == nil || len(g.Nodes) == 0 {
		return Prompts{}
	}

	posID, negID := g.matchChannelInputs()
	if posID == "" || negID == "" {
		hpos, hneg := g.scanEncoderEdges()
		if posID == "" {
			posID = hpos
		}
		if negID == "" {
			negID = hneg
		}
	}

	if posID != "" {
		result.Positive = g.resolveText(posID, map[string]struct{}{})
	}
	if negID != "" {
		result.Negative = g.resolveText(negID, map[string]struct{}{})
	}

	if result.Positive == "" || result.Negative == "" {
		g.fallbackByTitle(&result, posID, negID)
	}
	return result
}

// matchChannelInputs finds the producer edges wired into channel-named
// inputs.  Nodes exposing both channels outrank nodes exposing one; within
// a rank, the first match in key-insertion order wins.  The two sides are
// resolved independently and may come from different nodes.
func (g *PromptGraph) matchChannelInputs() (posID, negID string) {
	type candidate struct {
		pos *Edge
		neg *Edge
	}
	var both, single []candidate

	for _, id := range g.order {
		n := g.Nodes[id]
		if n == nil || len(n.Inputs) == 0 {
			continue
		}
		var c candidate
		for _, name := range positiveInputNames {
			if v, ok := n.Inputs[name]; ok && v.Edge != nil {
				c.pos = v.Edge
				break
			}
		}
		for _, name := range negativeInputNames {
			if v, ok := n.Inputs[name]; ok && v.Edge != nil {
				c.neg = v.Edge
				break
			}
		}
		switch {
		case c.pos != nil && c.neg != nil:
			both = append(both, c)
		case c.pos != nil || c.neg != nil:
			single = append(single, c)
		}
	}

	for _, c := range append(both, single...) {
		if posID == "" && c.pos != nil {
			posID = c.pos.NodeID
		}
		if negID == "" && c.neg != nil {
			negID = c.neg.NodeID
		}
	}
	return posID, negID
}

// scanEncoderEdges scans every edge-valued input in the graph for producers
// that are text encoders.  An edge whose input name or producer title reads
// negative is assigned to the negative side, anything else to the positive
// side, first match wins.
func (g *PromptGraph) scanEncoderEdges() (posID, negID string) {
	for _, id := range g.order {
		n := g.Nodes[id]
		if n == nil || len(n.Inputs) == 0 {
			continue
		}
		for _, name := range sortedInputNames(n) {
			v := n.Inputs[name]
			if v.Edge == nil {
				continue
			}
			producer := g.Node(v.Edge.NodeID)
			if producer == nil || !isEncoderKind(kindOf(producer)) {
				continue
			}
			if suggestsNegative(name) || suggestsNegative(producer.Title()) {
				if negID == "" {
					negID = v.Edge.NodeID
				}
			} else if posID == "" {
				posID = v.Edge.NodeID
			}
		}
	}
	return posID, negID
}

// resolveText reconstructs the text produced by a node, following producer
// edges recursively.  The visited set is per call; a revisited or missing
// node contributes an empty string rather than an error.
func (g *PromptGraph) resolveText(id string, visited map[string]struct{}) string {
	if _, seen := visited[id]; seen {
		return ""
	}
	n := g.Node(id)
	if n == nil {
		return ""
	}
	visited[id] = struct{}{}

	switch kindOf(n) {
	case kindWildcard:
		if s, ok := n.literalString("populated_text"); ok {
			return s
		}
		if s, ok := n.literalString("wildcard_text"); ok {
			return s
		}
		return ""

	case kindTextEncode:
		return g.textOrEdge(n, visited, "text")

	case kindFluxEncode:
		return g.textOrEdge(n, visited, "clip_l", "t5xxl")

	case kindQwenEncode:
		return g.textOrEdge(n, visited, "prompt")

	case kindPassThrough:
		if v, ok := n.input("conditioning"); ok && v.Edge != nil {
			return g.resolveText(v.Edge.NodeID, visited)
		}
		return ""

	case kindMultiConcat:
		parts := make([]string, 0, maxConcatInputs)
		for i := 1; i <= maxConcatInputs; i++ {
			v, ok := n.input("conditioning" + strconv.Itoa(i))
			if !ok || v.Edge == nil {
				continue
			}
			if s := g.resolveText(v.Edge.NodeID, visited); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n\n")

	case kindStringConcat:
		a := g.stringField(n, "string_a", visited)
		b := g.stringField(n, "string_b", visited)
		delim, _ := n.literalString("delimiter")
		return a + delim + b

	case kindStringLiteral:
		s, _ := n.literalString("string")
		return s
	}

	return ""
}

// textOrEdge returns the node's first present text field in the given
// preference order; a literal is returned as is, a producer edge is
// resolved recursively.
func (g *PromptGraph) textOrEdge(n *PromptNode, visited map[string]struct{}, names ...string) string {
	for _, name := range names {
		v, ok := n.input(name)
		if !ok {
			continue
		}
		if v.Edge != nil {
			return g.resolveText(v.Edge.NodeID, visited)
		}
		if s, ok := v.StringValue(); ok {
			return s
		}
	}
	return ""
}

func (g *PromptGraph) stringField(n *PromptNode, name string, visited map[string]struct{}) string {
	v, ok := n.input(name)
	if !ok {
		return ""
	}
	if v.Edge != nil {
		return g.resolveText(v.Edge.NodeID, visited)
	}
	return literalToString(v.Literal)
}

// fallbackByTitle assigns still-empty sides from bare text-encode nodes.
// A node with a negative-reading title fills the negative side; any other
// encoder fills the positive side unless it was already claimed by an
// earlier stage.
func (g *PromptGraph) fallbackByTitle(result *Prompts, posID, negID string) {
	for _, id := range g.order {
		if result.Positive != "" && result.Negative != "" {
			return
		}
		n := g.Nodes[id]
		if n == nil || !isFallbackEncoderClass(n.ClassType) {
			continue
		}
		if suggestsNegative(n.Title()) {
			if result.Negative == "" {
				result.Negative = g.resolveText(id, map[string]struct{}{})
			}
			continue
		}
		if result.Positive == "" && id != posID && id != negID {
			result.Positive = g.resolveText(id, map[string]struct{}{})
		}
	}
}

func suggestsNegative(s string) bool {
	l := strings.ToLower(s)
	return strings.Contains(l, "negative") || strings.Contains(l, "nag")
}

// Go maps do not preserve insertion order, so input names are visited in
// sorted order to keep the edge scan deterministic.
func sortedInputNames(n *PromptNode) []string {
	names := make([]string, 0, len(n.Inputs))
	for name := range n.Inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
