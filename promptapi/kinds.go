package promptapi

// nodeKind identifies the text-extraction behavior of a node class.  The
// resolver dispatches on kinds rather than raw class_type strings; classes
// without a kind contribute no text.
type nodeKind int

const (
	kindUnknown nodeKind = iota
	kindWildcard
	kindTextEncode
	kindFluxEncode
	kindQwenEncode
	kindPassThrough
	kindMultiConcat
	kindStringConcat
	kindStringLiteral
)

var kindsByClass = map[string]nodeKind{
	"ImpactWildcardProcessor":    kindWildcard,
	"CLIPTextEncode":             kindTextEncode,
	"CLIPTextEncodeLazy":         kindTextEncode,
	"CLIPTextEncodeFlux":         kindFluxEncode,
	"TextEncodeQwenImageEdit":    kindQwenEncode,
	"ConditioningZeroOut":        kindPassThrough,
	"ImpactCombineConditionings": kindMultiConcat,
	"StringConcatenate":          kindStringConcat,
	"String Literal":             kindStringLiteral,
}

func kindOf(n *PromptNode) nodeKind {
	if n == nil {
		return kindUnknown
	}
	return kindsByClass[n.ClassType]
}

// isEncoderKind reports whether a kind encodes prompt text into a
// conditioning signal.  These are the producers the heuristic edge scan
// accepts as prompt sources.
func isEncoderKind(k nodeKind) bool {
	switch k {
	case kindWildcard, kindTextEncode, kindFluxEncode, kindQwenEncode:
		return true
	}
	return false
}

// isFallbackEncoderClass limits the final title-based fallback to the two
// encoder classes that are unambiguous prompt carriers.
func isFallbackEncoderClass(classType string) bool {
	return classType == "CLIPTextEncode" || classType == "CLIPTextEncodeFlux"
}
