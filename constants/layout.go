package constants

import "strings"

// Layout names a question-paper layout heuristic.
type Layout string

const (
	LayoutNumberedDot Layout = "numbered-dot"
	LayoutPUASpaced   Layout = "pua-spaced"
	LayoutPUAInline   Layout = "pua-inline"
)

var allLayouts = []Layout{
	LayoutNumberedDot,
	LayoutPUASpaced,
	LayoutPUAInline,
}

func LayoutNames() []string {
	result := make([]string, len(allLayouts))
	for i, l := range allLayouts {
		result[i] = string(l)
	}
	return result
}

// Canonicalize maps a layout name or one of its historical aliases to a Layout.
func Canonicalize(input string) (Layout, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}

	synonyms := map[string]Layout{
		"type01":   LayoutNumberedDot,
		"numbered": LayoutNumberedDot,
		"type05":   LayoutPUASpaced,
		"spaced":   LayoutPUASpaced,
		"type02":   LayoutPUAInline,
		"inline":   LayoutPUAInline,
	}
	if l, ok := synonyms[normalized]; ok {
		return l, true
	}

	for _, l := range allLayouts {
		if normalized == string(l) {
			return l, true
		}
	}
	return "", false
}
