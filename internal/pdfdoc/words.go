package pdfdoc

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/width"
)

const (
	// glyphs closer than this join into one word
	xTolerance = 3.0
	// words whose tops differ by less than this share a line
	yTolerance = 3.0
)

// advance estimates a glyph's width when the font carries no metrics,
// which is common for CID fonts: wide CJK runes take a full em.
func advance(t pdf.Text) float64 {
	if t.W > 0 {
		return t.W
	}
	r := []rune(t.S)
	if len(r) == 0 {
		return 0
	}
	switch width.LookupRune(r[0]).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return t.FontSize
	}
	return t.FontSize / 2
}

// groupWords merges glyphs into words. pageTop is the y of the page's top
// edge in user space; originX the x of its left edge.
func groupWords(glyphs []pdf.Text, originX, pageTop float64) []Word {
	var (
		words []Word
		cur   strings.Builder
		w     Word
		prev  pdf.Text
		open  bool
	)
	flush := func() {
		if open && cur.Len() > 0 {
			w.Text = cur.String()
			words = append(words, w)
		}
		cur.Reset()
		open = false
	}

	for _, g := range glyphs {
		if strings.TrimFunc(g.S, unicode.IsSpace) == "" {
			flush()
			continue
		}
		if open {
			sameLine := math.Abs(g.Y-prev.Y) <= 0.5
			gap := g.X - (prev.X + advance(prev))
			if !sameLine || gap > xTolerance || gap < -math.Max(prev.FontSize, 1) {
				flush()
			}
		}
		x0 := g.X - originX
		x1 := x0 + advance(g)
		top := pageTop - (g.Y + g.FontSize)
		bottom := pageTop - g.Y
		if !open {
			w = Word{X0: x0, X1: x1, Top: top, Bottom: bottom}
			open = true
		} else {
			w.X0 = math.Min(w.X0, x0)
			w.X1 = math.Max(w.X1, x1)
			w.Top = math.Min(w.Top, top)
			w.Bottom = math.Max(w.Bottom, bottom)
		}
		cur.WriteString(g.S)
		prev = g
	}
	flush()
	return words
}

// linesText clusters words into lines by top, orders lines top-down and
// words left to right, and joins them with spaces and newlines.
func linesText(words []Word) string {
	if len(words) == 0 {
		return ""
	}
	sorted := make([]Word, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Top < sorted[j].Top })

	var lines [][]Word
	lineTop := math.Inf(-1)
	for _, w := range sorted {
		if len(lines) == 0 || w.Top-lineTop > yTolerance {
			lines = append(lines, nil)
			lineTop = w.Top
		}
		lines[len(lines)-1] = append(lines[len(lines)-1], w)
	}

	out := make([]string, len(lines))
	for i, line := range lines {
		sort.SliceStable(line, func(a, b int) bool { return line[a].X0 < line[b].X0 })
		parts := make([]string, len(line))
		for j, w := range line {
			parts[j] = w.Text
		}
		out[i] = strings.Join(parts, " ")
	}
	return strings.Join(out, "\n")
}
