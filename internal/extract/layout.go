// Package extract turns exam PDFs into 題庫 entries with layout-specific
// heuristics. Each layout is tuned to one family of historical papers.
package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/freeseed/exams-tw/constants"
	"github.com/freeseed/exams-tw/internal/common"
	"github.com/freeseed/exams-tw/internal/pdfdoc"
)

// Question is one parsed question before answers and images are merged in.
type Question struct {
	Number  int
	Text    string
	Choices []string
	Images  []string
}

// Layout is a question-paper heuristic: where the question numbers sit,
// how the text splits into questions and which answer symbols count.
type Layout interface {
	Name() constants.Layout
	Anchors(doc *pdfdoc.Document) *Anchors
	Questions(text string) []Question
	Answers(text string) []int
	// ComposeImages reports whether image strips are stacked into one
	// picture per column instead of saved one by one.
	ComposeImages() bool
}

// ForName returns the layout registered under name.
func ForName(name constants.Layout) (Layout, error) {
	switch name {
	case constants.LayoutNumberedDot:
		return numberedDot{}, nil
	case constants.LayoutPUASpaced:
		return puaSpaced{}, nil
	case constants.LayoutPUAInline:
		return puaInline{}, nil
	}
	return nil, fmt.Errorf("layout %q: %w", name, common.ErrUnsupportedLayout)
}

// Choice labels used by the PUA layouts for Ⓐ..Ⓓ.
const (
	puaA = '\ue18c'
	puaB = '\ue18d'
	puaC = '\ue18e'
	puaD = '\ue18f'
)

func isPUAMarker(r rune) bool { return r >= puaA && r <= puaD }

// ws is a whitespace class that also covers the ideographic space.
const ws = `[\s\x{3000}]`

// pageText joins page texts the way the heuristics expect: every page is
// followed by a newline.
func pageText(doc *pdfdoc.Document) string {
	var b strings.Builder
	for _, p := range doc.Pages {
		b.WriteString(p.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

// collect keeps the last parse of every number, drops empty questions and
// orders the rest numerically.
func collect(parsed []Question) []Question {
	byNumber := map[int]int{}
	var out []Question
	for _, q := range parsed {
		if i, ok := byNumber[q.Number]; ok {
			out[i] = q
			continue
		}
		byNumber[q.Number] = len(out)
		out = append(out, q)
	}
	kept := out[:0]
	for _, q := range out {
		if q.Text != "" {
			kept = append(kept, q)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Number < kept[j].Number })
	return kept
}

// splitChoices cuts a choice block at every PUA label. Text before the
// first label is ignored.
func splitChoices(block string, dropNewlines bool) []string {
	var choices []string
	var cur *strings.Builder
	flush := func() {
		if cur == nil {
			return
		}
		c := strings.TrimSpace(cur.String())
		if dropNewlines {
			c = strings.ReplaceAll(c, "\n", "")
		}
		choices = append(choices, c)
	}
	for _, r := range block {
		if isPUAMarker(r) {
			flush()
			cur = &strings.Builder{}
			continue
		}
		if cur != nil {
			cur.WriteRune(r)
		}
	}
	flush()
	return choices
}

// sequentialAnchors records bare-integer words as anchors, ignoring
// everything until a "1" and then anything that does not continue the
// count.
func sequentialAnchors(doc *pdfdoc.Document) *Anchors {
	anchors := NewAnchors()
	last := 0
	for _, p := range doc.Pages {
		for _, w := range p.Words {
			text := strings.TrimSpace(w.Text)
			if !bareNumber.MatchString(text) {
				continue
			}
			n, err := strconv.Atoi(text)
			if err != nil || n != last+1 {
				continue
			}
			last = n
			anchors.Set(n, p.Number, w.Top)
		}
	}
	return anchors
}

var bareNumber = regexp.MustCompile(`^\d+$`)

// lineBreakFix rewrites "\n<a>\n<b>" as "\n<b>". It drops stray numbers the
// text extractor emits on their own line in front of a question number or
// a choice label.
type lineBreakFix struct {
	re *regexp.Regexp
}

func newLineBreakFix(first, second string) lineBreakFix {
	return lineBreakFix{re: regexp.MustCompile(`\n(` + first + `)\n(` + second + `)`)}
}

func (f lineBreakFix) apply(s string) string {
	return f.re.ReplaceAllString(s, "\n${2}")
}
