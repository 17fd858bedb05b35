package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/freeseed/exams-tw/constants"
	"github.com/freeseed/exams-tw/internal/pdfdoc"
)

// numberedDot handles papers that print "12." in front of every question
// and "A." in front of every choice.
type numberedDot struct{}

var (
	dotAnchor  = regexp.MustCompile(`^(\d+)\.`)
	dotHead    = regexp.MustCompile(`(\d+)\.` + ws + `*([^\n]+)`)
	dotNext    = regexp.MustCompile(`\n\d+\.`)
	dotChoice  = regexp.MustCompile(`[A-D]\.` + ws + `*([^\n]+)`)
	dotAnswers = regexp.MustCompile(`[ＡＢＣＤ]`)
)

func (numberedDot) Name() constants.Layout { return constants.LayoutNumberedDot }

func (numberedDot) ComposeImages() bool { return false }

func (numberedDot) Anchors(doc *pdfdoc.Document) *Anchors {
	anchors := NewAnchors()
	for _, p := range doc.Pages {
		for _, w := range p.Words {
			m := dotAnchor.FindStringSubmatch(strings.TrimSpace(w.Text))
			if m == nil {
				continue
			}
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			anchors.Set(n, p.Number, w.Top)
		}
	}
	return anchors
}

// Questions splits on "N." heads. The rest of the head line is the stem;
// the body runs up to the next line that starts with "N.".
func (numberedDot) Questions(text string) []Question {
	var parsed []Question
	pos := 0
	for pos < len(text) {
		loc := dotHead.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		headEnd := pos + loc[1]
		n, err := strconv.Atoi(text[pos+loc[2] : pos+loc[3]])
		stem := text[pos+loc[4] : pos+loc[5]]

		end := len(text)
		if next := dotNext.FindStringIndex(text[headEnd:]); next != nil {
			end = headEnd + next[0]
		}
		body := text[headEnd:end]
		pos = end
		if err != nil {
			continue
		}

		q := Question{Number: n, Text: strings.TrimSpace(stem)}
		for _, m := range dotChoice.FindAllStringSubmatch(body, -1) {
			q.Choices = append(q.Choices, m[1])
		}
		parsed = append(parsed, q)
	}
	return collect(parsed)
}

func (numberedDot) Answers(text string) []int {
	return parseAnswers(dotAnswers, text)
}
