package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/freeseed/exams-tw/constants"
	"github.com/freeseed/exams-tw/internal/pdfdoc"
)

// puaInline handles papers where the stem follows the number on the same
// line and the PUA-labelled choices may share lines.
type puaInline struct{}

const puaClass = `[\x{e18c}-\x{e18f}]`

var (
	inlineFixes = []lineBreakFix{
		newLineBreakFix(`\d+`, puaClass),
		newLineBreakFix(`\d+`, `\d+`),
		newLineBreakFix(`\d+`+ws+`+\d+`, puaClass),
		newLineBreakFix(`\d+`+ws+`+\d+`, `\d+`),
	}
	inlineHeader = regexp.MustCompile(`代號：[^\n]+\n頁次：[^\n]+\n?`)
	inlineHead   = regexp.MustCompile(`^` + ws + `*(\d+)` + ws + `+`)
	inlineNext   = regexp.MustCompile(`^` + ws + `*\d+` + ws)
)

func (puaInline) Name() constants.Layout { return constants.LayoutPUAInline }

func (puaInline) ComposeImages() bool { return true }

func (puaInline) Anchors(doc *pdfdoc.Document) *Anchors {
	return sequentialAnchors(doc)
}

func (puaInline) clean(text string) string {
	for _, f := range inlineFixes {
		text = f.apply(text)
	}
	return inlineHeader.ReplaceAllString(text, "")
}

// Questions reads a question from every line that starts with a number.
// The stem runs up to the first choice label line and the choices run up
// to the next line that starts with a number.
func (l puaInline) Questions(text string) []Question {
	text = l.clean(text)
	var parsed []Question
	p := 0
	for p < len(text) {
		q, end, ok := inlineQuestion(text, p)
		if ok {
			parsed = append(parsed, q)
			p = end
			continue
		}
		i := strings.IndexByte(text[p:], '\n')
		if i < 0 {
			break
		}
		p += i + 1
	}
	return collect(parsed)
}

// inlineQuestion parses a question whose head starts at line start p and
// returns the offset where the next question may start.
func inlineQuestion(text string, p int) (Question, int, bool) {
	loc := inlineHead.FindStringSubmatchIndex(text[p:])
	if loc == nil {
		return Question{}, 0, false
	}
	headEnd := p + loc[1]
	block := strings.Index(text[headEnd:], choiceBlockStart)
	if block < 0 {
		return Question{}, 0, false
	}
	block += headEnd
	n, err := strconv.Atoi(text[p+loc[2] : p+loc[3]])
	if err != nil {
		return Question{}, 0, false
	}

	choicesStart := block + 1
	end := len(text)
	for ls := choicesStart; ls < len(text); {
		i := strings.IndexByte(text[ls:], '\n')
		if i < 0 {
			break
		}
		ls += i + 1
		if inlineNext.MatchString(text[ls:]) {
			end = ls
			break
		}
	}

	return Question{
		Number:  n,
		Text:    strings.TrimSpace(text[headEnd:block]),
		Choices: splitChoices(text[choicesStart:end], false),
	}, end, true
}

func (puaInline) Answers(text string) []int {
	return parseAnswers(choiceAnswers, text)
}
