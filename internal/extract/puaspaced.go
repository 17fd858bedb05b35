package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/freeseed/exams-tw/constants"
	"github.com/freeseed/exams-tw/internal/pdfdoc"
)

// puaSpaced handles papers where the question number stands alone before
// the stem and every choice starts on its own line with a PUA label.
type puaSpaced struct{}

const choiceBlockStart = "\n" + string(puaA)

var (
	spacedFixes = []lineBreakFix{
		newLineBreakFix(`\d+`, `\d+`),
		newLineBreakFix(`\d+`+ws+`+\d+`, `\d+`),
	}
	spacedHeader  = regexp.MustCompile(`代號：[^\n]+\n[^\n]+\n頁次：[^\n]+\n?`)
	spacedHead    = regexp.MustCompile(`\n(\d{1,2})` + ws)
	spacedNext    = regexp.MustCompile(`\n\d+` + ws)
	choiceAnswers = regexp.MustCompile(`[ABCDEＡＢＣＤＥ]`)
)

func (puaSpaced) Name() constants.Layout { return constants.LayoutPUASpaced }

func (puaSpaced) ComposeImages() bool { return true }

func (puaSpaced) Anchors(doc *pdfdoc.Document) *Anchors {
	return sequentialAnchors(doc)
}

func (puaSpaced) clean(text string) string {
	for _, f := range spacedFixes {
		text = f.apply(text)
	}
	return spacedHeader.ReplaceAllString(text, "")
}

// Questions finds "\nN stem\n<Ⓐ>..." blocks. The choice block ends where the
// next line starts with a number, or at the end of the text.
func (l puaSpaced) Questions(text string) []Question {
	text = l.clean(text)
	var parsed []Question
	pos := 0
	for {
		loc := spacedHead.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		start := pos + loc[0]
		stemStart := pos + loc[1]
		number := text[pos+loc[2] : pos+loc[3]]

		block := -1
		if stemStart < len(text) {
			_, size := utf8.DecodeRuneInString(text[stemStart:])
			if i := strings.Index(text[stemStart+size:], choiceBlockStart); i >= 0 {
				block = stemStart + size + i
			}
		}
		afterMarker := block + len(choiceBlockStart)
		if block < 0 || afterMarker >= len(text) {
			pos = start + 1
			continue
		}
		_, size := utf8.DecodeRuneInString(text[afterMarker:])
		minEnd := afterMarker + size
		end := len(text)
		if next := spacedNext.FindStringIndex(text[minEnd:]); next != nil {
			end = minEnd + next[0]
		}
		pos = end

		n, err := strconv.Atoi(number)
		if err != nil {
			continue
		}
		stem := strings.ReplaceAll(text[stemStart:block], "\n", "")
		parsed = append(parsed, Question{
			Number:  n,
			Text:    strings.TrimSpace(stem),
			Choices: splitChoices(text[block:end], true),
		})
	}
	return collect(parsed)
}

func (puaSpaced) Answers(text string) []int {
	return parseAnswers(choiceAnswers, text)
}
