package extract

import (
	"regexp"

	"golang.org/x/text/width"
)

const unknownAnswerMark = "＃"

// parseAnswers collects every answer symbol in text, in order, and maps
// it to a 1-based choice index.
func parseAnswers(symbols *regexp.Regexp, text string) []int {
	found := symbols.FindAllString(text, -1)
	if len(found) > 0 && found[0] == unknownAnswerMark {
		found = found[1:]
	}
	out := make([]int, len(found))
	for i, s := range found {
		out[i] = AnswerIndex(s)
	}
	return out
}

// AnswerIndex maps A..D, full or half width, to 1..4. Anything else,
// including "＃" for a disputed question, is 0.
func AnswerIndex(symbol string) int {
	switch width.Narrow.String(symbol) {
	case "A":
		return 1
	case "B":
		return 2
	case "C":
		return 3
	case "D":
		return 4
	}
	return 0
}

// AnswerLetter is the inverse of AnswerIndex; 0 yields "".
func AnswerLetter(index int) string {
	if index < 1 || index > 4 {
		return ""
	}
	return string(rune('A' + index - 1))
}
