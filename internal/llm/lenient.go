package llm

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

var (
	reFence       = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	reAnswerLabel = regexp.MustCompile(`^(答案|答|Answer|ANSWER)\s*[:：]?\s*`)
)

// UnknownAnswer marks an answer the model could not read.
const UnknownAnswer = "#"

// StripCodeFence removes a surrounding markdown code fence, which some
// models add even when asked for JSON.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if m := reFence.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// NormalizeAnswer folds an answer to a single upper-case half-width
// letter. Labels such as "答案：" are dropped; empty input becomes "#".
func NormalizeAnswer(s string) string {
	s = width.Narrow.String(strings.TrimSpace(s))
	s = strings.TrimSpace(reAnswerLabel.ReplaceAllString(s, ""))
	s = strings.Trim(s, "()（）. ")
	if s == "" {
		return UnknownAnswer
	}
	return strings.ToUpper(s)
}
