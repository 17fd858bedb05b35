package llm

import "context"

// QuestionItem is one question as the model returns it.
type QuestionItem struct {
	No       int      `json:"no"`
	Question string   `json:"question"`
	Choices  []string `json:"choices"`
}

// AnswerItem is one answer key entry. Answer is "#" when the model could
// not read it.
type AnswerItem struct {
	No     int    `json:"no"`
	Answer string `json:"answer"`
}

// Usage is the token accounting reported for one call.
type Usage struct {
	Prompt     int32
	Candidates int32
	Total      int32
}

// PaperReader turns a question paper or an answer sheet PDF into
// structured items. The pipeline depends on this, not on a provider.
type PaperReader interface {
	ReadQuestions(ctx context.Context, pdf []byte) ([]QuestionItem, error)
	ReadAnswers(ctx context.Context, pdf []byte) ([]AnswerItem, error)
}
