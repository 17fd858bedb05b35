package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/freeseed/exams-tw/internal/llm"
)

type fakeGenerator struct {
	text  string
	err   error
	model string
	cfg   *genai.GenerateContentConfig
	parts int
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.cfg = cfg
	if len(contents) > 0 {
		f.parts = len(contents[0].Parts)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(f.text, genai.RoleModel)}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount: 10, CandidatesTokenCount: 5, TotalTokenCount: 15,
		},
	}, nil
}

func TestReadQuestions(t *testing.T) {
	gen := &fakeGenerator{text: "```json\n[{\"no\":1,\"question\":\"何者正確？\",\"choices\":[\"甲\",\"乙\"]}]\n```"}
	c := NewWithGenerator(Config{APIKey: "k", QuestionModel: "q-model"}, gen, nil)

	got, err := c.ReadQuestions(context.Background(), []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, []llm.QuestionItem{{No: 1, Question: "何者正確？", Choices: []string{"甲", "乙"}}}, got)
	assert.Equal(t, "q-model", gen.model)
	assert.Equal(t, 2, gen.parts)
	assert.Equal(t, "application/json", gen.cfg.ResponseMIMEType)
	require.NotNil(t, gen.cfg.ResponseSchema)
	assert.Equal(t, genai.TypeArray, gen.cfg.ResponseSchema.Type)
}

func TestReadAnswersNormalizes(t *testing.T) {
	gen := &fakeGenerator{text: `[{"no":1,"answer":"Ａ"},{"no":2,"answer":""},{"no":3,"answer":"答案：c"}]`}
	c := NewWithGenerator(Config{APIKey: "k"}, gen, nil)

	got, err := c.ReadAnswers(context.Background(), []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, []llm.AnswerItem{{No: 1, Answer: "A"}, {No: 2, Answer: "#"}, {No: 3, Answer: "C"}}, got)
	assert.Equal(t, "gemini-2.0-flash", gen.model)
}

func TestReadRejectsSchemaMismatch(t *testing.T) {
	gen := &fakeGenerator{text: `[{"no":"one","question":"x","choices":[]}]`}
	c := NewWithGenerator(Config{APIKey: "k"}, gen, nil)
	_, err := c.ReadQuestions(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation failed")
}

func TestReadPropagatesCallError(t *testing.T) {
	boom := errors.New("quota")
	c := NewWithGenerator(Config{APIKey: "k"}, &fakeGenerator{err: boom}, nil)
	_, err := c.ReadAnswers(context.Background(), nil)
	require.ErrorIs(t, err, boom)
}
