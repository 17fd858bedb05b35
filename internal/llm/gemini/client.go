package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/freeseed/exams-tw/internal/llm"
)

const pdfMIME = "application/pdf"

var _ llm.PaperReader = (*Client)(nil)

// ReadQuestions implements llm.PaperReader for a question paper.
func (c *Client) ReadQuestions(ctx context.Context, pdf []byte) ([]llm.QuestionItem, error) {
	var out []llm.QuestionItem
	err := c.generate(ctx, "questions", c.cfg.QuestionModel, pdf, llm.QuestionPrompt,
		questionSchema(), llm.QuestionsJSONSchema(), &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadAnswers implements llm.PaperReader for an answer sheet.
func (c *Client) ReadAnswers(ctx context.Context, pdf []byte) ([]llm.AnswerItem, error) {
	var out []llm.AnswerItem
	err := c.generate(ctx, "answers", c.cfg.AnswerModel, pdf, llm.AnswerPrompt,
		answerSchema(), llm.AnswersJSONSchema(), &out)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Answer = llm.NormalizeAnswer(out[i].Answer)
	}
	return out, nil
}

func (c *Client) generate(ctx context.Context, kind, model string, pdf []byte, prompt string,
	responseSchema *genai.Schema, validate map[string]any, out any) error {
	rid := uuid.New().String()
	start := time.Now()
	log := c.log.With("req_id", rid, "kind", kind, "model", model)
	log.Info("llm.resolve.start", "pdf_bytes", len(pdf), "temp", c.cfg.Temperature)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	contents := []*genai.Content{genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromBytes(pdf, pdfMIME),
		genai.NewPartFromText(prompt),
	}, genai.RoleUser)}
	temp := c.cfg.Temperature
	resp, err := c.gen.GenerateContent(ctx, model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema,
		Temperature:      &temp,
	})
	if err != nil {
		log.Error("llm.resolve.call_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return fmt.Errorf("generate %s: %w", kind, err)
	}
	if resp == nil {
		return fmt.Errorf("generate %s: empty response", kind)
	}

	u := usage(resp)
	log.Info("llm.resolve.usage", "prompt_tokens", u.Prompt, "candidate_tokens", u.Candidates, "total_tokens", u.Total)

	content := []byte(llm.StripCodeFence(resp.Text()))
	if len(content) == 0 {
		log.Error("llm.resolve.empty", "elapsed_ms", time.Since(start).Milliseconds())
		return fmt.Errorf("generate %s: no text in response", kind)
	}
	if err := llm.ValidateJSONAgainstSchema(validate, content); err != nil {
		log.Error("llm.resolve.schema_validation_failed", "error", err, "content", string(content),
			"elapsed_ms", time.Since(start).Milliseconds())
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if err := json.Unmarshal(content, out); err != nil {
		log.Error("llm.resolve.unmarshal_failed", "error", err)
		return fmt.Errorf("unmarshal %s: %w", kind, err)
	}
	log.Info("llm.resolve.ok", "bytes", len(content), "elapsed_ms", time.Since(start).Milliseconds())
	return nil
}

func usage(resp *genai.GenerateContentResponse) llm.Usage {
	if resp.UsageMetadata == nil {
		return llm.Usage{}
	}
	return llm.Usage{
		Prompt:     resp.UsageMetadata.PromptTokenCount,
		Candidates: resp.UsageMetadata.CandidatesTokenCount,
		Total:      resp.UsageMetadata.TotalTokenCount,
	}
}

func questionSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"no":       {Type: genai.TypeInteger},
				"question": {Type: genai.TypeString},
				"choices":  {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			},
			Required:         []string{"no", "question", "choices"},
			PropertyOrdering: []string{"no", "question", "choices"},
		},
	}
}

func answerSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"no":     {Type: genai.TypeInteger},
				"answer": {Type: genai.TypeString},
			},
			Required:         []string{"no", "answer"},
			PropertyOrdering: []string{"no", "answer"},
		},
	}
}
