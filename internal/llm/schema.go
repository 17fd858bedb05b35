package llm

// QuestionsJSONSchema describes the array returned for a question paper.
func QuestionsJSONSchema() map[string]any {
	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "array",
		"items": map[string]any{
			"type":     "object",
			"required": []any{"no", "question", "choices"},
			"properties": map[string]any{
				"no":       map[string]any{"type": "integer"},
				"question": map[string]any{"type": "string"},
				"choices": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
			},
		},
	}
}

// AnswersJSONSchema describes the array returned for an answer sheet.
func AnswersJSONSchema() map[string]any {
	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "array",
		"items": map[string]any{
			"type":     "object",
			"required": []any{"no", "answer"},
			"properties": map[string]any{
				"no":     map[string]any{"type": "integer"},
				"answer": map[string]any{"type": "string"},
			},
		},
	}
}
