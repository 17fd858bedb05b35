package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `[1]`, StripCodeFence("```json\n[1]\n```"))
	assert.Equal(t, `[1]`, StripCodeFence("  [1] "))
}

func TestNormalizeAnswer(t *testing.T) {
	tests := map[string]string{
		"Ａ":    "A",
		" b ":  "B",
		"答案：Ｄ": "D",
		"(C)":  "C",
		"":     "#",
		"#":    "#",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeAnswer(in), in)
	}
}

func TestValidateJSONAgainstSchema(t *testing.T) {
	require.NoError(t, ValidateJSONAgainstSchema(AnswersJSONSchema(), []byte(`[{"no":1,"answer":"A"}]`)))
	require.Error(t, ValidateJSONAgainstSchema(AnswersJSONSchema(), []byte(`[{"no":1}]`)))
	require.Error(t, ValidateJSONAgainstSchema(QuestionsJSONSchema(), []byte(`{`)))
}
