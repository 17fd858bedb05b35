package llm

// QuestionPrompt asks for the question paper in MMLU shape.
const QuestionPrompt = "Please recognize the content of the file and extract the content of the file, " +
	"then recompose the content into json format, the format should match MMLU Dataset format."

// AnswerPrompt asks for the answer key only.
const AnswerPrompt = "Please recognize the content of the file and extract the answers of the file, " +
	"then recompose the content into json format.\n" +
	"Rules:\n" +
	"1. Only output the question number and the answer.\n" +
	"2. If the answer of a question cannot be recognized, put # as the answer."
