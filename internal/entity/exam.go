package entity

// Exam is one exam paper record as stored in question_json/ and in MongoDB.
// Field order is the on-disk key order.
type Exam struct {
	ID            string     `json:"id" bson:"id"`
	Year          string     `json:"考試年度" bson:"考試年度"`
	ExamCode      string     `json:"考試代碼" bson:"考試代碼"`
	ExamName      string     `json:"考試名稱" bson:"考試名稱"`
	LevelCode     string     `json:"等級代碼" bson:"等級代碼"`
	LevelCategory string     `json:"等級分類" bson:"等級分類"`
	ExamLevel     string     `json:"考試及等別" bson:"考試及等別"`
	CategoryCode  string     `json:"類科代碼" bson:"類科代碼"`
	CategoryName  string     `json:"類科組別" bson:"類科組別"`
	Session       string     `json:"節次" bson:"節次"`
	Subject       string     `json:"科目全名" bson:"科目全名"`
	PaperType     string     `json:"試題型態" bson:"試題型態"`
	QuestionURL   string     `json:"試題網址" bson:"試題網址"`
	QuestionFile  *string    `json:"試題檔案" bson:"試題檔案"`
	AnswerURL     string     `json:"測驗式試題答案網址" bson:"測驗式試題答案網址"`
	AnswerFile    *string    `json:"測驗式試題答案檔案" bson:"測驗式試題答案檔案"`
	Note          string     `json:"備註" bson:"備註"`
	Questions     []Question `json:"題庫" bson:"題庫"`
	Parsed        bool       `json:"parsed,omitempty" bson:"parsed,omitempty"`
}

// Question is one element of 題庫. Answer is the 1-based choice index, 0 when unknown.
type Question struct {
	Question string   `json:"question" bson:"question"`
	Images   []string `json:"images" bson:"images"`
	Choices  []string `json:"choices" bson:"choices"`
	Answer   int      `json:"answer" bson:"answer"`
}

// Normalize replaces nil slices with empty ones so they encode as [] rather than null.
func (e *Exam) Normalize() {
	if e.Questions == nil {
		e.Questions = []Question{}
	}
	for i := range e.Questions {
		if e.Questions[i].Images == nil {
			e.Questions[i].Images = []string{}
		}
		if e.Questions[i].Choices == nil {
			e.Questions[i].Choices = []string{}
		}
	}
}

// QuestionFileName returns the question PDF name or "".
func (e *Exam) QuestionFileName() string {
	if e.QuestionFile == nil {
		return ""
	}
	return *e.QuestionFile
}

// AnswerFileName returns the answer PDF name or "".
func (e *Exam) AnswerFileName() string {
	if e.AnswerFile == nil {
		return ""
	}
	return *e.AnswerFile
}

// ImageCount is the number of image references across 題庫.
func (e *Exam) ImageCount() int {
	n := 0
	for _, q := range e.Questions {
		n += len(q.Images)
	}
	return n
}
