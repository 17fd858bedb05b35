package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/freeseed/exams-tw/constants"
	"github.com/freeseed/exams-tw/internal/entity"
)

// Columns is the number of fields in every catalog row.
const Columns = 14

// Row is one line of the exam catalog CSV.
type Row struct {
	Year          string
	ExamCode      string
	ExamName      string
	LevelCode     string
	LevelCategory string
	ExamLevel     string
	CategoryCode  string
	CategoryName  string
	Session       string
	Subject       string
	PaperType     string
	QuestionURL   string
	AnswerURL     string
	Note          string
}

// ReadRows parses the catalog. The first record is a header and is skipped.
func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows []Row
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		line++
		if line == 1 {
			continue
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) != Columns {
			return nil, fmt.Errorf("catalog line %d: want %d columns, got %d", line, Columns, len(rec))
		}
		for i := range rec {
			rec[i] = clean(rec[i])
		}
		rows = append(rows, Row{
			Year:          rec[0],
			ExamCode:      rec[1],
			ExamName:      rec[2],
			LevelCode:     rec[3],
			LevelCategory: rec[4],
			ExamLevel:     rec[5],
			CategoryCode:  rec[6],
			CategoryName:  rec[7],
			Session:       rec[8],
			Subject:       rec[9],
			PaperType:     rec[10],
			QuestionURL:   rec[11],
			AnswerURL:     rec[12],
			Note:          rec[13],
		})
	}
	return rows, nil
}

func clean(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"`))
}

func (r Row) baseName() string {
	return r.ExamCode + "_" + r.CategoryCode + "_" + r.Session
}

// QuestionFile is the local file name of the question paper.
func (r Row) QuestionFile() string { return r.baseName() + constants.QuestionSuffix }

// AnswerFile is the local file name of the multiple-choice answer sheet.
func (r Row) AnswerFile() string { return r.baseName() + constants.AnswerSuffix }

// Exam builds the record written for this row. qFile and aFile are nil when
// the corresponding download is absent.
func (r Row) Exam(id string, qFile, aFile *string) entity.Exam {
	return entity.Exam{
		ID:            id,
		Year:          r.Year,
		ExamCode:      r.ExamCode,
		ExamName:      r.ExamName,
		LevelCode:     r.LevelCode,
		LevelCategory: r.LevelCategory,
		ExamLevel:     r.ExamLevel,
		CategoryCode:  r.CategoryCode,
		CategoryName:  r.CategoryName,
		Session:       r.Session,
		Subject:       r.Subject,
		PaperType:     r.PaperType,
		QuestionURL:   r.QuestionURL,
		QuestionFile:  qFile,
		AnswerURL:     r.AnswerURL,
		AnswerFile:    aFile,
		Note:          r.Note,
		Questions:     []entity.Question{},
	}
}
