package examstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freeseed/exams-tw/internal/common"
	"github.com/freeseed/exams-tw/internal/entity"
)

func sampleExam(id string) *entity.Exam {
	q := "104050_101_1_Q.pdf"
	return &entity.Exam{
		ID:           id,
		Year:         "104",
		ExamName:     "公務人員特種考試關務人員考試",
		Subject:      "國文（作文、公文與測驗）",
		QuestionFile: &q,
		Questions: []entity.Question{
			{Question: "下列何者<正確>？", Choices: []string{"甲", "乙"}, Answer: 2},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "fse00000001.json")
	require.NoError(t, Save(path, sampleExam("fse00000001")))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	s := string(raw)
	assert.True(t, strings.HasPrefix(s, "{\n  \"id\": \"fse00000001\""))
	assert.Contains(t, s, "\"考試年度\": \"104\"")
	assert.Contains(t, s, "下列何者<正確>？")
	assert.Contains(t, s, "\"測驗式試題答案檔案\": null")
	assert.Contains(t, s, "\"images\": []")
	assert.NotContains(t, s, "parsed")
	assert.Less(t, strings.Index(s, "\"試題檔案\""), strings.Index(s, "\"測驗式試題答案網址\""))
	require.NoError(t, Validate(raw))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "104050_101_1_Q.pdf", got.QuestionFileName())
	assert.Equal(t, 2, got.Questions[0].Answer)
	assert.NotNil(t, got.Questions[0].Images)
}

func TestValidateRejects(t *testing.T) {
	err := Validate([]byte(`{"id":"x"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match schema")
	assert.ErrorIs(t, err, common.ErrBadRecord)

	assert.ErrorIs(t, Validate([]byte(`not json`)), common.ErrBadRecord)
}

func TestSaveRejectsInvalidRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.json")
	bad := sampleExam("x0001")
	bad.Questions[0].Answer = -1

	err := Save(path, bad)
	require.ErrorIs(t, err, common.ErrBadRecord)
	assert.NoFileExists(t, path)
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadRejectsInvalidRecord(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "fse00000001.json")
	require.NoError(t, os.WriteFile(missing, []byte(`{"id":"fse00000001","題庫":[]}`), 0o644))
	_, err := Load(missing)
	require.ErrorIs(t, err, common.ErrBadRecord)
	assert.Contains(t, err.Error(), "fse00000001.json")

	good := filepath.Join(dir, "fse00000002.json")
	require.NoError(t, Save(good, sampleExam("fse00000002")))
	raw, err := os.ReadFile(good)
	require.NoError(t, err)
	broken := strings.Replace(string(raw), `"answer": 2`, `"answer": "B"`, 1)
	require.NoError(t, os.WriteFile(good, []byte(broken), 0o644))
	_, err = Load(good)
	assert.ErrorIs(t, err, common.ErrBadRecord)
}

func TestRecordNames(t *testing.T) {
	assert.Equal(t, "fse00000003.json", FileName("fse00000003"))
	assert.True(t, IsRecord("fse00000003.JSON"))
	assert.False(t, IsRecord("notes.txt"))
	assert.Equal(t, "fse00000003", IDFromPath("/a/b/fse00000003.json"))
}

func TestDirListAndGet(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	require.NoError(t, Save(filepath.Join(a, "fse00000002.json"), sampleExam("fse00000002")))
	other := sampleExam("fse00000001")
	other.Year = "110"
	other.Parsed = true
	require.NoError(t, Save(filepath.Join(b, "fse00000001.json"), other))
	dup := sampleExam("fse00000002")
	dup.Year = "999"
	require.NoError(t, Save(filepath.Join(b, "fse00000002.json"), dup))
	require.NoError(t, os.WriteFile(filepath.Join(b, "broken.json"), []byte("{"), 0o644))

	d := NewDir(nil, a, b, filepath.Join(a, "missing"))
	all, err := d.List(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "fse00000001", all[0].ID)
	assert.Equal(t, "104", all[1].Year)

	parsed, err := d.List(context.Background(), Filter{ParsedOnly: true})
	require.NoError(t, err)
	require.Len(t, parsed, 1)

	limited, err := d.List(context.Background(), Filter{ExamName: "關務", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	e, err := d.Get(context.Background(), "fse00000001")
	require.NoError(t, err)
	assert.Equal(t, "110", e.Year)

	_, err = d.Get(context.Background(), "fse00000099")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
