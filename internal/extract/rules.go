package extract

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/freeseed/exams-tw/constants"
	"github.com/freeseed/exams-tw/internal/catalog"
	"github.com/freeseed/exams-tw/internal/entity"
)

//go:embed rules.yaml
var defaultRules []byte

// IDRange is an inclusive fse ID range.
type IDRange struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Rule maps a set of exam record conditions to a layout. Empty fields are
// not checked.
type Rule struct {
	Name                 string   `yaml:"name"`
	Layout               string   `yaml:"layout"`
	IDs                  *IDRange `yaml:"ids"`
	Year                 string   `yaml:"year"`
	ExamNameContains     string   `yaml:"exam_name_contains"`
	ExamLevel            string   `yaml:"exam_level"`
	LevelCategory        string   `yaml:"level_category"`
	LevelCategoryPrefix  string   `yaml:"level_category_prefix"`
	Subject              string   `yaml:"subject"`
	SubjectPrefix        string   `yaml:"subject_prefix"`
	ExcludeSubjectPrefix string   `yaml:"exclude_subject_prefix"`
	CategoryName         string   `yaml:"category_name"`
	ExamCodes            []string `yaml:"exam_codes"`

	layout   constants.Layout
	from, to int
}

// Rules is an ordered rule list.
type Rules struct {
	Rules []Rule `yaml:"rules"`
}

// DefaultRules returns the built-in rule list.
func DefaultRules() (*Rules, error) {
	return ParseRules(defaultRules)
}

// LoadRules reads rules from path, or the built-in list when path is empty.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout rules: %w", err)
	}
	return ParseRules(data)
}

func ParseRules(data []byte) (*Rules, error) {
	var rs Rules
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parse layout rules: %w", err)
	}
	for i := range rs.Rules {
		if err := rs.Rules[i].compile(); err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i+1, rs.Rules[i].Name, err)
		}
	}
	return &rs, nil
}

func (r *Rule) compile() error {
	l, ok := constants.Canonicalize(r.Layout)
	if !ok {
		return fmt.Errorf("unknown layout %q (want one of %s)", r.Layout, strings.Join(constants.LayoutNames(), ", "))
	}
	r.layout = l
	if r.IDs != nil {
		var okFrom, okTo bool
		r.from, okFrom = catalog.ParseID(r.IDs.From)
		r.to, okTo = catalog.ParseID(r.IDs.To)
		if !okFrom || !okTo {
			return fmt.Errorf("bad id range %s..%s", r.IDs.From, r.IDs.To)
		}
	}
	if r.empty() {
		return fmt.Errorf("rule has no conditions")
	}
	return nil
}

func (r *Rule) empty() bool {
	return r.IDs == nil && r.Year == "" && r.ExamNameContains == "" && r.ExamLevel == "" &&
		r.LevelCategory == "" && r.LevelCategoryPrefix == "" && r.Subject == "" &&
		r.SubjectPrefix == "" && r.ExcludeSubjectPrefix == "" && r.CategoryName == "" &&
		len(r.ExamCodes) == 0
}

// Matches reports whether every condition of the rule holds for exam.
func (r *Rule) Matches(exam *entity.Exam) bool {
	if r.IDs != nil {
		n, ok := catalog.ParseID(exam.ID)
		if !ok || n < r.from || n > r.to {
			return false
		}
	}
	switch {
	case r.Year != "" && exam.Year != r.Year,
		r.ExamNameContains != "" && !strings.Contains(exam.ExamName, r.ExamNameContains),
		r.ExamLevel != "" && exam.ExamLevel != r.ExamLevel,
		r.LevelCategory != "" && exam.LevelCategory != r.LevelCategory,
		r.LevelCategoryPrefix != "" && !strings.HasPrefix(exam.LevelCategory, r.LevelCategoryPrefix),
		r.Subject != "" && exam.Subject != r.Subject,
		r.SubjectPrefix != "" && !strings.HasPrefix(exam.Subject, r.SubjectPrefix),
		r.ExcludeSubjectPrefix != "" && strings.HasPrefix(exam.Subject, r.ExcludeSubjectPrefix),
		r.CategoryName != "" && exam.CategoryName != r.CategoryName:
		return false
	}
	if len(r.ExamCodes) > 0 {
		for _, c := range r.ExamCodes {
			if c == exam.ExamCode {
				return true
			}
		}
		return false
	}
	return true
}

// Select returns the layout of the first matching rule.
func (rs *Rules) Select(exam *entity.Exam) (constants.Layout, bool) {
	for i := range rs.Rules {
		if rs.Rules[i].Matches(exam) {
			return rs.Rules[i].layout, true
		}
	}
	return "", false
}
