package examstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/freeseed/exams-tw/constants"
	"github.com/freeseed/exams-tw/internal/common"
	"github.com/freeseed/exams-tw/internal/entity"
)

// FileName is the record file name for id.
func FileName(id string) string {
	return id + "." + constants.JSONExt
}

// IsRecord reports whether name has the record extension.
func IsRecord(name string) bool {
	return constants.NormalizeExt(filepath.Ext(name)) == constants.JSONExt
}

// IDFromPath strips the folder and extension from a record path.
func IDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load reads one exam record and checks it against the record schema.
func Load(path string) (*entity.Exam, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := Validate(b); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	var e entity.Exam
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	e.Normalize()
	return &e, nil
}

// Encode renders an exam the way it is stored on disk: two-space indent,
// no HTML escaping, trailing newline.
func Encode(e *entity.Exam) ([]byte, error) {
	e.Normalize()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save validates e and writes it to path through a temp file in the same
// folder. An invalid record leaves path untouched.
func Save(path string, e *entity.Exam) error {
	b, err := Encode(e)
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.ID, err)
	}
	if err := Validate(b); err != nil {
		return fmt.Errorf("%s: %w", e.ID, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".exam-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// List returns the sorted *.json paths in dir.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !IsRecord(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// Filter narrows listings; empty fields match everything.
type Filter struct {
	Year       string
	ExamName   string
	Subject    string
	ParsedOnly bool
	Limit      int
}

// Matches reports whether e passes the filter (name and subject are substrings).
func (f Filter) Matches(e *entity.Exam) bool {
	if f.Year != "" && e.Year != f.Year {
		return false
	}
	if f.ExamName != "" && !strings.Contains(e.ExamName, f.ExamName) {
		return false
	}
	if f.Subject != "" && !strings.Contains(e.Subject, f.Subject) {
		return false
	}
	if f.ParsedOnly && !e.Parsed {
		return false
	}
	return true
}

// Dir serves exam records straight from one or more folders.
type Dir struct {
	dirs   []string
	logger *slog.Logger
}

func NewDir(logger *slog.Logger, dirs ...string) *Dir {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dir{dirs: dirs, logger: logger}
}

// Get loads the first record named id across the folders.
func (d *Dir) Get(_ context.Context, id string) (*entity.Exam, error) {
	for _, dir := range d.dirs {
		p := filepath.Join(dir, FileName(id))
		e, err := Load(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, common.WrapError(common.ErrNotFound, "exam "+id)
}

// List loads every record matching f, ordered by id. A record present in
// several folders is returned once, from the first folder.
func (d *Dir) List(_ context.Context, f Filter) ([]entity.Exam, error) {
	seen := map[string]struct{}{}
	var out []entity.Exam
	for _, dir := range d.dirs {
		paths, err := List(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			e, err := Load(p)
			if err != nil {
				d.logger.Warn("examstore.load.failed", "path", p, "error", err)
				continue
			}
			if _, ok := seen[e.ID]; ok {
				continue
			}
			seen[e.ID] = struct{}{}
			if f.Matches(e) {
				out = append(out, *e)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
