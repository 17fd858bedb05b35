package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/freeseed/exams-tw/constants"
)

const idPrefix = "fse"

// FormatID renders n as an fse identifier.
func FormatID(n int) string {
	return fmt.Sprintf("%s%08d", idPrefix, n)
}

// ParseID extracts the number from an fse identifier.
func ParseID(id string) (int, bool) {
	if !strings.HasPrefix(id, idPrefix) || len(id) != len(idPrefix)+8 {
		return 0, false
	}
	n, err := strconv.Atoi(id[len(idPrefix):])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Sequence hands out consecutive fse identifiers.
type Sequence struct {
	next int
}

func NewSequence(start int) *Sequence {
	if start < 1 {
		start = 1
	}
	return &Sequence{next: start}
}

// Peek returns the identifier Next would return without consuming it.
func (s *Sequence) Peek() string { return FormatID(s.next) }

// Next consumes and returns an identifier.
func (s *Sequence) Next() string {
	id := FormatID(s.next)
	s.next++
	return id
}

// NextFree returns one past the highest fse number found among *.json files in
// the given folders; missing folders are ignored.
func NextFree(dirs ...string) (int, error) {
	highest := 0
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("scan %s: %w", dir, err)
		}
		for _, e := range entries {
			ext := filepath.Ext(e.Name())
			if e.IsDir() || constants.NormalizeExt(ext) != constants.JSONExt {
				continue
			}
			if n, ok := ParseID(strings.TrimSuffix(e.Name(), ext)); ok && n > highest {
				highest = n
			}
		}
	}
	return highest + 1, nil
}
