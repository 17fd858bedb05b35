// Package housekeeping retires exam records once they have been loaded.
package housekeeping

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/freeseed/exams-tw/internal/examstore"
)

// ParsedMarker flags exam ids as parsed in the document store.
type ParsedMarker interface {
	MarkParsed(ctx context.Context, ids []string) (matched, modified int64, err error)
}

type Config struct {
	JSONDir string // question_json
	DoneDir string // question_json_done
	AllDir  string // question_json_all
}

// Report counts what one run did.
type Report struct {
	Moved    int
	Removed  int
	Matched  int64
	Modified int64
}

type Archiver struct {
	cfg    Config
	marker ParsedMarker
	log    *slog.Logger
}

func NewArchiver(cfg Config, marker ParsedMarker, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{cfg: cfg, marker: marker, log: logger}
}

// Run moves every record out of JSONDir into DoneDir. Then, for every
// record in DoneDir, it removes the same-named copy from AllDir and marks
// the id as parsed, so a failed store update is retried on the next run.
// A nil marker skips the store update.
func (a *Archiver) Run(ctx context.Context) (Report, error) {
	var rep Report
	paths, err := examstore.List(a.cfg.JSONDir)
	if err != nil {
		return rep, fmt.Errorf("list %s: %w", a.cfg.JSONDir, err)
	}
	if err := os.MkdirAll(a.cfg.DoneDir, 0o755); err != nil {
		return rep, err
	}

	for _, src := range paths {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		name := filepath.Base(src)
		if err := move(src, filepath.Join(a.cfg.DoneDir, name)); err != nil {
			a.log.Error("housekeeping.move.failed", "file", name, "error", err)
			continue
		}
		rep.Moved++
	}

	done, err := examstore.List(a.cfg.DoneDir)
	if err != nil {
		return rep, fmt.Errorf("list %s: %w", a.cfg.DoneDir, err)
	}
	ids := make([]string, 0, len(done))
	for _, p := range done {
		ids = append(ids, examstore.IDFromPath(p))
		if a.cfg.AllDir == "" {
			continue
		}
		name := filepath.Base(p)
		err := os.Remove(filepath.Join(a.cfg.AllDir, name))
		switch {
		case err == nil:
			rep.Removed++
		case !errors.Is(err, os.ErrNotExist):
			a.log.Warn("housekeeping.remove.failed", "file", name, "error", err)
		}
	}
	a.log.Info("housekeeping.moved", "moved", rep.Moved, "done", len(ids), "removed", rep.Removed)

	if a.marker == nil || len(ids) == 0 {
		return rep, nil
	}
	matched, modified, err := a.marker.MarkParsed(ctx, ids)
	if err != nil {
		return rep, fmt.Errorf("mark parsed: %w", err)
	}
	rep.Matched, rep.Modified = matched, modified
	a.log.Info("housekeeping.marked", "matched", matched, "modified", modified)
	return rep, nil
}

// move renames src to dst, copying when they sit on different devices.
func move(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
