package ingest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/freeseed/exams-tw/internal/examstore"
)

type WatchConfig struct {
	Dir         string        // folder of exam records
	InitialScan bool          // emit records already present
	Debounce    time.Duration // coalesce write bursts on the same file
}

// StartWatcher emits the path of every *.json record created or rewritten in
// cfg.Dir until ctx is done. Both channels close when the watcher stops.
func StartWatcher(ctx context.Context, cfg WatchConfig, logger *slog.Logger) (<-chan string, <-chan error, error) {
	logger = defaultLogger(logger)
	if cfg.Dir == "" {
		return nil, nil, errors.New("watch: no folder")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("watch.start.failed", "error", err)
		return nil, nil, err
	}
	if err := w.Add(cfg.Dir); err != nil {
		_ = w.Close()
		logger.Error("watch.add.failed", "dir", cfg.Dir, "error", err)
		return nil, nil, err
	}

	var existing []string
	if cfg.InitialScan {
		entries, err := os.ReadDir(cfg.Dir)
		if err != nil {
			_ = w.Close()
			return nil, nil, err
		}
		for _, e := range entries {
			if !e.IsDir() && isRecord(e.Name()) {
				existing = append(existing, filepath.Join(cfg.Dir, e.Name()))
			}
		}
	}

	evCh := make(chan string, 64)
	errCh := make(chan error, 1)

	go func() {
		var (
			mu      sync.Mutex
			pending = map[string]struct{}{}
			timer   *time.Timer
			wg      sync.WaitGroup
		)
		defer close(errCh)
		defer close(evCh)
		defer wg.Wait()
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("watch.close.failed", "error", err)
			}
		}()

		emit := func(p string) bool {
			select {
			case evCh <- p:
				return true
			case <-ctx.Done():
				return false
			}
		}
		flush := func() {
			mu.Lock()
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			mu.Unlock()
			for _, p := range paths {
				if !emit(p) {
					return
				}
			}
		}

		for _, p := range existing {
			if !emit(p) {
				return
			}
		}
		logger.Info("watch.started", "dir", cfg.Dir, "existing", len(existing))

		for {
			select {
			case <-ctx.Done():
				if timer != nil && timer.Stop() {
					wg.Done()
				}
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if !isRecord(e.Name) || !e.Op.Has(fsnotify.Create) && !e.Op.Has(fsnotify.Write) {
					continue
				}
				if cfg.Debounce <= 0 {
					if !emit(e.Name) {
						return
					}
					continue
				}
				mu.Lock()
				pending[e.Name] = struct{}{}
				mu.Unlock()
				if timer != nil && timer.Stop() {
					wg.Done()
				}
				wg.Add(1)
				timer = time.AfterFunc(cfg.Debounce, func() {
					defer wg.Done()
					flush()
				})
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watch.error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

// isRecord reports whether name looks like an exam record, ignoring the
// temp files examstore.Save renames into place.
func isRecord(name string) bool {
	base := filepath.Base(name)
	return !strings.HasPrefix(base, ".") && examstore.IsRecord(base)
}
