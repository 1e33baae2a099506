// Package importer watches a drop directory and saves text documents
// placed there as library sources.
package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sourcelens/sourcelens/internal/library"
	"github.com/sourcelens/sourcelens/internal/models"
	"github.com/sourcelens/sourcelens/internal/sse"
)

// Importer imports .txt and .md files from a drop directory into the
// library. Import is one-way: removing a file does not remove the
// saved source.
type Importer struct {
	store  library.Store
	broker *sse.Broker
	logger *slog.Logger
	root   string

	mu   sync.Mutex
	seen map[string]string // path -> content checksum of last import
}

// New creates an importer rooted at dir. broker may be nil.
func New(store library.Store, broker *sse.Broker, logger *slog.Logger, dir string) (*Importer, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &Importer{
		store:  store,
		broker: broker,
		logger: logger,
		root:   abs,
		seen:   make(map[string]string),
	}, nil
}

func importable(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return true
	}
	return false
}

// Sync walks the drop directory and imports every document not yet
// imported (or changed since its last import).
func (i *Importer) Sync(ctx context.Context) error {
	return filepath.WalkDir(i.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !importable(p) {
			return nil
		}
		if err := i.importFile(ctx, p); err != nil {
			i.logger.Warn("importer: import failed",
				slog.String("path", p), slog.String("error", err.Error()))
		}
		return nil
	})
}

// importDebounce is how long the watcher waits after the last event
// before importing. A file arriving over several writes (the upload
// handler creates, then copies) must not be read mid-copy.
const importDebounce = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the drop directory and imports
// files as they appear or change, until ctx is cancelled. Directories
// created at runtime are added to the watch list. Imports are debounced
// so a create-then-write sequence yields one import of the full file.
func (i *Importer) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, i.root); err != nil {
		return err
	}

	i.logger.Info("importer: watching", slog.String("root", i.root))

	// flushTimer debounces imports of pending paths.
	pending := make(map[string]struct{})
	var flushTimer *time.Timer
	var flushCh <-chan time.Time

	scheduleFlush := func() {
		if flushTimer == nil {
			flushTimer = time.NewTimer(importDebounce)
			flushCh = flushTimer.C
		} else {
			flushTimer.Reset(importDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			i.logger.Info("importer: stopped")
			return nil

		case <-flushCh:
			for p := range pending {
				delete(pending, p)
				if err := i.importFile(ctx, p); err != nil {
					i.logger.Warn("importer: import failed",
						slog.String("path", p), slog.String("error", err.Error()))
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						i.logger.Warn("importer: add new dir failed",
							slog.String("path", ev.Name), slog.String("error", addErr.Error()))
					}
					continue
				}
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || !importable(ev.Name) {
				continue
			}
			pending[ev.Name] = struct{}{}
			scheduleFlush()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			i.logger.Warn("importer: watch error", slog.String("error", err.Error()))
		}
	}
}

// importFile reads the document and saves it as a library source,
// skipping files whose content is unchanged since the last import.
func (i *Importer) importFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(data)
	cs := hex.EncodeToString(sum[:])

	i.mu.Lock()
	if i.seen[path] == cs {
		i.mu.Unlock()
		return nil
	}
	i.seen[path] = cs
	i.mu.Unlock()

	rel, err := filepath.Rel(i.root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	item, err := i.store.SaveItem(ctx, models.SavedItem{
		Kind: models.KindSource,
		Data: map[string]any{
			"metadata":     map[string]any{"title": title},
			"content":      string(data),
			"importedFrom": rel,
			"contentHash":  cs,
		},
	})
	if err != nil {
		return err
	}

	i.logger.Info("importer: imported source",
		slog.String("path", rel), slog.String("id", item.ID))
	if i.broker != nil {
		i.broker.PublishLibraryEvent("imported", models.KindSource, item.ID)
	}
	return nil
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
}
