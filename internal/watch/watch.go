// Package watch follows a base directory and reports category files that
// changed.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vango-dev/thbase/pkg/records"
)

// DefaultDebounce coalesces the burst of events a single append produces.
const DefaultDebounce = 250 * time.Millisecond

// Change describes a category file that was written, created or removed.
type Change struct {
	TH      int
	Path    string
	Removed bool
}

// Dir watches dir until ctx is done, calling fn once per changed category
// after events have been quiet for debounce. fn runs on the watching
// goroutine, in ascending th order.
func Dir(ctx context.Context, dir string, debounce time.Duration, fn func(Change)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	logger := slog.Default().With("component", "watch", "dir", dir)

	pending := make(map[int]Change)
	var timer *time.Timer
	var fire <-chan time.Time

	flush := func() {
		ths := make([]int, 0, len(pending))
		for th := range pending {
			ths = append(ths, th)
		}
		sort.Ints(ths)
		for _, th := range ths {
			fn(pending[th])
		}
		clear(pending)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			th, ok := records.CategoryFromFile(filepath.Base(event.Name))
			if !ok {
				continue
			}
			if !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) &&
				!event.Has(fsnotify.Rename) {
				continue
			}

			pending[th] = Change{
				TH:      th,
				Path:    event.Name,
				Removed: event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename),
			}

			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			flush()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)

		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		}
	}
}
