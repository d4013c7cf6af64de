package rules

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch syncs path once, then again each time the file changes, until ctx
// is done. Bursts of events within debounce collapse into one sync.
// A failed reload is logged and the previous store contents stay in place.
func (s *Syncer) Watch(ctx context.Context, path string, debounce time.Duration) error {
	if _, err := s.SyncFile(ctx, path); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Editors often replace the file, so watch its directory.
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	s.logger.Info("watching rules", "path", abs, "debounce", debounce)

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timerC:
			timerC = nil
			if _, err := s.SyncFile(ctx, path); err != nil {
				s.logger.Error("rules reload failed", "path", path, "err", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("rules watcher error", "err", err)
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !affects(evt, abs) {
				continue
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
			timerC = timer.C
		}
	}
}

func affects(evt fsnotify.Event, target string) bool {
	if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}
	name, err := filepath.Abs(evt.Name)
	if err != nil {
		return false
	}
	return name == target
}
