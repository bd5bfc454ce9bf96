package server

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDebounce = 100 * time.Millisecond

// Watch rebuilds the current subject whenever the file at path is written
// or replaced. reopen is called first to load the new contents. Watch
// blocks until ctx is cancelled.
func (s *Server) Watch(ctx context.Context, path string, reopen func() (Builder, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.Close()

	// Editors that save atomically replace the file, so watch its directory.
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	s.log.Info("watching model file", zap.String("path", path))

	name := filepath.Base(path)
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name || !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, func() { s.reload(ctx, reopen) })

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("file watcher error", zap.Error(err))
		}
	}
}

func (s *Server) reload(ctx context.Context, reopen func() (Builder, error)) {
	if ctx.Err() != nil {
		return
	}
	b, err := reopen()
	if err != nil {
		s.log.Warn("model reload failed, keeping previous model", zap.Error(err))
		return
	}
	s.SetBuilder(b)
	if err := s.Rebuild(ctx); err != nil {
		s.log.Warn("rebuild after reload failed", zap.Error(err))
		return
	}
	s.log.Info("model reloaded", zap.String("subject", s.Subject().String()))
}
