package generator

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RunFunc receives the outcome of every run started by Watch.
type RunFunc func(*Result, error)

// Watch runs the pipeline once, then again after every change to the node
// types or token files, until ctx is done. Runs never overlap: changes that
// arrive during a run trigger one more run after it. Run errors go to onRun
// and do not stop watching.
func (g *Generator) Watch(ctx context.Context, onRun RunFunc) error {
	inputs, err := g.inputPaths()
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Directories are watched so editors that replace files are seen.
	dirs := map[string]bool{}
	for path := range inputs {
		dir := filepath.Dir(path)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		dirs[dir] = true
		g.logger.Debug("watching directory", slog.String("dir", dir))
	}

	onRun(g.Run(ctx))

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !inputs[abs] {
				continue
			}
			g.logger.Debug("change detected", slog.String("file", event.Name), slog.String("op", event.Op.String()))
			pending = time.After(g.cfg.Debounce)
		case <-pending:
			pending = nil
			onRun(g.Run(ctx))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			g.logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

func (g *Generator) inputPaths() (map[string]bool, error) {
	inputs := map[string]bool{}
	for _, p := range []string{g.cfg.NodeTypesPath, g.cfg.TokensPath} {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		inputs[abs] = true
	}
	return inputs, nil
}
