package combine

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces bursts of events from editors and log writers that
// touch a file several times in quick succession.
const debounceDelay = 500 * time.Millisecond

// Watch runs an initial combine pass and then re-runs it whenever a matching
// file in the logs directory is created, written, renamed, or removed. It
// blocks until ctx is canceled.
//
// A failed re-combine does not stop the watch: the pipeline may be mid-write
// and the next event usually succeeds.
func (c *Combiner) Watch(ctx context.Context, onPass func(*Summary, error)) error {
	if onPass == nil {
		onPass = func(*Summary, error) {}
	}

	logsDir := c.cfg.ResolvePath(c.cfg.Combine.LogsDir)
	reportPath := c.cfg.ResolvePath(c.cfg.Combine.Combined)
	reportAbs, _ := filepath.Abs(reportPath)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(logsDir); err != nil {
		return fmt.Errorf("watch %s: %w", logsDir, err)
	}

	onPass(c.Run(ctx))

	// The timer is created stopped; each relevant event re-arms it.
	debounce := time.NewTimer(debounceDelay)
	if !debounce.Stop() {
		<-debounce.C
	}

	relevant := func(ev fsnotify.Event) bool {
		if abs, err := filepath.Abs(ev.Name); err == nil && abs == reportAbs {
			return false
		}
		matched, err := filepath.Match(c.cfg.Combine.Pattern, filepath.Base(ev.Name))
		return err == nil && matched
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if relevant(ev) {
				debounce.Reset(debounceDelay)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			onPass(nil, fmt.Errorf("watch error: %w", err))
		case <-debounce.C:
			onPass(c.Run(ctx))
		}
	}
}
