package main

import (
	"context"
	"log"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	debounceTick  = 250 * time.Millisecond
	debounceQuiet = 300 * time.Millisecond
)

// watchDirectory processes screenshots as they appear in dir until ctx is done.
func watchDirectory(ctx context.Context, dir string, p *processor, workers int) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Printf("Watching %s (debounced) ...", dir)

	fileCh := make(chan string, 256)
	go debounceEvents(ctx, w.Events, w.Errors, fileCh, debounceQuiet)
	t := p.run(ctx, fileCh, workers)
	log.Printf("Watch stopped: %s", t)
	return nil
}

// debounceEvents forwards image names once no event has touched them for quiet.
// out is closed when ctx is done or the watcher channels close.
func debounceEvents(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, out chan<- string, quiet time.Duration) {
	defer close(out)
	pending := map[string]time.Time{}
	ticker := time.NewTicker(debounceTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			name := filepath.Base(ev.Name)
			if !isSupportedExt(name) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				pending[name] = time.Now()
			} else if _, seen := pending[name]; seen && ev.Has(fsnotify.Write) {
				pending[name] = time.Now()
			}
		case now := <-ticker.C:
			for _, name := range readyFiles(pending, now, quiet) {
				delete(pending, name)
				select {
				case out <- name:
				case <-ctx.Done():
					return
				}
			}
		case err, ok := <-errs:
			if !ok {
				return
			}
			log.Printf("watch error: %v", err)
		}
	}
}

// readyFiles returns the pending names untouched for longer than quiet, sorted.
func readyFiles(pending map[string]time.Time, now time.Time, quiet time.Duration) []string {
	var out []string
	for name, t := range pending {
		if now.Sub(t) > quiet {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
