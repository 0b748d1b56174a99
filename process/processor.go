package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"sushida/models"
	"sushida/pkg/ocr"
)

type scoreExtractor interface {
	ExtractScore(ctx context.Context, path string) (ocr.Extraction, error)
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeRecorded
	outcomeFailed
	outcomeError
)

// tally counts outcomes across workers.
type tally struct {
	recorded, skipped, failed, errored atomic.Int64
}

func (t *tally) add(o outcome) {
	switch o {
	case outcomeRecorded:
		t.recorded.Add(1)
	case outcomeSkipped:
		t.skipped.Add(1)
	case outcomeFailed:
		t.failed.Add(1)
	default:
		t.errored.Add(1)
	}
}

func (t *tally) String() string {
	return fmt.Sprintf("recorded=%d skipped=%d ocr_failed=%d errors=%d",
		t.recorded.Load(), t.skipped.Load(), t.failed.Load(), t.errored.Load())
}

type processor struct {
	dir          string
	processedDir string
	userID       uint
	ps           *preloadState
	store        store
	extract      scoreExtractor
}

// feed returns a closed channel holding names.
func feed(names []string) <-chan string {
	ch := make(chan string, len(names))
	for _, n := range names {
		ch <- n
	}
	close(ch)
	return ch
}

// run drains src with the given number of workers until src is closed or ctx is done.
func (p *processor) run(ctx context.Context, src <-chan string, workers int) *tally {
	t := &tally{}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case name, ok := <-src:
					if !ok {
						return
					}
					t.add(p.processSingleFile(ctx, name))
				}
			}
		}()
	}
	wg.Wait()
	return t
}

// processSingleFile records one screenshot idempotently using the preloaded state.
func (p *processor) processSingleFile(ctx context.Context, name string) outcome {
	if p.ps.hasScore(name) {
		logV("SKIP score exists %s", name)
		return outcomeSkipped
	}
	filePath := filepath.Join(p.dir, name)
	shot, ok := p.ps.getShot(name)
	if !ok {
		newShot := models.Screenshot{
			UserID:      p.userID,
			FileName:    name,
			StorePath:   filepath.ToSlash(filepath.Join("public", filepath.Base(p.dir), name)),
			ContentType: contentType(filePath),
		}
		if err := p.store.CreateScreenshot(&newShot); err != nil {
			log.Printf("ERROR create screenshot %s: %v", name, err)
			return outcomeError
		}
		p.ps.putShot(&newShot)
		shot = &newShot
		log.Printf("NEW screenshot id=%d file=%s", newShot.ID, name)
	}

	ext, err := p.extract.ExtractScore(ctx, filePath)
	if err != nil {
		logV("OCR fail %s: %v", name, err)
		if err := p.store.MarkFailed(shot.ID, truncate(err.Error(), 255)); err != nil {
			log.Printf("WARN mark failed %s: %v", name, err)
		}
		return outcomeFailed
	}

	sc := models.NewScore(p.userID, name, ext.Result, ext.Valid, ext.Text, playedAt(filePath))
	if err := p.store.CreateScore(&sc); err != nil {
		if errors.Is(err, errDuplicateScore) {
			p.ps.putScore(name)
			return outcomeSkipped
		}
		log.Printf("ERROR create score %s: %v", name, err)
		return outcomeError
	}
	p.ps.putScore(name)
	if err := p.store.LinkScore(shot.ID, sc.ID); err != nil {
		log.Printf("WARN link screenshot %d: %v", shot.ID, err)
	}
	log.Printf("SCORE course=%s net=%d valid=%t pass=%s file=%s screenshot=%d", sc.Course, sc.Net, sc.Valid, ext.Pass, name, shot.ID)
	if !ext.Valid {
		logV("validation problems %s: %v", name, ext.Problems)
	}

	if p.processedDir == "" {
		return outcomeRecorded
	}
	if err := moveToProcessed(filePath, p.processedDir, name); err != nil {
		log.Printf("WARN failed to move processed file %s: %v", name, err)
	} else {
		logV("moved processed %s to %s", name, p.processedDir)
	}
	return outcomeRecorded
}

// playedAt uses the file modification time, falling back to now.
func playedAt(path string) time.Time {
	if fi, err := os.Stat(path); err == nil {
		return fi.ModTime()
	}
	return time.Now()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
