package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"sushida/pkg/ocr"
)

// global flags (parsed in main)
var (
	verbose     bool
	simulateOCR bool
)

func logV(format string, args ...any) {
	if verbose {
		log.Printf(format, args...)
	}
}

// Main: scans a directory of result screenshots, creates Screenshot rows, runs OCR to create/link Scores, optional watch mode.
func main() {
	dirFlag := flag.String("dir", filepath.Join("public", "scores"), "directory to scan for result screenshots")
	username := flag.String("user", "admin", "owner of the imported scores")
	processed := flag.String("processed", filepath.Join("public", "processed"), "directory recorded screenshots are moved to")
	dryRun := flag.Bool("dry-run", false, "Skip all DB queries and writes; just list / optionally OCR (see --simulate-ocr)")
	watch := flag.Bool("watch", false, "Watch directory for new files")
	workers := flag.Int("workers", 0, "Worker pool size (default NumCPU)")
	flag.BoolVar(&verbose, "verbose", false, "Verbose per-file logging")
	flag.BoolVar(&simulateOCR, "simulate-ocr", false, "In dry-run: actually run OCR to show potential scores")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	acq := ocr.NewAcquirer()
	if *dryRun {
		log.Printf("Dry-run: scanning %s (no DB interaction)", *dirFlag)
		var ex scoreExtractor
		if simulateOCR {
			ex = acq
		}
		n := runDryRun(ctx, os.Stdout, *dirFlag, ex)
		log.Printf("Found %d candidate files", n)
		return
	}

	gdb := mustInitDBFromEnv()
	user := resolveUser(gdb, *username)
	st := &gormStore{db: gdb}
	ps, err := preloadAll(st, user.ID)
	if err != nil {
		log.Fatalf("preload failed: %v", err)
	}
	log.Printf("Preloaded: screenshots=%d scores=%d", ps.screenshotCount(), ps.scoreCount())

	p := &processor{
		dir:          *dirFlag,
		processedDir: *processed,
		userID:       user.ID,
		ps:           ps,
		store:        st,
		extract:      acq,
	}
	files := listImageFiles(*dirFlag)
	n := effectiveWorkers(*workers)
	log.Printf("Scanning %d files (workers=%d)", len(files), n)
	counts := p.run(ctx, feed(files), n)
	log.Printf("Scan done: %s", counts)

	if *watch {
		if err := watchDirectory(ctx, *dirFlag, p, n); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
	}
}
