package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
)

// runDryRun lists candidate screenshots in dir. With ex set it also reads each
// one and prints what would be recorded. It returns the number of candidates.
func runDryRun(ctx context.Context, w io.Writer, dir string, ex scoreExtractor) int {
	files := listImageFiles(dir)
	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		if ex == nil {
			fmt.Fprintln(w, f)
			continue
		}
		ext, err := ex.ExtractScore(ctx, filepath.Join(dir, f))
		if err != nil {
			fmt.Fprintf(w, "%s\tOCR failed: %v\n", f, err)
			continue
		}
		r := ext.Result
		fmt.Fprintf(w, "%s\tcourse=%s net=%d gain=%d paid=%d valid=%t\n", f, r.Course, r.Net, r.Detail.Gain, r.Detail.Paid, ext.Valid)
	}
	return len(files)
}
