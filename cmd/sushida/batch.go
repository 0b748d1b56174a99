package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/spf13/cobra"

	"sushida/pkg/history"
	"sushida/pkg/ocr"
	"sushida/pkg/output"
)

var errUnsupportedImage = errors.New("サポートされていない画像形式")

type batchItem struct {
	path string
	ex   ocr.Extraction
	err  error
}

func newBatchCmd(a *app) *cobra.Command {
	var out outputFlags
	var debug, continueOnError, table bool
	var workers int
	cmd := &cobra.Command{
		Use:   "batch <image>...",
		Short: "複数の画像ファイルを一括処理",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, scoreDir, err := out.resolve(cmd, a)
			if err != nil {
				return err
			}
			return a.runBatch(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args, batchOptions{
				out:             out,
				format:          format,
				scoreDir:        scoreDir,
				debug:           debug,
				continueOnError: continueOnError,
				table:           table,
				workers:         workers,
			})
		},
	}
	out.register(cmd, "output directory")
	cmd.Flags().BoolVar(&debug, "debug", false, "log every OCR pass")
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "keep going when a file fails")
	cmd.Flags().BoolVar(&table, "table", false, "print the results as a table")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker pool size (default NumCPU)")
	return cmd
}

type batchOptions struct {
	out             outputFlags
	format          output.Format
	scoreDir        string
	debug           bool
	continueOnError bool
	table           bool
	workers         int
}

func effectiveWorkers(w int) int {
	if w <= 0 {
		return runtime.NumCPU()
	}
	return w
}

func (a *app) runBatch(ctx context.Context, stdout, stderr io.Writer, paths []string, opts batchOptions) error {
	_, _ = fmt.Fprintf(stderr, "🍣 %d個のファイルを処理中...\n", len(paths))
	items := a.extractAll(ctx, paths, opts)

	var ok []batchItem
	var failed []batchItem
	for _, it := range items {
		if it.err != nil {
			failed = append(failed, it)
		} else {
			ok = append(ok, it)
		}
	}
	if len(failed) > 0 && !opts.continueOnError {
		first := failed[0]
		return fmt.Errorf("%s: %w", first.path, first.err)
	}

	_, _ = fmt.Fprintf(stdout, "✅ 処理完了: %d件成功, %d件失敗\n", len(ok), len(failed))
	if len(failed) > 0 {
		_, _ = fmt.Fprintln(stdout, "❌ 失敗したファイル:")
		for _, it := range failed {
			_, _ = fmt.Fprintf(stdout, "  %s: %v\n", it.path, it.err)
		}
	}
	if len(ok) == 0 {
		return fmt.Errorf("処理可能なファイルがありませんでした")
	}

	recs := make([]output.Record, len(ok))
	entries := make([]history.Entry, len(ok))
	for i, it := range ok {
		recs[i] = output.NewRecord(it.path, it.ex.Result, a.now())
		entries[i] = entryFor(recs[i], it.ex)
	}
	if opts.table {
		if err := output.RenderTable(stdout, recs); err != nil {
			return err
		}
	}
	if err := a.saveBatch(stdout, recs, opts); err != nil {
		return err
	}
	if !opts.out.noHistory {
		a.recordHistory(ctx, entries)
	}
	return nil
}

// extractAll runs the extractor over paths with a bounded worker pool. Results
// keep the input order. Without continueOnError the first failure cancels the
// files not yet started.
func (a *app) extractAll(ctx context.Context, paths []string, opts batchOptions) []batchItem {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	items := make([]batchItem, len(paths))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < effectiveWorkers(opts.workers); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ext := a.newExtractor(a, opts.debug)
			for idx := range jobs {
				items[idx] = a.extractOne(ctx, ext, paths[idx])
				if items[idx].err != nil && !opts.continueOnError {
					cancel()
				}
			}
		}()
	}
	for i := range paths {
		if ctx.Err() != nil {
			items[i] = batchItem{path: paths[i], err: ctx.Err()}
			continue
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return items
}

func (a *app) extractOne(ctx context.Context, ext extractor, path string) batchItem {
	if err := ctx.Err(); err != nil {
		return batchItem{path: path, err: err}
	}
	if !output.IsImageFile(path) {
		return batchItem{path: path, err: errUnsupportedImage}
	}
	ex, err := ext.ExtractScore(ctx, path)
	if err != nil {
		log.Printf("batch extract failed file=%s err=%v", path, err)
		return batchItem{path: path, err: err}
	}
	return batchItem{path: path, ex: ex}
}

// saveBatch writes one file per record for JSON and a single file otherwise.
func (a *app) saveBatch(stdout io.Writer, recs []output.Record, opts batchOptions) error {
	dir := opts.out.path
	explicit := dir != ""
	if !explicit {
		dir = opts.scoreDir
	}
	if opts.format == output.JSON {
		for _, r := range recs {
			dst := filepath.Join(dir, stem(r.File)+".json")
			if err := output.Save(dst, output.JSON, []output.Record{r}); err != nil {
				return err
			}
		}
		_, _ = fmt.Fprintf(stdout, "💾 %d個のファイルを保存: %s\n", len(recs), dir)
		return nil
	}
	name := "batch_results" + opts.format.Ext()
	if !explicit {
		name = fmt.Sprintf("batch_results_%s%s", a.now().Format("20060102_150405"), opts.format.Ext())
	}
	dst := filepath.Join(dir, name)
	if err := output.Save(dst, opts.format, recs); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "💾 結果を保存: %s\n", dst)
	return nil
}
