package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sushida/pkg/config"
	"sushida/pkg/history"
	"sushida/pkg/ocr"
	"sushida/pkg/output"
	"sushida/pkg/score"
)

var errAppendNeedsJSON = errors.New("--append は JSON 形式でのみ使用できます")

type outputFlags struct {
	path      string
	format    string
	noHistory bool
	// analyze only
	appendJSON bool
	backup     bool
}

func (o *outputFlags) register(cmd *cobra.Command, pathUsage string) {
	cmd.Flags().StringVarP(&o.path, "output", "o", "", pathUsage)
	cmd.Flags().StringVar(&o.format, "format", "json", "output format: json|csv|yaml|xlsx")
	cmd.Flags().BoolVar(&o.noHistory, "no-history", false, "do not record results in the history database")
}

// resolve applies the config file defaults and parses the format.
func (o *outputFlags) resolve(cmd *cobra.Command, a *app) (output.Format, string, error) {
	applyStringConfig(cmd, "format", &o.format, a.fileCfg.Output.Format)
	f, err := output.ParseFormat(o.format)
	if err != nil {
		return "", "", err
	}
	dir := config.DefaultScoreDir()
	if a.fileCfg.Output.Dir != nil && *a.fileCfg.Output.Dir != "" {
		dir = *a.fileCfg.Output.Dir
	}
	return f, dir, nil
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var out outputFlags
	var debug, quiet bool
	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "単一の画像ファイルを解析してスコアデータを抽出",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, scoreDir, err := out.resolve(cmd, a)
			if err != nil {
				return err
			}
			return a.runAnalyze(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], out, format, scoreDir, debug, quiet)
		},
	}
	out.register(cmd, "output file path (extension added when missing)")
	cmd.Flags().BoolVar(&out.appendJSON, "append", false, "append to an existing JSON result list instead of overwriting")
	cmd.Flags().BoolVar(&out.backup, "backup", false, "keep a timestamped copy of an existing output file")
	cmd.Flags().BoolVar(&debug, "debug", false, "print every OCR pass and the raw text")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only print errors")
	return cmd
}

func (a *app) runAnalyze(ctx context.Context, stdout, stderr io.Writer, imagePath string, out outputFlags, format output.Format, scoreDir string, debug, quiet bool) error {
	progress := func(msg string, args ...any) {
		if !quiet {
			_, _ = fmt.Fprintf(stderr, msg+"\n", args...)
		}
	}
	if out.appendJSON && format != output.JSON {
		return errAppendNeedsJSON
	}
	progress("🍣 画像を解析中: %s", imagePath)
	progress("📁 ファイルサイズ: %s", output.FileSize(imagePath))
	if !output.IsImageFile(imagePath) {
		return fmt.Errorf("サポートされていない画像形式です: %s", imagePath)
	}

	progress("🔍 OCR処理中...")
	ex, err := a.newExtractor(a, debug).ExtractScore(ctx, imagePath)
	if err != nil {
		if errors.Is(err, ocr.ErrNoText) {
			return fmt.Errorf("画像からテキストを抽出できませんでした: %w", err)
		}
		if debug && ex.Text != "" {
			_, _ = fmt.Fprintf(stderr, "抽出されたテキスト:\n%s\n", ex.Text)
		}
		return fmt.Errorf("スコアデータを抽出できませんでした: %w", err)
	}
	if debug {
		_, _ = fmt.Fprintf(stderr, "抽出されたテキスト (%s):\n%s\n", ex.Pass, ex.Text)
	}
	if !quiet {
		_, _ = fmt.Fprintln(stdout, score.FormatSummary(ex.Result))
	}
	if !ex.Valid {
		_, _ = fmt.Fprintf(stderr, "⚠️  検証警告: %s\n", strings.Join(ex.Problems, ", "))
	}

	rec := output.NewRecord(imagePath, ex.Result, a.now())
	dst := out.path
	if dst == "" {
		dst = filepath.Join(scoreDir, stem(imagePath)+format.Ext())
	} else {
		dst = output.ResolvePath(dst, format)
	}
	if out.backup {
		if err := backupExisting(dst, a.now()); err != nil {
			return err
		}
	}
	if out.appendJSON {
		err = output.AppendJSON(dst, rec)
	} else {
		err = output.Save(dst, format, []output.Record{rec})
	}
	if err != nil {
		return err
	}
	progress("💾 結果を保存: %s", dst)

	if !out.noHistory {
		a.recordHistory(ctx, []history.Entry{entryFor(rec, ex)})
	}
	return nil
}

func entryFor(rec output.Record, ex ocr.Extraction) history.Entry {
	return history.Entry{
		File:   rec.File,
		Valid:  ex.Valid,
		Text:   ex.Text,
		Result: ex.Result,
	}
}

// recordHistory stores entries in the local database. Failures are logged and
// never fail the command.
func (a *app) recordHistory(ctx context.Context, entries []history.Entry) {
	st, err := history.Open(a.dbPath)
	if err != nil {
		log.Printf("history open failed path=%s err=%v", a.dbPath, err)
		return
	}
	defer st.Close()
	for _, e := range entries {
		e.AnalyzedAt = a.now()
		if _, err := st.Insert(ctx, e); err != nil {
			log.Printf("history insert failed file=%s err=%v", e.File, err)
		}
	}
}

// backupExisting copies dst to its backup name when it exists.
func backupExisting(dst string, at time.Time) error {
	data, err := os.ReadFile(dst)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", dst, err)
	}
	if err := os.WriteFile(output.BackupName(dst, at), data, 0o644); err != nil {
		return fmt.Errorf("backup %s: %w", dst, err)
	}
	return nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
