// Package main provides the sushida CLI: extract score data from Sushida
// result screenshots.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"sushida/pkg/config"
	"sushida/pkg/ocr"
	"sushida/pkg/score"
)

const version = "1.0.0"

// extractor is the part of ocr.Acquirer the commands use.
type extractor interface {
	Candidates(ctx context.Context, path string) ([]ocr.Candidate, error)
	ExtractScore(ctx context.Context, path string) (ocr.Extraction, error)
}

// app holds the settings shared by every command.
type app struct {
	configPath string
	lang       string
	whitelist  string
	blacklist  string
	psm        int
	minWidth   int
	dbPath     string
	verbose    bool

	fileCfg config.FileConfig

	newExtractor func(a *app, debug bool) extractor
	now          func() time.Time
}

func main() {
	if err := newRootCmd(newApp()).Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "エラー:", err)
		os.Exit(1)
	}
}

func newApp() *app {
	return &app{
		newExtractor: newAcquirer,
		now:          time.Now,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "sushida",
		Short:         "寿司打の結果画面からスコアデータを抽出する",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", config.DefaultConfigPath(), "config file path")
	pf.StringVar(&a.lang, "lang", "jpn", "tesseract language(s), '+' separated")
	pf.StringVar(&a.whitelist, "whitelist", ocr.DefaultWhitelist, "characters tesseract may return")
	pf.StringVar(&a.blacklist, "blacklist", "", "characters tesseract must not return")
	pf.IntVar(&a.psm, "psm", int(ocr.DefaultOptions().PSM), "tesseract page segmentation mode")
	pf.IntVar(&a.minWidth, "min-width", ocr.DefaultMinWidth, "upscale screenshots narrower than this")
	pf.StringVar(&a.dbPath, "db", config.DefaultDBPath(), "history database path")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log diagnostics to stderr")

	root.AddCommand(newAnalyzeCmd(a))
	root.AddCommand(newBatchCmd(a))
	root.AddCommand(newParseCmd(a))
	root.AddCommand(newTestCmd(a))
	root.AddCommand(newSetupTestCmd(a))
	root.AddCommand(newHistoryCmd(a))
	root.AddCommand(newConfigCmd(a))
	return root
}

// loadConfig reads the TOML file and fills every flag the user did not set.
func (a *app) loadConfig(cmd *cobra.Command) error {
	if a.verbose {
		log.SetOutput(cmd.ErrOrStderr())
	} else {
		log.SetOutput(io.Discard)
	}
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.fileCfg = cfg
	applyStringConfig(cmd, "lang", &a.lang, cfg.OCR.Lang)
	applyStringConfig(cmd, "whitelist", &a.whitelist, cfg.OCR.Whitelist)
	applyStringConfig(cmd, "blacklist", &a.blacklist, cfg.OCR.Blacklist)
	applyIntConfig(cmd, "psm", &a.psm, cfg.OCR.PSM)
	applyIntConfig(cmd, "min-width", &a.minWidth, cfg.OCR.MinWidth)
	applyStringConfig(cmd, "db", &a.dbPath, cfg.Output.DB)
	return nil
}

func (a *app) ocrOptions() ocr.Options {
	opts := ocr.DefaultOptions()
	opts.Lang = a.lang
	opts.Whitelist = a.whitelist
	opts.Blacklist = a.blacklist
	opts.PSM = ocr.PageSegMode(a.psm)
	return opts
}

func (a *app) parser() *score.Parser {
	return score.NewParser(log.Default())
}

func newAcquirer(a *app, debug bool) extractor {
	acq := ocr.NewAcquirer()
	acq.Options = a.ocrOptions()
	acq.MinWidth = a.minWidth
	acq.Parser = a.parser()
	acq.Debug = debug
	return acq
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}
