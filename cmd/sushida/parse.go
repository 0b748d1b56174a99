package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"sushida/pkg/output"
	"sushida/pkg/score"
)

func newParseCmd(a *app) *cobra.Command {
	var format string
	var quiet bool
	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "OCR済みのテキストをパースする",
		Long:  "Parse a transcript that was already recognized. Reads stdin when no file or '-' is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyStringConfig(cmd, "format", &format, a.fileCfg.Output.Format)
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			raw, err := readTranscript(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			res, valid, err := a.parser().Parse(raw)
			if err != nil {
				if errors.Is(err, score.ErrEmptyInput) {
					return fmt.Errorf("解析失敗: テキストが空です")
				}
				return fmt.Errorf("解析失敗: %w", err)
			}
			stdout := cmd.OutOrStdout()
			if !quiet {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), score.FormatSummary(res))
				if !valid {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  検証警告: %s\n", strings.Join(score.Problems(res), ", "))
				}
			}
			name := "-"
			if len(args) == 1 {
				name = args[0]
			}
			return output.Write(stdout, f, []output.Record{output.NewRecord(name, res, a.now())})
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json|csv|yaml")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print the summary")
	return cmd
}

func readTranscript(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}
	return string(data), nil
}
