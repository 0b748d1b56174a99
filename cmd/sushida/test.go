package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sushida/pkg/ocr"
	"sushida/pkg/output"
)

func newTestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "test <image>",
		Short: "画像に対してOCRテストを実行（デバッグ用）",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path := args[0]
			_, _ = fmt.Fprintf(out, "🔍 OCRテスト: %s\n", path)

			ext := a.newExtractor(a, true)
			cands, err := ext.Candidates(cmd.Context(), path)
			if err != nil {
				return err
			}
			rule := strings.Repeat("=", 50)
			for _, c := range cands {
				_, _ = fmt.Fprintln(out, rule)
				if c.Err != nil {
					_, _ = fmt.Fprintf(out, "[%s] エラー: %v\n", c.Pass, c.Err)
					continue
				}
				_, _ = fmt.Fprintf(out, "[%s] 抽出されたテキスト:\n%s\n", c.Pass, c.Text)
			}
			_, _ = fmt.Fprintln(out, rule)

			best, err := ocr.Best(cands)
			if err != nil {
				_, _ = fmt.Fprintln(out, "❌ パースに失敗しました")
				return err
			}
			res, valid, err := a.parser().Parse(best.Text)
			if err != nil {
				_, _ = fmt.Fprintln(out, "❌ パースに失敗しました")
				return err
			}
			_, _ = fmt.Fprintf(out, "パース結果 (pass=%s valid=%v):\n", best.Pass, valid)
			return output.WriteJSON(out, res)
		},
	}
}

func newSetupTestCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "setup-test",
		Short: "OCR環境のセットアップをテスト",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "🔧 OCR環境をテスト中...")
			text, err := ocr.SelfTest(cmd.Context(), ocr.TesseractRecognizer{})
			if err != nil {
				_, _ = fmt.Fprintln(out, "❌ OCR環境に問題があります")
				return err
			}
			_, _ = fmt.Fprintln(out, "✅ OCR環境は正常に動作しています")
			_, _ = fmt.Fprintf(out, "Tesseractバージョン: %s\n", ocr.Version())
			_, _ = fmt.Fprintf(out, "認識結果: %q\n", text)
			return nil
		},
	}
}
