package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sushida/pkg/history"
	"sushida/pkg/output"
	"sushida/pkg/score"
)

func newHistoryCmd(a *app) *cobra.Command {
	var course, since string
	var last int
	var summary bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "解析済みの結果を表示",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := history.Filter{Last: last}
			if course != "" {
				c, ok := score.ParseCourse(course)
				if !ok {
					return fmt.Errorf("unknown course %q (casual|standard|premium)", course)
				}
				f.Course = c
			}
			if since != "" {
				t, err := time.ParseInLocation("2006-01-02", since, time.Local)
				if err != nil {
					return fmt.Errorf("--since must be YYYY-MM-DD: %w", err)
				}
				f.Since = &t
			}
			st, err := history.Open(a.dbPath)
			if err != nil {
				return fmt.Errorf("failed to open db: %w", err)
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			if summary {
				rows, err := st.Summary(cmd.Context(), f)
				if err != nil {
					return err
				}
				if len(rows) == 0 {
					_, _ = fmt.Fprintln(out, "no results")
					return nil
				}
				for _, r := range rows {
					label := r.Course.Label()
					if label == "" {
						label = string(r.Course)
					}
					_, _ = fmt.Fprintf(out, "%s\t%d回\t合計%s円\t最高%s円\t平均%.1f回/秒\n",
						label, r.Count, score.FormatYen(r.TotalNet, true), score.FormatYen(r.BestNet, true), r.AvgTPS)
				}
				return nil
			}
			entries, err := st.List(cmd.Context(), f)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				_, _ = fmt.Fprintln(out, "no results")
				return nil
			}
			recs := make([]output.Record, len(entries))
			for i, e := range entries {
				recs[i] = output.NewRecord(e.File, e.Result, e.AnalyzedAt)
			}
			return output.RenderTable(out, recs)
		},
	}
	cmd.Flags().StringVar(&course, "course", "", "filter by course: casual|standard|premium")
	cmd.Flags().StringVar(&since, "since", "", "only results analyzed on or after YYYY-MM-DD")
	cmd.Flags().IntVar(&last, "last", 0, "only the most recent N results")
	cmd.Flags().BoolVar(&summary, "summary", false, "aggregate per course")
	return cmd
}
