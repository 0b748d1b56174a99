package output

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"sushida/pkg/score"
)

var tableHeader = []string{"file", "course", "result", "gain", "paid", "correct", "miss", "tps"}

// RenderTable writes recs as an aligned text table. Column widths use display
// width so Japanese file names line up.
func RenderTable(w io.Writer, recs []Record) error {
	rows := [][]string{tableHeader}
	for _, r := range recs {
		label := r.Course.Label()
		if label == "" {
			label = string(r.Course)
		}
		rows = append(rows, []string{
			filepath.Base(r.File),
			label,
			score.FormatYen(r.Net, true),
			score.FormatYen(r.Detail.Gain, false),
			score.FormatYen(r.Detail.Paid, false),
			strconv.Itoa(r.Typing.Correct),
			strconv.Itoa(r.Typing.Miss),
			fmt.Sprintf("%.1f", r.Typing.AverageTPS),
		})
	}
	widths := make([]int, len(tableHeader))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if i >= 2 {
				cells[i] = runewidth.FillLeft(cell, widths[i])
			} else {
				cells[i] = runewidth.FillRight(cell, widths[i])
			}
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " ")); err != nil {
			return err
		}
	}
	return nil
}
