package score

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatSummary renders r for terminal output.
func FormatSummary(r Result) string {
	label := r.Course.Label()
	if label == "" {
		label = string(r.Course)
	}
	var b strings.Builder
	b.WriteString("解析完了!\n")
	fmt.Fprintf(&b, "コース: %s\n", label)
	fmt.Fprintf(&b, "結果: %s円\n", FormatYen(r.Net, true))
	fmt.Fprintf(&b, "詳細: %s円獲得 / %s円支払\n", FormatYen(r.Detail.Gain, false), FormatYen(r.Detail.Paid, false))
	fmt.Fprintf(&b, "タイピング: 正解%d回, ミス%d回, 平均%.1f回/秒", r.Typing.Correct, r.Typing.Miss, r.Typing.AverageTPS)
	return b.String()
}

// FormatYen groups n by thousands. signed forces a leading '+' for
// non-negative values.
func FormatYen(n int, signed bool) string {
	neg := n < 0
	if neg {
		n = -n
	}
	ds := strconv.Itoa(n)
	var parts []string
	for len(ds) > 3 {
		parts = append([]string{ds[len(ds)-3:]}, parts...)
		ds = ds[:len(ds)-3]
	}
	parts = append([]string{ds}, parts...)
	out := strings.Join(parts, ",")
	switch {
	case neg:
		return "-" + out
	case signed:
		return "+" + out
	}
	return out
}
