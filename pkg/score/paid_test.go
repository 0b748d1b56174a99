package score

import "testing"

func TestExtractPaid(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"3,000円払って", 3000},
		{"5,000 円 払って", 5000},
		{"10,000円コース", 10000},
		{"5000払", 5000},
		{"500円払って", 0},
		{"お手軽 3000", 3000},
		{"10,000", 10000},
		{"普通", 0},
		{"", 0},
	}
	for _, c := range cases {
		if got := ExtractPaid(c.text); got != c.want {
			t.Errorf("ExtractPaid(%q)=%d want %d", c.text, got, c.want)
		}
	}
}
