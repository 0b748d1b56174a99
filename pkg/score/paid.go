package score

import "regexp"

const (
	paidMin = 1000
	paidMax = 10000
)

var paidPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d[\d,]*)\s*円\s*払って`),
	regexp.MustCompile(`(\d[\d,]*)\s*円\s*コース`),
	regexp.MustCompile(`(\d[\d,]*)\s*払`),
}

// ExtractPaid returns the amount paid for the course, 0 when unknown.
func ExtractPaid(text string) int {
	if v, ok := paidFromPatterns(text); ok {
		return v
	}
	if c, ok := courseFromPrice(scanTokens(text)); ok {
		return c.Price()
	}
	return 0
}

func paidFromPatterns(text string) (int, bool) {
	for _, re := range paidPatterns {
		raw, ok := firstSubmatch(re, text)
		if !ok {
			continue
		}
		v, ok := parseAmount(raw)
		if !ok || !inRange(v, paidMin, paidMax) {
			continue
		}
		return v, true
	}
	return 0, false
}
