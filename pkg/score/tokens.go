package score

import (
	"regexp"
	"strconv"
	"strings"
)

// numberRE matches a digit run with optional thousands groups and decimals.
var numberRE = regexp.MustCompile(`\d+(?:,\d{3})*(?:\.\d+)?`)

// token is one numeric token found in a transcript.
type token struct {
	raw     string
	grouped bool // contained a thousands separator
	decimal bool // contained a decimal point
}

func scanTokens(text string) []token {
	raws := numberRE.FindAllString(text, -1)
	out := make([]token, 0, len(raws))
	for _, r := range raws {
		out = append(out, token{
			raw:     r,
			grouped: strings.Contains(r, ","),
			decimal: strings.Contains(r, "."),
		})
	}
	return out
}

// intValue strips separators and parses the token as an integer.
func (t token) intValue() (int, bool) {
	if t.decimal {
		return 0, false
	}
	return parseAmount(t.raw)
}

func (t token) floatValue() (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(t.raw, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseAmount removes thousands separators and parses s. Malformed input is a
// non-match rather than an error.
func parseAmount(s string) (int, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseDecimal(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// hasToken reports whether any whole numeric token equals one of lits.
func hasToken(tokens []token, lits ...string) bool {
	for _, t := range tokens {
		for _, l := range lits {
			if t.raw == l {
				return true
			}
		}
	}
	return false
}

// firstSubmatch returns the first capture group of re in text.
func firstSubmatch(re *regexp.Regexp, text string) (string, bool) {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

func inRange(v, lo, hi int) bool { return v >= lo && v <= hi }

func inRangeF(v, lo, hi float64) bool { return v >= lo && v <= hi }
