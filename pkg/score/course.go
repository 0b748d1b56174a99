package score

import "regexp"

// courseLabelRE also accepts 手軽 because OCR often drops the leading お.
var courseLabelRE = regexp.MustCompile(`(お手軽|手軽|普通|高級)`)

var labelCourse = map[string]Course{
	"お手軽": Casual,
	"手軽":  Casual,
	"普通":  Standard,
	"高級":  Premium,
}

// priceLiterals maps whole amount tokens to the tier they are charged for.
// Checked in this order.
var priceLiterals = []struct {
	course Course
	lits   []string
}{
	{Casual, []string{"3000", "3,000"}},
	{Standard, []string{"5000", "5,000"}},
	{Premium, []string{"10000", "10,000"}},
}

// ExtractCourse determines the course tier. It never fails: a label wins over
// a price token, and casual is the final fallback.
func ExtractCourse(text string) Course {
	if c, ok := courseFromLabel(text); ok {
		return c
	}
	if c, ok := courseFromPrice(scanTokens(text)); ok {
		return c
	}
	return defaultCourse()
}

func courseFromLabel(text string) (Course, bool) {
	label, ok := firstSubmatch(courseLabelRE, text)
	if !ok {
		return "", false
	}
	c, ok := labelCourse[label]
	return c, ok
}

func courseFromPrice(tokens []token) (Course, bool) {
	for _, p := range priceLiterals {
		if hasToken(tokens, p.lits...) {
			return p.course, true
		}
	}
	return "", false
}

func defaultCourse() Course { return Casual }
