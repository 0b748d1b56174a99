// Package score turns the noisy OCR transcript of a Sushida result screen into
// a typed score record.
package score

// Course is the price tier that was played.
type Course string

const (
	Casual   Course = "casual"
	Standard Course = "standard"
	Premium  Course = "premium"
)

// Courses lists every known tier in price order.
var Courses = []Course{Casual, Standard, Premium}

// courseLabels are the on-screen names of each tier.
var courseLabels = map[Course]string{
	Casual:   "お手軽",
	Standard: "普通",
	Premium:  "高級",
}

// coursePrices are the canonical amounts paid to play each tier.
var coursePrices = map[Course]int{
	Casual:   3000,
	Standard: 5000,
	Premium:  10000,
}

// Label returns the Japanese label shown on the result screen.
func (c Course) Label() string { return courseLabels[c] }

// Price returns the canonical amount paid for the tier, 0 for unknown tiers.
func (c Course) Price() int { return coursePrices[c] }

// Known reports whether c is one of the three tiers.
func (c Course) Known() bool {
	_, ok := coursePrices[c]
	return ok
}

// ParseCourse accepts either the english name or the on-screen label.
func ParseCourse(s string) (Course, bool) {
	for _, c := range Courses {
		if s == string(c) || s == c.Label() {
			return c, true
		}
	}
	return "", false
}

// Detail holds the money side of a result.
type Detail struct {
	Paid int `json:"payed" yaml:"payed"`
	Gain int `json:"gain" yaml:"gain"`
}

// Typing holds the keystroke statistics of a result.
type Typing struct {
	Correct    int     `json:"correct" yaml:"correct"`
	Miss       int     `json:"miss" yaml:"miss"`
	AverageTPS float64 `json:"avarageTPS" yaml:"avarageTPS"`
}

// Result is one parsed result screen. Net is always Gain - Paid.
type Result struct {
	Course Course `json:"course" yaml:"course"`
	Net    int    `json:"result" yaml:"result"`
	Detail Detail `json:"detail" yaml:"detail"`
	Typing Typing `json:"typing" yaml:"typing"`
}

func newResult(course Course, gain, paid int, typing Typing) Result {
	return Result{
		Course: course,
		Net:    gain - paid,
		Detail: Detail{Paid: paid, Gain: gain},
		Typing: typing,
	}
}
