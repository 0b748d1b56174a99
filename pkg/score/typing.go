package score

import (
	"regexp"
	"sort"
	"strings"
)

const (
	correctMin     = 10
	correctMax     = 200
	correctScanMax = 300
	missMin        = 0
	missMax        = 50
	tpsMin         = 0.1
	tpsMax         = 10.0
)

// The result screen shows "correct / average per second / miss" side by side
// and OCR tends to run them together.
var (
	correctPatterns = []*regexp.Regexp{
		regexp.MustCompile(`正しく打ったキーの数\s*[:：]?\s*(\d+)`),
		regexp.MustCompile(`(?:打った|キーの数|キー数)\s*[:：]?\s*(\d+)`),
		regexp.MustCompile(`(?:^|[^\d.,])(\d+)\s*回`),
	}

	triadRE = regexp.MustCompile(`(\d+)\s*回\s*(\d{2})\s*[。．.,、・:;\s]\s*(\d+)`)

	missPatterns = []*regexp.Regexp{
		regexp.MustCompile(`ミスタイプ数?\s*[:：]?\s*(\d+)`),
		regexp.MustCompile(`ミス\s*[:：]?\s*(\d+)`),
	}

	tpsPatterns = []*regexp.Regexp{
		regexp.MustCompile(`平均(?:キー)?(?:タイプ数)?\s*[:：]?\s*(\d+(?:\.\d+)?)`),
		regexp.MustCompile(`(\d+\.\d+)\s*回\s*/\s*秒`),
		regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:回/秒|/秒|per second)`),
	}

	decimalRE = regexp.MustCompile(`\d+\.\d+`)
)

// fragmentThroughput decodes the two digits left when OCR loses the decimal
// point of the throughput value. Only observed fragments are listed.
var fragmentThroughput = map[string]float64{
	"06": 0.6,
	"07": 0.7,
	"10": 1.0,
}

// moneyArtifacts are integers that come from money lines and are never
// keystroke counts.
var moneyArtifacts = map[int]bool{
	1160: true,
	160:  true,
}

// typingState tracks which fields have been decided; zero is a legal value for
// every field so presence is kept separately.
type typingState struct {
	Typing
	hasCorrect, hasMiss, hasTPS bool
}

func (s *typingState) setCorrect(v int) {
	if !s.hasCorrect && inRange(v, correctMin, correctMax) {
		s.Correct, s.hasCorrect = v, true
	}
}

func (s *typingState) setMiss(v int) {
	if !s.hasMiss && inRange(v, missMin, missMax) {
		s.Miss, s.hasMiss = v, true
	}
}

func (s *typingState) setTPS(v float64) {
	if !s.hasTPS && inRangeF(v, tpsMin, tpsMax) {
		s.AverageTPS, s.hasTPS = v, true
	}
}

func (s *typingState) done() bool { return s.hasCorrect && s.hasMiss && s.hasTPS }

// typingStages run in order; each only fills fields still unset.
var typingStages = []func(*typingState, string){
	correctFromKeywords,
	fromTriad,
	missFromKeywords,
	tpsFromKeywords,
	tpsFromDecimal,
	inferFromNumbers,
}

// ExtractTyping recovers correct keystrokes, misses and average keys per
// second. Unrecoverable fields stay zero.
func ExtractTyping(text string) Typing {
	var st typingState
	for _, stage := range typingStages {
		if st.done() {
			break
		}
		stage(&st, text)
	}
	return st.Typing
}

func correctFromKeywords(st *typingState, text string) {
	if st.hasCorrect {
		return
	}
	for _, re := range correctPatterns {
		raw, ok := firstSubmatch(re, text)
		if !ok {
			continue
		}
		if v, ok := parseAmount(raw); ok {
			st.setCorrect(v)
		}
		if st.hasCorrect {
			return
		}
	}
}

// fromTriad handles runs like "35回06。20".
func fromTriad(st *typingState, text string) {
	m := triadRE.FindStringSubmatch(text)
	if len(m) < 4 {
		return
	}
	if v, ok := parseAmount(m[1]); ok {
		st.setCorrect(v)
	}
	if v, ok := parseAmount(m[3]); ok {
		st.setMiss(v)
	}
	if v, ok := fragmentThroughput[m[2]]; ok {
		st.setTPS(v)
	}
}

func missFromKeywords(st *typingState, text string) {
	if st.hasMiss {
		return
	}
	for _, re := range missPatterns {
		raw, ok := firstSubmatch(re, text)
		if !ok {
			continue
		}
		if v, ok := parseAmount(raw); ok {
			st.setMiss(v)
		}
		if st.hasMiss {
			return
		}
	}
}

func tpsFromKeywords(st *typingState, text string) {
	if st.hasTPS {
		return
	}
	for _, re := range tpsPatterns {
		raw, ok := firstSubmatch(re, text)
		if !ok {
			continue
		}
		if v, ok := tpsValue(raw); ok {
			st.setTPS(v)
		}
		if st.hasTPS {
			return
		}
	}
}

// tpsValue reads a throughput capture. A value without a decimal point lost it
// to OCR and is only accepted through fragmentThroughput, so "06" is 0.6 and
// never 6.0.
func tpsValue(raw string) (float64, bool) {
	if strings.Contains(raw, ".") {
		return parseDecimal(raw)
	}
	v, ok := fragmentThroughput[raw]
	return v, ok
}

func tpsFromDecimal(st *typingState, text string) {
	if st.hasTPS {
		return
	}
	for _, raw := range decimalRE.FindAllString(text, -1) {
		if v, ok := parseDecimal(raw); ok {
			st.setTPS(v)
		}
		if st.hasTPS {
			return
		}
	}
}

// inferFromNumbers is the last resort: pick plausible values from every bare
// number in the text. Grouped tokens such as "1,160" are money and skipped.
func inferFromNumbers(st *typingState, text string) {
	var ints []int
	var decimals []float64
	for _, t := range scanTokens(text) {
		if t.grouped {
			continue
		}
		if t.decimal {
			if v, ok := t.floatValue(); ok {
				decimals = append(decimals, v)
			}
			continue
		}
		if v, ok := t.intValue(); ok {
			ints = append(ints, v)
		}
	}
	if !st.hasCorrect {
		// inferred counts may exceed the keyword range, up to correctScanMax
		if v, ok := inferCorrect(ints); ok {
			st.Correct, st.hasCorrect = v, true
		}
	}
	if !st.hasMiss {
		if v, ok := inferMiss(ints, st.Correct, st.hasCorrect); ok {
			st.setMiss(v)
		}
	}
	if !st.hasTPS {
		if v, ok := inferTPS(ints, decimals); ok {
			st.setTPS(v)
		}
	}
}

// inferCorrect prefers two-digit counts and, among them, the smallest: large
// values are more often merged digits than real counts.
func inferCorrect(ints []int) (int, bool) {
	var all, preferred []int
	for _, v := range ints {
		if !inRange(v, correctMin, correctScanMax) || moneyArtifacts[v] {
			continue
		}
		all = append(all, v)
		if inRange(v, 20, 99) {
			preferred = append(preferred, v)
		}
	}
	if len(preferred) > 0 {
		return minInt(preferred), true
	}
	if len(all) > 0 {
		return minInt(all), true
	}
	return 0, false
}

// inferMiss picks the largest candidate below the correct count, since misses
// rarely exceed correct keystrokes.
func inferMiss(ints []int, correct int, hasCorrect bool) (int, bool) {
	var cands, below []int
	for _, v := range ints {
		if !inRange(v, missMin, missMax) {
			continue
		}
		if hasCorrect && v == correct {
			continue
		}
		cands = append(cands, v)
		if hasCorrect && v < correct {
			below = append(below, v)
		}
	}
	if len(below) > 0 {
		return maxInt(below), true
	}
	if len(cands) > 0 {
		return minInt(cands), true
	}
	return 0, false
}

func inferTPS(ints []int, decimals []float64) (float64, bool) {
	for _, v := range decimals {
		if inRangeF(v, tpsMin, tpsMax) {
			return v, true
		}
	}
	for _, v := range ints {
		if v == 10 {
			return 1.0, true
		}
	}
	return 0, false
}

func minInt(vs []int) int {
	s := append([]int(nil), vs...)
	sort.Ints(s)
	return s[0]
}

func maxInt(vs []int) int {
	s := append([]int(nil), vs...)
	sort.Ints(s)
	return s[len(s)-1]
}
