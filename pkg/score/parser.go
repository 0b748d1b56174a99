package score

import (
	"fmt"
	"log"
	"strings"
)

// Parser runs the extraction pipeline. The zero value logs to the standard
// logger.
type Parser struct {
	Logger *log.Logger
}

// NewParser returns a Parser that writes diagnostics to logger.
func NewParser(logger *log.Logger) *Parser {
	return &Parser{Logger: logger}
}

var defaultParser = &Parser{}

// Parse parses raw with the default parser.
func Parse(raw string) (Result, bool, error) {
	return defaultParser.Parse(raw)
}

// Parse turns an OCR transcript into a Result. valid is false when the result
// fails validation; the result is returned anyway. The only errors are
// ErrEmptyInput and ErrInternalFault.
func (p *Parser) Parse(raw string) (res Result, valid bool, err error) {
	if strings.TrimSpace(raw) == "" {
		return Result{}, false, ErrEmptyInput
	}
	defer func() {
		if r := recover(); r != nil {
			res, valid = Result{}, false
			err = fmt.Errorf("%w: %v", ErrInternalFault, r)
			p.logf("score parse fault: %v", r)
		}
	}()

	text := Normalize(raw)
	course := ExtractCourse(text)
	gain := ExtractGain(text)
	paid := ExtractPaid(text)
	typing := ExtractTyping(text)

	res = newResult(course, gain, paid, typing)
	if problems := Problems(res); len(problems) > 0 {
		p.logf("score validation warning problems=%q text=%q", problems, snippet(text, 120))
		return res, false, nil
	}
	return res, true, nil
}

func (p *Parser) logf(format string, args ...any) {
	if p.Logger != nil {
		p.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// snippet shortens s to at most max runes for logging.
func snippet(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}
