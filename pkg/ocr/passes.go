package ocr

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"sushida/pkg/score"
)

// Candidate is the text produced by one recognition pass.
type Candidate struct {
	Pass string
	Text string
	Err  error
}

// Acquirer runs several recognition passes over a screenshot and keeps the
// richest transcript.
type Acquirer struct {
	Recognizer Recognizer
	Options    Options
	MinWidth   int
	// Preprocess overrides the default pipeline; nil uses Preprocess.
	Preprocess func(img image.Image, minWidth int) *image.NRGBA
	Parser     *score.Parser
	Debug      bool
}

// NewAcquirer returns an Acquirer backed by Tesseract with default options.
func NewAcquirer() *Acquirer {
	return &Acquirer{
		Recognizer: TesseractRecognizer{},
		Options:    DefaultOptions(),
		MinWidth:   DefaultMinWidth,
	}
}

type pass struct {
	name string
	path string
	psm  gosseract.PageSegMode
}

// Candidates runs every pass over the image at path. Pass failures are kept on
// the candidate; only setup errors and cancellation are returned.
func (a *Acquirer) Candidates(ctx context.Context, path string) ([]Candidate, error) {
	src, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	pre := a.Preprocess
	if pre == nil {
		pre = Preprocess
	}
	prep := pre(src, a.MinWidth)

	dir, err := os.MkdirTemp("", "sushida-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	prepPath := filepath.Join(dir, "prep.png")
	if err := imaging.Save(prep, prepPath); err != nil {
		return nil, fmt.Errorf("save preprocessed: %w", err)
	}
	invPath := filepath.Join(dir, "inv.png")
	if err := imaging.Save(imaging.Invert(prep), invPath); err != nil {
		return nil, fmt.Errorf("save inverted: %w", err)
	}

	passes := []pass{
		{"preprocessed", prepPath, a.Options.PSM},
		{"original", path, a.Options.PSM},
		{"inverted", invPath, a.Options.PSM},
		{"single-column", prepPath, gosseract.PSM_SINGLE_COLUMN},
		{"sparse", prepPath, gosseract.PSM_SPARSE_TEXT},
	}
	rec := a.Recognizer
	if rec == nil {
		rec = TesseractRecognizer{}
	}
	out := make([]Candidate, 0, len(passes))
	for _, p := range passes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		opts := a.Options
		opts.PSM = p.psm
		text, err := rec.Recognize(ctx, p.path, opts)
		if err != nil {
			log.Printf("OCR pass failed file=%s pass=%s err=%v", path, p.name, err)
		} else if a.Debug {
			log.Printf("OCR pass file=%s pass=%s runes=%d snippet=%q", path, p.name, weight(text), snippet(text, 120))
		}
		out = append(out, Candidate{Pass: p.name, Text: text, Err: err})
	}
	return out, nil
}

// Best returns the candidate with the most non-space runes; ties go to the
// earlier pass.
func Best(cands []Candidate) (Candidate, error) {
	best, bestW := -1, 0
	var lastErr error
	for i, c := range cands {
		if c.Err != nil {
			lastErr = c.Err
			continue
		}
		if w := weight(c.Text); w > bestW {
			best, bestW = i, w
		}
	}
	if best < 0 {
		if lastErr != nil {
			return Candidate{}, fmt.Errorf("%w: %v", ErrNoText, lastErr)
		}
		return Candidate{}, ErrNoText
	}
	return cands[best], nil
}

// ExtractText returns the best transcript of the image at path.
func (a *Acquirer) ExtractText(ctx context.Context, path string) (Candidate, error) {
	cands, err := a.Candidates(ctx, path)
	if err != nil {
		return Candidate{}, err
	}
	best, err := Best(cands)
	if err != nil {
		return Candidate{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	log.Printf("OCR passes summary file=%s passes=%d chosen=%s runes=%d", path, len(cands), best.Pass, weight(best.Text))
	return best, nil
}

// Extraction is the outcome of reading and parsing one screenshot.
type Extraction struct {
	Text     string
	Pass     string
	Result   score.Result
	Valid    bool
	Problems []string
}

// ExtractScore reads the screenshot at path and parses the transcript.
func (a *Acquirer) ExtractScore(ctx context.Context, path string) (Extraction, error) {
	best, err := a.ExtractText(ctx, path)
	if err != nil {
		return Extraction{}, err
	}
	p := a.Parser
	if p == nil {
		p = score.NewParser(nil)
	}
	res, valid, err := p.Parse(best.Text)
	if err != nil {
		return Extraction{Text: best.Text, Pass: best.Pass}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return Extraction{
		Text:     best.Text,
		Pass:     best.Pass,
		Result:   res,
		Valid:    valid,
		Problems: score.Problems(res),
	}, nil
}
