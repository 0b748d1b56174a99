package ocr

import (
	"context"
	"errors"
	"image/color"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"sushida/pkg/score"
)

type call struct {
	path string
	opts Options
}

// fakeRecognizer returns texts in call order and records every call.
type fakeRecognizer struct {
	texts []string
	errs  []error
	calls []call
}

func (f *fakeRecognizer) Recognize(ctx context.Context, path string, opts Options) (string, error) {
	i := len(f.calls)
	f.calls = append(f.calls, call{path: path, opts: opts})
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if i < len(f.texts) {
		return f.texts[i], err
	}
	return "", err
}

func writeScreenshot(t *testing.T) string {
	t.Helper()
	img := imaging.New(400, 200, color.NRGBA{255, 255, 255, 255})
	for y := 80; y < 120; y++ {
		for x := 100; x < 300; x++ {
			img.Set(x, y, color.NRGBA{0, 0, 0, 255})
		}
	}
	path := filepath.Join(t.TempDir(), "shot.png")
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	return path
}

func TestCandidatesRunsEveryPass(t *testing.T) {
	path := writeScreenshot(t)
	fake := &fakeRecognizer{texts: []string{"a", "bb", "c", "d", "e"}}
	a := &Acquirer{Recognizer: fake, Options: DefaultOptions()}
	cands, err := a.Candidates(context.Background(), path)
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(cands) != 5 || len(fake.calls) != 5 {
		t.Fatalf("got %d candidates, %d calls", len(cands), len(fake.calls))
	}
	if fake.calls[1].path != path {
		t.Fatalf("second pass should read the original image, got %s", fake.calls[1].path)
	}
	if fake.calls[0].opts.PSM != gosseract.PSM_SINGLE_BLOCK || fake.calls[3].opts.PSM != gosseract.PSM_SINGLE_COLUMN || fake.calls[4].opts.PSM != gosseract.PSM_SPARSE_TEXT {
		t.Fatalf("unexpected psm sequence %+v", fake.calls)
	}
	if fake.calls[0].opts.Whitelist != DefaultWhitelist {
		t.Fatalf("whitelist not forwarded")
	}
	// temporary images are removed once the passes finish
	if _, err := os.Stat(fake.calls[0].path); !os.IsNotExist(err) {
		t.Fatalf("temp file %s still present", fake.calls[0].path)
	}
}

func TestCandidatesCancelled(t *testing.T) {
	path := writeScreenshot(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := &Acquirer{Recognizer: &fakeRecognizer{}}
	if _, err := a.Candidates(ctx, path); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v want context.Canceled", err)
	}
}

func TestCandidatesMissingFile(t *testing.T) {
	a := &Acquirer{Recognizer: &fakeRecognizer{}}
	if _, err := a.Candidates(context.Background(), filepath.Join(t.TempDir(), "none.png")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestBest(t *testing.T) {
	cands := []Candidate{
		{Pass: "p1", Text: "ab c"},
		{Pass: "p2", Text: "a b c d"},
		{Pass: "p3", Text: "abcd"},
		{Pass: "p4", Text: "much longer text", Err: errors.New("boom")},
	}
	best, err := Best(cands)
	if err != nil {
		t.Fatalf("best: %v", err)
	}
	if best.Pass != "p2" {
		t.Fatalf("chosen %s want p2 (tie goes to the earlier pass)", best.Pass)
	}
}

func TestBestNoText(t *testing.T) {
	if _, err := Best([]Candidate{{Text: " \n"}, {Text: ""}}); !errors.Is(err, ErrNoText) {
		t.Fatalf("err=%v want ErrNoText", err)
	}
	if _, err := Best([]Candidate{{Err: errors.New("engine down")}}); !errors.Is(err, ErrNoText) {
		t.Fatalf("err=%v want ErrNoText", err)
	}
	if _, err := Best(nil); !errors.Is(err, ErrNoText) {
		t.Fatalf("err=%v want ErrNoText", err)
	}
}

func TestExtractScore(t *testing.T) {
	log.SetOutput(io.Discard)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	path := writeScreenshot(t)
	fake := &fakeRecognizer{texts: []string{
		"お手軽 3,000円",
		"お手軽 3,000円払って 1,160円分のお寿司をゲット 35回 0.6回/秒 ミスタイプ 20",
		"",
	}}
	a := &Acquirer{Recognizer: fake, Options: DefaultOptions(), Parser: score.NewParser(log.New(io.Discard, "", 0))}
	ex, err := a.ExtractScore(context.Background(), path)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if ex.Pass != "original" || !ex.Valid {
		t.Fatalf("pass=%s valid=%v", ex.Pass, ex.Valid)
	}
	if ex.Result.Net != -1840 || ex.Result.Typing.Correct != 35 {
		t.Fatalf("unexpected result %+v", ex.Result)
	}
}

func TestExtractTextEmpty(t *testing.T) {
	path := writeScreenshot(t)
	a := &Acquirer{Recognizer: &fakeRecognizer{}}
	if _, err := a.ExtractText(context.Background(), path); !errors.Is(err, ErrNoText) {
		t.Fatalf("err=%v want ErrNoText", err)
	}
}

func TestPreprocessUpscalesAndBinarizes(t *testing.T) {
	img := imaging.New(200, 100, color.NRGBA{230, 230, 230, 255})
	for y := 40; y < 60; y++ {
		for x := 50; x < 150; x++ {
			img.Set(x, y, color.NRGBA{20, 20, 20, 255})
		}
	}
	out := Preprocess(img, 800)
	if out.Bounds().Dx() != 800 || out.Bounds().Dy() != 400 {
		t.Fatalf("size %v", out.Bounds())
	}
	black := 0
	for y := 0; y < 400; y++ {
		for x := 0; x < 800; x++ {
			v := out.NRGBAAt(x, y).R
			if v != 0 && v != 255 {
				t.Fatalf("pixel (%d,%d)=%d not binary", x, y, v)
			}
			if v == 0 {
				black++
			}
		}
	}
	if black == 0 {
		t.Fatalf("expected dark edges to survive thresholding")
	}
}

func TestMorphology(t *testing.T) {
	img := imaging.New(5, 5, color.NRGBA{255, 255, 255, 255})
	img.Set(2, 2, color.NRGBA{0, 0, 0, 255})
	grown := dilate(img, 1)
	if grown.NRGBAAt(2, 1).R != 0 || grown.NRGBAAt(1, 1).R != 255 {
		t.Fatalf("dilate should grow to 4-neighbours only")
	}
	if back := erode(grown, 1); back.NRGBAAt(2, 2).R != 0 || back.NRGBAAt(2, 1).R != 255 {
		t.Fatalf("erode should shrink back to the centre")
	}
}

func TestSelfTest(t *testing.T) {
	text, err := SelfTest(context.Background(), &fakeRecognizer{texts: []string{" Test\n"}})
	if err != nil || text != "Test" {
		t.Fatalf("text=%q err=%v", text, err)
	}
	if _, err := SelfTest(context.Background(), &fakeRecognizer{}); !errors.Is(err, ErrSelfTest) {
		t.Fatalf("err=%v want ErrSelfTest", err)
	}
}

func TestRenderSample(t *testing.T) {
	img := RenderSample(SelfTestText)
	b := img.Bounds()
	black := false
	for y := b.Min.Y; y < b.Max.Y && !black; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.NRGBAAt(x, y).R == 0 {
				black = true
				break
			}
		}
	}
	if !black {
		t.Fatalf("rendered sample has no ink")
	}
}

func TestDefaultWhitelistCoversResultScreen(t *testing.T) {
	for _, phrase := range []string{"3,000円払って", "1,160円分のお寿司をゲット", "0.6回/秒", "ミスタイプ数"} {
		for _, r := range phrase {
			if !strings.ContainsRune(DefaultWhitelist, r) {
				t.Fatalf("%q from %q missing in whitelist", r, phrase)
			}
		}
	}
}
