package ocr

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// SelfTestText is rendered and read back by SelfTest.
const SelfTestText = "Test"

// RenderSample draws text in black on a white canvas, scaled so Tesseract can
// read the bitmap font.
func RenderSample(text string) *image.NRGBA {
	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Ceil() + 20
	canvas := image.NewNRGBA(image.Rect(0, 0, w, 33))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P(10, 22),
	}
	d.DrawString(text)
	return imaging.Resize(canvas, canvas.Bounds().Dx()*4, 0, imaging.NearestNeighbor)
}

// SelfTest checks that rec can read a rendered sample. It returns the text
// that was recognized.
func SelfTest(ctx context.Context, rec Recognizer) (string, error) {
	dir, err := os.MkdirTemp("", "sushida-selftest-*")
	if err != nil {
		return "", fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "sample.png")
	if err := imaging.Save(RenderSample(SelfTestText), path); err != nil {
		return "", fmt.Errorf("save sample: %w", err)
	}
	text, err := rec.Recognize(ctx, path, Options{Lang: "eng", PSM: gosseract.PSM_SINGLE_LINE})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSelfTest, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty text", ErrSelfTest)
	}
	return text, nil
}
