// Package ocr acquires the text of a result screenshot with Tesseract.
package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// DefaultWhitelist holds every character that can appear on a result screen.
const DefaultWhitelist = "0123456789,.お手軽普通高級円分寿司をコースゲット払って損でした正しく打ったキーの数平均ミスタイプ回秒/×、。・"

// DefaultMinWidth is the width screenshots are upscaled to before recognition.
const DefaultMinWidth = 800

// PageSegMode is Tesseract's page segmentation mode.
type PageSegMode = gosseract.PageSegMode

// Options configures a single recognition call.
type Options struct {
	Lang      string // tesseract language, "+" separated
	Whitelist string
	Blacklist string
	PSM       PageSegMode // zero keeps the engine default
}

// DefaultOptions returns the settings used for Japanese result screens.
func DefaultOptions() Options {
	return Options{
		Lang:      "jpn",
		Whitelist: DefaultWhitelist,
		PSM:       gosseract.PSM_SINGLE_BLOCK,
	}
}

// Recognizer turns an image file into text.
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string, opts Options) (string, error)
}

// TesseractRecognizer runs Tesseract through gosseract. A new client is
// created per call, so the value is safe for concurrent use.
type TesseractRecognizer struct{}

func (TesseractRecognizer) Recognize(ctx context.Context, imagePath string, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	client := gosseract.NewClient()
	defer client.Close()

	lang := opts.Lang
	if lang == "" {
		lang = "jpn"
	}
	if err := client.SetLanguage(strings.Split(lang, "+")...); err != nil {
		return "", fmt.Errorf("set language %s: %w", lang, err)
	}
	if opts.Whitelist != "" {
		if err := client.SetWhitelist(opts.Whitelist); err != nil {
			return "", fmt.Errorf("set whitelist: %w", err)
		}
	}
	if opts.Blacklist != "" {
		if err := client.SetBlacklist(opts.Blacklist); err != nil {
			return "", fmt.Errorf("set blacklist: %w", err)
		}
	}
	if opts.PSM != 0 {
		if err := client.SetPageSegMode(opts.PSM); err != nil {
			return "", fmt.Errorf("set psm %d: %w", opts.PSM, err)
		}
	}
	if err := client.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr error: %w", err)
	}
	return text, nil
}

// Version reports the version of the linked Tesseract library.
func Version() string {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version()
}
