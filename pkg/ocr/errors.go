package ocr

import "errors"

var (
	// ErrNoText is returned when every recognition pass produced empty text.
	ErrNoText = errors.New("no text recognized")
	// ErrSelfTest is returned when the engine cannot read a rendered sample.
	ErrSelfTest = errors.New("tesseract self test failed")
)
