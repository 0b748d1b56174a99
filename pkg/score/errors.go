package score

import "errors"

// ErrEmptyInput is returned when the transcript is empty or only whitespace.
var ErrEmptyInput = errors.New("empty transcript")

// ErrInternalFault wraps an unexpected failure inside the extractors.
var ErrInternalFault = errors.New("internal parse fault")
