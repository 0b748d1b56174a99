package output

import "errors"

var (
	ErrUnknownFormat = errors.New("unknown output format")
	ErrNoRecords     = errors.New("no records to write")
)
