// Package output writes parsed results as JSON, CSV, YAML, XLSX or a text table.
package output

import (
	"fmt"
	"strings"
	"time"

	"sushida/pkg/score"
)

// Format is a serialization format for results.
type Format string

const (
	JSON Format = "json"
	CSV  Format = "csv"
	YAML Format = "yaml"
	XLSX Format = "xlsx"
)

// ParseFormat accepts json, csv, yaml (or yml) and xlsx, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "yaml", "yml":
		return YAML, nil
	case "xlsx":
		return XLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string { return "." + string(f) }

// Record is one result together with where and when it was read.
type Record struct {
	Timestamp    string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	File         string `json:"file,omitempty" yaml:"file,omitempty"`
	score.Result `yaml:",inline"`
}

// NewRecord stamps r with the source file and the time it was analyzed.
func NewRecord(file string, r score.Result, at time.Time) Record {
	return Record{
		Timestamp: at.Format(time.RFC3339),
		File:      file,
		Result:    r,
	}
}
