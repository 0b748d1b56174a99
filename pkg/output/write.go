package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// CSVHeader is the column order of WriteCSV.
var CSVHeader = []string{"timestamp", "course", "result", "payed", "gain", "correct", "avarageTPS", "miss"}

// WriteJSON encodes v with two-space indentation. Non-ASCII text is written
// as is.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// WriteYAML encodes v as block-style YAML.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// WriteCSV writes a header row followed by one flat row per record.
func WriteCSV(w io.Writer, recs []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range recs {
		if err := cw.Write(csvRow(r)); err != nil {
			return fmt.Errorf("writing CSV record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(r Record) []string {
	return []string{
		r.Timestamp,
		string(r.Course),
		strconv.Itoa(r.Net),
		strconv.Itoa(r.Detail.Paid),
		strconv.Itoa(r.Detail.Gain),
		strconv.Itoa(r.Typing.Correct),
		strconv.FormatFloat(r.Typing.AverageTPS, 'f', -1, 64),
		strconv.Itoa(r.Typing.Miss),
	}
}

// Write serializes recs in format f. JSON and YAML write a single record as an
// object and several as a list.
func Write(w io.Writer, f Format, recs []Record) error {
	if len(recs) == 0 {
		return ErrNoRecords
	}
	var v any = recs
	if len(recs) == 1 {
		v = recs[0]
	}
	switch f {
	case JSON:
		return WriteJSON(w, v)
	case YAML:
		return WriteYAML(w, v)
	case CSV:
		return WriteCSV(w, recs)
	case XLSX:
		return WriteXLSX(w, recs)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// Save writes recs to path, creating parent directories.
func Save(path string, f Format, recs []Record) error {
	if err := EnsureDir(path); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(file, f, recs); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
