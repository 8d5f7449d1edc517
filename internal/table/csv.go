package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// MalformedInputError reports an unreadable source table with the position
// that broke, so upload errors can point at the offending line.
type MalformedInputError struct {
	Line int
	Err  error
}

func (e *MalformedInputError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed input at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("malformed input: %v", e.Err)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// ReadCSV decodes a CSV stream into a Table. The first row is the header;
// a UTF-8 BOM on the first header is stripped and headers are trimmed of
// surrounding whitespace. Cell values are kept verbatim. Ragged rows and
// quoting faults surface as MalformedInputError.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)

	headers, err := cr.Read()
	if err == io.EOF {
		return nil, &MalformedInputError{Err: errors.New("empty input, no header row")}
	}
	if err != nil {
		return nil, wrapCSVErr(err)
	}

	for i, h := range headers {
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		headers[i] = strings.TrimSpace(h)
	}

	t := New(headers...)
	for {
		values, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, wrapCSVErr(err)
		}
		t.Append(values)
	}

	return t, nil
}

// ReadCSVFile reads a CSV file from disk.
func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

// WriteCSV encodes a table with its header row.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(t.Headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range t.Rows {
		if err := cw.Write(row.Values(t.Headers)); err != nil {
			return fmt.Errorf("write row %d: %w", row.Index, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes a table to disk.
func WriteCSVFile(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteCSV(f, t); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func wrapCSVErr(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return &MalformedInputError{Line: parseErr.Line, Err: err}
	}
	return &MalformedInputError{Err: err}
}
