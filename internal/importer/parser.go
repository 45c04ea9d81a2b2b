package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrEmptyFile is returned when the file has no data rows at all.
var ErrEmptyFile = errors.New("the CSV file appears to be empty")

// Dataset holds parsed tabular data: the header row plus every data row
// keyed by header name. Headers preserve the file's column order.
type Dataset struct {
	Headers []string `json:"headers"`
	Rows    []*Row   `json:"rows"`
}

// Parse reads the whole file into a Dataset.
func Parse(data []byte) (*Dataset, error) {
	return parse(data, 0)
}

// ParsePreview reads at most limit data rows. Used for the upload-step
// preview so large files are not fully parsed until validation time.
func ParsePreview(data []byte, limit int) (*Dataset, error) {
	return parse(data, limit)
}

func parse(data []byte, limit int) (*Dataset, error) {
	decoded, _, err := DetectAndDecode(data)
	if err != nil {
		return nil, fmt.Errorf("encoding detection failed: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	// Rows with mismatched column counts are padded or truncated below.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	ds := &Dataset{Headers: headers}
	for {
		if limit > 0 && len(ds.Rows) >= limit {
			break
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(ds.Rows)+2, err)
		}
		if isBlank(record) {
			continue
		}

		row := NewRow()
		for i, h := range headers {
			if i < len(record) {
				row.Set(h, strings.TrimSpace(record[i]))
			} else {
				row.Set(h, "")
			}
		}
		ds.Rows = append(ds.Rows, row)
	}

	if len(ds.Rows) == 0 {
		return nil, ErrEmptyFile
	}
	return ds, nil
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
