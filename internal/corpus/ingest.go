package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Required CSV columns.
const (
	ColumnTimestamp = "tweets_time"
	ColumnAuthor    = "username"
	ColumnText      = "tweets"
)

// CSVOptions controls how ReadCSV decodes its input.
// Encoding is "utf-8" (default) or "latin1".
type CSVOptions struct {
	Collection string
	Encoding   string
}

// CSVResult is the outcome of parsing a CSV export.
type CSVResult struct {
	Documents []NewDocument
	Rows      int
	Dropped   int
}

// ReadCSV parses a tweet export with the columns tweets_time, username, and
// tweets in any order. Rows with blank text are dropped, as are rows whose
// text repeats an earlier row.
func ReadCSV(r io.Reader, opts CSVOptions) (*CSVResult, error) {
	switch strings.ToLower(opts.Encoding) {
	case "", "utf-8", "utf8":
	case "latin1", "iso-8859-1":
		r = charmap.ISO8859_1.NewDecoder().Reader(r)
	default:
		return nil, fmt.Errorf("%w: unsupported encoding %q", ErrInvalidCSV, opts.Encoding)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrInvalidCSV)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidCSV, err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, required := range []string{ColumnTimestamp, ColumnAuthor, ColumnText} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrInvalidCSV, required)
		}
	}

	field := func(rec []string, name string) string {
		i := cols[name]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	result := &CSVResult{}
	seen := make(map[string]bool)

	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCSV, err)
		}
		result.Rows++

		text := field(rec, ColumnText)
		if text == "" || seen[text] {
			result.Dropped++
			continue
		}
		seen[text] = true

		result.Documents = append(result.Documents, NewDocument{
			Collection: opts.Collection,
			Author:     field(rec, ColumnAuthor),
			Timestamp:  field(rec, ColumnTimestamp),
			Text:       text,
		})
	}

	return result, nil
}
