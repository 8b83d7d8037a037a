// Package csvimport reads transaction rows out of comma-separated sources.
//
// Each data record has the shape title,type,value,category. The first record
// is a header and is never emitted. Fields are trimmed, and records missing a
// title, type or value are dropped without being reported. A record whose type
// or value can't be read ends the sequence with domain.ErrInvalidRow.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"github.com/dafibh/fortuna/fortuna-import/internal/domain"
	"github.com/shopspring/decimal"
)

// HeaderRows is the number of leading records skipped before data starts
const HeaderRows = 1

const (
	colTitle = iota
	colType
	colValue
	colCategory
)

// Source is an open import file
type Source struct {
	path   string
	file   *os.File
	closed bool
}

// Open opens the file at path for reading
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrResourceUnavailable, err)
	}
	return &Source{path: path, file: f}, nil
}

// Path returns the path the source was opened from
func (s *Source) Path() string {
	return s.path
}

// Close releases the file handle. Safe to call more than once.
func (s *Source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.file.Close()
}

// Rows returns the lazy sequence of rows in the source
func (s *Source) Rows() iter.Seq2[domain.RawRow, error] {
	return Parse(s.file)
}

// Parse returns a lazy sequence of the rows read from r. The sequence ends
// at end of input, or after yielding a single error: ErrResourceUnavailable
// when r fails, ErrInvalidRow for an unreadable type or value.
func Parse(r io.Reader) iter.Seq2[domain.RawRow, error] {
	return func(yield func(domain.RawRow, error) bool) {
		reader := csv.NewReader(newBOMSkippingReader(r))
		reader.FieldsPerRecord = -1
		reader.LazyQuotes = true

		record := 0
		for {
			fields, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				var parseErr *csv.ParseError
				if errors.As(err, &parseErr) {
					record++
					continue
				}
				yield(domain.RawRow{}, fmt.Errorf("%w: %w", domain.ErrResourceUnavailable, err))
				return
			}

			record++
			if record <= HeaderRows {
				continue
			}

			row, ok, err := toRawRow(fields)
			if err != nil {
				line, _ := reader.FieldPos(0)
				yield(domain.RawRow{}, fmt.Errorf("%w: line %d: %w", domain.ErrInvalidRow, line, err))
				return
			}
			if !ok {
				continue
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

// Collect drains seq into a slice. It returns only once seq is exhausted.
func Collect(seq iter.Seq2[domain.RawRow, error]) ([]domain.RawRow, error) {
	var rows []domain.RawRow
	for row, err := range seq {
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadFile parses every row of the file at path. The file is closed before
// ReadFile returns.
func ReadFile(path string) ([]domain.RawRow, error) {
	src, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return Collect(src.Rows())
}

// toRawRow builds a row from a trimmed record. ok is false for rows missing a
// title, type or value. A present but unreadable type or value is an error.
func toRawRow(fields []string) (row domain.RawRow, ok bool, err error) {
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	title := field(fields, colTitle)
	kind := field(fields, colType)
	value := field(fields, colValue)
	if title == "" || kind == "" || value == "" {
		return domain.RawRow{}, false, nil
	}

	txType, known := domain.ParseTransactionType(kind)
	if !known {
		return domain.RawRow{}, false, fmt.Errorf("type %q is neither income nor outcome", kind)
	}

	amount, err := decimal.NewFromString(value)
	if err != nil {
		return domain.RawRow{}, false, fmt.Errorf("value %q is not a number", value)
	}

	return domain.RawRow{
		Title:         title,
		Kind:          txType,
		Amount:        amount,
		CategoryLabel: field(fields, colCategory),
	}, true, nil
}

func field(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}
