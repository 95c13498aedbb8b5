package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parser reads a header-first CSV upload into rows keyed by column name.
// Header names are trimmed and lower-cased.
type Parser struct {
	reader    *csv.Reader
	headers   []string
	headerIdx map[string]int
	line      int
}

// ParserOption configures a Parser
type ParserOption func(*csv.Reader)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ParserOption {
	return func(r *csv.Reader) {
		r.Comma = d
	}
}

// WithLazyQuotes toggles lenient quote handling (default on)
func WithLazyQuotes(lazy bool) ParserOption {
	return func(r *csv.Reader) {
		r.LazyQuotes = lazy
	}
}

// NewParser strips a UTF-8 BOM and rejects input that is empty or not UTF-8
func NewParser(r io.Reader, opts ...ParserOption) (*Parser, error) {
	br := bufio.NewReader(r)

	head, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if bytes.HasPrefix(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
		head = head[len(utf8BOM):]
	}
	if len(bytes.TrimSpace(head)) == 0 {
		return nil, ErrEmptyFile
	}
	if !utf8.Valid(trimPartialRune(head)) {
		return nil, ErrInvalidEncoding
	}

	cr := csv.NewReader(br)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	for _, opt := range opts {
		opt(cr)
	}

	return &Parser{reader: cr, headerIdx: make(map[string]int)}, nil
}

// ParseFromBytes creates a parser from a byte slice
func ParseFromBytes(data []byte, opts ...ParserOption) (*Parser, error) {
	return NewParser(bytes.NewReader(data), opts...)
}

// trimPartialRune drops a multi-byte rune cut off by the peek window
func trimPartialRune(b []byte) []byte {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		if utf8.RuneStart(b[len(b)-i]) {
			if !utf8.FullRune(b[len(b)-i:]) {
				return b[:len(b)-i]
			}
			return b
		}
	}
	return b
}

// ParseHeader reads the header row
func (p *Parser) ParseHeader() error {
	record, err := p.reader.Read()
	if errors.Is(err, io.EOF) {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	p.line, _ = p.reader.FieldPos(0)
	p.headers = make([]string, len(record))
	for i, h := range record {
		name := strings.ToLower(strings.TrimSpace(h))
		p.headers[i] = name
		if name != "" {
			p.headerIdx[name] = i
		}
	}
	if len(p.headerIdx) == 0 {
		return ErrMissingHeader
	}
	return nil
}

// Headers returns the normalized header names
func (p *Parser) Headers() []string {
	return p.headers
}

// HasHeader checks if a header exists
func (p *Parser) HasHeader(name string) bool {
	_, ok := p.headerIdx[name]
	return ok
}

// MissingHeaders returns the required columns the header row lacks
func (p *Parser) MissingHeaders(required []string) []string {
	var missing []string
	for _, h := range required {
		if !p.HasHeader(h) {
			missing = append(missing, h)
		}
	}
	return missing
}

// Row is one data record. Line is the 1-based line in the file, header included.
type Row struct {
	Line int
	Data map[string]string
}

// Get returns the value of a column, empty when absent
func (r *Row) Get(column string) string {
	return r.Data[column]
}

// IsEmpty returns true if the row has no non-empty values
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow reads the next record. Short records leave trailing columns empty.
func (p *Parser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		line := p.line + 1
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			line = pe.StartLine
		}
		return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRow, line, err)
	}
	p.line, _ = p.reader.FieldPos(0)

	row := &Row{Line: p.line, Data: make(map[string]string, len(p.headerIdx))}
	for name, i := range p.headerIdx {
		if i < len(record) {
			row.Data[name] = strings.TrimSpace(record[i])
		} else {
			row.Data[name] = ""
		}
	}
	return row, nil
}

// ReadAll reads every remaining non-empty row. A positive maxRows caps the
// data rows accepted; exceeding it returns ErrTooManyRows.
func (p *Parser) ReadAll(maxRows int) ([]*Row, error) {
	var rows []*Row
	for {
		row, err := p.ReadRow()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		if row.IsEmpty() {
			continue
		}
		if maxRows > 0 && len(rows) == maxRows {
			return rows, fmt.Errorf("%w: limit is %d", ErrTooManyRows, maxRows)
		}
		rows = append(rows, row)
	}
}
