// Package parser reads raw AMR tool reports and maps them onto the canonical
// hit schema.
package parser

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ParseError reports input that cannot be read as delimited text.
type ParseError struct {
	Source  string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("%s: parse error at line %d: %s", e.Source, e.Line, e.Message)
}

// Delimiters recognised by the sniffer. Whitespace means runs of spaces/tabs.
const (
	DelimTab        = '\t'
	DelimComma      = ','
	DelimSemicolon  = ';'
	DelimWhitespace = ' '
)

// RawTable is a tool report as read from disk: a header and rows keyed by
// raw column name. Cells missing from short rows are absent from the map.
type RawTable struct {
	Header    []string
	Rows      []map[string]string
	Delimiter rune
}

// ReadRawFile reads a delimited tool report. Gzipped files are detected by
// their magic bytes. Use "-" for stdin.
func ReadRawFile(path string) (RawTable, error) {
	if path == "-" {
		return ReadRaw(os.Stdin, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return RawTable{}, fmt.Errorf("open tool report: %w", err)
	}
	defer f.Close()

	return ReadRaw(f, path)
}

// ReadRaw reads a delimited tool report from r. name is used for error
// messages and for the delimiter hint: names ending in .csv (optionally
// .csv.gz) are read as comma separated, everything else is sniffed from the
// header line.
func ReadRaw(r io.Reader, name string) (RawTable, error) {
	br, closeFn, err := maybeGunzip(r)
	if err != nil {
		return RawTable{}, &ParseError{Source: name, Message: err.Error()}
	}
	defer closeFn()

	data, err := io.ReadAll(br)
	if err != nil {
		return RawTable{}, &ParseError{Source: name, Message: fmt.Sprintf("read input: %v", err)}
	}

	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")

	headerIdx := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return RawTable{}, &ParseError{Source: name, Line: 0, Message: "no header line found"}
	}

	delim := DelimComma
	if !isCSVName(name) {
		delim = sniffDelimiter(lines[headerIdx])
	}

	body := strings.Join(lines[headerIdx:], "\n")
	var records [][]string
	if delim == DelimWhitespace {
		records = splitWhitespace(body)
	} else {
		records, err = readDelimited(body, delim)
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return RawTable{}, &ParseError{Source: name, Line: headerIdx + perr.Line, Message: perr.Err.Error()}
			}
			return RawTable{}, &ParseError{Source: name, Message: err.Error()}
		}
	}

	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	header[0] = strings.TrimPrefix(header[0], "#")

	t := RawTable{Header: header, Rows: make([]map[string]string, 0, len(records)-1), Delimiter: delim}
	for i, rec := range records[1:] {
		if len(rec) > len(header) {
			return RawTable{}, &ParseError{
				Source:  name,
				Line:    headerIdx + i + 2,
				Message: fmt.Sprintf("expected at most %d columns, found %d", len(header), len(rec)),
			}
		}
		row := make(map[string]string, len(rec))
		for j, cell := range rec {
			row[header[j]] = cell
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// maybeGunzip wraps r in a gzip reader when it starts with the gzip magic number.
func maybeGunzip(r io.Reader) (io.Reader, func(), error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, func() {}, fmt.Errorf("create gzip reader: %w", err)
		}
		return gz, func() { gz.Close() }, nil
	}
	return br, func() {}, nil
}

func isCSVName(name string) bool {
	lower := strings.ToLower(filepath.Base(name))
	lower = strings.TrimSuffix(lower, ".gz")
	return strings.HasSuffix(lower, ".csv")
}

// sniffDelimiter picks the most frequent of tab, comma and semicolon in the
// header line, falling back to whitespace.
func sniffDelimiter(header string) rune {
	best, bestCount := DelimWhitespace, 0
	for _, d := range []rune{DelimTab, DelimComma, DelimSemicolon} {
		if n := strings.Count(header, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func readDelimited(body string, delim rune) ([][]string, error) {
	cr := csv.NewReader(strings.NewReader(body))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var records [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func splitWhitespace(body string) [][]string {
	var records [][]string
	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		records = append(records, strings.Fields(line))
	}
	return records
}
