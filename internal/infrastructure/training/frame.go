package training

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Frame is a parsed CSV table: a header and rows of raw cells.
type Frame struct {
	header []string
	index  map[string]int
	rows   [][]string
}

// LoadCSV reads a CSV file with a header row.
func LoadCSV(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(bufio.NewReader(f))
}

// ReadCSV parses CSV data with a header row. Every row must have as many
// cells as the header.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv is empty")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	frame := &Frame{index: make(map[string]int, len(header))}
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if name == "" {
			return nil, fmt.Errorf("csv header column %d is empty", i)
		}
		if _, dup := frame.index[name]; dup {
			return nil, fmt.Errorf("csv header repeats column %q", name)
		}
		frame.index[name] = i
		frame.header = append(frame.header, name)
	}

	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		frame.rows = append(frame.rows, rec)
	}
	return frame, nil
}

// Len is the number of data rows.
func (f *Frame) Len() int { return len(f.rows) }

// Columns returns the header in file order.
func (f *Frame) Columns() []string { return append([]string(nil), f.header...) }

// Has reports whether the header contains name.
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Strings returns the trimmed cells of one column.
func (f *Frame) Strings(name string) ([]string, error) {
	col, ok := f.index[name]
	if !ok {
		return nil, fmt.Errorf("column %q not in csv", name)
	}
	out := make([]string, len(f.rows))
	for i, row := range f.rows {
		out[i] = strings.TrimSpace(row[col])
	}
	return out, nil
}

// Floats returns one column as numbers. Boolean cells are coerced to 0/1.
func (f *Frame) Floats(name string) ([]float64, error) {
	cells, err := f.Strings(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(cells))
	for i, cell := range cells {
		v, err := parseCell(cell)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", name, i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

func parseCell(s string) (float64, error) {
	switch strings.ToLower(s) {
	case "true", "yes":
		return 1, nil
	case "false", "no":
		return 0, nil
	case "":
		return 0, fmt.Errorf("empty cell")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return v, nil
}
