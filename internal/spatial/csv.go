package spatial

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/robert-malhotra/landsat-lst/internal/sampling"
)

// ReadTable parses an exported region table. Empty value fields read as NaN.
func ReadTable(r io.Reader) (*sampling.Table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", sampling.ErrHeaderMismatch)
	}
	if err != nil {
		return nil, err
	}
	if len(header) < sampling.FixedColumns || !slices.Equal(header[:sampling.FixedColumns], sampling.Header(nil)) {
		return nil, fmt.Errorf("%w: %v", sampling.ErrHeaderMismatch, header)
	}
	table := &sampling.Table{Header: slices.Clone(header)}

	for line := 2; ; line++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make([]float64, len(fields))
		for i, s := range fields {
			if row[i], err = parseFloat(s); err != nil {
				return nil, fmt.Errorf("line %d, column %s: %w", line, table.Header[i], err)
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// Load reads an exported table and returns an extractor over it.
func Load(r io.Reader, tower Tower) (*Extractor, error) {
	table, err := ReadTable(r)
	if err != nil {
		return nil, err
	}
	vars := table.Bands()
	records, err := sampling.Reconstruct(table, vars, nil)
	if err != nil {
		return nil, err
	}
	return NewExtractor(vars, records, tower), nil
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// WriteField writes x_m,y_m,<index> lines.
func WriteField(w io.Writer, f *Field) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x_m", "y_m", f.Index}); err != nil {
		return err
	}
	for i := range f.Values {
		err := cw.Write([]string{
			strconv.FormatFloat(f.X[i], 'f', 2, 64),
			strconv.FormatFloat(f.Y[i], 'f', 2, 64),
			formatValue(f.Values[i]),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
