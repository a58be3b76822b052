// Package export writes sampled records as CSV files to a local directory
// or an S3 bucket.
package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/robert-malhotra/landsat-lst/internal/sampling"
)

// Extension is appended to every export description.
const Extension = ".csv"

// WriteCSV writes the header id,longitude,latitude,time,<vars> followed by one
// line per record. Missing values are written as empty fields.
func WriteCSV(w io.Writer, vars []string, records []sampling.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(sampling.Header(vars)); err != nil {
		return err
	}

	line := make([]string, sampling.FixedColumns+len(vars))
	for i, rec := range records {
		if len(rec.Values) != len(vars) {
			return fmt.Errorf("record %d: %w", i, sampling.ErrCardinalityMismatch)
		}
		line[0] = strconv.Itoa(rec.ID)
		line[1] = formatFloat(rec.Longitude)
		line[2] = formatFloat(rec.Latitude)
		line[3] = strconv.FormatInt(rec.Time, 10)
		for j, v := range rec.Values {
			line[sampling.FixedColumns+j] = formatFloat(v)
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSeriesCSV writes a point series as scene,time,date,<band> lines.
func WriteSeriesCSV(w io.Writer, band string, series []sampling.SeriesPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"scene", "time", "date", band}); err != nil {
		return err
	}
	for _, p := range series {
		err := cw.Write([]string{
			p.SceneID,
			strconv.FormatInt(p.Time.UnixMilli(), 10),
			p.Time.UTC().Format(time.DateOnly),
			formatFloat(p.Value),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Table writes records to <folder>/<description>.csv in sink. An empty record
// set produces a header-only file.
func Table(ctx context.Context, sink Sink, folder, description string, vars []string, records []sampling.Record) error {
	return write(ctx, sink, folder, description, func(w io.Writer) error {
		return WriteCSV(w, vars, records)
	}, slog.Int("records", len(records)))
}

// Series writes a point series to <folder>/<description>.csv in sink.
func Series(ctx context.Context, sink Sink, folder, description, band string, series []sampling.SeriesPoint) error {
	return write(ctx, sink, folder, description, func(w io.Writer) error {
		return WriteSeriesCSV(w, band, series)
	}, slog.Int("points", len(series)))
}

func write(ctx context.Context, sink Sink, folder, description string, body func(io.Writer) error, attr slog.Attr) error {
	name := description + Extension
	w, err := sink.Create(ctx, folder, name)
	if err != nil {
		return fmt.Errorf("failed to open export %s/%s: %w", folder, name, asExternal(err))
	}

	if err := body(w); err != nil {
		w.Close()
		return fmt.Errorf("failed to write export %s/%s: %w", folder, name, asExternal(err))
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish export %s/%s: %w", folder, name, asExternal(err))
	}

	slog.InfoContext(ctx, "export written",
		slog.String("folder", folder),
		slog.String("name", name),
		attr,
	)
	return nil
}

// asExternal marks err as an export destination failure unless it already is
// one or is a record layout error.
func asExternal(err error) error {
	if errors.Is(err, ErrExternal) || errors.Is(err, sampling.ErrCardinalityMismatch) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrExternal, err)
}
