package helpers

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"

	"github.com/spektr-org/eda/engine"
	"github.com/spektr-org/eda/schema"
)

// ============================================================================
// CSV HELPER — Parses CSV data into []engine.Record
// ============================================================================
// The caller reads the CSV from wherever it lives (file, embed, HTTP body).
// ReadFrame keeps every cell as the exact string it was written as; typing
// against the schema happens in ToRecords, so a malformed number is reported
// instead of silently becoming NaN.
// ============================================================================

// ReadFrame reads a header-first CSV stream into a string-typed DataFrame.
// Ragged rows and header-only input are errors.
func ReadFrame(r io.Reader) (dataframe.DataFrame, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return df, errors.Wrap(df.Err, "read csv")
	}
	return df, nil
}

// ToRecords converts a frame into Records. The schema's identifier and label
// become dimensions; its measures are parsed as floats. Columns the schema
// does not name are dropped.
func ToRecords(df dataframe.DataFrame, sch schema.Config) ([]engine.Record, error) {
	dims := make([]string, 0, 2)
	if sch.Identifier != "" {
		dims = append(dims, sch.Identifier)
	}
	if sch.Label.Key != "" {
		dims = append(dims, sch.Label.Key)
	}

	dimCols := make([][]string, len(dims))
	for i, d := range dims {
		col := df.Col(d)
		if col.Err != nil {
			return nil, errors.Wrapf(col.Err, "column %q", d)
		}
		dimCols[i] = col.Records()
	}

	measures := sch.MeasureKeys()
	mesCols := make([][]string, len(measures))
	for i, m := range measures {
		col := df.Col(m)
		if col.Err != nil {
			return nil, errors.Wrapf(col.Err, "column %q", m)
		}
		mesCols[i] = col.Records()
	}

	records := make([]engine.Record, df.Nrow())
	for r := range records {
		rec := engine.Record{
			Dimensions: make(map[string]string, len(dims)),
			Measures:   make(map[string]float64, len(measures)),
		}
		for i, d := range dims {
			rec.Dimensions[d] = strings.TrimSpace(dimCols[i][r])
		}
		for i, m := range measures {
			raw := strings.TrimSpace(mesCols[i][r])
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, errors.Errorf("row %d: %s value %q is not a number", r+1, m, raw)
			}
			rec.Measures[m] = f
		}
		records[r] = rec
	}
	return records, nil
}

// ParseCSV parses CSV bytes into Records using schema for classification.
func ParseCSV(data []byte, sch schema.Config) ([]engine.Record, error) {
	df, err := ReadFrame(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return ToRecords(df, sch)
}

// ParseCSVAuto discovers a schema from the data itself and parses with it.
func ParseCSVAuto(data []byte, opts ...schema.DiscoverOptions) ([]engine.Record, *schema.Config, error) {
	sch, err := schema.DiscoverFromCSV(data, opts...)
	if err != nil {
		return nil, nil, err
	}
	records, err := ParseCSV(data, *sch)
	if err != nil {
		return nil, nil, err
	}
	return records, sch, nil
}
