package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/specz/internal/spectrum"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && *err == nil && !errors.Is(cErr, sql.ErrTxDone) {
		*err = cErr
	}
}

// toNullFloat stores NaN as NULL, SQLite has no representation for it.
func toNullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNullFloat(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func encodeMap(m map[string]any) (sql.NullString, error) {
	if len(m) == 0 {
		return sql.NullString{}, nil
	}
	node, err := encodeNode(m)
	if err != nil {
		return sql.NullString{}, err
	}
	p, err := yaml.Marshal(node)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(p), Valid: true}, nil
}

// encodeNode tags floats explicitly so that whole-valued floats such as 505.0
// decode as float64 rather than int.
func encodeNode(v any) (*yaml.Node, error) {
	switch val := v.(type) {
	case float64:
		return floatNode(val), nil
	case float32:
		return floatNode(float64(val)), nil
	case []float64:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, f := range val {
			n.Content = append(n.Content, floatNode(f))
		}
		return n, nil
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range val {
			child, err := encodeNode(item)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, child)
		}
		return n, nil
	case map[string]any:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range slices.Sorted(maps.Keys(val)) {
			child, err := encodeNode(val[k])
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, child)
		}
		return n, nil
	default:
		var n yaml.Node
		if err := n.Encode(v); err != nil {
			return nil, err
		}
		return &n, nil
	}
}

func floatNode(f float64) *yaml.Node {
	var value string
	switch {
	case math.IsNaN(f):
		value = ".nan"
	case math.IsInf(f, 1):
		value = ".inf"
	case math.IsInf(f, -1):
		value = "-.inf"
	default:
		value = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: value}
}

func decodeMap(s sql.NullString) (map[string]any, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var m map[string]any
	if err := yaml.Unmarshal([]byte(s.String), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func toEntry(d *spectrumData) (*Entry, error) {
	meta, err := decodeMap(d.Metadata)
	if err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	createdAt, err := parseTime(d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &Entry{
		ID:             d.ID,
		Name:           d.Name,
		WavelengthUnit: d.WavelengthUnit,
		FluxUnit:       d.FluxUnit,
		Metadata:       meta,
		NumPoints:      d.NumPoints,
		CreatedAt:      createdAt,
	}, nil
}

func toRecord(d *provenanceData) (spectrum.Record, error) {
	ts, err := parseTime(d.Timestamp)
	if err != nil {
		return spectrum.Record{}, fmt.Errorf("parsing timestamp: %w", err)
	}
	details, err := decodeMap(d.Details)
	if err != nil {
		return spectrum.Record{}, fmt.Errorf("decoding details: %w", err)
	}
	return spectrum.Record{Operation: d.Operation, Timestamp: ts, Details: details}, nil
}
