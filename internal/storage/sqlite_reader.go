package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SampleReader provides an iterator-based interface for reading the stored
// samples of one spectrum with optional wavelength filtering.
type SampleReader interface {
	// Next advances the iterator and returns true if there is another sample
	// to read, false when the iteration is complete or if an error occurred.
	Next(context.Context) bool

	// Current returns the current sample in the iteration.
	// If called after Next() returns false, the behavior is undefined.
	Current() Sample

	// Error returns any error that occurred during iteration.
	// If Next() returns false, Error() should be checked to distinguish between
	// end of data and an error condition.
	Error() error

	// Close releases any resources associated with the reader.
	// After Close is called, the reader should not be used.
	Close() error
}

type readerFilter struct {
	minWavelength *float64 // Optional lower bound, inclusive
	maxWavelength *float64 // Optional upper bound, inclusive
}

func newReaderFilter(opts []ReaderOption) *readerFilter {
	f := &readerFilter{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *readerFilter) isSet() bool {
	return f.minWavelength != nil || f.maxWavelength != nil
}

func (f *readerFilter) validate() error {
	if f.minWavelength != nil && f.maxWavelength != nil && *f.minWavelength > *f.maxWavelength {
		return fmt.Errorf("min wavelength %g is greater than max wavelength %g", *f.minWavelength, *f.maxWavelength)
	}
	return nil
}

// ReaderOption restricts the samples returned by the store.
type ReaderOption func(*readerFilter)

// WithMinWavelength excludes samples with wavelengths below w.
func WithMinWavelength(w float64) ReaderOption {
	return func(f *readerFilter) {
		f.minWavelength = &w
	}
}

// WithMaxWavelength excludes samples with wavelengths above w.
func WithMaxWavelength(w float64) ReaderOption {
	return func(f *readerFilter) {
		f.maxWavelength = &w
	}
}

// WithWavelengthRange sets both bounds. This is a convenience function
// equivalent to applying both WithMinWavelength and WithMaxWavelength.
func WithWavelengthRange(minWavelength, maxWavelength float64) ReaderOption {
	return func(f *readerFilter) {
		f.minWavelength = &minWavelength
		f.maxWavelength = &maxWavelength
	}
}

// SqliteSampleReader implements SampleReader for SQLite database backend.
type SqliteSampleReader struct {
	db         *sql.DB
	spectrumID string
	filter     *readerFilter

	current Sample
	rows    *sql.Rows
	err     error
}

var _ SampleReader = (*SqliteSampleReader)(nil)

func newSqliteSampleReader(ctx context.Context, db *sql.DB, spectrumID string, opts ...ReaderOption) (*SqliteSampleReader, error) {
	sr := &SqliteSampleReader{
		db:         db,
		spectrumID: spectrumID,
		filter:     newReaderFilter(opts),
	}
	if err := sr.init(ctx); err != nil {
		return nil, fmt.Errorf("initializing reader: %w", err)
	}
	return sr, nil
}

func (sr *SqliteSampleReader) init(ctx context.Context) error {
	if sr.db == nil {
		return errors.New("database connection required")
	}
	if sr.spectrumID == "" {
		return errors.New("spectrum ID required")
	}

	steps := []struct {
		msg string
		fn  func(context.Context) error
	}{
		{msg: "validating filters", fn: func(context.Context) error { return sr.filter.validate() }},
		{msg: "initializing query", fn: sr.initQuery},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.msg, err)
		}
	}
	return nil
}

func (sr *SqliteSampleReader) initQuery(ctx context.Context) (err error) {
	var lo, hi sql.NullFloat64
	if sr.filter.minWavelength != nil {
		lo = sql.NullFloat64{Float64: *sr.filter.minWavelength, Valid: true}
	}
	if sr.filter.maxWavelength != nil {
		hi = sql.NullFloat64{Float64: *sr.filter.maxWavelength, Valid: true}
	}

	sr.rows, err = sr.db.QueryContext(ctx, selectSamplesSQL, sr.spectrumID, lo, lo, hi, hi)
	return err
}

func (sr *SqliteSampleReader) Next(ctx context.Context) bool {
	if sr.err != nil || sr.rows == nil {
		return false
	}

	select {
	case <-ctx.Done():
		sr.err = ctx.Err()
		return false
	default:
	}

	if !sr.rows.Next() {
		return false
	}

	var data sampleData
	if sr.err = sr.rows.Scan(&data.Index, &data.Wavelength, &data.Flux); sr.err != nil {
		sr.err = fmt.Errorf("scanning sample: %w", sr.err)
		return false
	}

	sr.current = Sample{
		Index:      data.Index,
		Wavelength: fromNullFloat(data.Wavelength),
		Flux:       fromNullFloat(data.Flux),
	}
	return true
}

func (sr *SqliteSampleReader) Current() Sample {
	return sr.current
}

func (sr *SqliteSampleReader) Error() error {
	if sr.err != nil {
		return sr.err
	}
	if sr.rows != nil {
		return sr.rows.Err()
	}
	return nil
}

func (sr *SqliteSampleReader) Close() error {
	if sr.rows != nil {
		err := sr.rows.Close()
		sr.rows = nil
		return err
	}
	return nil
}
