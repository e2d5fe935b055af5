package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/specz/internal/spectrum"
)

// ErrNotFound is returned when no spectrum is stored under the requested ID.
var ErrNotFound = errors.New("spectrum not found")

// defaultBatchSize keeps a batch insert well below SQLite's bound parameter limit.
const defaultBatchSize = 500

// StoreOption configures a SqliteStore.
type StoreOption func(*SqliteStore)

// WithClock sets the clock used for library timestamps and handed to
// restored spectra.
func WithClock(c spectrum.Clock) StoreOption {
	return func(s *SqliteStore) {
		s.clock = c
	}
}

// WithBatchSize sets how many samples go into one INSERT statement.
func WithBatchSize(n int) StoreOption {
	return func(s *SqliteStore) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// SqliteStore handles database operations
type SqliteStore struct {
	dbPath    string
	clock     spectrum.Clock
	batchSize int

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

var _ Store = (*SqliteStore)(nil)

// NewSqliteStore returns a store backed by the SQLite database at dbPath.
// Connections are opened lazily and the schema is created on first use.
func NewSqliteStore(dbPath string, opts ...StoreOption) *SqliteStore {
	s := &SqliteStore{
		dbPath:    dbPath,
		clock:     spectrum.SystemClock,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func runSQLCommand(ctx context.Context, db *sql.DB, sql string) error {
	_, err := db.ExecContext(ctx, sql)
	return err
}

func (s *SqliteStore) getWriteDB(ctx context.Context) (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}
		db.SetMaxOpenConns(1)

		steps := []struct {
			msg string
			sql string
		}{
			{msg: "initializing schema", sql: initSchemaSQL},
			{msg: "initializing indexes", sql: initIndexesSQL},
		}
		for _, step := range steps {
			if err = runSQLCommand(ctx, db, step.sql); err != nil {
				_ = db.Close()
				s.writeDBErr = fmt.Errorf("%s: %w", step.msg, err)
				return
			}
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

// getReadDB opens the read-only connection. The write connection is opened
// first so that the database file and schema exist.
func (s *SqliteStore) getReadDB(ctx context.Context) (*sql.DB, error) {
	if _, err := s.getWriteDB(ctx); err != nil {
		return nil, err
	}

	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) SaveSpectrum(ctx context.Context, sp *spectrum.Spectrum) (id string, err error) {
	metadata, err := encodeMap(sp.Metadata())
	if err != nil {
		return "", fmt.Errorf("marshaling metadata: %w", err)
	}

	db, err := s.getWriteDB(ctx)
	if err != nil {
		return "", fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	id = uuid.NewString()

	_, err = tx.ExecContext(ctx, insertSpectrumSQL,
		id,
		sp.Name(),
		sp.WavelengthUnit(),
		sp.FluxUnit(),
		metadata,
		sp.Len(),
		formatTime(s.clock()),
	)
	if err != nil {
		return "", fmt.Errorf("inserting spectrum: %w", err)
	}

	if err = s.insertSamples(ctx, tx, id, sp.Wavelength(), sp.Flux()); err != nil {
		return "", err
	}
	if err = s.insertProvenance(ctx, tx, id, sp.Provenance().Records()); err != nil {
		return "", err
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("committing transaction: %w", err)
	}

	return id, nil
}

func (s *SqliteStore) insertSamples(ctx context.Context, tx *sql.Tx, id string, wl, flux []float64) error {
	const valuesPlaceholder = "(?, ?, ?, ?)"

	for start := 0; start < len(wl); start += s.batchSize {
		end := min(start+s.batchSize, len(wl))

		values := make([]any, 0, (end-start)*4)

		var sb strings.Builder
		sb.WriteString(insertSampleSQL)

		for i := start; i < end; i++ {
			values = append(values, id, i, toNullFloat(wl[i]), toNullFloat(flux[i]))

			if i > start {
				sb.WriteString(", ")
			}
			sb.WriteString(valuesPlaceholder)
		}

		if _, err := tx.ExecContext(ctx, sb.String(), values...); err != nil {
			return fmt.Errorf("batch inserting samples: %w", err)
		}
	}
	return nil
}

func (s *SqliteStore) insertProvenance(ctx context.Context, tx *sql.Tx, id string, records []spectrum.Record) error {
	if len(records) == 0 {
		return nil
	}

	const valuesPlaceholder = "(?, ?, ?, ?, ?)"

	values := make([]any, 0, len(records)*5)

	var sb strings.Builder
	sb.WriteString(insertProvenanceSQL)

	for i, r := range records {
		details, err := encodeMap(r.Details)
		if err != nil {
			return fmt.Errorf("marshaling %s details: %w", r.Operation, err)
		}
		values = append(values, id, i, r.Operation, formatTime(r.Timestamp), details)

		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(valuesPlaceholder)
	}

	if _, err := tx.ExecContext(ctx, sb.String(), values...); err != nil {
		return fmt.Errorf("batch inserting provenance: %w", err)
	}
	return nil
}

func (s *SqliteStore) entry(ctx context.Context, db *sql.DB, id string) (*Entry, error) {
	var data spectrumData
	err := db.QueryRowContext(ctx, selectSpectrumSQL, id).Scan(
		&data.ID,
		&data.Name,
		&data.WavelengthUnit,
		&data.FluxUnit,
		&data.Metadata,
		&data.NumPoints,
		&data.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning spectrum: %w", err)
	}
	return toEntry(&data)
}

func (s *SqliteStore) provenance(ctx context.Context, db *sql.DB, id string) (records []spectrum.Record, err error) {
	rows, err := db.QueryContext(ctx, selectProvenanceSQL, id)
	if err != nil {
		return nil, fmt.Errorf("querying provenance: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var data provenanceData
		if err = rows.Scan(&data.Operation, &data.Timestamp, &data.Details); err != nil {
			return nil, fmt.Errorf("scanning provenance: %w", err)
		}
		r, err := toRecord(&data)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating provenance: %w", err)
	}
	return records, nil
}

func (s *SqliteStore) Spectrum(ctx context.Context, id string, opts ...ReaderOption) (sp *spectrum.Spectrum, err error) {
	db, err := s.getReadDB(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	e, err := s.entry(ctx, db, id)
	if err != nil {
		return nil, err
	}

	records, err := s.provenance(ctx, db, id)
	if err != nil {
		return nil, err
	}

	// samples are loaded unfiltered and cut with Range below, so the restored
	// log records the extraction
	r, err := newSqliteSampleReader(ctx, db, id)
	if err != nil {
		return nil, err
	}
	defer closeWithError(r, &err)

	wl := make([]float64, 0, e.NumPoints)
	flux := make([]float64, 0, e.NumPoints)
	for r.Next(ctx) {
		smp := r.Current()
		wl = append(wl, smp.Wavelength)
		flux = append(flux, smp.Flux)
	}
	if err = r.Error(); err != nil {
		return nil, fmt.Errorf("reading samples: %w", err)
	}

	sp, err = spectrum.FromDocument(spectrum.Document{
		Wavelength:     wl,
		Flux:           flux,
		WavelengthUnit: e.WavelengthUnit,
		FluxUnit:       e.FluxUnit,
		Metadata:       e.Metadata,
		Provenance:     records,
		Name:           e.Name,
	}, spectrum.WithClock(s.clock))
	if err != nil {
		return nil, fmt.Errorf("restoring spectrum: %w", err)
	}

	filter := newReaderFilter(opts)
	if err = filter.validate(); err != nil {
		return nil, err
	}
	if filter.isSet() {
		lo, hi := math.Inf(-1), math.Inf(1)
		if filter.minWavelength != nil {
			lo = *filter.minWavelength
		}
		if filter.maxWavelength != nil {
			hi = *filter.maxWavelength
		}
		sp = sp.Range(lo, hi)
	}

	return sp, nil
}

func (s *SqliteStore) ReadSamples(ctx context.Context, id string, opts ...ReaderOption) (SampleReader, error) {
	db, err := s.getReadDB(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}
	if _, err = s.entry(ctx, db, id); err != nil {
		return nil, err
	}
	return newSqliteSampleReader(ctx, db, id, opts...)
}

func (s *SqliteStore) Spectra(ctx context.Context) (entries []*Entry, err error) {
	db, err := s.getReadDB(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	rows, err := db.QueryContext(ctx, selectSpectraSQL)
	if err != nil {
		return nil, fmt.Errorf("querying spectra: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var data spectrumData
		var numRecords int
		if err = rows.Scan(
			&data.ID,
			&data.Name,
			&data.WavelengthUnit,
			&data.FluxUnit,
			&data.Metadata,
			&data.NumPoints,
			&data.CreatedAt,
			&numRecords,
		); err != nil {
			return nil, fmt.Errorf("scanning spectrum: %w", err)
		}
		e, err := toEntry(&data)
		if err != nil {
			return nil, err
		}
		e.NumRecords = numRecords
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating spectra: %w", err)
	}
	return entries, nil
}

func (s *SqliteStore) DeleteSpectrum(ctx context.Context, id string) (err error) {
	db, err := s.getWriteDB(ctx)
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	for _, stmt := range []string{deleteSamplesSQL, deleteProvenanceSQL} {
		if _, err = tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("deleting spectrum data: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, deleteSpectrumSQL, id)
	if err != nil {
		return fmt.Errorf("deleting spectrum: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		if s.writeDB != nil {
			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
