package storage

import (
	"context"

	"github.com/roman-kulish/specz/internal/spectrum"
)

// Store keeps a local library of spectra together with their metadata and
// provenance logs. All operations that write to the database are atomic.
type Store interface {
	// SaveSpectrum stores s and returns its library identifier.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - s: Spectrum to store. Its provenance log is stored as is, saving
	//     is not a transform and appends no record.
	//
	// Returns:
	//   - id: Unique identifier of the stored spectrum
	//   - error: If storage fails or context is cancelled
	SaveSpectrum(ctx context.Context, s *spectrum.Spectrum) (id string, err error)

	// Spectrum restores a stored spectrum. Wavelength filters restrict the
	// result the same way Spectrum.Range does and record a range_extraction
	// step in the restored log.
	//
	// Returns ErrNotFound if no spectrum is stored under id.
	Spectrum(ctx context.Context, id string, opts ...ReaderOption) (*spectrum.Spectrum, error)

	// ReadSamples returns an iterator over the stored samples of a spectrum
	// in grid order. The reader must be closed after use.
	ReadSamples(ctx context.Context, id string, opts ...ReaderOption) (SampleReader, error)

	// Spectra lists the library, oldest first.
	Spectra(ctx context.Context) ([]*Entry, error)

	// DeleteSpectrum removes a spectrum with its samples and provenance.
	//
	// Returns ErrNotFound if no spectrum is stored under id.
	DeleteSpectrum(ctx context.Context, id string) error

	// Close releases all database connections and resources.
	// It is safe to call Close multiple times.
	Close() error
}
