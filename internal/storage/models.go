package storage

import (
	"database/sql"
	"time"
)

// Entry describes a stored spectrum without its samples.
type Entry struct {
	ID             string         // Library identifier
	Name           string         // Spectrum name, may be empty
	WavelengthUnit string         // Unit of the wavelength grid
	FluxUnit       string         // Unit of the flux values
	Metadata       map[string]any // Stored metadata
	NumPoints      int            // Number of samples
	NumRecords     int            // Length of the provenance log
	CreatedAt      time.Time      // When the spectrum was saved
}

// Sample is a single stored (wavelength, flux) pair.
type Sample struct {
	Index      int
	Wavelength float64
	Flux       float64
}

type spectrumData struct {
	ID             string
	Name           string
	WavelengthUnit string
	FluxUnit       string
	Metadata       sql.NullString
	NumPoints      int
	CreatedAt      string
}

type sampleData struct {
	Index      int
	Wavelength sql.NullFloat64
	Flux       sql.NullFloat64
}

type provenanceData struct {
	Operation string
	Timestamp string
	Details   sql.NullString
}
