package storage

const (
	initSchemaSQL = `
CREATE TABLE IF NOT EXISTS spectra (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL DEFAULT '',
    wavelength_unit TEXT NOT NULL,
    flux_unit       TEXT NOT NULL,
    metadata        TEXT,
    n_points        INTEGER NOT NULL,
    created_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS samples (
    spectrum_id TEXT    NOT NULL,
    idx         INTEGER NOT NULL,
    wavelength  REAL,
    flux        REAL,
    PRIMARY KEY (spectrum_id, idx)
);

CREATE TABLE IF NOT EXISTS provenance (
    spectrum_id TEXT    NOT NULL,
    seq         INTEGER NOT NULL,
    operation   TEXT    NOT NULL,
    timestamp   TEXT    NOT NULL,
    details     TEXT,
    PRIMARY KEY (spectrum_id, seq)
);`

	initIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_spectra_created_at ON spectra (created_at);
CREATE INDEX IF NOT EXISTS idx_samples_wavelength ON samples (spectrum_id, wavelength);`

	insertSpectrumSQL = `
INSERT INTO spectra (
                     id,
                     name,
                     wavelength_unit,
                     flux_unit,
                     metadata,
                     n_points,
                     created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	insertSampleSQL = `
INSERT INTO samples (
                     spectrum_id,
                     idx,
                     wavelength,
                     flux)
VALUES `

	insertProvenanceSQL = `
INSERT INTO provenance (
                        spectrum_id,
                        seq,
                        operation,
                        timestamp,
                        details)
VALUES `

	selectSpectrumSQL = `
SELECT
    id,
    name,
    wavelength_unit,
    flux_unit,
    metadata,
    n_points,
    created_at
FROM spectra
WHERE
    id = ?`

	selectSpectraSQL = `
SELECT
    s.id,
    s.name,
    s.wavelength_unit,
    s.flux_unit,
    s.metadata,
    s.n_points,
    s.created_at,
    (SELECT COUNT(*) FROM provenance p WHERE p.spectrum_id = s.id) AS n_records
FROM spectra s
ORDER BY
    s.created_at, s.id`

	selectSamplesSQL = `
SELECT
    idx,
    wavelength,
    flux
FROM samples
WHERE
    spectrum_id = ?
    AND (? IS NULL OR wavelength >= ?)
    AND (? IS NULL OR wavelength <= ?)
ORDER BY
    idx`

	selectProvenanceSQL = `
SELECT
    operation,
    timestamp,
    details
FROM provenance
WHERE
    spectrum_id = ?
ORDER BY
    seq`

	deleteSamplesSQL    = `DELETE FROM samples WHERE spectrum_id = ?`
	deleteProvenanceSQL = `DELETE FROM provenance WHERE spectrum_id = ?`
	deleteSpectrumSQL   = `DELETE FROM spectra WHERE id = ?`
)
