package storage

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/specz/internal/spectrum"
)

var savedAt = time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T, opts ...StoreOption) *SqliteStore {
	t.Helper()
	opts = append([]StoreOption{WithClock(spectrum.FixedClock(savedAt))}, opts...)
	s := NewSqliteStore(filepath.Join(t.TempDir(), "library.db"), opts...)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestSpectrum(t *testing.T) *spectrum.Spectrum {
	t.Helper()
	clock := spectrum.FixedClock(time.Date(2024, 4, 30, 12, 0, 0, 123456789, time.UTC))
	s, err := spectrum.New(
		[]float64{500, 510, 520, 530, 540},
		[]float64{1, 2, math.NaN(), 4, 5},
		spectrum.WithName("lamp"),
		spectrum.WithUnits("nm", "counts"),
		spectrum.WithMetadata(map[string]any{"instrument": "X1", "exposure": 2.5, "gain": 4}),
		spectrum.WithClock(clock),
	)
	require.NoError(t, err)
	return s.Range(505, 600)
}

func TestSqliteStore_SaveAndRestore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, WithBatchSize(2))
	original := newTestSpectrum(t)

	id, err := store.SaveSpectrum(ctx, original)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	restored, err := store.Spectrum(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, original.Wavelength(), restored.Wavelength())
	gotFlux, wantFlux := restored.Flux(), original.Flux()
	require.Len(t, gotFlux, len(wantFlux))
	for i := range wantFlux {
		if math.IsNaN(wantFlux[i]) {
			assert.True(t, math.IsNaN(gotFlux[i]), "index %d", i)
			continue
		}
		assert.Equal(t, wantFlux[i], gotFlux[i], "index %d", i)
	}

	assert.Equal(t, "lamp", restored.Name())
	assert.Equal(t, "nm", restored.WavelengthUnit())
	assert.Equal(t, "counts", restored.FluxUnit())
	assert.Equal(t, original.Metadata(), restored.Metadata())
	assert.Equal(t, original.Provenance().Records(), restored.Provenance().Records())
}

func TestSqliteStore_SpectrumWithRange(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	original := newTestSpectrum(t)

	id, err := store.SaveSpectrum(ctx, original)
	require.NoError(t, err)

	restored, err := store.Spectrum(ctx, id, WithWavelengthRange(515, 535))
	require.NoError(t, err)
	assert.Equal(t, []float64{520, 530}, restored.Wavelength())
	assert.Equal(t, original.Provenance().Len()+1, restored.Provenance().Len())

	last, ok := restored.Provenance().Last()
	require.True(t, ok)
	assert.Equal(t, spectrum.OpRangeExtraction, last.Operation)
	assert.Equal(t, savedAt, last.Timestamp)

	restored, err = store.Spectrum(ctx, id, WithMinWavelength(530))
	require.NoError(t, err)
	assert.Equal(t, []float64{530, 540}, restored.Wavelength())

	_, err = store.Spectrum(ctx, id, WithWavelengthRange(600, 500))
	require.Error(t, err)
}

func TestSqliteStore_ReadSamples(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.SaveSpectrum(ctx, newTestSpectrum(t))
	require.NoError(t, err)

	r, err := store.ReadSamples(ctx, id, WithMaxWavelength(525))
	require.NoError(t, err)
	defer r.Close()

	var got []Sample
	for r.Next(ctx) {
		got = append(got, r.Current())
	}
	require.NoError(t, r.Error())
	require.Len(t, got, 2)
	assert.Equal(t, Sample{Index: 0, Wavelength: 510, Flux: 2}, got[0])
	assert.Equal(t, 1, got[1].Index)
	assert.Equal(t, 520.0, got[1].Wavelength)
	assert.True(t, math.IsNaN(got[1].Flux))
}

func TestSqliteStore_ReadSamples_Cancelled(t *testing.T) {
	store := newTestStore(t)

	id, err := store.SaveSpectrum(context.Background(), newTestSpectrum(t))
	require.NoError(t, err)

	r, err := store.ReadSamples(context.Background(), id)
	require.NoError(t, err)
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, r.Next(ctx))
	assert.ErrorIs(t, r.Error(), context.Canceled)
}

func TestSqliteStore_SpectraAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	entries, err := store.Spectra(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	empty, err := spectrum.New(nil, nil)
	require.NoError(t, err)

	first, err := store.SaveSpectrum(ctx, newTestSpectrum(t))
	require.NoError(t, err)
	second, err := store.SaveSpectrum(ctx, empty)
	require.NoError(t, err)

	entries, err = store.Spectra(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byID := map[string]*Entry{}
	for _, e := range entries {
		byID[e.ID] = e
	}
	require.Contains(t, byID, first)
	assert.Equal(t, "lamp", byID[first].Name)
	assert.Equal(t, 4, byID[first].NumPoints)
	assert.Equal(t, 2, byID[first].NumRecords)
	assert.Equal(t, savedAt, byID[first].CreatedAt)
	assert.Equal(t, "X1", byID[first].Metadata["instrument"])
	assert.Equal(t, 0, byID[second].NumPoints)

	restored, err := store.Spectrum(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, 0, restored.Len())

	require.NoError(t, store.DeleteSpectrum(ctx, first))
	_, err = store.Spectrum(ctx, first)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, store.DeleteSpectrum(ctx, first), ErrNotFound)

	_, err = store.ReadSamples(ctx, first)
	require.ErrorIs(t, err, ErrNotFound)

	entries, err = store.Spectra(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, second, entries[0].ID)
}

func TestSqliteStore_CloseIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Spectra(context.Background())
	require.NoError(t, err)

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
