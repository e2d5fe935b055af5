package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roman-kulish/specz/internal/spectrum"
)

// Capability names passed to the OnFallback hook.
const (
	CapabilityAtomic    = "atomic"
	CapabilityTarget    = "target"
	CapabilityMolecular = "molecular"
)

// Sources bundles one implementation per capability. Nil members are
// allowed.
type Sources struct {
	Atomic    AtomicLineSource
	Target    TargetSpectrumSource
	Molecular MolecularLineSource
}

// Fallback tries its primary source exactly once and, on any failure, logs a
// warning and answers from the secondary source instead.
type Fallback struct {
	primary    Sources
	secondary  Sources
	logger     *slog.Logger
	onFallback func(capability string, err error)
}

var (
	_ AtomicLineSource     = (*Fallback)(nil)
	_ TargetSpectrumSource = (*Fallback)(nil)
	_ MolecularLineSource  = (*Fallback)(nil)
)

func NewFallback(primary, secondary Sources, opts ...Option) *Fallback {
	o := newOptions("", opts)
	return &Fallback{
		primary:    primary,
		secondary:  secondary,
		logger:     o.logger,
		onFallback: o.onFallback,
	}
}

// NewOnlineSources returns the network clients for all capabilities.
func NewOnlineSources(nist, mast, exomol []Option) Sources {
	return Sources{
		Atomic:    NewNIST(nist...),
		Target:    NewMAST(mast...),
		Molecular: NewExoMol(exomol...),
	}
}

// ExampleSources answers every capability from the built-in tables.
func ExampleSources(opts ...Option) Sources {
	e := NewExample(opts...)
	return Sources{Atomic: e, Target: e, Molecular: e}
}

func (f *Fallback) AtomicLines(ctx context.Context, q AtomicQuery) (*spectrum.Spectrum, error) {
	return try(ctx, f, CapabilityAtomic, q, f.primary.Atomic, f.secondary.Atomic, AtomicLineSource.AtomicLines)
}

func (f *Fallback) TargetSpectrum(ctx context.Context, q TargetQuery) (*spectrum.Spectrum, error) {
	return try(ctx, f, CapabilityTarget, q, f.primary.Target, f.secondary.Target, TargetSpectrumSource.TargetSpectrum)
}

func (f *Fallback) MolecularLines(ctx context.Context, q MolecularQuery) (*spectrum.Spectrum, error) {
	return try(ctx, f, CapabilityMolecular, q, f.primary.Molecular, f.secondary.Molecular, MolecularLineSource.MolecularLines)
}

func try[S comparable, Q any](
	ctx context.Context,
	f *Fallback,
	capability string,
	q Q,
	primary, secondary S,
	call func(S, context.Context, Q) (*spectrum.Spectrum, error),
) (*spectrum.Spectrum, error) {
	var zero S

	var primaryErr error
	if primary != zero {
		s, err := call(primary, ctx, q)
		if err == nil {
			return s, nil
		}
		// a malformed query fails the same way everywhere
		if errors.Is(err, ErrInvalidQuery) {
			return nil, err
		}
		primaryErr = err
	} else {
		primaryErr = fmt.Errorf("no primary %s source configured", capability)
	}

	if secondary == zero {
		return nil, primaryErr
	}

	f.logger.Warn("catalog query failed, using fallback data",
		slog.String("capability", capability),
		slog.String("error", primaryErr.Error()),
	)
	if f.onFallback != nil {
		f.onFallback(capability, primaryErr)
	}

	s, err := call(secondary, ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying fallback %s source: %w", capability, err)
	}
	return s, nil
}
