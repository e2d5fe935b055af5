package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roman-kulish/specz/internal/catalog"
	"github.com/roman-kulish/specz/internal/ops"
	"github.com/roman-kulish/specz/internal/reference"
	"github.com/roman-kulish/specz/internal/spectrum"
	"github.com/roman-kulish/specz/internal/storage"
	"github.com/roman-kulish/specz/internal/units"
)

func (a *App) plotCommand() *cobra.Command {
	var output, title string

	cmd := &cobra.Command{
		Use:   "plot FILE",
		Short: "Plot a spectrum from file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.track("plot", func() error {
				s, err := a.load(args[0])
				if err != nil {
					return err
				}
				r, err := a.renderer()
				if err != nil {
					return err
				}
				img, err := r.Plot(s, title)
				if err != nil {
					return err
				}
				if err = a.saveImage(img, output); err != nil {
					return err
				}
				a.printf("Plot saved to %s\n", output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "spectrum_plot.png", "Output image file")
	cmd.Flags().StringVarP(&title, "title", "t", "", "Plot title")
	return cmd
}

func (a *App) compareCommand() *cobra.Command {
	var output, title, labels string
	var normalize bool

	cmd := &cobra.Command{
		Use:   "compare FILE|PATTERN...",
		Short: "Compare multiple spectra",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.track("compare", func() error {
				paths, err := expandPatterns(args)
				if err != nil {
					return err
				}

				spectra := make([]*spectrum.Spectrum, 0, len(paths))
				for _, path := range paths {
					s, err := a.load(path)
					if err != nil {
						return err
					}
					spectra = append(spectra, s)
				}

				r, err := a.renderer()
				if err != nil {
					return err
				}
				img, err := r.Compare(spectra, splitLabels(labels), title, normalize)
				if err != nil {
					return err
				}
				if err = a.saveImage(img, output); err != nil {
					return err
				}
				a.printf("Comparison plot saved to %s\n", output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "comparison.png", "Output image file")
	cmd.Flags().StringVarP(&title, "title", "t", "", "Plot title")
	cmd.Flags().StringVarP(&labels, "labels", "l", "", "Comma-separated labels")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "Normalize all spectra")
	return cmd
}

// expandPatterns resolves doublestar patterns. Plain paths are kept as
// they are; a pattern must match at least one file.
func expandPatterns(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			paths = append(paths, arg)
			continue
		}

		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expanding pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("pattern %q matches no files", arg)
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}

func (a *App) differenceCommand() *cobra.Command {
	var output, title string

	cmd := &cobra.Command{
		Use:   "difference FILE_A FILE_B",
		Short: "Plot two spectra and their difference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.track("difference", func() error {
				sa, sb, err := a.loadPair(args)
				if err != nil {
					return err
				}
				r, err := a.renderer()
				if err != nil {
					return err
				}
				img, err := r.Difference(sa, sb, title)
				if err != nil {
					return err
				}
				if err = a.saveImage(img, output); err != nil {
					return err
				}
				a.printf("Difference plot saved to %s\n", output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "difference.png", "Output image file")
	cmd.Flags().StringVarP(&title, "title", "t", "", "Plot title")
	return cmd
}

func (a *App) loadPair(args []string) (*spectrum.Spectrum, *spectrum.Spectrum, error) {
	sa, err := a.load(args[0])
	if err != nil {
		return nil, nil, err
	}
	sb, err := a.load(args[1])
	if err != nil {
		return nil, nil, err
	}
	return sa, sb, nil
}

func (a *App) subtractCommand() *cobra.Command {
	var output string
	var noInterpolate bool

	cmd := &cobra.Command{
		Use:   "subtract FILE_A FILE_B",
		Short: "Subtract spectrum B from spectrum A",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.track("subtract", func() error {
				sa, sb, err := a.loadPair(args)
				if err != nil {
					return err
				}
				result, err := ops.Subtract(sa, sb, !noInterpolate)
				if err != nil {
					return err
				}
				if err = a.save(result, output); err != nil {
					return err
				}
				a.printf("Result saved to %s\n", output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "result.csv", "Output file")
	cmd.Flags().BoolVar(&noInterpolate, "no-interpolate", false, "Require identical wavelength grids")
	return cmd
}

func (a *App) divideCommand() *cobra.Command {
	var output, handleZeros string
	var noInterpolate bool

	cmd := &cobra.Command{
		Use:   "divide FILE_A FILE_B",
		Short: "Divide spectrum A by spectrum B",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.track("divide", func() error {
				policy, err := ops.ParseZeroPolicy(handleZeros)
				if err != nil {
					return err
				}
				sa, sb, err := a.loadPair(args)
				if err != nil {
					return err
				}
				result, err := ops.Divide(sa, sb, !noInterpolate, policy)
				if err != nil {
					return err
				}
				if err = a.save(result, output); err != nil {
					return err
				}
				a.printf("Result saved to %s\n", output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "result.csv", "Output file")
	cmd.Flags().StringVar(&handleZeros, "handle-zeros", "mask", "Zero denominator policy (mask, nan, small)")
	cmd.Flags().BoolVar(&noInterpolate, "no-interpolate", false, "Require identical wavelength grids")
	return cmd
}

// wavelengthBounds reads the optional --min/--max pair. Both must be given
// together.
func wavelengthBounds(cmd *cobra.Command, lo, hi float64) (*ops.Region, error) {
	hasMin, hasMax := cmd.Flags().Changed("min"), cmd.Flags().Changed("max")
	switch {
	case !hasMin && !hasMax:
		return nil, nil
	case hasMin != hasMax:
		return nil, errors.New("--min and --max must be given together")
	case lo > hi:
		return nil, fmt.Errorf("invalid wavelength range %v > %v", lo, hi)
	}
	return &ops.Region{Min: lo, Max: hi}, nil
}

func (a *App) normalizeCommand() *cobra.Command {
	var output, method string
	var lo, hi float64

	cmd := &cobra.Command{
		Use:   "normalize FILE",
		Short: "Normalize a spectrum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.track("normalize", func() error {
				m, err := ops.ParseNormalizeMethod(method)
				if err != nil {
					return err
				}
				region, err := wavelengthBounds(cmd, lo, hi)
				if err != nil {
					return err
				}
				s, err := a.load(args[0])
				if err != nil {
					return err
				}
				result, err := ops.Normalize(s, m, region)
				if err != nil {
					return err
				}
				if err = a.save(result, output); err != nil {
					return err
				}
				a.printf("Normalized spectrum saved to %s\n", output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "normalized.csv", "Output file")
	cmd.Flags().StringVarP(&method, "method", "m", "peak", "Normalization method (peak, area, continuum)")
	cmd.Flags().Float64Var(&lo, "min", 0, "Lower bound of the normalization region")
	cmd.Flags().Float64Var(&hi, "max", 0, "Upper bound of the normalization region")
	return cmd
}

func (a *App) smoothCommand() *cobra.Command {
	var output, method string
	var window int

	cmd := &cobra.Command{
		Use:   "smooth FILE",
		Short: "Smooth a spectrum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.track("smooth", func() error {
				m, err := ops.ParseSmoothMethod(method)
				if err != nil {
					return err
				}
				s, err := a.load(args[0])
				if err != nil {
					return err
				}
				result, err := ops.Smooth(s, window, m)
				if err != nil {
					return err
				}
				if err = a.save(result, output); err != nil {
					return err
				}
				a.printf("Smoothed spectrum saved to %s\n", output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "smoothed.csv", "Output file")
	cmd.Flags().StringVarP(&method, "method", "m", "savgol", "Smoothing method (savgol, boxcar, gaussian)")
	cmd.Flags().IntVarP(&window, "window", "w", 5, "Window size in samples")
	return cmd
}

func (a *App) convertCommand() *cobra.Command {
	var output, from, to string

	cmd := &cobra.Command{
		Use:   "convert FILE",
		Short: "Convert the wavelength axis to another unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.track("convert", func() error {
				s, err := a.load(args[0])
				if err != nil {
					return err
				}
				var opts []units.ConvertOption
				if from != "" {
					opts = append(opts, units.WithFromUnit(from))
				}
				result, err := units.Convert(s, to, opts...)
				if err != nil {
					return err
				}
				if err = a.save(result, output); err != nil {
					return err
				}
				a.printf("Converted spectrum saved to %s\n", output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "converted.csv", "Output file")
	cmd.Flags().StringVar(&from, "from", "", "Source unit (defaults to the file's wavelength unit)")
	cmd.Flags().StringVar(&to, "to", "", "Target unit")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func (a *App) rangeCommand() *cobra.Command {
	var output string
	var lo, hi float64

	cmd := &cobra.Command{
		Use:   "range FILE",
		Short: "Extract a wavelength range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.track("range", func() error {
				if lo > hi {
					return fmt.Errorf("invalid wavelength range %v > %v", lo, hi)
				}
				s, err := a.load(args[0])
				if err != nil {
					return err
				}
				result := s.Range(lo, hi)
				if err = a.save(result, output); err != nil {
					return err
				}
				a.printf("Extracted %s points to %s\n", humanize.Comma(int64(result.Len())), output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "range.csv", "Output file")
	cmd.Flags().Float64Var(&lo, "min", 0, "Minimum wavelength")
	cmd.Flags().Float64Var(&hi, "max", 0, "Maximum wavelength")
	_ = cmd.MarkFlagRequired("min")
	_ = cmd.MarkFlagRequired("max")
	return cmd
}

func (a *App) fetchCommand() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch data from online catalogs",
	}
	cmd.PersistentFlags().BoolVar(&offline, "offline", false, "Use the built-in example data only")

	var (
		element, ion, unit, nistOutput string
		nistMin, nistMax               float64
	)
	nist := &cobra.Command{
		Use:   "nist",
		Short: "Fetch atomic lines from the NIST Atomic Spectra Database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.track("fetch_nist", func() error {
				u, err := units.ParseUnit(unit)
				if err != nil {
					return err
				}
				s, err := a.catalogs(offline).Atomic.AtomicLines(cmd.Context(), catalog.AtomicQuery{
					Element:  element,
					IonStage: ion,
					Range:    &catalog.WavelengthRange{Min: nistMin, Max: nistMax},
					Unit:     u,
				})
				if err != nil {
					return err
				}
				if err = a.save(s, nistOutput); err != nil {
					return err
				}
				a.printf("NIST data saved to %s\n", nistOutput)
				return nil
			})
		},
	}
	nist.Flags().StringVarP(&element, "element", "e", "", "Element symbol (e.g. Fe, H)")
	nist.Flags().StringVarP(&ion, "ion", "i", catalog.DefaultIonStage, "Ionization stage")
	nist.Flags().Float64Var(&nistMin, "min", 400, "Min wavelength (nm)")
	nist.Flags().Float64Var(&nistMax, "max", 700, "Max wavelength (nm)")
	nist.Flags().StringVar(&unit, "unit", "nm", "Output wavelength unit (nm, angstrom)")
	nist.Flags().StringVarP(&nistOutput, "output", "o", "nist_lines.csv", "Output file")
	_ = nist.MarkFlagRequired("element")

	var target, instrument, mastOutput string
	mast := &cobra.Command{
		Use:   "mast",
		Short: "Fetch a target spectrum from the MAST archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.track("fetch_mast", func() error {
				s, err := a.catalogs(offline).Target.TargetSpectrum(cmd.Context(), catalog.TargetQuery{
					Target:     target,
					Instrument: instrument,
				})
				if err != nil {
					return err
				}
				if err = a.save(s, mastOutput); err != nil {
					return err
				}
				a.printf("MAST data saved to %s\n", mastOutput)
				return nil
			})
		},
	}
	mast.Flags().StringVarP(&target, "target", "t", "", "Target name")
	mast.Flags().StringVar(&instrument, "instrument", "", "Instrument name")
	mast.Flags().StringVarP(&mastOutput, "output", "o", "mast_spectrum.csv", "Output file")
	_ = mast.MarkFlagRequired("target")

	var (
		molecule, exomolOutput      string
		temperature, molMin, molMax float64
	)
	exomol := &cobra.Command{
		Use:   "exomol",
		Short: "Fetch molecular lines from ExoMol",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.track("fetch_exomol", func() error {
				region, err := wavelengthBounds(cmd, molMin, molMax)
				if err != nil {
					return err
				}
				q := catalog.MolecularQuery{Molecule: molecule, Temperature: temperature}
				if region != nil {
					q.Range = &catalog.WavelengthRange{Min: region.Min, Max: region.Max}
				}

				s, err := a.catalogs(offline).Molecular.MolecularLines(cmd.Context(), q)
				if err != nil {
					return err
				}
				if err = a.save(s, exomolOutput); err != nil {
					return err
				}
				a.printf("ExoMol data saved to %s\n", exomolOutput)
				return nil
			})
		},
	}
	exomol.Flags().StringVarP(&molecule, "molecule", "m", "", "Molecule (e.g. H2O)")
	exomol.Flags().Float64VarP(&temperature, "temp", "t", 300, "Temperature (K)")
	exomol.Flags().Float64Var(&molMin, "min", 0, "Min wavelength (nm)")
	exomol.Flags().Float64Var(&molMax, "max", 0, "Max wavelength (nm)")
	exomol.Flags().StringVarP(&exomolOutput, "output", "o", "exomol_lines.csv", "Output file")
	_ = exomol.MarkFlagRequired("molecule")

	cmd.AddCommand(nist, mast, exomol)
	return cmd
}

func (a *App) provenanceCommand() *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "provenance FILE|ID",
		Short: "Show the provenance of a spectrum file or library entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.track("provenance", func() error {
				var s *spectrum.Spectrum
				var err error
				if _, statErr := os.Stat(args[0]); statErr == nil {
					s, err = a.load(args[0])
				} else {
					s, err = a.fromLibrary(cmd, args[0])
				}
				if err != nil {
					return err
				}

				w := a.stdout
				if output != "" {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("creating output file: %w", err)
					}
					defer f.Close()
					w = f
				}

				switch format {
				case "summary":
					_, err = fmt.Fprint(w, s.Provenance().Summary())
				case "yaml":
					err = s.Provenance().WriteYAML(w)
				case "json":
					err = s.Provenance().WriteJSON(w)
				case "document":
					err = s.WriteProvenance(w)
				default:
					return fmt.Errorf("unknown provenance format %q", format)
				}
				if err != nil {
					return err
				}
				if output != "" {
					a.printf("Provenance saved to %s\n", output)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "summary", "Output format (summary, yaml, json, document)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (defaults to standard output)")
	return cmd
}

func (a *App) fromLibrary(cmd *cobra.Command, id string, opts ...storage.ReaderOption) (s *spectrum.Spectrum, err error) {
	store, err := a.openLibrary()
	if err != nil {
		return nil, err
	}
	defer func() {
		if cErr := store.Close(); cErr != nil {
			err = errors.Join(err, cErr)
		}
	}()

	return store.Spectrum(cmd.Context(), id, opts...)
}

func (a *App) referenceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reference",
		Short: "Write built-in reference spectra",
	}

	builtin := func(use, short, defaultOutput string, build func(...spectrum.Option) (*spectrum.Spectrum, error)) *cobra.Command {
		var output string
		sub := &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.track("reference_"+use, func() error {
					s, err := build(spectrum.WithClock(a.clock))
					if err != nil {
						return err
					}
					if err = a.save(s, output); err != nil {
						return err
					}
					a.printf("%s saved to %s\n", s.Name(), output)
					return nil
				})
			},
		}
		sub.Flags().StringVarP(&output, "output", "o", defaultOutput, "Output file")
		return sub
	}

	var planetOutput string
	planet := &cobra.Command{
		Use:       "planet NAME",
		Short:     "Modeled reflected spectrum of a planet or the Moon",
		Args:      cobra.ExactArgs(1),
		ValidArgs: reference.Planets(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.track("reference_planet", func() error {
				s, err := reference.Planet(args[0], spectrum.WithClock(a.clock))
				if err != nil {
					return err
				}
				output := planetOutput
				if output == "" {
					output = strings.ToLower(strings.TrimSpace(args[0])) + "_spectrum.csv"
				}
				if err = a.save(s, output); err != nil {
					return err
				}
				a.printf("%s saved to %s\n", s.Name(), output)
				return nil
			})
		},
	}
	planet.Flags().StringVarP(&planetOutput, "output", "o", "", "Output file (defaults to NAME_spectrum.csv)")

	cmd.AddCommand(
		builtin("am0", "ASTM E490 AM0 solar irradiance", "sun_am0.csv", reference.SolarAM0),
		builtin("solar", "Visible solar spectrum with Fraunhofer lines", "sun_visible.csv", reference.SolarVisible),
		planet,
	)
	return cmd
}

func (a *App) libraryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Manage the local spectrum library",
	}

	// withStore opens the library for the duration of fn
	withStore := func(fn func(store storage.Store) error) (err error) {
		store, err := a.openLibrary()
		if err != nil {
			return err
		}
		defer func() {
			if cErr := store.Close(); cErr != nil {
				err = errors.Join(err, cErr)
			}
		}()
		return fn(store)
	}

	save := &cobra.Command{
		Use:   "save FILE...",
		Short: "Store spectrum files in the library",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.track("library_save", func() error {
				paths, err := expandPatterns(args)
				if err != nil {
					return err
				}
				return withStore(func(store storage.Store) error {
					for _, path := range paths {
						s, err := a.load(path)
						if err != nil {
							return err
						}
						id, err := store.SaveSpectrum(cmd.Context(), s)
						if err != nil {
							return fmt.Errorf("saving %s: %w", path, err)
						}
						a.metrics.SamplesWritten(s.Len())
						a.logger.Info("spectrum stored", slog.String("id", id), slog.String("path", path))
						a.printf("%s\t%s\n", id, path)
					}
					return nil
				})
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored spectra",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.track("library_list", func() error {
				return withStore(func(store storage.Store) error {
					entries, err := store.Spectra(cmd.Context())
					if err != nil {
						return err
					}

					tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tNAME\tPOINTS\tUNITS\tSTEPS\tSAVED")
					for _, e := range entries {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s / %s\t%d\t%s\n",
							e.ID, e.Name, humanize.Comma(int64(e.NumPoints)),
							e.WavelengthUnit, e.FluxUnit, e.NumRecords, humanize.Time(e.CreatedAt))
					}
					return tw.Flush()
				})
			})
		},
	}

	var showMin, showMax float64
	show := &cobra.Command{
		Use:   "show ID",
		Short: "Describe a stored spectrum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.track("library_show", func() error {
				s, err := a.fromLibrary(cmd, args[0], readerOptions(cmd, showMin, showMax)...)
				if err != nil {
					return err
				}

				a.printf("Name: %s\n", s.Name())
				a.printf("Points: %s\n", humanize.Comma(int64(s.Len())))
				a.printf("Units: %s / %s\n", s.WavelengthUnit(), s.FluxUnit())
				if wl := s.Wavelength(); len(wl) > 0 {
					a.printf("Wavelength: %g - %g\n", wl[0], wl[len(wl)-1])
				}
				a.printf("%s", s.Provenance().Summary())
				return nil
			})
		},
	}
	show.Flags().Float64Var(&showMin, "min", 0, "Minimum wavelength")
	show.Flags().Float64Var(&showMax, "max", 0, "Maximum wavelength")

	var exportOutput string
	var exportMin, exportMax float64
	export := &cobra.Command{
		Use:   "export ID",
		Short: "Write a stored spectrum to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.track("library_export", func() error {
				s, err := a.fromLibrary(cmd, args[0], readerOptions(cmd, exportMin, exportMax)...)
				if err != nil {
					return err
				}
				if err = a.save(s, exportOutput); err != nil {
					return err
				}
				a.printf("Spectrum saved to %s\n", exportOutput)
				return nil
			})
		},
	}
	export.Flags().StringVarP(&exportOutput, "output", "o", "spectrum.csv", "Output file")
	export.Flags().Float64Var(&exportMin, "min", 0, "Minimum wavelength")
	export.Flags().Float64Var(&exportMax, "max", 0, "Maximum wavelength")

	del := &cobra.Command{
		Use:   "delete ID...",
		Short: "Remove stored spectra",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.track("library_delete", func() error {
				return withStore(func(store storage.Store) error {
					for _, id := range args {
						if err := store.DeleteSpectrum(cmd.Context(), id); err != nil {
							return fmt.Errorf("deleting %s: %w", id, err)
						}
						a.printf("Deleted %s\n", id)
					}
					return nil
				})
			})
		},
	}

	cmd.AddCommand(save, list, show, export, del)
	return cmd
}

// readerOptions turns optional --min/--max flags into storage filters.
func readerOptions(cmd *cobra.Command, lo, hi float64) []storage.ReaderOption {
	var opts []storage.ReaderOption
	if cmd.Flags().Changed("min") {
		opts = append(opts, storage.WithMinWavelength(lo))
	}
	if cmd.Flags().Changed("max") {
		opts = append(opts, storage.WithMaxWavelength(hi))
	}
	return opts
}

func (a *App) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.printf("specz version %s\n", Version)
			return nil
		},
	}
}
