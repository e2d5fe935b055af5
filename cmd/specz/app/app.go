package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roman-kulish/specz/internal/catalog"
	"github.com/roman-kulish/specz/internal/formats"
	"github.com/roman-kulish/specz/internal/render"
	"github.com/roman-kulish/specz/internal/spectrum"
	"github.com/roman-kulish/specz/internal/storage"
)

// Version is set at build time.
var Version = "0.1.0"

// App carries what every command needs: configuration, logger and the
// metrics of the current run.
type App struct {
	stdout  io.Writer
	logger  *slog.Logger
	level   *slog.LevelVar
	config  *Config
	metrics *Metrics
	clock   spectrum.Clock

	configPath  string
	logLevel    string
	metricsFile string
	inputFormat string
}

// Run executes the command line given by args.
func Run(ctx context.Context, args []string, stdout io.Writer, logger *slog.Logger, level *slog.LevelVar) error {
	a := &App{
		stdout:  stdout,
		logger:  logger,
		level:   level,
		config:  NewConfig(),
		metrics: NewMetrics(),
		clock:   spectrum.SystemClock,
	}

	cmd := a.rootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.ExecuteContext(ctx)
	if a.metricsFile != "" {
		if mErr := a.metrics.WriteToFile(a.metricsFile); mErr != nil {
			err = errors.Join(err, mErr)
		}
	}
	return err
}

func (a *App) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "specz",
		Short: "spec-z: spectral analysis toolkit",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.configure()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to the configuration file")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "Write run metrics to this file")
	flags.StringVar(&a.inputFormat, "input-format", "auto", "Input file format (auto, csv, ascii, fits)")

	root.AddCommand(
		a.plotCommand(),
		a.compareCommand(),
		a.differenceCommand(),
		a.subtractCommand(),
		a.divideCommand(),
		a.normalizeCommand(),
		a.smoothCommand(),
		a.convertCommand(),
		a.rangeCommand(),
		a.fetchCommand(),
		a.provenanceCommand(),
		a.referenceCommand(),
		a.libraryCommand(),
		a.versionCommand(),
	)
	return root
}

func (a *App) configure() error {
	if a.configPath != "" {
		config, err := LoadConfig(a.configPath)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		a.config = config
	}

	levelName := a.config.Settings.LogLevel
	if a.logLevel != "" {
		levelName = a.logLevel
	}
	lvl, err := parseLogLevel(levelName)
	if err != nil {
		return err
	}
	if a.level != nil {
		a.level.Set(lvl)
	}

	if _, err = formats.ParseFormat(a.inputFormat); err != nil {
		return fmt.Errorf("parsing input format: %w", err)
	}
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return lvl, fmt.Errorf("invalid log level %q", s)
	}
	return lvl, nil
}

// track runs fn as the named operation, logging and counting its outcome.
func (a *App) track(operation string, fn func() error) error {
	started := time.Now()
	err := fn()
	a.metrics.Observe(operation, started, err)

	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	a.logger.Debug("operation completed",
		slog.String("operation", operation),
		slog.Duration("elapsed", time.Since(started)))
	return nil
}

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.stdout, format, args...)
}

func (a *App) load(path string) (*spectrum.Spectrum, error) {
	format, err := formats.ParseFormat(a.inputFormat)
	if err != nil {
		return nil, err
	}

	s, err := formats.Load(path, format, formats.WithClock(a.clock))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	a.logger.Debug("spectrum loaded",
		slog.String("path", path),
		slog.Group("spectrum",
			slog.String("name", s.Name()),
			slog.Int("points", s.Len()),
			slog.String("wavelengthUnit", s.WavelengthUnit()),
			slog.String("fluxUnit", s.FluxUnit())))
	return s, nil
}

func (a *App) save(s *spectrum.Spectrum, path string) error {
	if err := formats.Export(s, path, formats.FormatAuto); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	a.metrics.SamplesWritten(s.Len())
	return nil
}

func (a *App) renderer() (*render.Renderer, error) {
	return render.NewRenderer(render.RenderConfig{
		Width:    a.config.Render.Width,
		Height:   a.config.Render.Height,
		FontSize: a.config.Render.FontSize,
	})
}

func (a *App) saveImage(img image.Image, path string) error {
	def, err := render.ParseImageFormat(a.config.Render.Format)
	if err != nil {
		return err
	}
	format := render.FormatFromPath(path, def)

	if err = render.SaveImage(path, img, format); err != nil {
		return err
	}

	a.logger.Info("image saved",
		slog.String("path", path),
		slog.Group("image",
			slog.String("format", string(format)),
			slog.Int("width", img.Bounds().Dx()),
			slog.Int("height", img.Bounds().Dy())))
	return nil
}

func (a *App) openLibrary() (*storage.SqliteStore, error) {
	path, err := a.config.LibraryPath()
	if err != nil {
		return nil, err
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating library directory: %w", err)
	}

	opts := []storage.StoreOption{storage.WithClock(a.clock)}
	if a.config.Storage.MaxBatchSize > 0 {
		opts = append(opts, storage.WithBatchSize(a.config.Storage.MaxBatchSize))
	}

	a.logger.Debug("opening spectrum library", slog.String("path", path))
	return storage.NewSqliteStore(path, opts...), nil
}

// catalogs returns the sources used by the fetch commands. Offline runs
// answer from the example tables without touching the network.
func (a *App) catalogs(offline bool) catalog.Sources {
	examples := catalog.ExampleSources(catalog.WithClock(a.clock))
	if offline || a.config.Catalog.Offline {
		return examples
	}

	common := []catalog.Option{
		catalog.WithTimeout(a.config.Catalog.Timeout),
		catalog.WithClock(a.clock),
		catalog.WithLogger(a.logger),
	}
	withURL := func(u string) []catalog.Option {
		opts := append([]catalog.Option{}, common...)
		if u != "" {
			opts = append(opts, catalog.WithBaseURL(u))
		}
		return opts
	}

	online := catalog.NewOnlineSources(
		withURL(a.config.Catalog.NIST.BaseURL),
		withURL(a.config.Catalog.MAST.BaseURL),
		withURL(a.config.Catalog.ExoMol.BaseURL),
	)
	f := catalog.NewFallback(online, examples,
		catalog.WithLogger(a.logger),
		catalog.WithOnFallback(func(capability string, err error) {
			a.metrics.Fallback(capability)
		}),
	)
	return catalog.Sources{Atomic: f, Target: f, Molecular: f}
}

func splitLabels(s string) []string {
	if s == "" {
		return nil
	}
	labels := strings.Split(s, ",")
	for i := range labels {
		labels[i] = strings.TrimSpace(labels[i])
	}
	return labels
}
