package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/specz/internal/catalog"
	"github.com/roman-kulish/specz/internal/render"
)

const (
	defaultDataDirectory = "~/.specz"
	libraryFileName      = "library.sqlite"
)

// Config represents the main application configuration
type Config struct {
	Settings Settings      `yaml:"settings"`
	Storage  StorageConfig `yaml:"storage"`
	Catalog  CatalogConfig `yaml:"catalog"`
	Render   RenderConfig  `yaml:"render"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// StorageConfig represents the spectrum library settings
type StorageConfig struct {
	DataDirectory string `yaml:"dataDirectory"`
	MaxBatchSize  int    `yaml:"maxBatchSize"`
}

// CatalogConfig represents the remote catalog settings
type CatalogConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Offline bool          `yaml:"offline"`
	NIST    ServiceConfig `yaml:"nist"`
	MAST    ServiceConfig `yaml:"mast"`
	ExoMol  ServiceConfig `yaml:"exomol"`
}

// ServiceConfig points at one catalog service
type ServiceConfig struct {
	BaseURL string `yaml:"baseURL"`
}

// RenderConfig represents plot output settings
type RenderConfig struct {
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
	Format   string  `yaml:"format"`
	FontSize float64 `yaml:"fontSize"`
}

// NewConfig returns the configuration used when no file is given.
func NewConfig() *Config {
	return &Config{
		Settings: Settings{LogLevel: "info"},
		Storage:  StorageConfig{DataDirectory: defaultDataDirectory},
		Catalog: CatalogConfig{
			Timeout: catalog.DefaultTimeout,
			NIST:    ServiceConfig{BaseURL: catalog.DefaultNISTURL},
			MAST:    ServiceConfig{BaseURL: catalog.DefaultMASTURL},
			ExoMol:  ServiceConfig{BaseURL: catalog.DefaultExoMolURL},
		},
		Render: RenderConfig{
			Width:    1000,
			Height:   600,
			Format:   string(render.ImagePNG),
			FontSize: 12,
		},
	}
}

// LoadConfig reads a YAML file on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := NewConfig()
	if err = yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err = config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}

	return config, nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error

	if _, err := parseLogLevel(c.Settings.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if _, err := render.ParseImageFormat(c.Render.Format); err != nil {
		errs = append(errs, err)
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		errs = append(errs, fmt.Errorf("invalid render size %dx%d", c.Render.Width, c.Render.Height))
	}
	if c.Render.FontSize < 0 {
		errs = append(errs, fmt.Errorf("invalid font size %v", c.Render.FontSize))
	}
	if c.Catalog.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid catalog timeout %s", c.Catalog.Timeout))
	}
	if c.Storage.MaxBatchSize < 0 {
		errs = append(errs, fmt.Errorf("invalid storage batch size %d", c.Storage.MaxBatchSize))
	}

	return errors.Join(errs...)
}

// LibraryPath resolves the SQLite file of the spectrum library. A leading
// "~" expands to the user's home directory.
func (c *Config) LibraryPath() (string, error) {
	dir := c.Storage.DataDirectory
	if dir == "" {
		dir = defaultDataDirectory
	}

	if dir == "~" || strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}

	return filepath.Join(dir, libraryFileName), nil
}
