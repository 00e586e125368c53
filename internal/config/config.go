// Package config loads medcarbon settings: defaults, then ~/.medcarbon/config.yaml,
// then a project overlay, then MEDCARBON_* environment variables. CLI flags
// are applied last by the commands themselves.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/rshade/medcarbon/internal/engine/batch"
	"github.com/rshade/medcarbon/internal/engine/cache"
	"github.com/rshade/medcarbon/internal/greenops"
	"github.com/rshade/medcarbon/internal/logging"
	"github.com/rshade/medcarbon/internal/source"
	"github.com/rshade/medcarbon/internal/store"
)

const (
	dirName        = ".medcarbon"
	configFileName = "config.yaml"

	// DefaultDestination is where products are assumed to be used.
	DefaultDestination = "london (united kingdom)"
	// DefaultDeconUnit is the decontamination unit profile used for HSDU.
	DefaultDeconUnit = "hsdu"
)

// Output formats.
const (
	FormatTable  = "table"
	FormatJSON   = "json"
	FormatNDJSON = "ndjson"
)

// Validation errors.
var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrConfigMissing = errors.New("config file not found")
)

// Config is the full medcarbon configuration.
type Config struct {
	Data        DataConfig        `yaml:"data"`
	Calculation CalculationConfig `yaml:"calculation"`
	Cache       CacheConfig       `yaml:"cache"`
	Store       StoreConfig       `yaml:"store"`
	Logging     LoggingConfig     `yaml:"logging"`
	Output      OutputConfig      `yaml:"output"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// DataConfig locates the factor and lookup tables.
type DataConfig struct {
	// Location is a directory, file:// or http(s):// URL, or s3://bucket/prefix.
	Location    string           `yaml:"location" env:"MEDCARBON_DATA" env-description:"data table location"`
	Files       source.FileNames `yaml:"files"`
	S3Region    string           `yaml:"s3_region" env:"MEDCARBON_S3_REGION" env-description:"region for s3:// data"`
	S3Endpoint  string           `yaml:"s3_endpoint" env:"MEDCARBON_S3_ENDPOINT" env-description:"S3-compatible endpoint URL"`
	S3PathStyle bool             `yaml:"s3_path_style" env:"MEDCARBON_S3_PATH_STYLE" env-description:"use path-style S3 addressing"`
}

// CalculationConfig holds the per-session calculation inputs.
type CalculationConfig struct {
	Destination string `yaml:"destination" env:"MEDCARBON_DESTINATION" env-description:"city (country) of use"`

	// Year 0 means the current calendar year.
	Year      int    `yaml:"year" env:"MEDCARBON_YEAR" env-description:"factor year for use, reprocessing and disposal"`
	DeconUnit string `yaml:"decon_unit" env:"MEDCARBON_DECON_UNIT" env-description:"decontamination unit profile"`
	BatchSize int    `yaml:"batch_size" env:"MEDCARBON_BATCH_SIZE" env-description:"products per batch"`
	Workers   int    `yaml:"workers" env:"MEDCARBON_WORKERS" env-description:"concurrent products per batch"`

	// SeaDetourFactor scales great-circle estimates for sea legs missing from
	// the distance table. 0 means 1.
	SeaDetourFactor float64 `yaml:"sea_detour_factor" env:"MEDCARBON_SEA_DETOUR_FACTOR" env-description:"multiplier for great-circle sea distance estimates"`
}

// EffectiveYear resolves Year 0 to the year of now.
func (c CalculationConfig) EffectiveYear(now time.Time) int {
	if c.Year > 0 {
		return c.Year
	}
	return now.Year()
}

// EffectiveSeaDetour resolves SeaDetourFactor 0 to 1.
func (c CalculationConfig) EffectiveSeaDetour() float64 {
	if c.SeaDetourFactor == 0 {
		return 1
	}
	return c.SeaDetourFactor
}

// CacheConfig controls the sea-route cache.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled" env:"MEDCARBON_CACHE_ENABLED" env-description:"cache routed sea distances"`
	Directory  string `yaml:"directory" env:"MEDCARBON_CACHE_DIR" env-description:"cache directory"`
	TTLSeconds int    `yaml:"ttl_seconds" env:"MEDCARBON_CACHE_TTL" env-description:"cache entry lifetime in seconds"`
}

// StoreConfig selects the run archive database.
type StoreConfig struct {
	Driver string `yaml:"driver" env:"MEDCARBON_STORE_DRIVER" env-description:"sqlite or postgres"`
	DSN    string `yaml:"dsn" env:"MEDCARBON_STORE_DSN" env-description:"database file or connection string"`
}

// LoggingConfig mirrors logging.Config in YAML form.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"MEDCARBON_LOG_LEVEL" env-description:"trace, debug, info, warn or error"`
	Format string `yaml:"format" env:"MEDCARBON_LOG_FORMAT" env-description:"console or json"`
	File   string `yaml:"file" env:"MEDCARBON_LOG_FILE" env-description:"optional log file"`
	Caller bool   `yaml:"caller"`
}

// OutputConfig sets report defaults.
type OutputConfig struct {
	Format        string `yaml:"format" env:"MEDCARBON_OUTPUT" env-description:"table, json or ndjson"`
	Unit          string `yaml:"unit" env:"MEDCARBON_UNIT" env-description:"g, kg, t or lb"`
	Precision     int    `yaml:"precision"`
	Equivalencies bool   `yaml:"equivalencies" env:"MEDCARBON_EQUIVALENCIES" env-description:"show everyday equivalencies"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" env:"MEDCARBON_METRICS_TEXTFILE" env-description:"write metrics to this .prom file"`
}

// Dir returns the medcarbon home directory: $MEDCARBON_HOME or ~/.medcarbon.
func Dir() string {
	if home := os.Getenv("MEDCARBON_HOME"); home != "" {
		return home
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return dirName
	}
	return filepath.Join(userHome, dirName)
}

// DefaultPath returns the global config file path.
func DefaultPath() string {
	return filepath.Join(Dir(), configFileName)
}

// New returns the built-in defaults.
func New() *Config {
	dir := Dir()
	return &Config{
		Data: DataConfig{
			Location: filepath.Join(dir, "data"),
			Files:    source.DefaultFileNames(),
		},
		Calculation: CalculationConfig{
			Destination: DefaultDestination,
			DeconUnit:   DefaultDeconUnit,
			BatchSize:   batch.DefaultBatchSize,
			Workers:     batch.DefaultWorkers,

			SeaDetourFactor: 1,
		},
		Cache: CacheConfig{
			Enabled:    true,
			Directory:  filepath.Join(dir, "cache"),
			TTLSeconds: cache.DefaultTTLSeconds,
		},
		Store: StoreConfig{
			Driver: store.DriverSQLite,
			DSN:    filepath.Join(dir, "medcarbon.db"),
		},
		Logging: LoggingConfig{
			Level:  zerolog.InfoLevel.String(),
			Format: logging.FormatConsole,
		},
		Output: OutputConfig{
			Format:    FormatTable,
			Unit:      string(greenops.UnitKg),
			Precision: 4,
		},
	}
}

// LoadOptions locates the files Load reads.
type LoadOptions struct {
	// Path overrides the global config file. An explicit path must exist.
	Path string
	// ProjectDir holds a project config.yaml merged over the global file.
	ProjectDir string
}

// Load builds the effective configuration and validates it.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	log := logging.FromContext(ctx)
	cfg := New()

	path := opts.Path
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if err := cfg.readFile(path); err != nil {
		if !errors.Is(err, ErrConfigMissing) || explicit {
			return nil, err
		}
		log.Debug().Ctx(ctx).Str("component", "config").Str("path", path).
			Msg("no config file, using defaults")
	}

	if opts.ProjectDir != "" {
		overlay := filepath.Join(opts.ProjectDir, configFileName)
		if _, err := os.Stat(overlay); err == nil {
			if err := ShallowMergeYAML(cfg, overlay); err != nil {
				return nil, err
			}
			log.Debug().Ctx(ctx).Str("component", "config").Str("operation", "merge_project_config").
				Str("overlay_path", overlay).Msg("project config merged")
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrConfigMissing, path)
	}
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// Validate checks enumerated values and ranges.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Data.Location == "" {
		invalid("data.location is empty")
	}
	if c.Calculation.Destination == "" {
		invalid("calculation.destination is empty")
	}
	if c.Calculation.Year < 0 {
		invalid("calculation.year %d is negative", c.Calculation.Year)
	}
	if bs := c.Calculation.BatchSize; bs != 0 && (bs < batch.MinBatchSize || bs > batch.MaxBatchSize) {
		invalid("calculation.batch_size %d outside [%d, %d]", bs, batch.MinBatchSize, batch.MaxBatchSize)
	}
	if c.Calculation.Workers < 0 {
		invalid("calculation.workers %d is negative", c.Calculation.Workers)
	}
	if f := c.Calculation.SeaDetourFactor; f != 0 && f < 1 {
		invalid("calculation.sea_detour_factor %g below 1", f)
	}
	if c.Cache.Enabled && c.Cache.TTLSeconds < cache.MinTTLSeconds {
		invalid("cache.ttl_seconds %d below minimum %d", c.Cache.TTLSeconds, cache.MinTTLSeconds)
	}
	switch c.Store.Driver {
	case store.DriverSQLite, store.DriverPostgres:
	default:
		invalid("store.driver %q, want sqlite or postgres", c.Store.Driver)
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil || c.Logging.Level == "" {
		invalid("logging.level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case logging.FormatConsole, logging.FormatJSON:
	default:
		invalid("logging.format %q, want console or json", c.Logging.Format)
	}
	switch c.Output.Format {
	case FormatTable, FormatJSON, FormatNDJSON:
	default:
		invalid("output.format %q, want table, json or ndjson", c.Output.Format)
	}
	if _, err := greenops.ParseUnit(c.Output.Unit); err != nil {
		invalid("output.unit %q", c.Output.Unit)
	}
	if c.Output.Precision < 0 {
		invalid("output.precision %d is negative", c.Output.Precision)
	}
	return errors.Join(errs...)
}

// ToYAML renders the configuration.
func (c *Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := c.ToYAML()
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// EnvHelp lists the environment variables Load reads.
func EnvHelp() (string, error) {
	header := "Environment variables:"
	return cleanenv.GetDescription(&Config{}, &header)
}

// LoggingSettings converts the logging section for logging.NewLogger.
func (c *Config) LoggingSettings() logging.Config {
	return logging.Config{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		File:   c.Logging.File,
		Caller: c.Logging.Caller,
	}
}

// StoreSettings converts the store section for store.Open.
func (c *Config) StoreSettings() store.Config {
	return store.Config{Driver: c.Store.Driver, DSN: c.Store.DSN}
}

// SourceOptions converts the S3 settings for source.Open.
func (c *Config) SourceOptions() source.Options {
	return source.Options{S3: source.S3Config{
		Region:    c.Data.S3Region,
		Endpoint:  c.Data.S3Endpoint,
		PathStyle: c.Data.S3PathStyle,
	}}
}
