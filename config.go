package transcribe

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tsawler/transcribe/format"
	"github.com/tsawler/transcribe/layout"
	"github.com/tsawler/transcribe/render"
)

// DefaultOutput is the output file name used when none is configured
const DefaultOutput = "output.docx"

// Config holds all transcribe configuration.
type Config struct {
	// Row clustering
	// Precision is the number of decimal digits y0 is rounded to. Nil
	// means the default of 2; an explicit 0 rounds to whole points.
	Precision         *int    `yaml:"precision"`
	Tolerance         float64 `yaml:"tolerance"`
	SuppressEmptyRows bool    `yaml:"suppress_empty_rows"`

	// Pages to transcribe (1-indexed, empty = all)
	Pages []int `yaml:"pages"`

	// Format is an output format selector ("docx", "html", "markdown",
	// "text" or a menu number). Empty means detect from Output.
	Format string `yaml:"format"`
	Output string `yaml:"output"`

	ImageWidthInches float64 `yaml:"image_width_inches"`
	PlaceholderText  string  `yaml:"placeholder_text"`
	TempDir          string  `yaml:"temp_dir"`
	TextWrap         int     `yaml:"text_wrap"`

	OCR     OCRConfig     `yaml:"ocr"`
	History HistoryConfig `yaml:"history"`
	HTTP    HTTPConfig    `yaml:"http"`

	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // text or json
}

// OCRConfig controls picture alt text recognition.
type OCRConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Language string `yaml:"language"`
}

// HistoryConfig controls the run log. An empty DBPath disables it.
type HistoryConfig struct {
	DBPath string `yaml:"db_path"`
}

// HTTPConfig controls the HTTP API.
type HTTPConfig struct {
	Addr           string `yaml:"addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	var cfg Config
	cfg.defaults()
	return cfg
}

func (c *Config) defaults() {
	if c.Precision == nil {
		c.Precision = IntPtr(layout.DefaultRowConfig().Precision)
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.ImageWidthInches <= 0 {
		c.ImageWidthInches = 4
	}
	if c.PlaceholderText == "" {
		c.PlaceholderText = render.DefaultPlaceholder
	}
	if c.OCR.Language == "" {
		c.OCR.Language = "eng"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		c.HTTP.MaxUploadBytes = 64 << 20
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
}

// LoadConfigFile reads a YAML config file. Keys missing from the file keep
// their DefaultConfig values.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.defaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Validate reports the first out-of-range value.
func (c Config) Validate() error {
	if p := c.RowPrecision(); p < 0 || p > MaxPrecision {
		return fmt.Errorf("%w: precision %d outside [0, %d]", ErrInvalidOption, p, MaxPrecision)
	}
	if c.Tolerance < 0 || math.IsNaN(c.Tolerance) || math.IsInf(c.Tolerance, 0) {
		return fmt.Errorf("%w: tolerance %v", ErrInvalidOption, c.Tolerance)
	}
	for _, p := range c.Pages {
		if p < 1 {
			return fmt.Errorf("%w: page %d", ErrInvalidOption, p)
		}
	}
	if c.TextWrap < 0 {
		return fmt.Errorf("%w: text_wrap %d", ErrInvalidOption, c.TextWrap)
	}
	if c.Format != "" {
		if _, err := format.Parse(c.Format); err != nil {
			return err
		}
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalidOption, c.LogFormat)
	}
	return nil
}

// OutputFormat resolves the configured format. With no explicit format the
// output file extension decides, falling back to DOCX.
func (c Config) OutputFormat() (format.Format, error) {
	if c.Format != "" {
		return format.Parse(c.Format)
	}
	if f := format.Detect(c.Output); f != format.Unknown {
		return f, nil
	}
	return format.DOCX, nil
}

// RowPrecision returns Precision, or the default of 2 when it is unset.
func (c Config) RowPrecision() int {
	if c.Precision == nil {
		return layout.DefaultRowConfig().Precision
	}
	return *c.Precision
}

// IntPtr returns a pointer to v, for setting Config.Precision.
func IntPtr(v int) *int {
	return &v
}

// RowConfig returns the row clustering settings.
func (c Config) RowConfig() layout.RowConfig {
	return layout.RowConfig{
		Precision:         c.RowPrecision(),
		Tolerance:         c.Tolerance,
		SuppressEmptyRows: c.SuppressEmptyRows,
	}
}

// RenderConfig returns the rendering settings.
func (c Config) RenderConfig() render.Config {
	return render.Config{
		PlaceholderText:  c.PlaceholderText,
		TempDir:          c.TempDir,
		ImageWidthInches: c.ImageWidthInches,
		TextWrap:         c.TextWrap,
	}
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return lvl, fmt.Errorf("%w: log_level %q", ErrInvalidOption, c.LogLevel)
	}
	return lvl, nil
}
