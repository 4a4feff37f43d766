package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"MarketWatch/internal/domain/models"
	drepo "MarketWatch/internal/domain/repository"
	"MarketWatch/pkg/logger"
	"MarketWatch/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`

	Run struct {
		MonthsBack    int           `yaml:"months_back" default:"18" validate:"gte=1,lte=240"`
		BatchCapacity int           `yaml:"batch_capacity" default:"5" validate:"gte=1,lte=5"`
		RetryAttempts int           `yaml:"retry_attempts" default:"3" validate:"gte=1,lte=10"`
		RetryPause    time.Duration `yaml:"retry_pause" default:"3s" validate:"gte=0"`
		UnitThreshold float64       `yaml:"unit_threshold" default:"20" validate:"gt=0"`
		EndDate       string        `yaml:"end_date" validate:"omitempty,datetime=2006-01-02"` // empty means today
	} `yaml:"run"`

	Sources []SourceConfig `yaml:"sources" validate:"required,min=1,dive"`

	HTTP struct {
		UserAgent string        `yaml:"user_agent" default:"Mozilla/5.0 (compatible; marketwatch/1.0)" validate:"required"`
		Timeout   time.Duration `yaml:"timeout" default:"30s" validate:"gt=0"`
	} `yaml:"http"`

	FRED struct {
		BaseURL   string  `yaml:"base_url" default:"https://fred.stlouisfed.org" validate:"required,url"`
		RateLimit float64 `yaml:"rate_limit" default:"2" validate:"gte=0"` // requests per second, 0 disables
	} `yaml:"fred"`

	Trends struct {
		BaseURL   string  `yaml:"base_url" default:"https://trends.google.com" validate:"required,url"`
		HL        string  `yaml:"hl" default:"en-US"`
		TZ        int     `yaml:"tz" default:"360"`
		RateLimit float64 `yaml:"rate_limit" default:"0.5" validate:"gte=0"`
	} `yaml:"trends"`

	Output struct {
		Dir         string `yaml:"dir" default:"output" validate:"required"`
		Name        string `yaml:"name" default:"marketwatch" validate:"required"`
		CSV         bool   `yaml:"csv" default:"true"`
		XLSX        bool   `yaml:"xlsx" default:"true"`
		Chart       bool   `yaml:"chart" default:"true"`
		Bundle      bool   `yaml:"bundle" default:"true"`
		ChartTitle  string `yaml:"chart_title" default:"Google Trends & Macro / Market Indicators"`
		ChartWidth  int    `yaml:"chart_width" default:"1200" validate:"gte=200"`
		ChartHeight int    `yaml:"chart_height" default:"600" validate:"gte=150"`
	} `yaml:"output"`

	Metrics struct {
		Textfile string `yaml:"textfile"` // node-exporter textfile path, empty disables
	} `yaml:"metrics"`

	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stderr"`
	} `yaml:"log"`

	// Path is the file the config was read from; empty for the built-in config.
	Path string `yaml:"-"`
}

// SourceConfig declares one source. Trends sources expand into one column per
// keyword, every other provider into a single column named after the source.
type SourceConfig struct {
	Name          string   `yaml:"name" validate:"required"`
	Provider      string   `yaml:"provider" validate:"required,oneof=fred trends"`
	SeriesID      string   `yaml:"series_id" validate:"required_if=Provider fred"`
	Keywords      []string `yaml:"keywords" validate:"required_if=Provider trends,dive,required"`
	Anchor        string   `yaml:"anchor"`
	Timeframes    []string `yaml:"timeframes"`
	Geo           string   `yaml:"geo"`
	Aggregation   string   `yaml:"aggregation" validate:"omitempty,oneof=last mean"`
	Unit          string   `yaml:"unit" validate:"omitempty,oneof=index-0-100 percent basis-points level unknown"`
	Transform     string   `yaml:"transform" default:"none" validate:"oneof=none yoy bps"`
	Axis          string   `yaml:"axis" default:"left" validate:"oneof=left right"`
	AverageColumn string   `yaml:"average_column"`
}

var validate = validator.New()

// Default returns the built-in configuration: M2 growth, the high-yield
// spread and VIX from FRED, plus five distress search terms.
func Default() *Config {
	c := &Config{}
	if err := defaults.Set(c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	c.Sources = DefaultSources()
	return c
}

// DefaultSources returns the built-in source list.
func DefaultSources() []SourceConfig {
	tfs := make([]string, 0, 4)
	for _, tf := range drepo.DefaultTimeframes() {
		tfs = append(tfs, string(tf))
	}
	return []SourceConfig{
		{Name: "M2_YoY_pct", Provider: "fred", SeriesID: "M2SL", Aggregation: "last", Unit: "level", Transform: "yoy", Axis: "left"},
		{
			Name:     "trends",
			Provider: "trends",
			Keywords: []string{
				"sell my house fast",
				"give car back",
				"borrow against life insurance",
				"sell my rolex watch",
				"bankruptcy lawyer",
			},
			Timeframes:    tfs,
			Geo:           "US",
			Aggregation:   "mean",
			Unit:          "index-0-100",
			Transform:     "none",
			Axis:          "left",
			AverageColumn: "trends_avg",
		},
		{Name: "HY_Spread_bps", Provider: "fred", SeriesID: "BAMLH0A0HYM2", Aggregation: "mean", Unit: "percent", Transform: "bps", Axis: "right"},
		{Name: "VIX", Provider: "fred", SeriesID: "VIXCLS", Aggregation: "mean", Unit: "level", Transform: "none", Axis: "right"},
	}
}

// Load reads and parses a YAML configuration file. An empty path or a
// missing file yields the built-in configuration; a file without sources
// keeps the built-in source list.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(b)
	if err != nil {
		return nil, err
	}
	c.Path = path
	return c, nil
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c := &Config{}
	if err := defaults.Set(c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if len(c.Sources) == 0 {
		c.Sources = DefaultSources()
	}
	for i := range c.Sources {
		if err := defaults.Set(&c.Sources[i]); err != nil {
			return nil, fmt.Errorf("config defaults: source %d: %w", i, err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("MARKETWATCH_KEYWORDS"); v != "" {
		for i := range c.Sources {
			if c.Sources[i].Provider == string(models.ProviderTrends) {
				c.Sources[i].Keywords = util.SplitList(v)
				c.Sources[i].Anchor = ""
				break
			}
		}
	}
	if v := os.Getenv("MARKETWATCH_MONTHS_BACK"); v != "" {
		c.Run.MonthsBack = util.ParseIntDefault(v, c.Run.MonthsBack)
	}
	if v := os.Getenv("MARKETWATCH_OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv("MARKETWATCH_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return models.ConfigError("%s", describe(err))
	}

	names := make(map[string]struct{}, len(c.Sources))
	columns := make(map[string]string)
	claim := func(col, src string) error {
		if owner, dup := columns[col]; dup {
			return models.ConfigError("column %q declared by both %s and %s", col, owner, src)
		}
		columns[col] = src
		return nil
	}

	for _, s := range c.Sources {
		if _, dup := names[s.Name]; dup {
			return models.ConfigError("duplicate source name %q", s.Name)
		}
		names[s.Name] = struct{}{}

		if s.Provider != string(models.ProviderTrends) {
			if err := claim(s.Name, s.Name); err != nil {
				return err
			}
			continue
		}

		for _, k := range s.Keywords {
			if err := claim(k, s.Name); err != nil {
				return err
			}
		}
		if s.AverageColumn != "" {
			if err := claim(s.AverageColumn, s.Name); err != nil {
				return err
			}
		}
		if s.Anchor != "" && !contains(s.Keywords, s.Anchor) {
			return models.ConfigError("source %s: anchor %q is not one of its keywords", s.Name, s.Anchor)
		}
		if len(s.Keywords) > c.Run.BatchCapacity && c.Run.BatchCapacity < 2 {
			return models.ConfigError("source %s: %d keywords need batch_capacity >= 2, got %d",
				s.Name, len(s.Keywords), c.Run.BatchCapacity)
		}
		for _, tf := range s.Timeframes {
			if !drepo.IsValidTimeframe(drepo.Timeframe(tf)) {
				return models.ConfigError("source %s: unsupported timeframe %q", s.Name, tf)
			}
		}
	}
	return nil
}

// End returns the last day of the lookback window.
func (c *Config) End(now time.Time) time.Time {
	return util.Day(util.ParseTimeDefault(c.Run.EndDate, now))
}

// RunConfig builds the immutable run configuration handed to the pipeline.
func (c *Config) RunConfig(now time.Time) models.RunConfig {
	sources := make([]models.SourceSpec, 0, len(c.Sources))
	for _, s := range c.Sources {
		sources = append(sources, s.spec())
	}
	return models.RunConfig{
		Sources:       sources,
		BatchCapacity: c.Run.BatchCapacity,
		RetryAttempts: c.Run.RetryAttempts,
		RetryPause:    c.Run.RetryPause,
		MonthsBack:    c.Run.MonthsBack,
		UnitThreshold: c.Run.UnitThreshold,
		End:           c.End(now),
	}
}

// Logger returns the logger settings.
func (c *Config) Logger() *logger.Config {
	return &logger.Config{Level: c.Log.Level, Format: c.Log.Format, Output: c.Log.Output}
}

func (s SourceConfig) spec() models.SourceSpec {
	provider := models.ProviderKind(s.Provider)

	agg := models.Aggregation(s.Aggregation)
	unit := models.Unit(s.Unit)
	if agg == "" {
		agg = models.AggregateLast
		if provider == models.ProviderTrends {
			agg = models.AggregateMean
		}
	}
	if unit == "" {
		unit = models.UnitLevel
		if provider == models.ProviderTrends {
			unit = models.UnitIndex
		}
	}

	return models.SourceSpec{
		Name:          s.Name,
		Provider:      provider,
		SeriesID:      s.SeriesID,
		Keywords:      append([]string(nil), s.Keywords...),
		Anchor:        s.Anchor,
		Timeframes:    append([]string(nil), s.Timeframes...),
		Geo:           s.Geo,
		Aggregation:   agg,
		Unit:          unit,
		Transform:     models.Transform(s.Transform),
		Axis:          models.Axis(s.Axis),
		AverageColumn: s.AverageColumn,
	}
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
