// Package config loads coin counter settings from a YAML file, environment
// variables and defaults, in that order of precedence after explicit flags.
//
// Environment variables use the COIN_COUNTER prefix with dots replaced by
// underscores, e.g. COIN_COUNTER_MATCHING_TOLERANCE=4.
package config

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/ironsheep/coin-counter/internal/coins"
	"github.com/ironsheep/coin-counter/internal/detection"
	apperrors "github.com/ironsheep/coin-counter/internal/errors"
	"github.com/ironsheep/coin-counter/internal/imaging"
)

// EnvPrefix is prepended to every environment variable override.
const EnvPrefix = "COIN_COUNTER"

// Config mirrors the configuration file layout.
type Config struct {
	Detector   DetectorConfig   `mapstructure:"detector"`
	Preprocess PreprocessConfig `mapstructure:"preprocess"`
	Matching   MatchingConfig   `mapstructure:"matching"`
	Annotate   AnnotateConfig   `mapstructure:"annotate"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// DetectorConfig holds the Hough transform parameters.
type DetectorConfig struct {
	DP        float64 `mapstructure:"dp"`
	MinDist   float64 `mapstructure:"min_dist"`
	Param1    float64 `mapstructure:"param1"`
	Param2    float64 `mapstructure:"param2"`
	MinRadius int     `mapstructure:"min_radius"`
	MaxRadius int     `mapstructure:"max_radius"`
}

// PreprocessConfig holds the blur parameters.
type PreprocessConfig struct {
	KernelSize int     `mapstructure:"kernel_size"`
	Sigma      float64 `mapstructure:"sigma"`
}

// MatchingConfig holds the denomination table. Order matters: the first
// rule within tolerance wins.
type MatchingConfig struct {
	Tolerance float64          `mapstructure:"tolerance"`
	Rules     []coins.RuleSpec `mapstructure:"rules"`
}

// AnnotateConfig holds marker styling.
type AnnotateConfig struct {
	OutlineColor     string `mapstructure:"outline_color"`
	LabelColor       string `mapstructure:"label_color"`
	OutlineThickness int    `mapstructure:"outline_thickness"`
	CurrencySymbol   string `mapstructure:"currency_symbol"`
	LabelOffsetX     int    `mapstructure:"label_offset_x"`
	LabelOffsetY     int    `mapstructure:"label_offset_y"`
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers the reference configuration on v.
func SetDefaults(v *viper.Viper) {
	hough := detection.DefaultHoughParams()
	v.SetDefault("detector.dp", hough.DP)
	v.SetDefault("detector.min_dist", hough.MinDist)
	v.SetDefault("detector.param1", hough.Param1)
	v.SetDefault("detector.param2", hough.Param2)
	v.SetDefault("detector.min_radius", hough.MinRadius)
	v.SetDefault("detector.max_radius", hough.MaxRadius)

	pre := imaging.DefaultPreprocessOptions()
	v.SetDefault("preprocess.kernel_size", pre.KernelSize)
	v.SetDefault("preprocess.sigma", pre.Sigma)

	rules := make([]map[string]interface{}, 0)
	for _, s := range coins.Specs(coins.DefaultRules()) {
		rules = append(rules, map[string]interface{}{"radius": s.Radius, "value": s.Value})
	}
	v.SetDefault("matching.tolerance", coins.DefaultTolerance)
	v.SetDefault("matching.rules", rules)

	ann := coins.DefaultAnnotateOptions()
	v.SetDefault("annotate.outline_color", ann.Style.OutlineColor)
	v.SetDefault("annotate.label_color", ann.Style.LabelColor)
	v.SetDefault("annotate.outline_thickness", ann.Style.OutlineThickness)
	v.SetDefault("annotate.currency_symbol", ann.CurrencySymbol)
	v.SetDefault("annotate.label_offset_x", ann.Style.LabelOffset.X)
	v.SetDefault("annotate.label_offset_y", ann.Style.LabelOffset.Y)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load reads configuration into v and decodes it.
//
// With an explicit path the file must exist. Otherwise config.yaml is looked
// up in $HOME/.config/coin-counter and the working directory, and a missing
// file just means defaults.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "coin-counter"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, apperrors.NewConfigError("failed to read config", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to decode config", err)
	}
	return &cfg, nil
}

// Coins converts the file layout into a validated pipeline configuration.
func (c *Config) Coins() (coins.Config, error) {
	rules, err := coins.ParseRules(c.Matching.Rules)
	if err != nil {
		return coins.Config{}, apperrors.NewConfigError("matching.rules", err)
	}

	cfg := coins.Config{
		Preprocess: imaging.PreprocessOptions{
			KernelSize: c.Preprocess.KernelSize,
			Sigma:      c.Preprocess.Sigma,
		},
		Hough: detection.HoughParams{
			DP:        c.Detector.DP,
			MinDist:   c.Detector.MinDist,
			Param1:    c.Detector.Param1,
			Param2:    c.Detector.Param2,
			MinRadius: c.Detector.MinRadius,
			MaxRadius: c.Detector.MaxRadius,
		},
		Rules:     rules,
		Tolerance: c.Matching.Tolerance,
		Annotate: coins.AnnotateOptions{
			Style: imaging.AnnotationStyle{
				OutlineColor:     c.Annotate.OutlineColor,
				LabelColor:       c.Annotate.LabelColor,
				OutlineThickness: c.Annotate.OutlineThickness,
				LabelOffset:      image.Point{X: c.Annotate.LabelOffsetX, Y: c.Annotate.LabelOffsetY},
			},
			CurrencySymbol: c.Annotate.CurrencySymbol,
		},
	}

	if err := cfg.Validate(); err != nil {
		return coins.Config{}, apperrors.NewConfigError("invalid settings", err)
	}
	return cfg, nil
}
