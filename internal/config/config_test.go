package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/coin-counter/internal/coins"
	apperrors "github.com/ironsheep/coin-counter/internal/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 1.2, cfg.Detector.DP)
	assert.Equal(t, 30.0, cfg.Detector.MinDist)
	assert.Equal(t, 200.0, cfg.Detector.Param1)
	assert.Equal(t, 30.0, cfg.Detector.Param2)
	assert.Equal(t, 5, cfg.Detector.MinRadius)
	assert.Equal(t, 50, cfg.Detector.MaxRadius)
	assert.Equal(t, 15, cfg.Preprocess.KernelSize)
	assert.Equal(t, 5.0, cfg.Matching.Tolerance)
	assert.Len(t, cfg.Matching.Rules, 5)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)

	got, err := cfg.Coins()
	require.NoError(t, err)
	want := coins.DefaultConfig()
	assert.Equal(t, want.Hough, got.Hough)
	assert.Equal(t, want.Preprocess, got.Preprocess)
	assert.Equal(t, want.Annotate, got.Annotate)
	assert.Equal(t, want.Tolerance, got.Tolerance)
	require.Len(t, got.Rules, len(want.Rules))
	for i := range want.Rules {
		assert.Equal(t, want.Rules[i].ExpectedRadius, got.Rules[i].ExpectedRadius)
		assert.True(t, want.Rules[i].Value.Equal(got.Rules[i].Value), "rule %d", i)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
detector:
  param2: 45
  max_radius: 80
matching:
  tolerance: 3
  rules:
    - radius: 60
      value: "10.00"
    - radius: 72
      value: "20"
annotate:
  currency_symbol: "$"
logging:
  level: debug
`)

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, 45.0, cfg.Detector.Param2)
	assert.Equal(t, 80, cfg.Detector.MaxRadius)
	// Unset keys keep their defaults.
	assert.Equal(t, 1.2, cfg.Detector.DP)
	assert.Equal(t, "debug", cfg.Logging.Level)

	got, err := cfg.Coins()
	require.NoError(t, err)
	assert.Equal(t, 3.0, got.Tolerance)
	assert.Equal(t, "$", got.Annotate.CurrencySymbol)
	require.Len(t, got.Rules, 2)
	assert.Equal(t, 60.0, got.Rules[0].ExpectedRadius)
	assert.Equal(t, "10.00", got.Rules[0].Value.StringFixed(2))
	assert.Equal(t, "20.00", got.Rules[1].Value.StringFixed(2))
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("COIN_COUNTER_MATCHING_TOLERANCE", "4")
	t.Setenv("COIN_COUNTER_DETECTOR_DP", "2")

	cfg, err := Load(viper.New(), writeConfig(t, "matching:\n  tolerance: 3\n"))
	require.NoError(t, err)

	assert.Equal(t, 4.0, cfg.Matching.Tolerance)
	assert.Equal(t, 2.0, cfg.Detector.DP)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfig))
}

func TestLoad_MalformedFile(t *testing.T) {
	_, err := Load(viper.New(), writeConfig(t, "detector: [unclosed"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfig))
}

func TestCoins_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty rules", "matching:\n  rules: []\n"},
		{"bad rule value", "matching:\n  rules:\n    - radius: 20\n      value: abc\n"},
		{"even kernel", "preprocess:\n  kernel_size: 10\n"},
		{"bad color", "annotate:\n  outline_color: green\n"},
		{"radius range", "detector:\n  min_radius: 60\n  max_radius: 50\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(viper.New(), writeConfig(t, tt.body))
			require.NoError(t, err)

			_, err = cfg.Coins()
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfig))
		})
	}
}
