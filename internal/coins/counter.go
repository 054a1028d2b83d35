package coins

import (
	"context"
	"fmt"
	"image"
	"math"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/coin-counter/internal/detection"
	apperrors "github.com/ironsheep/coin-counter/internal/errors"
	"github.com/ironsheep/coin-counter/internal/imaging"
	"github.com/ironsheep/coin-counter/internal/logger"
)

// Config holds everything a Counter needs. The zero value is not usable;
// start from DefaultConfig.
type Config struct {
	Preprocess imaging.PreprocessOptions `json:"preprocess"`
	Hough      detection.HoughParams     `json:"hough"`
	Rules      []Rule                    `json:"rules"`
	Tolerance  float64                   `json:"tolerance"`
	Annotate   AnnotateOptions           `json:"annotate"`
}

// DefaultConfig returns the reference pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Preprocess: imaging.DefaultPreprocessOptions(),
		Hough:      detection.DefaultHoughParams(),
		Rules:      DefaultRules(),
		Tolerance:  DefaultTolerance,
		Annotate:   DefaultAnnotateOptions(),
	}
}

// Validate checks every stage's settings.
func (c Config) Validate() error {
	if err := c.Preprocess.Validate(); err != nil {
		return err
	}
	if err := c.Hough.Validate(); err != nil {
		return err
	}
	if err := ValidateRules(c.Rules); err != nil {
		return err
	}
	if c.Tolerance < 0 || math.IsNaN(c.Tolerance) || math.IsInf(c.Tolerance, 0) {
		return apperrors.InvalidInputf("tolerance must be finite and not negative, got %v", c.Tolerance)
	}
	return c.Annotate.Style.Validate()
}

// Option adjusts a Counter at construction.
type Option func(*Counter)

// WithRules replaces the denomination table. The slice is copied.
func WithRules(rules []Rule) Option {
	return func(c *Counter) {
		c.cfg.Rules = append([]Rule(nil), rules...)
	}
}

// WithTolerance sets the matching tolerance in pixels.
func WithTolerance(tolerance float64) Option {
	return func(c *Counter) {
		c.cfg.Tolerance = tolerance
	}
}

// WithHoughParams replaces the detector parameters.
func WithHoughParams(p detection.HoughParams) Option {
	return func(c *Counter) {
		c.cfg.Hough = p
	}
}

// WithPreprocessOptions replaces the smoothing parameters.
func WithPreprocessOptions(p imaging.PreprocessOptions) Option {
	return func(c *Counter) {
		c.cfg.Preprocess = p
	}
}

// WithAnnotateOptions replaces the marker style.
func WithAnnotateOptions(a AnnotateOptions) Option {
	return func(c *Counter) {
		c.cfg.Annotate = a
	}
}

// WithLogger sets the entry used for per-image debug logs.
func WithLogger(entry *logrus.Entry) Option {
	return func(c *Counter) {
		c.log = entry
	}
}

// Counter runs the full pipeline: preprocess, detect, match, aggregate.
//
// A Counter holds only immutable configuration, so one instance may count
// any number of images concurrently.
type Counter struct {
	cfg Config
	log *logrus.Entry
}

// New builds a Counter from cfg with opts applied on top.
func New(cfg Config, opts ...Option) (*Counter, error) {
	c := &Counter{
		cfg: cfg,
		log: logger.WithField("component", "coins"),
	}
	c.cfg.Rules = append([]Rule(nil), cfg.Rules...)
	for _, opt := range opts {
		opt(c)
	}
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Config returns a copy of the counter's configuration.
func (c *Counter) Config() Config {
	cfg := c.cfg
	cfg.Rules = append([]Rule(nil), c.cfg.Rules...)
	return cfg
}

// Detect runs preprocessing and circle detection only.
func (c *Counter) Detect(img image.Image) ([]detection.Circle, error) {
	gray, err := imaging.Preprocess(img, c.cfg.Preprocess)
	if err != nil {
		return nil, err
	}
	return detection.DetectCircles(gray, c.cfg.Hough)
}

// Count runs the whole pipeline on one image.
//
// The only failures are malformed input; zero detections and unmatched
// circles are reported through the Result.
func (c *Counter) Count(img image.Image) (*Result, error) {
	start := time.Now()

	circles, err := c.Detect(img)
	if err != nil {
		return nil, err
	}

	result, err := Aggregate(img, circles, c.cfg.Rules, c.cfg.Tolerance, c.cfg.Annotate)
	if err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"detected":  result.Detected,
		"matched":   len(result.Coins),
		"total":     result.TotalString(),
		"elapsed":   time.Since(start).String(),
		"dimension": fmt.Sprintf("%dx%d", img.Bounds().Dx(), img.Bounds().Dy()),
	}).Debug("coins counted")

	return result, nil
}

// CountBatch counts several independent images in parallel. Results are in
// input order. The first failure cancels the remaining work and is returned
// with the index of the offending image.
func (c *Counter) CountBatch(ctx context.Context, imgs []image.Image) ([]*Result, error) {
	results := make([]*Result, len(imgs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, img := range imgs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := c.Count(img)
			if err != nil {
				return fmt.Errorf("image %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// CountCoins counts the coins in img with the reference configuration,
// adjusted by opts.
func CountCoins(img image.Image, opts ...Option) (*Result, error) {
	c, err := New(DefaultConfig(), opts...)
	if err != nil {
		return nil, err
	}
	return c.Count(img)
}
