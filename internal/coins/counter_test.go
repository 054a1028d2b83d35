package coins

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/coin-counter/internal/detection"
	apperrors "github.com/ironsheep/coin-counter/internal/errors"
	"github.com/ironsheep/coin-counter/internal/imaging"
)

// coinPhoto draws white filled discs on black, each given as {cx, cy, r}.
func coinPhoto(w, h int, discs ...[3]int) *image.RGBA {
	img := blank(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for _, d := range discs {
				dx, dy := x-d[0], y-d[1]
				if dx*dx+dy*dy <= d[2]*d[2] {
					img.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
				}
			}
		}
	}
	return img
}

// threeCoinPhoto holds a 0.05, a 0.25 and a 1.00 coin under the default table.
func threeCoinPhoto() *image.RGBA {
	return coinPhoto(400, 200, [3]int{70, 100, 25}, [3]int{190, 100, 38}, [3]int{320, 100, 44})
}

func TestCountCoins_ThreeCoins(t *testing.T) {
	src := threeCoinPhoto()
	before := append([]uint8(nil), src.Pix...)

	res, err := CountCoins(src)
	require.NoError(t, err)

	assert.Equal(t, "1.30", res.TotalString())
	assert.True(t, res.Total.Equal(decimal.RequireFromString("1.3")))
	assert.Equal(t, 3, res.Detected)
	require.Len(t, res.Coins, 3)

	values := make([]string, 0, 3)
	for _, c := range res.Coins {
		values = append(values, c.Value.StringFixed(2))
	}
	assert.ElementsMatch(t, []string{"0.05", "0.25", "1.00"}, values)

	assert.Equal(t, image.Rect(0, 0, 400, 200), res.Annotated.Bounds())
	assert.Equal(t, before, src.Pix, "input image must not be modified")

	// Every coin gets a green ring.
	green := color.NRGBA{0, 255, 0, 255}
	for _, c := range res.Coins {
		x := int(c.Circle.Center.X + c.Circle.Radius + 0.5)
		y := int(c.Circle.Center.Y + 0.5)
		assert.Equal(t, green, res.Annotated.NRGBAAt(x, y), "ring of coin at %+v", c.Circle.Center)
	}
}

func TestCountCoins_BlankImage(t *testing.T) {
	src := blank(120, 90)

	res, err := CountCoins(src)
	require.NoError(t, err)

	assert.True(t, res.Total.IsZero())
	assert.Equal(t, "0.00", res.TotalString())
	assert.Equal(t, 0, res.Detected)
	assert.Empty(t, res.Coins)
	assert.Equal(t, src.Pix, res.Annotated.Pix)
}

func TestCountCoins_Idempotent(t *testing.T) {
	src := threeCoinPhoto()

	first, err := CountCoins(src)
	require.NoError(t, err)
	second, err := CountCoins(src)
	require.NoError(t, err)

	assert.True(t, first.Total.Equal(second.Total))
	assert.Equal(t, first.Coins, second.Coins)
	assert.Equal(t, first.Annotated.Pix, second.Annotated.Pix)
}

func TestCountCoins_InvalidImage(t *testing.T) {
	for name, img := range map[string]image.Image{
		"nil":   nil,
		"empty": image.NewRGBA(image.Rect(0, 0, 0, 0)),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := CountCoins(img)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidInput))
		})
	}
}

func TestCountCoins_CustomRules(t *testing.T) {
	rules := []Rule{{ExpectedRadius: 38, Value: decimal.RequireFromString("2.50")}}

	res, err := CountCoins(threeCoinPhoto(), WithRules(rules), WithTolerance(2))
	require.NoError(t, err)

	assert.Equal(t, "2.50", res.TotalString())
	assert.Equal(t, 3, res.Detected)
	assert.Len(t, res.Coins, 1)
	assert.Equal(t, 2, res.Unmatched())
}

func TestNew_Validation(t *testing.T) {
	badColor := DefaultAnnotateOptions()
	badColor.Style.OutlineColor = "lime"

	tests := []struct {
		name string
		opts []Option
	}{
		{"negative tolerance", []Option{WithTolerance(-1)}},
		{"infinite tolerance", []Option{WithTolerance(math.Inf(1))}},
		{"NaN tolerance", []Option{WithTolerance(math.NaN())}},
		{"bad hough", []Option{WithHoughParams(detection.HoughParams{})}},
		{"even kernel", []Option{WithPreprocessOptions(imaging.PreprocessOptions{KernelSize: 8})}},
		{"bad color", []Option{WithAnnotateOptions(badColor)}},
		{"negative rule value", []Option{WithRules([]Rule{{ExpectedRadius: 10, Value: decimal.NewFromInt(-1)}})}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(DefaultConfig(), tt.opts...)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidInput))
		})
	}
}

func TestCounter_ConfigIsCopied(t *testing.T) {
	rules := DefaultRules()
	c, err := New(DefaultConfig(), WithRules(rules))
	require.NoError(t, err)

	rules[0].ExpectedRadius = 999
	cfg := c.Config()
	assert.Equal(t, float64(25), cfg.Rules[0].ExpectedRadius)

	cfg.Rules[1].ExpectedRadius = 999
	assert.Equal(t, float64(30), c.Config().Rules[1].ExpectedRadius)
}

func TestCounter_LogsAtDebug(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetLevel(logrus.DebugLevel)

	c, err := New(DefaultConfig(), WithLogger(logrus.NewEntry(log)))
	require.NoError(t, err)

	_, err = c.Count(blank(40, 40))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "coins counted")
	assert.Contains(t, buf.String(), "detected=0")
}

func TestCounter_CountBatch(t *testing.T) {
	c, err := New(DefaultConfig())
	require.NoError(t, err)

	imgs := []image.Image{
		threeCoinPhoto(),
		blank(80, 80),
		coinPhoto(140, 140, [3]int{70, 70, 44}),
	}

	results, err := c.CountBatch(context.Background(), imgs)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "1.30", results[0].TotalString())
	assert.Equal(t, "0.00", results[1].TotalString())
	assert.Equal(t, "1.00", results[2].TotalString())
}

func TestCounter_CountBatch_Error(t *testing.T) {
	c, err := New(DefaultConfig())
	require.NoError(t, err)

	_, err = c.CountBatch(context.Background(), []image.Image{blank(20, 20), nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image 1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidInput))
}

func TestCounter_CountBatch_Cancelled(t *testing.T) {
	c, err := New(DefaultConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.CountBatch(ctx, []image.Image{blank(20, 20)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCounter_CountBatch_Empty(t *testing.T) {
	c, err := New(DefaultConfig())
	require.NoError(t, err)

	results, err := c.CountBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
