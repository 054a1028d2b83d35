package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	apperrors "github.com/ironsheep/coin-counter/internal/errors"
)

// AnnotationStyle controls how detected coins are marked on the output image.
type AnnotationStyle struct {
	// OutlineColor is the circle outline color as "#RRGGBB".
	OutlineColor string `json:"outline_color"`

	// LabelColor is the label text color as "#RRGGBB".
	LabelColor string `json:"label_color"`

	// OutlineThickness is the outline stroke width in pixels.
	OutlineThickness int `json:"outline_thickness"`

	// LabelOffset is added to the circle center to place the label baseline.
	LabelOffset image.Point `json:"label_offset"`
}

// DefaultAnnotationStyle returns a green 5px outline with a red label placed
// 10px up and left of the center.
func DefaultAnnotationStyle() AnnotationStyle {
	return AnnotationStyle{
		OutlineColor:     "#00FF00",
		LabelColor:       "#FF0000",
		OutlineThickness: 5,
		LabelOffset:      image.Point{X: -10, Y: -10},
	}
}

// Validate checks colors and thickness.
func (s AnnotationStyle) Validate() error {
	if _, err := colorful.Hex(s.OutlineColor); err != nil {
		return apperrors.NewInvalidInputError("invalid outline color "+s.OutlineColor, err)
	}
	if _, err := colorful.Hex(s.LabelColor); err != nil {
		return apperrors.NewInvalidInputError("invalid label color "+s.LabelColor, err)
	}
	if s.OutlineThickness <= 0 {
		return apperrors.InvalidInputf("outline thickness must be positive, got %d", s.OutlineThickness)
	}
	return nil
}

// Marker is one circle to outline and label, in the source image's
// coordinate space.
type Marker struct {
	X      float64
	Y      float64
	Radius float64
	Label  string
}

// Annotate returns a copy of img with every marker drawn on it.
//
// The source image is never modified. The copy is an *image.NRGBA with the
// same width and height, rebased so its bounds start at (0,0); marker
// coordinates are translated accordingly. With no markers the copy is
// pixel-identical to img.
func Annotate(img image.Image, markers []Marker, style AnnotationStyle) (*image.NRGBA, error) {
	if err := ValidateImage(img); err != nil {
		return nil, err
	}
	if err := style.Validate(); err != nil {
		return nil, err
	}

	outline, _ := colorful.Hex(style.OutlineColor)
	label, _ := colorful.Hex(style.LabelColor)
	outlineRGBA := toNRGBA(outline)
	labelRGBA := toNRGBA(label)

	dst := imaging.Clone(img)
	origin := img.Bounds().Min

	for _, m := range markers {
		cx := m.X - float64(origin.X)
		cy := m.Y - float64(origin.Y)
		drawRing(dst, cx, cy, m.Radius, float64(style.OutlineThickness), outlineRGBA)
		if m.Label != "" {
			drawText(dst, int(cx)+style.LabelOffset.X, int(cy)+style.LabelOffset.Y, m.Label, labelRGBA)
		}
	}

	return dst, nil
}

// drawRing strokes a circle outline of the given width centered on radius.
func drawRing(dst *image.NRGBA, cx, cy, radius, thickness float64, c color.NRGBA) {
	half := thickness / 2
	outer := radius + half
	b := dst.Bounds()

	x0 := clamp(int(math.Floor(cx-outer)), b.Min.X, b.Max.X-1)
	x1 := clamp(int(math.Ceil(cx+outer)), b.Min.X, b.Max.X-1)
	y0 := clamp(int(math.Floor(cy-outer)), b.Min.Y, b.Max.Y-1)
	y1 := clamp(int(math.Ceil(cy+outer)), b.Min.Y, b.Max.Y-1)

	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			if math.Abs(d-radius) <= half {
				dst.SetNRGBA(x, y, c)
			}
		}
	}
}

// drawText renders s with its baseline starting at (x, y). Glyphs falling
// outside the image are clipped.
func drawText(dst *image.NRGBA, x, y int, s string, c color.NRGBA) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func toNRGBA(c colorful.Color) color.NRGBA {
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}
