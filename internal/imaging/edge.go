package imaging

import (
	"image"
	"math"

	apperrors "github.com/ironsheep/coin-counter/internal/errors"
)

// EdgeMap is the output of Canny: a thinned binary edge image together with
// the Sobel gradients it was computed from.
//
// Coordinates are 0-based relative to Origin, the Min point of the source
// image. Slices are row-major with Width entries per row.
type EdgeMap struct {
	Width  int
	Height int
	Origin image.Point

	edges []bool
	dx    []float64
	dy    []float64
}

// IsEdge reports whether the pixel at local coordinates (x, y) is an edge.
func (m *EdgeMap) IsEdge(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.edges[y*m.Width+x]
}

// Gradient returns the Sobel X and Y responses at local coordinates (x, y).
func (m *EdgeMap) Gradient(x, y int) (float64, float64) {
	i := y*m.Width + x
	return m.dx[i], m.dy[i]
}

// Points returns the local coordinates of every edge pixel in scan order.
func (m *EdgeMap) Points() []image.Point {
	pts := make([]image.Point, 0, m.Count())
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.edges[y*m.Width+x] {
				pts = append(pts, image.Point{X: x, Y: y})
			}
		}
	}
	return pts
}

// Count returns the number of edge pixels.
func (m *EdgeMap) Count() int {
	n := 0
	for _, e := range m.edges {
		if e {
			n++
		}
	}
	return n
}

// Image renders the edge map with edges in white (255) on black.
func (m *EdgeMap) Image() *image.Gray {
	out := image.NewGray(image.Rect(0, 0, m.Width, m.Height).Add(m.Origin))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.edges[y*m.Width+x] {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

// Canny runs Canny edge detection on an already smoothed grayscale image.
//
// Thresholds apply to the L1 gradient magnitude |Gx| + |Gy| of the 3x3 Sobel
// operator on 0-255 intensities.
//
// # Algorithm
//
//  1. Gradient computation: Sobel X and Y with replicated borders
//  2. Non-maximum suppression: keep pixels that are maximal along the
//     gradient direction (quantised to 4 sectors); ties go to the first
//     pixel so edges are 1 pixel wide
//  3. Hysteresis: pixels above thresholdHigh seed edges, which grow
//     through 8-connected pixels above thresholdLow
//
// No smoothing is applied here; callers run Preprocess first.
func Canny(gray *image.Gray, thresholdLow, thresholdHigh float64) (*EdgeMap, error) {
	if gray == nil || gray.Bounds().Empty() {
		return nil, apperrors.InvalidInputf("edge detection needs a non-empty image")
	}
	if thresholdLow < 0 || thresholdHigh < thresholdLow {
		return nil, apperrors.InvalidInputf("invalid edge thresholds low=%.1f high=%.1f", thresholdLow, thresholdHigh)
	}

	bounds := gray.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	n := width * height

	m := &EdgeMap{
		Width:  width,
		Height: height,
		Origin: bounds.Min,
		edges:  make([]bool, n),
		dx:     make([]float64, n),
		dy:     make([]float64, n),
	}

	pix := func(x, y int) float64 {
		x = clamp(x, 0, width-1)
		y = clamp(y, 0, height-1)
		return float64(gray.Pix[y*gray.Stride+x])
	}

	// Sobel gradients
	magnitude := make([]float64, n)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gx := (pix(x+1, y-1) + 2*pix(x+1, y) + pix(x+1, y+1)) -
				(pix(x-1, y-1) + 2*pix(x-1, y) + pix(x-1, y+1))
			gy := (pix(x-1, y+1) + 2*pix(x, y+1) + pix(x+1, y+1)) -
				(pix(x-1, y-1) + 2*pix(x, y-1) + pix(x+1, y-1))
			i := y*width + x
			m.dx[i] = gx
			m.dy[i] = gy
			magnitude[i] = math.Abs(gx) + math.Abs(gy)
		}
	}

	// Non-maximum suppression
	suppressed := make([]float64, n)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			mag := magnitude[i]
			if mag <= thresholdLow {
				continue
			}

			// Image Y grows downward, so a positive angle points down-right.
			angle := math.Atan2(m.dy[i], m.dx[i])
			var n1, n2 float64
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
				n1 = magnitude[i-1]
				n2 = magnitude[i+1]
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1 = magnitude[i-width-1]
				n2 = magnitude[i+width+1]
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1 = magnitude[i-width]
				n2 = magnitude[i+width]
			default:
				n1 = magnitude[i-width+1]
				n2 = magnitude[i+width-1]
			}

			if mag > n1 && mag >= n2 {
				suppressed[i] = mag
			}
		}
	}

	// Hysteresis: grow strong edges through connected weak ones
	stack := make([]int, 0, 256)
	for i, v := range suppressed {
		if v >= thresholdHigh && !m.edges[i] {
			m.edges[i] = true
			stack = append(stack, i)
		}
		for len(stack) > 0 {
			j := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			jx, jy := j%width, j/width
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					nx, ny := jx+kx, jy+ky
					if nx < 0 || ny < 0 || nx >= width || ny >= height {
						continue
					}
					k := ny*width + nx
					if !m.edges[k] && suppressed[k] > thresholdLow {
						m.edges[k] = true
						stack = append(stack, k)
					}
				}
			}
		}
	}

	return m, nil
}

// EdgeDetectResult contains an edge map encoded as base64 PNG.
//
// White pixels (255) are edges and black pixels (0) are non-edges.
type EdgeDetectResult struct {
	// Width of the output image in pixels (same as input).
	Width int `json:"width"`

	// Height of the output image in pixels (same as input).
	Height int `json:"height"`

	// EdgePixels is the number of pixels marked as edges.
	EdgePixels int `json:"edge_pixels"`

	// ImageBase64 is the edge image encoded as base64 PNG.
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png" for edge detection results.
	MimeType string `json:"mime_type"`
}

// EdgeDetect runs the same preprocessing and Canny stage the circle detector
// uses and returns the edge map as a PNG. It exists to let a user see why
// coins were or were not picked up.
func EdgeDetect(img image.Image, opts PreprocessOptions, thresholdLow, thresholdHigh float64) (*EdgeDetectResult, error) {
	blurred, err := Preprocess(img, opts)
	if err != nil {
		return nil, err
	}

	edges, err := Canny(blurred, thresholdLow, thresholdHigh)
	if err != nil {
		return nil, err
	}

	encoded, err := EncodePNGBase64(edges.Image())
	if err != nil {
		return nil, err
	}

	return &EdgeDetectResult{
		Width:       edges.Width,
		Height:      edges.Height,
		EdgePixels:  edges.Count(),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// clamp constrains an integer value to the range [lo, hi].
// Used for boundary handling in convolution operations.
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
