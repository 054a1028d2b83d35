package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/effect"

	apperrors "github.com/ironsheep/coin-counter/internal/errors"
)

// ITU-R BT.601 luminance weights.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// PreprocessOptions controls the smoothing applied before circle detection.
type PreprocessOptions struct {
	// KernelSize is the Gaussian kernel extent in pixels. Must be odd and positive.
	KernelSize int `json:"kernel_size"`

	// Sigma is the Gaussian standard deviation. Zero or negative derives it
	// from KernelSize (see GaussianSigma).
	Sigma float64 `json:"sigma"`
}

// DefaultPreprocessOptions returns a 15x15 kernel with derived sigma.
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{KernelSize: 15, Sigma: 0}
}

// Validate checks that the kernel can be built.
func (o PreprocessOptions) Validate() error {
	if o.KernelSize <= 0 || o.KernelSize%2 == 0 {
		return apperrors.InvalidInputf("blur kernel size must be odd and positive, got %d", o.KernelSize)
	}
	if math.IsNaN(o.Sigma) || math.IsInf(o.Sigma, 0) {
		return apperrors.InvalidInputf("blur sigma must be finite")
	}
	return nil
}

// Preprocess converts img to grayscale and smooths it with a Gaussian blur.
//
// The input is never modified. The returned image has the same bounds as img.
// Nil, empty and zero-dimension images are rejected with an invalid_input error.
func Preprocess(img image.Image, opts PreprocessOptions) (*image.Gray, error) {
	if err := ValidateImage(img); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	gray := Grayscale(img)
	return GaussianBlur(gray, opts.KernelSize, opts.Sigma), nil
}

// ValidateImage rejects nil and zero-area images.
func ValidateImage(img image.Image) error {
	if img == nil {
		return apperrors.InvalidInputf("image is nil")
	}
	b := img.Bounds()
	if b.Empty() {
		return apperrors.InvalidInputf("image has zero dimensions (%dx%d)", b.Dx(), b.Dy())
	}
	return nil
}

// Grayscale converts img to 8-bit luminance.
func Grayscale(img image.Image) *image.Gray {
	lum := effect.GrayscaleWithWeights(img, lumaR, lumaG, lumaB)

	// Keep the caller's coordinate space regardless of how bild places the
	// result.
	gray := image.NewGray(img.Bounds())
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	for y := 0; y < h; y++ {
		src := lum.Pix[y*lum.Stride:]
		dst := gray.Pix[y*gray.Stride:]
		// bild writes luma into R, G and B of each 4-byte RGBA pixel.
		for x := 0; x < w; x++ {
			dst[x] = src[x*4]
		}
	}
	return gray
}

// GaussianSigma returns the standard deviation conventionally paired with a
// kernel of the given extent when none is specified.
func GaussianSigma(kernelSize int) float64 {
	return 0.3*((float64(kernelSize)-1)*0.5-1) + 0.8
}

// GaussianBlur smooths a grayscale image with a separable kernelSize x
// kernelSize Gaussian. Border pixels are extended.
func GaussianBlur(gray *image.Gray, kernelSize int, sigma float64) *image.Gray {
	if sigma <= 0 {
		sigma = GaussianSigma(kernelSize)
	}

	k := convolution.NewKernel(kernelSize, 1)
	half := kernelSize / 2
	for i := 0; i < kernelSize; i++ {
		x := float64(i - half)
		k.Matrix[i] = math.Exp(-(x * x) / (2 * sigma * sigma))
	}
	normK := k.Normalized()

	opts := &convolution.Options{Bias: 0, Wrap: false, KeepAlpha: true}
	horizontal := convolution.Convolve(gray, normK, opts)
	blurred := convolution.Convolve(horizontal, normK.Transposed(), opts)

	out := image.NewGray(gray.Bounds())
	w, h := out.Rect.Dx(), out.Rect.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Pix[y*out.Stride+x] = blurred.Pix[y*blurred.Stride+x*4]
		}
	}
	return out
}
