package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"

	apperrors "github.com/ironsheep/coin-counter/internal/errors"
)

// EncodePNGBase64 encodes img as PNG and returns it base64 encoded, the form
// MCP clients expect for inline images.
func EncodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", apperrors.NewIOError("failed to encode image", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
