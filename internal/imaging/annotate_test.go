package imaging

import (
	"image"
	"image/color"
	"testing"

	apperrors "github.com/ironsheep/coin-counter/internal/errors"
)

var (
	green = color.NRGBA{0, 255, 0, 255}
	red   = color.NRGBA{255, 0, 0, 255}
)

func TestAnnotate_NoMarkers(t *testing.T) {
	src := createEdgeTestImage(60, 20)

	out, err := Annotate(src, nil, DefaultAnnotationStyle())
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if out.Bounds() != src.Bounds() {
		t.Fatalf("bounds: got %v, want %v", out.Bounds(), src.Bounds())
	}
	for i := range src.Pix {
		if out.Pix[i] != src.Pix[i] {
			t.Fatalf("pixel byte %d differs: got %d, want %d", i, out.Pix[i], src.Pix[i])
		}
	}
}

func TestAnnotate_RingAndLabel(t *testing.T) {
	src := solidImage(200, 200, color.Black)
	before := append([]uint8(nil), src.Pix...)

	out, err := Annotate(src, []Marker{{X: 100, Y: 100, Radius: 40, Label: "P0.25"}}, DefaultAnnotationStyle())
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}

	for _, p := range []image.Point{{140, 100}, {60, 100}, {100, 140}, {100, 60}, {142, 100}, {138, 100}} {
		if got := out.NRGBAAt(p.X, p.Y); got != green {
			t.Errorf("ring pixel %v: got %v, want green", p, got)
		}
	}
	for _, p := range []image.Point{{100, 100}, {145, 100}, {134, 100}, {0, 0}} {
		if got := out.NRGBAAt(p.X, p.Y); got == green {
			t.Errorf("pixel %v should not be on the ring", p)
		}
	}

	// The label baseline sits at center + (-10, -10).
	labelPixels := 0
	for y := 100 - 10 - 13; y <= 100-10+3; y++ {
		for x := 100 - 10; x < 100-10+5*7; x++ {
			if out.NRGBAAt(x, y) == red {
				labelPixels++
			}
		}
	}
	if labelPixels == 0 {
		t.Error("expected red label pixels near the center")
	}

	for i := range before {
		if src.Pix[i] != before[i] {
			t.Fatal("Annotate modified its input")
		}
	}
}

func TestAnnotate_EmptyLabel(t *testing.T) {
	src := solidImage(100, 100, color.Black)
	out, err := Annotate(src, []Marker{{X: 50, Y: 50, Radius: 20}}, DefaultAnnotationStyle())
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	for i := 0; i < len(out.Pix); i += 4 {
		if out.Pix[i] == 255 && out.Pix[i+1] == 0 {
			t.Fatal("no label pixels expected without a label")
		}
	}
}

func TestAnnotate_RebasesSubImage(t *testing.T) {
	src := solidImage(100, 100, color.Black)
	sub := src.SubImage(image.Rect(20, 20, 80, 80))

	// The marker is in source coordinates.
	out, err := Annotate(sub, []Marker{{X: 50, Y: 50, Radius: 10}}, DefaultAnnotationStyle())
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if out.Bounds() != image.Rect(0, 0, 60, 60) {
		t.Fatalf("bounds: got %v, want (0,0)-(60,60)", out.Bounds())
	}
	if got := out.NRGBAAt(40, 30); got != green {
		t.Errorf("ring pixel: got %v, want green", got)
	}
}

func TestAnnotate_ClipsAtBorder(t *testing.T) {
	src := solidImage(50, 50, color.Black)
	_, err := Annotate(src, []Marker{{X: 2, Y: 2, Radius: 30, Label: "P5.00"}}, DefaultAnnotationStyle())
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
}

func TestAnnotationStyle_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*AnnotationStyle)
	}{
		{"bad outline color", func(s *AnnotationStyle) { s.OutlineColor = "green" }},
		{"bad label color", func(s *AnnotationStyle) { s.LabelColor = "#GG0000" }},
		{"zero thickness", func(s *AnnotationStyle) { s.OutlineThickness = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			style := DefaultAnnotationStyle()
			tt.modify(&style)
			err := style.Validate()
			if !apperrors.IsType(err, apperrors.ErrorTypeInvalidInput) {
				t.Errorf("expected invalid_input error, got %v", err)
			}
			if _, err := Annotate(solidImage(5, 5, color.Black), nil, style); err == nil {
				t.Error("Annotate should reject the style")
			}
		})
	}

	if err := DefaultAnnotationStyle().Validate(); err != nil {
		t.Errorf("default style rejected: %v", err)
	}
}
