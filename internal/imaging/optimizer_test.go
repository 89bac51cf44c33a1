package imaging

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/snapquiz/snapquiz/internal/quizgen"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestOptimizeDownscalesLargePages(t *testing.T) {
	o := NewOptimizer(nil)

	in := []quizgen.EncodedImage{{Data: encodePNG(t, 2000, 1500), MIMEType: "image/png"}}
	out, err := o.Optimize(context.Background(), in, LevelStandard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 image, got %d", len(out))
	}
	if out[0].MIMEType != "image/jpeg" {
		t.Errorf("mime = %q, want image/jpeg", out[0].MIMEType)
	}

	decoded, format, err := image.Decode(bytes.NewReader(out[0].Data))
	if err != nil {
		t.Fatalf("decode optimized image: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("format = %q, want jpeg", format)
	}
	b := decoded.Bounds()
	if b.Dx() != 1024 {
		t.Errorf("width = %d, want 1024", b.Dx())
	}
	if b.Dy() != 768 {
		t.Errorf("height = %d, want aspect-preserving 768", b.Dy())
	}
}

func TestOptimizeKeepsSmallPages(t *testing.T) {
	o := NewOptimizer(nil)

	in := []quizgen.EncodedImage{{Data: encodePNG(t, 400, 300), MIMEType: "image/png"}}
	out, err := o.Optimize(context.Background(), in, LevelHighQuality)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decoded, _, err := image.Decode(bytes.NewReader(out[0].Data))
	if err != nil {
		t.Fatalf("decode optimized image: %v", err)
	}
	if decoded.Bounds().Dx() != 400 || decoded.Bounds().Dy() != 300 {
		t.Errorf("bounds = %v, want unchanged 400x300", decoded.Bounds())
	}
}

func TestOptimizePassesThroughUndecodableData(t *testing.T) {
	o := NewOptimizer(nil)

	raw := []byte("not an image at all")
	in := []quizgen.EncodedImage{{Data: raw, MIMEType: "image/webp"}}
	out, err := o.Optimize(context.Background(), in, LevelStandard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(out[0].Data, raw) || out[0].MIMEType != "image/webp" {
		t.Errorf("undecodable image was altered: %+v", out[0])
	}
}

func TestOptimizeUnknownLevel(t *testing.T) {
	o := NewOptimizer(nil)

	if _, err := o.Optimize(context.Background(), nil, "ultra"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
