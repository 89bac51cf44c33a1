// Package imaging preprocesses photographed pages before they are sent
// to a model: downscaling and re-encoding bounds upload size and token
// cost without losing the legibility the extraction depends on.
package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/snapquiz/snapquiz/internal/quizgen"
)

// Optimization levels, by maximum dimension and JPEG quality. Higher
// levels preserve more fine print at the cost of larger payloads.
const (
	LevelStandard    = "standard"
	LevelHighQuality = "high-quality"
	LevelMaxQuality  = "max-quality"
)

type levelParams struct {
	maxDim  int
	quality int
}

var levels = map[string]levelParams{
	LevelStandard:    {maxDim: 1024, quality: 75},
	LevelHighQuality: {maxDim: 1568, quality: 85},
	LevelMaxQuality:  {maxDim: 2048, quality: 92},
}

// Optimizer implements the pipeline's image-preprocessing collaborator.
type Optimizer struct {
	logger *zap.Logger
}

// NewOptimizer creates an Optimizer. A nil logger is replaced with a
// no-op.
func NewOptimizer(logger *zap.Logger) *Optimizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Optimizer{logger: logger}
}

// Optimize downscales and re-encodes each page as JPEG. Pages that fail
// to decode (unsupported or corrupt formats) pass through unchanged; the
// extraction model gets to try the original bytes. Fails only on an
// unknown level or a canceled context.
func (o *Optimizer) Optimize(ctx context.Context, images []quizgen.EncodedImage, level string) ([]quizgen.EncodedImage, error) {
	params, ok := levels[level]
	if !ok {
		return nil, fmt.Errorf("unknown optimization level %q", level)
	}

	out := make([]quizgen.EncodedImage, len(images))
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		optimized, err := o.optimizeOne(img, params)
		if err != nil {
			o.logger.Warn("could not optimize page, passing through",
				zap.Int("page", i), zap.Error(err))
			out[i] = img
			continue
		}
		o.logger.Debug("page optimized",
			zap.Int("page", i),
			zap.Int("bytes_in", len(img.Data)),
			zap.Int("bytes_out", len(optimized.Data)))
		out[i] = optimized
	}
	return out, nil
}

func (o *Optimizer) optimizeOne(img quizgen.EncodedImage, params levelParams) (quizgen.EncodedImage, error) {
	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return quizgen.EncodedImage{}, fmt.Errorf("decode image: %w", err)
	}

	scaled := downscale(decoded, params.maxDim)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: params.quality}); err != nil {
		return quizgen.EncodedImage{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return quizgen.EncodedImage{Data: buf.Bytes(), MIMEType: "image/jpeg"}, nil
}

// downscale resizes img so its longest side is at most maxDim, keeping
// the aspect ratio. Images already within bounds are returned as-is.
func downscale(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	var dw, dh int
	if w >= h {
		dw = maxDim
		dh = h * maxDim / w
	} else {
		dh = maxDim
		dw = w * maxDim / h
	}
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
