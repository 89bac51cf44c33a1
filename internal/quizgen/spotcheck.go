package quizgen

import (
	"context"

	"go.uber.org/zap"
)

// maxVerifyExcerptLen bounds the transcription excerpt sent with each
// verification image.
const maxVerifyExcerptLen = 300

// VisionSpotChecker asks a vision-capable model to confirm that sampled
// pages really contain the text the generator claims to have read from
// them. It exists to catch wholesale misreads (wrong book, wrong page,
// hallucinated transcription) that text-only validation cannot see.
type VisionSpotChecker struct {
	vision *Adapter
	cfg    Config
	logger *zap.Logger
}

// NewVisionSpotChecker builds a spot checker over the vision adapter.
// A nil logger is replaced with a no-op.
func NewVisionSpotChecker(vision *Adapter, cfg Config, logger *zap.Logger) *VisionSpotChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VisionSpotChecker{vision: vision, cfg: cfg, logger: logger}
}

// Run samples the first pages of the batch and verifies each against its
// extracted text. Large batches are skipped entirely (spot-checking does
// not scale; the pipeline substitutes a coverage warning). Pages with too
// little extracted text auto-pass without a model call, and a failed
// verification call counts as verified: an infrastructure failure must
// not block the pipeline on a check that only exists to catch drift.
func (c *VisionSpotChecker) Run(ctx context.Context, images []EncodedImage, extracted []string) SpotCheckResult {
	if len(images) > c.cfg.SmallBatchMaxPages {
		return SpotCheckResult{Passed: true, SkippedLargeBatch: true}
	}

	sample := c.cfg.SpotCheckPages
	if sample > len(images) {
		sample = len(images)
	}

	var checked, verified int
	var failedPages []int
	for i := 0; i < sample; i++ {
		var text string
		if i < len(extracted) {
			text = extracted[i]
		}
		if len(text) < c.cfg.MinPageTextLen {
			continue
		}

		excerpt := text
		if len(excerpt) > maxVerifyExcerptLen {
			excerpt = excerpt[:maxVerifyExcerptLen]
		}

		checked++
		ok, err := c.vision.VerifyPage(ctx, images[i], excerpt)
		if err != nil {
			c.logger.Warn("page verification call failed, assuming verified",
				zap.Int("page", i), zap.Error(err))
			verified++
			continue
		}
		if ok {
			verified++
		} else {
			failedPages = append(failedPages, i+1)
		}
	}

	if checked == 0 {
		return SpotCheckResult{Passed: true}
	}
	passed := float64(verified)/float64(checked) >= c.cfg.SpotCheckPassRatio
	return SpotCheckResult{Passed: passed, FailedPages: failedPages}
}
