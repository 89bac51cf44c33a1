package quizgen

import (
	"context"

	"go.uber.org/zap"
)

// RegenerationEngine implements the validator-driven repair strategies:
// a full replacement generation for small batches, and targeted
// replacement of individual weak questions. The caller picks which
// adapter performs each repair; partial regeneration must use a
// different provider than the one that produced the originals.
type RegenerationEngine struct {
	cfg    Config
	logger *zap.Logger
}

// NewRegenerationEngine builds an engine. A nil logger is replaced with
// a no-op.
func NewRegenerationEngine(cfg Config, logger *zap.Logger) *RegenerationEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegenerationEngine{cfg: cfg, logger: logger}
}

// FullRetry regenerates the whole quiz through the basic (non-extended)
// generation path.
func (e *RegenerationEngine) FullRetry(ctx context.Context, adapter *Adapter, images []EncodedImage) (*QuizContent, error) {
	e.logger.Info("full quiz regeneration", zap.String("adapter", adapter.Name()), zap.Int("pages", len(images)))
	return adapter.GenerateBasic(ctx, images)
}

// PartialRegenerate replaces the weak questions in place, splicing each
// replacement back at its original index. Out-of-range indexes are
// ignored. pageCount is the number of photographed pages, not the number
// of transcript entries the model chose to return; batches over the
// small-batch limit have their replacement count capped. This path never
// fails: a repair that cannot be made leaves the original question
// standing. Returns the indexes actually replaced.
func (e *RegenerationEngine) PartialRegenerate(ctx context.Context, adapter *Adapter, content *ExtendedQuizContent, weak []int, pageCount int) []int {
	var targets []int
	for _, w := range weak {
		if w >= 0 && w < len(content.Questions) {
			targets = append(targets, w)
		}
	}
	if pageCount > e.cfg.SmallBatchMaxPages && len(targets) > e.cfg.PartialRegenCapLarge {
		targets = targets[:e.cfg.PartialRegenCapLarge]
	}
	if len(targets) == 0 {
		return nil
	}

	replacements, err := adapter.RegenerateQuestions(ctx, content, targets)
	if err != nil {
		e.logger.Warn("partial regeneration failed, keeping original questions",
			zap.String("adapter", adapter.Name()), zap.Error(err))
		return nil
	}

	var replaced []int
	for _, idx := range targets {
		q, ok := replacements[idx]
		if !ok {
			continue
		}
		content.Questions[idx] = q
		replaced = append(replaced, idx)
	}
	e.logger.Info("partial regeneration complete",
		zap.String("adapter", adapter.Name()),
		zap.Ints("requested", targets),
		zap.Ints("replaced", replaced))
	return replaced
}
