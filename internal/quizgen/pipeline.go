package quizgen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImageOptimizer is the image-preprocessing collaborator. Failures are
// absorbed: the pipeline continues with the raw images.
type ImageOptimizer interface {
	Optimize(ctx context.Context, images []EncodedImage, level string) ([]EncodedImage, error)
}

// Options control one Generate invocation.
type Options struct {
	// OptimizeImages enables preprocessing of the page photos before
	// generation.
	OptimizeImages bool

	// OptimizationLevel selects the preprocessing quality/size tradeoff:
	// "standard", "high-quality", or "max-quality".
	OptimizationLevel string
}

// Pipeline is the end-to-end quiz generation orchestrator: generate,
// gate, validate, repair, spot-check, resolve answers, and enforce the
// output invariants. One Pipeline serves concurrent Generate calls; all
// mutable state is per-invocation.
type Pipeline struct {
	roles     Roles
	optimizer ImageOptimizer
	validator *GroundingValidator
	regen     *RegenerationEngine
	spot      *VisionSpotChecker
	consensus *ConsensusAnswerResolver
	cfg       Config
	logger    *zap.Logger
}

// NewPipeline assembles the orchestrator from its role assignments. The
// optimizer may be nil, which disables preprocessing. A nil logger is
// replaced with a no-op.
func NewPipeline(roles Roles, optimizer ImageOptimizer, cfg Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		roles:     roles,
		optimizer: optimizer,
		validator: NewGroundingValidator(roles.Validators, cfg, logger),
		regen:     NewRegenerationEngine(cfg, logger),
		spot:      NewVisionSpotChecker(roles.Vision, cfg, logger),
		consensus: NewConsensusAnswerResolver(roles.AnswerPanel, cfg, logger),
		cfg:       cfg,
		logger:    logger,
	}
}

// Generate converts photographed textbook pages into a validated quiz.
// It returns RecaptureRequiredError when the photos themselves are the
// problem; any other error means the provider chain is exhausted.
func (p *Pipeline) Generate(ctx context.Context, images []EncodedImage, opts Options) (*QuizContent, error) {
	if len(images) == 0 {
		return nil, errors.New("no page images provided")
	}

	// Concurrent runs share one Pipeline; the run ID tells their log
	// lines apart.
	log := p.logger.With(zap.String("run_id", uuid.NewString()))

	var warnings []string
	smallBatch := len(images) <= p.cfg.SmallBatchMaxPages

	images = p.preprocess(ctx, images, opts)

	content, generatedBy, err := p.generateContent(ctx, images)
	if err != nil {
		return nil, err
	}
	log.Info("quiz generated",
		zap.String("adapter", generatedBy.Name()),
		zap.Int("pages", len(images)),
		zap.Int("questions", len(content.Questions)))

	// Pre-validation snapshot for question-count recovery.
	original := append([]Question(nil), content.Questions...)

	if DetectUnclearPages(content.ExtractedText, p.cfg.MinPageTextLen) {
		return nil, recaptureErr("some pages could not be read clearly; retake the photos with better lighting and focus")
	}

	evidence := QuickEvidenceCheck(content.ExtractedText, content.QuestionEvidence)
	if evidence.FailRate > p.cfg.EvidenceFailRateLimit {
		log.Warn("evidence check failed",
			zap.Int("passed", evidence.Passed),
			zap.Int("failed", evidence.Failed),
			zap.Float64("fail_rate", evidence.FailRate))
		return nil, recaptureErr("the quiz could not be matched to the text on the pages; retake the photos")
	}

	verdict := p.validator.Combine(p.validator.Validate(ctx, content))
	log.Info("grounding verdict",
		zap.Float64("confidence", verdict.OverallConfidence),
		zap.Ints("weak_questions", verdict.WeakQuestions),
		zap.Int("issues", len(verdict.Issues)),
		zap.String("action", verdict.RecommendedAction.String()))

	warnings = append(warnings, p.applyVerdict(ctx, content, verdict, generatedBy, images, smallBatch)...)
	if verdict.RecommendedAction == ActionRefuse {
		return nil, recaptureErr("the pages did not contain enough usable teaching material; photograph full textbook pages")
	}

	if p.validator.ShouldTriggerSpotCheck(verdict) {
		result := p.spot.Run(ctx, images, content.ExtractedText)
		if !result.Passed {
			return nil, recaptureErr("the text read from page%s %s does not match the photos; retake them",
				plural(result.FailedPages), joinInts(result.FailedPages))
		}
		if result.SkippedLargeBatch {
			warnings = append(warnings, "large batch: page-level verification was skipped, review the quiz against your pages")
		}
	} else if !smallBatch {
		warnings = append(warnings, "large batch: only partial validation was performed")
	}

	p.consensus.Resolve(ctx, images, content.Questions)

	if len(content.Questions) < p.cfg.MinQuestions {
		if len(original) < p.cfg.MinQuestions {
			return nil, recaptureErr("could not generate enough questions from these pages; try photographing more material")
		}
		if len(original) > p.cfg.MaxQuestions {
			original = original[:p.cfg.MaxQuestions]
		}
		content.Questions = original
		warnings = append(warnings, "validation removed too many questions; restored the originally generated set")
	}

	quiz := content.QuizContent
	if len(warnings) > 0 {
		quiz.Warnings = warnings
	}
	return &quiz, nil
}

// preprocess runs the image optimizer when enabled. Never aborts.
func (p *Pipeline) preprocess(ctx context.Context, images []EncodedImage, opts Options) []EncodedImage {
	if !opts.OptimizeImages || p.optimizer == nil {
		return images
	}
	optimized, err := p.optimizer.Optimize(ctx, images, opts.OptimizationLevel)
	if err != nil {
		p.logger.Warn("image optimization failed, using raw images", zap.Error(err))
		return images
	}
	return optimized
}

// generateContent runs the primary extended generation and falls back to
// the secondary provider when the primary's retry budget is exhausted or
// its output is unparseable.
func (p *Pipeline) generateContent(ctx context.Context, images []EncodedImage) (*ExtendedQuizContent, *Adapter, error) {
	content, primaryErr := p.roles.Generator.GenerateExtended(ctx, images)
	if primaryErr == nil {
		return content, p.roles.Generator, nil
	}
	p.logger.Warn("primary generation failed, trying fallback",
		zap.String("adapter", p.roles.Generator.Name()), zap.Error(primaryErr))

	content, fallbackErr := p.roles.Fallback.GenerateExtended(ctx, images)
	if fallbackErr == nil {
		return content, p.roles.Fallback, nil
	}
	return nil, nil, fmt.Errorf("all generation providers failed: %s: %v; %s: %w",
		p.roles.Generator.Name(), primaryErr, p.roles.Fallback.Name(), fallbackErr)
}

// applyVerdict performs the regeneration the verdict calls for, mutating
// content in place, and returns the user-facing warnings it produced.
// REFUSE is handled by the caller; large-batch full retries are demoted
// to a warning because regenerating a big batch costs more than it
// recovers.
func (p *Pipeline) applyVerdict(ctx context.Context, content *ExtendedQuizContent, verdict Verdict, generatedBy *Adapter, images []EncodedImage, smallBatch bool) []string {
	switch verdict.RecommendedAction {
	case ActionFullRetry:
		if !smallBatch {
			return []string{"validation suggested regenerating the quiz, skipped for a large batch"}
		}
		replacement, err := p.regen.FullRetry(ctx, generatedBy, images)
		if err != nil {
			p.logger.Warn("full retry failed, keeping original quiz", zap.Error(err))
			return []string{"the quiz may contain inaccuracies; a regeneration attempt failed"}
		}
		content.Lesson = replacement.Lesson
		content.Questions = replacement.Questions
		content.QuestionEvidence = nil
		return []string{"the quiz was fully regenerated after a low validation score"}

	case ActionPartialRegenerate:
		if len(verdict.WeakQuestions) == 0 {
			return nil
		}
		repairer := p.roles.Fallback
		if generatedBy == p.roles.Fallback {
			repairer = p.roles.Generator
		}
		replaced := p.regen.PartialRegenerate(ctx, repairer, content, verdict.WeakQuestions, len(images))
		if len(replaced) > 0 {
			return []string{fmt.Sprintf("%d question(s) were regenerated after validation flagged them", len(replaced))}
		}
	}
	return nil
}

func plural(pages []int) string {
	if len(pages) > 1 {
		return "s"
	}
	return ""
}

func joinInts(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return strings.Join(parts, ", ")
}
