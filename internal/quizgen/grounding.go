package quizgen

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// GroundingValidator fans generated content out to independent judge
// models and merges their verdicts. The validators must not include the
// adapter that generated the content: a model grading its own output
// defeats the point.
type GroundingValidator struct {
	validators []*Adapter
	cfg        Config
	logger     *zap.Logger
}

// NewGroundingValidator builds a validator over the given judge adapters.
// A nil logger is replaced with a no-op.
func NewGroundingValidator(validators []*Adapter, cfg Config, logger *zap.Logger) *GroundingValidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroundingValidator{validators: validators, cfg: cfg, logger: logger}
}

// Validate collects grounding verdicts from every judge concurrently.
// Individual failures and unparseable verdicts are dropped, so anywhere
// from zero to len(validators) verdicts may return.
func (v *GroundingValidator) Validate(ctx context.Context, content *ExtendedQuizContent) []Verdict {
	results := make([]*Verdict, len(v.validators))

	var wg sync.WaitGroup
	for i, judge := range v.validators {
		wg.Add(1)
		go func(i int, judge *Adapter) {
			defer wg.Done()
			verdict, err := judge.ValidateGrounding(ctx, content)
			if err != nil {
				v.logger.Warn("grounding validator failed",
					zap.String("validator", judge.Name()), zap.Error(err))
				return
			}
			if verdict == nil {
				v.logger.Warn("grounding validator returned unusable verdict",
					zap.String("validator", judge.Name()))
				return
			}
			results[i] = verdict
		}(i, judge)
	}
	wg.Wait()

	var verdicts []Verdict
	for _, r := range results {
		if r != nil {
			verdicts = append(verdicts, *r)
		}
	}
	return verdicts
}

// Combine merges verdicts into one decision: confidence is averaged,
// weak questions are unioned, issues concatenated, and the most severe
// recommended action wins. No verdicts at all yields a neutral default
// rather than a failure.
func (v *GroundingValidator) Combine(verdicts []Verdict) Verdict {
	if len(verdicts) == 0 {
		return Verdict{
			OverallConfidence: 0.7,
			WeakQuestions:     []int{},
			Issues:            []Issue{},
			RecommendedAction: ActionAccept,
		}
	}

	combined := Verdict{
		WeakQuestions:     []int{},
		Issues:            []Issue{},
		RecommendedAction: ActionAccept,
	}
	seen := make(map[int]bool)
	for _, verdict := range verdicts {
		combined.OverallConfidence += verdict.OverallConfidence
		for _, w := range verdict.WeakQuestions {
			if !seen[w] {
				seen[w] = true
				combined.WeakQuestions = append(combined.WeakQuestions, w)
			}
		}
		combined.Issues = append(combined.Issues, verdict.Issues...)
		combined.RecommendedAction = worseAction(combined.RecommendedAction, verdict.RecommendedAction)
	}
	combined.OverallConfidence /= float64(len(verdicts))
	sort.Ints(combined.WeakQuestions)
	return combined
}

// ShouldTriggerSpotCheck decides whether the combined verdict is
// suspicious enough to spend vision calls on: low confidence, too many
// weak questions, or any finding that points at misread source text.
func (v *GroundingValidator) ShouldTriggerSpotCheck(verdict Verdict) bool {
	if verdict.OverallConfidence < v.cfg.SpotCheckConfidenceFloor {
		return true
	}
	if float64(len(verdict.WeakQuestions))/float64(v.cfg.MaxQuestions) > v.cfg.WeakRatioLimit {
		return true
	}
	for _, issue := range verdict.Issues {
		if issue.Type == IssueOCRSuspected || issue.Type == IssueContentDrift {
			return true
		}
	}
	return false
}
