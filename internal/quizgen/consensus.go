package quizgen

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// ConsensusAnswerResolver double-checks multiple-choice answer keys by
// asking independent models to answer the questions from the page
// images. For small batches three models vote and a 2-of-3 majority
// overrides the generated key; large batches get a single cheaper pass.
// Panel[0] is the designated primary, used alone for large batches and
// as the tiebreaker when no majority forms. Other question types pass
// through untouched.
type ConsensusAnswerResolver struct {
	panel  []*Adapter
	cfg    Config
	logger *zap.Logger
}

// NewConsensusAnswerResolver builds a resolver over the answer panel.
// A nil logger is replaced with a no-op.
func NewConsensusAnswerResolver(panel []*Adapter, cfg Config, logger *zap.Logger) *ConsensusAnswerResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsensusAnswerResolver{panel: panel, cfg: cfg, logger: logger}
}

// Resolve rewrites the Correct letters of the multiple-choice questions
// in place. Absent, short, or invalid answer sets leave the generated
// letters unchanged; this stage can only ever swap one valid letter for
// another.
func (r *ConsensusAnswerResolver) Resolve(ctx context.Context, images []EncodedImage, questions []Question) {
	var mcqIdx []int
	var mcqs []Question
	for i, q := range questions {
		if q.Kind == KindMultipleChoice {
			mcqIdx = append(mcqIdx, i)
			mcqs = append(mcqs, q)
		}
	}
	if len(mcqIdx) == 0 || len(r.panel) == 0 {
		return
	}

	if len(images) > r.cfg.SmallBatchMaxPages {
		r.resolveSingle(ctx, images, questions, mcqIdx, mcqs)
		return
	}
	r.resolveMajority(ctx, images, questions, mcqIdx, mcqs)
}

// resolveSingle accepts the primary panelist's answers verbatim where
// they are valid letters.
func (r *ConsensusAnswerResolver) resolveSingle(ctx context.Context, images []EncodedImage, questions []Question, mcqIdx []int, mcqs []Question) {
	primary := r.panel[0]
	answers, err := primary.AnswerQuestions(ctx, images, mcqs)
	if err != nil {
		r.logger.Warn("answer pass failed, keeping generated answers",
			zap.String("adapter", primary.Name()), zap.Error(err))
		return
	}
	for pos, qi := range mcqIdx {
		if pos < len(answers) && isAnswerLetter(answers[pos]) {
			questions[qi].Correct = answers[pos]
		}
	}
}

// resolveMajority fans out to the whole panel and applies 2-of-3 voting
// per question, falling back to the primary's answer and then to the
// generated letter.
func (r *ConsensusAnswerResolver) resolveMajority(ctx context.Context, images []EncodedImage, questions []Question, mcqIdx []int, mcqs []Question) {
	votes := make([][]string, len(r.panel))

	var wg sync.WaitGroup
	for i, panelist := range r.panel {
		wg.Add(1)
		go func(i int, panelist *Adapter) {
			defer wg.Done()
			answers, err := panelist.AnswerQuestions(ctx, images, mcqs)
			if err != nil {
				r.logger.Warn("answer vote failed",
					zap.String("adapter", panelist.Name()), zap.Error(err))
				return
			}
			votes[i] = answers
		}(i, panelist)
	}
	wg.Wait()

	for pos, qi := range mcqIdx {
		tally := make(map[string]int)
		for _, answers := range votes {
			if pos < len(answers) && isAnswerLetter(answers[pos]) {
				tally[answers[pos]]++
			}
		}

		winner := ""
		for letter, n := range tally {
			if n >= 2 {
				winner = letter
				break
			}
		}
		if winner == "" && len(votes[0]) > pos && isAnswerLetter(votes[0][pos]) {
			winner = votes[0][pos]
		}
		if winner != "" && winner != questions[qi].Correct {
			r.logger.Info("consensus overrode generated answer",
				zap.Int("question", qi),
				zap.String("generated", questions[qi].Correct),
				zap.String("consensus", winner))
			questions[qi].Correct = winner
		}
	}
}
