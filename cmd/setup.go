package cmd

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/snapquiz/snapquiz/internal/llm"
	"github.com/snapquiz/snapquiz/internal/quizgen"
)

// maxInFlightCalls caps simultaneous provider calls across the whole
// process, shared by every adapter and every concurrent pipeline run.
const maxInFlightCalls = 5

// Role-specific retry ceilings. Generation retries harder than
// validation and consensus because a missing quiz fails the run while a
// missing vote only shrinks the sample.
const (
	primaryGenAttempts = 2
	fallbackAttempts   = 3
	validationAttempts = 2
	consensusAttempts  = 2
)

// roleBackends maps each pipeline duty to a provider backend.
type roleBackends struct {
	Generator  string
	Fallback   string
	Validators [2]string
	Answers    [3]string
	Vision     string
}

// resolveBackends picks a backend per role. Defaults: the configured
// provider (SNAPQUIZ_LLM_PROVIDER) generates, OpenAI is the fallback
// generator, OpenAI and Gemini validate (never the model whose output
// they judge), all three vote on answers, and Gemini handles vision
// verification. Any role can be redirected individually, e.g.
// SNAPQUIZ_ROLE_FALLBACK=openrouter.
func resolveBackends(cfg llm.Config) roleBackends {
	rb := roleBackends{
		Generator:  cfg.Provider,
		Fallback:   "openai",
		Validators: [2]string{"openai", "gemini"},
		Answers:    [3]string{"anthropic", "openai", "gemini"},
		Vision:     "gemini",
	}
	override := func(role string, dst *string) {
		if v := os.Getenv("SNAPQUIZ_ROLE_" + role); v != "" {
			*dst = v
		}
	}
	override("GENERATOR", &rb.Generator)
	override("FALLBACK", &rb.Fallback)
	override("VALIDATOR_A", &rb.Validators[0])
	override("VALIDATOR_B", &rb.Validators[1])
	override("ANSWERS_A", &rb.Answers[0])
	override("ANSWERS_B", &rb.Answers[1])
	override("ANSWERS_C", &rb.Answers[2])
	override("VISION", &rb.Vision)
	return rb
}

// distinct returns each backend the role mapping uses, once.
func (rb roleBackends) distinct() []string {
	seen := make(map[string]bool)
	var out []string
	for _, b := range []string{
		rb.Generator, rb.Fallback,
		rb.Validators[0], rb.Validators[1],
		rb.Answers[0], rb.Answers[1], rb.Answers[2],
		rb.Vision,
	} {
		if !seen[b] {
			seen[b] = true
			out = append(out, b)
		}
	}
	return out
}

// buildRoles wires the configured backends into their pipeline duties
// per resolveBackends.
func buildRoles(ctx context.Context, cfg llm.Config, qcfg quizgen.Config, logger *zap.Logger) (quizgen.Roles, error) {
	rb := resolveBackends(cfg)
	for _, backend := range rb.distinct() {
		if err := cfg.ForProvider(backend, cfg.Retry).Validate(); err != nil {
			return quizgen.Roles{}, err
		}
	}

	limiter := llm.NewLimiter(maxInFlightCalls)
	parser := quizgen.NewParser(logger)

	adapter := func(name, backend string, attempts int) (*quizgen.Adapter, error) {
		provider, err := llm.NewProvider(ctx, cfg.ForProvider(backend, llm.RetryPolicy(attempts)), limiter, logger)
		if err != nil {
			return nil, fmt.Errorf("build %s adapter: %w", name, err)
		}
		return quizgen.NewAdapter(name, provider, parser, qcfg, logger), nil
	}

	generator, err := adapter("generator", rb.Generator, primaryGenAttempts)
	if err != nil {
		return quizgen.Roles{}, err
	}
	fallback, err := adapter("fallback", rb.Fallback, fallbackAttempts)
	if err != nil {
		return quizgen.Roles{}, err
	}
	validatorA, err := adapter("validator-"+rb.Validators[0], rb.Validators[0], validationAttempts)
	if err != nil {
		return quizgen.Roles{}, err
	}
	validatorB, err := adapter("validator-"+rb.Validators[1], rb.Validators[1], validationAttempts)
	if err != nil {
		return quizgen.Roles{}, err
	}
	answerA, err := adapter("answers-"+rb.Answers[0], rb.Answers[0], consensusAttempts)
	if err != nil {
		return quizgen.Roles{}, err
	}
	answerB, err := adapter("answers-"+rb.Answers[1], rb.Answers[1], consensusAttempts)
	if err != nil {
		return quizgen.Roles{}, err
	}
	answerC, err := adapter("answers-"+rb.Answers[2], rb.Answers[2], consensusAttempts)
	if err != nil {
		return quizgen.Roles{}, err
	}
	vision, err := adapter("vision", rb.Vision, validationAttempts)
	if err != nil {
		return quizgen.Roles{}, err
	}

	return quizgen.Roles{
		Generator:   generator,
		Fallback:    fallback,
		Validators:  []*quizgen.Adapter{validatorA, validatorB},
		AnswerPanel: []*quizgen.Adapter{answerA, answerB, answerC},
		Vision:      vision,
	}, nil
}
