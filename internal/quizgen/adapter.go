package quizgen

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/snapquiz/snapquiz/internal/llm"
)

// Adapter binds one provider to the pipeline's call shapes. Each call
// type owns its prompt, schema, token budget, and log purpose label; the
// adapter is the only place raw provider responses are turned into
// pipeline types.
type Adapter struct {
	name     string
	provider llm.Provider
	parser   *Parser
	cfg      Config
	logger   *zap.Logger
}

// NewAdapter wraps a provider for pipeline use. A nil logger is replaced
// with a no-op.
func NewAdapter(name string, provider llm.Provider, parser *Parser, cfg Config, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{name: name, provider: provider, parser: parser, cfg: cfg, logger: logger}
}

// Name identifies the adapter in logs and warnings.
func (a *Adapter) Name() string { return a.name }

// Roles assigns adapters to pipeline duties. Validators must not include
// the adapter whose output they judge. AnswerPanel[0] is the primary
// vote, used alone for large batches.
type Roles struct {
	Generator   *Adapter
	Fallback    *Adapter
	Validators  []*Adapter
	AnswerPanel []*Adapter
	Vision      *Adapter
}

func userMessage(text string, images []EncodedImage) llm.Message {
	msg := llm.Message{Role: llm.RoleUser, Content: text}
	for _, img := range images {
		msg.Images = append(msg.Images, llm.Image{Data: img.Data, MIMEType: img.MIMEType})
	}
	return msg
}

// contentText recovers the text of a schema-less response. Providers wrap
// raw text as a JSON string; structured responses pass through unchanged.
func contentText(resp *llm.Response) string {
	var s string
	if err := json.Unmarshal(resp.Content, &s); err == nil {
		return s
	}
	return string(resp.Content)
}

// GenerateExtended runs the primary generation call: quiz plus page
// transcriptions and evidence, against the extended schema.
func (a *Adapter) GenerateExtended(ctx context.Context, images []EncodedImage) (*ExtendedQuizContent, error) {
	resp, err := a.provider.Generate(llm.WithPurpose(ctx, "generate-extended"), llm.Request{
		System:      extendedSystemPrompt,
		Messages:    []llm.Message{userMessage(buildGenerateMessage(len(images), a.cfg.TargetAge), images)},
		Schema:      ExtendedContentSchema,
		MaxTokens:   a.cfg.MaxTokensExtended,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return nil, err
	}
	return a.parser.ParseExtendedContent(string(resp.Content))
}

// GenerateBasic runs the fallback generation call: quiz only, no
// validation metadata.
func (a *Adapter) GenerateBasic(ctx context.Context, images []EncodedImage) (*QuizContent, error) {
	resp, err := a.provider.Generate(llm.WithPurpose(ctx, "generate-basic"), llm.Request{
		System:      basicSystemPrompt,
		Messages:    []llm.Message{userMessage(buildGenerateMessage(len(images), a.cfg.TargetAge), images)},
		Schema:      BasicContentSchema,
		MaxTokens:   a.cfg.MaxTokensBasic,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return nil, err
	}
	return a.parser.ParseContent(string(resp.Content))
}

// ValidateGrounding asks this adapter to judge whether generated content
// is grounded in its extracted page text. A (nil, nil) return means the
// model replied but the verdict was unusable; callers treat it as an
// abstained vote.
func (a *Adapter) ValidateGrounding(ctx context.Context, content *ExtendedQuizContent) (*Verdict, error) {
	resp, err := a.provider.Generate(llm.WithPurpose(ctx, "validate-grounding"), llm.Request{
		System:    groundingSystemPrompt,
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: buildGroundingPrompt(content)}},
		MaxTokens: a.cfg.MaxTokensValidation,
	})
	if err != nil {
		return nil, err
	}
	return a.parser.ParseVerdict(contentText(resp)), nil
}

// AnswerQuestions independently answers the given multiple-choice
// questions from the page images. The returned letters may be empty or
// shorter than the question list; the consensus resolver tolerates both.
func (a *Adapter) AnswerQuestions(ctx context.Context, images []EncodedImage, questions []Question) ([]string, error) {
	resp, err := a.provider.Generate(llm.WithPurpose(ctx, "answer-questions"), llm.Request{
		System:    answerSystemPrompt,
		Messages:  []llm.Message{userMessage(buildAnswerPrompt(questions), images)},
		MaxTokens: a.cfg.MaxTokensAnswers,
	})
	if err != nil {
		return nil, err
	}
	return a.parser.ParseAnswers(contentText(resp)), nil
}

// VerifyPage asks whether a page image actually contains the quoted
// transcription excerpt.
func (a *Adapter) VerifyPage(ctx context.Context, page EncodedImage, excerpt string) (bool, error) {
	resp, err := a.provider.Generate(llm.WithPurpose(ctx, "verify-page"), llm.Request{
		System:    verifySystemPrompt,
		Messages:  []llm.Message{userMessage(buildVerifyPrompt(excerpt), []EncodedImage{page})},
		MaxTokens: 16,
	})
	if err != nil {
		return false, err
	}
	answer := strings.ToUpper(strings.TrimSpace(contentText(resp)))
	return strings.HasPrefix(answer, "YES"), nil
}

type regenQuestion struct {
	rawQuestion
	Index int `json:"index"`
}

// RegenerateQuestions requests replacements for the weak question
// indexes, keyed by the index each replacement targets. Replacements
// that fail question validation are silently dropped; replacements for
// indexes that were never requested are ignored.
func (a *Adapter) RegenerateQuestions(ctx context.Context, content *ExtendedQuizContent, weak []int) (map[int]Question, error) {
	resp, err := a.provider.Generate(llm.WithPurpose(ctx, "regenerate-questions"), llm.Request{
		System:      regenSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildPartialRegenPrompt(content, weak, a.cfg.TargetAge)}},
		Schema:      RegenSchema,
		MaxTokens:   a.cfg.MaxTokensBasic,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Questions []regenQuestion `json:"questions"`
	}
	if err := json.Unmarshal(resp.Content, &payload); err != nil {
		return nil, parseErr("regeneration output is not valid JSON: %v", err)
	}

	requested := make(map[int]bool, len(weak))
	for _, w := range weak {
		requested[w] = true
	}

	replacements := make(map[int]Question)
	for i, rq := range payload.Questions {
		if !requested[rq.Index] {
			a.logger.Warn("ignoring replacement for unrequested index",
				zap.String("adapter", a.name), zap.Int("index", rq.Index))
			continue
		}
		q, _, err := a.parser.buildQuestion(i, rq.rawQuestion)
		if err != nil || q == nil {
			continue
		}
		replacements[rq.Index] = *q
	}
	return replacements, nil
}
