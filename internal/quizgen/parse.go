package quizgen

import (
	"encoding/json"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// extractedTextPlaceholder stands in for pages the model forgot to
// transcribe. It is long enough not to trip the unclear-page gate on the
// basic (non-extended) path, where extracted text is informational only.
const extractedTextPlaceholder = "(page text was not returned by the model)"

// Parser turns noisy model output into typed pipeline structures.
// Model text may wrap JSON in prose, markdown fences (possibly
// unterminated), or trailing commentary; every method searches for the
// payload with the same ordered fallback: fenced code blocks first, then
// the first balanced brace/bracket span, then give up.
type Parser struct {
	logger *zap.Logger
}

// NewParser creates a Parser. A nil logger is replaced with a no-op.
func NewParser(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger}
}

var fenceRE = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)```")

// unterminated opening fence: everything after the last ``` marker.
var openFenceRE = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*([^`]+)$")

// fencedBlocks returns the contents of all markdown code fences in text,
// including a trailing unterminated fence.
func fencedBlocks(text string) []string {
	var blocks []string
	for _, m := range fenceRE.FindAllStringSubmatch(text, -1) {
		blocks = append(blocks, strings.TrimSpace(m[1]))
	}
	if m := openFenceRE.FindStringSubmatch(text); m != nil {
		blocks = append(blocks, strings.TrimSpace(m[1]))
	}
	return blocks
}

// balancedSpan returns the first balanced open...close span in text,
// skipping string literals and escapes.
func balancedSpan(text string, open, close byte) (string, bool) {
	start := strings.IndexByte(text, open)
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// extractObject finds the first JSON object in model output: fenced
// blocks first, then the first balanced brace span in the raw text.
func extractObject(text string) (string, bool) {
	for _, block := range fencedBlocks(text) {
		if span, ok := balancedSpan(block, '{', '}'); ok {
			return span, true
		}
	}
	return balancedSpan(text, '{', '}')
}

// ParseAnswers extracts an answer-letter array from model output.
// Search order: an object with an "answers" array (fenced, then bare),
// then a bare JSON array (fenced, then bare). Letters are uppercased.
// Never fails: anything unusable yields an empty list, which callers
// treat as an abstained vote.
func (p *Parser) ParseAnswers(text string) []string {
	type answersPayload struct {
		Answers []string `json:"answers"`
	}

	tryObject := func(span string) ([]string, bool) {
		var payload answersPayload
		if err := json.Unmarshal([]byte(span), &payload); err != nil || payload.Answers == nil {
			return nil, false
		}
		return payload.Answers, true
	}
	tryArray := func(span string) ([]string, bool) {
		var arr []string
		if err := json.Unmarshal([]byte(span), &arr); err != nil {
			return nil, false
		}
		return arr, true
	}

	var answers []string
	found := false

	for _, block := range fencedBlocks(text) {
		if span, ok := balancedSpan(block, '{', '}'); ok {
			if a, ok := tryObject(span); ok {
				answers, found = a, true
				break
			}
		}
	}
	if !found {
		if span, ok := balancedSpan(text, '{', '}'); ok {
			if a, ok := tryObject(span); ok {
				answers, found = a, true
			}
		}
	}
	if !found {
		for _, block := range fencedBlocks(text) {
			if span, ok := balancedSpan(block, '[', ']'); ok {
				if a, ok := tryArray(span); ok {
					answers, found = a, true
					break
				}
			}
		}
	}
	if !found {
		if span, ok := balancedSpan(text, '[', ']'); ok {
			if a, ok := tryArray(span); ok {
				answers = a
			}
		}
	}

	out := make([]string, len(answers))
	for i, a := range answers {
		out[i] = strings.ToUpper(strings.TrimSpace(a))
	}
	return out
}

type issuePayload struct {
	Type          string `json:"type"`
	Severity      string `json:"severity"`
	QuestionIndex int    `json:"questionIndex"`
	Reason        string `json:"reason"`
}

type verdictPayload struct {
	OverallConfidence *float64       `json:"overallConfidence"`
	WeakQuestions     []int          `json:"weakQuestions"`
	Issues            []issuePayload `json:"issues"`
	RecommendedAction string         `json:"recommendedAction"`
}

// ParseVerdict best-effort parses a grounding verdict. Missing fields get
// defaults (confidence 0.5, accept, empty lists). Returns nil on any
// failure: the verdict combiner tolerates missing votes.
func (p *Parser) ParseVerdict(text string) *Verdict {
	span, ok := extractObject(text)
	if !ok {
		return nil
	}

	var payload verdictPayload
	if err := json.Unmarshal([]byte(span), &payload); err != nil {
		return nil
	}

	v := &Verdict{
		OverallConfidence: 0.5,
		WeakQuestions:     []int{},
		Issues:            []Issue{},
		RecommendedAction: ActionAccept,
	}
	if payload.OverallConfidence != nil {
		v.OverallConfidence = *payload.OverallConfidence
	}
	if payload.WeakQuestions != nil {
		v.WeakQuestions = payload.WeakQuestions
	}
	for _, is := range payload.Issues {
		v.Issues = append(v.Issues, Issue{
			Type:          IssueType(strings.ToLower(strings.TrimSpace(is.Type))),
			Severity:      is.Severity,
			QuestionIndex: is.QuestionIndex,
			Reason:        is.Reason,
		})
	}
	v.RecommendedAction = parseAction(strings.ToLower(strings.TrimSpace(payload.RecommendedAction)))
	return v
}

type rawQuestion struct {
	Type        string      `json:"type"`
	Question    string      `json:"question"`
	Explanation string      `json:"explanation"`
	Diagram     string      `json:"diagram"`
	Options     *[]string   `json:"options"`
	Correct     string      `json:"correct"`
	Answer      any         `json:"answer"`
	Pairs       []MatchPair `json:"pairs"`
	Evidence    *Evidence   `json:"evidence"`
}

// ParseContent is the authoritative content parse: it either returns a
// usable QuizContent or fails with a ParseError. Individually broken
// questions are dropped with a warning; whole-batch problems (no JSON,
// missing/empty questions array, an MCQ without an options field) fail.
func (p *Parser) ParseContent(text string) (*QuizContent, error) {
	content, _, _, err := p.parseContentFull(text)
	return content, err
}

// ParseExtendedContent wraps ParseContent and additionally recovers the
// per-page extracted text and per-question evidence. The extras are
// best-effort: when absent they default to a single empty page and
// zero-valued evidence, and this path never fails beyond what
// ParseContent itself rejects.
func (p *Parser) ParseExtendedContent(text string) (*ExtendedQuizContent, error) {
	content, extracted, evidence, err := p.parseContentFull(text)
	if err != nil {
		return nil, err
	}
	if len(extracted) == 0 {
		extracted = []string{""}
	}
	return &ExtendedQuizContent{
		QuizContent:      *content,
		ExtractedText:    extracted,
		QuestionEvidence: evidence,
	}, nil
}

func (p *Parser) parseContentFull(text string) (*QuizContent, []string, []Evidence, error) {
	span, ok := extractObject(text)
	if !ok {
		return nil, nil, nil, parseErr("no JSON object found in model output")
	}

	var envelope struct {
		Lesson        json.RawMessage `json:"lesson"`
		Questions     json.RawMessage `json:"questions"`
		ExtractedText []string        `json:"extractedText"`
	}
	if err := json.Unmarshal([]byte(span), &envelope); err != nil {
		return nil, nil, nil, parseErr("model output is not a JSON object: %v", err)
	}
	if envelope.Questions == nil {
		return nil, nil, nil, parseErr("questions field is missing")
	}

	var raws []rawQuestion
	if err := json.Unmarshal(envelope.Questions, &raws); err != nil {
		return nil, nil, nil, parseErr("questions is not an array: %v", err)
	}
	if len(raws) == 0 {
		return nil, nil, nil, parseErr("questions array is empty")
	}

	var lesson Lesson
	if envelope.Lesson != nil {
		// Lesson problems never sink the batch; a zero lesson is usable.
		if err := json.Unmarshal(envelope.Lesson, &lesson); err != nil {
			p.logger.Warn("lesson field unparseable, using empty lesson", zap.Error(err))
		}
	}

	extracted := lesson.ExtractedText
	if len(extracted) == 0 {
		extracted = envelope.ExtractedText
	}
	if len(lesson.ExtractedText) == 0 {
		if len(envelope.ExtractedText) > 0 {
			lesson.ExtractedText = envelope.ExtractedText
		} else {
			lesson.ExtractedText = []string{extractedTextPlaceholder}
			p.logger.Warn("model returned no extracted text, using placeholder")
		}
	}

	var questions []Question
	var evidence []Evidence
	for i, raw := range raws {
		q, ev, err := p.buildQuestion(i, raw)
		if err != nil {
			return nil, nil, nil, err
		}
		if q == nil {
			continue
		}
		questions = append(questions, *q)
		evidence = append(evidence, ev)
	}
	if len(questions) == 0 {
		return nil, nil, nil, parseErr("no usable questions after validation")
	}

	return &QuizContent{Lesson: lesson, Questions: questions}, extracted, evidence, nil
}

// buildQuestion validates one raw question. A nil Question with nil error
// means the question was dropped (logged); an error sinks the whole parse.
func (p *Parser) buildQuestion(idx int, raw rawQuestion) (*Question, Evidence, error) {
	var ev Evidence
	if raw.Evidence != nil {
		ev = *raw.Evidence
	}

	drop := func(reason string) (*Question, Evidence, error) {
		p.logger.Warn("dropping question",
			zap.Int("index", idx),
			zap.String("type", raw.Type),
			zap.String("reason", reason))
		return nil, Evidence{}, nil
	}

	if strings.TrimSpace(raw.Question) == "" {
		return drop("empty question text")
	}

	q := Question{
		Kind:        QuestionKind(raw.Type),
		Question:    raw.Question,
		Explanation: raw.Explanation,
	}

	if raw.Diagram != "" {
		if clean, ok := SanitizeDiagram(raw.Diagram); ok {
			q.Diagram = clean
		} else {
			p.logger.Warn("dropping invalid or unsafe diagram", zap.Int("index", idx))
		}
	}

	switch q.Kind {
	case KindMultipleChoice:
		if raw.Options == nil {
			return nil, Evidence{}, parseErr("multiple choice question %d is missing its options field", idx)
		}
		options := *raw.Options
		nonEmpty := 0
		for _, o := range options {
			if strings.TrimSpace(o) != "" {
				nonEmpty++
			}
		}
		if nonEmpty < 2 {
			return drop("fewer than 2 non-empty options")
		}
		correct := strings.ToUpper(strings.TrimSpace(raw.Correct))
		if !isAnswerLetter(correct) {
			return drop("correct choice is not a letter A-D")
		}
		q.Options = options
		q.Correct = correct

	case KindTrueFalse:
		b, ok := boolish(raw.Answer)
		if !ok {
			return drop("true/false answer is missing or not boolean-like")
		}
		q.IsTrue = &b

	case KindFillBlank:
		answer, _ := raw.Answer.(string)
		if strings.TrimSpace(answer) == "" {
			return drop("fill-in-the-blank answer is empty")
		}
		q.Answer = answer

	case KindMatching:
		if len(raw.Pairs) < 2 || len(raw.Pairs) > 4 {
			return drop("matching requires 2-4 pairs")
		}
		for _, pair := range raw.Pairs {
			if strings.TrimSpace(pair.Left) == "" || strings.TrimSpace(pair.Right) == "" {
				return drop("matching pair has an empty side")
			}
		}
		q.Pairs = raw.Pairs

	default:
		return drop("unknown question type")
	}

	return &q, ev, nil
}

// isAnswerLetter reports whether s is a valid MCQ answer letter.
func isAnswerLetter(s string) bool {
	switch s {
	case "A", "B", "C", "D":
		return true
	}
	return false
}

// boolish coerces the loose boolean shapes models emit: true/false,
// "true"/"false", 0/1.
func boolish(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	case float64:
		if t == 0 {
			return false, true
		}
		if t == 1 {
			return true, true
		}
	}
	return false, false
}
