package quizgen

// EncodedImage is a single photographed page: raw encoded bytes plus the
// declared mime type. Slice position is the page number (0-indexed) for
// every evidence and verification reference downstream.
type EncodedImage struct {
	Data     []byte
	MIMEType string
}

// Lesson is the summary extracted from the photographed pages.
type Lesson struct {
	// Title is a short lesson title.
	Title string `json:"title"`

	// Summary is a 2-4 sentence age-appropriate recap of the material.
	Summary string `json:"summary"`

	// KeyPoints lists the main takeaways, in page order.
	KeyPoints []string `json:"keyPoints"`

	// Steps optionally lists instructional steps when the source material
	// is procedural (e.g. long division).
	Steps []string `json:"steps,omitempty"`

	// TargetAge is the age the content was pitched at.
	TargetAge int `json:"targetAge"`

	// ExtractedText holds the text read from each page, aligned by index
	// to the input image batch.
	ExtractedText []string `json:"extractedText,omitempty"`

	// Confidence is the model's overall extraction confidence in [0,1].
	Confidence float64 `json:"confidence"`
}

// QuestionKind discriminates the question union. The set is closed:
// every consumer switches exhaustively over these four values.
type QuestionKind string

const (
	KindMultipleChoice QuestionKind = "multiple_choice"
	KindTrueFalse      QuestionKind = "true_false"
	KindFillBlank      QuestionKind = "fill_blank"
	KindMatching       QuestionKind = "matching"
)

// MatchPair is one left/right pairing in a matching question.
type MatchPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Question is one quiz question. Kind selects which of the variant
// fields are meaningful:
//   - multiple_choice: Options (exactly 4) and Correct (letter A-D)
//   - true_false: IsTrue
//   - fill_blank: Answer
//   - matching: Pairs (2-4 entries)
type Question struct {
	Kind        QuestionKind `json:"type"`
	Question    string       `json:"question"`
	Explanation string       `json:"explanation,omitempty"`

	// Diagram is optional sanitized SVG markup illustrating the question.
	Diagram string `json:"diagram,omitempty"`

	Options []string    `json:"options,omitempty"`
	Correct string      `json:"correct,omitempty"`
	IsTrue  *bool       `json:"isTrue,omitempty"`
	Answer  string      `json:"answer,omitempty"`
	Pairs   []MatchPair `json:"pairs,omitempty"`
}

// Evidence is a claimed excerpt of source text supporting one question.
type Evidence struct {
	SourceText string  `json:"sourceText"`
	PageIndex  int     `json:"pageIndex"`
	Confidence float64 `json:"confidence"`
}

// QuizContent is the pipeline's only externally visible output.
type QuizContent struct {
	Lesson    Lesson     `json:"lesson"`
	Questions []Question `json:"questions"`
	Warnings  []string   `json:"warnings,omitempty"`
}

// ExtendedQuizContent carries the validation-only metadata alongside the
// quiz: per-page extracted text and per-question evidence (parallel to
// Questions). It never leaves the pipeline.
type ExtendedQuizContent struct {
	QuizContent
	ExtractedText    []string
	QuestionEvidence []Evidence
}

// Action is the validator's recommended follow-up, ordered by severity.
type Action int

const (
	ActionAccept Action = iota
	ActionPartialRegenerate
	ActionFullRetry
	ActionRefuse
)

var actionNames = map[Action]string{
	ActionAccept:            "accept",
	ActionPartialRegenerate: "partial_regenerate",
	ActionFullRetry:         "full_retry",
	ActionRefuse:            "refuse",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "accept"
}

// parseAction maps a model-emitted action string to an Action.
// Unknown values default to accept, matching the tolerant verdict parse.
func parseAction(s string) Action {
	for a, name := range actionNames {
		if name == s {
			return a
		}
	}
	return ActionAccept
}

// worseAction returns the more severe of two actions.
func worseAction(a, b Action) Action {
	if b > a {
		return b
	}
	return a
}

// IssueType classifies a validation finding.
type IssueType string

const (
	IssueOCRSuspected  IssueType = "ocr_suspected"
	IssueContentDrift  IssueType = "content_drift"
	IssueHallucination IssueType = "hallucination"
)

// Issue is one specific problem a validator found.
type Issue struct {
	Type          IssueType `json:"type"`
	Severity      string    `json:"severity"`
	QuestionIndex int       `json:"questionIndex"`
	Reason        string    `json:"reason"`
}

// Verdict is one validator's judgment of generated content.
type Verdict struct {
	OverallConfidence float64
	WeakQuestions     []int
	Issues            []Issue
	RecommendedAction Action
}

// EvidenceCheckResult is the outcome of the local lexical evidence check.
type EvidenceCheckResult struct {
	Passed   int
	Failed   int
	FailRate float64
}

// SpotCheckResult is the outcome of the vision spot check.
type SpotCheckResult struct {
	Passed            bool
	FailedPages       []int // 1-indexed, for user-facing messaging
	SkippedLargeBatch bool
}
