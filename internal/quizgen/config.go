package quizgen

// Sentinel the extraction model emits for a page it cannot read.
const unclearSentinel = "UNCLEAR"

// Config holds the pipeline's thresholds and budgets.
type Config struct {
	// MinQuestions is the minimum acceptable question count for a
	// successful run.
	MinQuestions int

	// MaxQuestions caps the question set when recovering from an
	// over-trimmed validation pass.
	MaxQuestions int

	// SmallBatchMaxPages is the page count at or below which the batch
	// is "small": full retries, 3-way answer consensus, and vision spot
	// checks only happen for small batches.
	SmallBatchMaxPages int

	// MinPageTextLen is the minimum extracted-text length for a page to
	// count as readable.
	MinPageTextLen int

	// EvidenceFailRateLimit aborts the run when the quick evidence check
	// fails a larger fraction of evidence items than this.
	EvidenceFailRateLimit float64

	// SpotCheckConfidenceFloor triggers a vision spot check when the
	// combined verdict confidence falls below it.
	SpotCheckConfidenceFloor float64

	// WeakRatioLimit triggers a vision spot check when flagged weak
	// questions exceed this fraction of MaxQuestions.
	WeakRatioLimit float64

	// SpotCheckPages is how many pages the vision spot check samples.
	SpotCheckPages int

	// SpotCheckPassRatio is the minimum fraction of checked pages that
	// must verify for the spot check to pass.
	SpotCheckPassRatio float64

	// PartialRegenCapLarge caps how many weak questions are regenerated
	// for large batches.
	PartialRegenCapLarge int

	// TargetAge is the learner age the quiz is pitched at.
	TargetAge int

	// Token budgets per call type.
	MaxTokensExtended   int
	MaxTokensBasic      int
	MaxTokensValidation int
	MaxTokensAnswers    int

	// Temperature for generation calls. Validation and consensus calls
	// always run at 0 for reproducibility.
	Temperature float64
}

// DefaultConfig returns the standard pipeline thresholds.
func DefaultConfig() Config {
	return Config{
		MinQuestions:             5,
		MaxQuestions:             20,
		SmallBatchMaxPages:       5,
		MinPageTextLen:           20,
		EvidenceFailRateLimit:    0.6,
		SpotCheckConfidenceFloor: 0.45,
		WeakRatioLimit:           0.4,
		SpotCheckPages:           2,
		SpotCheckPassRatio:       0.5,
		PartialRegenCapLarge:     2,
		TargetAge:                10,
		MaxTokensExtended:        8192,
		MaxTokensBasic:           4096,
		MaxTokensValidation:      2048,
		MaxTokensAnswers:         1024,
		Temperature:              0.4,
	}
}
