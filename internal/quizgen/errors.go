package quizgen

import "fmt"

// RecaptureRequiredError signals that the pipeline could not produce
// trustworthy content from these photos and the user must retake them.
// Reason is user-displayable.
type RecaptureRequiredError struct {
	Reason string
}

func (e *RecaptureRequiredError) Error() string {
	return fmt.Sprintf("recapture required: %s", e.Reason)
}

// recaptureErr builds a RecaptureRequiredError with a formatted reason.
func recaptureErr(format string, args ...any) error {
	return &RecaptureRequiredError{Reason: fmt.Sprintf(format, args...)}
}

// ValidationUnavailableError signals the validation capability is
// categorically unreachable. The orchestrator does not raise it itself;
// it exists for callers that invoke validation directly.
type ValidationUnavailableError struct {
	Err error
}

func (e *ValidationUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("grounding validation unavailable: %v", e.Err)
	}
	return "grounding validation unavailable"
}

func (e *ValidationUnavailableError) Unwrap() error { return e.Err }

// ParseError is raised only by the authoritative content parse path.
// The orchestrator treats it like a transport failure: the provider's
// output was unusable, so the fallback chain applies.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparseable model output: %s", e.Reason)
}

func parseErr(format string, args ...any) error {
	return &ParseError{Reason: fmt.Sprintf(format, args...)}
}
