package quizgen

import "strings"

// Local, non-LLM quality checks. These run before any validation model
// call so obviously-bad batches fail fast and cheap.

// DetectUnclearPages reports whether any page's extracted text is the
// unclear sentinel or too short to be a real transcription. One bad page
// makes the whole batch unusable: questions cannot be grounded against
// text that is not there.
func DetectUnclearPages(extracted []string, minLen int) bool {
	for _, page := range extracted {
		text := strings.TrimSpace(page)
		if text == unclearSentinel || len(text) < minLen {
			return true
		}
	}
	return false
}

// QuickEvidenceCheck lexically verifies each evidence excerpt against the
// extracted page text: an item passes when at least half of its words
// (length > 2, lowercased) occur as substrings of the concatenated text.
// Excerpts shorter than 3 characters fail automatically. No evidence at
// all yields failRate 1.0: absence of grounding is itself a red flag.
func QuickEvidenceCheck(extracted []string, evidence []Evidence) EvidenceCheckResult {
	haystack := strings.ToLower(strings.Join(extracted, "\n"))

	var passed, failed int
	for _, ev := range evidence {
		src := strings.TrimSpace(ev.SourceText)
		if len(src) < 3 {
			failed++
			continue
		}
		var total, matched int
		for _, word := range strings.Fields(strings.ToLower(src)) {
			word = strings.Trim(word, `.,;:!?()[]"'`)
			if len(word) <= 2 {
				continue
			}
			total++
			if strings.Contains(haystack, word) {
				matched++
			}
		}
		if total > 0 && float64(matched)/float64(total) >= 0.5 {
			passed++
		} else {
			failed++
		}
	}

	result := EvidenceCheckResult{Passed: passed, Failed: failed, FailRate: 1.0}
	if passed+failed > 0 {
		result.FailRate = float64(failed) / float64(passed+failed)
	}
	return result
}
