package quizgen

import "github.com/snapquiz/snapquiz/internal/llm"

// questionProperties is the shared per-question schema fragment. The
// variant fields are all optional at the schema level; the parser
// enforces which of them each question type must carry.
func questionProperties(withEvidence, withIndex bool) map[string]any {
	props := map[string]any{
		"type": map[string]any{
			"type": "string",
			"enum": []any{"multiple_choice", "true_false", "fill_blank", "matching"},
		},
		"question": map[string]any{
			"type":        "string",
			"description": "The question text, age-appropriate and self-contained",
		},
		"explanation": map[string]any{
			"type":        "string",
			"description": "1-2 sentence explanation of the correct answer",
		},
		"diagram": map[string]any{
			"type":        "string",
			"description": "Optional self-contained SVG markup illustrating the question",
		},
		"options": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Exactly 4 choices for multiple_choice questions",
		},
		"correct": map[string]any{
			"type":        "string",
			"description": "Correct option letter (A-D) for multiple_choice questions",
		},
		"answer": map[string]any{
			"description": "Boolean answer for true_false, or the expected string for fill_blank",
		},
		"pairs": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"left":  map[string]any{"type": "string"},
					"right": map[string]any{"type": "string"},
				},
				"required": []any{"left", "right"},
			},
			"description": "2-4 left/right pairs for matching questions",
		},
	}
	if withEvidence {
		props["evidence"] = map[string]any{
			"type": "object",
			"properties": map[string]any{
				"sourceText": map[string]any{
					"type":        "string",
					"description": "Verbatim excerpt from the page text this question is based on",
				},
				"pageIndex": map[string]any{
					"type":        "integer",
					"description": "0-indexed page the excerpt came from",
				},
				"confidence": map[string]any{
					"type":        "number",
					"description": "Confidence the excerpt supports the question, 0-1",
				},
			},
			"required": []any{"sourceText", "pageIndex", "confidence"},
		}
	}
	if withIndex {
		props["index"] = map[string]any{
			"type":        "integer",
			"description": "Index of the original question this one replaces",
		}
	}
	return props
}

func lessonProperties(withExtractedText bool) map[string]any {
	props := map[string]any{
		"title": map[string]any{
			"type":        "string",
			"description": "Short lesson title (3-8 words)",
		},
		"summary": map[string]any{
			"type":        "string",
			"description": "2-4 sentence age-appropriate recap of the material",
		},
		"keyPoints": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Main takeaways, in page order",
		},
		"steps": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Instructional steps, only when the material is procedural",
		},
		"targetAge": map[string]any{
			"type":        "integer",
			"description": "Learner age the content is pitched at",
		},
		"confidence": map[string]any{
			"type":        "number",
			"description": "Overall extraction confidence, 0-1",
		},
	}
	if withExtractedText {
		props["extractedText"] = map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Full text read from each page, one entry per page in input order; the literal string UNCLEAR for unreadable pages",
		}
	}
	return props
}

// ExtendedContentSchema is the primary generation schema: quiz content
// plus the per-page transcription and per-question evidence the
// validation stages consume.
var ExtendedContentSchema = &llm.Schema{
	Name:        "quiz-content-extended",
	Description: "A quiz generated from textbook pages, with page transcriptions and per-question source evidence",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"lesson": map[string]any{
				"type":       "object",
				"properties": lessonProperties(true),
				"required":   []any{"title", "summary", "keyPoints", "targetAge", "extractedText", "confidence"},
			},
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":       "object",
					"properties": questionProperties(true, false),
					"required":   []any{"type", "question", "evidence"},
				},
			},
		},
		"required":             []any{"lesson", "questions"},
		"additionalProperties": false,
	},
}

// BasicContentSchema is the fallback generation schema: the same quiz
// shape without transcriptions or evidence, for providers and retries
// where validation metadata is not worth the token budget.
var BasicContentSchema = &llm.Schema{
	Name:        "quiz-content",
	Description: "A quiz generated from textbook pages",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"lesson": map[string]any{
				"type":       "object",
				"properties": lessonProperties(false),
				"required":   []any{"title", "summary", "keyPoints", "targetAge", "confidence"},
			},
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":       "object",
					"properties": questionProperties(false, false),
					"required":   []any{"type", "question"},
				},
			},
		},
		"required":             []any{"lesson", "questions"},
		"additionalProperties": false,
	},
}

// RegenSchema is the partial-regeneration schema: replacement questions
// only, each tagged with the index of the weak question it replaces.
var RegenSchema = &llm.Schema{
	Name:        "quiz-regen",
	Description: "Replacement questions for specific weak entries in an existing quiz",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":       "object",
					"properties": questionProperties(false, true),
					"required":   []any{"index", "type", "question"},
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}
