package quizgen

import (
	"strings"
	"testing"
)

func TestParseAnswers(t *testing.T) {
	p := NewParser(nil)

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"clean object", `{"answers":["A","B"]}`, []string{"A", "B"}},
		{"fenced object", "Here you go:\n```json\n{\"answers\": [\"a\", \"c\"]}\n```", []string{"A", "C"}},
		{"fenced bare array", "```json\n[\"a\",\"b\"]\n```", []string{"A", "B"}},
		{"bare array with prose", `The answers are ["B","D"] as requested.`, []string{"B", "D"}},
		{"unterminated fence", "```json\n{\"answers\":[\"C\"]}", []string{"C"}},
		{"empty input", "", []string{}},
		{"not json", "not json", []string{}},
		{"malformed object", "{bad}", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.ParseAnswers(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseAnswers(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("answer %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseVerdict(t *testing.T) {
	p := NewParser(nil)

	v := p.ParseVerdict(`Looking at this quiz: {"overallConfidence": 0.85, "weakQuestions": [2, 5], "issues": [{"type": "HALLUCINATION", "severity": "high", "questionIndex": 2, "reason": "fact not on page"}], "recommendedAction": "partial_regenerate"} — that's my assessment.`)
	if v == nil {
		t.Fatal("expected verdict, got nil")
	}
	if v.OverallConfidence != 0.85 {
		t.Errorf("confidence = %v, want 0.85", v.OverallConfidence)
	}
	if len(v.WeakQuestions) != 2 || v.WeakQuestions[0] != 2 || v.WeakQuestions[1] != 5 {
		t.Errorf("weakQuestions = %v, want [2 5]", v.WeakQuestions)
	}
	if len(v.Issues) != 1 || v.Issues[0].Type != IssueHallucination {
		t.Errorf("issues = %+v, want one hallucination", v.Issues)
	}
	if v.RecommendedAction != ActionPartialRegenerate {
		t.Errorf("action = %v, want partial_regenerate", v.RecommendedAction)
	}
}

func TestParseVerdictDefaults(t *testing.T) {
	p := NewParser(nil)

	v := p.ParseVerdict(`{}`)
	if v == nil {
		t.Fatal("expected verdict, got nil")
	}
	if v.OverallConfidence != 0.5 {
		t.Errorf("confidence = %v, want 0.5", v.OverallConfidence)
	}
	if len(v.WeakQuestions) != 0 || len(v.Issues) != 0 {
		t.Errorf("expected empty defaults, got %+v", v)
	}
	if v.RecommendedAction != ActionAccept {
		t.Errorf("action = %v, want accept", v.RecommendedAction)
	}
}

func TestParseVerdictFailure(t *testing.T) {
	p := NewParser(nil)

	for _, input := range []string{"", "no json here", "[1,2,3]"} {
		if v := p.ParseVerdict(input); v != nil {
			t.Errorf("ParseVerdict(%q) = %+v, want nil", input, v)
		}
	}
}

const validContentJSON = `{
	"lesson": {
		"title": "Photosynthesis",
		"summary": "Plants make their own food using sunlight, water, and air.",
		"keyPoints": ["Plants need sunlight"],
		"targetAge": 10,
		"extractedText": ["Photosynthesis is how plants make food from sunlight and water."],
		"confidence": 0.9
	},
	"questions": [
		{"type": "multiple_choice", "question": "What do plants need?", "options": ["Sunlight", "Plastic", "Metal", "Glass"], "correct": "a",
		 "evidence": {"sourceText": "plants make food from sunlight", "pageIndex": 0, "confidence": 0.9}},
		{"type": "true_false", "question": "Plants make their own food.", "answer": true},
		{"type": "fill_blank", "question": "Plants use ___ to make food.", "answer": "sunlight"},
		{"type": "matching", "question": "Match each term.", "pairs": [{"left": "sun", "right": "light"}, {"left": "root", "right": "water"}]}
	]
}`

func TestParseContent(t *testing.T) {
	p := NewParser(nil)

	content, err := p.ParseContent("Here is your quiz:\n```json\n" + validContentJSON + "\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content.Lesson.Title != "Photosynthesis" {
		t.Errorf("title = %q", content.Lesson.Title)
	}
	if len(content.Questions) != 4 {
		t.Fatalf("expected 4 questions, got %d", len(content.Questions))
	}
	if content.Questions[0].Correct != "A" {
		t.Errorf("correct = %q, want uppercased A", content.Questions[0].Correct)
	}
	if content.Questions[1].IsTrue == nil || !*content.Questions[1].IsTrue {
		t.Errorf("true_false answer not coerced: %+v", content.Questions[1])
	}
}

func TestParseContentHardFailures(t *testing.T) {
	p := NewParser(nil)

	tests := []struct {
		name  string
		input string
	}{
		{"no json", "I could not read these pages, sorry."},
		{"missing questions", `{"lesson": {"title": "X"}}`},
		{"questions not array", `{"questions": "none"}`},
		{"empty questions", `{"questions": []}`},
		{"mcq without options field", `{"questions": [{"type": "multiple_choice", "question": "Pick one", "correct": "A"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseContent(tt.input)
			if err == nil {
				t.Fatal("expected error")
			}
			if _, ok := err.(*ParseError); !ok {
				t.Fatalf("expected *ParseError, got %T: %v", err, err)
			}
		})
	}
}

func TestParseContentDropsBrokenQuestions(t *testing.T) {
	p := NewParser(nil)

	input := `{"questions": [
		{"type": "true_false", "question": "Keep me.", "answer": "false"},
		{"type": "multiple_choice", "question": "Bad letter", "options": ["a","b","c","d"], "correct": "E"},
		{"type": "multiple_choice", "question": "Too few options", "options": ["only one", ""], "correct": "A"},
		{"type": "true_false", "question": "No answer at all"},
		{"type": "fill_blank", "question": "Empty answer", "answer": ""},
		{"type": "matching", "question": "One pair", "pairs": [{"left": "a", "right": "b"}]},
		{"type": "essay", "question": "Unknown kind"},
		{"type": "fill_blank", "question": "", "answer": "x"}
	]}`

	content, err := p.ParseContent(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(content.Questions) != 1 {
		t.Fatalf("expected 1 surviving question, got %d", len(content.Questions))
	}
	if content.Questions[0].Question != "Keep me." {
		t.Errorf("wrong survivor: %+v", content.Questions[0])
	}
	if content.Questions[0].IsTrue == nil || *content.Questions[0].IsTrue {
		t.Errorf("string false not coerced: %+v", content.Questions[0])
	}
}

func TestParseContentAllQuestionsDropped(t *testing.T) {
	p := NewParser(nil)

	_, err := p.ParseContent(`{"questions": [{"type": "essay", "question": "Unknown"}]}`)
	if err == nil {
		t.Fatal("expected error when every question is dropped")
	}
}

func TestParseContentSanitizesDiagram(t *testing.T) {
	p := NewParser(nil)

	input := `{"questions": [
		{"type": "true_false", "question": "Has a safe diagram.", "answer": true,
		 "diagram": "<svg viewBox=\"0 0 10 10\"><circle cx=\"5\" cy=\"5\" r=\"4\"/></svg>"},
		{"type": "true_false", "question": "Has a hostile diagram.", "answer": false,
		 "diagram": "<svg onload=\"alert(1)\"><circle/></svg>"}
	]}`

	content, err := p.ParseContent(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(content.Questions) != 2 {
		t.Fatalf("diagram problems must not drop questions, got %d", len(content.Questions))
	}
	if !strings.Contains(content.Questions[0].Diagram, "<circle") {
		t.Errorf("safe diagram was dropped: %+v", content.Questions[0])
	}
	if content.Questions[1].Diagram != "" {
		t.Errorf("hostile diagram was kept: %q", content.Questions[1].Diagram)
	}
}

func TestParseContentMissingExtractedText(t *testing.T) {
	p := NewParser(nil)

	content, err := p.ParseContent(`{"questions": [{"type": "true_false", "question": "Q", "answer": true}]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(content.Lesson.ExtractedText) != 1 || content.Lesson.ExtractedText[0] == "" {
		t.Errorf("expected placeholder extracted text, got %v", content.Lesson.ExtractedText)
	}
}

func TestParseExtendedContent(t *testing.T) {
	p := NewParser(nil)

	ext, err := p.ParseExtendedContent(validContentJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ext.ExtractedText) != 1 || !strings.Contains(ext.ExtractedText[0], "Photosynthesis") {
		t.Errorf("extractedText = %v", ext.ExtractedText)
	}
	if len(ext.QuestionEvidence) != len(ext.Questions) {
		t.Fatalf("evidence length %d != questions length %d", len(ext.QuestionEvidence), len(ext.Questions))
	}
	if ext.QuestionEvidence[0].SourceText != "plants make food from sunlight" {
		t.Errorf("evidence[0] = %+v", ext.QuestionEvidence[0])
	}
	// Questions without evidence get zero values, never nil gaps.
	if ext.QuestionEvidence[1].SourceText != "" || ext.QuestionEvidence[1].Confidence != 0 {
		t.Errorf("evidence[1] = %+v, want zero value", ext.QuestionEvidence[1])
	}
}

func TestParseExtendedContentDefaults(t *testing.T) {
	p := NewParser(nil)

	ext, err := p.ParseExtendedContent(`{"questions": [{"type": "true_false", "question": "Q", "answer": true}]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ext.ExtractedText) != 1 || ext.ExtractedText[0] != "" {
		t.Errorf("expected single empty page default, got %v", ext.ExtractedText)
	}
}
