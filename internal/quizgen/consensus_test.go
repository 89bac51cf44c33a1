package quizgen

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/snapquiz/snapquiz/internal/llm"
)

func answersResponse(letters ...string) llm.MockResponse {
	body, _ := json.Marshal(map[string]any{"answers": letters})
	return llm.MockResponse{Content: body}
}

func mcq(question, correct string) Question {
	return Question{
		Kind:     KindMultipleChoice,
		Question: question,
		Options:  []string{"first", "second", "third", "fourth"},
		Correct:  correct,
	}
}

func smallBatch(n int) []EncodedImage {
	images := make([]EncodedImage, n)
	for i := range images {
		images[i] = EncodedImage{Data: []byte("page"), MIMEType: "image/jpeg"}
	}
	return images
}

func TestConsensusMajorityWins(t *testing.T) {
	a, _ := newTestAdapter("a", answersResponse("B", "A"))
	b, _ := newTestAdapter("b", answersResponse("B", "C"))
	c, _ := newTestAdapter("c", answersResponse("C", "C"))

	isTrue := true
	questions := []Question{
		mcq("Q0", "A"),
		{Kind: KindTrueFalse, Question: "Untouched", IsTrue: &isTrue},
		mcq("Q1", "A"),
	}

	r := NewConsensusAnswerResolver([]*Adapter{a, b, c}, DefaultConfig(), nil)
	r.Resolve(context.Background(), smallBatch(3), questions)

	if questions[0].Correct != "B" {
		t.Errorf("Q0 = %q, want majority B", questions[0].Correct)
	}
	if questions[2].Correct != "C" {
		t.Errorf("Q1 = %q, want majority C", questions[2].Correct)
	}
	if questions[1].Kind != KindTrueFalse || questions[1].IsTrue == nil {
		t.Errorf("non-MCQ question was modified: %+v", questions[1])
	}
}

func TestConsensusNoMajorityFallsBackToPrimary(t *testing.T) {
	a, _ := newTestAdapter("primary", answersResponse("A"))
	b, _ := newTestAdapter("b", answersResponse("B"))
	c, _ := newTestAdapter("c", answersResponse("C"))

	questions := []Question{mcq("Q0", "D")}

	r := NewConsensusAnswerResolver([]*Adapter{a, b, c}, DefaultConfig(), nil)
	r.Resolve(context.Background(), smallBatch(2), questions)

	if questions[0].Correct != "A" {
		t.Errorf("Correct = %q, want primary's A", questions[0].Correct)
	}
}

func TestConsensusRetainsOriginalWhenAllAbstain(t *testing.T) {
	a, _ := newTestAdapter("primary", llm.MockResponse{Err: errors.New("down")})
	b, _ := newTestAdapter("b", llm.MockResponse{Content: json.RawMessage(`"no usable answers"`)})
	c, _ := newTestAdapter("c", llm.MockResponse{Err: errors.New("down")})

	questions := []Question{mcq("Q0", "D")}

	r := NewConsensusAnswerResolver([]*Adapter{a, b, c}, DefaultConfig(), nil)
	r.Resolve(context.Background(), smallBatch(1), questions)

	if questions[0].Correct != "D" {
		t.Errorf("Correct = %q, want original D retained", questions[0].Correct)
	}
}

func TestConsensusLargeBatchSingleProvider(t *testing.T) {
	a, mockA := newTestAdapter("primary", answersResponse("C", "bogus"))
	b, mockB := newTestAdapter("b")
	c, mockC := newTestAdapter("c")

	questions := []Question{mcq("Q0", "A"), mcq("Q1", "B")}

	r := NewConsensusAnswerResolver([]*Adapter{a, b, c}, DefaultConfig(), nil)
	r.Resolve(context.Background(), smallBatch(6), questions)

	if questions[0].Correct != "C" {
		t.Errorf("Q0 = %q, want primary's C", questions[0].Correct)
	}
	if questions[1].Correct != "B" {
		t.Errorf("Q1 = %q, want original B kept for invalid letter", questions[1].Correct)
	}
	if mockA.CallCount() != 1 {
		t.Errorf("primary calls = %d, want 1", mockA.CallCount())
	}
	if mockB.CallCount() != 0 || mockC.CallCount() != 0 {
		t.Error("large batch must not fan out to the full panel")
	}
}

func TestConsensusNoMCQsMakesNoCalls(t *testing.T) {
	a, mockA := newTestAdapter("primary")

	isTrue := false
	questions := []Question{{Kind: KindTrueFalse, Question: "Q", IsTrue: &isTrue}}

	r := NewConsensusAnswerResolver([]*Adapter{a}, DefaultConfig(), nil)
	r.Resolve(context.Background(), smallBatch(1), questions)

	if mockA.CallCount() != 0 {
		t.Errorf("calls = %d, want 0", mockA.CallCount())
	}
}
