package quizgen

import (
	"encoding/json"
	"fmt"
	"strings"
)

const extendedSystemPrompt = `You are an educational content creator turning photographed textbook pages into a quiz for a child.

Rules:
- First transcribe the text of every page faithfully into extractedText, one entry per page in the order the images appear. If a page is unreadable, use the literal string UNCLEAR for that entry.
- Build the lesson summary and every question strictly from the transcribed text. Never invent facts that are not on the pages.
- Write at a level appropriate for the given target age.
- Mix question types: multiple_choice, true_false, fill_blank, and matching.
- For multiple_choice, provide exactly 4 options and set correct to the letter A-D. Distractors should reflect plausible misreadings, not random values.
- For matching, provide 2-4 pairs.
- For every question, fill in evidence: the verbatim excerpt it is based on, the 0-indexed page it came from, and your confidence that the excerpt supports the question.
- Include a diagram only when a simple self-contained SVG genuinely helps; never include scripts or external references in it.`

const basicSystemPrompt = `You are an educational content creator turning photographed textbook pages into a quiz for a child.

Rules:
- Build the lesson summary and every question strictly from what is printed on the pages. Never invent facts that are not on the pages.
- Write at a level appropriate for the given target age.
- Mix question types: multiple_choice, true_false, fill_blank, and matching.
- For multiple_choice, provide exactly 4 options and set correct to the letter A-D.
- For matching, provide 2-4 pairs.
- Include a diagram only when a simple self-contained SVG genuinely helps; never include scripts or external references in it.`

const regenSystemPrompt = `You are an educational content reviewer replacing weak questions in an existing quiz.

Rules:
- Replace only the questions at the listed indexes. Return one replacement per index, tagged with that index.
- Base every replacement strictly on the provided page text. Never invent facts.
- Keep the same reading level and the same variety of question types as the original quiz.
- For multiple_choice, provide exactly 4 options and set correct to the letter A-D.`

const groundingSystemPrompt = `You are a strict quality reviewer for educational content generated from textbook photos.

You receive the text transcribed from the pages and the quiz generated from it. Judge whether the quiz is grounded in the page text.

Look for:
- OCR problems: garbled transcriptions, nonsense words, numbers that look misread.
- Content drift: questions about topics the pages never mention.
- Hallucination: specific facts, names, or figures that do not appear in the page text.

Respond with a single JSON object:
{"overallConfidence": 0.0-1.0, "weakQuestions": [indexes of questions with problems], "issues": [{"type": "ocr_suspected"|"content_drift"|"hallucination", "severity": "low"|"medium"|"high", "questionIndex": n, "reason": "..."}], "recommendedAction": "accept"|"partial_regenerate"|"full_retry"|"refuse"}`

const answerSystemPrompt = `You are answering a multiple-choice quiz about photographed textbook pages.

Read the pages in the images, then answer every question using only what the pages say.

Respond with a single JSON object: {"answers": ["A", "C", ...]} with exactly one letter per question, in order.`

const verifySystemPrompt = `You are verifying a transcription against the photographed page it claims to come from.

Answer with a single word: YES if the page genuinely contains the quoted text (allowing minor OCR differences), NO if it does not.`

// buildGenerateMessage is the user message for both generation schemas.
// The page images travel alongside it on the same message.
func buildGenerateMessage(pageCount, targetAge int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pages: %d\n", pageCount)
	fmt.Fprintf(&b, "Target age: %d\n", targetAge)
	b.WriteString("\nCreate a lesson summary and quiz from these textbook pages.")
	return b.String()
}

// buildGroundingPrompt packages the extracted page text and the generated
// quiz for a text-only validator.
func buildGroundingPrompt(content *ExtendedQuizContent) string {
	var b strings.Builder

	b.WriteString("Page text transcribed from the photos:\n")
	for i, page := range content.ExtractedText {
		fmt.Fprintf(&b, "--- page %d ---\n%s\n", i, page)
	}

	b.WriteString("\nGenerated quiz:\n")
	fmt.Fprintf(&b, "Lesson: %s\n%s\n\nQuestions:\n", content.Lesson.Title, content.Lesson.Summary)
	for i, q := range content.Questions {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i, q.Kind, q.Question)
		if q.Kind == KindMultipleChoice {
			for j, opt := range q.Options {
				fmt.Fprintf(&b, "   %c) %s\n", 'A'+j, opt)
			}
			fmt.Fprintf(&b, "   correct: %s\n", q.Correct)
		}
		if i < len(content.QuestionEvidence) {
			ev := content.QuestionEvidence[i]
			fmt.Fprintf(&b, "   evidence (page %d, confidence %.2f): %q\n", ev.PageIndex, ev.Confidence, ev.SourceText)
		}
	}

	b.WriteString("\nJudge whether this quiz is grounded in the page text and respond with the JSON verdict.")
	return b.String()
}

// buildAnswerPrompt lists the multiple-choice questions for an
// independent answer pass. Non-MCQ questions are excluded by the caller.
func buildAnswerPrompt(questions []Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Answer these %d questions about the attached pages:\n\n", len(questions))
	for i, q := range questions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q.Question)
		for j, opt := range q.Options {
			fmt.Fprintf(&b, "   %c) %s\n", 'A'+j, opt)
		}
	}
	return b.String()
}

// buildPartialRegenPrompt asks for replacements for specific weak
// questions, given the page text they must stay grounded in.
func buildPartialRegenPrompt(content *ExtendedQuizContent, weak []int, targetAge int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Target age: %d\n\n", targetAge)
	b.WriteString("Page text:\n")
	for i, page := range content.ExtractedText {
		fmt.Fprintf(&b, "--- page %d ---\n%s\n", i, page)
	}

	b.WriteString("\nExisting quiz questions:\n")
	for i, q := range content.Questions {
		raw, _ := json.Marshal(q)
		fmt.Fprintf(&b, "%d. %s\n", i, raw)
	}

	idx := make([]string, len(weak))
	for i, w := range weak {
		idx[i] = fmt.Sprintf("%d", w)
	}
	fmt.Fprintf(&b, "\nReplace the questions at indexes: %s\n", strings.Join(idx, ", "))
	return b.String()
}

// buildVerifyPrompt asks whether one page image contains the quoted
// transcription excerpt.
func buildVerifyPrompt(excerpt string) string {
	return fmt.Sprintf("Does the attached page contain this text?\n\n%q\n\nAnswer YES or NO.", excerpt)
}
