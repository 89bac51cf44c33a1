package quizgen

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapquiz/snapquiz/internal/llm"
)

func compileSchema(t *testing.T, schema *llm.Schema) *jsonschema.Schema {
	t.Helper()

	raw, err := json.Marshal(schema.Definition)
	require.NoError(t, err)
	var parsed any
	require.NoError(t, json.Unmarshal(raw, &parsed))

	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://%s.json", schema.Name)
	require.NoError(t, c.AddResource(url, parsed))

	compiled, err := c.Compile(url)
	require.NoError(t, err, "schema %q must compile", schema.Name)
	return compiled
}

func validateAgainst(t *testing.T, compiled *jsonschema.Schema, doc string) error {
	t.Helper()
	var parsed any
	require.NoError(t, json.Unmarshal([]byte(doc), &parsed))
	return compiled.Validate(parsed)
}

func TestExtendedContentSchema(t *testing.T) {
	compiled := compileSchema(t, ExtendedContentSchema)

	assert.NoError(t, validateAgainst(t, compiled,
		`{"lesson": {"title": "T", "summary": "S", "keyPoints": ["k"], "targetAge": 10, "extractedText": ["page text"], "confidence": 0.9},
		  "questions": [
			{"type": "multiple_choice", "question": "Q", "options": ["a","b","c","d"], "correct": "A",
			 "evidence": {"sourceText": "page text", "pageIndex": 0, "confidence": 0.9}},
			{"type": "true_false", "question": "Q2", "answer": true,
			 "evidence": {"sourceText": "page text", "pageIndex": 0, "confidence": 0.8}}
		]}`))
	assert.Error(t, validateAgainst(t, compiled, `{"questions": []}`), "lesson is required")
	assert.Error(t, validateAgainst(t, compiled,
		`{"lesson": {"title": "T", "summary": "S", "keyPoints": [], "targetAge": 10, "confidence": 0.5},
		  "questions": []}`),
		"extractedText is required on the extended path")
	assert.Error(t, validateAgainst(t, compiled,
		`{"lesson": {"title": "T", "summary": "S", "keyPoints": [], "targetAge": 10, "extractedText": [""], "confidence": 0.5},
		  "questions": [{"type": "essay", "question": "Q", "evidence": {"sourceText": "", "pageIndex": 0, "confidence": 0}}]}`),
		"question type enum is closed")
}

func TestBasicContentSchema(t *testing.T) {
	compiled := compileSchema(t, BasicContentSchema)

	assert.NoError(t, validateAgainst(t, compiled,
		`{"lesson": {"title": "T", "summary": "S", "keyPoints": [], "targetAge": 10, "confidence": 0.5},
		  "questions": [{"type": "true_false", "question": "Q", "answer": true}]}`))
	assert.Error(t, validateAgainst(t, compiled,
		`{"lesson": {"title": "T", "summary": "S", "keyPoints": [], "targetAge": 10, "confidence": 0.5},
		  "questions": [{"type": "true_false"}]}`),
		"question text is required")
}

func TestRegenSchema(t *testing.T) {
	compiled := compileSchema(t, RegenSchema)

	assert.NoError(t, validateAgainst(t, compiled,
		`{"questions": [{"index": 2, "type": "fill_blank", "question": "Q", "answer": "x"}]}`))
	assert.Error(t, validateAgainst(t, compiled,
		`{"questions": [{"type": "fill_blank", "question": "Q", "answer": "x"}]}`),
		"replacement index is required")
}
