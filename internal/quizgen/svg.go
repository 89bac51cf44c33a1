package quizgen

import (
	"regexp"
	"strings"
)

// Diagram markup comes straight from a model, so it is treated as
// untrusted input. SanitizeDiagram accepts only self-contained SVG with
// no scriptable surface; anything suspicious rejects the whole diagram
// rather than attempting to repair it.

var (
	svgOpenRE  = regexp.MustCompile(`(?is)^\s*<svg[\s>]`)
	svgCloseRE = regexp.MustCompile(`(?is)</svg>\s*$`)

	// Elements that can execute or embed foreign content.
	forbiddenElementRE = regexp.MustCompile(`(?is)<\s*(script|iframe|foreignObject|embed|object|use)\b`)

	// Inline event handlers such as onclick= or onload=.
	eventHandlerRE = regexp.MustCompile(`(?is)\bon[a-z]+\s*=`)

	// javascript: URIs, with or without entity/whitespace obfuscation.
	jsURIRE = regexp.MustCompile(`(?is)javascript\s*:`)

	// data: URIs carrying HTML or script payloads.
	dataURIHTMLRE = regexp.MustCompile(`(?is)data:\s*(text/html|application/xhtml|text/javascript|application/javascript)`)
)

// SanitizeDiagram validates model-emitted SVG markup. It returns the
// trimmed markup and true when the diagram is safe to render, or
// ("", false) when it must be discarded. Callers drop the diagram but
// keep the question.
func SanitizeDiagram(markup string) (string, bool) {
	trimmed := strings.TrimSpace(markup)
	if trimmed == "" {
		return "", false
	}
	if !svgOpenRE.MatchString(trimmed) || !svgCloseRE.MatchString(trimmed) {
		return "", false
	}
	// Exactly one top-level <svg>: a second opener means trailing or
	// nested documents.
	if strings.Count(strings.ToLower(trimmed), "<svg") != 1 {
		return "", false
	}
	if forbiddenElementRE.MatchString(trimmed) {
		return "", false
	}
	if eventHandlerRE.MatchString(trimmed) {
		return "", false
	}
	if jsURIRE.MatchString(trimmed) {
		return "", false
	}
	if dataURIHTMLRE.MatchString(trimmed) {
		return "", false
	}
	return trimmed, true
}
