package quizgen

import "testing"

func TestSanitizeDiagram(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		ok     bool
	}{
		{"simple shapes", `<svg viewBox="0 0 100 100"><rect x="1" y="1" width="10" height="10"/><circle cx="5" cy="5" r="2"/></svg>`, true},
		{"with text and whitespace", "  <svg viewBox=\"0 0 10 10\">\n  <text x=\"1\" y=\"1\">3 + 4</text>\n</svg>  ", true},
		{"empty", "", false},
		{"not svg", "<div>hello</div>", false},
		{"missing close", `<svg><rect/>`, false},
		{"trailing html", `<svg><rect/></svg><script>alert(1)</script>`, false},
		{"two svg documents", `<svg></svg><svg></svg>`, false},
		{"script element", `<svg><script>alert(1)</script></svg>`, false},
		{"iframe", `<svg><iframe src="x"></iframe></svg>`, false},
		{"foreign object", `<svg><foreignObject><body/></foreignObject></svg>`, false},
		{"embed", `<svg><embed src="x"/></svg>`, false},
		{"event handler", `<svg onload="alert(1)"><rect/></svg>`, false},
		{"javascript uri", `<svg><a href="javascript:alert(1)"><rect/></a></svg>`, false},
		{"obfuscated javascript uri", `<svg><a href="javascript :alert(1)"><rect/></a></svg>`, false},
		{"html data uri", `<svg><image href="data:text/html,<script>x</script>"/></svg>`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clean, ok := SanitizeDiagram(tt.markup)
			if ok != tt.ok {
				t.Fatalf("SanitizeDiagram(%q) ok = %v, want %v", tt.markup, ok, tt.ok)
			}
			if ok && clean == "" {
				t.Error("accepted diagram came back empty")
			}
			if !ok && clean != "" {
				t.Errorf("rejected diagram came back non-empty: %q", clean)
			}
		})
	}
}
