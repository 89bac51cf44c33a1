package quizgen

import "testing"

func TestDetectUnclearPages(t *testing.T) {
	const minLen = 20

	tests := []struct {
		name      string
		extracted []string
		unclear   bool
	}{
		{"all readable", []string{"This page explains photosynthesis in detail.", "Roots absorb water from the soil below."}, false},
		{"sentinel page", []string{"This page explains photosynthesis in detail.", "UNCLEAR"}, true},
		{"short page", []string{"too short"}, true},
		{"empty page", []string{""}, true},
		{"no pages", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectUnclearPages(tt.extracted, minLen); got != tt.unclear {
				t.Errorf("DetectUnclearPages(%v) = %v, want %v", tt.extracted, got, tt.unclear)
			}
		})
	}
}

func TestQuickEvidenceCheck(t *testing.T) {
	extracted := []string{"Photosynthesis is how green plants make their own food using sunlight and water."}

	t.Run("matching evidence passes", func(t *testing.T) {
		res := QuickEvidenceCheck(extracted, []Evidence{
			{SourceText: "plants make their own food", PageIndex: 0, Confidence: 0.9},
		})
		if res.Passed != 1 || res.Failed != 0 || res.FailRate != 0 {
			t.Errorf("result = %+v, want 1 passed", res)
		}
	})

	t.Run("unrelated evidence fails", func(t *testing.T) {
		res := QuickEvidenceCheck(extracted, []Evidence{
			{SourceText: "volcanoes erupt molten lava frequently"},
		})
		if res.Failed != 1 || res.FailRate != 1.0 {
			t.Errorf("result = %+v, want 1 failed", res)
		}
	})

	t.Run("tiny source text auto-fails", func(t *testing.T) {
		res := QuickEvidenceCheck(extracted, []Evidence{{SourceText: "is"}})
		if res.Failed != 1 {
			t.Errorf("result = %+v, want auto-fail", res)
		}
	})

	t.Run("no evidence is total failure", func(t *testing.T) {
		res := QuickEvidenceCheck(extracted, nil)
		if res.FailRate != 1.0 {
			t.Errorf("failRate = %v, want 1.0", res.FailRate)
		}
	})

	t.Run("adding non-matching evidence never lowers the fail rate", func(t *testing.T) {
		evidence := []Evidence{
			{SourceText: "green plants make food"},
			{SourceText: "sunlight and water"},
		}
		before := QuickEvidenceCheck(extracted, evidence).FailRate

		evidence = append(evidence, Evidence{SourceText: "medieval castles had thick stone walls"})
		after := QuickEvidenceCheck(extracted, evidence).FailRate

		if after < before {
			t.Errorf("failRate dropped from %v to %v after adding unmatched evidence", before, after)
		}
		if after < 0 || after > 1 {
			t.Errorf("failRate %v out of range", after)
		}
	})
}
