package models

import (
	"testing"
)

func TestDetectionValidate(t *testing.T) {
	tests := []struct {
		name    string
		det     Detection
		wantErr bool
	}{
		{"valid", Detection{ID: "d1", Class: "person", Confidence: 0.95, BBox: BBox{X: 10, Y: 20, Width: 30, Height: 40}}, false},
		{"zero confidence", Detection{ID: "d2", Class: "car", Confidence: 0, BBox: BBox{}}, false},
		{"full confidence", Detection{ID: "d3", Class: "car", Confidence: 1, BBox: BBox{}}, false},
		{"confidence above one", Detection{ID: "d4", Class: "car", Confidence: 1.01}, true},
		{"negative confidence", Detection{ID: "d5", Class: "car", Confidence: -0.1}, true},
		{"negative x", Detection{ID: "d6", Class: "dog", Confidence: 0.5, BBox: BBox{X: -1}}, true},
		{"negative width", Detection{ID: "d7", Class: "dog", Confidence: 0.5, BBox: BBox{Width: -5}}, true},
	}

	for _, tt := range tests {
		err := tt.det.Validate()
		if tt.wantErr && err == nil {
			t.Errorf("%s: expected validation error, got nil", tt.name)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("%s: unexpected validation error: %v", tt.name, err)
		}
	}
}

func TestDetectionOverlayLabel(t *testing.T) {
	tests := []struct {
		class      string
		confidence float64
		expected   string
	}{
		{"person", 0.95, "person (95%)"},
		{"car", 0.954, "car (95%)"},
		{"car", 0.955, "car (96%)"},
		{"dog", 1, "dog (100%)"},
		{"cat", 0, "cat (0%)"},
	}

	for _, tt := range tests {
		d := Detection{Class: tt.class, Confidence: tt.confidence}
		if got := d.OverlayLabel(); got != tt.expected {
			t.Errorf("OverlayLabel(%s, %g) = %q, expected %q", tt.class, tt.confidence, got, tt.expected)
		}
	}
}
