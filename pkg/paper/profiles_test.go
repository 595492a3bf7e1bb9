package paper

import (
	"math"
	"strings"
	"testing"
)

func TestGetProfile(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a3", "ISO A3"},
		{"A4", "ISO A4"},
		{"  letter ", "US Letter"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			profile, err := GetProfile(tt.input)
			if err != nil {
				t.Fatalf("GetProfile(%q) failed: %v", tt.input, err)
			}
			if profile.Name != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, profile.Name)
			}
		})
	}
}

func TestGetProfileUnknown(t *testing.T) {
	_, err := GetProfile("b5")
	if err == nil {
		t.Fatal("Expected error for unknown paper size")
	}
	if !strings.Contains(err.Error(), "a3") {
		t.Errorf("Expected available sizes in error, got: %v", err)
	}
}

func TestSizePt(t *testing.T) {
	profile, err := GetProfile("a3")
	if err != nil {
		t.Fatal(err)
	}

	w, h := profile.SizePt(false)
	if math.Abs(w-841.89) > 0.01 || math.Abs(h-1190.55) > 0.01 {
		t.Errorf("Expected A3 portrait 841.89x1190.55pt, got %.2fx%.2f", w, h)
	}

	lw, lh := profile.SizePt(true)
	if lw != h || lh != w {
		t.Errorf("Expected landscape to swap sides, got %.2fx%.2f", lw, lh)
	}
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	if len(names) != len(ListProfiles()) {
		t.Fatalf("Expected %d names, got %d", len(ListProfiles()), len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("Names not sorted: %v", names)
		}
	}
}

func TestProfilesArePortrait(t *testing.T) {
	for key, profile := range ListProfiles() {
		if profile.WidthMM >= profile.HeightMM {
			t.Errorf("Profile %s should be declared in portrait orientation", key)
		}
	}
}
