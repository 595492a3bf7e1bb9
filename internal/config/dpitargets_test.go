package config

import (
	"testing"
)

func TestParseDPITargets(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
		hasError bool
	}{
		{"300", []string{"300"}, false},
		{"300,600,native", []string{"300", "600", "native"}, false},
		{" 150 , NATIVE ", []string{"150", "native"}, false},
		{"300,300,native,native", []string{"300", "native"}, false},
		{"native", []string{"native"}, false},
		{"", nil, true},
		{",,", nil, true},
		{"0", nil, true},
		{"-300", nil, true},
		{"high", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			targets, err := ParseDPITargets(tt.input)

			if tt.hasError {
				if err == nil {
					t.Errorf("Expected error for input %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error for input %q: %v", tt.input, err)
			}
			if len(targets) != len(tt.expected) {
				t.Fatalf("Expected %d targets, got %d", len(tt.expected), len(targets))
			}
			for i, want := range tt.expected {
				if got := FormatDPITarget(targets[i]); got != want {
					t.Errorf("Target %d: expected %s, got %s", i, want, got)
				}
			}
		})
	}
}

func TestParseDPITargetsNativeIsNil(t *testing.T) {
	targets, err := ParseDPITargets("native")
	if err != nil {
		t.Fatal(err)
	}
	if targets[0] != nil {
		t.Errorf("Expected nil for native, got %d", *targets[0])
	}
}
