package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestGridCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"grid", "--count", "6", "--paper", "a4", "--dpi", "300,native"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("grid failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"Images:  6",
		"At    300 dpi a cell is",
		"At native dpi images keep their source pixels",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected %q in output:\n%s", want, got)
		}
	}
}
