package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"CacheHitsTotal", CacheHitsTotal},
		{"CacheMissesTotal", CacheMissesTotal},
		{"CacheWriteErrorsTotal", CacheWriteErrorsTotal},
		{"PlaceholdersTotal", PlaceholdersTotal},
		{"TransformDuration", TransformDuration},
		{"DocumentsWrittenTotal", DocumentsWrittenTotal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestCounterOperations(t *testing.T) {
	before := testutil.ToFloat64(PlaceholdersTotal)
	PlaceholdersTotal.Inc()
	if got := testutil.ToFloat64(PlaceholdersTotal); got != before+1 {
		t.Errorf("Expected %v, got %v", before+1, got)
	}

	DocumentsWrittenTotal.WithLabelValues("300").Inc()
	if got := testutil.ToFloat64(DocumentsWrittenTotal.WithLabelValues("300")); got < 1 {
		t.Errorf("Expected at least one document, got %v", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	CacheHitsTotal.Inc()
	path := filepath.Join(t.TempDir(), "trombinoscope.prom")

	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read metrics file: %v", err)
	}
	if !strings.Contains(string(data), "trombinoscope_cache_hits_total") {
		t.Errorf("Expected cache hits metric in output, got:\n%s", data)
	}
}

func TestWriteTextfileBadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "metrics.prom")
	if err := WriteTextfile(path); err == nil {
		t.Error("Expected error writing to a missing directory")
	}
}
