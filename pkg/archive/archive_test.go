package archive

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
)

// createTestArchive writes a zip with the given entries; names ending in "/"
// become directories.
func createTestArchive(t *testing.T, names []string) string {
	t.Helper()

	filename := filepath.Join(t.TempDir(), "portraits.zip")
	f, err := os.Create(filename)
	if err != nil {
		t.Fatalf("Failed to create archive: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for _, name := range names {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("Failed to add %s: %v", name, err)
		}
		if name[len(name)-1] == '/' {
			continue
		}
		if _, err := fw.Write([]byte("data:" + name)); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close archive: %v", err)
	}
	return filename
}

func TestLoad(t *testing.T) {
	filename := createTestArchive(t, []string{
		"class/",
		"class/zoe.jpg",
		"class/adam.png",
		"__MACOSX/class/._zoe.jpg",
		"class/._adam.png",
		"class/.DS_Store",
		"Thumbs.db",
		"../escape.jpg",
		"/etc/passwd",
		"root.jpg",
	})

	entries, err := Load(filename)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	expected := []string{"class/zoe.jpg", "class/adam.png", "root.jpg"}
	if len(entries) != len(expected) {
		t.Fatalf("Expected %d entries, got %d: %v", len(expected), len(entries), entries)
	}
	for i, name := range expected {
		if entries[i].Name != name {
			t.Errorf("Entry %d: expected %s, got %s", i, name, entries[i].Name)
		}
	}
	if string(entries[0].Data) != "data:class/zoe.jpg" {
		t.Errorf("Unexpected data for zoe.jpg: %q", entries[0].Data)
	}
}

func TestLoadEmpty(t *testing.T) {
	filename := createTestArchive(t, []string{"empty/", "__MACOSX/x"})

	_, err := Load(filename)
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("Expected ErrEmpty, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.zip"))
	if err == nil {
		t.Error("Expected error for missing archive")
	}
}

func TestIsSafePath(t *testing.T) {
	tests := []struct {
		name string
		safe bool
	}{
		{"a.jpg", true},
		{"dir/a.jpg", true},
		{"dir/../a.jpg", true},
		{"../a.jpg", false},
		{"dir/../../a.jpg", false},
		{"/abs.jpg", false},
		{`dir\a.jpg`, false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isSafePath(tt.name); got != tt.safe {
				t.Errorf("Expected %v for %q, got %v", tt.safe, tt.name, got)
			}
		})
	}
}

func TestLoadKeepsFoldersApart(t *testing.T) {
	filename := createTestArchive(t, []string{
		"6A/martin.jpg",
		"6B/martin.jpg",
		"6B/./sub/../lea.jpg",
	})

	entries, err := Load(filename)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	expected := []string{"6A/martin.jpg", "6B/martin.jpg", "6B/lea.jpg"}
	if len(entries) != len(expected) {
		t.Fatalf("Expected %d entries, got %d", len(expected), len(entries))
	}
	for i, name := range expected {
		if entries[i].Name != name {
			t.Errorf("Entry %d: expected %s, got %s", i, name, entries[i].Name)
		}
	}
	if string(entries[0].Data) == string(entries[1].Data) {
		t.Error("Entries with the same base name must keep their own data")
	}
}
