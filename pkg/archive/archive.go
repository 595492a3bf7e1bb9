// Package archive reads the portrait images bundled in a zip archive.
package archive

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/alde/trombinoscope/internal/logging"
)

// ErrEmpty is returned when an archive holds no usable entry.
var ErrEmpty = errors.New("archive contains no images")

// maxEntrySize bounds a single decompressed entry.
const maxEntrySize = 256 << 20

// Entry is a file read from the archive.
type Entry struct {
	Name string // cleaned path inside the archive, used as the image identity
	Data []byte
}

// Load reads every regular file of the zip archive at filename in archive
// order. Directories, OS metadata files and entries with unsafe paths are
// skipped.
func Load(filename string) ([]Entry, error) {
	r, err := zip.OpenReader(filename)
	// unsafe names are filtered per entry below
	if err != nil && !(errors.Is(err, zip.ErrInsecurePath) && r != nil) {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer r.Close()

	var entries []Entry
	for _, f := range r.File {
		if f.FileInfo().IsDir() || isMetadata(f.Name) {
			continue
		}
		if !isSafePath(f.Name) {
			logging.Warn("Skipping archive entry with unsafe path: %s", f.Name)
			continue
		}

		data, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		entries = append(entries, Entry{Name: path.Clean(f.Name), Data: data})
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: %w", filename, ErrEmpty)
	}
	logging.Debug("Loaded %d entries from %s", len(entries), filename)
	return entries, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxEntrySize {
		return nil, fmt.Errorf("entry exceeds %d bytes", maxEntrySize)
	}
	return data, nil
}

// isMetadata reports files added by macOS or Windows archivers.
func isMetadata(name string) bool {
	if strings.HasPrefix(name, "__MACOSX/") {
		return true
	}
	base := path.Base(name)
	return base == ".DS_Store" || base == "Thumbs.db" || strings.HasPrefix(base, "._")
}

func isSafePath(name string) bool {
	if name == "" || strings.Contains(name, `\`) || path.IsAbs(name) {
		return false
	}
	cleaned := path.Clean(name)
	return cleaned != ".." && !strings.HasPrefix(cleaned, "../")
}
