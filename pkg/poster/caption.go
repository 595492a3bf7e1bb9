package poster

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/alde/trombinoscope/pkg/codec"
)

// Caption returns the text printed under an image: the file name of its
// identity without folders or extension, in Unicode composed form. The
// standard PDF fonts only have precomposed glyphs, so "e" followed by a
// combining accent would not render.
func Caption(identity string) string {
	name := path.Base(identity)
	stem := strings.TrimSuffix(name, path.Ext(name))
	return norm.NFC.String(stem)
}

// SortByCaption orders images alphabetically by caption using the collation
// rules of locale, e.g. "fr" or "de-CH".
func SortByCaption(images []*codec.SourceImage, locale string) error {
	tag, err := language.Parse(locale)
	if err != nil {
		return fmt.Errorf("%w: invalid locale %q: %v", ErrConfig, locale, err)
	}

	collator := collate.New(tag, collate.Loose, collate.Numeric)
	sort.SliceStable(images, func(i, j int) bool {
		return collator.CompareString(Caption(images[i].Identity), Caption(images[j].Identity)) < 0
	})
	return nil
}
