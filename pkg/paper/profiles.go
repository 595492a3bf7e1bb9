// Package paper holds the named sheet sizes a poster can be printed on.
package paper

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alde/trombinoscope/pkg/geometry"
)

// Profile is a named sheet size. Dimensions are given in portrait
// orientation.
type Profile struct {
	Name     string
	WidthMM  float64
	HeightMM float64
}

// Available paper profiles
var profiles = map[string]Profile{
	"a0":      {Name: "ISO A0", WidthMM: 841, HeightMM: 1189},
	"a1":      {Name: "ISO A1", WidthMM: 594, HeightMM: 841},
	"a2":      {Name: "ISO A2", WidthMM: 420, HeightMM: 594},
	"a3":      {Name: "ISO A3", WidthMM: 297, HeightMM: 420},
	"a4":      {Name: "ISO A4", WidthMM: 210, HeightMM: 297},
	"a5":      {Name: "ISO A5", WidthMM: 148, HeightMM: 210},
	"letter":  {Name: "US Letter", WidthMM: 215.9, HeightMM: 279.4},
	"legal":   {Name: "US Legal", WidthMM: 215.9, HeightMM: 355.6},
	"tabloid": {Name: "US Tabloid", WidthMM: 279.4, HeightMM: 431.8},
}

// SizePt returns the sheet size in points, swapping the sides when landscape
// is requested.
func (p Profile) SizePt(landscape bool) (widthPt, heightPt float64) {
	w, h := geometry.MMToPoints(p.WidthMM), geometry.MMToPoints(p.HeightMM)
	if landscape {
		return h, w
	}
	return w, h
}

func (p Profile) String() string {
	return fmt.Sprintf("%s (%gx%g mm)", p.Name, p.WidthMM, p.HeightMM)
}

// GetProfile returns a paper profile by name
func GetProfile(name string) (Profile, error) {
	normalizedName := strings.ToLower(strings.TrimSpace(name))

	if profile, exists := profiles[normalizedName]; exists {
		return profile, nil
	}

	return Profile{}, fmt.Errorf("unknown paper size '%s'. Available sizes: %v", name, Names())
}

// Names returns the profile names in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for key := range profiles {
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}

// ListProfiles returns all available paper profiles
func ListProfiles() map[string]Profile {
	return profiles
}
