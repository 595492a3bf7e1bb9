package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Native is the DPI target that keeps the source resolution.
const Native = "native"

// ParseDPITargets parses a target list like "300,600,native". A nil entry
// stands for native resolution. Duplicates are dropped, order is kept.
func ParseDPITargets(s string) ([]*int, error) {
	var targets []*int
	seen := make(map[string]bool)

	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true

		if part == Native {
			targets = append(targets, nil)
			continue
		}

		dpi, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid DPI target: %s", ErrInvalid, part)
		}
		if dpi <= 0 {
			return nil, fmt.Errorf("%w: DPI target must be positive, got %d", ErrInvalid, dpi)
		}
		targets = append(targets, &dpi)
	}

	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: no DPI target given", ErrInvalid)
	}
	return targets, nil
}

// FormatDPITarget is the inverse of ParseDPITargets for one entry.
func FormatDPITarget(dpi *int) string {
	if dpi == nil {
		return Native
	}
	return strconv.Itoa(*dpi)
}
