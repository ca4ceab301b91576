package users

import (
	"fmt"
	"strings"
	"time"
)

// AgeLayout is the rendering of age in read projections
const AgeLayout = "2006-01-02"

// layouts without a zone are read as UTC
var ageLayouts = []string{
	AgeLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseAge parses a submitted age into a UTC time
func ParseAge(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range ageLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

// FormatAge renders a stored age as YYYY-MM-DD in UTC
func FormatAge(t time.Time) string {
	return t.UTC().Format(AgeLayout)
}
