// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package ts

import (
	"sort"
	"time"
)

// Layout is a go time layout, e.g., "2006-01-02".
type Layout string

func (l Layout) Format(t time.Time) string {
	return t.Format(string(l))
}

// NamedLayouts maps names accepted by the time layout flags to layouts.
var NamedLayouts = map[string]Layout{
	"Default":     "Jan 02 15:04",
	"Full":        "Jan 02 15:04:05 2006",
	"Kitchen":     time.Kitchen,
	"RFC1123":     time.RFC1123,
	"RFC3339":     time.RFC3339,
	"RFC3339Nano": time.RFC3339Nano,
	"DateTime":    time.DateTime,
	"DateOnly":    time.DateOnly,
	"TimeOnly":    time.TimeOnly,
	"Stamp":       time.Stamp,
	"StampMilli":  time.StampMilli,
}

// Names returns the names of the named layouts in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(NamedLayouts))
	for name := range NamedLayouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseLayout returns the named layout, or the input itself if it is not a name.
func ParseLayout(layout string) Layout {
	if l, ok := NamedLayouts[layout]; ok {
		return l
	}
	return Layout(layout)
}
