// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package ts

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseLocation returns the location for "Local", "UTC", an offset from UTC in hours such as "-8" or "+5:30",
// or an IANA time zone name such as "America/Los_Angeles".
func ParseLocation(location string) (*time.Location, error) {
	switch location {
	case "":
		return nil, errors.New("cannot parse location from empty string")
	case "Local":
		return time.Local, nil
	case "UTC", "Z":
		return time.UTC, nil
	}
	if offset, ok, err := parseOffset(location); ok {
		if err != nil {
			return nil, err
		}
		return time.FixedZone("UTC"+location, offset), nil
	}
	return time.LoadLocation(location)
}

// parseOffset returns the offset in seconds of "[+-]H[:MM]".
// The boolean is false if the string does not look like an offset.
func parseOffset(str string) (int, bool, error) {
	hoursString, minutesString, hasMinutes := strings.Cut(str, ":")
	hours, err := strconv.Atoi(hoursString)
	if err != nil {
		return 0, false, nil
	}
	minutes := 0
	if hasMinutes {
		minutes, err = strconv.Atoi(minutesString)
		if err != nil || minutes < 0 || minutes > 59 || len(minutesString) != 2 {
			return 0, true, fmt.Errorf("invalid minutes in offset %q", str)
		}
	}
	if hours < -14 || hours > 14 {
		return 0, true, fmt.Errorf("offset %q is out of range", str)
	}
	if strings.HasPrefix(hoursString, "-") {
		minutes = -minutes
	}
	return (hours*60 + minutes) * 60, true, nil
}
