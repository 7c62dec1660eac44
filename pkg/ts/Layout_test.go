// =================================================================
//
// Work of the U.S. Department of Defense, Defense Digital Service.
// Released as open source under the MIT License.  See LICENSE file.
//
// =================================================================

package ts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseLayout(t *testing.T) {
	assert.Equal(t, Layout(time.RFC3339), ParseLayout("RFC3339"))
	assert.Equal(t, Layout("2006"), ParseLayout("2006"))
	d := time.Date(2021, time.March, 4, 5, 6, 7, 0, time.UTC)
	assert.Equal(t, "Mar 04 05:06", ParseLayout("Default").Format(d))
}

func TestNames(t *testing.T) {
	names := Names()
	assert.Len(t, names, len(NamedLayouts))
	assert.Equal(t, "DateOnly", names[0])
	assert.Contains(t, names, "Full")
}

func TestParseLocation(t *testing.T) {
	_, err := ParseLocation("")
	assert.Error(t, err)

	l, err := ParseLocation("Local")
	assert.NoError(t, err)
	assert.Equal(t, time.Local, l)

	l, err = ParseLocation("-8")
	assert.NoError(t, err)
	_, offset := time.Date(2021, time.March, 4, 5, 6, 7, 0, l).Zone()
	assert.Equal(t, -8*60*60, offset)

	l, err = ParseLocation("+5:30")
	assert.NoError(t, err)
	_, offset = time.Date(2021, time.March, 4, 5, 6, 7, 0, l).Zone()
	assert.Equal(t, (5*60+30)*60, offset)

	l, err = ParseLocation("-3:30")
	assert.NoError(t, err)
	_, offset = time.Date(2021, time.March, 4, 5, 6, 7, 0, l).Zone()
	assert.Equal(t, -(3*60+30)*60, offset)

	l, err = ParseLocation("UTC")
	assert.NoError(t, err)
	assert.Equal(t, time.UTC, l)

	_, err = ParseLocation("+5:99")
	assert.Error(t, err)

	_, err = ParseLocation("+20")
	assert.Error(t, err)

	_, err = ParseLocation("Not/AZone")
	assert.Error(t, err)
}
