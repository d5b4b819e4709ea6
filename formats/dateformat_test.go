package formats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var refTime = time.Date(2006, time.September, 3, 15, 4, 5, 0, time.UTC)

func TestFormat(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"Y-m-d", "2006-09-03"},
		{"j", "3"},
		{"d", "03"},
		{"D l", "Sun Sunday"},
		{"n/j/y", "9/3/06"},
		{"M b F N", "Sep sep September Sept."},
		{"g G h H", "3 15 03 15"},
		{"i s", "04 05"},
		{"a A", "p.m. PM"},
		{"N j, Y", "Sept. 3, 2006"},
		{"t", "30"},
		{"w", "0"},
		{`\Ye\a\r: Y`, "Year: 2006"},
		{"c", "2006-09-03T15:04:05"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(refTime, tt.format), tt.format)
	}
}

func TestFormatP(t *testing.T) {
	tests := []struct {
		t    time.Time
		want string
	}{
		{time.Date(2006, 1, 1, 0, 0, 0, 0, time.UTC), "midnight"},
		{time.Date(2006, 1, 1, 12, 0, 0, 0, time.UTC), "noon"},
		{time.Date(2006, 1, 1, 9, 0, 0, 0, time.UTC), "9 a.m."},
		{time.Date(2006, 1, 1, 13, 30, 0, 0, time.UTC), "1:30 p.m."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(tt.t, "P"))
	}
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "1,234,567", FormatNumber(1234567, -1, true))
	assert.Equal(t, "1234567", FormatNumber(1234567, -1, false))
	assert.Equal(t, "3.140", FormatNumber(3.14, 3, false))
	assert.Equal(t, "-1,000", FormatNumber(-1000, -1, true))
	assert.Equal(t, "42", FormatNumber(42, 0, false))
}

func TestTemplateLocaltime(t *testing.T) {
	zone := time.FixedZone("TST", 3600)
	prev := CurrentTimezone
	CurrentTimezone = zone
	defer func() { CurrentTimezone = prev }()

	converted := TemplateLocaltime(refTime, true)
	assert.Equal(t, refTime.In(zone), converted)

	unchanged := TemplateLocaltime(refTime, false)
	assert.Equal(t, refTime, unchanged)

	assert.Equal(t, "hello", TemplateLocaltime("hello", true))
}

func TestRoundedRatio(t *testing.T) {
	out, ok := RoundedRatio(175, 200, 100)
	assert.True(t, ok)
	assert.Equal(t, "88", out)

	out, ok = RoundedRatio(5, 0, 100)
	assert.True(t, ok)
	assert.Equal(t, "0", out)

	out, ok = RoundedRatio(50, 100, 100)
	assert.True(t, ok)
	assert.Equal(t, "50", out)
}
