// Package formats is the locale-aware formatting collaborator used by the
// template engine. It localizes numbers and dates for output and converts
// datetimes to the active timezone. The engine treats it as opaque: values
// go in, display strings come out.
package formats

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Separators configure number localization. The defaults match the
// common English convention; hosting applications may swap them for the
// active locale before rendering.
type Separators struct {
	Decimal  string
	Thousand string
	Grouping int
}

// DefaultSeparators is consulted by Localize and FormatNumber.
var DefaultSeparators = Separators{
	Decimal:  ".",
	Thousand: ",",
	Grouping: 3,
}

// UseThousandSeparator enables digit grouping during localization.
var UseThousandSeparator = false

// CurrentTimezone is the zone aware datetimes are converted to when the
// render runs with timezone support enabled.
var CurrentTimezone = time.Local

// Localize formats a value for display. Numbers are run through
// FormatNumber when localization is requested; datetimes use the default
// date and time formats; everything else stringifies unchanged.
func Localize(value interface{}, useL10N bool) string {
	switch v := value.(type) {
	case time.Time:
		return Format(v, "N j, Y, P")
	case float32:
		return localizeFloat(float64(v), useL10N)
	case float64:
		return localizeFloat(v, useL10N)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		if useL10N && UseThousandSeparator {
			return FormatNumber(value, -1, true)
		}
		return fmt.Sprintf("%d", v)
	default:
		return fmt.Sprintf("%v", value)
	}
}

func localizeFloat(v float64, useL10N bool) string {
	if !useL10N {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return FormatNumber(v, -1, UseThousandSeparator)
}

// FormatNumber renders a number using the configured separators.
// decimalPos fixes the number of decimal places; -1 keeps the value's
// natural precision. Grouping inserts the thousand separator every
// Grouping digits of the integer part.
func FormatNumber(value interface{}, decimalPos int, useGrouping bool) string {
	str := numberString(value, decimalPos)

	sign := ""
	if strings.HasPrefix(str, "-") {
		sign = "-"
		str = str[1:]
	}

	intPart := str
	decPart := ""
	if i := strings.IndexByte(str, '.'); i >= 0 {
		intPart = str[:i]
		decPart = str[i+1:]
		if decimalPos >= 0 && len(decPart) > decimalPos {
			decPart = decPart[:decimalPos]
		}
	}
	if decimalPos > 0 {
		for len(decPart) < decimalPos {
			decPart += "0"
		}
	}

	sep := DefaultSeparators
	if useGrouping && sep.Grouping > 0 && len(intPart) > sep.Grouping {
		var groups []string
		for len(intPart) > sep.Grouping {
			groups = append([]string{intPart[len(intPart)-sep.Grouping:]}, groups...)
			intPart = intPart[:len(intPart)-sep.Grouping]
		}
		groups = append([]string{intPart}, groups...)
		intPart = strings.Join(groups, sep.Thousand)
	}

	if decPart != "" {
		return sign + intPart + sep.Decimal + decPart
	}
	return sign + intPart
}

func numberString(value interface{}, decimalPos int) string {
	switch v := value.(type) {
	case float64:
		if decimalPos >= 0 {
			return strconv.FormatFloat(v, 'f', decimalPos, 64)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return numberString(float64(v), decimalPos)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", value)
	}
}

// TemplateLocaltime converts aware datetimes to the current timezone when
// timezone support is on. Non-datetime values pass through untouched.
func TemplateLocaltime(value interface{}, useTZ bool) interface{} {
	if !useTZ {
		return value
	}
	if t, ok := value.(time.Time); ok {
		return t.In(CurrentTimezone)
	}
	return value
}

// RoundedRatio computes round(value/max*width) for the widthratio tag,
// mirroring the original's zero-division behavior.
func RoundedRatio(value, max, width float64) (string, bool) {
	if max == 0 {
		return "0", true
	}
	ratio := value / max * width
	if math.IsInf(ratio, 0) || math.IsNaN(ratio) {
		return "", false
	}
	return strconv.Itoa(int(math.Round(ratio))), true
}
