package formats

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Default formats used by the date and time filters when no argument is
// given, and by Localize for datetimes.
const (
	DateFormat     = "N j, Y"
	TimeFormat     = "P"
	DateTimeFormat = "N j, Y, P"
)

var apMonths = [13]string{"", "Jan.", "Feb.", "March", "April", "May", "June", "July", "Aug.", "Sept.", "Oct.", "Nov.", "Dec."}

// Format renders t according to a Django-style date format string. Each
// format character maps to one component; a backslash escapes the next
// character; unknown characters pass through verbatim.
func Format(t time.Time, format string) string {
	var out strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c == '\\' && i+1 < len(format) {
			i++
			out.WriteByte(format[i])
			continue
		}
		out.WriteString(formatChar(t, c))
	}
	return out.String()
}

func formatChar(t time.Time, c byte) string {
	switch c {
	case 'd':
		return fmt.Sprintf("%02d", t.Day())
	case 'j':
		return strconv.Itoa(t.Day())
	case 'D':
		return t.Format("Mon")
	case 'l':
		return t.Weekday().String()
	case 'w':
		return strconv.Itoa(int(t.Weekday()))
	case 'z':
		return strconv.Itoa(t.YearDay())
	case 'm':
		return fmt.Sprintf("%02d", int(t.Month()))
	case 'n':
		return strconv.Itoa(int(t.Month()))
	case 'M':
		return t.Format("Jan")
	case 'b':
		return strings.ToLower(t.Format("Jan"))
	case 'F':
		return t.Month().String()
	case 'N':
		return apMonths[int(t.Month())]
	case 't':
		return strconv.Itoa(daysInMonth(t))
	case 'y':
		return fmt.Sprintf("%02d", t.Year()%100)
	case 'Y':
		return strconv.Itoa(t.Year())
	case 'g':
		return strconv.Itoa(hour12(t))
	case 'G':
		return strconv.Itoa(t.Hour())
	case 'h':
		return fmt.Sprintf("%02d", hour12(t))
	case 'H':
		return fmt.Sprintf("%02d", t.Hour())
	case 'i':
		return fmt.Sprintf("%02d", t.Minute())
	case 's':
		return fmt.Sprintf("%02d", t.Second())
	case 'u':
		return fmt.Sprintf("%06d", t.Nanosecond()/1000)
	case 'a':
		if t.Hour() < 12 {
			return "a.m."
		}
		return "p.m."
	case 'A':
		if t.Hour() < 12 {
			return "AM"
		}
		return "PM"
	case 'P':
		return formatP(t)
	case 'O':
		return t.Format("-0700")
	case 'T':
		name, _ := t.Zone()
		return name
	case 'U':
		return strconv.FormatInt(t.Unix(), 10)
	case 'c':
		return t.Format("2006-01-02T15:04:05")
	case 'r':
		return t.Format("Mon, 02 Jan 2006 15:04:05 -0700")
	default:
		return string(c)
	}
}

// formatP renders "g:i a.m./p.m." with minutes dropped on the hour, and
// the special cases midnight and noon.
func formatP(t time.Time) string {
	if t.Minute() == 0 {
		switch t.Hour() {
		case 0:
			return "midnight"
		case 12:
			return "noon"
		}
		return fmt.Sprintf("%d %s", hour12(t), formatChar(t, 'a'))
	}
	return fmt.Sprintf("%d:%02d %s", hour12(t), t.Minute(), formatChar(t, 'a'))
}

func hour12(t time.Time) int {
	h := t.Hour() % 12
	if h == 0 {
		return 12
	}
	return h
}

func daysInMonth(t time.Time) int {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return first.AddDate(0, 1, -1).Day()
}
