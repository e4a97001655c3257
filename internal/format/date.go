package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Localizer resolves month names.
type Localizer interface {
	Message(key, locale string) (string, bool)
}

// DateFormatter formats dates with date-pattern letters: d, M, y, H, m, s.
// Text in single quotes is copied verbatim; "MMMM" is the localized month name
// and "MMM" its first three letters.
type DateFormatter struct {
	messages Localizer
	location *time.Location
}

// NewDateFormatter returns a formatter rendering times in loc (UTC when nil).
func NewDateFormatter(messages Localizer, loc *time.Location) *DateFormatter {
	if loc == nil {
		loc = time.UTC
	}
	return &DateFormatter{messages: messages, location: loc}
}

// FormatDate renders t with pattern in locale.
func (f *DateFormatter) FormatDate(t time.Time, pattern, locale string) string {
	t = t.In(f.location)
	var sb strings.Builder
	runes := []rune(pattern)
	for i := 0; i < len(runes); {
		c := runes[i]
		if c == '\'' {
			j := i + 1
			for j < len(runes) && runes[j] != '\'' {
				j++
			}
			if j == i+1 && j < len(runes) {
				sb.WriteRune('\'')
			} else {
				sb.WriteString(string(runes[i+1 : min(j, len(runes))]))
			}
			i = j + 1
			continue
		}
		j := i
		for j < len(runes) && runes[j] == c {
			j++
		}
		sb.WriteString(f.field(t, c, j-i, locale))
		i = j
	}
	return sb.String()
}

func (f *DateFormatter) field(t time.Time, c rune, n int, locale string) string {
	switch c {
	case 'd':
		return pad(t.Day(), n)
	case 'M':
		switch {
		case n >= 4:
			return f.month(t.Month(), locale)
		case n == 3:
			name := []rune(f.month(t.Month(), locale))
			if len(name) > 3 {
				name = name[:3]
			}
			return string(name)
		default:
			return pad(int(t.Month()), n)
		}
	case 'y':
		if n == 2 {
			return pad(t.Year()%100, 2)
		}
		return pad(t.Year(), n)
	case 'H':
		return pad(t.Hour(), n)
	case 'm':
		return pad(t.Minute(), n)
	case 's':
		return pad(t.Second(), n)
	default:
		return strings.Repeat(string(c), n)
	}
}

func (f *DateFormatter) month(m time.Month, locale string) string {
	if f.messages != nil {
		if name, ok := f.messages.Message("date.month."+strconv.Itoa(int(m)), locale); ok {
			return name
		}
	}
	return m.String()
}

func pad(v, width int) string {
	return fmt.Sprintf("%0*d", width, v)
}
