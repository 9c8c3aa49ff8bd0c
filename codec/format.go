package codec

import (
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Format names understood by CheckFormat.
const (
	FormatDate     = "date"
	FormatDateTime = "date-time"
	FormatTime     = "time"
	FormatEmail    = "email"
	FormatURI      = "uri"
)

// KnownFormat reports whether CheckFormat can validate the named format.
func KnownFormat(name string) bool {
	switch name {
	case FormatDate, FormatDateTime, FormatTime, FormatEmail, FormatURI:
		return true
	}
	return false
}

// CheckFormat reports whether s is valid for the named format. Unknown formats
// pass; Compile rejects them up front.
func CheckFormat(name, s string) bool {
	switch name {
	case FormatDate:
		_, err := ParseDate(s)
		return err == nil
	case FormatDateTime:
		_, err := ParseRFC3339(s)
		return err == nil
	case FormatTime:
		return validTime(s)
	case FormatEmail:
		a, err := mail.ParseAddress(s)
		return err == nil && a.Address == s
	case FormatURI:
		u, err := url.Parse(s)
		return err == nil && u.Scheme != ""
	}
	return true
}

// ParseDate parses a full-date (YYYY-MM-DD), rejecting impossible calendar
// dates such as 2018-02-30.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}

// ParseRFC3339 parses a date-time. Lower-case "t"/"z" separators are accepted.
func ParseRFC3339(s string) (time.Time, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case 't':
			return 'T'
		case 'z':
			return 'Z'
		}
		return r
	}, s)
	// Accept RFC3339Nano (trailing zeros optional)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, err
	}
	return t, nil
}

var timeRe = regexp.MustCompile(`^(\d\d):(\d\d):(\d\d)(\.\d+)?([zZ]|[+-]\d\d(?::?\d\d)?)?$`)

func validTime(s string) bool {
	m := timeRe.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	h, mi, se := atoi2(m[1]), atoi2(m[2]), atoi2(m[3])
	// leap second allowed at the end of the day
	return (h <= 23 && mi <= 59 && se <= 59) || (h == 23 && mi == 59 && se == 60)
}

func atoi2(s string) int { return int(s[0]-'0')*10 + int(s[1]-'0') }
