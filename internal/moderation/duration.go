package moderation

import (
	"strconv"
	"strings"
	"time"
)

// Unit suffixes accepted by ParseDuration. Months and years use fixed 30 and
// 365 day approximations; exact calendar math is not needed for a moderation
// tool.
const (
	day   = 24 * time.Hour
	month = 30 * day
	year  = 365 * day
)

// ParseDuration parses a duration token of the form <number><unit>, where the
// unit is one of ms, s, m, h, d, M or Y. A bare number means minutes. The
// number may be fractional ("1.5h"). A token without a numeral is a
// FormatError.
func ParseDuration(token string) (time.Duration, error) {
	s := strings.TrimSpace(token)
	unit := time.Minute

	switch {
	case strings.HasSuffix(s, "ms"):
		unit, s = time.Millisecond, s[:len(s)-2]
	case strings.HasSuffix(s, "s"):
		unit, s = time.Second, s[:len(s)-1]
	case strings.HasSuffix(s, "m"):
		unit, s = time.Minute, s[:len(s)-1]
	case strings.HasSuffix(s, "h"):
		unit, s = time.Hour, s[:len(s)-1]
	case strings.HasSuffix(s, "d"):
		unit, s = day, s[:len(s)-1]
	case strings.HasSuffix(s, "M"):
		unit, s = month, s[:len(s)-1]
	case strings.HasSuffix(s, "Y"):
		unit, s = year, s[:len(s)-1]
	}

	if s == "" {
		return 0, &FormatError{Token: token}
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &FormatError{Token: token}
	}
	return time.Duration(n * float64(unit)), nil
}

// LooksLikeDuration reports whether a token would parse as a duration. Used
// by the command dispatcher to tell an optional duration argument apart from
// the start of a reason.
func LooksLikeDuration(token string) bool {
	_, err := ParseDuration(token)
	return err == nil
}
