package moderation

import (
	"fmt"
	"time"
)

// FormatError reports an unparseable duration token.
type FormatError struct {
	Token string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid duration %q", e.Token)
}

// DurationError reports a duration that is non-positive or exceeds the
// ceiling configured for its action kind.
type DurationError struct {
	Duration time.Duration
	Ceiling  time.Duration
}

func (e *DurationError) Error() string {
	if e.Duration <= 0 {
		return "duration must be positive"
	}
	return fmt.Sprintf("duration %s exceeds the maximum of %s",
		e.Duration, e.Ceiling)
}

// CheckDuration validates a duration against a ceiling without touching any
// state. The store performs the same check before committing.
func CheckDuration(d, ceiling time.Duration) error {
	if d <= 0 || d > ceiling {
		return &DurationError{Duration: d, Ceiling: ceiling}
	}
	return nil
}
