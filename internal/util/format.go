package util

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidDuration is returned for negative or non-finite millisecond values.
var ErrInvalidDuration = errors.New("invalid duration")

// maxShowSeconds keeps the rounded value exactly representable as a float64.
const maxShowSeconds = 1 << 53

// ShowTime formats elapsed milliseconds as mm:ss. Seconds are rounded to the
// nearest whole second and minutes keep growing past 59.
func ShowTime(ms float64) (string, error) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return "", fmt.Errorf("%w: %v ms is not finite", ErrInvalidDuration, ms)
	}
	if ms < 0 {
		return "", fmt.Errorf("%w: %v ms is negative", ErrInvalidDuration, ms)
	}

	rounded := math.Round(ms / 1000)
	if rounded > maxShowSeconds {
		return "", fmt.Errorf("%w: %v ms is out of range", ErrInvalidDuration, ms)
	}
	seconds := int64(rounded)
	sec := seconds % 60
	mins := (seconds - sec) / 60
	return fmt.Sprintf("%02d:%02d", mins, sec), nil
}

// ShowTimeMillis is ShowTime for integer millisecond counts.
func ShowTimeMillis(ms int64) (string, error) {
	return ShowTime(float64(ms))
}

// FormatDuration formats a duration as mm:ss.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s, err := ShowTimeMillis(d.Milliseconds())
	if err != nil {
		return "--:--"
	}
	return s
}
