// Package duration converts elapsed seconds to and from the normalized
// ISO 8601 time form PT[nH][nM][nS]. Days, weeks and fractional seconds
// are not supported.
package duration

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedDuration is returned by Parse for text that is not a
// normalized PT duration.
var ErrMalformedDuration = errors.New("malformed duration")

// ErrNegativeDuration is returned by Format for negative input.
var ErrNegativeDuration = errors.New("duration cannot be negative")

// Format renders seconds as "PT1H2M3S". Zero-valued components are
// omitted, except seconds stays when hours and minutes are both zero,
// so zero formats as "PT0S".
func Format(seconds int) (string, error) {
	if seconds < 0 {
		return "", ErrNegativeDuration
	}

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	var b strings.Builder
	b.WriteString("PT")
	if hours > 0 {
		fmt.Fprintf(&b, "%dH", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&b, "%dM", minutes)
	}
	if secs > 0 || (hours == 0 && minutes == 0) {
		fmt.Fprintf(&b, "%dS", secs)
	}
	return b.String(), nil
}

// Parse is the inverse of Format. Components must appear in H, M, S
// order, each at most once; at least one must be present.
func Parse(text string) (int, error) {
	rest, ok := strings.CutPrefix(text, "PT")
	if !ok || rest == "" {
		return 0, fmt.Errorf("%w: %q", ErrMalformedDuration, text)
	}

	total := 0
	seen := false
	units := []struct {
		suffix byte
		factor int
	}{
		{'H', 3600},
		{'M', 60},
		{'S', 1},
	}

	for _, u := range units {
		n, consumed, ok := leadingNumber(rest, u.suffix)
		if !ok {
			continue
		}
		total += n * u.factor
		rest = rest[consumed:]
		seen = true
	}

	if !seen || rest != "" {
		return 0, fmt.Errorf("%w: %q", ErrMalformedDuration, text)
	}
	return total, nil
}

// leadingNumber reads a decimal run followed by the unit byte at the
// start of s. consumed includes the unit byte.
func leadingNumber(s string, unit byte) (n, consumed int, ok bool) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		n = n*10 + int(s[i]-'0')
		i++
	}
	if i == 0 || i >= len(s) || s[i] != unit {
		return 0, 0, false
	}
	return n, i + 1, true
}
