// Package timespan parses human-readable duration spans such as "10s",
// "4hr 25min" or "2 days". The grammar is a sequence of integer+unit
// segments, optionally whitespace separated, summed together.
package timespan

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

var units = map[string]time.Duration{
	"s":       time.Second,
	"sec":     time.Second,
	"secs":    time.Second,
	"second":  time.Second,
	"seconds": time.Second,
	"m":       time.Minute,
	"min":     time.Minute,
	"mins":    time.Minute,
	"minute":  time.Minute,
	"minutes": time.Minute,
	"h":       time.Hour,
	"hr":      time.Hour,
	"hrs":     time.Hour,
	"hour":    time.Hour,
	"hours":   time.Hour,
	"d":       24 * time.Hour,
	"day":     24 * time.Hour,
	"days":    24 * time.Hour,
}

// Parse converts a span string into a time.Duration. Unparseable input is
// an error; Parse never guesses.
func Parse(s string) (time.Duration, error) {
	rest := strings.TrimSpace(s)
	if rest == "" {
		return 0, fmt.Errorf("empty duration span")
	}

	var total time.Duration
	for rest != "" {
		i := 0
		for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
			i++
		}
		if i == 0 {
			return 0, fmt.Errorf("expected a number in duration span %q", s)
		}
		var value uint64
		for _, c := range rest[:i] {
			d := uint64(c - '0')
			if value > (^uint64(0)-d)/10 {
				return 0, fmt.Errorf("duration value overflows in span %q", s)
			}
			value = value*10 + d
		}

		rest = strings.TrimLeftFunc(rest[i:], unicode.IsSpace)
		j := 0
		for j < len(rest) && unicode.IsLetter(rune(rest[j])) {
			j++
		}
		if j == 0 {
			return 0, fmt.Errorf("missing unit in duration span %q", s)
		}
		unit, ok := units[strings.ToLower(rest[:j])]
		if !ok {
			return 0, fmt.Errorf("unknown unit %q in duration span %q", rest[:j], s)
		}
		total += time.Duration(value) * unit
		rest = strings.TrimLeftFunc(rest[j:], unicode.IsSpace)
	}
	return total, nil
}
