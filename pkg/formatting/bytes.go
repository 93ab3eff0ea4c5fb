// Package formatting converts byte sizes between counts and the
// human-readable strings used in config files and log lines.
package formatting

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// ErrInvalidSize indicates a byte size string that cannot be parsed.
var ErrInvalidSize = errors.New("invalid byte size")

// Base-1024 units. EB is the largest that fits an int64.
var units = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

// FormatBytes renders n in the largest unit that keeps the value at or
// above one, e.g. 1536 with precision 1 is "1.5 KB". Plain byte counts
// never carry a fraction.
func FormatBytes(n int64, precision int) string {
	size := float64(n)
	i := 0
	for math.Abs(size) >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	if i == 0 {
		return strconv.FormatInt(n, 10) + " B"
	}
	return strconv.FormatFloat(size, 'f', max(precision, 0), 64) + " " + units[i]
}

// ParseBytes parses sizes such as "50MB", "1.5 gb", or "1024". A bare
// number is a byte count. Negative sizes are rejected.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)

	end := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})
	if end == -1 {
		end = len(s)
	}
	num, unit := s[:end], strings.ToUpper(strings.TrimSpace(s[end:]))
	if num == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	value, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidSize, s, err)
	}

	exp := 0
	if unit != "" {
		if exp = slices.Index(units, unit); exp < 0 {
			return 0, fmt.Errorf("%w: unknown unit %q", ErrInvalidSize, unit)
		}
	}
	return int64(value * math.Pow(1024, float64(exp))), nil
}
