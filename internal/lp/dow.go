package lp

import (
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/lptrack/internal/apperr"
)

// ParseDayOfWeek accepts 0-6 (0 is Sunday) or an English day name and
// returns the three-letter label.
func ParseDayOfWeek(s string) (string, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 6 {
			return "", apperr.Validationf("day of week %d out of range 0-6", n)
		}
		return DayOfWeek(time.Weekday(n)), nil
	}
	lower := strings.ToLower(s)
	if len(lower) >= 3 {
		for d := time.Sunday; d <= time.Saturday; d++ {
			name := strings.ToLower(d.String())
			if strings.HasPrefix(name, lower) {
				return DayOfWeek(d), nil
			}
		}
	}
	return "", apperr.Validationf("unknown day of week %q", s)
}

// DayOfWeek returns the three-letter label for d.
func DayOfWeek(d time.Weekday) string {
	return d.String()[:3]
}
