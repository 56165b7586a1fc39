package zconfig

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	retentionPattern = regexp.MustCompile(`^(?:\d+[dhms])+$`)
	retentionPart    = regexp.MustCompile(`(\d+)([dhms])`)
)

// ParseRetentionInterval converts strings like "30d" or "1d12h" into a
// time.Duration. Units are days, hours, minutes and seconds.
func ParseRetentionInterval(input string) (time.Duration, error) {
	value := strings.ToLower(strings.TrimSpace(input))
	if value == "" {
		return 0, fmt.Errorf("duration cannot be empty")
	}
	if !retentionPattern.MatchString(value) {
		return 0, fmt.Errorf("invalid duration format: %s", input)
	}

	total := time.Duration(0)
	for _, parts := range retentionPart.FindAllStringSubmatch(value, -1) {
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			return 0, fmt.Errorf("invalid duration number: %w", err)
		}
		switch parts[2] {
		case "d":
			total += time.Duration(n) * 24 * time.Hour
		case "h":
			total += time.Duration(n) * time.Hour
		case "m":
			total += time.Duration(n) * time.Minute
		case "s":
			total += time.Duration(n) * time.Second
		}
	}
	return total, nil
}
