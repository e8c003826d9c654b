package finance

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var utcOffsetPattern = regexp.MustCompile(`^([+-])(?:(\d{1,2})|(\d{1,2}):(\d{2})|(\d{2})(\d{2}))$`)

// UTCOffset is a fixed signed offset from UTC with minute precision.
type UTCOffset struct {
	minutes int
}

// ParseUTCOffset accepts "UTC+3", "+3", "+03:00", "+0300" and similar forms within ±14:00.
func ParseUTCOffset(raw string) (UTCOffset, error) {
	normalized := strings.TrimSpace(raw)
	if len(normalized) >= 3 && strings.EqualFold(normalized[:3], "utc") {
		normalized = normalized[3:]
	}
	normalized = whitespaceRun.ReplaceAllString(normalized, "")
	match := utcOffsetPattern.FindStringSubmatch(normalized)
	if match == nil {
		return UTCOffset{}, fmt.Errorf("%w: %q must look like +03:00, +0300, UTC+3 or -5", ErrInvalidUTCOffset, raw)
	}
	var hoursText, minutesText string
	switch {
	case match[2] != "":
		hoursText, minutesText = match[2], "0"
	case match[3] != "":
		hoursText, minutesText = match[3], match[4]
	default:
		hoursText, minutesText = match[5], match[6]
	}
	hours, _ := strconv.Atoi(hoursText)
	minutes, _ := strconv.Atoi(minutesText)
	if hours > 14 || minutes > 59 {
		return UTCOffset{}, fmt.Errorf("%w: %q is out of range", ErrInvalidUTCOffset, raw)
	}
	total := hours*60 + minutes
	if total > maxUTCOffsetMinutes {
		return UTCOffset{}, fmt.Errorf("%w: %q exceeds 14:00", ErrInvalidUTCOffset, raw)
	}
	if match[1] == "-" {
		total = -total
	}
	return UTCOffset{minutes: total}, nil
}

// UTCOffsetFromMinutes validates a signed minute count.
func UTCOffsetFromMinutes(minutes int) (UTCOffset, error) {
	if minutes > maxUTCOffsetMinutes || minutes < -maxUTCOffsetMinutes {
		return UTCOffset{}, fmt.Errorf("%w: %d minutes is out of range", ErrInvalidUTCOffset, minutes)
	}
	return UTCOffset{minutes: minutes}, nil
}

// DefaultUTCOffset returns the offset used before any settings are stored.
func DefaultUTCOffset() UTCOffset {
	offset, _ := ParseUTCOffset(defaultUTCOffset)
	return offset
}

// Minutes returns the signed offset in minutes.
func (offset UTCOffset) Minutes() int {
	return offset.minutes
}

// String formats the offset as ±HH:MM.
func (offset UTCOffset) String() string {
	sign := "+"
	minutes := offset.minutes
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	return fmt.Sprintf("%s%02d:%02d", sign, minutes/60, minutes%60)
}

// Local converts instant to the offset's wall clock.
func (offset UTCOffset) Local(instant time.Time) time.Time {
	return instant.In(time.FixedZone(offset.String(), offset.minutes*60))
}
