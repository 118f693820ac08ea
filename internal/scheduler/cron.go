package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NextRun returns the next run time for a schedule expression from a
// given base time. Supported forms are @every <duration> and the named
// expressions @hourly, @daily, @weekly, @monthly, @yearly.
func NextRun(expr string, baseTime time.Time) (time.Time, error) {
	expr = strings.TrimSpace(expr)
	if !strings.HasPrefix(expr, "@") {
		return time.Time{}, fmt.Errorf("unsupported schedule expression: %s (use @every or a named expression)", expr)
	}
	return parseSpecial(expr, baseTime)
}

func parseSpecial(expr string, baseTime time.Time) (time.Time, error) {
	switch {
	case expr == "@yearly" || expr == "@annually":
		return nextYear(baseTime), nil
	case expr == "@monthly":
		return nextMonth(baseTime), nil
	case expr == "@weekly":
		return nextWeek(baseTime), nil
	case expr == "@daily":
		return nextDay(baseTime), nil
	case expr == "@hourly":
		return nextHour(baseTime), nil
	case strings.HasPrefix(expr, "@every "):
		d, err := parseEvery(strings.TrimPrefix(expr, "@every "))
		if err != nil {
			return time.Time{}, err
		}
		return baseTime.Add(d), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported schedule expression: %s", expr)
	}
}

// Interval returns the fixed period of an @every expression. Named
// expressions map to their nominal period, which is what a ticker-based
// sweeper needs.
func Interval(expr string) (time.Duration, error) {
	expr = strings.TrimSpace(expr)
	switch {
	case strings.HasPrefix(expr, "@every "):
		return parseEvery(strings.TrimPrefix(expr, "@every "))
	case expr == "@hourly":
		return time.Hour, nil
	case expr == "@daily":
		return 24 * time.Hour, nil
	case expr == "@weekly":
		return 7 * 24 * time.Hour, nil
	case expr == "@monthly":
		return 30 * 24 * time.Hour, nil
	case expr == "@yearly", expr == "@annually":
		return 365 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unsupported schedule expression: %s", expr)
	}
}

// parseEvery accepts time.ParseDuration syntax plus a "d" suffix for days.
func parseEvery(duration string) (time.Duration, error) {
	if strings.HasSuffix(duration, "d") {
		days := strings.TrimSuffix(duration, "d")
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", duration)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(duration)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %s", duration)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive: %s", duration)
	}
	return d, nil
}

func nextYear(t time.Time) time.Time {
	return time.Date(t.Year()+1, 1, 1, 0, 0, 0, 0, t.Location())
}

func nextMonth(t time.Time) time.Time {
	year := t.Year()
	month := t.Month() + 1
	if month > 12 {
		month = 1
		year++
	}
	return time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
}

func nextWeek(t time.Time) time.Time {
	daysUntilSunday := (7 - int(t.Weekday())) % 7
	if daysUntilSunday == 0 {
		daysUntilSunday = 7
	}
	return time.Date(t.Year(), t.Month(), t.Day()+daysUntilSunday, 0, 0, 0, 0, t.Location())
}

func nextDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location())
}

func nextHour(t time.Time) time.Time {
	return t.Add(time.Hour).Truncate(time.Hour)
}

// Validate checks a schedule expression without evaluating it.
func Validate(expr string) error {
	_, err := Interval(expr)
	return err
}
