package request

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidSchedule is wrapped by every recurrence or duration parse failure.
var ErrInvalidSchedule = errors.New("invalid schedule")

// Unit is a calendar period used by recurring payments.
type Unit string

const (
	Week  Unit = "week"
	Month Unit = "month"
	Year  Unit = "year"
)

// Recurrence is how often a recurring payment is charged, e.g. "1 Month".
type Recurrence struct {
	Period int
	Unit   Unit
}

func (r Recurrence) String() string { return fmt.Sprintf("%d %s", r.Period, r.Unit) }

// Duration is how long a recurring payment runs, e.g. "1 Year" or "Forever".
type Duration struct {
	Forever bool
	Count   int
	Unit    Unit
}

func (d Duration) String() string {
	if d.Forever {
		return "forever"
	}
	return fmt.Sprintf("%d %s", d.Count, d.Unit)
}

// Schedule is the parsed form of a Recurring request's terms.
type Schedule struct {
	Recurrence Recurrence
	Duration   Duration
}

// ParseRecurrence reads "<n> <week|month|year>", case-insensitive.
func ParseRecurrence(s string) (Recurrence, error) {
	parts := strings.Split(strings.TrimSpace(s), " ")
	if len(parts) != 2 {
		return Recurrence{}, fmt.Errorf("recurrence %q: want \"<n> <unit>\": %w", s, ErrInvalidSchedule)
	}
	n, err := strconv.Atoi(parts[0])
	if err != nil {
		return Recurrence{}, fmt.Errorf("recurrence %q: period is not a number: %w", s, ErrInvalidSchedule)
	}
	u, err := parseUnit(parts[1])
	if err != nil {
		return Recurrence{}, fmt.Errorf("recurrence %q: %w", s, err)
	}
	return Recurrence{Period: n, Unit: u}, nil
}

// ParseDuration reads "forever" or "<n> <week|month|year>", case-insensitive.
func ParseDuration(s string) (Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), " ")
	if len(parts) == 0 || len(parts) > 2 {
		return Duration{}, fmt.Errorf("duration %q: want \"forever\" or \"<n> <unit>\": %w", s, ErrInvalidSchedule)
	}
	if strings.EqualFold(parts[0], "forever") {
		return Duration{Forever: true}, nil
	}
	if len(parts) != 2 {
		return Duration{}, fmt.Errorf("duration %q: missing unit: %w", s, ErrInvalidSchedule)
	}
	n, err := strconv.Atoi(parts[0])
	if err != nil {
		return Duration{}, fmt.Errorf("duration %q: count is not a number: %w", s, ErrInvalidSchedule)
	}
	u, err := parseUnit(parts[1])
	if err != nil {
		return Duration{}, fmt.Errorf("duration %q: %w", s, err)
	}
	return Duration{Count: n, Unit: u}, nil
}

func parseUnit(s string) (Unit, error) {
	switch u := Unit(strings.ToLower(s)); u {
	case Week, Month, Year:
		return u, nil
	default:
		return "", fmt.Errorf("unknown unit %q: %w", s, ErrInvalidSchedule)
	}
}

// Schedule parses the recurrence and duration of a Recurring request. Build
// forwards the raw strings and never calls it.
func (r *PaymentRequest) Schedule() (Schedule, error) {
	if r.Recurring == nil {
		return Schedule{}, fmt.Errorf("%s request has no schedule: %w", r.Variant, ErrInvalidSchedule)
	}
	rec, err := ParseRecurrence(r.Recurring.Recurrence)
	if err != nil {
		return Schedule{}, err
	}
	dur, err := ParseDuration(r.Recurring.Duration)
	if err != nil {
		return Schedule{}, err
	}
	return Schedule{Recurrence: rec, Duration: dur}, nil
}
