// Package timeofday contains the wall-clock value used by schedules, bookings and
// eligibility checks.
package timeofday

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	minutesPerHour = 60
	minutesPerDay  = 24 * minutesPerHour
)

// Noon splits a day into morning and afternoon.
const Noon Clock = 12 * minutesPerHour

// Clock is a time of day, stored as minutes since midnight.
type Clock int

// ErrInvalidFormat is returned when a value is not a valid HH:MM time.
type ErrInvalidFormat struct {
	Value string
}

func (e ErrInvalidFormat) Error() string {
	return fmt.Sprintf("invalid time %q, expected HH:MM", e.Value)
}

// New creates a Clock from hours and minutes.
func New(hour, minute int) Clock {
	return Clock(hour*minutesPerHour + minute)
}

// Parse parses a strict HH:MM value.
func Parse(value string) (Clock, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, ErrInvalidFormat{Value: value}
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, ErrInvalidFormat{Value: value}
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, ErrInvalidFormat{Value: value}
	}
	return New(hour, minute), nil
}

// MustParse parses the given value and if any error occurs, will panic.
func MustParse(value string) Clock {
	c, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return c
}

// Of returns the time of day of the given time.
func Of(t time.Time) Clock {
	return New(t.Hour(), t.Minute())
}

func (c Clock) Hour() int {
	return int(c) / minutesPerHour
}

func (c Clock) Minute() int {
	return int(c) % minutesPerHour
}

// Add moves the clock forward by the given minutes. The result may pass midnight,
// callers comparing against an end of day stop before that.
func (c Clock) Add(minutes int) Clock {
	return c + Clock(minutes)
}

func (c Clock) Before(other Clock) bool {
	return c < other
}

// Midpoint returns the wall-clock middle of [c, end), floored to the minute.
func (c Clock) Midpoint(end Clock) Clock {
	return c + (end-c)/2
}

// On places the clock on the given date.
func (c Clock) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour(), c.Minute(), 0, 0, date.Location())
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Scan reads postgres TIME values, which arrive as "15:04:05" text or as time.Time.
func (c *Clock) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*c = Of(v)
		return nil
	case []byte:
		return c.scanText(string(v))
	case string:
		return c.scanText(v)
	case nil:
		return fmt.Errorf("cannot scan NULL into timeofday.Clock")
	}
	return fmt.Errorf("cannot scan %T into timeofday.Clock", src)
}

func (c *Clock) scanText(value string) error {
	if len(value) >= 5 {
		if parsed, err := Parse(value[:5]); err == nil && (len(value) == 5 || value[5] == ':') {
			*c = parsed
			return nil
		}
	}
	return ErrInvalidFormat{Value: value}
}

// Value writes the clock as a postgres TIME literal.
func (c Clock) Value() (driver.Value, error) {
	if c < 0 || c >= minutesPerDay {
		return nil, fmt.Errorf("time of day out of range: %d minutes", int(c))
	}
	return c.String() + ":00", nil
}
