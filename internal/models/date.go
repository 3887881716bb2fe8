// Sleepsight - Wearable Biometric Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sleepsight

package models

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar-day layout used by the upstream API and stores.
const DateLayout = "2006-01-02"

// Date is a calendar day with no time-of-day or zone. The zero value means
// "no date" and renders as an empty string.
type Date struct {
	t time.Time // midnight UTC
}

// NewDate returns the given calendar day. Out-of-range values normalize the
// same way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{t: t}, nil
}

// MustParseDate is ParseDate for literals known to be valid. It panics otherwise.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// IsZero reports whether d is the "no date" value.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// String returns the ISO form, or "" for the zero Date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return d.t
}

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.t.Before(other.t)
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool {
	return d.t.After(other.t)
}

// Equal reports whether d and other are the same calendar day.
func (d Date) Equal(other Date) bool {
	return d.t.Equal(other.t)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input yields the zero Date.
func (d *Date) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysBetween returns the number of calendar days in the half-open range
// [begin, end). It is negative when end is before begin.
func DaysBetween(begin, end Date) int {
	return int(end.t.Sub(begin.t).Hours() / 24)
}

// DaysInRange enumerates every day in [begin, end) in ascending order.
// It returns nil when end is not after begin.
func DaysInRange(begin, end Date) []Date {
	n := DaysBetween(begin, end)
	if n <= 0 {
		return nil
	}
	days := make([]Date, 0, n)
	for d := begin; d.Before(end); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}
