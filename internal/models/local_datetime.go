package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Layouts used for naive (zone-less) timestamps and calendar dates.
const (
	LocalDateTimeLayout = "2006-01-02T15:04:05"
	LocalDateLayout     = "2006-01-02"
	LocalTimeLayout     = "15:04:05"
)

// acceptedLayouts are tried in order when decoding a LocalDateTime from JSON.
var acceptedLayouts = []string{
	LocalDateTimeLayout,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// LocalDateTime is a wall-clock timestamp without a zone offset, stored with
// second precision. The embedded time is always in UTC so that values built
// from the database and from requests compare equal.
type LocalDateTime struct {
	time.Time
}

// NewLocalDateTime keeps the wall clock of t and drops its location and
// sub-second part.
func NewLocalDateTime(t time.Time) LocalDateTime {
	return LocalDateTime{Time: time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)}
}

// ParseLocalDateTime parses one of the accepted naive layouts.
func ParseLocalDateTime(s string) (LocalDateTime, error) {
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewLocalDateTime(t), nil
		}
	}
	return LocalDateTime{}, fmt.Errorf("invalid datetime %q, expected format YYYY-MM-DDTHH:MM:SS", s)
}

// Date returns the calendar date (midnight UTC) of the timestamp.
func (l LocalDateTime) Date() time.Time {
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, time.UTC)
}

// DateString returns the calendar date as YYYY-MM-DD.
func (l LocalDateTime) DateString() string {
	return l.Format(LocalDateLayout)
}

// TimeString returns the time of day as HH:MM:SS.
func (l LocalDateTime) TimeString() string {
	return l.Format(LocalTimeLayout)
}

func (l LocalDateTime) String() string {
	return l.Format(LocalDateTimeLayout)
}

// MarshalJSON encodes the timestamp without a zone offset.
func (l LocalDateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Format(LocalDateTimeLayout))
}

// UnmarshalJSON accepts the naive layouts; null leaves the value untouched.
func (l *LocalDateTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("datetime must be a string: %w", err)
	}
	parsed, err := ParseLocalDateTime(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
