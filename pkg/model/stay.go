package model

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for check-in and check-out dates.
const DateLayout = "2006-01-02"

// StayRange is a pair of calendar dates. Both ends are held as UTC midnight so
// comparisons happen at day granularity.
type StayRange struct {
	CheckIn  time.Time `json:"check_in" bson:"check_in"`
	CheckOut time.Time `json:"check_out" bson:"check_out"`
}

func NewStayRange(checkIn, checkOut time.Time) StayRange {
	return StayRange{
		CheckIn:  TruncateToDate(checkIn),
		CheckOut: TruncateToDate(checkOut),
	}
}

// ParseStayRange parses two YYYY-MM-DD dates. It does not check ordering.
func ParseStayRange(checkIn, checkOut string) (StayRange, error) {
	in, err := ParseDate(checkIn)
	if err != nil {
		return StayRange{}, fmt.Errorf("check_in: %w", err)
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return StayRange{}, fmt.Errorf("check_out: %w", err)
	}
	return StayRange{CheckIn: in, CheckOut: out}, nil
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be in YYYY-MM-DD format, got %q", s)
	}
	return t.UTC(), nil
}

func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Valid reports whether check-out falls strictly after check-in.
func (s StayRange) Valid() bool {
	return s.CheckIn.Before(s.CheckOut)
}

func (s StayRange) Nights() int {
	if !s.Valid() {
		return 0
	}
	return int(s.CheckOut.Sub(s.CheckIn).Hours() / 24)
}

func (s StayRange) String() string {
	return fmt.Sprintf("[%s, %s)", s.CheckIn.Format(DateLayout), s.CheckOut.Format(DateLayout))
}
