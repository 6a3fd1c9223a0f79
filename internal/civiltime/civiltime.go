// Package civiltime stamps events with the campus wall clock, a fixed UTC+8
// offset with no daylight-saving rules.
package civiltime

import "time"

const (
	Offset     = 8 * time.Hour
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Clock returns the current instant. Tests substitute a fixed one.
type Clock func() time.Time

// Stamp renders t as civil date and time-of-day strings.
func Stamp(t time.Time) (date, clock string) {
	civil := t.UTC().Add(Offset)
	return civil.Format(DateLayout), civil.Format(TimeLayout)
}

// Now stamps the instant returned by c, falling back to time.Now when c is nil.
func (c Clock) Now() (date, clock string) {
	if c == nil {
		return Stamp(time.Now())
	}
	return Stamp(c())
}
