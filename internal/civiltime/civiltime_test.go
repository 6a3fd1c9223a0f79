package civiltime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStampCrossesMidnight(t *testing.T) {
	date, clock := Stamp(time.Date(2024, 3, 10, 17, 30, 5, 0, time.UTC))
	assert.Equal(t, "2024-03-11", date)
	assert.Equal(t, "01:30:05", clock)
}

func TestStampIgnoresInputZone(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	date, clock := Stamp(time.Date(2024, 1, 1, 0, 0, 0, 0, loc))
	assert.Equal(t, "2024-01-01", date)
	assert.Equal(t, "13:00:00", clock)
}

func TestClockNow(t *testing.T) {
	fixed := Clock(func() time.Time { return time.Date(2023, 12, 31, 16, 0, 0, 0, time.UTC) })
	date, clock := fixed.Now()
	assert.Equal(t, "2024-01-01", date)
	assert.Equal(t, "00:00:00", clock)
}
