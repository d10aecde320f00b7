package clock

import "time"

// Clock abstracts time to keep usecases deterministic in tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed always reports the same instant.
type Fixed time.Time

func (f Fixed) Now() time.Time {
	return time.Time(f)
}

// Elapsed returns whole seconds between from and the clock's now, rounded to
// the nearest second and never negative.
func Elapsed(c Clock, from time.Time) int {
	d := c.Now().Sub(from)
	if d <= 0 {
		return 0
	}
	return int(d.Round(time.Second) / time.Second)
}
