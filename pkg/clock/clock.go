package clock

import "time"

// Clock supplies the current instant. Booking validation depends on "now",
// so services take a Clock instead of calling time.Now directly.
type Clock interface {
	Now() time.Time
}

// Func adapts a plain function to the Clock interface.
type Func func() time.Time

func (f Func) Now() time.Time {
	return f()
}

// System returns a Clock backed by time.Now.
func System() Clock {
	return Func(time.Now)
}

// Fixed returns a Clock that always reports the same instant.
func Fixed(t time.Time) Clock {
	return Func(func() time.Time { return t })
}
