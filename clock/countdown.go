package clock

import "fmt"

const (
	msPerSecond = 1000
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
)

// Countdown is the displayed form of a remaining duration in milliseconds.
type Countdown struct {
	Hours        int64
	Minutes      int64
	Seconds      int64
	HourSuffix   string
	MinuteSuffix string
	SecondSuffix string
}

// NewCountdown projects remaining milliseconds onto hours, minutes and
// seconds. Units are floor-divided; minutes and seconds keep the sign of the
// floored value when taken mod 60, so a negative remaining time shows as
// negative units rather than wrapping.
func NewCountdown(remaining int64) Countdown {
	h := floorDiv(remaining, msPerHour)
	m := floorDiv(remaining, msPerMinute) % 60
	s := floorDiv(remaining, msPerSecond) % 60
	return Countdown{
		Hours:        h,
		Minutes:      m,
		Seconds:      s,
		HourSuffix:   suffix(h),
		MinuteSuffix: suffix(m),
		SecondSuffix: suffix(s),
	}
}

// String renders the countdown as "1 hour 4 minutes 0 seconds".
func (c Countdown) String() string {
	return fmt.Sprintf("%d hour%s %d minute%s %d second%s",
		c.Hours, c.HourSuffix, c.Minutes, c.MinuteSuffix, c.Seconds, c.SecondSuffix)
}

// Short renders the countdown as "1h 4m 0s".
func (c Countdown) Short() string {
	return fmt.Sprintf("%dh %dm %ds", c.Hours, c.Minutes, c.Seconds)
}

// suffix is "" only for exactly one unit.
func suffix(v int64) string {
	if v == 1 {
		return ""
	}
	return "s"
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
