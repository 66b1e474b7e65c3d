package clock

import "fmt"

// State is the phase of the expiry clock.
type State int

const (
	StateLoggedOut State = iota
	StateAwaitingFirstFetch
	StateCounting
	StateRefetching
)

func (s State) String() string {
	switch s {
	case StateLoggedOut:
		return "logged-out"
	case StateAwaitingFirstFetch:
		return "awaiting-first-fetch"
	case StateCounting:
		return "counting"
	case StateRefetching:
		return "refetching"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// CodeState is the clock's view of the current code. All values are Unix
// milliseconds. ClockOffsetMs is the local clock minus the server clock,
// sampled when the code was fetched and held until the next fetch.
type CodeState struct {
	Code              string
	ExpiresAtServerMs int64
	NowMs             int64
	ClockOffsetMs     int64
	LastFetchMs       int64
}

// Remaining is the time left on the code in the server's frame.
func (s CodeState) Remaining() int64 {
	return s.ExpiresAtServerMs - s.NowMs + s.ClockOffsetMs
}

// Snapshot is what a view renders after each tick or fetch outcome.
type Snapshot struct {
	State     State
	Code      string
	Countdown Countdown
	Remaining int64
	// Fetches counts code requests issued since entry.
	Fetches int
}
