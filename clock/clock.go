// Package clock keeps the displayed code and its countdown in step with the
// server. It corrects for skew between the local and server clocks, ticks
// once a second, re-fetches the code when it lapses and forces a logout when
// the server rejects the session.
package clock

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmcleod/examcode/alert"
	"github.com/jmcleod/examcode/auth"
	"github.com/jmcleod/examcode/client"
)

const (
	// TickInterval is the countdown refresh period.
	TickInterval = time.Second
	// RefetchGuard is the minimum time between two code requests issued by
	// ticks. It is the only throttle: there is no in-flight flag, so a slow
	// response can overlap a second request.
	RefetchGuard = time.Second
)

// Fetcher retrieves the current code for a session.
type Fetcher interface {
	FetchCode(ctx context.Context, sessionID string) (client.Code, error)
}

// SessionReader provides the stored session id.
type SessionReader interface {
	GetID() string
}

// Logouter performs a forced logout.
type Logouter interface {
	Logout(expired bool)
}

type fetchResult struct {
	code client.Code
	err  error
}

// Clock is the expiry clock for one visit to the code view. All state is
// owned by the goroutine running Run; fetches run on their own goroutines
// and hand their results back to it.
type Clock struct {
	fetcher   Fetcher
	sessions  SessionReader
	logout    Logouter
	alerts    *alert.Channel
	logger    *slog.Logger
	now       func() time.Time
	newTicker TickerFunc
	observe   func(Snapshot)

	results   chan fetchResult
	sessionID string
	state     State
	data      CodeState
	countdown Countdown
	ticker    Ticker
	fetches   int
}

// Option configures a Clock.
type Option func(*Clock)

// WithLogger sets the logger for fetch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Clock) { c.logger = logger }
}

// WithNow replaces the local time source.
func WithNow(now func() time.Time) Option {
	return func(c *Clock) { c.now = now }
}

// WithTicker replaces the recurring timer factory.
func WithTicker(fn TickerFunc) Option {
	return func(c *Clock) { c.newTicker = fn }
}

// WithObserver registers fn to receive a Snapshot after every tick and every
// fetch outcome. fn runs on the clock goroutine and must not block.
func WithObserver(fn func(Snapshot)) Option {
	return func(c *Clock) { c.observe = fn }
}

// New returns a Clock. The alert channel receives fetch failures; logout is
// invoked when there is no session or the server rejects it.
func New(fetcher Fetcher, sessions SessionReader, logout Logouter, alerts *alert.Channel, opts ...Option) *Clock {
	c := &Clock{
		fetcher:   fetcher,
		sessions:  sessions,
		logout:    logout,
		alerts:    alerts,
		logger:    slog.Default(),
		now:       time.Now,
		newTicker: NewTicker,
		results:   make(chan fetchResult, 4),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run enters the code view and processes ticks and fetch results until the
// session is logged out or ctx is cancelled. The ticker is always stopped
// before Run returns.
func (c *Clock) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.teardown()

	c.enter(ctx)
	for c.state != StateLoggedOut {
		// A nil channel blocks, so ticks are ignored until armed.
		var tick <-chan time.Time
		if c.ticker != nil {
			tick = c.ticker.C()
		}

		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			c.tick(ctx)
		case r := <-c.results:
			c.handleFetch(ctx, r)
		}
	}
	return nil
}

func (c *Clock) nowMs() int64 {
	return c.now().UnixMilli()
}

func (c *Clock) enter(ctx context.Context) {
	c.alerts.Hide()

	nowMs := c.nowMs()
	c.data = CodeState{NowMs: nowMs, LastFetchMs: nowMs}
	c.countdown = Countdown{}
	c.fetches = 0

	c.sessionID = c.sessions.GetID()
	if c.sessionID == "" {
		c.state = StateLoggedOut
		c.logout.Logout(false)
		return
	}

	c.state = StateAwaitingFirstFetch
	c.fetch(ctx)
}

// fetch issues a code request without waiting for it. The guard timestamp is
// taken at issue time so ticks during a slow request do not pile up more.
func (c *Clock) fetch(ctx context.Context) {
	if c.sessionID == "" {
		return
	}
	c.data.LastFetchMs = c.nowMs()
	c.fetches++

	id := c.sessionID
	go func() {
		code, err := c.fetcher.FetchCode(ctx, id)
		select {
		case c.results <- fetchResult{code: code, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (c *Clock) handleFetch(ctx context.Context, r fetchResult) {
	if c.state == StateLoggedOut {
		return
	}

	if r.err != nil {
		if client.KindOf(r.err) == client.KindUnauthorized {
			c.logger.Info("clock: session rejected by server")
			c.state = StateLoggedOut
			c.teardown()
			c.logout.Logout(true)
			c.publish()
			return
		}

		c.logger.Warn("clock: code fetch failed", client.LogAttrs(r.err)...)
		c.alerts.Show(auth.GenericMessage(r.err))
		if c.state == StateAwaitingFirstFetch {
			// Keep retrying the first fetch on the tick cadence.
			c.arm()
		}
		c.publish()
		return
	}

	nowMs := c.nowMs()
	c.data.Code = r.code.Code
	c.data.ExpiresAtServerMs = r.code.ExpiresAtMs
	c.data.ClockOffsetMs = nowMs - r.code.ServerTimeMs
	c.data.LastFetchMs = nowMs
	c.state = StateCounting

	c.logger.Debug("clock: code refreshed",
		"expires_at_ms", c.data.ExpiresAtServerMs,
		"offset_ms", c.data.ClockOffsetMs)

	// Render immediately rather than waiting up to a second for the timer.
	c.tick(ctx)
	c.arm()
}

func (c *Clock) tick(ctx context.Context) {
	nowMs := c.nowMs()
	c.data.NowMs = nowMs
	sinceFetch := nowMs - c.data.LastFetchMs

	switch c.state {
	case StateAwaitingFirstFetch:
		if sinceFetch >= RefetchGuard.Milliseconds() {
			c.fetch(ctx)
		}
	case StateCounting, StateRefetching:
		remaining := c.data.Remaining()
		c.countdown = NewCountdown(remaining)
		if remaining <= 0 && sinceFetch >= RefetchGuard.Milliseconds() {
			c.state = StateRefetching
			c.fetch(ctx)
		}
	default:
		return
	}
	c.publish()
}

// arm starts the recurring timer unless it is already running.
func (c *Clock) arm() {
	if c.ticker != nil {
		return
	}
	c.ticker = c.newTicker(TickInterval)
}

func (c *Clock) teardown() {
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
}

func (c *Clock) snapshot() Snapshot {
	return Snapshot{
		State:     c.state,
		Code:      c.data.Code,
		Countdown: c.countdown,
		Remaining: c.data.Remaining(),
		Fetches:   c.fetches,
	}
}

func (c *Clock) publish() {
	if c.observe != nil {
		c.observe(c.snapshot())
	}
}
