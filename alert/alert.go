// Package alert provides the single user-visible error slot shared by the
// login and code views.
package alert

import "sync"

// Alert is the current banner state.
type Alert struct {
	Hidden  bool
	Message string
}

// Func is called with the new value after every change.
type Func func(Alert)

// Channel is an observable slot holding at most one message. The last writer
// wins; nothing is queued. A Channel is passed to every component that
// reports user-visible errors.
type Channel struct {
	mu     sync.Mutex
	cur    Alert
	nextID int
	subs   map[int]Func
}

// New returns a hidden, empty Channel.
func New() *Channel {
	return &Channel{
		cur:  Alert{Hidden: true},
		subs: make(map[int]Func),
	}
}

// Show replaces the message and makes it visible.
func (c *Channel) Show(message string) {
	c.set(Alert{Hidden: false, Message: message})
}

// Hide hides the banner. The message is kept.
func (c *Channel) Hide() {
	c.mu.Lock()
	a := Alert{Hidden: true, Message: c.cur.Message}
	c.mu.Unlock()
	c.set(a)
}

// Current returns the current value.
func (c *Channel) Current() Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

// Subscribe registers fn and returns a function that removes it.
func (c *Channel) Subscribe(fn Func) (cancel func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Channel) set(a Alert) {
	c.mu.Lock()
	c.cur = a
	subs := make([]Func, 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	// Subscribers run outside the lock so they may read the channel.
	for _, fn := range subs {
		fn(a)
	}
}
