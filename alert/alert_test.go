package alert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannel(t *testing.T) {
	c := New()
	assert.Equal(t, Alert{Hidden: true}, c.Current())

	c.Show("first")
	assert.Equal(t, Alert{Hidden: false, Message: "first"}, c.Current())

	c.Show("second")
	assert.Equal(t, "second", c.Current().Message, "last writer wins")

	c.Hide()
	assert.Equal(t, Alert{Hidden: true, Message: "second"}, c.Current())
}

func TestChannelSubscribe(t *testing.T) {
	c := New()

	var seen []Alert
	cancel := c.Subscribe(func(a Alert) {
		// Reading from inside a subscriber must not deadlock.
		assert.Equal(t, a, c.Current())
		seen = append(seen, a)
	})

	c.Show("boom")
	c.Hide()
	cancel()
	c.Show("after cancel")

	require.Len(t, seen, 2)
	assert.Equal(t, Alert{Message: "boom"}, seen[0])
	assert.Equal(t, Alert{Hidden: true, Message: "boom"}, seen[1])
}
