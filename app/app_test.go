package app

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/examcode/alert"
	"github.com/jmcleod/examcode/auth"
	"github.com/jmcleod/examcode/client"
	"github.com/jmcleod/examcode/internal/apitest"
	"github.com/jmcleod/examcode/nav"
	"github.com/jmcleod/examcode/session"
	"github.com/jmcleod/examcode/storage/memory"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type harness struct {
	srv      *apitest.Server
	sessions *session.Store
	router   *nav.Router
	out      *syncBuffer
	app      *App
}

func newHarness(t *testing.T, in io.Reader) *harness {
	t.Helper()
	srv := apitest.New(t)
	now := time.Now()
	srv.SetCode("ABC", now.Add(5*time.Minute).UnixNano(), now.UnixNano())

	sessions := session.NewStore(memory.NewRepository())
	alerts := alert.New()
	router := nav.NewRouter(nav.RouteLogin)
	c := client.New(srv.BaseURL())
	out := &syncBuffer{}

	a := New(Deps{
		Router:   router,
		Auth:     auth.NewService(c, sessions, alerts, router),
		Alerts:   alerts,
		Fetcher:  c,
		Sessions: sessions,
	}, WithInput(in), WithOutput(out))

	return &harness{srv: srv, sessions: sessions, router: router, out: out, app: a}
}

func (h *harness) run(t *testing.T) <-chan error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	done := make(chan error, 1)
	go func() { done <- h.app.Run(ctx) }()
	return done
}

func (h *harness) waitOutput(t *testing.T, substr string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return strings.Contains(h.out.String(), substr)
	}, 5*time.Second, 10*time.Millisecond, "output never contained %q:\n%s", substr, h.out.String())
}

func waitDone(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not return")
	}
}

func TestLoginShowsCodeAndQuits(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	h := newHarness(t, pr)
	done := h.run(t)

	go pw.Write([]byte("alice\ns3cret\n"))
	h.waitOutput(t, "Code: ABC  expires in 0 hours 4 minutes")
	assert.Equal(t, "abc", h.sessions.GetID())
	assert.Equal(t, nav.RouteCode, h.router.Current())

	go pw.Write([]byte("quit\n"))
	waitDone(t, done)
	assert.Equal(t, "abc", h.sessions.GetID(), "quit keeps the session")
}

func TestBadPasswordPromptsAgain(t *testing.T) {
	h := newHarness(t, strings.NewReader("alice\nwrong\n"))
	done := h.run(t)
	waitDone(t, done)

	out := h.out.String()
	assert.Contains(t, out, "! Bad username or password")
	assert.Equal(t, 2, strings.Count(out, "User: "))
	assert.Empty(t, h.sessions.GetID())
}

func TestResumeThenExpiredSession(t *testing.T) {
	h := newHarness(t, strings.NewReader(""))
	h.sessions.SetID("stale")

	done := h.run(t)
	waitDone(t, done)

	out := h.out.String()
	assert.Contains(t, out, "! Your session expired. Please log in again")
	assert.Contains(t, out, "User: ")
	assert.Empty(t, h.sessions.GetID())
	assert.GreaterOrEqual(t, h.srv.CodeRequests(), 1)
}

func TestHelpReturnsToCode(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	h := newHarness(t, pr)
	h.srv.AddSession("abc")
	h.sessions.SetID("abc")
	done := h.run(t)

	h.waitOutput(t, "Code: ABC")
	go pw.Write([]byte("help\n"))
	h.waitOutput(t, "Commands in the code view")
	require.Eventually(t, func() bool {
		return strings.Count(h.out.String(), "Code: ABC") >= 2 && h.router.Current() == nav.RouteCode
	}, 5*time.Second, 10*time.Millisecond)

	go pw.Write([]byte("logout\n"))
	h.waitOutput(t, "User: ")
	assert.Empty(t, h.sessions.GetID())

	pw.Close()
	waitDone(t, done)
}
