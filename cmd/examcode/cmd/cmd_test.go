package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/examcode/auth"
	"github.com/jmcleod/examcode/internal/apitest"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

type cli struct {
	t       *testing.T
	srv     *apitest.Server
	store   string
	session string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	srv := apitest.New(t)
	now := time.Now()
	srv.SetCode("ABC", now.Add(5*time.Minute).UnixNano(), now.UnixNano())
	return &cli{t: t, srv: srv, store: "file", session: filepath.Join(t.TempDir(), "session.db")}
}

// run executes the root command with the global flags pointing at the fake
// server. Flag values persist between executions, so every call sets the
// flags it relies on.
func (c *cli) run(stdin string, args ...string) (string, error) {
	c.t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetArgs(append(args,
		"--server", c.srv.URL,
		"--session-store", c.store,
		"--session-file", c.session,
		"--log-level", "error",
	))
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}

func (c *cli) login() {
	c.t.Helper()
	out, err := c.run("s3cret\n", "login", "--user", "alice", "--password-stdin")
	require.NoError(c.t, err)
	require.Contains(c.t, out, "Logged in.")
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestLoginCodeCheckLogout(t *testing.T) {
	c := newCLI(t)
	c.login()

	out, err := c.run("", "code", "--once")
	require.NoError(t, err)
	assert.Contains(t, out, "Code: ABC  expires in 0 hours 4 minutes")
	assert.Equal(t, "abc", c.srv.LastCodeHeader().Get("X-Session-Key"))

	out, err = c.run("", "check", "ABC")
	require.NoError(t, err)
	assert.Contains(t, out, `Code "ABC" is current.`)

	_, err = c.run("", "check", "XYZ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not current")

	out, err = c.run("", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out.")

	_, err = c.run("", "code", "--once")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestLoginPromptsForUser(t *testing.T) {
	c := newCLI(t)
	out, err := c.run("alice\ns3cret\n", "login", "--user", "", "--password-stdin=false")
	require.NoError(t, err)
	assert.Contains(t, out, "User: ")
	assert.Contains(t, out, "Password: ")
	assert.Equal(t, "alice", c.srv.LastAuthBody()["User"])
}

func TestLoginBadPassword(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("nope\n", "login", "--user", "alice", "--password-stdin")
	require.Error(t, err)
	assert.Equal(t, auth.MsgBadCredentials, err.Error())

	_, err = c.run("", "code", "--once")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestCodeOnceRevokedSession(t *testing.T) {
	c := newCLI(t)
	c.login()
	c.srv.Revoke("abc")

	_, err := c.run("", "code", "--once")
	require.Error(t, err)
	assert.Equal(t, auth.MsgExpired, err.Error())

	_, err = c.run("", "code", "--once")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestCodeWatchEndsOnRevokedSession(t *testing.T) {
	c := newCLI(t)
	c.login()
	c.srv.Revoke("abc")

	_, err := c.run("", "code", "--once=false")
	require.Error(t, err)
	assert.Equal(t, auth.MsgExpired, err.Error())
}

func TestCodeOnceServerError(t *testing.T) {
	c := newCLI(t)
	c.login()
	c.srv.FailCode(500, `{"Code":500,"Error":"database unavailable"}`)

	_, err := c.run("", "code", "--once")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), auth.MsgGenericPrefix), err.Error())
}

func TestInvalidConfiguration(t *testing.T) {
	c := newCLI(t)
	c.store = "cookie"
	_, err := c.run("", "logout")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestVersion(t *testing.T) {
	c := newCLI(t)
	out, err := c.run("", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version "+Version)
}
