// Package auth implements the login flow and forced logout: it turns API
// outcomes into session changes, alerts and navigation.
package auth

import (
	"context"
	"log/slog"

	"github.com/jmcleod/examcode/alert"
	"github.com/jmcleod/examcode/client"
	"github.com/jmcleod/examcode/nav"
)

// User-visible messages.
const (
	MsgBadCredentials = "Bad username or password"
	MsgExpired        = "Your session expired. Please log in again"
	MsgGenericPrefix  = "Something bad happened: "
)

// LoginClient performs the credential exchange.
type LoginClient interface {
	Login(ctx context.Context, creds client.Credentials) (string, error)
}

// SessionStore holds the session id.
type SessionStore interface {
	SetID(id string)
	GetID() string
	DeleteID()
}

// Service runs login and logout against a shared alert channel and router.
type Service struct {
	client   LoginClient
	sessions SessionStore
	alerts   *alert.Channel
	nav      nav.Navigator
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger for failure diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService returns a Service.
func NewService(c LoginClient, sessions SessionStore, alerts *alert.Channel, n nav.Navigator, opts ...Option) *Service {
	s := &Service{
		client:   c,
		sessions: sessions,
		alerts:   alerts,
		nav:      n,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenericMessage returns the alert text for an unexpected failure.
func GenericMessage(err error) string {
	return MsgGenericPrefix + client.Diagnostic(err)
}

// Login submits creds. On success the session id is stored and the router
// moves to the code view. On failure the alert shows what went wrong and the
// client error is returned; the stored session is left untouched.
func (s *Service) Login(ctx context.Context, creds client.Credentials) error {
	s.alerts.Hide()

	id, err := s.client.Login(ctx, creds)
	if err != nil {
		s.logFailure("login", err)
		if client.KindOf(err) == client.KindUnauthorized {
			s.alerts.Show(MsgBadCredentials)
		} else {
			s.alerts.Show(GenericMessage(err))
		}
		return err
	}

	s.sessions.SetID(id)
	s.logger.Info("auth: logged in")
	s.nav.Navigate(nav.RouteCode)
	return nil
}

// Resume moves to the code view when a session id is already stored and
// reports whether it did.
func (s *Service) Resume() bool {
	if s.sessions.GetID() == "" {
		return false
	}
	s.nav.Navigate(nav.RouteCode)
	return true
}

// Logout clears the session and moves to the login view. When expired is
// set the alert tells the user their session expired. Safe to call
// repeatedly.
func (s *Service) Logout(expired bool) {
	if expired {
		s.alerts.Show(MsgExpired)
	}
	s.sessions.DeleteID()
	s.logger.Info("auth: logged out", "expired", expired)
	s.nav.Navigate(nav.RouteLogin)
}

func (s *Service) logFailure(op string, err error) {
	s.logger.Warn("auth: request failed", append([]any{"op", op}, client.LogAttrs(err)...)...)
}
