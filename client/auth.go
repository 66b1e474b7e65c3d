package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/awnumar/memguard"
	"golang.org/x/text/unicode/norm"
)

// Credentials are the login credentials. The password stays sealed in a
// memguard enclave until the request body is built.
type Credentials struct {
	User     string
	Password *memguard.Enclave
}

// NewCredentials seals password and returns Credentials. The password slice
// is wiped.
func NewCredentials(user string, password []byte) Credentials {
	return Credentials{User: user, Password: memguard.NewEnclave(password)}
}

// NormalizeUser trims surrounding space and applies NFKC so that visually
// identical user names are sent identically.
func NormalizeUser(user string) string {
	return norm.NFKC.String(strings.TrimSpace(user))
}

type authRequest struct {
	User   string
	Passwd string
}

type authResponse struct {
	SessionID string
}

func (c Credentials) marshal() ([]byte, error) {
	var password string
	if c.Password != nil {
		buf, err := c.Password.Open()
		if err != nil {
			return nil, fmt.Errorf("opening password: %w", err)
		}
		defer buf.Destroy()
		password = string(buf.Bytes())
	}
	return json.Marshal(authRequest{User: NormalizeUser(c.User), Passwd: password})
}

// Login exchanges credentials for a session id.
//
// A 401 returns an error wrapping ErrUnauthorized. A 200 without a SessionID
// returns an error wrapping ErrMalformedResponse. Any other status returns a
// *ResponseError, and network failures a *TransportError.
func (c *Client) Login(ctx context.Context, creds Credentials) (string, error) {
	const op = "login"

	body, err := creds.marshal()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.do(ctx, op, http.MethodPost, "/auth", nil, body)
	if err != nil {
		return "", err
	}
	if resp.status != http.StatusOK {
		return "", statusError(op, resp.status, resp.body)
	}

	var ar authResponse
	if err := json.Unmarshal(resp.body, &ar); err != nil || ar.SessionID == "" {
		return "", malformed(op, resp.status, resp.body)
	}
	return ar.SessionID, nil
}
