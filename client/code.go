package client

import (
	"context"
	"encoding/json"
	"net/http"
)

// Code is the current rotating code with server timestamps in Unix
// milliseconds.
type Code struct {
	Code         string
	ExpiresAtMs  int64
	ServerTimeMs int64
}

// codeResponse is the wire form; timestamps are Unix nanoseconds.
type codeResponse struct {
	Code       string
	Expires    *int64
	ServerTime *int64
}

// NanosToMillis converts nanoseconds to milliseconds, rounding half away
// from zero.
func NanosToMillis(ns int64) int64 {
	const half = 500_000
	ms, rem := ns/1_000_000, ns%1_000_000
	switch {
	case rem >= half:
		ms++
	case rem <= -half:
		ms--
	}
	return ms
}

// FetchCode returns the current code for the session.
//
// An empty sessionID returns ErrNoSession without sending a request. A 401
// returns an error wrapping ErrUnauthorized; a 200 with a missing or zero
// Code, Expires or ServerTime returns an error wrapping ErrMalformedResponse.
func (c *Client) FetchCode(ctx context.Context, sessionID string) (Code, error) {
	const op = "fetch code"

	if sessionID == "" {
		return Code{}, ErrNoSession
	}

	header := http.Header{}
	header.Set(HeaderSessionKey, sessionID)
	resp, err := c.do(ctx, op, http.MethodGet, "/code", header, nil)
	if err != nil {
		return Code{}, err
	}
	if resp.status != http.StatusOK {
		return Code{}, statusError(op, resp.status, resp.body)
	}

	var cr codeResponse
	if err := json.Unmarshal(resp.body, &cr); err != nil {
		return Code{}, malformed(op, resp.status, resp.body)
	}
	if cr.Code == "" || cr.Expires == nil || *cr.Expires == 0 || cr.ServerTime == nil || *cr.ServerTime == 0 {
		return Code{}, malformed(op, resp.status, resp.body)
	}

	return Code{
		Code:         cr.Code,
		ExpiresAtMs:  NanosToMillis(*cr.Expires),
		ServerTimeMs: NanosToMillis(*cr.ServerTime),
	}, nil
}
