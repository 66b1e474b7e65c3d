package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type checkRequest struct {
	Code string
}

type checkResponse struct {
	Status bool
}

// CheckCode asks the server whether code is the current code. A rejected
// code is reported as false with a nil error.
func (c *Client) CheckCode(ctx context.Context, code string) (bool, error) {
	const op = "check code"

	body, err := json.Marshal(checkRequest{Code: code})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.do(ctx, op, http.MethodPost, "/check", nil, body)
	if err != nil {
		return false, err
	}

	switch resp.status {
	case http.StatusOK:
		var cr checkResponse
		if err := json.Unmarshal(resp.body, &cr); err != nil {
			return false, malformed(op, resp.status, resp.body)
		}
		return cr.Status, nil
	case http.StatusUnauthorized:
		return false, nil
	default:
		return false, statusError(op, resp.status, resp.body)
	}
}
