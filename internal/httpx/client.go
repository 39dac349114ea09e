package httpx

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"codeberg.org/snonux/worldly/internal/errs"
)

// DefaultTimeout bounds every provider request.
const DefaultTimeout = 30 * time.Second

// NewClient returns the client shared by all providers of a run.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// Do sends req and returns the response when the status is 2xx. Any other
// outcome is an errs.ErrTransport carrying a snippet of the body.
func Do(client *http.Client, req *http.Request, op string) (*http.Response, error) {
	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errs.New(errs.ErrTransport, op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, errs.New(errs.ErrTransport, op,
			&StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))})
	}
	return resp, nil
}

// StatusError is the cause attached to a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// Unauthorized reports whether the provider rejected the credentials.
func (e *StatusError) Unauthorized() bool {
	return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
}
