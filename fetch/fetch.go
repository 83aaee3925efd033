package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/pkg/errors"
)

const UserAgent = "throne/0.2 (+https://github.com/BourgeoisBear/throne)"

// TransportError is returned for any request that did not end in HTTP 200,
// including requests that never got a response.
type TransportError struct {
	URL        string
	StatusCode int
	Status     string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("GET %s: %s", e.URL, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Status, e.URL)
}

func (e *TransportError) Unwrap() error { return e.Err }

type Client struct {
	HTTP *http.Client
	Log  *slog.Logger
}

func New(hc *http.Client, log *slog.Logger) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{HTTP: hc, Log: log.With("name", "fetch")}
}

// Get issues a GET request and returns the body of a 200 response.
// Header values in hdr are added to the request as-is.
func (c *Client) Get(ctx context.Context, url string, hdr map[string]string) ([]byte, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json, application/rdap+json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}

	// request
	rsp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	defer rsp.Body.Close()

	// error on non-200
	if rsp.StatusCode != http.StatusOK {
		c.Log.Debug("non-200 response", "url", url, "status", rsp.StatusCode)
		return nil, &TransportError{URL: url, StatusCode: rsp.StatusCode, Status: rsp.Status}
	}

	bs, err := io.ReadAll(rsp.Body)
	if err != nil {
		return nil, &TransportError{URL: url, StatusCode: rsp.StatusCode, Status: rsp.Status, Err: err}
	}

	c.Log.Debug("received response", "url", url, "bytes", len(bs))
	return bs, nil
}

// GetJSON fetches url and decodes the 200 response body into out.
func (c *Client) GetJSON(ctx context.Context, url string, hdr map[string]string, out interface{}) error {

	bs, err := c.Get(ctx, url, hdr)
	if err != nil {
		return err
	}

	if err = json.Unmarshal(bs, out); err != nil {
		return errors.WithMessagef(err, "decode %s", url)
	}
	return nil
}
