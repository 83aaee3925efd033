// Package aggapi is a client for the throne WHOIS aggregation API.
package aggapi

import (
	"context"
	"net/url"
	"strings"

	"github.com/BourgeoisBear/throne/fetch"
	"github.com/BourgeoisBear/throne/rdap"
	"github.com/pkg/errors"
)

const BaseURL = "https://api.throne.dev/"

// ErrNoAPIKey is returned by every lookup when the client has no key.
var ErrNoAPIKey = errors.New("throne API key required")

type Client struct {
	Fetch *fetch.Client
	Key   string
	Base  string
}

func New(key, base string, fc *fetch.Client) *Client {
	if base == "" {
		base = BaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &Client{Fetch: fc, Key: strings.TrimSpace(key), Base: base}
}

func (c *Client) get(ctx context.Context, kind, query string, out interface{}) error {
	if c.Key == "" {
		return ErrNoAPIKey
	}
	u := c.Base + "whois/" + kind + "?query=" + url.QueryEscape(query)
	return c.Fetch.GetJSON(ctx, u, map[string]string{"Authorization": c.Key}, out)
}

// Entity is a contact as the aggregation API flattens it.
type Entity struct {
	Name    string   `json:"name"`
	Roles   []string `json:"roles"`
	Address *string  `json:"address"`
	Phone   *string  `json:"phone"`
	Email   *string  `json:"email"`
}

type ASNResult struct {
	RIR      string   `json:"rir"`
	Handle   string   `json:"handle"`
	Entities []Entity `json:"entities"`
}

func (c *Client) LookupASN(ctx context.Context, asn string) (ASNResult, error) {
	var ret ASNResult
	err := c.get(ctx, "asn", strings.TrimPrefix(strings.ToUpper(asn), "AS"), &ret)
	return ret, err
}

func labeled(s *string) []rdap.Labeled {
	if s == nil || *s == "" {
		return nil
	}
	return []rdap.Labeled{{Value: *s}}
}

// Contacts converts the entities so they render like RDAP contacts.
func (r *ASNResult) Contacts() []rdap.Contact {

	if len(r.Entities) == 0 {
		return nil
	}

	ret := make([]rdap.Contact, 0, len(r.Entities))
	for _, e := range r.Entities {
		c := rdap.Contact{
			Addresses: labeled(e.Address),
			Phones:    labeled(e.Phone),
			Emails:    labeled(e.Email),
		}
		if e.Name != "" {
			name := e.Name
			c.Name = &name
		}
		for _, role := range e.Roles {
			c.Roles = append(c.Roles, strings.ToLower(role))
		}
		ret = append(ret, c)
	}
	return ret
}
