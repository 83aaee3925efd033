package ripestat

import (
	"context"
	"net/url"
	"strings"

	"github.com/BourgeoisBear/throne/fetch"
)

const BaseURL = "https://stat.ripe.net/data"

// Client queries RIPEstat data calls.
type Client struct {
	Fetch *fetch.Client
	Base  string
}

func New(fc *fetch.Client, base string) *Client {
	if base == "" {
		base = BaseURL
	}
	return &Client{Fetch: fc, Base: strings.TrimSuffix(base, "/")}
}

func (c *Client) dataURL(call, resource string) string {
	return c.Base + "/" + call + "/data.json?resource=" + url.QueryEscape(resource)
}

// Raw returns the unparsed response of a data call.
func (c *Client) Raw(ctx context.Context, call, resource string) ([]byte, error) {
	return c.Fetch.Get(ctx, c.dataURL(call, resource), nil)
}

func (c *Client) PrefixOverview(ctx context.Context, resource string) (Overview, error) {
	bs, err := c.Raw(ctx, "prefix-overview", resource)
	if err != nil {
		return Overview{}, err
	}
	return ParseOverview(bs)
}

func (c *Client) ASOverview(ctx context.Context, asn string) (Overview, error) {
	bs, err := c.Raw(ctx, "as-overview", asn)
	if err != nil {
		return Overview{}, err
	}
	return ParseOverview(bs)
}

func (c *Client) LookingGlass(ctx context.Context, resource string) (LookingGlass, error) {
	bs, err := c.Raw(ctx, "looking-glass", resource)
	if err != nil {
		return LookingGlass{}, err
	}
	return ParseLookingGlass(bs)
}
