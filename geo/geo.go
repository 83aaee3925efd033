// Package geo looks up address geolocation on ip-api.com.
package geo

import (
	"context"
	"net/netip"
	"strings"

	"github.com/BourgeoisBear/throne/fetch"
	"github.com/biter777/countries"
	"github.com/pkg/errors"
)

const BaseURL = "http://ip-api.com/json/"

// ErrNotAddress rejects prefixes and hostnames; ip-api only geolocates
// single addresses.
var ErrNotAddress = errors.New("not an IP address")

type Result struct {
	Status      string  `json:"status"`
	Message     string  `json:"message,omitempty"`
	Query       string  `json:"query"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Region      string  `json:"region"`
	RegionName  string  `json:"regionName"`
	City        string  `json:"city"`
	Zip         string  `json:"zip"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Timezone    string  `json:"timezone"`
	ISP         string  `json:"isp"`
	Org         string  `json:"org"`
	AS          string  `json:"as"`
}

// CountryName spells out CountryCode, falling back to what ip-api sent.
func (r *Result) CountryName() string {
	if cc := countries.ByName(r.CountryCode); cc != countries.Unknown {
		return cc.String()
	}
	return r.Country
}

// Location renders "City, Region, CC" leaving out empty parts.
func (r *Result) Location() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{r.City, r.Region, r.CountryCode} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

type Client struct {
	Fetch *fetch.Client
	Base  string
}

func New(fc *fetch.Client, base string) *Client {
	if base == "" {
		base = BaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &Client{Fetch: fc, Base: base}
}

func (c *Client) Lookup(ctx context.Context, addr string) (Result, error) {

	var ret Result

	ip, err := netip.ParseAddr(strings.TrimSpace(addr))
	if err != nil {
		return ret, errors.WithMessagef(ErrNotAddress, "%q", addr)
	}

	if err := c.Fetch.GetJSON(ctx, c.Base+ip.String(), nil, &ret); err != nil {
		return ret, err
	}

	if ret.Status != "success" {
		msg := ret.Message
		if msg == "" {
			msg = ret.Status
		}
		return ret, errors.Errorf("ip-api: %s", msg)
	}
	return ret, nil
}
