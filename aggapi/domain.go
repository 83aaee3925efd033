package aggapi

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/idna"
)

type DSData struct {
	KeyTag     json.Number `json:"keyTag"`
	Algorithm  json.Number `json:"algorithm"`
	Digest     string      `json:"digest"`
	DigestType json.Number `json:"digestType"`
}

type DNSSEC struct {
	Signed bool     `json:"signed"`
	DSData []DSData `json:"dsData"`
}

// WhoisContact fields are nil when the registry withheld them.
type WhoisContact struct {
	Name    *string `json:"name"`
	Org     *string `json:"org"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
}

type Registrar struct {
	Name        string                    `json:"name"`
	ContactInfo map[string][]WhoisContact `json:"contact_info"`
}

type DomainWhois struct {
	Nameservers []string                  `json:"nameservers"`
	DNSSEC      []DNSSEC                  `json:"dnssec"`
	ContactInfo map[string][]WhoisContact `json:"contact_info"`
}

type Domain struct {
	Domain    string      `json:"domain"`
	Status    []string    `json:"status"`
	Registrar Registrar   `json:"registrar"`
	Whois     DomainWhois `json:"whois"`
}

// NormalizeDomain converts an internationalized name to its lower-case
// ASCII form.
func NormalizeDomain(name string) (string, error) {
	name = strings.TrimSuffix(strings.TrimSpace(name), ".")
	if name == "" {
		return "", errors.New("empty domain name")
	}
	ascii, err := idna.Lookup.ToASCII(name)
	if err != nil {
		return "", errors.WithMessagef(err, "domain %q", name)
	}
	return strings.ToLower(ascii), nil
}

func (c *Client) LookupDomain(ctx context.Context, name string) (Domain, error) {

	var ret Domain

	d, err := NormalizeDomain(name)
	if err != nil {
		return ret, err
	}

	if err := c.get(ctx, "domain", d, &ret); err != nil {
		return ret, err
	}

	for _, m := range []map[string][]WhoisContact{ret.Registrar.ContactInfo, ret.Whois.ContactInfo} {
		for _, sC := range m {
			for ix := range sC {
				sC[ix].clean()
			}
		}
	}
	return ret, nil
}

// the API writes withheld values as the string "null"
func clean(p **string) {
	if *p == nil {
		return
	}
	v := strings.TrimSpace(**p)
	if v == "" || strings.EqualFold(v, "null") {
		*p = nil
	}
}

func (w *WhoisContact) clean() {
	clean(&w.Name)
	clean(&w.Org)
	clean(&w.Address)
	clean(&w.Phone)
	clean(&w.Email)
}

var roleRank = map[string]int{"registrant": 0, "admin": 1, "tech": 2}

// ContactRoles orders the contact_info keys: registrant, admin, tech, then
// the rest alphabetically.
func ContactRoles(m map[string][]WhoisContact) []string {

	ret := make([]string, 0, len(m))
	for k := range m {
		ret = append(ret, k)
	}

	rank := func(s string) int {
		if r, ok := roleRank[strings.ToLower(s)]; ok {
			return r
		}
		return len(roleRank)
	}

	sort.Slice(ret, func(i, j int) bool {
		ri, rj := rank(ret[i]), rank(ret[j])
		if ri != rj {
			return ri < rj
		}
		return ret[i] < ret[j]
	})
	return ret
}
