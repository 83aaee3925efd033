package rdap

import (
	"context"
	"net/netip"
	"strconv"
	"strings"

	"github.com/BourgeoisBear/throne/fetch"
)

type RIRKey int

const (
	RkRipe RIRKey = iota
	RkLacnic
	RkAfrinic
	RkApnic
	RkArin
	RkUnknown
)

func (k RIRKey) String() string {
	switch k {
	case RkRipe:
		return "RIPE"
	case RkLacnic:
		return "LACNIC"
	case RkAfrinic:
		return "AFRINIC"
	case RkApnic:
		return "APNIC"
	case RkArin:
		return "ARIN"
	}
	return "UNKNOWN"
}

func RegistryNameToKey(regName string) RIRKey {

	switch regName {

	case "LACNIC":
		return RkLacnic
	case "ARIN":
		return RkArin
	case "APNIC":
		return RkApnic
	case "RIPE", "RIPENCC":
		return RkRipe
	case "AFRINIC":
		return RkAfrinic
	default:
		return RkUnknown
	}
}

// DetectRegistry derives the responding registry from an RDAP port43 value
// such as "whois.ripe.net". The second return value is the bare upper-cased
// label, kept for display when the key is RkUnknown.
func DetectRegistry(port43 string) (RIRKey, string) {

	name := strings.ToLower(strings.TrimSpace(port43))
	name = strings.TrimPrefix(name, "whois")
	name = strings.TrimSuffix(name, "net")
	name = strings.Trim(name, ".")
	name = strings.ToUpper(name)

	return RegistryNameToKey(name), name
}

const BootstrapURL = "https://rdap-bootstrap.arin.net/bootstrap"

// Querier fetches raw RDAP documents through a bootstrap service.
type Querier struct {
	Fetch *fetch.Client
	Base  string
}

func NewQuerier(fc *fetch.Client, base string) *Querier {
	if base == "" {
		base = BootstrapURL
	}
	return &Querier{Fetch: fc, Base: strings.TrimSuffix(base, "/")}
}

func (q *Querier) QueryByIP(ctx context.Context, ip string) ([]byte, error) {
	return q.Fetch.Get(ctx, q.Base+"/ip/"+ip, nil)
}

func (q *Querier) QueryByASN(ctx context.Context, asn uint32) ([]byte, error) {
	return q.Fetch.Get(ctx, q.Base+"/autnum/"+strconv.FormatUint(uint64(asn), 10), nil)
}

// IsAddrOrPrefix reports whether s is usable as an RDAP ip query.
func IsAddrOrPrefix(s string) bool {
	if _, err := netip.ParseAddr(s); err == nil {
		return true
	}
	_, err := netip.ParsePrefix(s)
	return err == nil
}
