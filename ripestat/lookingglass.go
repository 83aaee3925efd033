package ripestat

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Location is one of the fixed route-collector regions reported on.
type Location int

const (
	LocUSNY Location = iota
	LocUSFL
	LocUSCA
	LocUK
	LocNL
	LocSG
	LocDE
	LocZA
	LocJP
	LocMAX
)

var locInfo = [LocMAX]struct {
	code, match string
}{
	LocUSNY: {"US-NY", "New York"},
	LocUSFL: {"US-FL", "Florida"},
	LocUSCA: {"US-CA", "California"},
	LocUK:   {"UK", "United Kingdom"},
	LocNL:   {"NL", "Netherlands"},
	LocSG:   {"SG", "Singapore"},
	LocDE:   {"DE", "Germany"},
	LocZA:   {"ZA", "South Africa"},
	LocJP:   {"JP", "Japan"},
}

func (l Location) String() string {
	if l < 0 || l >= LocMAX {
		return "?"
	}
	return locInfo[l].code
}

// LocationFromCode maps "US-NY", "de", ... to a Location.
func LocationFromCode(code string) (Location, bool) {
	for l := Location(0); l < LocMAX; l++ {
		if strings.EqualFold(locInfo[l].code, code) {
			return l, true
		}
	}
	return LocMAX, false
}

// Classify returns the first location whose term occurs in the free-text
// collector location.
func Classify(text string) (Location, bool) {
	for l := Location(0); l < LocMAX; l++ {
		if strings.Contains(text, locInfo[l].match) {
			return l, true
		}
	}
	return LocMAX, false
}

type LGEntry struct {
	Found       bool     `json:"found"`
	Location    string   `json:"location,omitempty"`
	Collector   string   `json:"rrc,omitempty"`
	Peer        string   `json:"peer,omitempty"`
	Prefix      string   `json:"prefix,omitempty"`
	Origin      string   `json:"origin,omitempty"`
	OriginAS    string   `json:"origin_as,omitempty"`
	NextHop     string   `json:"next_hop,omitempty"`
	ASPath      []int    `json:"as_path,omitempty"`
	Communities []string `json:"communities,omitempty"`
	LastUpdated string   `json:"last_updated,omitempty"`
	LatestPoll  string   `json:"latest_poll,omitempty"`
}

type LookingGlass struct {
	Status     string          `json:"status"`
	Time       string          `json:"time"`
	Cached     bool            `json:"cached"`
	QueryTime  string          `json:"query_time"`
	LatestPoll string          `json:"latest_poll"`
	Entries    [LocMAX]LGEntry `json:"-"`
}

// ByCode returns the entries keyed by location code; every location is
// present.
func (lg *LookingGlass) ByCode() map[string]LGEntry {
	ret := make(map[string]LGEntry, LocMAX)
	for l := Location(0); l < LocMAX; l++ {
		ret[l.String()] = lg.Entries[l]
	}
	return ret
}

type lgPeer struct {
	ASNOrigin   json.RawMessage `json:"asn_origin"`
	ASPath      json.RawMessage `json:"as_path"`
	Community   json.RawMessage `json:"community"`
	LastUpdated string          `json:"last_updated"`
	Prefix      string          `json:"prefix"`
	Peer        string          `json:"peer"`
	Origin      string          `json:"origin"`
	NextHop     string          `json:"next_hop"`
	LatestTime  string          `json:"latest_time"`
}

type lgRRC struct {
	RRC      string   `json:"rrc"`
	Location string   `json:"location"`
	Peers    []lgPeer `json:"peers"`
}

// words splits a space-separated string or decodes a JSON array of scalars.
func words(raw json.RawMessage) []string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.Fields(s)
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return nil
	}
	ret := make([]string, 0, len(arr))
	for _, a := range arr {
		if v := scalar(a); v != "" {
			ret = append(ret, v)
		}
	}
	return ret
}

// asPath parses an AS path. AS_SET members ("{1,2}") are not ASNs and are
// left out.
func asPath(raw json.RawMessage) []int {
	var ret []int
	for _, w := range words(raw) {
		if n, err := strconv.Atoi(w); err == nil {
			ret = append(ret, n)
		}
	}
	return ret
}

// ParseLookingGlass maps a looking-glass response onto the fixed locations.
// Only the first peer of a collector is used, and the first collector seen
// for a location is kept.
func ParseLookingGlass(raw []byte) (LookingGlass, error) {

	env, err := unwrap(raw)
	if err != nil {
		return LookingGlass{}, err
	}

	var d struct {
		RRCs       []lgRRC `json:"rrcs"`
		QueryTime  string  `json:"query_time"`
		LatestTime string  `json:"latest_time"`
	}
	if err := json.Unmarshal(env.Data, &d); err != nil {
		return LookingGlass{}, errors.WithMessage(err, "ripestat looking-glass")
	}

	lg := LookingGlass{
		Status:     env.Status,
		Time:       env.Time,
		Cached:     env.Cached,
		QueryTime:  d.QueryTime,
		LatestPoll: d.LatestTime,
	}

	for _, rrc := range d.RRCs {

		if len(rrc.Peers) == 0 {
			continue
		}

		loc, ok := Classify(rrc.Location)
		if !ok || lg.Entries[loc].Found {
			continue
		}

		p := rrc.Peers[0]
		lg.Entries[loc] = LGEntry{
			Found:       true,
			Location:    rrc.Location,
			Collector:   rrc.RRC,
			Peer:        p.Peer,
			Prefix:      p.Prefix,
			Origin:      p.Origin,
			OriginAS:    scalar(p.ASNOrigin),
			NextHop:     p.NextHop,
			ASPath:      asPath(p.ASPath),
			Communities: words(p.Community),
			LastUpdated: p.LastUpdated,
			LatestPoll:  p.LatestTime,
		}
	}

	return lg, nil
}
