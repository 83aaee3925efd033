package ripestat

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Announcer is one AS originating a resource.
type Announcer struct {
	ASN    int    `json:"asn"`
	Holder string `json:"holder"`
}

type Block struct {
	Resource string `json:"resource"`
	Name     string `json:"name"`
	Desc     string `json:"desc"`
}

// Overview is the normalized form of the prefix-overview and as-overview
// data calls.
type Overview struct {
	Resource        string      `json:"resource"`
	Type            string      `json:"type"`
	Announced       bool        `json:"announced"`
	ASNs            []Announcer `json:"asns"`
	Holder          string      `json:"holder,omitempty"`
	Block           Block       `json:"block"`
	IsLessSpecific  bool        `json:"is_less_specific"`
	RelatedPrefixes []string    `json:"related_prefixes,omitempty"`
}

// envelope is the wrapper every RIPEstat data call answers with.
type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Time       string          `json:"time"`
	Cached     bool            `json:"cached"`
	Data       json.RawMessage `json:"data"`
}

func unwrap(raw []byte) (envelope, error) {

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, errors.WithMessage(err, "ripestat envelope")
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return env, errors.New("ripestat: response has no data")
	}
	if env.Status != "" && env.Status != "ok" {
		return env, errors.Errorf("ripestat: status %q", env.Status)
	}
	return env, nil
}

// scalar renders a JSON string or number as text; RIPEstat answers with
// either depending on the resource kind.
func scalar(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// ParseOverview decodes a prefix-overview or as-overview response. ASNs is
// nil when the resource is not announced.
func ParseOverview(raw []byte) (Overview, error) {

	env, err := unwrap(raw)
	if err != nil {
		return Overview{}, err
	}

	var d struct {
		Resource        json.RawMessage   `json:"resource"`
		Type            string            `json:"type"`
		Announced       bool              `json:"announced"`
		ASNs            []Announcer       `json:"asns"`
		Holder          string            `json:"holder"`
		Block           Block             `json:"block"`
		IsLessSpecific  bool              `json:"is_less_specific"`
		RelatedPrefixes []json.RawMessage `json:"related_prefixes"`
	}
	if err := json.Unmarshal(env.Data, &d); err != nil {
		return Overview{}, errors.WithMessage(err, "ripestat overview")
	}

	ov := Overview{
		Resource:       scalar(d.Resource),
		Type:           d.Type,
		Announced:      d.Announced,
		Holder:         d.Holder,
		Block:          d.Block,
		IsLessSpecific: d.IsLessSpecific,
	}
	if len(d.ASNs) > 0 {
		ov.ASNs = d.ASNs
	}

	// entries are plain prefixes or {"prefix": ...} objects
	for _, r := range d.RelatedPrefixes {
		pfx := scalar(r)
		if pfx == "" {
			var obj struct {
				Prefix string `json:"prefix"`
			}
			if json.Unmarshal(r, &obj) == nil {
				pfx = obj.Prefix
			}
		}
		if pfx != "" {
			ov.RelatedPrefixes = append(ov.RelatedPrefixes, pfx)
		}
	}

	return ov, nil
}
