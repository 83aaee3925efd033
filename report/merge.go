// Package report combines registry data with RIPEstat routing overviews.
package report

import (
	"strconv"

	"github.com/BourgeoisBear/throne/rdap"
	"github.com/BourgeoisBear/throne/ripestat"
)

// NotAnnounced is the AnnouncedBy value of resources nobody originates.
const NotAnnounced = "None"

type PrefixReport struct {
	rdap.IPReport
	Prefix          string               `json:"prefix"`
	Announced       bool                 `json:"announced"`
	AnnouncedBy     string               `json:"announced_by"`
	Holder          string               `json:"holder,omitempty"`
	Announcers      []ripestat.Announcer `json:"announcers,omitempty"`
	Block           ripestat.Block       `json:"block"`
	IsLessSpecific  bool                 `json:"is_less_specific"`
	RelatedPrefixes []string             `json:"related_prefixes,omitempty"`
}

type ASNSummary struct {
	rdap.ASNReport
	ASN       string         `json:"asn"`
	Holder    string         `json:"holder"`
	Announced bool           `json:"announced"`
	Block     ripestat.Block `json:"block"`
}

// announcedBy applies the first-announcer policy. The complete set stays
// available to callers through PrefixReport.Announcers.
func announcedBy(ov *ripestat.Overview) (string, string) {
	if !ov.Announced || len(ov.ASNs) == 0 {
		return NotAnnounced, ""
	}
	a := ov.ASNs[0]
	return strconv.Itoa(a.ASN), a.Holder
}

// MergePrefix combines an RDAP ip network report with the prefix overview of
// the same resource. The RDAP CIDR is kept when the overview has no resource.
func MergePrefix(ip rdap.IPReport, ov ripestat.Overview) PrefixReport {

	ret := PrefixReport{
		IPReport:        ip,
		Prefix:          ov.Resource,
		Announced:       ov.Announced,
		Announcers:      ov.ASNs,
		Block:           ov.Block,
		IsLessSpecific:  ov.IsLessSpecific,
		RelatedPrefixes: ov.RelatedPrefixes,
	}
	ret.AnnouncedBy, ret.Holder = announcedBy(&ov)
	if ret.AnnouncedBy == NotAnnounced {
		ret.Announcers = nil
	}
	if ret.Prefix == "" {
		ret.Prefix = ip.CIDR
	}
	return ret
}

// MergeASN combines an RDAP autnum report with its as-overview. The RDAP
// name stands in for the holder when RIPEstat does not know one.
func MergeASN(asn rdap.ASNReport, ov ripestat.Overview) ASNSummary {

	ret := ASNSummary{
		ASNReport: asn,
		ASN:       ov.Resource,
		Holder:    ov.Holder,
		Announced: ov.Announced,
		Block:     ov.Block,
	}
	if ret.ASN == "" {
		ret.ASN = asn.ASRange()
	}
	if ret.Holder == "" {
		ret.Holder = asn.Name
	}
	return ret
}
