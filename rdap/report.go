package rdap

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/netip"
	"strconv"
	"strings"

	"github.com/BourgeoisBear/range2cidr"
)

const (
	StageHandle = "handle missing from RDAP entity"
	StageVCard  = "vcardArray parsing failed"
	StageDecode = "RDAP document is not a JSON object"
	StageCore   = "RDAP resource fields malformed"
)

// ParsingError means an RDAP document could not be normalized. Stage names
// the step that failed.
type ParsingError struct {
	Stage string
	Err   error
}

func (e *ParsingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Stage, e.Err)
	}
	return e.Stage
}

func (e *ParsingError) Unwrap() error { return e.Err }

type Report struct {
	Registry     RIRKey    `json:"-"`
	RegistryName string    `json:"rir"`
	Handle       string    `json:"handle"`
	Name         string    `json:"name,omitempty"`
	Country      string    `json:"country,omitempty"`
	Status       []string  `json:"status,omitempty"`
	Registered   string    `json:"registered,omitempty"`
	LastChanged  string    `json:"last_changed,omitempty"`
	Contacts     []Contact `json:"contacts"`
}

type IPReport struct {
	Report
	StartAddress string `json:"start_address"`
	EndAddress   string `json:"end_address"`
	CIDR         string `json:"cidr,omitempty"`
	IPVersion    string `json:"ip_version"`
	Type         string `json:"resource_type"`
}

type ASNReport struct {
	Report
	StartAutnum uint32 `json:"start_autnum,omitempty"`
	EndAutnum   uint32 `json:"end_autnum,omitempty"`
}

// ASRange renders the autnum range as "AS59" or "AS64512-AS65534".
func (r ASNReport) ASRange() string {
	if r.StartAutnum == 0 {
		return r.Handle
	}
	if r.EndAutnum == 0 || r.EndAutnum == r.StartAutnum {
		return "AS" + strconv.FormatUint(uint64(r.StartAutnum), 10)
	}
	return fmt.Sprintf("AS%d-AS%d", r.StartAutnum, r.EndAutnum)
}

// optional decodes one metadata field. Absent, null or wrongly typed
// values yield ok == false.
func optional[T any](raw json.RawMessage, field string, log *slog.Logger) (T, bool) {
	var v T
	if len(raw) == 0 || string(raw) == "null" {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		log.Debug("ignoring malformed RDAP field", "field", field, "err", err)
		var zero T
		return zero, false
	}
	return v, true
}

// normalize fills the registry-independent part of a report. withHandle
// selects the IP flavour, where entities must carry their own handle.
func normalize(c *common, withHandle bool, log *slog.Logger) (Report, error) {

	var ret Report

	handle, _ := optional[string](c.Handle, "handle", log)
	if strings.TrimSpace(handle) == "" {
		log.Debug("handle missing from RDAP entity")
		return ret, &ParsingError{Stage: StageHandle}
	}
	ret.Handle = strings.TrimSpace(handle)

	ret.Registry, ret.RegistryName = DetectRegistry(c.Port43)
	log.Debug("detected responding registry", "rir", ret.RegistryName, "port43", c.Port43)

	contacts, err := extractorFor(ret.Registry, ret.RegistryName).extract(c.Entities, withHandle, log)
	if err != nil {
		log.Debug("cannot walk entities", "err", err)
		return ret, &ParsingError{Stage: StageVCard, Err: err}
	}
	if len(contacts) > 0 {
		ret.Contacts = contacts
	}

	ret.Name, _ = optional[string](c.Name, "name", log)
	ret.Country, _ = optional[string](c.Country, "country", log)
	ret.Status, _ = optional[[]string](c.Status, "status", log)

	events, _ := optional[[]json.RawMessage](c.Events, "events", log)
	for _, raw := range events {
		evt, ok := optional[Event](raw, "events", log)
		if !ok {
			continue
		}
		switch evt.Action {
		case "registration":
			ret.Registered, _, _ = strings.Cut(evt.Date, "T")
		case "last changed":
			ret.LastChanged, _, _ = strings.Cut(evt.Date, "T")
		}
	}

	return ret, nil
}

// decodeDoc rejects bodies that are not a JSON object, then decodes the
// resource fields every report depends on.
func decodeDoc(raw []byte, out interface{}) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return &ParsingError{Stage: StageDecode, Err: err}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ParsingError{Stage: StageCore, Err: err}
	}
	return nil
}

// ParseIP normalizes an RDAP ip network document.
func ParseIP(raw []byte, log *slog.Logger) (IPReport, error) {

	if log == nil {
		log = slog.Default()
	}

	var doc IPNetwork
	if err := decodeDoc(raw, &doc); err != nil {
		return IPReport{}, err
	}

	rpt, err := normalize(&doc.common, true, log)
	if err != nil {
		return IPReport{}, err
	}
	typ, _ := optional[string](doc.Type, "type", log)

	return IPReport{
		Report:       rpt,
		StartAddress: doc.StartAddress,
		EndAddress:   doc.EndAddress,
		CIDR:         resolveCIDR(rpt.Registry, &doc, log),
		IPVersion:    doc.IPVersion,
		Type:         typ,
	}, nil
}

// ParseASN normalizes an RDAP autnum document.
func ParseASN(raw []byte, log *slog.Logger) (ASNReport, error) {

	if log == nil {
		log = slog.Default()
	}

	var doc Autnum
	if err := decodeDoc(raw, &doc); err != nil {
		return ASNReport{}, err
	}

	rpt, err := normalize(&doc.common, false, log)
	if err != nil {
		return ASNReport{}, err
	}

	ret := ASNReport{Report: rpt}
	if doc.StartAutnum != nil {
		ret.StartAutnum = *doc.StartAutnum
	}
	if doc.EndAutnum != nil {
		ret.EndAutnum = *doc.EndAutnum
	}
	return ret, nil
}

// resolveCIDR picks the CIDR notation for an ip network. RIPE does not
// publish cidr0_cidrs, its parent handle is the covering prefix instead.
func resolveCIDR(k RIRKey, doc *IPNetwork, log *slog.Logger) string {

	if k == RkRipe {
		log.Debug("RIPE does not provide CIDR notation, using parentHandle")
		return doc.ParentHandle
	}

	sC, _ := optional[[]json.RawMessage](doc.CIDR0, "cidr0_cidrs", log)
	if len(sC) > 0 {
		if c, ok := optional[CIDR0](sC[0], "cidr0_cidrs", log); ok {
			pfx := c.V4Prefix
			if pfx == "" {
				pfx = c.V6Prefix
			}
			if pfx != "" && c.Length != nil {
				return pfx + "/" + strconv.Itoa(*c.Length)
			}
		}
	}

	return deaggregate(doc.StartAddress, doc.EndAddress)
}

// deaggregate renders an address range as a comma-separated prefix list.
func deaggregate(start, end string) string {

	A, err := netip.ParseAddr(start)
	if err != nil {
		return ""
	}
	B, err := netip.ParseAddr(end)
	if err != nil {
		return ""
	}

	sPfx, err := range2cidr.Deaggregate(A, B)
	if err != nil {
		return ""
	}

	parts := make([]string, len(sPfx))
	for ix, pfx := range sPfx {
		parts[ix] = pfx.String()
	}
	return strings.Join(parts, ", ")
}
