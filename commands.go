package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/BourgeoisBear/throne/aggapi"
	cw "github.com/BourgeoisBear/throne/colwriter"
	"github.com/BourgeoisBear/throne/geo"
	"github.com/BourgeoisBear/throne/rdap"
	"github.com/BourgeoisBear/throne/report"
	"github.com/BourgeoisBear/throne/ripestat"
	"github.com/fatih/color"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const ripeNotice = "Some of these details may be filtered by RIPE. To verify this information please visit https://apps.db.ripe.net/db-web-ui/query."

type CmdExec interface {
	Exec(CmdExecParams) error
}

// Services are the remote lookups available to commands.
type Services struct {
	RDAP *rdap.Querier
	Stat *ripestat.Client
	Agg  *aggapi.Client
	Geo  *geo.Client
	Log  *slog.Logger
}

type CmdExecParams struct {
	Modes
	Ctx context.Context
	Svc *Services
	Out io.Writer
	Cmd string
}

var titleCaser = cases.Title(language.Und)

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func (cep CmdExecParams) header(title string) error {
	_, err := cep.AnsiMsg(cep.Out, "---"+title+"---", "", color.FgGreen, color.Bold)
	return err
}

func (cep CmdExecParams) pairs(indent string, sP ...cw.Pair) error {
	return cw.Cfg{Pad: cep.Pretty}.WritePairs(cep.Out, indent, sP)
}

func (cep CmdExecParams) PrintJSON(bsJSON []byte) error {

	var buf bytes.Buffer
	var err error
	if cep.Pretty {
		err = json.Indent(&buf, bsJSON, "", "  ")
	} else {
		err = json.Compact(&buf, bsJSON)
	}
	if err != nil {
		cep.Svc.Log.Debug("response is not valid JSON, writing as-is", "err", err)
		buf.Reset()
		buf.Write(bsJSON)
	}
	buf.WriteByte('\n')

	_, err = buf.WriteTo(cep.Out)
	return err
}

func labeledText(sL []rdap.Labeled) string {
	parts := make([]string, 0, len(sL))
	for _, l := range sL {
		if l.Type != nil && *l.Type != "" {
			parts = append(parts, l.Value+" ("+*l.Type+")")
		} else {
			parts = append(parts, l.Value)
		}
	}
	return strings.Join(parts, "\n")
}

func (cep CmdExecParams) printContacts(k rdap.RIRKey, label, handle string, sC []rdap.Contact) error {

	if err := cep.header(label + "/" + handle + " Contact Information"); err != nil {
		return err
	}

	if k == rdap.RkRipe {
		cep.Svc.Log.Debug("RIPE filters all non-abuse contacts, see the RIPE database documentation")
	}

	if len(sC) == 0 {
		fmt.Fprintln(cep.Out, "no contacts published")
	}

	for _, c := range sC {

		name := deref(c.Name)
		if name == "" {
			name = "(unnamed)"
		}
		roles := make([]string, len(c.Roles))
		for ix, r := range c.Roles {
			roles[ix] = titleCaser.String(r)
		}
		fmt.Fprintf(cep.Out, "%s (%s):\n", name, strings.Join(roles, "/"))

		err := cep.pairs(" ",
			cw.Pair{Key: "Handle", Val: deref(c.Handle)},
			cw.Pair{Key: "Kind", Val: deref(c.Kind)},
			cw.Pair{Key: "Title", Val: deref(c.Title)},
			cw.Pair{Key: "Address", Val: labeledText(c.Addresses)},
			cw.Pair{Key: "Phone", Val: labeledText(c.Phones)},
			cw.Pair{Key: "Email", Val: labeledText(c.Emails)},
		)
		if err != nil {
			return err
		}
	}

	if k == rdap.RkRipe {
		_, err := cep.AnsiMsg(cep.Out, "NOTE", ripeNotice, color.FgRed)
		return err
	}
	return nil
}

func (cep CmdExecParams) printPrefix(p *report.PrefixReport) error {

	if err := cep.header("IP Info"); err != nil {
		return err
	}

	cidrLabel := "CIDR"
	if p.Registry == rdap.RkRipe {
		cidrLabel = "Parent Handle"
	}

	var others []string
	for ix, a := range p.Announcers {
		if ix > 0 {
			others = append(others, strconv.Itoa(a.ASN))
		}
	}

	return cep.pairs("",
		cw.Pair{Key: "Issued By", Val: p.RegistryName},
		cw.Pair{Key: "Status", Val: p.Type},
		cw.Pair{Key: "Name", Val: p.Name},
		cw.Pair{Key: cidrLabel, Val: p.CIDR},
		cw.Pair{Key: "Prefix", Val: p.Prefix},
		cw.Pair{Key: "Announced", Val: strconv.FormatBool(p.Announced)},
		cw.Pair{Key: "Announced By", Val: p.AnnouncedBy},
		cw.Pair{Key: "Also Announced By", Val: strings.Join(others, ", ")},
		cw.Pair{Key: "Holder", Val: p.Holder},
		cw.Pair{Key: "Version", Val: p.IPVersion},
		cw.Pair{Key: "Beginning", Val: p.StartAddress},
		cw.Pair{Key: "Ending", Val: p.EndAddress},
		cw.Pair{Key: "Country", Val: p.Country},
		cw.Pair{Key: "Registered", Val: p.Registered},
		cw.Pair{Key: "Last Changed", Val: p.LastChanged},
	)
}

func (cep CmdExecParams) printASN(s *report.ASNSummary) error {

	if err := cep.header("Basic ASN Info"); err != nil {
		return err
	}
	err := cep.pairs("",
		cw.Pair{Key: "AS#", Val: s.ASN},
		cw.Pair{Key: "Holder", Val: s.Holder},
		cw.Pair{Key: "Announced", Val: strconv.FormatBool(s.Announced)},
		cw.Pair{Key: "Registered", Val: s.Registered},
		cw.Pair{Key: "Last Changed", Val: s.LastChanged},
	)
	if err != nil {
		return err
	}

	if err := cep.header("AS Block Info"); err != nil {
		return err
	}
	return cep.pairs("",
		cw.Pair{Key: "AS Block", Val: s.Block.Resource},
		cw.Pair{Key: "Name", Val: s.Block.Name},
		cw.Pair{Key: "Description", Val: s.Block.Desc},
	)
}

func (v CmdIP) Exec(cep CmdExecParams) error {

	bsJSON, err := cep.Svc.RDAP.QueryByIP(cep.Ctx, v.Addr)
	if err != nil {
		return err
	}
	ip, err := rdap.ParseIP(bsJSON, cep.Svc.Log)
	if err != nil {
		return err
	}
	ov, err := cep.Svc.Stat.PrefixOverview(cep.Ctx, v.Addr)
	if err != nil {
		return err
	}

	m := report.MergePrefix(ip, ov)
	if err := cep.printPrefix(&m); err != nil {
		return err
	}
	if err := cep.printContacts(m.Registry, m.RegistryName, m.Handle, m.Contacts); err != nil {
		return err
	}

	if !v.All || m.AnnouncedBy == report.NotAnnounced {
		return nil
	}
	for _, a := range m.Announcers {
		if err := (CmdASN{ASN: uint32(a.ASN)}).Exec(cep); err != nil {
			return err
		}
	}
	return nil
}

func (v CmdASN) Exec(cep CmdExecParams) error {

	szASN := strconv.FormatUint(uint64(v.ASN), 10)
	ov, err := cep.Svc.Stat.ASOverview(cep.Ctx, szASN)
	if err != nil {
		return err
	}

	if v.Agg {
		res, err := cep.Svc.Agg.LookupASN(cep.Ctx, szASN)
		if err != nil {
			return err
		}
		s := report.MergeASN(rdap.ASNReport{StartAutnum: v.ASN}, ov)
		if err := cep.printASN(&s); err != nil {
			return err
		}
		return cep.printContacts(rdap.RegistryNameToKey(res.RIR), res.RIR, res.Handle, res.Contacts())
	}

	bsJSON, err := cep.Svc.RDAP.QueryByASN(cep.Ctx, v.ASN)
	if err != nil {
		return err
	}
	asn, err := rdap.ParseASN(bsJSON, cep.Svc.Log)
	if err != nil {
		return err
	}

	s := report.MergeASN(asn, ov)
	if err := cep.printASN(&s); err != nil {
		return err
	}
	return cep.printContacts(s.Registry, s.RegistryName, s.Handle, s.Contacts)
}

func (v CmdPrefix) Exec(cep CmdExecParams) error {

	ov, err := cep.Svc.Stat.PrefixOverview(cep.Ctx, v.Prefix)
	if err != nil {
		return err
	}
	m := report.MergePrefix(rdap.IPReport{}, ov)

	if err := cep.header("Prefix Info"); err != nil {
		return err
	}
	err = cep.pairs("",
		cw.Pair{Key: "Prefix", Val: m.Prefix},
		cw.Pair{Key: "Announced By", Val: m.AnnouncedBy},
		cw.Pair{Key: "Holder", Val: m.Holder},
	)
	if err != nil {
		return err
	}

	if err := cep.header("IP Block Info"); err != nil {
		return err
	}
	return cep.pairs("",
		cw.Pair{Key: "IP Block", Val: m.Block.Resource},
		cw.Pair{Key: "Name", Val: m.Block.Name},
		cw.Pair{Key: "Description", Val: m.Block.Desc},
		cw.Pair{Key: "Related Prefixes", Val: strings.Join(m.RelatedPrefixes, "\n")},
	)
}

func joinInts(sI []int) string {
	parts := make([]string, len(sI))
	for ix, n := range sI {
		parts[ix] = strconv.Itoa(n)
	}
	return strings.Join(parts, " ")
}

func (cep CmdExecParams) printLGEntry(e *ripestat.LGEntry) error {
	return cep.pairs("",
		cw.Pair{Key: "Location", Val: e.Location},
		cw.Pair{Key: "Collector", Val: e.Collector},
		cw.Pair{Key: "Prefix", Val: e.Prefix},
		cw.Pair{Key: "Origin", Val: e.Origin},
		cw.Pair{Key: "Origin AS", Val: e.OriginAS},
		cw.Pair{Key: "Peer", Val: e.Peer},
		cw.Pair{Key: "Next Hop", Val: e.NextHop},
		cw.Pair{Key: "AS Path", Val: joinInts(e.ASPath)},
		cw.Pair{Key: "BGP Communities", Val: strings.Join(e.Communities, " ")},
		cw.Pair{Key: "Last Updated", Val: e.LastUpdated},
		cw.Pair{Key: "Last Poll (This Router)", Val: e.LatestPoll},
	)
}

func (v CmdLG) Exec(cep CmdExecParams) error {

	lg, err := cep.Svc.Stat.LookingGlass(cep.Ctx, v.Resource)
	if err != nil {
		return err
	}

	if err := cep.header("Looking Glass"); err != nil {
		return err
	}
	err = cep.pairs("",
		cw.Pair{Key: "Status", Val: lg.Status},
		cw.Pair{Key: "Cached", Val: strconv.FormatBool(lg.Cached)},
		cw.Pair{Key: "Results Returned", Val: lg.Time},
		cw.Pair{Key: "Latest Poll", Val: lg.LatestPoll},
	)
	if err != nil {
		return err
	}

	if !v.AllLocs {
		if err := cep.header(v.Loc.String()); err != nil {
			return err
		}
		if !lg.Entries[v.Loc].Found {
			_, err := fmt.Fprintln(cep.Out, "no route collector data for this location")
			return err
		}
		return cep.printLGEntry(&lg.Entries[v.Loc])
	}

	rows := make([][]string, 0, ripestat.LocMAX)
	for l := ripestat.Location(0); l < ripestat.LocMAX; l++ {
		e := &lg.Entries[l]
		if !e.Found {
			rows = append(rows, []string{l.String(), "-", "-", "-", "-"})
			continue
		}
		rows = append(rows, []string{l.String(), e.Collector, e.Peer, e.OriginAS, joinInts(e.ASPath)})
	}

	spacer := "|"
	if cep.Pretty {
		spacer = " "
	}
	return cw.Cfg{Spacer: spacer, Pad: cep.Pretty}.WriteTable(cep.Out, []cw.ColCfg{
		{Title: "LOC"},
		{Title: "RRC"},
		{Title: "PEER"},
		{Title: "ORIGIN", Rt: true},
		{Title: "AS PATH"},
	}, rows)
}

func (v CmdRaw) Exec(cep CmdExecParams) error {

	var bsJSON []byte
	var err error
	if v.IP != "" {
		bsJSON, err = cep.Svc.RDAP.QueryByIP(cep.Ctx, v.IP)
	} else {
		bsJSON, err = cep.Svc.RDAP.QueryByASN(cep.Ctx, v.ASN)
	}
	if err != nil {
		return err
	}
	return cep.PrintJSON(bsJSON)
}

func (v CmdGeo) Exec(cep CmdExecParams) error {

	res, err := cep.Svc.Geo.Lookup(cep.Ctx, v.Addr)
	if err != nil {
		return err
	}

	if err := cep.header("Geolocation"); err != nil {
		return err
	}
	err = cep.pairs("",
		cw.Pair{Key: "IP Address", Val: res.Query},
		cw.Pair{Key: "AS Number", Val: res.AS},
		cw.Pair{Key: "ISP", Val: res.ISP},
		cw.Pair{Key: "Organization", Val: res.Org},
	)
	if err != nil {
		return err
	}
	fmt.Fprintln(cep.Out, "---")
	return cep.pairs("",
		cw.Pair{Key: "Location", Val: res.Location()},
		cw.Pair{Key: "Country", Val: res.CountryName()},
		cw.Pair{Key: "Lat/Long", Val: fmt.Sprintf("%g/%g", res.Lat, res.Lon)},
		cw.Pair{Key: "Timezone", Val: res.Timezone},
	)
}

func (cep CmdExecParams) printWhoisContacts(prefix string, m map[string][]aggapi.WhoisContact, fallbackName string) error {

	for _, role := range aggapi.ContactRoles(m) {

		_, err := cep.AnsiMsg(cep.Out, prefix+titleCaser.String(role)+" Contact Information", "", color.FgGreen)
		if err != nil {
			return err
		}

		for _, c := range m[role] {
			name := deref(c.Name)
			if name == "" {
				name = fallbackName
			}
			err := cep.pairs(" ",
				cw.Pair{Key: "Name", Val: name},
				cw.Pair{Key: "Org", Val: deref(c.Org)},
				cw.Pair{Key: "Address", Val: deref(c.Address)},
				cw.Pair{Key: "Phone", Val: deref(c.Phone)},
				cw.Pair{Key: "Email", Val: deref(c.Email)},
			)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (v CmdDomain) Exec(cep CmdExecParams) error {

	d, err := cep.Svc.Agg.LookupDomain(cep.Ctx, v.Name)
	if err != nil {
		return err
	}

	_, err = cep.AnsiMsg(cep.Out, "---"+d.Domain+" WHOIS Information---", "", color.FgYellow, color.Bold)
	if err != nil {
		return err
	}

	nameservers := strings.Join(d.Whois.Nameservers, ", ")
	if nameservers == "" {
		nameservers = "No Nameservers Found."
	}
	err = cep.pairs("",
		cw.Pair{Key: "Domain", Val: d.Domain},
		cw.Pair{Key: "Domain Status", Val: strings.Join(d.Status, ", ")},
		cw.Pair{Key: "Nameservers", Val: nameservers},
	)
	if err != nil {
		return err
	}

	for _, sec := range d.Whois.DNSSEC {
		if err := cep.pairs("", cw.Pair{Key: "DNSSEC Enabled?", Val: strconv.FormatBool(sec.Signed)}); err != nil {
			return err
		}
		for _, ds := range sec.DSData {
			err := cep.pairs(" ",
				cw.Pair{Key: "Keytag", Val: ds.KeyTag.String()},
				cw.Pair{Key: "Algorithm", Val: ds.Algorithm.String()},
				cw.Pair{Key: "Digest", Val: ds.Digest},
				cw.Pair{Key: "Digest Type", Val: ds.DigestType.String()},
			)
			if err != nil {
				return err
			}
		}
	}

	_, err = cep.AnsiMsg(cep.Out, "--Contact Information--", "", color.FgYellow)
	if err != nil {
		return err
	}
	if err := cep.printWhoisContacts("Registrar ", d.Registrar.ContactInfo, d.Registrar.Name); err != nil {
		return err
	}
	return cep.printWhoisContacts("", d.Whois.ContactInfo, "")
}
