package main

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/BourgeoisBear/throne/rdap"
	"github.com/BourgeoisBear/throne/ripestat"
	"github.com/pkg/errors"
)

var EInvalidQuery = errors.New("invalid query")

type CmdIP struct {
	Addr string
	All  bool
}

type CmdASN struct {
	ASN uint32
	Agg bool
}

type CmdPrefix struct {
	Prefix string
}

type CmdLG struct {
	Resource string
	Loc      ripestat.Location
	AllLocs  bool
}

type CmdRaw struct {
	IP  string
	ASN uint32
}

type CmdGeo struct {
	Addr string
}

type CmdDomain struct {
	Name string
}

type Modes struct {
	Color    bool
	Pretty   bool
	CmdRegex []*regexp.Regexp
}

func (m *Modes) UpdateFromCmd(cmd string) bool {
	switch strings.ToLower(cmd) {
	case "pretty":
		m.Pretty = true
	case "nopretty":
		m.Pretty = false
	default:
		return false
	}
	return true
}

func parseASN(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.ToUpper(s), "AS")
	nASN, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, errors.WithMessage(err, "invalid ASN")
	}
	return uint32(nASN), nil
}

func checkAddr(s string) error {
	if !rdap.IsAddrOrPrefix(s) {
		return errors.WithMessagef(EInvalidQuery, "%q is not an IP address or prefix", s)
	}
	return nil
}

func (m *Modes) ParseCmd(cmd string) (CmdExec, error) {

	// build regexes on first invocation
	if len(m.CmdRegex) == 0 {

		sSyntax := []string{
			`^\s*IP\s+(\S+)\s*(\s\+)?$`,
			`^\s*AS\s+(\S+)\s*(\sAGG)?$`,
			`^\s*PFX\s+(\S+)\s*$`,
			`^\s*LG\s+(\S+)\s*(\s\S+)?$`,
			`^\s*RAW\s+(IP|AS)\s+(\S+)\s*$`,
			`^\s*GEO\s+(\S+)\s*$`,
			`^\s*DOM\s+(\S+)\s*$`,
		}
		var err error
		m.CmdRegex = make([]*regexp.Regexp, len(sSyntax))
		for ix, txt := range sSyntax {
			m.CmdRegex[ix], err = regexp.Compile(`(?i)` + txt)
			if err != nil {
				return nil, err
			}
		}
	}

	for ix, rx := range m.CmdRegex {

		sMtch := rx.FindStringSubmatch(cmd)
		if len(sMtch) == 0 {
			continue
		}

		var opt string
		if len(sMtch) == 3 {
			opt = strings.TrimSpace(sMtch[2])
		}

		switch ix {

		// IP
		case 0:
			if err := checkAddr(sMtch[1]); err != nil {
				return nil, err
			}
			return CmdIP{Addr: sMtch[1], All: len(opt) > 0}, nil

		// ASN
		case 1:
			nASN, err := parseASN(sMtch[1])
			if err != nil {
				return nil, err
			}
			return CmdASN{ASN: nASN, Agg: len(opt) > 0}, nil

		// PFX
		case 2:
			if err := checkAddr(sMtch[1]); err != nil {
				return nil, err
			}
			return CmdPrefix{Prefix: sMtch[1]}, nil

		// LG
		case 3:
			if err := checkAddr(sMtch[1]); err != nil {
				return nil, err
			}
			ret := CmdLG{Resource: sMtch[1], Loc: ripestat.LocUSNY}
			switch opt {
			case "":
			case "*":
				ret.AllLocs = true
			default:
				loc, ok := ripestat.LocationFromCode(opt)
				if !ok {
					return nil, errors.WithMessagef(EInvalidQuery, "unknown location %q", opt)
				}
				ret.Loc = loc
			}
			return ret, nil

		// RAW
		case 4:
			if strings.EqualFold(sMtch[1], "AS") {
				nASN, err := parseASN(sMtch[2])
				if err != nil {
					return nil, err
				}
				return CmdRaw{ASN: nASN}, nil
			}
			if err := checkAddr(sMtch[2]); err != nil {
				return nil, err
			}
			return CmdRaw{IP: sMtch[2]}, nil

		// GEO
		case 5:
			return CmdGeo{Addr: sMtch[1]}, nil

		// DOM
		case 6:
			return CmdDomain{Name: sMtch[1]}, nil
		}
	}

	return nil, EInvalidQuery
}
