package main

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BourgeoisBear/throne/aggapi"
	"github.com/BourgeoisBear/throne/fetch"
	"github.com/BourgeoisBear/throne/rdap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const unannouncedIP = `{
	"objectClassName": "ip network", "handle": "NET-192-0-2-0-1", "port43": "whois.arin.net",
	"startAddress": "192.0.2.0", "endAddress": "192.0.2.255", "ipVersion": "v4", "name": "TEST-NET-1",
	"type": "IANA Special Use", "cidr0_cidrs": [{"v4prefix": "192.0.2.0", "length": 24}]
}`

func statDoc(data string) string {
	return `{"status": "ok", "status_code": 200, "time": "2024-05-01T10:00:00", "data": ` + data + `}`
}

// mockUpstream serves every remote the CLI talks to under one server.
func mockUpstream(t *testing.T) *httptest.Server {

	fixture := func(name string) []byte {
		bs, err := os.ReadFile(filepath.Join("rdap", "testdata", name))
		require.NoError(t, err)
		return bs
	}

	rdapDocs := map[string][]byte{
		"/rdap/autnum/59":    fixture("arin_autnum_59.json"),
		"/rdap/autnum/2792":  fixture("ripe_autnum_2792.json"),
		"/rdap/ip/1.1.1.1":   fixture("apnic_ip_1.1.1.1.json"),
		"/rdap/ip/192.0.2.1": []byte(unannouncedIP),
		"/rdap/autnum/13335": []byte(`{"handle": "AS13335", "port43": "whois.arin.net", "name": "CLOUDFLARENET", "startAutnum": 13335, "endAutnum": 13335}`),
		"/rdap/ip/10.9.9.9":  []byte(`{"port43": "whois.arin.net", "startAddress": "10.0.0.0"}`),
	}

	stat := map[string]string{
		"as-overview/59": statDoc(`{"resource": "59", "type": "as", "announced": true,
			"holder": "WISC-MADISON-AS - University of Wisconsin Madison",
			"block": {"resource": "1-1876", "name": "IANA 16-bit Autonomous System (AS) Numbers Registry", "desc": "Assigned by ARIN"}}`),
		"as-overview/2792": statDoc(`{"resource": "2792", "type": "as", "announced": false,
			"holder": "TERASTREAM-AS - Deutsche Telekom AG", "block": {"resource": "1877-2901", "desc": "Assigned by RIPE NCC"}}`),
		"as-overview/13335": statDoc(`{"resource": "13335", "type": "as", "announced": true, "holder": "CLOUDFLARENET - Cloudflare, Inc.", "block": {}}`),
		"prefix-overview/1.1.1.1": statDoc(`{"resource": "1.1.1.0/24", "type": "prefix", "announced": true,
			"asns": [{"asn": 13335, "holder": "CLOUDFLARENET - Cloudflare, Inc."}],
			"block": {"resource": "1.0.0.0/8", "name": "IANA IPv4 Address Space Registry", "desc": "APNIC (Status: ALLOCATED)"}}`),
		"prefix-overview/192.0.2.1": statDoc(`{"resource": "192.0.2.0/24", "type": "prefix", "announced": false, "asns": [], "block": {}}`),
		"prefix-overview/10.9.9.9":  statDoc(`{"resource": "10.0.0.0/8", "announced": false, "asns": []}`),
		"looking-glass/140.78.0.0/16": statDoc(`{"rrcs": [
			{"rrc": "RRC12", "location": "Frankfurt, Germany", "peers": [
				{"asn_origin": "1205", "as_path": "6695 1853 1205", "community": "1853:100", "prefix": "140.78.0.0/16",
				 "peer": "80.81.192.1", "origin": "IGP", "next_hop": "80.81.192.1", "last_updated": "2024-04-30T12:00:00", "latest_time": "2024-05-01T09:58:00"}]},
			{"rrc": "RRC06", "location": "Tokyo, Japan", "peers": [{"asn_origin": "1205", "as_path": "2497 1205", "peer": "202.249.2.1"}]}
		], "latest_time": "2024-05-01T09:58:00"}`),
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		if bs, ok := rdapDocs[r.URL.Path]; ok {
			w.Header().Set("Content-Type", "application/rdap+json")
			w.Write(bs)
			return
		}

		if strings.HasPrefix(r.URL.Path, "/stat/") {
			call := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/stat/"), "/data.json")
			if doc, ok := stat[call+"/"+r.URL.Query().Get("resource")]; ok {
				w.Write([]byte(doc))
				return
			}
		}

		switch r.URL.Path {
		case "/api/whois/asn":
			if r.Header.Get("Authorization") != "Bearer tok" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`{"rir": "RIPE", "handle": "AS2792", "entities": [
				{"name": "Abuse Deutsche Telekom", "roles": ["abuse"], "address": null, "phone": null, "email": "abuse@telekom.de"}]}`))
			return
		case "/geo/8.8.8.8":
			w.Write([]byte(`{"status": "success", "query": "8.8.8.8", "countryCode": "US", "country": "United States",
				"region": "VA", "city": "Ashburn", "lat": 39.03, "lon": -77.5, "timezone": "America/New_York",
				"isp": "Google LLC", "org": "Google Public DNS", "as": "AS15169 Google LLC"}`))
			return
		}

		http.NotFound(w, r)
	}))
}

func runQuery(t *testing.T, srv *httptest.Server, key, cmd string) (string, error) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	svc := NewServices(srv.Client(), log, Config{Key: key}, Endpoints{
		Bootstrap: srv.URL + "/rdap",
		RIPEstat:  srv.URL + "/stat",
		API:       srv.URL + "/api",
		Geo:       srv.URL + "/geo",
	})

	var out bytes.Buffer
	m := Modes{Pretty: true}
	err := m.doREPL(CmdExecParams{Ctx: context.Background(), Svc: svc, Out: &out}, cmd, 0)
	return out.String(), err
}

func TestASNArin(t *testing.T) {

	srv := mockUpstream(t)
	defer srv.Close()

	out, err := runQuery(t, srv, "", "as 59")
	require.NoError(t, err)

	assert.Contains(t, out, "---Basic ASN Info---")
	assert.Contains(t, out, "Holder:       WISC-MADISON-AS - University of Wisconsin Madison")
	assert.Contains(t, out, "---ARIN/AS59 Contact Information---")
	assert.Contains(t, out, "University of Wisconsin Madison (Registrant):")
	assert.Contains(t, out, "Network Operations Center (Technical/Administrative):")
	assert.Contains(t, out, "noc@wisc.edu")
	assert.NotContains(t, out, "filtered by RIPE")

	// nested contacts follow the top-level ones
	assert.Less(t,
		strings.Index(out, "Systems Engineering"),
		strings.Index(out, "UW-Madison Abuse"),
	)
}

func TestASNRipeAbuseOnly(t *testing.T) {

	srv := mockUpstream(t)
	defer srv.Close()

	out, err := runQuery(t, srv, "", "as 2792")
	require.NoError(t, err)

	assert.Contains(t, out, "TERASTREAM-AS - Deutsche Telekom AG")
	assert.Contains(t, out, "---RIPE/AS2792 Contact Information---")
	assert.Equal(t, 1, strings.Count(out, "(Abuse):"))
	assert.Contains(t, out, "abuse@telekom.de")
	assert.Contains(t, out, "NOTE: Some of these details may be filtered by RIPE")
}

func TestIPUnannounced(t *testing.T) {

	srv := mockUpstream(t)
	defer srv.Close()

	out, err := runQuery(t, srv, "", "ip 192.0.2.1 +")
	require.NoError(t, err)

	assert.Contains(t, out, "Announced By: None")
	assert.Contains(t, out, "Announced:    false")
	assert.Contains(t, out, "CIDR:         192.0.2.0/24")
	assert.Contains(t, out, "no contacts published")
	assert.NotContains(t, out, "Basic ASN Info", "'+' has nothing to follow")
}

func TestIPAllFollowsAnnouncer(t *testing.T) {

	srv := mockUpstream(t)
	defer srv.Close()

	out, err := runQuery(t, srv, "", "ip 1.1.1.1 +")
	require.NoError(t, err)

	assert.Contains(t, out, "Issued By:    APNIC")
	assert.Contains(t, out, "CIDR:         1.1.1.0/24")
	assert.Contains(t, out, "Announced By: 13335")
	assert.Contains(t, out, "---APNIC/1.1.1.0 - 1.1.1.255 Contact Information---")
	assert.Contains(t, out, "---Basic ASN Info---")
	assert.Contains(t, out, "CLOUDFLARENET - Cloudflare, Inc.")
}

func TestIPParsingError(t *testing.T) {

	srv := mockUpstream(t)
	defer srv.Close()

	out, err := runQuery(t, srv, "", "ip 10.9.9.9")
	var pe *rdap.ParsingError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, rdap.StageHandle, pe.Stage)
	assert.Empty(t, out, "no partial report past a parsing error")
}

func TestTransportError(t *testing.T) {

	srv := mockUpstream(t)
	defer srv.Close()

	_, err := runQuery(t, srv, "", "as 64512")
	var te *fetch.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusNotFound, te.StatusCode)
	assert.Contains(t, te.URL, "/stat/as-overview/data.json")
}

func TestAggregatedASN(t *testing.T) {

	srv := mockUpstream(t)
	defer srv.Close()

	_, err := runQuery(t, srv, "", "as 2792 agg")
	assert.ErrorIs(t, err, aggapi.ErrNoAPIKey)

	out, err := runQuery(t, srv, "Bearer tok", "as 2792 agg")
	require.NoError(t, err)
	assert.Contains(t, out, "---RIPE/AS2792 Contact Information---")
	assert.Contains(t, out, "Abuse Deutsche Telekom (Abuse):")
}

func TestPrefix(t *testing.T) {

	srv := mockUpstream(t)
	defer srv.Close()

	out, err := runQuery(t, srv, "", "pfx 1.1.1.1")
	require.NoError(t, err)
	assert.Contains(t, out, "Prefix:       1.1.1.0/24")
	assert.Contains(t, out, "Announced By: 13335")
	assert.Contains(t, out, "IP Block:    1.0.0.0/8")

	out, err = runQuery(t, srv, "", "pfx 192.0.2.1")
	require.NoError(t, err)
	assert.Contains(t, out, "Announced By: None")
}

func TestLookingGlass(t *testing.T) {

	srv := mockUpstream(t)
	defer srv.Close()

	out, err := runQuery(t, srv, "", "lg 140.78.0.0/16 DE")
	require.NoError(t, err)
	assert.Contains(t, out, "---DE---")
	assert.Contains(t, out, "Frankfurt, Germany")
	assert.Contains(t, out, "6695 1853 1205")

	// nothing collected in New York: an empty slot, not an error
	out, err = runQuery(t, srv, "", "lg 140.78.0.0/16")
	require.NoError(t, err)
	assert.Contains(t, out, "---US-NY---")
	assert.Contains(t, out, "no route collector data for this location")
	assert.NotContains(t, out, "Collector:")

	out, err = runQuery(t, srv, "", "lg 140.78.0.0/16 *")
	require.NoError(t, err)
	for _, code := range []string{"US-NY", "US-FL", "US-CA", "UK", "NL", "SG", "DE", "ZA", "JP"} {
		assert.Contains(t, out, code)
	}
	assert.Contains(t, out, "RRC06")
}

func TestRaw(t *testing.T) {

	srv := mockUpstream(t)
	defer srv.Close()

	out, err := runQuery(t, srv, "", "raw as 13335")
	require.NoError(t, err)
	assert.Contains(t, out, `"handle": "AS13335"`)
}

func TestGeo(t *testing.T) {

	srv := mockUpstream(t)
	defer srv.Close()

	out, err := runQuery(t, srv, "", "geo 8.8.8.8")
	require.NoError(t, err)
	assert.Contains(t, out, "Location: Ashburn, VA, US")
	assert.Contains(t, out, "AS15169 Google LLC")
}

func TestPrintErrHint(t *testing.T) {

	var buf bytes.Buffer
	m := Modes{}
	m.printErr(&buf, aggapi.ErrNoAPIKey, "/home/u/.throne/config.yml")
	assert.Contains(t, buf.String(), "error: throne API key required")
	assert.Contains(t, buf.String(), "/home/u/.throne/config.yml")

	buf.Reset()
	m.printErr(&buf, EInvalidQuery, "x")
	assert.Equal(t, "error: invalid query\n", buf.String())
}

func TestAnsiMsg(t *testing.T) {

	var buf bytes.Buffer
	m := Modes{Color: true}
	m.AnsiMsg(&buf, "error", "boom")
	assert.Equal(t, "error: boom\n", buf.String(), "no attributes, no escapes")

	buf.Reset()
	m.AnsiMsg(&buf, "title", "", 31)
	assert.True(t, strings.HasPrefix(buf.String(), "\x1b[31mtitle"))
}
