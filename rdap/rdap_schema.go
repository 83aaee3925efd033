package rdap

import "encoding/json"

/*
   https://rdap-bootstrap.arin.net/bootstrap/ip/1.1.1.1      -> APNIC
   https://rdap-bootstrap.arin.net/bootstrap/ip/8.8.8.8      -> ARIN
   https://rdap-bootstrap.arin.net/bootstrap/autnum/59       -> ARIN
   https://rdap-bootstrap.arin.net/bootstrap/autnum/2792     -> RIPE
   https://rdap-bootstrap.arin.net/bootstrap/ip/196.216.2.1  -> AFRINIC

   port43 identifies the answering registry on every top-level object:
   whois.arin.net, whois.ripe.net, whois.apnic.net, whois.afrinic.net,
   whois.lacnic.net
*/

// Event represents some event which has occured/may occur in the future..
// https://tools.ietf.org/html/rfc7483#section-4.5
type Event struct {
	Action string `json:"eventAction"`
	Date   string `json:"eventDate"`
}

// CIDR0 is one entry of the cidr0_cidrs extension.
// https://bitbucket.org/nroidec/rdap-cidr0-extension
type CIDR0 struct {
	V4Prefix string `json:"v4prefix"`
	V6Prefix string `json:"v6prefix"`
	Length   *int   `json:"length"`
}

// common carries the fields shared by ip network and autnum objects.
// Entities stays raw so that a malformed list can be told apart from a
// malformed member. The other raw fields are optional metadata, decoded
// one at a time so a wrong type leaves only that field unset.
type common struct {
	Handle   json.RawMessage
	Name     json.RawMessage
	Type     json.RawMessage
	Country  json.RawMessage
	Status   json.RawMessage
	Port43   string
	Events   json.RawMessage
	Entities json.RawMessage
}

// IPNetwork is a topmost RDAP response object.
type IPNetwork struct {
	common
	StartAddress string
	EndAddress   string
	IPVersion    string `json:"ipVersion"`
	ParentHandle string
	CIDR0        json.RawMessage `json:"cidr0_cidrs"`
}

// Autnum represents information of Autonomous System registrations.
// Autnum is a topmost RDAP response object.
type Autnum struct {
	common
	StartAutnum *uint32
	EndAutnum   *uint32
}

// rawEntity is one member of an entities array.
type rawEntity struct {
	Handle   *string
	VCard    json.RawMessage `json:"vcardArray"`
	Roles    []string
	Entities json.RawMessage
}
