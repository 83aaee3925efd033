package rdap

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caffix/stringset"
)

// Labeled is a contact value with its optional vCard "type" parameter
// ("work", "voice", "cell", ...).
type Labeled struct {
	Type  *string `json:"type,omitempty"`
	Value string  `json:"value"`
}

// Contact is one decoded jCard. Pointer and slice fields are nil when the
// matching property was absent or could not be decoded.
type Contact struct {
	Handle    *string   `json:"handle,omitempty"`
	Name      *string   `json:"name,omitempty"`
	Kind      *string   `json:"kind,omitempty"`
	Addresses []Labeled `json:"addresses,omitempty"`
	Phones    []Labeled `json:"phones,omitempty"`
	Emails    []Labeled `json:"emails,omitempty"`
	Roles     []string  `json:"roles,omitempty"`
	Title     *string   `json:"title,omitempty"`
}

var (
	errShortProp = errors.New("property too short")
	errNotString = errors.New("value is not a string")
	errNoLabel   = errors.New("no label parameter")
)

// prop is a single jCard property: [name, params, type, value...].
type prop []interface{}

func (p prop) at(ix int) (interface{}, error) {
	if ix >= len(p) {
		return nil, errShortProp
	}
	return p[ix], nil
}

func (p prop) str(ix int) (string, error) {
	v, err := p.at(ix)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", errNotString
	}
	return s, nil
}

// param returns a string parameter; arrays of strings are joined with ",".
func (p prop) param(key string) (string, bool) {
	v, err := p.at(1)
	if err != nil {
		return "", false
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return "", false
	}
	switch V := m[key].(type) {
	case string:
		return V, true
	case []interface{}:
		parts := make([]string, 0, len(V))
		for _, iv := range V {
			if s, ok := iv.(string); ok {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, ","), true
		}
	}
	return "", false
}

// orElse tries a, then b when a fails.
func orElse[T any](a, b func(prop) (T, error)) func(prop) (T, error) {
	return func(p prop) (T, error) {
		if v, err := a(p); err == nil {
			return v, nil
		}
		return b(p)
	}
}

// apply runs parse and hands the result to set on success only.
func apply[T any](p prop, parse func(prop) (T, error), set func(T)) error {
	v, err := parse(p)
	if err != nil {
		return err
	}
	set(v)
	return nil
}

func parseTrimmed(p prop) (string, error) {
	s, err := p.str(3)
	return strings.TrimSpace(s), err
}

func parseText(p prop) (string, error) {
	return p.str(3)
}

func parseLabelAddr(p prop) (string, error) {
	lbl, ok := p.param("label")
	if !ok {
		return "", errNoLabel
	}
	return strings.ReplaceAll(lbl, "\n", " "), nil
}

func parseStructuredAddr(p prop) (string, error) {
	v, err := p.at(3)
	if err != nil {
		return "", err
	}
	parts, ok := v.([]interface{})
	if !ok {
		return "", fmt.Errorf("adr value is %T, not an array", v)
	}
	lines := make([]string, 0, len(parts))
	for _, iv := range parts {
		switch V := iv.(type) {
		case string:
			lines = append(lines, V)
		case []interface{}:
			for _, sub := range V {
				s, ok := sub.(string)
				if !ok {
					return "", errNotString
				}
				lines = append(lines, s)
			}
		default:
			return "", errNotString
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

func labeled(value func(prop) (string, error)) func(prop) (Labeled, error) {
	return func(p prop) (Labeled, error) {
		v, err := value(p)
		if err != nil {
			return Labeled{}, err
		}
		ret := Labeled{Value: v}
		if t, ok := p.param("type"); ok {
			ret.Type = &t
		}
		return ret, nil
	}
}

var (
	parseAddr  = labeled(orElse(parseLabelAddr, parseStructuredAddr))
	parsePhone = labeled(parseText)
	parseEmail = labeled(parseTrimmed)
)

func ptr(s string) *string { return &s }

// mergeRoles appends the roles of each list in order, lower-cased and
// without repeats.
func mergeRoles(lists ...[]string) []string {
	var ret []string
	seen := stringset.New()
	defer seen.Close()
	for _, l := range lists {
		for _, r := range l {
			r = strings.ToLower(strings.TrimSpace(r))
			if r == "" || seen.Has(r) {
				continue
			}
			seen.Insert(r)
			ret = append(ret, r)
		}
	}
	return ret
}

// decoder holds the jCard key table for one Contact.
type decoder struct {
	c *Contact
}

func (d *decoder) handlers() map[string]func(prop) error {
	c := d.c
	return map[string]func(prop) error{
		"fn": func(p prop) error {
			return apply(p, parseTrimmed, func(s string) { c.Name = ptr(s) })
		},
		"kind": func(p prop) error {
			return apply(p, parseTrimmed, func(s string) { c.Kind = ptr(s) })
		},
		"adr": func(p prop) error {
			return apply(p, parseAddr, func(l Labeled) { c.Addresses = append(c.Addresses, l) })
		},
		"tel": func(p prop) error {
			return apply(p, parsePhone, func(l Labeled) { c.Phones = append(c.Phones, l) })
		},
		"email": func(p prop) error {
			return apply(p, parseEmail, func(l Labeled) { c.Emails = append(c.Emails, l) })
		},
		"role": func(p prop) error {
			return apply(p, parseTrimmed, func(s string) { c.Roles = mergeRoles(c.Roles, []string{s}) })
		},
		"title": func(p prop) error {
			return apply(p, parseText, func(s string) { c.Title = ptr(s) })
		},
	}
}

// DecodeVCard decodes the property list of a jCard. Unknown keys are
// ignored; a property that does not decode leaves its field unset and
// decoding continues with the next property.
func DecodeVCard(props []interface{}, log *slog.Logger) Contact {

	if log == nil {
		log = slog.Default()
	}

	var c Contact
	d := decoder{c: &c}
	tbl := d.handlers()

	for ix := range props {

		p, ok := props[ix].([]interface{})
		if !ok {
			log.Debug("skipping jCard property", "index", ix, "err", "not an array")
			continue
		}

		key, err := prop(p).str(0)
		if err != nil {
			log.Debug("skipping jCard property", "index", ix, "err", err)
			continue
		}

		fn, ok := tbl[strings.ToLower(key)]
		if !ok {
			continue
		}

		if err := fn(prop(p)); err != nil {
			log.Debug("skipping jCard property", "key", key, "err", err)
		}
	}

	return c
}

// DecodeVCardArray validates a ["vcard", [...]] envelope and decodes it.
func DecodeVCardArray(raw json.RawMessage, log *slog.Logger) (Contact, error) {

	if len(raw) == 0 {
		return Contact{}, errors.New("vcardArray: missing")
	}

	var vc []interface{}
	if err := json.Unmarshal(raw, &vc); err != nil {
		return Contact{}, fmt.Errorf("vcardArray: %w", err)
	}

	if len(vc) < 2 {
		return Contact{}, errors.New("vcardArray: invalid -- not enough items in array")
	}

	if hdr, ok := vc[0].(string); !ok || hdr != "vcard" {
		return Contact{}, errors.New("vcardArray: invalid -- missing 'vcard' header")
	}

	props, ok := vc[1].([]interface{})
	if !ok {
		return Contact{}, errors.New("vcardArray: invalid -- property list is not an array")
	}

	return DecodeVCard(props, log), nil
}
