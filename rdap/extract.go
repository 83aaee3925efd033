package rdap

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
)

// contactExtractor pulls the contact list out of a top-level entities array
// according to one registry's layout.
type contactExtractor interface {
	extract(entities json.RawMessage, withHandle bool, log *slog.Logger) ([]Contact, error)
}

// flatExtractor walks entities one level deep. skipMsg is logged for every
// entity that does not carry a usable contact.
type flatExtractor struct {
	skipMsg string
}

// arinExtractor also walks the entities nested below the first top-level
// entity, where ARIN keeps the registrant's POCs.
type arinExtractor struct{}

// nopExtractor is used for registries whose layout is not handled yet.
type nopExtractor struct {
	rir string
}

func extractorFor(k RIRKey, name string) contactExtractor {
	switch k {
	case RkRipe:
		return flatExtractor{skipMsg: "RIPE filters all contacts except abuse contacts; filtered contact not shown"}
	case RkApnic:
		return flatExtractor{skipMsg: "APNIC entity without usable contact data; please report with debug logs"}
	case RkAfrinic:
		return flatExtractor{skipMsg: "AFRINIC entity without usable contact data skipped"}
	case RkArin:
		return arinExtractor{}
	}
	return nopExtractor{rir: name}
}

// splitEntities decodes an entities array into its raw members. An absent
// array is empty; anything other than an array is a structural failure.
func splitEntities(raw json.RawMessage) ([]json.RawMessage, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var ret []json.RawMessage
	if err := json.Unmarshal(raw, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// entityContact decodes one entity into a Contact. The error reports why the
// entity carries no usable contact; callers skip it.
func entityContact(raw json.RawMessage, withHandle bool, log *slog.Logger) (Contact, error) {

	var ent rawEntity
	if err := json.Unmarshal(raw, &ent); err != nil {
		return Contact{}, errors.WithMessage(err, "entity")
	}

	c, err := DecodeVCardArray(ent.VCard, log)
	if err != nil {
		return Contact{}, err
	}

	if ent.Roles == nil {
		return Contact{}, errors.New("entity: roles missing")
	}
	c.Roles = mergeRoles(ent.Roles, c.Roles)

	if withHandle {
		if ent.Handle == nil {
			return Contact{}, errors.New("entity: handle missing")
		}
		c.Handle = ptr(strings.TrimSpace(*ent.Handle))
	}

	return c, nil
}

func collect(members []json.RawMessage, withHandle bool, log *slog.Logger, skipMsg string) []Contact {
	var ret []Contact
	for ix, raw := range members {
		c, err := entityContact(raw, withHandle, log)
		if err != nil {
			log.Debug(skipMsg, "index", ix, "err", err)
			continue
		}
		ret = append(ret, c)
	}
	return ret
}

func (x flatExtractor) extract(entities json.RawMessage, withHandle bool, log *slog.Logger) ([]Contact, error) {

	members, err := splitEntities(entities)
	if err != nil {
		return nil, err
	}
	return collect(members, withHandle, log, x.skipMsg), nil
}

func (arinExtractor) extract(entities json.RawMessage, withHandle bool, log *slog.Logger) ([]Contact, error) {

	members, err := splitEntities(entities)
	if err != nil {
		return nil, err
	}

	ret := collect(members, withHandle, log, "ARIN entity without usable contact data skipped")
	if len(members) == 0 {
		return ret, nil
	}

	var first struct {
		Entities json.RawMessage
	}
	if err := json.Unmarshal(members[0], &first); err != nil {
		return nil, errors.WithMessage(err, "first entity")
	}

	nested, err := splitEntities(first.Entities)
	if err != nil {
		return nil, errors.WithMessage(err, "nested entities")
	}

	log.Debug("walking ARIN nested entities", "count", len(nested))
	return append(ret, collect(nested, withHandle, log, "ARIN nested entity without usable contact data skipped")...), nil
}

func (x nopExtractor) extract(_ json.RawMessage, _ bool, log *slog.Logger) ([]Contact, error) {
	log.Debug("contact extraction not supported for registry", "rir", x.rir)
	return nil, nil
}
