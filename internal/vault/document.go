package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/ethos-finder/ethos/internal/provider"
)

// FieldProviderKey identifies the key shared by all generic query providers.
const FieldProviderKey = "provider_key"

// Services are the well-known services with a dedicated secret.
var Services = []string{provider.NameDNSDumpster, provider.NameShodan}

// secretFields lists every encrypted field in document order.
var secretFields = append([]string{FieldProviderKey}, Services...)

const (
	jsonProviderKey   = "rapidapi_key"
	jsonProviderHosts = "rapidapi_hosts"
)

func jsonKey(field string) string {
	if field == FieldProviderKey {
		return jsonProviderKey
	}
	return field + "_api_key"
}

// IsService reports whether name is a well-known service.
func IsService(name string) bool {
	for _, s := range Services {
		if s == name {
			return true
		}
	}
	return false
}

// Document is the decrypted content of the vault.
type Document struct {
	ProviderKey   string
	ProviderHosts map[string]string
	ExtraKeys     map[string]string

	// fields this version does not know, written back untouched
	unknown map[string]json.RawMessage
}

func emptyDocument() Document {
	return Document{
		ProviderHosts: map[string]string{},
		ExtraKeys:     map[string]string{},
		unknown:       map[string]json.RawMessage{},
	}
}

func (d Document) secret(field string) string {
	if field == FieldProviderKey {
		return d.ProviderKey
	}
	return d.ExtraKeys[field]
}

func (d *Document) setSecret(field, value string) {
	if field == FieldProviderKey {
		d.ProviderKey = value
		return
	}
	if d.ExtraKeys == nil {
		d.ExtraKeys = map[string]string{}
	}
	d.ExtraKeys[field] = value
}

// Names returns the configured provider names sorted.
func (d Document) Names() []string {
	names := make([]string, 0, len(d.ProviderHosts))
	for name := range d.ProviderHosts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d Document) clone() Document {
	out := emptyDocument()
	out.ProviderKey = d.ProviderKey
	for k, v := range d.ProviderHosts {
		out.ProviderHosts[k] = v
	}
	for k, v := range d.ExtraKeys {
		out.ExtraKeys[k] = v
	}
	for k, v := range d.unknown {
		out.unknown[k] = v
	}
	return out
}

var errNotObject = errors.New("vault document is not a JSON object")

// decodeDocument parses the on-disk form. Secret values are returned as stored.
func decodeDocument(data []byte) (Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		var syntax *json.SyntaxError
		if errors.As(err, &syntax) {
			return Document{}, fmt.Errorf("parse vault document: %w", err)
		}
		return Document{}, errNotObject
	}
	if raw == nil {
		return Document{}, errNotObject
	}

	doc := emptyDocument()
	for _, field := range secretFields {
		key := jsonKey(field)
		msg, ok := raw[key]
		if !ok {
			continue
		}
		delete(raw, key)
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			return Document{}, fmt.Errorf("field %s: %w", key, err)
		}
		doc.setSecret(field, s)
	}

	if msg, ok := raw[jsonProviderHosts]; ok {
		delete(raw, jsonProviderHosts)
		if err := json.Unmarshal(msg, &doc.ProviderHosts); err != nil {
			return Document{}, fmt.Errorf("field %s: %w", jsonProviderHosts, err)
		}
		if doc.ProviderHosts == nil {
			doc.ProviderHosts = map[string]string{}
		}
	}

	doc.unknown = raw
	return doc, nil
}

// encodeDocument renders the on-disk form. Every known field is written, empty
// or not, so the file keeps a stable shape.
func encodeDocument(d Document) ([]byte, error) {
	out := make(map[string]any, len(d.unknown)+len(secretFields)+1)
	for k, v := range d.unknown {
		out[k] = v
	}
	for _, field := range secretFields {
		out[jsonKey(field)] = d.secret(field)
	}
	hosts := d.ProviderHosts
	if hosts == nil {
		hosts = map[string]string{}
	}
	out[jsonProviderHosts] = hosts

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode vault document: %w", err)
	}
	return append(data, '\n'), nil
}
