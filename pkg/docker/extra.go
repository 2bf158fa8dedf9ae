package docker

import (
	"encoding/json"
	"maps"
	"reflect"
	"strings"
	"sync"
)

// List documents keep the members this client has no field for, and the raw
// form of every member the daemon sent, so that a summary re-encodes to the
// document the daemon sent even where a field would encode differently
// (empty strings and maps under omitempty, members the daemon left out).

var knownKeys sync.Map // reflect.Type -> map[string]struct{}

func jsonKeys(t reflect.Type) map[string]struct{} {
	if keys, ok := knownKeys.Load(t); ok {
		return keys.(map[string]struct{})
	}
	keys := make(map[string]struct{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name != "" && name != "-" {
			keys[name] = struct{}{}
		}
	}
	knownKeys.Store(t, keys)
	return keys
}

// splitExtra returns the members of data not covered by the fields of t, and
// the raw members that are.
func splitExtra(data []byte, t reflect.Type) (extra, reported map[string]json.RawMessage, err error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, nil, err
	}
	known := jsonKeys(t)
	for k, v := range all {
		if _, ok := known[k]; ok {
			if reported == nil {
				reported = make(map[string]json.RawMessage, len(known))
			}
			reported[k] = v
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[k] = v
	}
	return extra, reported, nil
}

// mergeExtra encodes v and adds the extra members to the resulting object.
// When reported is non-nil the value came from the daemon: members it left
// out are not emitted, and members a field dropped are restored.
func mergeExtra(v any, extra, reported map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || (len(extra) == 0 && reported == nil) {
		return data, err
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if reported != nil {
		for k := range doc {
			if _, ok := reported[k]; !ok {
				delete(doc, k)
			}
		}
	}
	for _, members := range []map[string]json.RawMessage{reported, extra} {
		for k, raw := range members {
			if _, ok := doc[k]; !ok {
				doc[k] = raw
			}
		}
	}
	return json.Marshal(doc)
}

type containerSummary ContainerSummary

// UnmarshalJSON implements json.Unmarshaler.
func (s *ContainerSummary) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, (*containerSummary)(s)); err != nil {
		return err
	}
	var err error
	s.Extra, s.reported, err = splitExtra(data, reflect.TypeFor[containerSummary]())
	return err
}

// MarshalJSON implements json.Marshaler.
func (s ContainerSummary) MarshalJSON() ([]byte, error) {
	return mergeExtra(containerSummary(s), s.Extra, s.reported)
}

type port Port

// UnmarshalJSON implements json.Unmarshaler.
func (p *Port) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, (*port)(p)); err != nil {
		return err
	}
	extra, reported, err := splitExtra(data, reflect.TypeFor[port]())
	if reported == nil {
		reported = map[string]json.RawMessage{}
	}
	maps.Copy(reported, extra)
	p.reported = reported
	return err
}

// MarshalJSON implements json.Marshaler.
func (p Port) MarshalJSON() ([]byte, error) {
	return mergeExtra(port(p), nil, p.reported)
}

type imageSummary ImageSummary

// UnmarshalJSON implements json.Unmarshaler.
func (s *ImageSummary) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, (*imageSummary)(s)); err != nil {
		return err
	}
	var err error
	s.Extra, s.reported, err = splitExtra(data, reflect.TypeFor[imageSummary]())
	return err
}

// MarshalJSON implements json.Marshaler.
func (s ImageSummary) MarshalJSON() ([]byte, error) {
	return mergeExtra(imageSummary(s), s.Extra, s.reported)
}

type networkResource NetworkResource

// UnmarshalJSON implements json.Unmarshaler.
func (n *NetworkResource) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, (*networkResource)(n)); err != nil {
		return err
	}
	var err error
	n.Extra, n.reported, err = splitExtra(data, reflect.TypeFor[networkResource]())
	return err
}

// MarshalJSON implements json.Marshaler.
func (n NetworkResource) MarshalJSON() ([]byte, error) {
	return mergeExtra(networkResource(n), n.Extra, n.reported)
}
