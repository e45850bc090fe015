package records

import (
	"encoding/json"
	"reflect"
	"slices"
	"strings"
)

// Extra holds attributes of a stored object that have no typed field, keyed
// by their JSON name.
type Extra map[string]json.RawMessage

var (
	recordFields = fieldNames(reflect.TypeOf(PolicyRecord{}))
	memberFields = fieldNames(reflect.TypeOf(FamilyMember{}))
	detailFields = fieldNames(reflect.TypeOf(PolicyDetail{}))
)

func (r PolicyRecord) MarshalJSON() ([]byte, error) {
	type plain PolicyRecord
	return marshalFlat(plain(r), r.Extra)
}

func (r *PolicyRecord) UnmarshalJSON(data []byte) error {
	type plain PolicyRecord
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownFields(data, recordFields)
	if err != nil {
		return err
	}
	p.Extra = extra
	*r = PolicyRecord(p)
	return nil
}

func (m FamilyMember) MarshalJSON() ([]byte, error) {
	type plain FamilyMember
	return marshalFlat(plain(m), m.Extra)
}

func (m *FamilyMember) UnmarshalJSON(data []byte) error {
	type plain FamilyMember
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownFields(data, memberFields)
	if err != nil {
		return err
	}
	p.Extra = extra
	*m = FamilyMember(p)
	return nil
}

func (d PolicyDetail) MarshalJSON() ([]byte, error) {
	type plain PolicyDetail
	return marshalFlat(plain(d), d.Extra)
}

func (d *PolicyDetail) UnmarshalJSON(data []byte) error {
	type plain PolicyDetail
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownFields(data, detailFields)
	if err != nil {
		return err
	}
	p.Extra = extra
	*d = PolicyDetail(p)
	return nil
}

// marshalFlat encodes v and appends extra after its typed fields, in key
// order.
func marshalFlat(v any, extra Extra) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return raw, err
	}

	keys := make([]string, 0, len(extra))
	for key := range extra {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	out := raw[:len(raw)-1]
	for _, key := range keys {
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		value := extra[key]
		if len(value) == 0 {
			value = json.RawMessage("null")
		}
		if len(out) > 1 {
			out = append(out, ',')
		}
		out = append(out, name...)
		out = append(out, ':')
		out = append(out, value...)
	}
	return append(out, '}'), nil
}

// unknownFields returns the members of the JSON object in data whose names
// match none of known. Matching ignores case, as encoding/json does.
func unknownFields(data []byte, known map[string]struct{}) (Extra, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	var extra Extra
	for key, value := range doc {
		if _, ok := known[strings.ToLower(key)]; ok {
			continue
		}
		if extra == nil {
			extra = make(Extra)
		}
		extra[key] = value
	}
	return extra, nil
}

func fieldNames(t reflect.Type) map[string]struct{} {
	names := make(map[string]struct{})
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			for name := range fieldNames(field.Type) {
				names[name] = struct{}{}
			}
			continue
		}
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = field.Name
		}
		names[strings.ToLower(name)] = struct{}{}
	}
	return names
}
