// Package opts holds the option builders for every daemon endpoint. Setters
// mutate the builder and return it for chaining; nothing is validated until
// Query or Body is called, which is when a request is actually encoded.
//
// Unset fields are never encoded, so an empty builder yields an empty query
// and an empty JSON object and the daemon applies its defaults. Encoding is
// deterministic: query keys and JSON object keys are emitted sorted.
package opts

import (
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/docker/docker/api/types/filters"

	apperrors "github.com/zorak1103/berth/pkg/errors"
)

// query accumulates URL query parameters and daemon filters.
type query struct {
	params  map[string][]string
	filters filters.Args
}

func (q *query) set(key string, values ...string) {
	if q.params == nil {
		q.params = make(map[string][]string)
	}
	q.params[key] = values
}

func (q *query) add(key, value string) {
	if q.params == nil {
		q.params = make(map[string][]string)
	}
	q.params[key] = append(q.params[key], value)
}

func (q *query) setBool(key string, v bool) {
	q.set(key, strconv.FormatBool(v))
}

func (q *query) setInt(key string, v int64) {
	q.set(key, strconv.FormatInt(v, 10))
}

func (q *query) setTime(key string, t time.Time) {
	q.setInt(key, t.Unix())
}

func (q *query) filter(key, value string) {
	if q.filters.Len() == 0 {
		q.filters = filters.NewArgs()
	}
	q.filters.Add(key, value)
}

// encode validates every value and returns the query. Filters are sent as a
// JSON document in the "filters" parameter.
func (q *query) encode() (url.Values, error) {
	values := url.Values{}
	for key, vs := range q.params {
		if err := checkUTF8(key, vs); err != nil {
			return nil, err
		}
		values[key] = append([]string(nil), vs...)
	}
	if q.filters.Len() > 0 {
		for _, key := range q.filters.Keys() {
			if err := checkUTF8("filters."+key, q.filters.Get(key)); err != nil {
				return nil, err
			}
		}
		encoded, err := filters.ToJSON(q.filters)
		if err != nil {
			return nil, &apperrors.UsageError{Field: "filters", Reason: err.Error()}
		}
		values.Set("filters", encoded)
	}
	return values, nil
}

// body accumulates JSON object members keyed by their wire name.
type body map[string]any

func (b *body) set(key string, v any) {
	if *b == nil {
		*b = make(body)
	}
	(*b)[key] = v
}

// setStrings stores a copy of v. A nil slice unsets key; an empty one is
// sent as [].
func (b *body) setStrings(key string, v []string) {
	if v == nil {
		if *b != nil {
			delete(*b, key)
		}
		return
	}
	b.set(key, slices.Clone(v))
}

// nested returns the object stored under key, creating it if needed.
func (b *body) nested(key string) *body {
	if *b == nil {
		*b = make(body)
	}
	if inner, ok := (*b)[key].(*body); ok {
		return inner
	}
	inner := &body{}
	(*b)[key] = inner
	return inner
}

// flatten drops empty nested objects so they are not sent.
func (b body) flatten() map[string]any {
	out := make(map[string]any, len(b))
	for k, v := range b {
		if inner, ok := v.(*body); ok {
			if len(*inner) == 0 {
				continue
			}
			out[k] = inner.flatten()
			continue
		}
		out[k] = v
	}
	return out
}

func (b body) encode() ([]byte, error) {
	doc := b.flatten()
	for k, v := range doc {
		if err := checkUTF8(k, v); err != nil {
			return nil, err
		}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, &apperrors.UsageError{Field: "body", Reason: err.Error()}
	}
	return data, nil
}

// checkUTF8 walks v and rejects any string that is not valid UTF-8.
func checkUTF8(field string, v any) error {
	return walkStrings(field, reflect.ValueOf(v))
}

func walkStrings(field string, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.String:
		if !utf8.ValidString(rv.String()) {
			return &apperrors.UsageError{Field: field, Reason: "value is not valid UTF-8"}
		}
	case reflect.Pointer, reflect.Interface:
		if !rv.IsNil() {
			return walkStrings(field, rv.Elem())
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := walkStrings(fmt.Sprintf("%s[%d]", field, i), rv.Index(i)); err != nil {
				return err
			}
		}
	case reflect.Struct:
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" {
				name = f.Name
			}
			if err := walkStrings(field+"."+name, rv.Field(i)); err != nil {
				return err
			}
		}
	case reflect.Map:
		iter := rv.MapRange()
		for iter.Next() {
			key := iter.Key()
			if key.Kind() == reflect.String && !utf8.ValidString(key.String()) {
				return &apperrors.UsageError{Field: field, Reason: "key is not valid UTF-8"}
			}
			if err := walkStrings(fmt.Sprintf("%s.%v", field, key.Interface()), iter.Value()); err != nil {
				return err
			}
		}
	}
	return nil
}

func required(field, value string) error {
	if value == "" {
		return &apperrors.UsageError{Field: field, Reason: "must not be empty"}
	}
	return nil
}
