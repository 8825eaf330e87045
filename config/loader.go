// Package config implements dotted-path JSON configuration loading: a
// Loader collects (path, field pointer) registrations from the
// components that own tunable settings, then Load walks one JSON
// document and assigns into every registered field by its dotted path.
//
// Grounded on the shape of the original source's StructLoader
// (struct_loader_test.cc): each component registers its own fields
// under its own path prefix, composing recursively, rather than one
// central struct mirroring every component's config. Reimplemented with
// Go reflection instead of C++ template-based member-pointer binding.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/sio-go/sio/sioerr"
)

// Loader maps dotted JSON paths to addressable struct fields.
type Loader struct {
	entries map[string]reflect.Value
}

// NewLoader creates an empty Loader.
func NewLoader() *Loader {
	return &Loader{entries: make(map[string]reflect.Value)}
}

// Register binds path to the value ptr points at. ptr must be a
// non-nil pointer; path need not be unique across components as long
// as it is unique within one Loader.
func (l *Loader) Register(path string, ptr any) {
	v := reflect.ValueOf(ptr)
	sioerr.Checkf(v.Kind() == reflect.Ptr && !v.IsNil(), "config: Register(%q) needs a non-nil pointer", path)
	l.entries[path] = v.Elem()
}

// Load parses data as a JSON object and assigns every value found at a
// registered dotted path into that path's bound field. Unregistered
// keys present in data are ignored; registered paths absent from data
// are left at their current value.
func (l *Loader) Load(data []byte) error {
	var root map[string]any
	if err := json.Unmarshal(data, &root); err != nil {
		return sioerr.Wrap(sioerr.IoError, err, "config: parse JSON document")
	}

	for path, field := range l.entries {
		raw, ok := lookupPath(root, strings.Split(path, "."))
		if !ok {
			continue
		}
		if err := assign(field, raw); err != nil {
			return sioerr.Wrapf(sioerr.InvalidArgument, err, "config: assign %q", path)
		}
	}
	return nil
}

func lookupPath(node map[string]any, segments []string) (any, bool) {
	v, ok := node[segments[0]]
	if !ok {
		return nil, false
	}
	if len(segments) == 1 {
		return v, true
	}
	next, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return lookupPath(next, segments[1:])
}

// assign converts a decoded JSON value (float64, bool, string, or
// nested map/slice) into field's static type via reflection.
func assign(field reflect.Value, raw any) error {
	switch field.Kind() {
	case reflect.Bool:
		b, ok := raw.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", raw)
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := raw.(float64)
		if !ok {
			return fmt.Errorf("expected number, got %T", raw)
		}
		field.SetInt(int64(n))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := raw.(float64)
		if !ok {
			return fmt.Errorf("expected number, got %T", raw)
		}
		field.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		n, ok := raw.(float64)
		if !ok {
			return fmt.Errorf("expected number, got %T", raw)
		}
		field.SetFloat(n)
	case reflect.String:
		s, ok := raw.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", raw)
		}
		field.SetString(s)
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}
