// Package params provides the configuration source the harness resolves
// named parameters through. Keys are namespaced with '/' separators; the
// controller prefixes every lookup with its node name, so a parameter
// "max_speed" of node "wander" is stored under "wander/max_speed".
package params

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source is a key-value configuration lookup. Lookups are idempotent and
// lazy: the harness resolves each parameter per access, never caching.
type Source interface {
	// Lookup returns the value for key and whether it is set.
	Lookup(key string) (any, bool)
}

// MapSource is a Source backed by a flat map. The zero value is an empty
// source; a nil MapSource is safe to query.
type MapSource map[string]any

// Ensure MapSource implements Source.
var _ Source = (MapSource)(nil)

func (m MapSource) Lookup(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

// LoadFile reads a YAML document and flattens nested mappings into a
// MapSource with '/'-joined keys:
//
//	wander:
//	  max_speed: 0.3
//	  obstacle_clearance: 0.5
//
// becomes {"wander/max_speed": 0.3, "wander/obstacle_clearance": 0.5}.
func LoadFile(path string) (MapSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse flattens a YAML document into a MapSource. See LoadFile.
func Parse(data []byte) (MapSource, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("params: parse: %w", err)
	}

	out := MapSource{}
	flatten("", doc, out)
	return out, nil
}

func flatten(prefix string, node map[string]any, out MapSource) {
	for key, v := range node {
		full := key
		if prefix != "" {
			full = prefix + "/" + key
		}
		if child, ok := v.(map[string]any); ok {
			flatten(full, child, out)
			continue
		}
		out[full] = v
	}
}

// Resolve looks up key in src and returns it as T, falling back to def when
// the key is unset or has an incompatible type. Numeric YAML values arrive
// as int or float64; Resolve converts between the two so a config "0.5" and
// a config "1" both satisfy a float64 parameter.
func Resolve[T any](src Source, key string, def T) T {
	if src == nil {
		return def
	}
	v, ok := src.Lookup(key)
	if !ok {
		return def
	}
	if typed, ok := v.(T); ok {
		return typed
	}
	if converted, ok := convertNumeric[T](v); ok {
		return converted
	}
	return def
}

func convertNumeric[T any](v any) (T, bool) {
	var zero T
	switch any(zero).(type) {
	case float64:
		if i, ok := v.(int); ok {
			return any(float64(i)).(T), true
		}
	case int:
		if f, ok := v.(float64); ok && f == float64(int(f)) {
			return any(int(f)).(T), true
		}
	}
	return zero, false
}
