// Package rawconfig models typed cluster-configuration fragments, each
// exposing an ordered list of Flink key/value pairs. Empty entries are
// elided before emission: a nil optional, empty string, empty collection,
// or optional wrapping an empty collection never reaches the final
// configuration.
package rawconfig

import (
	"reflect"
	"sort"
	"strings"
)

// Entry is one (key, value) pair contributed by a Fragment, before elision
// and string encoding are applied.
type Entry struct {
	Key   string
	Value any
}

// Fragment is implemented by every raw-config fragment type in this
// package (CpuConf, MemConf, ParConf, ...).
type Fragment interface {
	RawMapping() []Entry
}

func isEmptyReflect(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return true
		}
		return isEmptyReflect(rv.Elem())
	case reflect.String:
		return rv.Len() == 0
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	default:
		return false
	}
}

// isEmpty reports whether entry value v must be dropped under the
// Raw-Config elision invariant: v is nil, an empty optional, an empty
// collection, or an optional wrapping an empty collection.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return isEmptyReflect(rv)
}

// unwrap dereferences a non-nil pointer value to its inner value,
// otherwise returns v unchanged. Applied to entries that survive elision
// so optionals emit their inner value, not a pointer rendering.
func unwrap(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Elem().Interface()
	}
	return v
}

// IsEmpty reports whether v must be dropped under the elision rule: nil,
// empty string, empty collection, or an
// optional wrapping an empty collection. Exported so the resolver's
// Configuration builder can apply the same rule when composing the final
// emitted config, not just when a fragment emits its own raw mapping.
func IsEmpty(v any) bool { return isEmpty(v) }

// Unwrap dereferences a non-nil pointer value to its inner value,
// otherwise returns v unchanged. Exported for the same reason as IsEmpty.
func Unwrap(v any) any { return unwrap(v) }

// Elide runs the elision pass over a fragment's
// raw entries: empty values are dropped, surviving optionals are
// unwrapped. The result still holds typed Go values (strings, bools,
// slices, maps) — string encoding happens later, in the Configuration
// builder that composes the final emitted config (see resolver package).
func Elide(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if isEmpty(e.Value) {
			continue
		}
		out = append(out, Entry{Key: e.Key, Value: unwrap(e.Value)})
	}
	return out
}

// EncodeValue renders a value in its canonical Flink-config string form:
// a mapping value built with NewOrderedMap serializes as "k1=v1;k2=v2" in
// its insertion order, a plain map[string]string the same way in sorted
// key order; a []string serializes as elements joined by ";"; everything
// else uses its canonical string form (see encodeScalar).
func EncodeValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case []string:
		return strings.Join(t, ";")
	case orderedMap:
		parts := make([]string, 0, len(t.keys))
		for _, k := range t.keys {
			parts = append(parts, k+"="+t.values[k])
		}
		return strings.Join(parts, ";")
	case map[string]string:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+"="+t[k])
		}
		return strings.Join(parts, ";")
	default:
		return encodeScalar(v)
	}
}

// orderedMap lets a fragment emit a mapping-typed value whose key order
// must be preserved exactly on join, unlike a plain Go map.
type orderedMap struct {
	keys   []string
	values map[string]string
}

// NewOrderedMap builds an orderedMap from parallel key/value slices.
func NewOrderedMap(keys []string, values map[string]string) any {
	return orderedMap{keys: keys, values: values}
}
