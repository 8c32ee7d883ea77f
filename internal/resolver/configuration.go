// Package resolver turns a declarative Flink cluster definition into the
// key/value configuration the Flink launcher accepts: Revise validates
// and normalizes the definition (reserved-key filtering, plugin
// normalization, S3 path rewriting, plugin auto-inclusion), and
// ToFlinkRawConfig composes the final ordered config map.
package resolver

import (
	"github.com/Al-assad/potamoi-experiment/internal/rawconfig"
)

// Configuration is an ordered Flink key/value config map. A later Append
// for a key already present overwrites its value in place (both CpuConf's
// double-key quirk and the extRawConfigs overlay rely on last-append
// wins), while empty values are silently skipped rather than overwriting
// a prior non-empty one, so elision holds at the config-composition level
// and not just within a single fragment's own RawMapping.
type Configuration struct {
	order  []string
	values map[string]string
}

// NewConfiguration returns an empty Configuration.
func NewConfiguration() *Configuration {
	return &Configuration{values: map[string]string{}}
}

// Append appends key=value, applying the elision invariant: a nil, empty
// string/collection, or empty-optional value is dropped rather than
// appended.
func (c *Configuration) Append(key string, value any) {
	if rawconfig.IsEmpty(value) {
		return
	}
	encoded := rawconfig.EncodeValue(rawconfig.Unwrap(value))
	if _, exists := c.values[key]; !exists {
		c.order = append(c.order, key)
	}
	c.values[key] = encoded
}

// AppendEntries appends every entry in order, per-entry Append semantics.
func (c *Configuration) AppendEntries(entries []rawconfig.Entry) {
	for _, e := range entries {
		c.Append(e.Key, e.Value)
	}
}

// AppendFragment appends a fragment's full raw mapping.
func (c *Configuration) AppendFragment(f rawconfig.Fragment) {
	c.AppendEntries(f.RawMapping())
}

// Get returns the value currently stored for key.
func (c *Configuration) Get(key string) (string, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Has reports whether key is present.
func (c *Configuration) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

// Keys returns the keys in first-append order.
func (c *Configuration) Keys() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// ToMap returns a plain copy of the accumulated key/value pairs, for
// handing to the Flink launcher.
func (c *Configuration) ToMap() map[string]string {
	out := make(map[string]string, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}
