// Package compress implements the run-length codec and style deduplication
// for compact sheet encoding.
package compress

import (
	"encoding/json"
	"fmt"
)

// StyleRegistry deduplicates style attribute maps into small stable ids
// ("s1", "s2", ...). Deduplication is by canonical serialized content, not
// identity. A registry is owned by one document-processing context and is
// never shared across concurrent documents.
type StyleRegistry struct {
	byContent map[string]string
	byID      map[string]map[string]interface{}
	next      int
}

// NewStyleRegistry creates an empty registry.
func NewStyleRegistry() *StyleRegistry {
	return &StyleRegistry{
		byContent: make(map[string]string),
		byID:      make(map[string]map[string]interface{}),
	}
}

// Intern returns the id for the given attribute map, allocating one on
// first sight. Empty or nil maps intern to the empty id.
func (r *StyleRegistry) Intern(attrs map[string]interface{}) string {
	if len(attrs) == 0 {
		return ""
	}
	key := canonicalKey(attrs)
	if id, ok := r.byContent[key]; ok {
		return id
	}
	r.next++
	id := fmt.Sprintf("s%d", r.next)
	r.byContent[key] = id
	r.byID[id] = attrs
	return id
}

// Lookup returns the attribute map for an id.
func (r *StyleRegistry) Lookup(id string) (map[string]interface{}, bool) {
	attrs, ok := r.byID[id]
	return attrs, ok
}

// Len returns the number of distinct interned styles.
func (r *StyleRegistry) Len() int {
	return len(r.byID)
}

// Snapshot returns the id-to-attributes table for the compact document.
func (r *StyleRegistry) Snapshot() map[string]map[string]interface{} {
	out := make(map[string]map[string]interface{}, len(r.byID))
	for id, attrs := range r.byID {
		out[id] = attrs
	}
	return out
}

// canonicalKey serializes attrs with deterministic key order.
// encoding/json sorts map keys, including nested maps.
func canonicalKey(attrs map[string]interface{}) string {
	b, err := json.Marshal(attrs)
	if err != nil {
		// Attribute maps come from the workbook reader and hold only
		// scalars; a marshal failure means a programming error upstream.
		return fmt.Sprintf("!unserializable:%v", attrs)
	}
	return string(b)
}
