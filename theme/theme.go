// Package theme implements the design token store: a flat table of
// custom-property values addressed by namespace and key.
package theme

import (
	"iter"
	"strings"

	"github.com/elliotchance/orderedmap/v3"
)

// Option is a bit set of per-entry flags.
type Option uint8

const (
	// OptionInline makes utilities emit the literal value instead of var(--name).
	OptionInline Option = 1 << iota
	// OptionDefault marks a fallback value that any later non-default write
	// replaces and that never replaces a non-default value.
	OptionDefault
	// OptionReference entries can be used by utilities but are never
	// emitted as variables of their own.
	OptionReference
)

// Has reports whether all bits of o2 are set.
func (o Option) Has(o2 Option) bool {
	return o&o2 == o2
}

// Entry is a single theme value.
type Entry struct {
	Value   string
	Options Option
}

// Theme is the ordered theme value store. The zero value is not usable,
// create instances with New.
type Theme struct {
	values *orderedmap.OrderedMap[string, Entry]
}

// New creates an empty theme.
func New() *Theme {
	return &Theme{values: orderedmap.NewOrderedMap[string, Entry]()}
}

// Clone returns an independent copy of the theme.
func (t *Theme) Clone() *Theme {
	c := New()
	for el := t.values.Front(); el != nil; el = el.Next() {
		c.values.Set(el.Key, el.Value)
	}
	return c
}

// Len returns number of stored entries.
func (t *Theme) Len() int {
	return t.values.Len()
}

// Add inserts or overwrites a value. Writing "initial" removes the entry, or
// the whole namespace when name has the form "--ns-*".
func (t *Theme) Add(name, value string, opts Option) {
	if value == "initial" {
		if ns, ok := strings.CutSuffix(name, "-*"); ok {
			t.ClearNamespace(ns)
			return
		}
		t.values.Delete(name)
		return
	}
	if opts.Has(OptionDefault) {
		if existing, ok := t.values.Get(name); ok && !existing.Options.Has(OptionDefault) {
			return
		}
	}
	t.values.Set(name, Entry{Value: value, Options: opts})
}

// Delete removes a single entry, reporting whether it existed.
func (t *Theme) Delete(name string) bool {
	return t.values.Delete(name)
}

// ClearNamespace removes every entry of the namespace including the
// namespace root value itself.
func (t *Theme) ClearNamespace(ns string) {
	var doomed []string
	for el := t.values.Front(); el != nil; el = el.Next() {
		if el.Key == ns || strings.HasPrefix(el.Key, ns+"-") {
			doomed = append(doomed, el.Key)
		}
	}
	for _, name := range doomed {
		t.values.Delete(name)
	}
}

// Get returns the first existing entry of the priority ordered names.
func (t *Theme) Get(names ...string) (Entry, bool) {
	for _, name := range names {
		if e, ok := t.values.Get(name); ok {
			return e, true
		}
	}
	return Entry{}, false
}

// Resolve looks up a utility value in the priority ordered namespaces and
// returns the full name of the matching entry. Decimal points in value are
// looked up using the underscore storage convention.
func (t *Theme) Resolve(value string, namespaces []string) (string, Entry, bool) {
	key := StorageKey(value)
	for _, ns := range namespaces {
		name := ns
		if key != "" {
			name = ns + "-" + key
		}
		if e, ok := t.values.Get(name); ok {
			return name, e, true
		}
	}
	return "", Entry{}, false
}

// ResolveValue is Resolve returning the CSS value a utility should emit.
func (t *Theme) ResolveValue(value string, namespaces []string) (string, bool) {
	name, e, ok := t.Resolve(value, namespaces)
	if !ok {
		return "", false
	}
	return t.Reference(name, e), true
}

// Reference returns var(--name) for regular entries and the literal value
// for inline ones.
func (t *Theme) Reference(name string, e Entry) string {
	if e.Options.Has(OptionInline) {
		return e.Value
	}
	return "var(" + name + ")"
}

// Entries lazily iterates keys of the namespace in insertion order. Nested
// sub-properties (--text-sm--line-height) and the namespace root are skipped.
func (t *Theme) Entries(ns string) iter.Seq2[string, Entry] {
	prefix := ns + "-"
	return func(yield func(string, Entry) bool) {
		for el := t.values.Front(); el != nil; el = el.Next() {
			key, ok := strings.CutPrefix(el.Key, prefix)
			if !ok || key == "" || strings.Contains(key, "--") {
				continue
			}
			if !yield(key, el.Value) {
				return
			}
		}
	}
}

// Keys returns the namespace keys in insertion order.
func (t *Theme) Keys(ns string) []string {
	var keys []string
	for k := range t.Entries(ns) {
		keys = append(keys, k)
	}
	return keys
}

// HasNamespace reports whether any entry (or the root value) exists in ns.
func (t *Theme) HasNamespace(ns string) bool {
	for el := t.values.Front(); el != nil; el = el.Next() {
		if el.Key == ns || strings.HasPrefix(el.Key, ns+"-") {
			return true
		}
	}
	return false
}

// All iterates over every entry in insertion order.
func (t *Theme) All() iter.Seq2[string, Entry] {
	return func(yield func(string, Entry) bool) {
		for el := t.values.Front(); el != nil; el = el.Next() {
			if !yield(el.Key, el.Value) {
				return
			}
		}
	}
}

// StorageKey converts a utility suffix into its stored key form (0.5 -> 0_5).
func StorageKey(value string) string {
	return strings.ReplaceAll(value, ".", "_")
}

// UtilitySuffix converts a stored key into the suffix used in utility
// names (0_5 -> 0.5). Only numeric looking keys are converted.
func UtilitySuffix(key string) string {
	if !strings.Contains(key, "_") {
		return key
	}
	for _, r := range key {
		if (r < '0' || r > '9') && r != '_' {
			return key
		}
	}
	return strings.ReplaceAll(key, "_", ".")
}

// Namespaces returns the distinct leading segments of the stored names
// (--color, --text, ...) in order of first appearance.
func (t *Theme) Namespaces() []string {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	for el := t.values.Front(); el != nil; el = el.Next() {
		name := el.Key
		if i := strings.IndexByte(name[min(2, len(name)):], '-'); i >= 0 {
			name = name[:i+2]
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
