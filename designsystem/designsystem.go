// Package designsystem composes the theme, the utility and variant
// registries and the candidate parser into one immutable object answering
// compilation and enumeration queries.
package designsystem

import (
	"io"
	"sync"

	"go.uber.org/zap"

	"twc/candidate"
	"twc/compat"
	"twc/theme"
	"twc/utilities"
	"twc/variants"
)

// DesignSystem is safe for concurrent use once Load returns.
type DesignSystem struct {
	log       *zap.Logger
	theme     *theme.Theme
	utilities *utilities.Registry
	variants  *variants.Registry
	important bool
	resolved  *compat.Resolved
	closer    any

	memo sync.Map // raw candidate -> compiled
}

type compiled struct {
	css string
	ok  bool
}

// ClassEntry is one enumerable class with the modifiers it accepts.
type ClassEntry = utilities.ClassEntry

// SelectorArgs select a value and modifier of a variant.
type SelectorArgs struct {
	Value    string
	Modifier string
}

// VariantEntry describes one registered variant for tooling.
type VariantEntry struct {
	Name string
	// Values are suggested values, for compound variants the variants
	// usable as their value.
	Values     []string
	HasDash    bool
	IsCompound bool

	reg *variants.Registry
}

// Selectors renders the wrappers the variant produces for args, empty when
// the combination does not apply.
func (e VariantEntry) Selectors(args SelectorArgs) []string {
	if e.reg == nil {
		return []string{}
	}
	return e.reg.Selectors(e.Name, args.Value, args.Modifier)
}

// InvalidSet remembers candidates known not to compile. It is owned by the
// caller and must not be shared between concurrent Compile calls.
type InvalidSet map[string]struct{}

func (s InvalidSet) Has(raw string) bool {
	_, ok := s[raw]
	return ok
}

func (s InvalidSet) Add(raw string) {
	s[raw] = struct{}{}
}

// Theme returns the theme store. It must not be modified.
func (ds *DesignSystem) Theme() *theme.Theme {
	return ds.theme
}

// Important reports whether every declaration is emitted as !important.
func (ds *DesignSystem) Important() bool {
	return ds.important
}

// Config reads a value from the resolved legacy configuration.
func (ds *DesignSystem) Config(path string) (any, bool) {
	if ds.resolved == nil {
		return nil, false
	}
	return ds.resolved.Get(path)
}

// ParseCandidate parses raw against the registered vocabulary.
func (ds *DesignSystem) ParseCandidate(raw string) (candidate.Candidate, bool) {
	return candidate.Parse(raw, ds.vocabulary())
}

// ClassList enumerates every producible class name. Entries without
// enumerable modifiers carry an empty list.
func (ds *DesignSystem) ClassList() []ClassEntry {
	list := ds.utilities.ClassList()
	for i := range list {
		if list[i].Modifiers == nil {
			list[i].Modifiers = []string{}
		}
	}
	return list
}

// Variants enumerates registered variants in registration order.
func (ds *DesignSystem) Variants() []VariantEntry {
	entries := ds.variants.List()
	out := make([]VariantEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, VariantEntry{
			Name:       e.Name,
			Values:     e.Values,
			HasDash:    e.HasDash,
			IsCompound: e.Kind == candidate.VariantCompound,
			reg:        ds.variants,
		})
	}
	return out
}

// Close releases module loader resources (the Lua interpreter).
func (ds *DesignSystem) Close() error {
	return closeLoader(ds.closer)
}

func closeLoader(l any) error {
	if c, ok := l.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (ds *DesignSystem) vocabulary() candidate.Vocabulary {
	return vocabulary{ds.utilities, ds.variants}
}

type vocabulary struct {
	u *utilities.Registry
	v *variants.Registry
}

func (voc vocabulary) IsStaticUtility(name string) bool     { return voc.u.IsStaticUtility(name) }
func (voc vocabulary) IsFunctionalUtility(name string) bool { return voc.u.IsFunctionalUtility(name) }

func (voc vocabulary) VariantKind(name string) (candidate.VariantKind, bool) {
	return voc.v.VariantKind(name)
}
