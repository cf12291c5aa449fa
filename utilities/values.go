package utilities

import (
	"github.com/elliotchance/orderedmap/v3"
)

// Values is an ordered name to literal mapping. A nil *Values is an empty
// map.
type Values struct {
	m *orderedmap.OrderedMap[string, string]
}

// NewValues builds a map from alternating name, literal pairs.
func NewValues(pairs ...string) *Values {
	v := &Values{m: orderedmap.NewOrderedMap[string, string]()}
	for i := 0; i+1 < len(pairs); i += 2 {
		v.m.Set(pairs[i], pairs[i+1])
	}
	return v
}

func (v *Values) Set(name, literal string) {
	v.m.Set(name, literal)
}

func (v *Values) Get(name string) (string, bool) {
	if v == nil {
		return "", false
	}
	return v.m.Get(name)
}

func (v *Values) Len() int {
	if v == nil {
		return 0
	}
	return v.m.Len()
}

// Keys returns names in insertion order.
func (v *Values) Keys() []string {
	if v == nil {
		return nil
	}
	keys := make([]string, 0, v.m.Len())
	for el := v.m.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Key)
	}
	return keys
}
