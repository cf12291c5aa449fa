package candidate

import (
	"fmt"
	"strconv"
	"strings"
)

// treeWriter builds an indented text tree.
type treeWriter struct {
	w *strings.Builder
}

func (tw treeWriter) line(depth int, format string, args ...any) {
	for range depth {
		tw.w.WriteString("  ")
	}
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

func (tw treeWriter) text(depth int, label, value string) {
	if value == "" {
		return
	}
	tw.line(depth, "%s: %s", label, strconv.Quote(value))
}

// Dump renders c as an indented tree for troubleshooting.
func Dump(c Candidate) string {
	tw := treeWriter{w: &strings.Builder{}}
	tw.text(0, "candidate", c.Raw)

	switch c.Kind {
	case Static:
		tw.line(1, "static %s", c.Root)
	case Functional:
		tw.line(1, "functional %s", c.Root)
		dumpValue(tw, 2, c.Value)
		dumpModifier(tw, 2, c.Modifier)
	case ArbitraryProperty:
		tw.line(1, "arbitrary property")
		tw.text(2, "property", c.Property)
		dumpValue(tw, 2, c.Value)
		dumpModifier(tw, 2, c.Modifier)
	}
	if c.Negative {
		tw.line(1, "negative")
	}
	if c.Important {
		tw.line(1, "important")
	}
	for _, v := range c.Variants {
		dumpVariant(tw, 1, &v)
	}
	return tw.w.String()
}

func dumpVariant(tw treeWriter, depth int, v *Variant) {
	if v.Root == "" {
		tw.line(depth, "variant %s", v.Kind)
	} else {
		tw.line(depth, "variant %s %s", v.Kind, v.Root)
	}
	tw.text(depth+1, "selector", v.Selector)
	dumpValue(tw, depth+1, v.Value)
	dumpModifier(tw, depth+1, v.Modifier)
	if v.Inner != nil {
		dumpVariant(tw, depth+1, v.Inner)
	}
}

func dumpValue(tw treeWriter, depth int, v *Value) {
	if v == nil {
		return
	}
	kind := "named"
	if v.Kind == Arbitrary {
		kind = "arbitrary"
	}
	tw.line(depth, "value %s %s", kind, strconv.Quote(v.Value))
	tw.text(depth+1, "type", v.DataType)
	tw.text(depth+1, "fraction", v.Fraction)
}

func dumpModifier(tw treeWriter, depth int, m *Modifier) {
	if m == nil {
		return
	}
	kind := "named"
	if m.Kind == Arbitrary {
		kind = "arbitrary"
	}
	tw.line(depth, "modifier %s %s", kind, strconv.Quote(m.Value))
}
