package css

import (
	"fmt"
	"io"
	"strings"
)

// NodeKind tells which of the Node fields are meaningful.
type NodeKind int

const (
	KindRule        NodeKind = iota // selector block
	KindAtRule                      // @name params [block]
	KindDeclaration                 // property: value
)

// Declaration is a single property/value pair.
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// String returns the declaration as it appears inside a block, without the
// trailing semicolon.
func (d Declaration) String() string {
	if d.Important {
		return d.Property + ": " + d.Value + " !important"
	}
	return d.Property + ": " + d.Value
}

// Decl is a shorthand constructor used heavily by utility definitions.
func Decl(property, value string) Declaration {
	return Declaration{Property: property, Value: value}
}

// Node is an element of the stylesheet tree. Rules and at-rules may nest
// arbitrarily (CSS nesting), declarations are always leaves.
type Node struct {
	Kind     NodeKind
	Selector string      // KindRule
	Name     string      // KindAtRule, without the leading '@'
	Params   string      // KindAtRule
	Block    bool        // KindAtRule: true when followed by {...} rather than ';'
	Decl     Declaration // KindDeclaration
	Children []*Node
}

// Rule creates a style rule node.
func Rule(selector string, children ...*Node) *Node {
	return &Node{Kind: KindRule, Selector: selector, Children: children}
}

// AtRule creates an at-rule node with a block.
func AtRule(name, params string, children ...*Node) *Node {
	return &Node{Kind: KindAtRule, Name: name, Params: params, Block: true, Children: children}
}

// Statement creates a block-less at-rule such as @import or @slot.
func Statement(name, params string) *Node {
	return &Node{Kind: KindAtRule, Name: name, Params: params}
}

// DeclNode wraps a declaration into a node.
func DeclNode(d Declaration) *Node {
	return &Node{Kind: KindDeclaration, Decl: d}
}

// Declarations returns declaration children in source order.
func (n *Node) Declarations() []Declaration {
	var decls []Declaration
	for _, c := range n.Children {
		if c.Kind == KindDeclaration {
			decls = append(decls, c.Decl)
		}
	}
	return decls
}

// Walk visits n and its descendants depth first. Returning false from fn
// skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Stylesheet is an ordered list of top-level nodes.
type Stylesheet struct {
	Nodes    []*Node
	Warnings []string // constructs the reader skipped
}

// AtRules returns all top-level at-rules with the given name in source order.
func (s *Stylesheet) AtRules(name string) []*Node {
	var res []*Node
	for _, n := range s.Nodes {
		if n.Kind == KindAtRule && n.Name == name {
			res = append(res, n)
		}
	}
	return res
}

// WriteTo writes the stylesheet to w in source order, implementing io.WriterTo.
// Top-level items are separated by a blank line.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i, n := range s.Nodes {
		written, err := writeNode(w, n, 0)
		total += int64(written)
		if err != nil {
			return total, err
		}
		if i < len(s.Nodes)-1 {
			written, err := fmt.Fprint(w, "\n")
			total += int64(written)
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

// String returns the CSS text of a single node.
func (n *Node) String() string {
	var sb strings.Builder
	writeNode(&sb, n, 0) //nolint:errcheck
	return sb.String()
}

func writeNode(w io.Writer, n *Node, depth int) (int, error) {
	indent := strings.Repeat("  ", depth)
	switch n.Kind {
	case KindDeclaration:
		return fmt.Fprintf(w, "%s%s;\n", indent, n.Decl)
	case KindAtRule:
		head := "@" + n.Name
		if n.Params != "" {
			head += " " + n.Params
		}
		if !n.Block {
			return fmt.Fprintf(w, "%s%s;\n", indent, head)
		}
		return writeBlock(w, indent+head, n.Children, depth)
	default:
		return writeBlock(w, indent+n.Selector, n.Children, depth)
	}
}

func writeBlock(w io.Writer, head string, children []*Node, depth int) (int, error) {
	var total int
	n, err := fmt.Fprintf(w, "%s {\n", head)
	total += n
	if err != nil {
		return total, err
	}
	for _, c := range children {
		n, err = writeNode(w, c, depth+1)
		total += n
		if err != nil {
			return total, err
		}
	}
	n, err = fmt.Fprintf(w, "%s}\n", strings.Repeat("  ", depth))
	total += n
	return total, err
}
