package designsystem

import (
	"slices"
	"strings"

	"go.uber.org/zap"

	"twc/css"
	"twc/variants"
)

// CandidatesToCSS compiles each candidate into a CSS rule. An empty string
// means the candidate does not compile.
func (ds *DesignSystem) CandidatesToCSS(candidates []string) []string {
	return ds.Compile(candidates, nil)
}

// Compile is CandidatesToCSS with a set of known invalid candidates: members
// are skipped and candidates failing to compile are added to it. invalid may
// be nil.
func (ds *DesignSystem) Compile(candidates []string, invalid InvalidSet) []string {
	out := make([]string, len(candidates))
	for i, raw := range candidates {
		if invalid.Has(raw) {
			continue
		}
		res, ok := ds.compileCached(raw)
		if !ok {
			if invalid != nil {
				invalid.Add(raw)
			}
			continue
		}
		out[i] = res
	}
	return out
}

func (ds *DesignSystem) compileCached(raw string) (string, bool) {
	if v, ok := ds.memo.Load(raw); ok {
		c := v.(compiled)
		return c.css, c.ok
	}
	text, ok := ds.compile(raw)
	v, _ := ds.memo.LoadOrStore(raw, compiled{css: text, ok: ok})
	c := v.(compiled)
	return c.css, c.ok
}

func (ds *DesignSystem) compile(raw string) (string, bool) {
	c, ok := ds.ParseCandidate(raw)
	if !ok {
		return "", false
	}
	decls, ok := ds.utilities.Compile(c)
	if !ok {
		return "", false
	}
	if ds.important {
		for i := range decls {
			decls[i].Important = true
		}
	}

	chain := make([][]variants.Wrapper, 0, len(c.Variants))
	for _, v := range c.Variants {
		ws := ds.variants.Wrappers(v)
		if len(ws) == 0 {
			ds.log.Debug("Variant does not apply", zap.String("candidate", raw), zap.String("variant", v.Root))
			return "", false
		}
		chain = append(chain, ws)
	}
	ws := variants.Fold(chain)
	if len(ws) == 0 {
		return "", false
	}

	sheet := &css.Stylesheet{Nodes: rules(css.EscapeClass(raw), ws, decls)}
	return sheet.String(), true
}

// rules renders one rule per distinct at-rule stack. Alternatives sharing a
// stack are merged into a selector list, stacks keep first seen order.
func rules(class string, ws []variants.Wrapper, decls []css.Declaration) []*css.Node {
	type group struct {
		ats       []variants.AtRule
		selectors []string
	}
	var groups []*group
	index := make(map[string]*group)
	for _, w := range ws {
		var key strings.Builder
		for _, at := range w.AtRules {
			key.WriteString(at.String())
			key.WriteByte('\x00')
		}
		g, ok := index[key.String()]
		if !ok {
			g = &group{ats: w.AtRules}
			index[key.String()] = g
			groups = append(groups, g)
		}
		sel := w.Selector.Render(class)
		if !slices.Contains(g.selectors, sel) {
			g.selectors = append(g.selectors, sel)
		}
	}

	nodes := make([]*css.Node, 0, len(groups))
	for _, g := range groups {
		children := make([]*css.Node, 0, len(decls))
		for _, d := range decls {
			children = append(children, css.DeclNode(d))
		}
		node := css.Rule(strings.Join(g.selectors, ", "), children...)
		for i := len(g.ats) - 1; i >= 0; i-- {
			node = css.AtRule(g.ats[i].Name, g.ats[i].Params, node)
		}
		nodes = append(nodes, node)
	}
	return nodes
}
