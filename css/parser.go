package css

import (
	"bytes"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser reads stylesheet text into a Stylesheet tree. It understands nested
// rules and at-rules, custom properties and block-less statements, which is
// everything the design-system directives need; it does not validate
// property values.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

type token struct {
	tt   css.TokenType
	data string
}

type reader struct {
	lex   *css.Lexer
	log   *zap.Logger
	sheet *Stylesheet
}

// Parse parses CSS text into a Stylesheet.
// The optional source parameter identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) *Stylesheet {
	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}
	sheet := &Stylesheet{}
	r := &reader{
		lex:   css.NewLexer(parse.NewInput(bytes.NewReader(data))),
		log:   p.log,
		sheet: sheet,
	}
	sheet.Nodes = r.block(true)
	return sheet
}

// ParseString is a convenience wrapper around Parse.
func (p *Parser) ParseString(text string, source ...string) *Stylesheet {
	return p.Parse([]byte(text), source...)
}

// block reads nodes until the closing brace of the current block (or EOF at
// the top level).
func (r *reader) block(top bool) []*Node {
	var (
		nodes   []*Node
		prelude []token
		depth   int // () and [] nesting inside the current prelude
	)
	for {
		tt, data := r.lex.Next()
		switch tt {
		case css.ErrorToken:
			if n := r.statement(prelude); n != nil {
				nodes = append(nodes, n)
			}
			if !top {
				r.warn("unterminated block")
			}
			return nodes
		case css.CommentToken:
			continue
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		case css.LeftBraceToken:
			if depth > 0 {
				break
			}
			n := r.open(prelude)
			n.Children = r.block(false)
			nodes = append(nodes, n)
			prelude = nil
			continue
		case css.RightBraceToken:
			if depth > 0 {
				break
			}
			if top {
				r.warn("unexpected closing brace")
				continue
			}
			if n := r.statement(prelude); n != nil {
				nodes = append(nodes, n)
			}
			return nodes
		case css.SemicolonToken:
			if depth > 0 {
				break
			}
			if n := r.statement(prelude); n != nil {
				nodes = append(nodes, n)
			}
			prelude = nil
			continue
		}
		prelude = append(prelude, token{tt: tt, data: string(data)})
	}
}

// open creates the node for a prelude followed by '{'.
func (r *reader) open(prelude []token) *Node {
	prelude = trimTokens(prelude)
	if len(prelude) > 0 && prelude[0].tt == css.AtKeywordToken {
		return AtRule(strings.TrimPrefix(prelude[0].data, "@"), joinTokens(prelude[1:]))
	}
	return Rule(joinTokens(prelude))
}

// statement creates the node for a prelude terminated by ';' or '}'.
func (r *reader) statement(prelude []token) *Node {
	prelude = trimTokens(prelude)
	if len(prelude) == 0 {
		return nil
	}
	if prelude[0].tt == css.AtKeywordToken {
		return Statement(strings.TrimPrefix(prelude[0].data, "@"), joinTokens(prelude[1:]))
	}

	depth := 0
	for i, t := range prelude {
		switch t.tt {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			depth--
		case css.ColonToken:
			if depth != 0 {
				continue
			}
			prop := joinTokens(prelude[:i])
			if prop == "" {
				break
			}
			value, important := splitImportant(joinTokens(prelude[i+1:]))
			return DeclNode(Declaration{Property: prop, Value: value, Important: important})
		}
	}
	r.warn("dropping stray tokens: " + joinTokens(prelude))
	return nil
}

func (r *reader) warn(msg string) {
	r.sheet.Warnings = append(r.sheet.Warnings, msg)
	r.log.Debug("CSS reader warning", zap.String("warning", msg))
}

// splitImportant strips a trailing !important marker.
func splitImportant(value string) (string, bool) {
	trimmed := strings.TrimSpace(value)
	lower := strings.ToLower(trimmed)
	if strings.HasSuffix(lower, "!important") {
		return strings.TrimSpace(trimmed[:len(trimmed)-len("!important")]), true
	}
	return trimmed, false
}

func trimTokens(tokens []token) []token {
	for len(tokens) > 0 && tokens[0].tt == css.WhitespaceToken {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && tokens[len(tokens)-1].tt == css.WhitespaceToken {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

// joinTokens rebuilds source text collapsing whitespace runs into a single space.
func joinTokens(tokens []token) string {
	var sb strings.Builder
	space := false
	for _, t := range trimTokens(tokens) {
		if t.tt == css.WhitespaceToken {
			space = true
			continue
		}
		if space {
			sb.WriteByte(' ')
			space = false
		}
		sb.WriteString(t.data)
	}
	return sb.String()
}

// Unquote removes surrounding quotes from a string.
func Unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
