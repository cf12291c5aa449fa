// Package scan extracts utility class candidates from content files.
package scan

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/elliotchance/orderedmap/v3"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
)

// Extensions lists the file types Paths looks into when walking directories
// by default.
var Extensions = map[string]bool{
	".html": true, ".htm": true, ".xhtml": true,
	".js": true, ".jsx": true, ".ts": true, ".tsx": true,
	".vue": true, ".svelte": true, ".astro": true,
	".md": true, ".mdx": true, ".txt": true,
	".tmpl": true, ".gohtml": true, ".templ": true, ".php": true,
}

// Set is an insertion ordered set of candidates.
type Set struct {
	m *orderedmap.OrderedMap[string, struct{}]
}

func NewSet() *Set {
	return &Set{m: orderedmap.NewOrderedMap[string, struct{}]()}
}

func (s *Set) Add(c string) {
	if c != "" {
		s.m.Set(c, struct{}{})
	}
}

func (s *Set) Len() int {
	return s.m.Len()
}

// Slice returns candidates in the order they were first seen.
func (s *Set) Slice() []string {
	out := make([]string, 0, s.m.Len())
	for el := s.m.Front(); el != nil; el = el.Next() {
		out = append(out, el.Key)
	}
	return out
}

// Scanner collects candidates. enc forces the input encoding, when nil HTML
// input is sniffed and everything else is read as UTF-8.
type Scanner struct {
	log  *zap.Logger
	enc  encoding.Encoding
	exts map[string]bool
	set  *Set
}

func New(enc encoding.Encoding, log *zap.Logger) *Scanner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scanner{log: log.Named("scan"), enc: enc, exts: maps.Clone(Extensions), set: NewSet()}
}

// AddExtensions makes Paths look into more file types, extensions include
// the leading dot.
func (s *Scanner) AddExtensions(exts ...string) {
	for _, e := range exts {
		s.exts[strings.ToLower(e)] = true
	}
}

// Candidates returns everything collected so far.
func (s *Scanner) Candidates() []string {
	return s.set.Slice()
}

// Paths scans files and, recursively, directories.
func (s *Scanner) Paths(ctx context.Context, paths ...string) error {
	for _, p := range paths {
		err := filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && (strings.HasPrefix(d.Name(), ".") || d.Name() == "node_modules") {
					return filepath.SkipDir
				}
				return nil
			}
			// explicitly named files are always scanned
			if path != p && !s.exts[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			return s.File(ctx, path)
		})
		if err != nil {
			return fmt.Errorf("unable to scan '%s': %w", p, err)
		}
	}
	return nil
}

// File scans a single file.
func (s *Scanner) File(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	before := s.set.Len()
	if err := s.Read(ctx, f, path); err != nil {
		return fmt.Errorf("unable to scan '%s': %w", path, err)
	}
	s.log.Debug("Scanned", zap.String("file", path), zap.Int("new", s.set.Len()-before))
	return nil
}

// Read scans r. The name selects HTML or plain text handling.
func (s *Scanner) Read(ctx context.Context, r io.Reader, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	isHTML := false
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm", ".xhtml":
		isHTML = true
	}

	switch {
	case s.enc != nil:
		r = s.enc.NewDecoder().Reader(r)
	case isHTML:
		cr, err := charset.NewReader(r, "text/html")
		if err != nil {
			return fmt.Errorf("unable to detect encoding: %w", err)
		}
		r = cr
	}

	if isHTML {
		return s.html(r)
	}
	return s.text(r)
}

// html collects class attribute tokens and text of script elements.
func (s *Scanner) html(r io.Reader) error {
	z := html.NewTokenizer(r)
	inScript := false
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return err
			}
			return nil
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			inScript = string(name) == "script"
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				switch k := string(key); {
				case k == "class", k == "classname", strings.HasPrefix(k, ":class"), strings.HasPrefix(k, "x-bind:class"):
					for _, f := range strings.Fields(string(val)) {
						s.set.Add(f)
					}
				}
			}
		case html.EndTagToken:
			inScript = false
		case html.TextToken:
			if inScript {
				for _, c := range Split(string(z.Text())) {
					s.set.Add(c)
				}
			}
		}
	}
}

func (s *Scanner) text(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		for _, c := range Split(sc.Text()) {
			s.set.Add(c)
		}
	}
	return sc.Err()
}

// Split breaks arbitrary text into candidate looking tokens. Separators
// inside square brackets and parentheses are kept so arbitrary values stay
// intact.
func Split(text string) []string {
	var (
		out   []string
		depth int
		start = -1
	)
	flush := func(end int) {
		if start >= 0 {
			if tok := trimToken(text[start:end]); plausible(tok) {
				out = append(out, tok)
			}
		}
		start = -1
	}
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '[' || c == '(':
			depth++
		case (c == ']' || c == ')') && depth > 0:
			depth--
		case depth == 0 && isSeparator(c):
			flush(i)
			continue
		case depth > 0 && (c == '\n' || c == '"' || c == '`'):
			// unbalanced bracket in prose
			depth = 0
			flush(i)
			continue
		}
		if start < 0 {
			start = i
		}
	}
	flush(len(text))
	return out
}

func isSeparator(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '"', '\'', '`', '<', '>', '=', ';', '{', '}', ',', '\\':
		return true
	}
	return false
}

func trimToken(tok string) string {
	return strings.TrimRight(tok, ".")
}

// plausible rejects tokens that can never be a class name.
func plausible(tok string) bool {
	if tok == "" || len(tok) > 256 {
		return false
	}
	c := tok[0]
	if !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') && c != '-' && c != '!' && c != '[' && c != '@' && c != '*' {
		return false
	}
	return !strings.Contains(tok, "://")
}
