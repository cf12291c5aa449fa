package candidate

import (
	"strings"
)

// DecodeArbitrary converts the body of a bracketed value into CSS text.
// Underscores become spaces except when escaped (\_), inside url(...) and
// inside dashed identifiers. Math operators inside calc-like functions get
// surrounding whitespace.
func DecodeArbitrary(s string) string {
	if s == "" {
		return ""
	}
	var (
		b        strings.Builder
		depth    int
		urlDepth int
		dashed   bool
	)
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if dashed && !isIdentByte(c) {
			dashed = false
		}
		switch {
		case c == '\\' && i+1 < len(s) && s[i+1] == '_':
			b.WriteByte('_')
			i++
			continue
		case c == '-' && i+1 < len(s) && s[i+1] == '-' && (i == 0 || !isIdentByte(s[i-1])):
			dashed = true
		case c == '(':
			depth++
			if urlDepth == 0 && hasFunctionName(s[:i], "url") {
				urlDepth = depth
			}
		case c == ')':
			if depth == urlDepth {
				urlDepth = 0
			}
			depth--
		case c == '_' && urlDepth == 0 && !dashed:
			b.WriteByte(' ')
			continue
		}
		b.WriteByte(c)
	}
	return normalizeMath(b.String())
}

var mathFunctions = map[string]bool{
	"calc": true, "min": true, "max": true, "clamp": true,
	"mod": true, "rem": true, "round": true, "abs": true, "sign": true,
}

// normalizeMath puts spaces around operators inside math functions.
func normalizeMath(s string) string {
	if !strings.Contains(s, "(") {
		return s
	}
	var (
		b     strings.Builder
		stack []bool
	)
	inMath := func() bool { return len(stack) > 0 && stack[len(stack)-1] }
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '(':
			name := trailingIdent(b.String())
			math := mathFunctions[strings.ToLower(name)] || (name == "" && inMath())
			stack = append(stack, math)
			b.WriteByte(c)
			continue
		case ')':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			b.WriteByte(c)
			continue
		}
		if !inMath() || (c != '+' && c != '-' && c != '*' && c != '/') {
			b.WriteByte(c)
			continue
		}
		out := strings.TrimRight(b.String(), " ")
		if c == '-' || c == '+' {
			if !endsWithOperand(out) || i+1 >= len(s) || s[i+1] == '-' {
				b.WriteByte(c)
				continue
			}
			if c == '+' && endsWithExponent(out) {
				b.WriteByte(c)
				continue
			}
		}
		b.Reset()
		b.WriteString(out)
		b.WriteByte(' ')
		b.WriteByte(c)
		b.WriteByte(' ')
		for i+1 < len(s) && s[i+1] == ' ' {
			i++
		}
	}
	return b.String()
}

// endsWithOperand reports whether s ends with a number, dimension,
// percentage or a closing parenthesis.
func endsWithOperand(s string) bool {
	if s == "" {
		return false
	}
	last := s[len(s)-1]
	if last == ')' || last == '%' || (last >= '0' && last <= '9') {
		return true
	}
	i := len(s)
	for i > 0 && isLetter(s[i-1]) {
		i--
	}
	return i > 0 && i < len(s) && (s[i-1] >= '0' && s[i-1] <= '9' || s[i-1] == '.')
}

func endsWithExponent(s string) bool {
	n := len(s)
	return n >= 2 && (s[n-1] == 'e' || s[n-1] == 'E') && s[n-2] >= '0' && s[n-2] <= '9'
}

func trailingIdent(s string) string {
	i := len(s)
	for i > 0 && isIdentByte(s[i-1]) {
		i--
	}
	return s[i:]
}

func hasFunctionName(prefix, name string) bool {
	return strings.EqualFold(trailingIdent(prefix), name)
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentByte(c byte) bool {
	return isLetter(c) || c >= '0' && c <= '9' || c == '-' || c == '_' || c >= 0x80
}

var dataTypes = map[string]bool{
	"any": true, "color": true, "length": true, "percentage": true,
	"number": true, "integer": true, "url": true, "image": true,
	"position": true, "bg-size": true, "family-name": true,
	"absolute-size": true, "relative-size": true, "line-width": true,
	"shadow": true, "angle": true, "vector": true,
}

func isDataType(s string) bool {
	return dataTypes[s]
}

// InferDataType classifies an arbitrary value so ambiguous utilities (text-*
// carries both font sizes and colors) can pick the right property.
func InferDataType(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	switch {
	case v == "":
		return "any"
	case strings.HasPrefix(v, "url("):
		return "url"
	case strings.HasPrefix(v, "var("):
		return "any"
	case isColor(v):
		return "color"
	case strings.HasSuffix(v, "%") && isNumber(v[:len(v)-1]):
		return "percentage"
	case isNumber(v):
		if v == "0" {
			return "length"
		}
		return "number"
	case isLength(v):
		return "length"
	case strings.Contains(v, "gradient("):
		return "image"
	}
	return "any"
}

var colorFunctions = []string{
	"rgb(", "rgba(", "hsl(", "hsla(", "hwb(", "lab(", "lch(",
	"oklab(", "oklch(", "color(", "color-mix(", "light-dark(",
}

func isColor(v string) bool {
	if strings.HasPrefix(v, "#") {
		hex := v[1:]
		switch len(hex) {
		case 3, 4, 6, 8:
		default:
			return false
		}
		for i := 0; i < len(hex); i++ {
			c := hex[i]
			if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
				return false
			}
		}
		return true
	}
	for _, fn := range colorFunctions {
		if strings.HasPrefix(v, fn) {
			return true
		}
	}
	return namedColors[v]
}

var lengthUnits = []string{
	"px", "rem", "em", "ex", "ch", "lh", "rlh", "vw", "vh", "vmin", "vmax",
	"dvw", "dvh", "svw", "svh", "lvw", "lvh", "cqw", "cqh", "cqi", "cqb",
	"cqmin", "cqmax", "pt", "pc", "cm", "mm", "in", "q",
}

var lengthFunctions = []string{"calc(", "min(", "max(", "clamp("}

func isLength(v string) bool {
	for _, fn := range lengthFunctions {
		if strings.HasPrefix(v, fn) {
			return true
		}
	}
	for _, u := range lengthUnits {
		if n, ok := strings.CutSuffix(v, u); ok && isNumber(n) {
			return true
		}
	}
	return false
}

func isNumber(v string) bool {
	v = strings.TrimPrefix(strings.TrimPrefix(v, "-"), "+")
	if v == "" || v == "." {
		return false
	}
	dot := false
	for i := 0; i < len(v); i++ {
		switch c := v[i]; {
		case c == '.':
			if dot {
				return false
			}
			dot = true
		case c < '0' || c > '9':
			return false
		}
	}
	return true
}

var namedColors = func() map[string]bool {
	m := make(map[string]bool)
	for _, n := range strings.Fields(`transparent currentcolor
		aliceblue antiquewhite aqua aquamarine azure beige bisque black
		blanchedalmond blue blueviolet brown burlywood cadetblue chartreuse
		chocolate coral cornflowerblue cornsilk crimson cyan darkblue darkcyan
		darkgoldenrod darkgray darkgreen darkgrey darkkhaki darkmagenta
		darkolivegreen darkorange darkorchid darkred darksalmon darkseagreen
		darkslateblue darkslategray darkslategrey darkturquoise darkviolet
		deeppink deepskyblue dimgray dimgrey dodgerblue firebrick floralwhite
		forestgreen fuchsia gainsboro ghostwhite gold goldenrod gray green
		greenyellow grey honeydew hotpink indianred indigo ivory khaki lavender
		lavenderblush lawngreen lemonchiffon lightblue lightcoral lightcyan
		lightgoldenrodyellow lightgray lightgreen lightgrey lightpink
		lightsalmon lightseagreen lightskyblue lightslategray lightslategrey
		lightsteelblue lightyellow lime limegreen linen magenta maroon
		mediumaquamarine mediumblue mediumorchid mediumpurple mediumseagreen
		mediumslateblue mediumspringgreen mediumturquoise mediumvioletred
		midnightblue mintcream mistyrose moccasin navajowhite navy oldlace olive
		olivedrab orange orangered orchid palegoldenrod palegreen paleturquoise
		palevioletred papayawhip peachpuff peru pink plum powderblue purple
		rebeccapurple red rosybrown royalblue saddlebrown salmon sandybrown
		seagreen seashell sienna silver skyblue slateblue slategray slategrey
		snow springgreen steelblue tan teal thistle tomato turquoise violet
		wheat white whitesmoke yellow yellowgreen`) {
		m[n] = true
	}
	return m
}()
