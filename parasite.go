package xcf

import (
	"strings"
)

// SExpr is one node of a parenthesized S-expression, as used by the
// "gimp-text-layer" parasite to serialize text-layer attributes. A node is
// either an atom (bareword or number), a quoted string, or a list of child
// nodes.
type SExpr struct {
	List     []SExpr
	Atom     string
	IsString bool
}

// ParseSExpr parses a GIMP text-layer style S-expression: a single
// top-level, possibly-empty list of atoms/strings/nested lists. Payloads
// that don't balance their parentheses are rejected with
// ErrMalformedProperty, per invariant 5 in §8 ("parses as balanced
// parenthesized S-expression fields").
func ParseSExpr(data []byte) (SExpr, error) {
	toks := tokenizeSExpr(string(data))
	pos := 0
	node, err := parseSExprTokens(toks, &pos)
	if err != nil {
		return SExpr{}, err
	}
	if pos != len(toks) {
		return SExpr{}, newErr(ErrMalformedProperty, "trailing tokens after top-level s-expression")
	}
	return node, nil
}

type sexprTok struct {
	kind byte // '(' ')' 'a' (atom) 's' (string)
	text string
}

func tokenizeSExpr(s string) []sexprTok {
	var toks []sexprTok
	i := 0
	n := len(s)
	for i < n {
		c := s[i]
		switch {
		case c == '(' || c == ')':
			toks = append(toks, sexprTok{kind: c})
			i++
		case c == '"':
			j := i + 1
			var b strings.Builder
			for j < n && s[j] != '"' {
				if s[j] == '\\' && j+1 < n {
					j++
				}
				b.WriteByte(s[j])
				j++
			}
			toks = append(toks, sexprTok{kind: 's', text: b.String()})
			i = j + 1
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		default:
			j := i
			for j < n && s[j] != '(' && s[j] != ')' && s[j] != '"' &&
				s[j] != ' ' && s[j] != '\t' && s[j] != '\n' && s[j] != '\r' {
				j++
			}
			toks = append(toks, sexprTok{kind: 'a', text: s[i:j]})
			i = j
		}
	}
	return toks
}

func parseSExprTokens(toks []sexprTok, pos *int) (SExpr, error) {
	if *pos >= len(toks) {
		return SExpr{}, newErr(ErrMalformedProperty, "unexpected end of s-expression")
	}
	t := toks[*pos]
	switch t.kind {
	case '(':
		*pos++
		var list []SExpr
		for {
			if *pos >= len(toks) {
				return SExpr{}, newErr(ErrMalformedProperty, "unbalanced parentheses in s-expression")
			}
			if toks[*pos].kind == ')' {
				*pos++
				return SExpr{List: list}, nil
			}
			child, err := parseSExprTokens(toks, pos)
			if err != nil {
				return SExpr{}, err
			}
			list = append(list, child)
		}
	case ')':
		return SExpr{}, newErr(ErrMalformedProperty, "unbalanced parentheses in s-expression")
	case 's':
		*pos++
		return SExpr{Atom: t.text, IsString: true}, nil
	default: // 'a'
		*pos++
		return SExpr{Atom: t.text}, nil
	}
}

// Field looks up a named field inside a (field value...) style list, as used
// by gimp-text-layer payloads such as "(text \"hello\")". It returns the
// first child atom's/string's text after the field name, and whether it was
// found at all.
func (n SExpr) Field(name string) (string, bool) {
	for _, child := range n.List {
		if len(child.List) >= 2 && !child.List[0].IsString && child.List[0].Atom == name {
			return child.List[1].Atom, true
		}
	}
	return "", false
}
