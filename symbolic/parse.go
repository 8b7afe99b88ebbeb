package symbolic

import (
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

// ============================================================
// Formula parser
// ============================================================

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNum
	tokIdent
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// Parse reads an infix formula such as "2*KF/volume - x^2" into an Expr.
// Identifiers may contain letters, digits, '_' and '.'. Both '^' and '**'
// denote exponentiation, which binds tighter than unary minus on its left.
func Parse(src string) (Expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("symbolic: unexpected %q at offset %d", t.text, t.pos)
	}
	return e, nil
}

// MustParse is Parse for formulas known at compile time.
func MustParse(src string) Expr {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

func lex(src string) ([]token, error) {
	var toks []token
	rs := []rune(src)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || (r == '.' && i+1 < len(rs) && unicode.IsDigit(rs[i+1])):
			start := i
			for i < len(rs) && (unicode.IsDigit(rs[i]) || rs[i] == '.' || rs[i] == '_') {
				i++
			}
			if i < len(rs) && (rs[i] == 'e' || rs[i] == 'E') {
				j := i + 1
				if j < len(rs) && (rs[j] == '+' || rs[j] == '-') {
					j++
				}
				if j < len(rs) && unicode.IsDigit(rs[j]) {
					i = j
					for i < len(rs) && unicode.IsDigit(rs[i]) {
						i++
					}
				}
			}
			toks = append(toks, token{kind: tokNum, text: strings.ReplaceAll(string(rs[start:i]), "_", ""), pos: start})
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(rs) && (unicode.IsLetter(rs[i]) || unicode.IsDigit(rs[i]) || rs[i] == '_' || rs[i] == '.') {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: string(rs[start:i]), pos: start})
		case r == '*' && i+1 < len(rs) && rs[i+1] == '*':
			toks = append(toks, token{kind: tokOp, text: "^", pos: i})
			i += 2
		case strings.ContainsRune("+-*/^", r):
			toks = append(toks, token{kind: tokOp, text: string(r), pos: i})
			i++
		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		default:
			return nil, fmt.Errorf("symbolic: unexpected character %q at offset %d", r, i)
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(rs)}), nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }
func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(ops string) bool {
	t := p.peek()
	return t.kind == tokOp && strings.Contains(ops, t.text)
}

func (p *parser) expr() (Expr, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.isOp("+-") {
		op := p.next().text
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		if op == "+" {
			left = AddOf(left, right)
		} else {
			left = SubOf(left, right)
		}
	}
	return left, nil
}

func (p *parser) term() (Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.isOp("*/") {
		op := p.next().text
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		if op == "*" {
			left = MulOf(left, right)
		} else {
			left = DivOf(left, right)
		}
	}
	return left, nil
}

func (p *parser) unary() (Expr, error) {
	if p.isOp("-+") {
		op := p.next().text
		e, err := p.unary()
		if err != nil {
			return nil, err
		}
		if op == "-" {
			return Neg(e), nil
		}
		return e, nil
	}
	return p.power()
}

func (p *parser) power() (Expr, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if p.isOp("^") {
		p.next()
		exp, err := p.unary()
		if err != nil {
			return nil, err
		}
		return PowOf(base, exp), nil
	}
	return base, nil
}

func (p *parser) primary() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokNum:
		r, ok := new(big.Rat).SetString(t.text)
		if !ok {
			return nil, fmt.Errorf("symbolic: invalid number %q at offset %d", t.text, t.pos)
		}
		return &Num{val: r}, nil
	case tokIdent:
		return S(t.text), nil
	case tokLParen:
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if c := p.next(); c.kind != tokRParen {
			return nil, fmt.Errorf("symbolic: expected ')' at offset %d", c.pos)
		}
		return e, nil
	case tokEOF:
		return nil, fmt.Errorf("symbolic: unexpected end of formula")
	}
	return nil, fmt.Errorf("symbolic: unexpected %q at offset %d", t.text, t.pos)
}
