package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokNumber
	tokBool
	tokNull
	tokEq
	tokNeq
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	raw  string
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '(', ')', '!', '=', '&', '|':
		return true
	}
	return false
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	for i := 0; i < len(input); {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			tokens = append(tokens, token{tokLParen, "("})
			i++
		case c == ')':
			tokens = append(tokens, token{tokRParen, ")"})
			i++
		case c == '!':
			if i+1 < len(input) && input[i+1] == '=' {
				tokens = append(tokens, token{tokNeq, "!="})
				i += 2
				continue
			}
			tokens = append(tokens, token{tokNot, "!"})
			i++
		case c == '=', c == '&', c == '|':
			if i+1 >= len(input) || input[i+1] != c {
				return nil, fmt.Errorf("expr: unexpected %q; use %q", string(c), string([]byte{c, c}))
			}
			kind := map[byte]tokenKind{'=': tokEq, '&': tokAnd, '|': tokOr}[c]
			tokens = append(tokens, token{kind, input[i : i+2]})
			i += 2
		case c == '"' || c == '\'':
			end := i + 1
			for ; end < len(input); end++ {
				if input[end] == '\\' {
					end++
					continue
				}
				if input[end] == c {
					break
				}
			}
			if end >= len(input) {
				return nil, errors.New("expr: unterminated string literal")
			}
			body := input[i+1 : end]
			if c == '\'' {
				body = strings.ReplaceAll(body, `"`, `\"`)
				body = strings.ReplaceAll(body, `\'`, `'`)
			}
			value, err := strconv.Unquote(`"` + body + `"`)
			if err != nil {
				return nil, fmt.Errorf("expr: invalid string literal: %w", err)
			}
			tokens = append(tokens, token{tokString, value})
			i = end + 1
		default:
			start := i
			for i < len(input) && !isDelimiter(input[i]) {
				i++
			}
			tokens = append(tokens, classify(input[start:i]))
		}
	}
	return tokens, nil
}

func classify(raw string) token {
	switch strings.ToLower(raw) {
	case "true", "false":
		return token{tokBool, strings.ToLower(raw)}
	case "null", "nil":
		return token{tokNull, "null"}
	}
	if c := raw[0]; (c >= '0' && c <= '9') || c == '-' || c == '+' {
		return token{tokNumber, raw}
	}
	return token{tokIdent, raw}
}

type parser struct {
	tokens []token
	pos    int
}

func parse(tokens []token) (node, error) {
	p := &parser{tokens: tokens}
	n, err := p.or()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, fmt.Errorf("expr: unexpected token %q", p.tokens[p.pos].raw)
	}
	return n, nil
}

func (p *parser) match(kind tokenKind) bool {
	if p.pos < len(p.tokens) && p.tokens[p.pos].kind == kind {
		p.pos++
		return true
	}
	return false
}

func (p *parser) or() (node, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.match(tokOr) {
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = orNode{left, right}
	}
	return left, nil
}

func (p *parser) and() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.match(tokAnd) {
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = andNode{left, right}
	}
	return left, nil
}

func (p *parser) unary() (node, error) {
	if p.match(tokNot) {
		inner, err := p.unary()
		if err != nil {
			return nil, err
		}
		return notNode{inner}, nil
	}
	return p.primary()
}

func (p *parser) primary() (node, error) {
	if p.match(tokLParen) {
		inner, err := p.or()
		if err != nil {
			return nil, err
		}
		if !p.match(tokRParen) {
			return nil, errors.New("expr: missing closing ')'")
		}
		return inner, nil
	}
	if p.pos >= len(p.tokens) {
		return nil, errors.New("expr: empty expression")
	}
	tok := p.tokens[p.pos]
	if tok.kind != tokIdent {
		return nil, fmt.Errorf("expr: expected identifier, got %q", tok.raw)
	}
	p.pos++

	negate := false
	switch {
	case p.match(tokEq):
	case p.match(tokNeq):
		negate = true
	default:
		return truthyNode{ident: tok.raw}, nil
	}
	if p.pos >= len(p.tokens) {
		return nil, errors.New("expr: missing literal")
	}
	lit := p.tokens[p.pos]
	p.pos++
	switch lit.kind {
	case tokString, tokNumber, tokBool, tokNull:
	case tokIdent:
		// bare words compare as strings
		lit.kind = tokString
	default:
		return nil, fmt.Errorf("expr: expected literal, got %q", lit.raw)
	}
	return compareNode{ident: tok.raw, negate: negate, lit: lit}, nil
}
