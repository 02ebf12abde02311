package expr

import (
	"fmt"
)

const (
	// maxDepth limits nesting of parentheses and unary operators.
	maxDepth = 128
	// maxSourceLen limits the length of a formula in bytes.
	maxSourceLen = 4096
)

// parser is a recursive descent parser over the grammar
//
//	expr  = term { ("+" | "-") term }
//	term  = unary { ("*" | "/") unary }
//	unary = ("+" | "-") unary | power
//	power = atom [ ("^" | "**") unary ]
//	atom  = number | name | name "(" expr { "," expr } ")" | "(" expr ")"
//	name  = ident [ "." ident ]
//
// Exponentiation binds tighter than unary minus and is right associative so
// that -x**2 == -(x**2) and 2**-x == 2**(-x).
type parser struct {
	lex   lexer
	tok   token
	depth int
}

func parse(src string) (node, error) {
	if len(src) > maxSourceLen {
		return nil, &SyntaxError{Pos: maxSourceLen, Msg: "formula too long"}
	}
	p := parser{lex: lexer{src: src}}
	p.advance()
	if p.tok.kind == tokEOF {
		return nil, &SyntaxError{Pos: 0, Msg: "empty formula"}
	}
	n, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf("unexpected %s %q", p.tok.kind, p.tok.text)
	}
	return n, nil
}

func (p *parser) advance() { p.tok = p.lex.next() }

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Pos: p.tok.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > maxDepth {
		return p.errorf("formula nested too deeply")
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

func (p *parser) expr() (node, error) {
	l, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokPlus || p.tok.kind == tokMinus {
		op := p.tok.kind
		p.advance()
		r, err := p.term()
		if err != nil {
			return nil, err
		}
		l = fold(binaryNode{op: op, l: l, r: r})
	}
	return l, nil
}

func (p *parser) term() (node, error) {
	l, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokStar || p.tok.kind == tokSlash {
		op := p.tok.kind
		p.advance()
		r, err := p.unary()
		if err != nil {
			return nil, err
		}
		l = fold(binaryNode{op: op, l: l, r: r})
	}
	return l, nil
}

func (p *parser) unary() (node, error) {
	switch p.tok.kind {
	case tokPlus, tokMinus:
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		neg := p.tok.kind == tokMinus
		p.advance()
		arg, err := p.unary()
		if err != nil {
			return nil, err
		}
		if !neg {
			return arg, nil
		}
		return fold(negNode{arg: arg}), nil
	}
	return p.power()
}

func (p *parser) power() (node, error) {
	base, err := p.atom()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokPow {
		return base, nil
	}
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	p.advance()
	exp, err := p.unary()
	if err != nil {
		return nil, err
	}
	return fold(binaryNode{op: tokPow, l: base, r: exp}), nil
}

func (p *parser) atom() (node, error) {
	tok := p.tok
	switch tok.kind {
	case tokNumber:
		p.advance()
		return numNode(tok.num), nil
	case tokLParen:
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		p.advance()
		n, err := p.expr()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, p.errorf("expected ')' to close '(' at %d, got %s", tok.pos, p.tok.kind)
		}
		p.advance()
		return n, nil
	case tokName:
		return p.name()
	case tokEOF:
		return nil, p.errorf("unexpected end of formula")
	}
	return nil, p.errorf("unexpected %s %q", tok.kind, tok.text)
}

func (p *parser) name() (node, error) {
	start := p.tok
	name := start.text
	p.advance()
	if p.tok.kind == tokDot {
		if !qualifiers[name] {
			return nil, &SyntaxError{Pos: start.pos, Msg: fmt.Sprintf("unknown module %q", name)}
		}
		p.advance()
		if p.tok.kind != tokName {
			return nil, p.errorf("expected name after %q", name+".")
		}
		start = p.tok
		name = p.tok.text
		p.advance()
	}
	if p.tok.kind != tokLParen {
		if name == "x" {
			return varNode{}, nil
		}
		if v, ok := constants[name]; ok {
			return numNode(v), nil
		}
		if lookupBuiltin(name) != nil {
			return nil, &SyntaxError{Pos: start.pos, Msg: fmt.Sprintf("function %q requires arguments", name)}
		}
		return nil, &SyntaxError{Pos: start.pos, Msg: fmt.Sprintf("unknown name %q, the only variable is x", name)}
	}
	fn := lookupBuiltin(name)
	if fn == nil {
		return nil, &SyntaxError{Pos: start.pos, Msg: fmt.Sprintf("unknown function %q", name)}
	}
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	p.advance() // Consume '('.
	var args []node
	for {
		arg, err := p.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.tok.kind != tokComma {
			break
		}
		p.advance()
	}
	if p.tok.kind != tokRParen {
		return nil, p.errorf("expected ')' after arguments to %s, got %s", fn.name, p.tok.kind)
	}
	p.advance()
	if len(args) != fn.nargs() {
		return nil, &SyntaxError{Pos: start.pos, Msg: fmt.Sprintf("%s takes %d argument(s), got %d", fn.name, fn.nargs(), len(args))}
	}
	return fold(callNode{fn: fn, args: args}), nil
}
