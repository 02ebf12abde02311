package expr

import (
	"fmt"
	"math"
	"strconv"
)

// node is an immutable expression tree element.
type node interface {
	eval(x float64) (float64, error)
	// prec is the binding strength of the node used when printing.
	prec() int
	appendString(b []byte) []byte
}

const (
	precAdd = iota + 1
	precMul
	precUnary
	precPow
	precAtom
)

type numNode float64

type varNode struct{}

type negNode struct{ arg node }

type binaryNode struct {
	op   tokenKind // tokPlus, tokMinus, tokStar, tokSlash or tokPow.
	l, r node
}

type callNode struct {
	fn   *builtin
	args []node
}

func (n numNode) eval(float64) (float64, error) { return float64(n), nil }

func (n numNode) prec() int {
	if math.Signbit(float64(n)) {
		return precUnary
	}
	return precAtom
}

func (n numNode) appendString(b []byte) []byte {
	return strconv.AppendFloat(b, float64(n), 'g', -1, 64)
}

func (varNode) eval(x float64) (float64, error) { return x, nil }
func (varNode) prec() int                        { return precAtom }
func (varNode) appendString(b []byte) []byte     { return append(b, 'x') }

func (n negNode) eval(x float64) (float64, error) {
	v, err := n.arg.eval(x)
	return -v, err
}

func (n negNode) prec() int { return precUnary }

func (n negNode) appendString(b []byte) []byte {
	b = append(b, '-')
	return appendOperand(b, n.arg, n.arg.prec() < precUnary)
}

func (n binaryNode) eval(x float64) (float64, error) {
	a, err := n.l.eval(x)
	if err != nil {
		return 0, err
	}
	c, err := n.r.eval(x)
	if err != nil {
		return 0, err
	}
	var v float64
	switch n.op {
	case tokPlus:
		v = a + c
	case tokMinus:
		v = a - c
	case tokStar:
		v = a * c
	case tokSlash:
		if c == 0 {
			return 0, ErrDivisionByZero
		}
		v = a / c
	case tokPow:
		if a == 0 && c < 0 {
			return 0, fmt.Errorf("%w: zero raised to negative power", ErrDivisionByZero)
		}
		v = math.Pow(a, c)
	default:
		panic("unknown binary operator " + n.op.String())
	}
	if math.IsNaN(v) && !math.IsNaN(a) && !math.IsNaN(c) {
		return 0, fmt.Errorf("%w: %g %s %g", ErrDomain, a, opSymbol(n.op), c)
	}
	return v, nil
}

func (n binaryNode) prec() int {
	switch n.op {
	case tokPlus, tokMinus:
		return precAdd
	case tokStar, tokSlash:
		return precMul
	}
	return precPow
}

func (n binaryNode) appendString(b []byte) []byte {
	p := n.prec()
	lparen := n.l.prec() < p
	rparen := n.r.prec() < p
	if n.op == tokPow {
		// Right associative: only the left operand needs parentheses at equal precedence.
		lparen = n.l.prec() <= p
	} else if n.op == tokMinus || n.op == tokSlash {
		rparen = n.r.prec() <= p
	}
	b = appendOperand(b, n.l, lparen)
	switch n.op {
	case tokPow:
		b = append(b, "**"...)
	default:
		b = append(b, ' ')
		b = append(b, opSymbol(n.op)...)
		b = append(b, ' ')
	}
	return appendOperand(b, n.r, rparen)
}

func (n callNode) eval(x float64) (float64, error) {
	var args [2]float64
	for i, arg := range n.args {
		v, err := arg.eval(x)
		if err != nil {
			return 0, err
		}
		args[i] = v
	}
	return n.fn.call(args[:len(n.args)])
}

func (n callNode) prec() int { return precAtom }

func (n callNode) appendString(b []byte) []byte {
	b = append(b, n.fn.name...)
	b = append(b, '(')
	for i, arg := range n.args {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = arg.appendString(b)
	}
	return append(b, ')')
}

func appendOperand(b []byte, n node, paren bool) []byte {
	if !paren {
		return n.appendString(b)
	}
	b = append(b, '(')
	b = n.appendString(b)
	return append(b, ')')
}

func opSymbol(op tokenKind) string {
	switch op {
	case tokPlus:
		return "+"
	case tokMinus:
		return "-"
	case tokStar:
		return "*"
	case tokSlash:
		return "/"
	case tokPow:
		return "**"
	}
	return "?"
}

// isConst reports whether the node does not depend on x.
func isConst(n node) bool {
	_, ok := n.(numNode)
	return ok
}

// fold evaluates constant subtrees. Subtrees whose evaluation fails are kept
// so that the failure surfaces on evaluation with its original message.
func fold(n node) node {
	switch n := n.(type) {
	case negNode:
		if !isConst(n.arg) {
			return n
		}
	case binaryNode:
		if !isConst(n.l) || !isConst(n.r) {
			return n
		}
	case callNode:
		for _, arg := range n.args {
			if !isConst(arg) {
				return n
			}
		}
	default:
		return n
	}
	v, err := n.eval(0)
	if err != nil || math.IsInf(v, 0) {
		return n
	}
	return numNode(v)
}
