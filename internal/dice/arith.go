package dice

import (
	"fmt"
	"math"
	"strconv"
)

// EvalArithmetic evaluates an integer expression over + - * and parentheses
// with conventional precedence. A leading sign on a factor is accepted; there
// is no division and no implicit multiplication.
//
// Postcondition: returns the value, or an error wrapping ErrExpressionEvaluation.
func EvalArithmetic(expr string) (int64, error) {
	p := &arithParser{input: expr}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.input) {
		return 0, p.errorf("unexpected %q", p.input[p.pos])
	}
	return v, nil
}

type arithParser struct {
	input string
	pos   int
}

func (p *arithParser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *arithParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s at offset %d in %q", ErrExpressionEvaluation,
		fmt.Sprintf(format, args...), p.pos, p.input)
}

// expr := term (('+' | '-') term)*
func (p *arithParser) parseExpr() (int64, error) {
	v, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return v, nil
		}
		p.pos++
		rhs, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if op == '-' {
			if rhs == math.MinInt64 {
				return 0, p.errorf("integer overflow")
			}
			rhs = -rhs
		}
		if (rhs > 0 && v > math.MaxInt64-rhs) || (rhs < 0 && v < math.MinInt64-rhs) {
			return 0, p.errorf("integer overflow")
		}
		v += rhs
	}
}

// term := factor ('*' factor)*
func (p *arithParser) parseTerm() (int64, error) {
	v, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for p.peek() == '*' {
		p.pos++
		rhs, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		if v != 0 && rhs != 0 {
			prod := v * rhs
			if prod/rhs != v || (v == -1 && rhs == math.MinInt64) || (rhs == -1 && v == math.MinInt64) {
				return 0, p.errorf("integer overflow")
			}
			v = prod
		} else {
			v = 0
		}
	}
	return v, nil
}

// factor := ('+' | '-') factor | '(' expr ')' | number
func (p *arithParser) parseFactor() (int64, error) {
	switch c := p.peek(); {
	case c == '+' || c == '-':
		p.pos++
		v, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		if c == '-' {
			if v == math.MinInt64 {
				return 0, p.errorf("integer overflow")
			}
			return -v, nil
		}
		return v, nil
	case c == '(':
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, p.errorf("missing closing parenthesis")
		}
		p.pos++
		return v, nil
	case c >= '0' && c <= '9':
		return p.parseNumber()
	case c == 0:
		return 0, p.errorf("unexpected end of expression")
	default:
		return 0, p.errorf("unexpected %q", c)
	}
}

func (p *arithParser) parseNumber() (int64, error) {
	start := p.pos
	for c := p.peek(); c >= '0' && c <= '9'; c = p.peek() {
		p.pos++
	}
	v, err := strconv.ParseInt(p.input[start:p.pos], 10, 64)
	if err != nil {
		return 0, p.errorf("number %q out of range", p.input[start:p.pos])
	}
	return v, nil
}
