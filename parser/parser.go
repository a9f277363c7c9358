package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse translates preprocessed EEL text into a Script AST.
func Parse(src string) (*Script, error) {
	p := &parser{
		lx: newLexer(src),
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseScript()
}

type parser struct {
	lx      *lexer
	curr    Token
	prevEnd Position
}

var (
	expectOperand   = []string{"number", "identifier", `"("`, `"-"`, `"+"`, `"!"`}
	expectStatement = []string{`";"`, "end of input"}
	expectArgument  = []string{`","`, `";"`, `")"`}
	expectBlock     = []string{`";"`, `")"`}
)

func (p *parser) advance() error {
	p.prevEnd = endOf(p.curr)
	tok, err := p.lx.nextToken()
	if err != nil {
		return err
	}
	p.curr = tok
	return nil
}

func (p *parser) expect(tt TokenType, expected []string) (Token, error) {
	if p.curr.Type != tt {
		return Token{}, p.unexpected(expected)
	}
	tok := p.curr
	if err := p.advance(); err != nil {
		return Token{}, err
	}
	return tok, nil
}

func (p *parser) unexpected(expected []string) error {
	return newTokenError(fmt.Errorf("unexpected %s", p.curr.describe()), p.curr, expected)
}

func (p *parser) parseScript() (*Script, error) {
	start := p.curr.Pos
	var body []Node
	for p.curr.Type != tokenEOF {
		if p.curr.Type == tokenSemicolon {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		body = append(body, expr)
		switch p.curr.Type {
		case tokenSemicolon, tokenEOF:
		default:
			return nil, p.unexpected(expectStatement)
		}
	}
	return &Script{
		Body: body,
		Loc:  Span{Start: start, End: p.curr.Pos},
	}, nil
}

func (p *parser) parseExpression() (Node, error) {
	return p.parseAssignment()
}

func (p *parser) parseAssignment() (Node, error) {
	left, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	op, ok := assignmentOperators[p.curr.Type]
	if !ok {
		return left, nil
	}
	if !isAssignable(left) {
		return nil, &Error{
			Err:   fmt.Errorf("invalid assignment target; only variables and megabuf/gmegabuf slots can be assigned"),
			Pos:   left.Span().Start,
			End:   left.Span().End,
			Token: op,
		}
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	right, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	return &AssignmentExpression{
		Operator: op,
		Left:     left,
		Right:    right,
		Loc:      Span{Start: left.Span().Start, End: right.Span().End},
	}, nil
}

func isAssignable(n Node) bool {
	switch target := n.(type) {
	case *Identifier:
		return true
	case *CallExpression:
		return IsBufferName(target.Callee.Name)
	default:
		return false
	}
}

// parseConditional handles `test ? consequent : alternate`, which is sugar
// for if(test, consequent, alternate). A missing alternate evaluates to 0.
func (p *parser) parseConditional() (Node, error) {
	test, err := p.parseLogical()
	if err != nil {
		return nil, err
	}
	if p.curr.Type != tokenQuestion {
		return test, nil
	}
	qTok := p.curr
	if err := p.advance(); err != nil {
		return nil, err
	}
	consequent, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	var alternate Node = &NumberLiteral{Value: 0}
	if p.curr.Type == tokenColon {
		if err := p.advance(); err != nil {
			return nil, err
		}
		alternate, err = p.parseAssignment()
		if err != nil {
			return nil, err
		}
	}
	return &CallExpression{
		Callee:    &Identifier{Name: "if", Loc: Span{Start: qTok.Pos, End: endOf(qTok)}},
		Arguments: []Node{test, consequent, alternate},
		Loc:       Span{Start: test.Span().Start, End: p.prevEnd},
	}, nil
}

func (p *parser) parseLogical() (Node, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.curr.Type == tokenAndAnd || p.curr.Type == tokenOrOr {
		opTok := p.curr
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &LogicalExpression{
			Operator: opTok.Lexeme,
			Left:     left,
			Right:    right,
			Loc:      Span{Start: left.Span().Start, End: right.Span().End},
		}
	}
	return left, nil
}

func (p *parser) parseComparison() (Node, error) {
	return p.parseBinaryLevel(p.parseAdditive, tokenEqualEqual, tokenBangEqual,
		tokenLess, tokenLessEqual, tokenGreater, tokenGreaterEqual)
}

func (p *parser) parseAdditive() (Node, error) {
	return p.parseBinaryLevel(p.parseMultiplicative, tokenPlus, tokenMinus)
}

func (p *parser) parseMultiplicative() (Node, error) {
	return p.parseBinaryLevel(p.parseBitwise, tokenStar, tokenSlash, tokenPercent, tokenCaret)
}

func (p *parser) parseBitwise() (Node, error) {
	return p.parseBinaryLevel(p.parseUnary, tokenAmpersand, tokenPipe)
}

// parseBinaryLevel parses a left-associative chain of the given operators.
func (p *parser) parseBinaryLevel(next func() (Node, error), ops ...TokenType) (Node, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for containsToken(ops, p.curr.Type) {
		opTok := p.curr
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpression{
			Operator: opTok.Lexeme,
			Left:     left,
			Right:    right,
			Loc:      Span{Start: left.Span().Start, End: right.Span().End},
		}
	}
	return left, nil
}

func containsToken(set []TokenType, tt TokenType) bool {
	for _, candidate := range set {
		if candidate == tt {
			return true
		}
	}
	return false
}

func (p *parser) parseUnary() (Node, error) {
	switch p.curr.Type {
	case tokenMinus, tokenPlus, tokenBang:
		opTok := p.curr
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpression{
			Operator: opTok.Lexeme,
			Operand:  operand,
			Loc:      Span{Start: opTok.Pos, End: operand.Span().End},
		}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	switch p.curr.Type {
	case tokenNumber:
		tok := p.curr
		value, err := parseNumber(tok.Lexeme)
		if err != nil {
			return nil, newTokenError(err, tok, nil)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &NumberLiteral{
			Value: value,
			Loc:   Span{Start: tok.Pos, End: endOf(tok)},
		}, nil
	case tokenIdentifier, tokenIf:
		tok := p.curr
		if err := p.advance(); err != nil {
			return nil, err
		}
		ident := &Identifier{
			Name: Normalize(tok.Lexeme),
			Loc:  Span{Start: tok.Pos, End: endOf(tok)},
		}
		if p.curr.Type == tokenLParen {
			return p.parseCall(ident)
		}
		if tok.Type == tokenIf {
			return nil, p.unexpected([]string{`"("`})
		}
		return ident, nil
	case tokenLParen:
		open := p.curr
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseSequence(open.Pos, expectBlock)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokenRParen, expectBlock); err != nil {
			return nil, err
		}
		return expr, nil
	default:
		return nil, p.unexpected(expectOperand)
	}
}

func (p *parser) parseCall(callee *Identifier) (Node, error) {
	if _, err := p.expect(tokenLParen, []string{`"("`}); err != nil {
		return nil, err
	}
	var args []Node
	if p.curr.Type != tokenRParen {
		for {
			arg, err := p.parseSequence(p.curr.Pos, expectArgument)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.curr.Type != tokenComma {
				break
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expect(tokenRParen, expectArgument); err != nil {
		return nil, err
	}
	return &CallExpression{
		Callee:    callee,
		Arguments: args,
		Loc:       Span{Start: callee.Loc.Start, End: p.prevEnd},
	}, nil
}

// parseSequence parses `e1; e2; ...` with an optional trailing semicolon.
// A single element is returned as-is; more become an ExpressionBlock.
func (p *parser) parseSequence(start Position, expected []string) (Node, error) {
	var body []Node
	for {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		body = append(body, expr)
		if p.curr.Type != tokenSemicolon {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.curr.Type == tokenRParen || p.curr.Type == tokenComma {
			break
		}
	}
	switch p.curr.Type {
	case tokenRParen, tokenComma:
	default:
		return nil, p.unexpected(expected)
	}
	if len(body) == 1 {
		return body[0], nil
	}
	return &ExpressionBlock{
		Body: body,
		Loc:  Span{Start: start, End: p.prevEnd},
	}, nil
}

func parseNumber(lexeme string) (float64, error) {
	text := lexeme
	if strings.HasSuffix(text, ".") {
		text += "0"
	}
	if strings.HasPrefix(text, ".") {
		text = "0" + text
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number literal %q: %w", lexeme, err)
	}
	return value, nil
}
