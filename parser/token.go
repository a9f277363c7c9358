package parser

// TokenType enumerates lexical categories recognised by the EEL lexer.
type TokenType int

const (
	tokenEOF TokenType = iota
	tokenIllegal

	tokenIdentifier
	tokenNumber

	// Keywords
	tokenIf

	// Operators and punctuation
	tokenAssign        // =
	tokenPlusAssign    // +=
	tokenMinusAssign   // -=
	tokenStarAssign    // *=
	tokenSlashAssign   // /=
	tokenPercentAssign // %=
	tokenEqualEqual    // ==
	tokenBangEqual     // !=
	tokenLess          // <
	tokenLessEqual     // <=
	tokenGreater       // >
	tokenGreaterEqual  // >=
	tokenAndAnd        // &&
	tokenOrOr          // ||
	tokenPlus          // +
	tokenMinus         // -
	tokenStar          // *
	tokenSlash         // /
	tokenPercent       // %
	tokenCaret         // ^
	tokenAmpersand     // &
	tokenPipe          // |
	tokenBang          // !
	tokenQuestion      // ?
	tokenColon         // :
	tokenComma         // ,
	tokenSemicolon     // ;
	tokenLParen        // (
	tokenRParen        // )
)

func (tt TokenType) String() string {
	switch tt {
	case tokenEOF:
		return "EOF"
	case tokenIllegal:
		return "illegal"
	case tokenIdentifier:
		return "identifier"
	case tokenNumber:
		return "number"
	case tokenIf:
		return "if"
	case tokenAssign:
		return "="
	case tokenPlusAssign:
		return "+="
	case tokenMinusAssign:
		return "-="
	case tokenStarAssign:
		return "*="
	case tokenSlashAssign:
		return "/="
	case tokenPercentAssign:
		return "%="
	case tokenEqualEqual:
		return "=="
	case tokenBangEqual:
		return "!="
	case tokenLess:
		return "<"
	case tokenLessEqual:
		return "<="
	case tokenGreater:
		return ">"
	case tokenGreaterEqual:
		return ">="
	case tokenAndAnd:
		return "&&"
	case tokenOrOr:
		return "||"
	case tokenPlus:
		return "+"
	case tokenMinus:
		return "-"
	case tokenStar:
		return "*"
	case tokenSlash:
		return "/"
	case tokenPercent:
		return "%"
	case tokenCaret:
		return "^"
	case tokenAmpersand:
		return "&"
	case tokenPipe:
		return "|"
	case tokenBang:
		return "!"
	case tokenQuestion:
		return "?"
	case tokenColon:
		return ":"
	case tokenComma:
		return ","
	case tokenSemicolon:
		return ";"
	case tokenLParen:
		return "("
	case tokenRParen:
		return ")"
	default:
		return "unknown"
	}
}

// Token is a single lexical unit produced by the lexer.
type Token struct {
	Type   TokenType
	Lexeme string // raw matched text
	Pos    Position
}

// describe renders the token the way error messages quote it.
func (t Token) describe() string {
	switch t.Type {
	case tokenEOF:
		return "end of input"
	case tokenIdentifier, tokenNumber, tokenIllegal:
		return "\"" + t.Lexeme + "\""
	default:
		return "\"" + t.Type.String() + "\""
	}
}

// assignmentOperators maps assignment tokens to their operator spelling.
var assignmentOperators = map[TokenType]string{
	tokenAssign:        "=",
	tokenPlusAssign:    "+=",
	tokenMinusAssign:   "-=",
	tokenStarAssign:    "*=",
	tokenSlashAssign:   "/=",
	tokenPercentAssign: "%=",
}
