package query

import "fmt"

// TokenKind is the type of token
type TokenKind int

const (
	TokOr TokenKind = iota
	TokAnd
	TokNot
	TokGt
	TokLt
	TokGe
	TokLe
	TokEq
	TokLParen
	TokRParen
	TokPhrase
	TokNumber
	TokIdent
	TokEOF
	// TokInvalid never appears in a token slice; it is the Found kind of
	// an invalid character error.
	TokInvalid
)

func (k TokenKind) String() string {
	switch k {
	case TokOr:
		return "OR"
	case TokAnd:
		return "AND"
	case TokNot:
		return "NOT"
	case TokGt:
		return "GT"
	case TokLt:
		return "LT"
	case TokGe:
		return "GE"
	case TokLe:
		return "LE"
	case TokEq:
		return "EQ"
	case TokLParen:
		return "LPAREN"
	case TokRParen:
		return "RPAREN"
	case TokPhrase:
		return "PHRASE"
	case TokNumber:
		return "NUMBER"
	case TokIdent:
		return "IDENTIFIER"
	case TokEOF:
		return "EOF"
	case TokInvalid:
		return "INVALID"
	default:
		return "Unknown"
	}
}

// Describe returns a human readable label, e.g. "'>='" or "end of input".
func (k TokenKind) Describe() string {
	switch k {
	case TokGt:
		return "'>'"
	case TokLt:
		return "'<'"
	case TokGe:
		return "'>='"
	case TokLe:
		return "'<='"
	case TokEq:
		return "':'"
	case TokLParen:
		return "'('"
	case TokRParen:
		return "')'"
	case TokPhrase:
		return "phrase"
	case TokNumber:
		return "number"
	case TokIdent:
		return "identifier"
	case TokEOF:
		return "end of input"
	case TokInvalid:
		return "invalid character"
	default:
		return k.String()
	}
}

// Token is a classified lexeme. Start and End are rune offsets into the
// original input, End exclusive. Text is the raw lexeme; for phrases it
// includes the quotes and escapes.
type Token struct {
	Kind  TokenKind
	Text  string
	Start int
	End   int
}

func (t Token) String() string {
	if t.Kind == TokEOF {
		return fmt.Sprintf("EOF@%d", t.Start)
	}
	return fmt.Sprintf("%s(%q)@%d", t.Kind, t.Text, t.Start)
}

func isComparisonOp(k TokenKind) bool {
	return k == TokGt || k == TokLt || k == TokGe || k == TokLe
}
