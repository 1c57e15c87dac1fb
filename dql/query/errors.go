package query

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorKind string

const (
	ErrInvalidCharacter   ErrorKind = "invalid_character"
	ErrUnterminatedPhrase ErrorKind = "unterminated_phrase"
	ErrSyntax             ErrorKind = "syntax_error"
	ErrUnexpectedEOF      ErrorKind = "unexpected_end_of_input"
	ErrNestingTooDeep     ErrorKind = "nesting_too_deep"
)

// SyntaxError reports the earliest point at which the input could not be
// tokenized or parsed. Offset is a rune offset into the original input.
// Expected is empty for tokenizer errors.
type SyntaxError struct {
	Kind     ErrorKind
	Offset   int
	Expected []TokenKind
	Found    TokenKind
	Text     string
	Message  string
}

func (e *SyntaxError) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s at offset %d", e.Kind, e.Offset)
	switch e.Kind {
	case ErrInvalidCharacter:
		fmt.Fprintf(&b, ": unexpected character %q", e.Text)
	case ErrUnterminatedPhrase:
		b.WriteString(": missing closing quote")
	default:
		switch e.Found {
		case TokPhrase, TokNumber, TokIdent:
			fmt.Fprintf(&b, ": found %s %q", e.Found.Describe(), e.Text)
		default:
			fmt.Fprintf(&b, ": found %s", e.Found.Describe())
		}
		if len(e.Expected) > 0 {
			labels := make([]string, len(e.Expected))
			for i, k := range e.Expected {
				labels[i] = k.Describe()
			}
			fmt.Fprintf(&b, ", expected one of %s", strings.Join(labels, ", "))
		}
	}
	if e.Message != "" {
		fmt.Fprintf(&b, " (%s)", e.Message)
	}
	return b.String()
}

// Expects reports whether kind is in the expected set.
func (e *SyntaxError) Expects(kind TokenKind) bool {
	for _, k := range e.Expected {
		if k == kind {
			return true
		}
	}
	return false
}

// IsKind reports whether err is a *SyntaxError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *SyntaxError
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// kindSet is the set of token kinds tested at the furthest position reached.
type kindSet uint32

func (s *kindSet) add(k TokenKind) { *s |= 1 << uint(k) }

func (s kindSet) kinds() []TokenKind {
	var out []TokenKind
	for k := TokOr; k <= TokEOF; k++ {
		if s&(1<<uint(k)) != 0 {
			out = append(out, k)
		}
	}
	return out
}
