package cliutil

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nonibytes/dql/dql/query"
)

// PrintSyntaxError shows the error with a caret under the offending
// position of input. Other errors are printed as-is.
func PrintSyntaxError(w io.Writer, input string, err error) {
	var se *query.SyntaxError
	if !errors.As(err, &se) {
		fmt.Fprintln(w, err)
		return
	}
	fmt.Fprintln(w, se.Error())
	if strings.ContainsAny(input, "\n\r") {
		return
	}
	runes := []rune(input)
	off := se.Offset
	if off > len(runes) {
		off = len(runes)
	}
	pad := make([]rune, off)
	for i := range pad {
		pad[i] = ' '
		if runes[i] == '\t' {
			pad[i] = '\t'
		}
	}
	fmt.Fprintf(w, "  %s\n  %s^\n", input, string(pad))
	if se.Kind == query.ErrUnexpectedEOF && se.Expects(query.TokRParen) {
		fmt.Fprintln(w, "  hint: a '(' is never closed")
	}
}
