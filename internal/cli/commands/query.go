package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nonibytes/dql/dql/query"
	"github.com/nonibytes/dql/dql/translate"
	"github.com/nonibytes/dql/internal/cliutil"
)

func queryArg(args []string) string {
	return strings.Join(args, " ")
}

func outputFormat(env *cliutil.Env) (cliutil.OutputFormat, error) {
	f, err := cliutil.ParseOutputFormat(env.Global.Output)
	if err != nil {
		return "", &cliutil.UsageError{Err: err}
	}
	return f, nil
}

func NewTokensCmd(env *cliutil.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <query>",
		Short: "Print the token stream of a query",
		Args:  minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := queryArg(args)
			format, err := outputFormat(env)
			if err != nil {
				return err
			}
			tokens, err := query.Tokenize(input)
			if err != nil {
				return &cliutil.QueryError{Input: input, Err: err}
			}
			if format != cliutil.FormatText {
				out := make([]map[string]any, len(tokens))
				for i, tok := range tokens {
					out[i] = map[string]any{"kind": tok.Kind.String(), "text": tok.Text, "start": tok.Start, "end": tok.End}
				}
				return cliutil.Print(env.Stdout, format, out)
			}
			for _, tok := range tokens {
				fmt.Fprintf(env.Stdout, "%-10s [%d,%d) %q\n", tok.Kind, tok.Start, tok.End, tok.Text)
			}
			return nil
		},
	}
}

func NewParseCmd(env *cliutil.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <query>",
		Short: "Parse a query and print its tree",
		Args:  minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := queryArg(args)
			format, err := outputFormat(env)
			if err != nil {
				return err
			}
			expr, err := query.ParseWithOptions(input, env.ParseOptions())
			if err != nil {
				return &cliutil.QueryError{Input: input, Err: err}
			}
			if format != cliutil.FormatText {
				return cliutil.Print(env.Stdout, format, query.Describe(expr))
			}
			printTree(env, query.Describe(expr), 0)
			return nil
		},
	}
}

// printTree writes a Describe map as an indented outline.
func printTree(env *cliutil.Env, node map[string]any, indent int) {
	pad := strings.Repeat("  ", indent)
	switch node["type"] {
	case "not":
		fmt.Fprintf(env.Stdout, "%sNOT\n", pad)
		printTree(env, node["operand"].(map[string]any), indent+1)
	case "and", "or":
		fmt.Fprintf(env.Stdout, "%s%s\n", pad, strings.ToUpper(node["type"].(string)))
		for _, op := range node["operands"].([]any) {
			printTree(env, op.(map[string]any), indent+1)
		}
	case "comparison":
		fmt.Fprintf(env.Stdout, "%sCOMPARE %s %s %s\n", pad, node["field"], node["operator"], valueText(node["value"].(map[string]any)))
	case "field_match":
		value := node["value"].(map[string]any)
		if value["type"] != "group" {
			fmt.Fprintf(env.Stdout, "%sMATCH %s = %s\n", pad, node["field"], valueText(value))
			return
		}
		fmt.Fprintf(env.Stdout, "%sMATCH %s\n", pad, node["field"])
		printGroup(env, value, indent+1)
	case "term_search":
		fmt.Fprintf(env.Stdout, "%sTERMS %s\n", pad, valueText(node))
	}
}

func printGroup(env *cliutil.Env, group map[string]any, indent int) {
	pad := strings.Repeat("  ", indent)
	fmt.Fprintf(env.Stdout, "%sGROUP\n", pad)
	for i, el := range group["elements"].([]any) {
		el := el.(map[string]any)
		prefix := ""
		if i > 0 {
			prefix = el["connective"].(string) + " "
		}
		if el["negated"].(bool) {
			prefix += "NOT "
		}
		content := el["content"].(map[string]any)
		if content["type"] == "group" {
			fmt.Fprintf(env.Stdout, "%s  %s\n", pad, strings.TrimSpace(prefix))
			printGroup(env, content, indent+2)
			continue
		}
		fmt.Fprintf(env.Stdout, "%s  %s%s\n", pad, prefix, valueText(content))
	}
}

func valueText(v map[string]any) string {
	switch v["type"] {
	case "phrase":
		return fmt.Sprintf("%q", v["text"])
	case "number":
		return v["text"].(string)
	case "term_search":
		terms := v["terms"].([]any)
		parts := make([]string, len(terms))
		for i, t := range terms {
			parts[i] = t.(string)
		}
		return strings.Join(parts, " ")
	}
	return "?"
}

func NewFmtCmd(env *cliutil.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "fmt <query>",
		Short: "Print a query in canonical form",
		Args:  minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := queryArg(args)
			expr, err := query.ParseWithOptions(input, env.ParseOptions())
			if err != nil {
				return &cliutil.QueryError{Input: input, Err: err}
			}
			fmt.Fprintln(env.Stdout, query.Format(expr))
			return nil
		},
	}
}

func NewSQLCmd(env *cliutil.Env) *cobra.Command {
	var dialect string
	cmd := &cobra.Command{
		Use:   "sql <query>",
		Short: "Translate a query into a SQL condition",
		Args:  minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := queryArg(args)
			format, err := outputFormat(env)
			if err != nil {
				return err
			}
			var d translate.Dialect
			switch dialect {
			case "sqlite":
				d = translate.SQLite(translate.DefaultColumn)
			case "postgres", "pg":
				d = translate.Postgres(translate.DefaultColumn)
			default:
				return cliutil.Usagef("unknown dialect %q (want sqlite or postgres)", dialect)
			}
			expr, err := query.ParseWithOptions(input, env.ParseOptions())
			if err != nil {
				return &cliutil.QueryError{Input: input, Err: err}
			}
			res, err := translate.Translate(expr, d, translate.DefaultOptions())
			if err != nil {
				return err
			}
			if format != cliutil.FormatText {
				return cliutil.Print(env.Stdout, format, map[string]any{"sql": res.SQL, "args": res.Args})
			}
			fmt.Fprintln(env.Stdout, res.SQL)
			for i, a := range res.Args {
				fmt.Fprintf(env.Stdout, "-- arg %d: %#v\n", i+1, a)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dialect, "dialect", "sqlite", "SQL dialect: sqlite|postgres")
	return cmd
}

func NewFieldsCmd(env *cliutil.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "fields <query>",
		Short: "List the fields a query references",
		Args:  minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := queryArg(args)
			format, err := outputFormat(env)
			if err != nil {
				return err
			}
			expr, err := query.ParseWithOptions(input, env.ParseOptions())
			if err != nil {
				return &cliutil.QueryError{Input: input, Err: err}
			}
			fields := query.Fields(expr)
			if format != cliutil.FormatText {
				return cliutil.Print(env.Stdout, format, map[string]any{"fields": fields, "depth": query.Depth(expr)})
			}
			for _, f := range fields {
				fmt.Fprintln(env.Stdout, f)
			}
			return nil
		},
	}
}

func minArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < n {
			return cliutil.Usagef("%s: expected a query argument", cmd.Name())
		}
		return nil
	}
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return cliutil.Usagef("%s: unexpected argument %q", cmd.Name(), args[0])
	}
	return nil
}
