package cliutil

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/nonibytes/dql/dql"
	"github.com/nonibytes/dql/dql/query"
	"github.com/nonibytes/dql/internal/cliopt"
)

// Env carries the streams, global options and logger every command uses.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Global cliopt.GlobalOptions
	Log    zerolog.Logger
}

// NewLogger returns a console logger on w at the named level.
func NewLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q", level)
	}
	out := zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: "15:04:05"}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

// ParseOptions returns the parser options selected by the global flags.
func (e *Env) ParseOptions() query.Options {
	return query.Options{MaxDepth: e.Global.MaxDepth}
}

// StoreOptions returns store options wired to the CLI logger.
func (e *Env) StoreOptions() dql.Options {
	opts := dql.DefaultOptions()
	opts.Table = e.Global.Table
	opts.Parse = e.ParseOptions()
	opts.Logger = e.Log
	return opts
}

// OpenStore opens the store named by ref.
func (e *Env) OpenStore(ctx context.Context, ref string) (*dql.Store, error) {
	adapter, err := Adapter(e.Global, ref)
	if err != nil {
		return nil, err
	}
	return dql.Open(ctx, adapter, e.StoreOptions())
}

// CreateStore creates the store named by ref.
func (e *Env) CreateStore(ctx context.Context, ref string) (*dql.Store, error) {
	adapter, err := Adapter(e.Global, ref)
	if err != nil {
		return nil, err
	}
	return dql.Create(ctx, adapter, e.StoreOptions())
}
