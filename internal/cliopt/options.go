package cliopt

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	"github.com/nonibytes/dql/dql/query"
	"github.com/nonibytes/dql/dql/storage"
)

// GlobalOptions are parsed once at the CLI root and passed to subcommands.
//
// NOTE: This is a separate package to avoid import cycles between the root
// command router and per-command code.
type GlobalOptions struct {
	Config string

	Backend        string
	SQLitePath     string
	SQLiteDriver   string
	PostgresDSN    string
	PostgresSchema string
	Table          string

	MaxDepth int
	LogLevel string
	Output   string
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		Backend:        string(storage.BackendSQLite),
		SQLitePath:     ".",
		SQLiteDriver:   "sqlite",
		PostgresSchema: "dql",
		Table:          storage.DefaultTable,
		MaxDepth:       query.DefaultMaxDepth,
		LogLevel:       "warn",
		Output:         "text",
	}
}

func BindGlobalFlags(fs *pflag.FlagSet, g *GlobalOptions) {
	fs.StringVar(&g.Config, "config", g.Config, "TOML config file")

	fs.StringVar(&g.Backend, "backend", g.Backend, "backend: sqlite|postgres")
	fs.StringVar(&g.SQLitePath, "sqlite-path", g.SQLitePath, "sqlite directory or explicit .db file path")
	fs.StringVar(&g.SQLiteDriver, "sqlite-driver", g.SQLiteDriver, "sqlite driver: sqlite (pure Go) or sqlite3 (cgo)")
	fs.StringVar(&g.PostgresDSN, "pg-dsn", g.PostgresDSN, "postgres DSN")
	fs.StringVar(&g.PostgresSchema, "pg-schema", g.PostgresSchema, "default postgres schema")
	fs.StringVar(&g.Table, "table", g.Table, "document table created by init")

	fs.IntVar(&g.MaxDepth, "max-depth", g.MaxDepth, "maximum query nesting depth")
	fs.StringVar(&g.LogLevel, "log-level", g.LogLevel, "log level: debug|info|warn|error|disabled")
	fs.StringVarP(&g.Output, "output", "o", g.Output, "output: text|json|yaml")
}

// fileConfig mirrors GlobalOptions in the config file.
type fileConfig struct {
	Backend  string `toml:"backend"`
	LogLevel string `toml:"log_level"`
	Output   string `toml:"output"`
	MaxDepth int    `toml:"max_depth"`

	SQLite struct {
		Path   string `toml:"path"`
		Driver string `toml:"driver"`
	} `toml:"sqlite"`

	Postgres struct {
		DSN    string `toml:"dsn"`
		Schema string `toml:"schema"`
	} `toml:"postgres"`

	Store struct {
		Table string `toml:"table"`
	} `toml:"store"`
}

// LoadFile applies the config file at path to g. Values whose flag was set
// on the command line (per changed) are left alone.
func LoadFile(path string, g *GlobalOptions, changed func(flag string) bool) error {
	var fc fileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return fmt.Errorf("load config %q: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config %q: unknown key %q", path, undecoded[0].String())
	}

	set := func(flag string, dst *string, v string) {
		if v != "" && !changed(flag) {
			*dst = v
		}
	}
	set("backend", &g.Backend, fc.Backend)
	set("log-level", &g.LogLevel, fc.LogLevel)
	set("output", &g.Output, fc.Output)
	set("sqlite-path", &g.SQLitePath, fc.SQLite.Path)
	set("sqlite-driver", &g.SQLiteDriver, fc.SQLite.Driver)
	set("pg-dsn", &g.PostgresDSN, fc.Postgres.DSN)
	set("pg-schema", &g.PostgresSchema, fc.Postgres.Schema)
	set("table", &g.Table, fc.Store.Table)
	if fc.MaxDepth > 0 && !changed("max-depth") {
		g.MaxDepth = fc.MaxDepth
	}
	return nil
}
