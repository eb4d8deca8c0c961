package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/mchmarny/vinecop/pkg/config"
	"github.com/mchmarny/vinecop/pkg/data"
	"github.com/mchmarny/vinecop/pkg/logging"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	appName      = "vinecop"
	appConfigKey = "app-config"

	formatJSON = "json"
	formatYAML = "yaml"

	flagDebug     = "debug"
	flagDB        = "db"
	flagFormat    = "format"
	flagConfigDir = "config-dir"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""
)

// Execute creates and runs the CLI application.
func Execute() {
	logging.SetDefaultCLILogger(config.DefaultLogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp()
	if err := app.Run(ctx, os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		stop()
		os.Exit(1)
	}
}

type appConfig struct {
	Dir         string
	DSN         string
	Format      string
	Strict      bool
	RegistryURL string
	Debug       bool

	db *sqlx.DB
}

// DB opens the model store on first use.
func (c *appConfig) DB() (*sqlx.DB, error) {
	if c.db != nil {
		return c.db, nil
	}
	if err := data.Init(c.DSN); err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	db, err := data.GetDB(c.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	c.db = db
	return db, nil
}

func (c *appConfig) close() {
	if c.db != nil {
		c.db.Close()
		c.db = nil
	}
}

func getConfig(cmd *cli.Command) *appConfig {
	return cmd.Root().Metadata[appConfigKey].(*appConfig)
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:            appName,
		Version:         fmt.Sprintf("%s (%s - %s)", version, commit, date),
		HideHelpCommand: true,
		Usage:           "Inspect, validate and store bivariate and R-vine copula models",
		Metadata:        map[string]any{},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "Prints verbose logs (optional, default: false)",
			},
			&cli.StringFlag{
				Name:  flagDB,
				Usage: "SQLite file path or postgres:// DSN of the model store",
			},
			&cli.StringFlag{
				Name:  flagFormat,
				Usage: "Output format [json, yaml]",
				Value: formatJSON,
			},
			&cli.StringFlag{
				Name:   flagConfigDir,
				Usage:  "Directory holding config, token and default database",
				Hidden: true,
			},
		},
		Commands: []*cli.Command{
			newFamiliesCmd(),
			newBicopCmd(),
			newInspectCmd(),
			newValidateCmd(),
			newDVineCmd(),
			newModelCmd(),
			newAuthCmd(),
			newServeCmd(),
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return ctx, err
			}
			cmd.Metadata[appConfigKey] = cfg
			return ctx, nil
		},
		After: func(_ context.Context, cmd *cli.Command) error {
			if cfg, ok := cmd.Metadata[appConfigKey].(*appConfig); ok {
				cfg.close()
			}
			return nil
		},
	}
}

// loadConfig merges the config file, VINECOP_* variables and flags, in that
// order of precedence from lowest to highest.
func loadConfig(cmd *cli.Command) (*appConfig, error) {
	dir := cmd.String(flagConfigDir)
	if dir == "" {
		d, _, err := config.GetOrCreateHomeDir(appName)
		if err != nil {
			return nil, fmt.Errorf("resolving config dir: %w", err)
		}
		dir = d
	}

	conf, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	debug := cmd.Bool(flagDebug)
	level := conf.LogLevel
	if debug {
		level = "debug"
	}
	logging.SetDefaultCLILogger(level)

	f := conf.Format
	if cmd.IsSet(flagFormat) {
		f = cmd.String(flagFormat)
	}
	format, err := parseFormat(f)
	if err != nil {
		return nil, err
	}

	dsn := conf.DB
	if cmd.IsSet(flagDB) {
		dsn = cmd.String(flagDB)
	}
	if dsn == "" {
		dsn = filepath.Join(dir, data.DataFileName)
	}

	slog.Debug("config loaded", "dir", dir, "format", format)
	return &appConfig{
		Dir:         dir,
		DSN:         dsn,
		Format:      format,
		Strict:      conf.StrictMatrix,
		RegistryURL: conf.RegistryURL,
		Debug:       debug,
	}, nil
}

func parseFormat(f string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(f)) {
	case "", formatJSON:
		return formatJSON, nil
	case formatYAML, "yml":
		return formatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format %q, expected %s or %s", f, formatJSON, formatYAML)
	}
}

func encode(cmd *cli.Command, v any) error {
	return encodeTo(cmd.Root().Writer, getConfig(cmd).Format, v)
}

func encodeTo(w io.Writer, format string, v any) error {
	if format == formatYAML {
		e := yaml.NewEncoder(w)
		defer e.Close()
		return e.Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
