// Package cli provides a command-line interface for the cacheman store.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/cacheman-mongo/domain/cache"
	"github.com/felixgeelhaar/cacheman-mongo/infrastructure/config"
	"github.com/felixgeelhaar/cacheman-mongo/infrastructure/logging"
	"github.com/felixgeelhaar/cacheman-mongo/infrastructure/storage/mongodb"
)

// Version information set at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// App represents the CLI application.
type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer

	configPath string
	uri        string
	database   string
	collection string
	defaultTTL int
	compress   bool
	logLevel   string
}

// New creates a new CLI application.
func New() *App {
	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "cacheman",
		Short: "MongoDB-backed cache storage",
		Long: `cacheman stores key-value entries with TTL expiration in MongoDB,
optionally gzip-compressing binary values. Entries expire both lazily on
read and through the server-side TTL index.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := app.root.PersistentFlags()
	flags.StringVar(&app.configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&app.uri, "uri", "", "MongoDB connection URI")
	flags.StringVar(&app.database, "database", "", "database name")
	flags.StringVar(&app.collection, "collection", "", "collection name")
	flags.IntVar(&app.defaultTTL, "ttl", 0, "store default TTL in seconds")
	flags.BoolVar(&app.compress, "compress", false, "gzip-compress binary values")
	flags.StringVar(&app.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")

	app.root.AddCommand(
		app.newVersionCmd(),
		app.newPingCmd(),
		app.newGetCmd(),
		app.newSetCmd(),
		app.newDelCmd(),
		app.newResetCmd(),
	)

	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the CLI application.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments (useful for testing).
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

// cacheConfig assembles the store configuration from the config file and
// flags, flags winning.
func (a *App) cacheConfig() (mongodb.Config, error) {
	var cfg mongodb.Config

	if a.configPath != "" {
		f, err := config.NewLoader().LoadFile(a.configPath)
		if err != nil {
			return mongodb.Config{}, err
		}
		cfg = f.CacheConfig()
		if f.Log.Level != "" {
			a.logLevel = f.Log.Level
		}
	}

	if a.uri != "" {
		cfg.URI = a.uri
	}
	if a.database != "" {
		cfg.Database = a.database
	}
	if a.collection != "" {
		cfg.Collection = a.collection
	}
	if a.defaultTTL > 0 {
		cfg.DefaultTTL = time.Duration(a.defaultTTL) * time.Second
	}
	if a.compress {
		cfg.Compression = true
	}

	return cfg, nil
}

// openCache connects to the configured store.
func (a *App) openCache(ctx context.Context) (*mongodb.Cache, error) {
	cfg, err := a.cacheConfig()
	if err != nil {
		return nil, err
	}

	logging.Init(logging.Config{Level: a.logLevel, Format: "console", Output: os.Stderr})
	logging.SetLevel(a.logLevel)

	return mongodb.NewCache(ctx, cfg)
}

// newVersionCmd creates the version command.
func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "cacheman version %s\n", Version)
			fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
			fmt.Fprintf(a.stdout, "  Build date: %s\n", BuildDate)
		},
	}
}

// newPingCmd creates the ping command.
func (a *App) newPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check the MongoDB connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close(cmd.Context())

			if err := c.Ping(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintln(a.stdout, "ok")
			return nil
		},
	}
}

// newGetCmd creates the get command.
func (a *App) newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Read a cache entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close(cmd.Context())

			value, found, err := c.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !found {
				fmt.Fprintln(a.stdout, "(miss)")
				return nil
			}

			if b, ok := value.([]byte); ok {
				fmt.Fprintln(a.stdout, string(b))
				return nil
			}
			fmt.Fprintln(a.stdout, value)
			return nil
		},
	}
}

// newSetCmd creates the set command.
func (a *App) newSetCmd() *cobra.Command {
	var entryTTL int
	var binary bool

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write a cache entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, raw := args[0], args[1]

			var value any = raw
			if binary {
				value = []byte(raw)
			}

			if !cache.IsCacheableValue(value) {
				return fmt.Errorf("value for key %q is not cacheable", key)
			}

			c, err := a.openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close(cmd.Context())

			opts := cache.SetOptions{TTL: time.Duration(entryTTL) * time.Second}
			if err := c.Set(cmd.Context(), key, value, opts); err != nil {
				return err
			}

			fmt.Fprintln(a.stdout, "ok")
			return nil
		},
	}

	cmd.Flags().IntVar(&entryTTL, "entry-ttl", 0, "TTL in seconds for this entry (0 = store default)")
	cmd.Flags().BoolVar(&binary, "binary", false, "store the value as bytes, making it eligible for compression")

	return cmd
}

// newDelCmd creates the del command.
func (a *App) newDelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "del <key>",
		Short: "Delete a cache entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close(cmd.Context())

			if err := c.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Fprintln(a.stdout, "ok")
			return nil
		},
	}
}

// newResetCmd creates the reset command.
func (a *App) newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Remove every entry in the cache collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close(cmd.Context())

			if err := c.Clear(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintln(a.stdout, "ok")
			return nil
		},
	}
}
