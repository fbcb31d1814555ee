package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/actdesk/backend/internal/infrastructure/config"
	"github.com/actdesk/backend/internal/infrastructure/logger"
	"github.com/actdesk/backend/internal/infrastructure/migration"
	"github.com/actdesk/backend/internal/infrastructure/persistence"
)

// defaultSourceRoot is where new migrations are written from a checkout
const defaultSourceRoot = "internal/infrastructure/migration/sql"

// env is what every subcommand needs: configuration, a logger and the
// optional on-disk migrations root
type env struct {
	cfg  *config.Config
	log  *zap.Logger
	root string
}

// migrator opens the database and the migrations, embedded unless a root
// was given with --path
func (e *env) migrator() (*migration.Migrator, error) {
	db := e.cfg.Database
	if e.root != "" {
		return migration.NewFromURL(db.MigrateURL(), db.Driver, filepath.Join(e.root, db.Driver), e.log)
	}
	driver, dsn, err := persistence.SQLConnParams(&db)
	if err != nil {
		return nil, err
	}
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return migration.New(conn, db.Driver, e.log)
}

// withMigrator wraps a command body that runs against the database
func (e *env) withMigrator(run func(m *migration.Migrator, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		m, err := e.migrator()
		if err != nil {
			return err
		}
		defer m.Close()
		return run(m, args)
	}
}

func newRootCmd() *cobra.Command {
	var (
		e        = &env{}
		logLevel string
	)

	root := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the actdesk database schema",
		Long: `migrate applies the schema migrations for the address book and export
history tables. The database comes from config.toml and ACT_DATABASE_*:
ACT_DATABASE_DRIVER, ACT_DATABASE_PATH, ACT_DATABASE_HOST, ACT_DATABASE_PORT,
ACT_DATABASE_USER, ACT_DATABASE_PASSWORD, ACT_DATABASE_DBNAME and
ACT_DATABASE_SSLMODE.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger.New(&logger.Config{
				Level:      logLevel,
				Format:     "console",
				Output:     "stderr",
				TimeFormat: "2006-01-02 15:04:05",
			})
			if err != nil {
				return err
			}
			_ = godotenv.Load()
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if e.root != "" {
				if e.root, err = filepath.Abs(e.root); err != nil {
					return err
				}
			}
			e.cfg, e.log = cfg, log
			log.Debug("Migration CLI started",
				zap.String("command", cmd.Name()),
				zap.String("driver", cfg.Database.Driver),
				zap.String("migrations_path", e.root),
			)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.log != nil {
				_ = logger.Sync(e.log)
			}
		},
	}
	root.PersistentFlags().StringVar(&e.root, "path", "", "Migrations root holding sqlite/ and postgres/ (default: embedded)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE:  e.withMigrator(func(m *migration.Migrator, _ []string) error { return m.Up() }),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			Args:  cobra.NoArgs,
			RunE:  e.withMigrator(func(m *migration.Migrator, _ []string) error { return m.Down() }),
		},
		&cobra.Command{
			Use:   "step <n>",
			Short: "Apply n migrations, negative n rolls back",
			Args:  cobra.ExactArgs(1),
			RunE: e.withMigrator(func(m *migration.Migrator, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return m.Steps(n)
			}),
		},
		&cobra.Command{
			Use:   "goto <version>",
			Short: "Migrate to a specific version",
			Args:  cobra.ExactArgs(1),
			RunE: e.withMigrator(func(m *migration.Migrator, args []string) error {
				v, err := strconv.ParseUint(args[0], 10, 32)
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.GoTo(uint(v))
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show the current migration version",
			Args:  cobra.NoArgs,
			RunE: e.withMigrator(func(m *migration.Migrator, _ []string) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				if v == 0 {
					e.log.Info("No migrations applied")
					return nil
				}
				e.log.Info("Current migration version", zap.Uint("version", v), zap.Bool("dirty", dirty))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Set the version without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE: e.withMigrator(func(m *migration.Migrator, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				e.log.Warn("Forcing migration version", zap.Int("version", v))
				return m.Force(v)
			}),
		},
		newDropCmd(e),
		newCreateCmd(e),
		newListCmd(e),
	)
	return root
}

func newDropCmd(e *env) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop every table, including the address book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("drop cancelled, pass --confirm to drop all tables")
			}
			return e.withMigrator(func(m *migration.Migrator, _ []string) error { return m.Drop() })(cmd, args)
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm dropping all tables")
	return cmd
}

func newCreateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name> [description]",
		Short: "Create an up/down pair for every driver",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := e.root
			if root == "" {
				root = defaultSourceRoot
			}
			description := ""
			if len(args) > 1 {
				description = args[1]
			}
			mf, err := migration.CreateMigration(root, args[0], description)
			if err != nil {
				return err
			}
			for _, p := range mf.Paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			e.log.Info("Migration created", zap.String("version", mf.Version))
			return nil
		},
	}
}

func newListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the migrations for the configured driver",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			driver := e.cfg.Database.Driver
			var (
				names []string
				err   error
			)
			if e.root == "" {
				names, err = migration.ListEmbedded(driver)
			} else {
				names, err = migration.ListMigrations(filepath.Join(e.root, driver))
			}
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
