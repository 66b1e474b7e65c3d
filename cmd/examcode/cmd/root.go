package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmcleod/examcode/alert"
	"github.com/jmcleod/examcode/auth"
	"github.com/jmcleod/examcode/client"
	"github.com/jmcleod/examcode/config"
	"github.com/jmcleod/examcode/internal/logging"
	"github.com/jmcleod/examcode/nav"
	"github.com/jmcleod/examcode/session"
	"github.com/jmcleod/examcode/storage"
	bboltstorage "github.com/jmcleod/examcode/storage/bbolt"
	"github.com/jmcleod/examcode/storage/memory"
)

var (
	v      = viper.New()
	cfg    config.Config
	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "examcode",
	Short: "examcode shows the current exam access code",
	Long: `A client for the exam code server: log in, then watch the current access
code and the time left until it rotates. Without a subcommand the interactive
client is started.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(v)
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		logger, err = logging.Setup(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		return nil
	},
	RunE: runInteractive,
}

// Execute runs the root command, cancelling it on SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.PersistentFlags()
	f.String(config.KeyServer, config.DefaultServer, "Code server URL")
	f.String(config.KeyAPIPath, config.DefaultAPIPath, "API path on the server")
	f.Duration(config.KeyTimeout, config.DefaultTimeout, "Per-request timeout")
	f.String(config.KeySessionStore, config.StoreFile, "Session store: file or memory")
	f.String(config.KeySessionFile, config.DefaultSessionFile(), "Session database path for the file store")
	f.String(config.KeyLogLevel, config.DefaultLogLevel, "Log level: debug, info, warn or error")
	f.String(config.KeyLogFormat, config.DefaultLogFormat, "Log format: text or json")

	config.SetDefaults(v)
	cobra.CheckErr(v.BindPFlags(f))
}

// env is the object graph shared by the subcommands.
type env struct {
	repo     storage.Repository
	closer   func() error
	sessions *session.Store
	alerts   *alert.Channel
	router   *nav.Router
	client   *client.Client
	auth     *auth.Service
}

func newEnv() (*env, error) {
	e := &env{closer: func() error { return nil }}

	switch cfg.SessionStore {
	case config.StoreMemory:
		e.repo = memory.NewRepository()
	default:
		repo, err := bboltstorage.NewRepositoryFromFile(cfg.SessionFile, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to open session store: %w", err)
		}
		e.repo = repo
		e.closer = repo.Close
	}

	e.sessions = session.NewStore(e.repo, session.WithLogger(logger))
	e.alerts = alert.New()
	e.router = nav.NewRouter(nav.RouteLogin)
	e.client = client.New(cfg.BaseURL(), client.WithTimeout(cfg.Timeout), client.WithLogger(logger))
	e.auth = auth.NewService(e.client, e.sessions, e.alerts, e.router, auth.WithLogger(logger))

	logger.Debug("session store opened", "store", cfg.SessionStore, "server", cfg.BaseURL())
	return e, nil
}

func (e *env) Close() error {
	return e.closer()
}
