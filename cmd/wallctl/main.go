package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pantrywall/internal/cache"
	"pantrywall/internal/identity"
	"pantrywall/internal/pantry"
	"pantrywall/internal/session"
	"pantrywall/internal/wall"
)

// cliTab is the tab scope of the command line client. One state file is
// one tab.
const cliTab = "cli"

// stateTTL keeps the identity and bucket config for as long as a browser
// keeps the identity cookie.
const stateTTL = identity.DefaultMaxAge

var errNotConfigured = errors.New("no pantry configured; run 'wallctl config set <pid> <basket>' or 'wallctl config from-url <link>'")

type options struct {
	statePath string
	pantryURL string
	timeout   time.Duration
	verbose   bool
	logger    *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "wallctl",
		Short: "Read and write a Pantry note wall from the terminal",
		Long: `wallctl keeps one note per visitor on a shared Pantry basket.

The terminal gets its own identity, stored with the bucket settings in a
state file, so it shows up on the wall like any other browser.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if opts.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&opts.statePath, "state", defaultStatePath(), "state file holding identity and bucket settings")
	root.PersistentFlags().StringVar(&opts.pantryURL, "pantry-url", envOr("PANTRY_BASE_URL", pantry.DefaultBaseURL), "Pantry API root")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "timeout for each Pantry request")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newConfigCmd(opts),
		newShowCmd(opts),
		newPostCmd(opts),
		newNameCmd(opts),
		newShareCmd(opts),
	)
	return root
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "pantrywall", "state.json")
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

// client is everything a command needs: the local state, the visitor's
// wall view and the collaborators behind it.
type client struct {
	store    *cache.FileStore
	sessions *session.Resolver
	view     *wall.View
}

func openClient(opts *options) (*client, error) {
	logger := opts.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	store, err := cache.NewFileStore(opts.statePath)
	if err != nil {
		return nil, err
	}
	remote, err := pantry.NewClient(pantry.ClientConfig{
		BaseURL: opts.pantryURL,
		Timeout: opts.timeout,
		Logger:  logger.Named("pantry"),
	})
	if err != nil {
		return nil, err
	}
	sessions := session.NewResolver(session.NewTabStore(store, stateTTL), logger.Named("session"))
	service := wall.NewService(wall.ServiceConfig{
		Remote:   remote,
		Cache:    store,
		Sessions: sessions,
		Logger:   logger.Named("wall"),
	})
	self := identity.NewManager("", stateTTL, logger.Named("identity")).Ensure(identity.NewStoreJar(store, cliTab))
	return &client{
		store:    store,
		sessions: sessions,
		view:     service.Open(cliTab, self),
	}, nil
}

func (c *client) Close() {
	c.view.Close()
	_ = c.store.Close()
}

// bucket returns the configured bucket or errNotConfigured.
func (c *client) bucket(ctx context.Context) (pantry.Ref, error) {
	ref, err := c.view.Bucket(ctx, nil)
	if err != nil {
		return pantry.Ref{}, err
	}
	if ref == nil {
		return pantry.Ref{}, errNotConfigured
	}
	return *ref, nil
}
