package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wolfman30/clinic-scheduler/internal/app/bootstrap"
	appconfig "github.com/wolfman30/clinic-scheduler/internal/config"
	"github.com/wolfman30/clinic-scheduler/internal/identity"
	"github.com/wolfman30/clinic-scheduler/internal/schedulerapi"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "clinic-booking",
		Short:         "Book clinic appointments against the scheduling API",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().String("api-url", "", "Scheduling API base URL (overrides SCHEDULER_API_URL)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().String("credential-store", "", "Where to keep the login: file, redis or memory")

	rootCmd.AddCommand(registerCmd())
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(profileCmd())
	rootCmd.AddCommand(clinicsCmd())
	rootCmd.AddCommand(slotsCmd())
	rootCmd.AddCommand(providersCmd())
	rootCmd.AddCommand(roomsCmd())
	rootCmd.AddCommand(bookCmd())
	rootCmd.AddCommand(appointmentsCmd())
	rootCmd.AddCommand(serveCmd())

	return rootCmd
}

// app is what every command needs: configuration, a logger and the stored
// credential.
type app struct {
	cfg      *appconfig.Config
	logger   *logging.Logger
	store    identity.Store
	resolver *identity.Resolver
	out      io.Writer
}

func newApp(cmd *cobra.Command) (*app, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := appconfig.Load()

	flags := cmd.Flags()
	if v, _ := flags.GetString("api-url"); v != "" {
		cfg.APIBaseURL = v
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v, _ := flags.GetString("credential-store"); v != "" {
		cfg.CredentialStore = v
	}
	format := cfg.LogFormat
	if flags.Changed("log-format") || os.Getenv("LOG_FORMAT") == "" {
		format, _ = flags.GetString("log-format")
	}

	logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel, format)
	store, err := bootstrap.BuildCredentialStore(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		resolver: identity.NewResolver(store, cfg.TokenSecret, logger),
		out:      cmd.OutOrStdout(),
	}, nil
}

// client returns an API client authenticated with the stored token.
func (a *app) client() *schedulerapi.Client {
	return bootstrap.BuildAPIClient(a.cfg, nil, identity.TokenSource(a.store), a.logger)
}

func (a *app) identity(ctx context.Context) *identity.Identity {
	return a.resolver.Resolve(ctx)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
