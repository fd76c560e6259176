package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/godrives/internal/config"
	"github.com/3leaps/godrives/internal/observability"
	"github.com/3leaps/godrives/internal/server"
	"github.com/3leaps/godrives/internal/server/handlers"
	"github.com/3leaps/godrives/pkg/gateway"
	"github.com/3leaps/godrives/pkg/provider"
	"github.com/3leaps/godrives/pkg/registry"
	"github.com/3leaps/godrives/pkg/restclient"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the drive gateway API server",
	Long: `Run the HTTP server exposing drive discovery, mount lifecycle, and
content operations.

Example:
  godrives serve
  godrives serve --port 9000
  GODRIVES_ACCESS_KEY_ID=... GODRIVES_SECRET_ACCESS_KEY=... godrives serve`,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "Override bind host")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Override bind port")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadServeConfig(ctx)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid configuration", err)
	}

	logger, err := observability.NewLogger(cfg.Logging.Level, cfg.Logging.Profile)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid logging configuration", err)
	}
	defer func() { _ = logger.Sync() }()

	gw, err := buildGateway(ctx, cfg, logger)
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to initialize gateway", err)
	}

	handlers.InitHealthManager(versionInfo.Version)
	handlers.SetVersionInfo(versionInfo.Version, versionInfo.Commit, versionInfo.BuildDate)

	srv := server.New(cfg.Server.Host, cfg.Server.Port,
		server.WithLogger(logger),
		server.WithGateway(gw),
		server.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.IdleTimeout))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			return exitError(foundry.ExitExternalServiceUnavailable, "Server failed", err)
		}
		return nil
	case <-sigCtx.Done():
	}

	logger.Info("shutting down", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return exitError(foundry.ExitSignalInt, "Shutdown did not complete cleanly", err)
	}
	return nil
}

func loadServeConfig(ctx context.Context) (*config.Config, error) {
	var overrides []map[string]any
	serverOverride := map[string]any{}
	if serveHost != "" {
		serverOverride["host"] = serveHost
	}
	if servePort != 0 {
		serverOverride["port"] = servePort
	}
	if len(serverOverride) > 0 {
		overrides = append(overrides, map[string]any{"server": serverOverride})
	}
	if rootLogLevel != "" {
		overrides = append(overrides, map[string]any{"logging": map[string]any{"level": rootLogLevel}})
	}
	return config.Load(ctx, overrides...)
}

// buildGateway wires the provider stack from configuration: the REST
// client, the mount factory, the registry, and drive discovery.
func buildGateway(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*gateway.Gateway, error) {
	kind, err := provider.ParseKind(cfg.Provider.Name)
	if err != nil {
		return nil, err
	}

	rest := restclient.New(restclient.Config{
		BaseURL:         cfg.Provider.APIBaseURL,
		AccessKeyID:     cfg.Provider.AccessKeyID,
		SecretAccessKey: cfg.Provider.SecretAccessKey,
		SessionToken:    cfg.Provider.SessionToken,
		Timeout:         cfg.Client.Timeout,
		PerPage:         cfg.Client.PerPage,
		RateLimit:       cfg.Client.RateLimit,
	}, logger)

	factory := registry.NewFactory(registry.FactoryConfig{
		AccessKeyID:     cfg.Provider.AccessKeyID,
		SecretAccessKey: cfg.Provider.SecretAccessKey,
		SessionToken:    cfg.Provider.SessionToken,
		Endpoint:        cfg.Provider.Endpoint,
		Project:         cfg.Provider.Project,
		FileRoot:        cfg.Provider.FileRoot,
	}, rest)
	reg := registry.New(factory, logger)

	opts := []gateway.Option{}
	if lister, err := buildLister(ctx, cfg, rest); err != nil {
		logger.Warn("drive discovery unavailable", zap.Error(err))
	} else if lister != nil {
		opts = append(opts, gateway.WithContainerLister(lister))
	}

	return gateway.New(reg, kind, logger, opts...), nil
}

func buildLister(ctx context.Context, cfg *config.Config, rest *restclient.Client) (provider.ContainerLister, error) {
	switch cfg.Provider.Name {
	case "s3":
		return newS3Account(ctx, cfg)
	case "gcs":
		return newGCSAccount(cfg, rest)
	default:
		// http and file drives have no discovery surface.
		return nil, nil
	}
}
