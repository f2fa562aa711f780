// Package serve provides the command that runs the HTTP API server.
package serve

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/catalogsync/cmd/application"
	"github.com/agentstation/catalogsync/internal/server"
	"github.com/agentstation/catalogsync/pkg/constants"
	"github.com/agentstation/catalogsync/pkg/errors"
)

// NewCommand creates the serve command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		GroupID: "core",
		Short:   "Serve the REST API with WebSocket run events",
		Long: `Start the catalogsync API server.

Features:
  - Trigger price and flag runs per tenant (async by default, ?wait=true to block)
  - List runs, inspect recorded entries and revert runs (cached briefly)
  - WebSocket stream of run events (/api/v1/events/ws)
  - Server-Sent Events stream, optionally per tenant (/api/v1/events/stream)
  - Prometheus metrics (/metrics)
  - API key authentication and per-IP rate limiting
  - Optional scheduled runs for every tenant

The listen address and API key variable default to the server section of
the config file.`,
		Example: `  # Start on the configured address
  catalogsync serve

  # Require an API key read from CATALOGSYNC_API_KEY
  catalogsync serve --auth

  # Allow a dashboard origin
  catalogsync serve --cors-origins https://ops.example.com

  # Also run every tenant on the configured interval
  catalogsync serve --auto-sync`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default from config)")
	cmd.Flags().String("prefix", "/api/v1", "API path prefix")
	cmd.Flags().Bool("cors", false, "Enable CORS (all origins unless --cors-origins is set)")
	cmd.Flags().StringSlice("cors-origins", []string{}, "Allowed CORS origins (comma-separated)")
	cmd.Flags().Bool("auth", false, "Enable API key authentication")
	cmd.Flags().String("auth-header", "X-API-Key", "Authentication header name")
	cmd.Flags().Int("rate-limit", 100, "Requests per minute per IP (0 to disable)")
	cmd.Flags().Bool("metrics", true, "Enable the /metrics endpoint")
	cmd.Flags().Bool("auto-sync", false, "Run every tenant on the configured interval")
	cmd.Flags().Duration("write-timeout", 15*time.Minute, "HTTP write timeout")
	cmd.Flags().Duration("cache-ttl", 30*time.Second, "How long run listings stay cached (0 to disable)")

	return cmd
}

func run(cmd *cobra.Command, app application.Application) error {
	cfg, err := app.Config()
	if err != nil {
		return err
	}
	scfg, err := serverConfig(cmd, app)
	if err != nil {
		return err
	}

	client, err := app.Client(cmd.Context())
	if err != nil {
		return err
	}

	autoSync, _ := cmd.Flags().GetBool("auto-sync")
	if autoSync || cfg.AutoSync.Enabled {
		if err := client.AutoSyncOn(); err != nil {
			return err
		}
		app.Logger().Info().Dur("interval", cfg.AutoSync.Interval).Msg("Scheduled runs enabled")
	}

	app.Logger().Info().
		Str("addr", scfg.Addr).
		Str("prefix", scfg.PathPrefix).
		Bool("auth", scfg.AuthEnabled).
		Bool("cors", scfg.CORSEnabled).
		Int("rate_limit", scfg.RateLimit).
		Strs("tenants", client.Tenants()).
		Msg("Starting API server")

	srv := server.New(client, app.Metrics(), scfg, app.Logger())
	err = srv.ListenAndServe(cmd.Context(), constants.ShutdownTimeout)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// serverConfig merges flags over the config file's server section.
func serverConfig(cmd *cobra.Command, app application.Application) (server.Config, error) {
	cfg, err := app.Config()
	if err != nil {
		return server.Config{}, err
	}

	scfg := server.DefaultConfig()
	if cfg.Server.Addr != "" {
		scfg.Addr = cfg.Server.Addr
	}
	if cmd.Flags().Changed("metrics") {
		scfg.MetricsEnabled, _ = cmd.Flags().GetBool("metrics")
	} else {
		scfg.MetricsEnabled = cfg.Server.Metrics
	}

	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		scfg.Addr = addr
	}
	scfg.PathPrefix, _ = cmd.Flags().GetString("prefix")
	scfg.CORSEnabled, _ = cmd.Flags().GetBool("cors")
	scfg.CORSOrigins, _ = cmd.Flags().GetStringSlice("cors-origins")
	if len(scfg.CORSOrigins) > 0 {
		scfg.CORSEnabled = true
	}
	scfg.AuthEnabled, _ = cmd.Flags().GetBool("auth")
	scfg.AuthHeader, _ = cmd.Flags().GetString("auth-header")
	scfg.RateLimit, _ = cmd.Flags().GetInt("rate-limit")
	scfg.WriteTimeout, _ = cmd.Flags().GetDuration("write-timeout")
	scfg.CacheTTL, _ = cmd.Flags().GetDuration("cache-ttl")

	if scfg.AuthEnabled {
		if cfg.Server.APIKeyEnv == "" {
			return scfg, errors.NewConfigError("server", "--auth requires server.api_key_env", nil)
		}
		key, err := app.Secret(cfg.Server.APIKeyEnv)
		if err != nil {
			return scfg, err
		}
		if key == "" {
			return scfg, errors.NewConfigError("server", cfg.Server.APIKeyEnv+" is empty", nil)
		}
		scfg.APIKey = key
	}
	return scfg, nil
}
