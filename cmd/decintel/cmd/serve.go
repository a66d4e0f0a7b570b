package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nexus-analytics/decision-intel/internal/api"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the decision intelligence API server",
	Long: `Start the HTTP API server exposing the pipeline, what-if simulations,
run history, trends and the real-time event stream.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "bind address (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "bind port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	host := a.cfg.Server.Host
	if serveHost != "" {
		host = serveHost
	}
	port := a.cfg.Server.Port
	if servePort != 0 {
		port = servePort
	}

	var serverOpts []api.ServerOption
	serverOpts = append(serverOpts, api.WithLogger(a.log))
	if a.cfg.Server.NoCORS {
		serverOpts = append(serverOpts, api.WithoutCORS())
	}
	server := api.NewServer(a.engine, a.sim, a.store, a.bus, serverOpts...)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf("%s:%d", host, port)
	if err := server.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	a.log.Info("server stopped")
	return nil
}
