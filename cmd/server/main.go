package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gofast/gofast/internal/config"
	"github.com/gofast/gofast/internal/logging"
	"github.com/gofast/gofast/internal/rendezvous"
	"github.com/gofast/gofast/internal/server"
	"github.com/gofast/gofast/internal/version"
)

const shutdownTimeout = 10 * time.Second

var opts config.ServerOptions

var rootCmd = &cobra.Command{
	Use:     "gofast-server",
	Short:   "Rendezvous and signaling service for gofast peers",
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadServer(opts)
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&opts.Addr, "addr", "a", "", "Listen address (env ADDR or PORT)")
	rootCmd.Flags().StringVar(&opts.AllowedOrigins, "origins", "", "Comma separated allowed origins (env ALLOWED_ORIGINS)")
	rootCmd.Flags().StringVar(&opts.RoomIdleTTL, "room-ttl", "", "Expire unmatched rooms after this long, 0 disables (env ROOM_IDLE_TTL)")
}

func serve(ctx context.Context, cfg *config.ServerConfig) error {
	// 1. Registry and hub
	registry := rendezvous.NewRegistry(rendezvous.NewAllocator(cfg.MaxAttempts))
	hub := rendezvous.NewHub(registry, cfg.RoomIdleTTL)

	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	// 2. HTTP server
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(hub, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting signaling server", "addr", cfg.Addr, "version", version.Version)
		errCh <- srv.ListenAndServe()
	}()

	// 3. Wait for a signal or a listener failure
	select {
	case err := <-errCh:
		stopHub()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down", "clients", hub.Clients())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	stopHub()
	<-hub.Done()
	return err
}

func main() {
	logging.Init(slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SilenceUsage = true
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}
