package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gofast/gofast/internal/config"
	"github.com/gofast/gofast/internal/transfer"
	"github.com/gofast/gofast/internal/ui"
	"github.com/gofast/gofast/internal/version"
)

var (
	flagServer  string
	flagWeb     string
	flagSTUN    string
	flagMaxSize int64
	flagDir     string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gofast",
	Short: "Chat and share files with one peer over a direct connection",
	Long: `gofast pairs two terminals through a six-digit room code and then talks
directly, peer to peer. One side creates a room and shares the code or link;
the other joins it. Text and files travel over the direct connection only.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.PrintError(err.Error())
		stop()
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.Options{
		ServerURL:   flagServer,
		WebURL:      flagWeb,
		STUNServer:  flagSTUN,
		MaxFileSize: flagMaxSize,
		DownloadDir: flagDir,
	})
	if err != nil {
		return nil, transfer.NewError("load config", err)
	}
	if err := os.MkdirAll(cfg.DownloadDir, 0o755); err != nil {
		return nil, transfer.NewError("create download directory", err)
	}
	return cfg, nil
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&flagServer, "server", "s", "", "Signaling server websocket URL")
	flags.StringVarP(&flagWeb, "web", "w", "", "Web app URL used for share links")
	flags.StringVar(&flagSTUN, "stun", "", "Custom STUN server")
	flags.Int64Var(&flagMaxSize, "max-size", 0, "Largest file to send or accept, in bytes")
	flags.StringVarP(&flagDir, "dir", "d", "", "Directory for received files")
}
