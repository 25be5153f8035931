package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/abhisek/practiz/internal/devserver"
	"github.com/abhisek/practiz/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local development portal with demo data",
	Long: "serve runs a stand-in for the school portal API backed by a JSON fixture. " +
		"Point the client at it with --portal http://localhost:8080/api.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := devserver.ConfigFromEnv()
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Addr = addr
		}
		if fx, _ := cmd.Flags().GetString("fixtures"); fx != "" {
			cfg.FixturesPath = fx
		}

		logger := logging.New(os.Stderr, log.INFO, "devserver")
		srv, err := devserver.New(cfg, nil, devserver.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("start dev portal: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := srv.ListenAndServe(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides PRACTIZ_DEV_ADDR)")
	serveCmd.Flags().String("fixtures", "", "Fixture JSON file (overrides PRACTIZ_DEV_FIXTURES)")
}
