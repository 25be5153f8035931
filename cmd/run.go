package cmd

import (
	"fmt"
	"os"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/abhisek/practiz/internal/app"
	"github.com/abhisek/practiz/internal/hints"
	"github.com/abhisek/practiz/internal/llm"
	"github.com/abhisek/practiz/internal/logging"
	"github.com/abhisek/practiz/internal/practice"
	"github.com/abhisek/practiz/internal/screen"
	"github.com/abhisek/practiz/internal/screens"
	"github.com/abhisek/practiz/internal/store"
)

// runApp opens the store, builds dependencies, and launches the TUI. start
// is pushed above the home screen once a learner is signed in.
func runApp(cmd *cobra.Command, start func(*screens.Services) screen.Screen) error {
	ctx := cmd.Context()
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	logger, closer, err := logging.Open(logging.ConfigFromEnv(), "practiz")
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning: logging disabled:", err)
		logger = logging.Discard("practiz")
	} else {
		defer closer.Close()
	}

	opts := app.Options{
		Store:   st,
		Client:  portalClient(cmd),
		Logger:  logger,
		Version: version,
		Start:   start,
		Timings: practice.TimingsFromEnv(),
	}
	if h := hintService(cmd, st, logger); h != nil {
		opts.Hints = h
	}
	return app.Run(ctx, opts)
}

// hintService returns the LLM hint generator, or nil when no provider is
// configured. The app works without it.
func hintService(cmd *cobra.Command, st *store.Store, logger *log.Logger) *hints.Service {
	provider, err := llm.New(cmd.Context(), llm.ConfigFromEnv(), st.EventRepo(), logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning: LLM provider not configured:", err)
		fmt.Fprintln(os.Stderr, "warning: generated hints will be unavailable.")
		return nil
	}
	if provider == nil {
		return nil
	}
	logger.Infof("hints from %s", provider.ModelID())
	return hints.NewService(provider, hints.DefaultConfig(), logger)
}
