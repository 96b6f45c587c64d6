package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/symmetry/internal/bridge"
	"github.com/ppiankov/symmetry/internal/logger"
	"github.com/ppiankov/symmetry/internal/ui"
)

var uiLanguage string

// uiCmd represents the ui command
var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the interactive terminal client",
	Long: `UI opens the terminal client with two views:

  Article   fetch an article and the same subject in another language
  Compare   compare two texts and list the sentences only one carries

Keys: ctrl+t switches view, ctrl+n sends a fetched article to Compare,
ctrl+r compares, esc stops a comparison, ctrl+s starts the backend when
it is offline, ctrl+c quits.

Logs go to the file named by log.file while the client owns the screen.`,
	Args: cobra.NoArgs,
	RunE: runUI,
}

func init() {
	rootCmd.AddCommand(uiCmd)

	uiCmd.Flags().StringVarP(&uiLanguage, "language", "l", "", "default target language in the Article view")
	addBackendFlags(uiCmd)
}

func runUI(cmd *cobra.Command, args []string) error {
	// the screen belongs to the UI from here on
	if settings.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(settings.Log.File), 0755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
	}
	if err := logger.Init(logger.Options{Level: settings.Log.Level, Format: settings.Log.Format, File: settings.Log.File}); err != nil {
		return err
	}
	log := logger.Named("ui")

	ctx, cancel := signalContext(context.Background())
	defer cancel()

	// Privileged side: config file and backend process, reachable only
	// through the bridge.
	h := newHost()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		h.Shutdown(shutdownCtx)
	}()

	server := bridge.NewServer(h, bridge.WithServerLogger(logger.Named("bridge")))
	bridgeURL, err := server.Listen(0)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer closeCancel()
		_ = server.Close(closeCtx)
	}()
	bridgeClient := bridge.NewClient(bridgeURL, server.Token())

	client, cleanup, err := resolveClient(ctx, cmd, bridgeClient)
	defer cleanup()
	if err != nil {
		return err
	}

	model := ui.New(ctx, client, bridgeClient, ui.Options{
		ProbeQuery:     settings.Liveness.ProbeQuery,
		PollInterval:   settings.Liveness.PollInterval,
		RestartDelay:   settings.Liveness.RestartDelay,
		TargetLanguage: uiLanguage,
		Logger:         log,
	})

	log.Info("Starting terminal UI", zap.String("backend", client.BaseURL()), zap.String("bridge", bridgeURL))
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run ui: %w", err)
	}
	log.Info("Terminal UI closed")
	return nil
}
