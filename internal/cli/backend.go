package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// backendCmd groups backend process control
var backendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Start or stop the comparison backend",
	Long: `Control the comparison backend process described by the backend
section of the settings file (command, args, dir, env_file, process_pattern).
The port comes from BACKEND_PORT in the application config.`,
}

var backendStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the backend and keep it running until interrupted",
	Long: `Start terminates any backend already holding the process pattern or
port, spawns a fresh one and stays in the foreground. Ctrl-C stops it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		h := newHost()
		ctx, cancel := signalContext(context.Background())
		defer cancel()

		result := h.StartBackend(ctx)
		if !result.Success {
			return errors.New(result.Error)
		}
		fmt.Fprintf(os.Stderr, "✓ Backend started (%s). Press Ctrl-C to stop.\n", settings.Backend.Command)

		<-ctx.Done()
		fmt.Fprintf(os.Stderr, "\nStopping backend...\n")

		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		h.Shutdown(stopCtx)
		return nil
	},
}

var backendStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop any running backend matching the process pattern",
	RunE: func(cmd *cobra.Command, args []string) error {
		if settings.Backend.ProcessPattern == "" {
			return fmt.Errorf("backend.process_pattern is empty; nothing identifies the backend")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		newHost().Shutdown(ctx)
		fmt.Fprintf(os.Stderr, "✓ Stopped processes matching %q\n", settings.Backend.ProcessPattern)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backendCmd)
	backendCmd.AddCommand(backendStartCmd)
	backendCmd.AddCommand(backendStopCmd)
}
