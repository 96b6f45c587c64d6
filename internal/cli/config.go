package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/symmetry/internal/config"
	"github.com/ppiankov/symmetry/internal/model"
)

var initAppConfig bool

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Symmetry configuration",
	Long: `Manage Symmetry configuration files and settings.

There are two files:
- settings (~/.symmetry/config.yaml): backend command, cache, logging, LLM
- application config (./config.json): BACKEND_BASE_URL, BACKEND_PORT,
  FRONTEND_PORT, OLLAMA_BASE_URL, DEFAULT_TIMEOUT, SIMILARITY_THRESHOLD

Settings hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (SYMMETRY_*)
3. Settings file (~/.symmetry/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the resolved settings and application config (defaults, files, env vars, flags).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showConfig(cmd.OutOrStdout())
	},
}

func showConfig(w io.Writer) error {
	if file := viper.ConfigFileUsed(); file != "" {
		fmt.Fprintf(os.Stderr, "Settings file: %s\n", file)
	} else {
		fmt.Fprintf(os.Stderr, "No settings file found (using defaults)\n")
	}

	_, _ = fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	_, _ = fmt.Fprintln(w, "  Settings")
	_, _ = fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings: %w", err)
	}
	_, _ = fmt.Fprintln(w, string(data))

	_, _ = fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	_, _ = fmt.Fprintf(w, "  Application config (%s)\n", appConfigPath)
	_, _ = fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	appCfg, err := config.NewLoader(appConfigPath).Load()
	if err != nil {
		_, _ = fmt.Fprintf(w, "unavailable: %v\n", err)
		_, _ = fmt.Fprintf(w, "Create one with: symmetry config init --app\n\n")
		return nil
	}
	data, err = yaml.Marshal(appCfg)
	if err != nil {
		return fmt.Errorf("error marshaling app config: %w", err)
	}
	_, _ = fmt.Fprintln(w, string(data))
	return nil
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration files",
	Long: `Create a default settings file at ~/.symmetry/config.yaml. With --app,
also write a default application config at the --app-config path.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("error finding home directory: %w", err)
			}
			path = filepath.Join(home, ".symmetry", "config.yaml")
		}

		if err := writeDefaultSettings(path); err != nil {
			return err
		}
		fmt.Printf("✓ Created default settings: %s\n", path)

		if initAppConfig {
			if err := config.WriteDefault(appConfigPath); err != nil {
				return err
			}
			fmt.Printf("✓ Created default application config: %s\n", appConfigPath)
		}

		fmt.Printf("\nTo view the configuration:\n")
		fmt.Printf("  symmetry config show\n\n")
		return nil
	},
}

// writeDefaultSettings writes the built-in settings as commented YAML. It
// refuses to overwrite an existing file.
func writeDefaultSettings(path string) (err error) {
	if _, statErr := os.Stat(path); statErr == nil {
		return fmt.Errorf("config file already exists: %s\nUse 'symmetry config show' to view it, or delete it first to recreate", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(model.DefaultSettings())
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close config file: %w", closeErr)
		}
	}()

	// Helper for writing with error checking
	printf := func(format string, a ...any) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(f, format, a...)
	}

	printf("# Symmetry settings\n")
	printf("#\n")
	printf("# Hierarchy (highest to lowest priority):\n")
	printf("#   1. CLI flags\n")
	printf("#   2. Environment variables (SYMMETRY_*, e.g. SYMMETRY_CACHE_ENABLED=false)\n")
	printf("#   3. This file\n")
	printf("#   4. Built-in defaults\n\n")
	printf("%s", data)
	printf("\n# API keys belong in the environment, not in this file:\n")
	printf("#   export OPENAI_API_KEY=sk-...\n")
	return err
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().BoolVar(&initAppConfig, "app", false, "also write a default application config")
}
