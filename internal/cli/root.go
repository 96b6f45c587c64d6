package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/symmetry/internal/config"
	"github.com/ppiankov/symmetry/internal/logger"
	"github.com/ppiankov/symmetry/internal/model"
)

// Version is overridden at build time with -ldflags.
var Version = "v0.1.0"

var (
	cfgFile       string
	appConfigPath string
	verbose       bool
	logLevel      string
	logFormat     string

	// settings is resolved once per invocation in PersistentPreRunE
	settings *model.Settings
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "symmetry",
	Short: "Symmetry - compare coverage of one topic across Wikipedia languages",
	Long: `Symmetry asks a local comparison backend to fetch a Wikipedia article,
translate the same topic into another language and flag sentences that only
one version carries.

It does not decide which version is correct. Flagged sentences show
differing coverage, nothing more.

Run 'symmetry ui' for the interactive terminal client, or use the
fetch, translate, compare and batch commands directly.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		settings = s
		return logger.Init(logger.Options{Level: s.Log.Level, Format: s.Log.Format})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("symmetry %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "settings file (default: $HOME/.symmetry/config.yaml)")
	flags.StringVar(&appConfigPath, "app-config", config.DefaultPath, "application config file (backend URL, ports, timeouts)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&logFormat, "log-format", "", "log format: console or json")

	_ = viper.BindPFlag("output.verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", flags.Lookup("log-format"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".symmetry"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// SYMMETRY_CACHE_ENABLED maps to cache.enabled
	viper.SetEnvPrefix("SYMMETRY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("llm.api_key", "SYMMETRY_LLM_API_KEY", "OPENAI_API_KEY")

	if err := registerDefaults(viper.GetViper(), model.DefaultSettings()); err != nil {
		fmt.Fprintf(os.Stderr, "Error registering defaults: %v\n", err)
	}

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// registerDefaults makes every settings key known to viper, so environment
// overrides apply to keys the file omits.
func registerDefaults(v *viper.Viper, defaults *model.Settings) error {
	data, err := yaml.Marshal(defaults)
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}
	setDefaults(v, "", tree)
	return nil
}

func setDefaults(v *viper.Viper, prefix string, tree map[string]any) {
	for key, value := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}
		if sub, ok := value.(map[string]any); ok {
			setDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, value)
	}
}

// loadSettings decodes the merged viper state over the built-in defaults.
func loadSettings() (*model.Settings, error) {
	s := model.DefaultSettings()
	if err := viper.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if s.Output.Verbose {
		s.Log.Level = "debug"
	}
	return s, nil
}
