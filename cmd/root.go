package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/seqmap/internal/app"
	"github.com/zjrosen/seqmap/internal/config"
	"github.com/zjrosen/seqmap/internal/log"
	"github.com/zjrosen/seqmap/internal/presentation"
)

// defaultConfigPath is where a missing config is created.
const defaultConfigPath = ".seqmap/config.yaml"

var (
	version      = "dev"
	cfgFile      string
	manifestPath string
	outputFormat string
	debugFlag    bool
	noColor      bool

	cfg        config.Config
	cfgErr     error
	logCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "seqmap",
	Short: "Inspect profile-scoped component sequences",
	Long: `seqmap declares ordered sequences of components in a manifest and shows
how each sequence looks from every profile: items without profiles belong to
the default view, which every profile view includes, and profiled items join
only the views of their profiles.`,
	Version:            version,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .seqmap/config.yaml, then ~/.config/seqmap/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&manifestPath, "manifest", "m", "",
		"manifest file (default: seqmap.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "",
		"output format: table, json or plain")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write debug logs (also SEQMAP_DEBUG=1)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"disable colours")
}

func initConfig() {
	cfgErr = nil
	v := viper.GetViper()
	config.SetDefaults(v)
	v.SetEnvPrefix("SEQMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .seqmap/config.yaml (current directory)
		// 2. ~/.config/seqmap/config.yaml (user config)
		if _, err := os.Stat(defaultConfigPath); err == nil {
			v.SetConfigFile(defaultConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			v.AddConfigPath(filepath.Join(home, ".config", "seqmap"))
			v.SetConfigName("config")
			v.SetConfigType("yaml")
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
			// No config anywhere: create the default and carry on with it.
			if writeErr := config.WriteDefaultConfig(defaultConfigPath); writeErr == nil {
				v.SetConfigFile(defaultConfigPath)
				_ = v.ReadInConfig()
			}
		case cfgFile != "" && errors.Is(err, os.ErrNotExist):
			cfgErr = fmt.Errorf("config file %s does not exist", cfgFile)
			return
		default:
			cfgErr = fmt.Errorf("reading config: %w", err)
			return
		}
	}

	cfg, cfgErr = config.Load(v)
	if cfgErr != nil {
		return
	}
	if manifestPath != "" {
		cfg.Manifest = manifestPath
	}
	if outputFormat != "" {
		cfg.Output = outputFormat
	}
	if noColor {
		cfg.NoColor = true
	}
	cfgErr = cfg.Validate()
}

func setup(cmd *cobra.Command, _ []string) error {
	if cfgErr != nil {
		return cfgErr
	}

	debug := os.Getenv("SEQMAP_DEBUG") != "" || debugFlag || cfg.Log.Enabled
	if !debug {
		return nil
	}
	logPath := cfg.Log.Path
	if logPath == "" {
		logPath = "debug.log"
	}
	cleanup, err := log.Init(logPath)
	if err != nil {
		return fmt.Errorf("initializing log: %w", err)
	}
	logCleanup = cleanup
	if level, err := log.ParseLevel(cfg.Log.Level); err == nil {
		log.SetMinLevel(level)
	}
	log.Info(log.CatCLI, "seqmap starting",
		"command", cmd.Name(),
		"config", viper.ConfigFileUsed(),
		"manifest", cfg.Manifest)
	return nil
}

func teardown(*cobra.Command, []string) error {
	if logCleanup != nil {
		logCleanup()
		logCleanup = nil
		log.Reset()
	}
	return nil
}

// openApp loads the configured manifest relative to the working directory.
func openApp() (*app.App, error) {
	dir, name := filepath.Split(cfg.Manifest)
	if dir == "" {
		dir = "."
	}
	local := cfg
	local.Manifest = name
	return app.Open(local, os.DirFS(dir))
}

// withApp runs fn against a freshly opened app and closes it afterwards.
func withApp(ctx context.Context, fn func(*app.App) error) (err error) {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(ctx); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(a)
}

func newFormatter(cmd *cobra.Command) (*presentation.Formatter, error) {
	return presentation.NewFormatter(cmd.OutOrStdout(), cfg.Output, cfg.NoColor)
}

// configPath is the config file commands that write configuration update.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return defaultConfigPath
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
