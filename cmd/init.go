package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/seqmap/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file",
	Long: `Write the commented default config to --config, or to
.seqmap/config.yaml. An existing file is kept unless --force is given.`,
	Args: cobra.NoArgs,
	// The config may not exist yet, so a load error is not fatal here.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := defaultConfigPath
		if cfgFile != "" {
			path = cfgFile
		}
		if _, err := os.Stat(path); err == nil && !initForce {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "config already exists at %s (use --force to overwrite)\n", path)
			return err
		}
		if err := config.WriteDefaultConfig(path); err != nil {
			return err
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return err
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config")
	rootCmd.AddCommand(initCmd)
}
