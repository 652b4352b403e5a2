package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/seqmap/internal/config"
	"github.com/zjrosen/seqmap/internal/log"
)

var useClear bool

var useCmd = &cobra.Command{
	Use:   "use [profile...]",
	Short: "Set the profiles resolved by default",
	Long: `Store the profiles that resolve and watch use when no --profile is given.
Other settings and comments in the config file are preserved.

Examples:
  seqmap use Dog Cat
  seqmap use --clear`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !useClear {
			return fmt.Errorf("give at least one profile, or --clear")
		}
		if useClear {
			args = nil
		}
		path := configPath()
		if err := config.SaveProfiles(path, args); err != nil {
			return err
		}
		log.Info(log.CatConfig, "saved default profiles", "path", path, "profiles", args)

		if len(args) == 0 {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "cleared default profiles in %s\n", path)
			return err
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "default profiles set to %s in %s\n", strings.Join(args, ", "), path)
		return err
	},
}

func init() {
	useCmd.Flags().BoolVar(&useClear, "clear", false, "remove the stored profiles")
	rootCmd.AddCommand(useCmd)
}
