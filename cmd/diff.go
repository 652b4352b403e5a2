package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zjrosen/seqmap/internal/app"
)

var diffSequence string

var diffCmd = &cobra.Command{
	Use:   "diff <from-profile> <to-profile>",
	Short: "Diff the views of two profiles",
	Long: `Print a line diff between the views of two profiles. Pass '' for the
default profile. Without --sequence the default sequence is compared.

Examples:
  seqmap diff '' Dog
  seqmap diff Dog Cat --sequence pipeline`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := newFormatter(cmd)
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app.App) error {
			lines, err := a.Diff(diffSequence, args[0], args[1])
			if err != nil {
				return err
			}
			return f.FormatDiff(diffSequence, args[0], args[1], lines)
		})
	},
}

func init() {
	diffCmd.Flags().StringVarP(&diffSequence, "sequence", "s", "", "named sequence to compare")
	rootCmd.AddCommand(diffCmd)
}
