package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zjrosen/seqmap/internal/app"
)

var (
	resolveProfiles []string
	resolveSequence string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Show the view of each sequence per profile",
	Long: `Resolve every sequence of the manifest in each profile and print the
resulting views.

Without --profile the profiles from the config are used, and without those
the default profile followed by every profile the manifest mentions.

Examples:
  seqmap resolve
  seqmap resolve --profile Dog --profile Cat
  seqmap resolve --sequence pipeline -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		f, err := newFormatter(cmd)
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app.App) error {
			views, err := a.Views(resolveProfiles, resolveSequence)
			if err != nil {
				return err
			}
			return f.FormatViews(views)
		})
	},
}

func init() {
	resolveCmd.Flags().StringSliceVarP(&resolveProfiles, "profile", "p", nil, "profile to resolve (repeatable; '' is the default profile)")
	resolveCmd.Flags().StringVarP(&resolveSequence, "sequence", "s", "", "only this named sequence")
	rootCmd.AddCommand(resolveCmd)
}
