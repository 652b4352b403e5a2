package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zjrosen/seqmap/internal/app"
)

var profilesSequence string

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the profile bits of each sequence",
	Long: `List every profile each sequence knows, with the bit it was assigned and
the number of items in its view. Bit 0 is always the default profile.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		f, err := newFormatter(cmd)
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app.App) error {
			rows, err := a.ProfileTable(profilesSequence)
			if err != nil {
				return err
			}
			return f.FormatProfiles(rows)
		})
	},
}

func init() {
	profilesCmd.Flags().StringVarP(&profilesSequence, "sequence", "s", "", "only this named sequence")
	rootCmd.AddCommand(profilesCmd)
}
