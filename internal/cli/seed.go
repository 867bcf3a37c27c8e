package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yigit/electives/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the default subjects and students",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, lgr, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		summary, err := seed.CreateDefaultData(cmd.Context(), store, lgr)
		fmt.Fprintf(cmd.OutOrStdout(), "Created %d subjects and %d students.\n",
			summary.SubjectsCreated, summary.StudentsCreated)
		return err
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
