package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/constructorio-go/pkg/constructorio"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "cnstrc "+constructorio.VersionString())
			return err
		},
	}
}
