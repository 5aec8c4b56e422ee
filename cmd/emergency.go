package cmd

import (
	"fmt"

	"github.com/bnema/allergyscan-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newEmergencyCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "emergency",
		Short: "Show what to do during an allergic reaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			output, err := app.renderer.emergency(domain.EmergencySteps)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
			return err
		},
	}
}
