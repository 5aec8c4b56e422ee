package cmd

import (
	"fmt"

	"github.com/bnema/allergyscan-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newAllergiesCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "allergies",
		Aliases: []string{"profile"},
		Short:   "Manage your allergy profile",
	}

	cmd.AddCommand(
		newAllergiesListCmd(app),
		newAllergiesCommonCmd(app),
		newAllergiesAddCmd(app),
		newAllergiesRemoveCmd(app),
	)

	return cmd
}

func newAllergiesListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:         "list",
		Short:       "List the allergies in your profile",
		Args:        cobra.NoArgs,
		Annotations: routed(domain.RouteProfile),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printProfile(cmd, app)
		},
	}
}

func newAllergiesCommonCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:         "common",
		Short:       "List the allergies that can be added to a profile",
		Args:        cobra.NoArgs,
		Annotations: routed(domain.RouteProfile),
		RunE: func(cmd *cobra.Command, _ []string) error {
			allergies, err := app.profile.CommonAllergies(cmd.Context())
			if err != nil {
				return err
			}

			output, err := app.renderer.common(allergies)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
			return err
		},
	}
}

func newAllergiesAddCmd(app *app) *cobra.Command {
	var severity string
	var notes string

	cmd := &cobra.Command{
		Use:         "add <name-or-id>",
		Short:       "Add a common allergy to your profile",
		Args:        cobra.ExactArgs(1),
		Annotations: routed(domain.RouteProfile),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, ok := domain.ParseSeverity(severity)
			if !ok {
				return fmt.Errorf("%w: severity must be High, Medium or Low", domain.ErrInvalidInput)
			}

			allergy, err := app.profile.AddAllergy(cmd.Context(), args[0], parsed, notes)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added %s to your allergies\n", allergy.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&severity, "severity", "", "Severity: High, Medium or Low")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")

	return cmd
}

func newAllergiesRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:         "remove <name-or-id>",
		Aliases:     []string{"rm"},
		Short:       "Remove an allergy from your profile",
		Args:        cobra.ExactArgs(1),
		Annotations: routed(domain.RouteProfile),
		RunE: func(cmd *cobra.Command, args []string) error {
			allergy, err := app.profile.RemoveAllergy(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from your allergies\n", allergy.Name)
			return nil
		},
	}
}
