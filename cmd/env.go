package cmd

import (
	"fmt"

	"github.com/bnema/allergyscan-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newEnvCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Manage AllergyScan server environments",
	}

	cmd.AddCommand(newEnvListCmd(app), newEnvAddCmd(app), newEnvUseCmd(app))

	return cmd
}

func newEnvListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured environments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			environments, err := app.environments.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, env := range environments {
				marker := " "
				if env.Active {
					marker = "*"
				}
				_, _ = fmt.Fprintf(out, "%s %s\t%s\n", marker, env.Name, env.BaseURL)
			}
			_, err = fmt.Fprintf(out, "api: %s\n", app.baseURL)
			return err
		},
	}
}

func newEnvAddCmd(app *app) *cobra.Command {
	var activate bool

	cmd := &cobra.Command{
		Use:   "add <name> <base-url>",
		Short: "Add or replace an environment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := domain.Environment{Name: domain.EnvironmentName(args[0]), BaseURL: args[1]}
			if err := app.environments.Save(cmd.Context(), env); err != nil {
				return fmt.Errorf("save environment: %w", err)
			}
			if activate {
				if err := app.environments.Activate(cmd.Context(), env.Name); err != nil {
					return fmt.Errorf("activate environment: %w", err)
				}
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved environment %s\n", env.Name)
			return nil
		},
	}

	cmd.Flags().BoolVar(&activate, "use", false, "Make the environment active")

	return cmd
}

func newEnvUseCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Switch the active environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := domain.EnvironmentName(args[0])
			if err := app.environments.Activate(cmd.Context(), name); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Using environment %s\n", name)
			if app.cfg.APIBaseURL != "" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "note: api_base_url is set to %s and takes precedence\n", app.cfg.APIBaseURL)
			}
			return nil
		},
	}
}
