package cmd

import (
	"fmt"

	"github.com/bnema/allergyscan-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newMedicineCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "medicine",
		Aliases: []string{"medicines"},
		Short:   "Track medicines and their expiration dates",
	}

	cmd.AddCommand(
		newMedicineListCmd(app),
		newMedicineAddCmd(app),
		newMedicineUpdateCmd(app),
		newMedicineDeleteCmd(app),
	)

	return cmd
}

func newMedicineListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:         "list",
		Short:       "List your medicines",
		Args:        cobra.NoArgs,
		Annotations: routed(domain.RouteMedicines),
		RunE: func(cmd *cobra.Command, _ []string) error {
			medicines, err := app.medicines.List(cmd.Context())
			if err != nil {
				return err
			}

			output, err := app.renderer.medicines(medicines, app.now())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
			return err
		},
	}
}

func newMedicineAddCmd(app *app) *cobra.Command {
	var medicine domain.Medicine

	cmd := &cobra.Command{
		Use:         "add",
		Short:       "Add a medicine",
		Args:        cobra.NoArgs,
		Annotations: routed(domain.RouteMedicines),
		RunE: func(cmd *cobra.Command, _ []string) error {
			created, err := app.medicines.Add(cmd.Context(), medicine)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added medicine %d: %s\n", created.ID, created.Name)
			return nil
		},
	}

	bindMedicineFlags(cmd, &medicine)

	return cmd
}

func newMedicineUpdateCmd(app *app) *cobra.Command {
	var changes domain.Medicine

	cmd := &cobra.Command{
		Use:         "update <id>",
		Short:       "Change the name, dosage or expiration date of a medicine",
		Args:        cobra.ExactArgs(1),
		Annotations: routed(domain.RouteMedicines),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			medicines, err := app.medicines.List(cmd.Context())
			if err != nil {
				return err
			}
			current, ok := findMedicine(medicines, id)
			if !ok {
				return fmt.Errorf("%w: no medicine with id %d", domain.ErrInvalidInput, id)
			}

			flags := cmd.Flags()
			if flags.Changed("name") {
				current.Name = changes.Name
			}
			if flags.Changed("dosage") {
				current.Dosage = changes.Dosage
			}
			if flags.Changed("expires") {
				current.ExpirationDate = changes.ExpirationDate
			}

			updated, err := app.medicines.Update(cmd.Context(), current)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated medicine %d: %s\n", updated.ID, updated.Name)
			return nil
		},
	}

	bindMedicineFlags(cmd, &changes)

	return cmd
}

func newMedicineDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:         "delete <id>",
		Aliases:     []string{"rm"},
		Short:       "Delete a medicine",
		Args:        cobra.ExactArgs(1),
		Annotations: routed(domain.RouteMedicines),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := app.medicines.Delete(cmd.Context(), id); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted medicine %d\n", id)
			return nil
		},
	}
}

func bindMedicineFlags(cmd *cobra.Command, medicine *domain.Medicine) {
	cmd.Flags().StringVar(&medicine.Name, "name", "", "Medicine name")
	cmd.Flags().StringVar(&medicine.Dosage, "dosage", "", "Dosage, e.g. 0.3mg")
	cmd.Flags().StringVar(&medicine.ExpirationDate, "expires", "", "Expiration date (YYYY-MM-DD)")
}

func findMedicine(medicines []domain.Medicine, id int64) (domain.Medicine, bool) {
	for _, medicine := range medicines {
		if medicine.ID == id {
			return medicine, true
		}
	}
	return domain.Medicine{}, false
}
