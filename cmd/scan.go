package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bnema/allergyscan-cli/internal/adapters/backend"
	resultsadapter "github.com/bnema/allergyscan-cli/internal/adapters/render/results"
	"github.com/bnema/allergyscan-cli/internal/application"
	"github.com/bnema/allergyscan-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newCheckCmd(app *app) *cobra.Command {
	var example int
	var noSave bool

	cmd := &cobra.Command{
		Use:         "check [ingredients...]",
		Short:       "Check an ingredient list for allergens",
		Long:        "Check an ingredient list for allergens. Allergens in your profile are highlighted and the result is saved to your scan history unless --no-save is given.",
		Annotations: routed(domain.RouteScan),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := ingredientsInput(args, example)
			if err != nil {
				return err
			}
			return runCheck(cmd, app, text, !noSave)
		},
	}

	cmd.Flags().IntVar(&example, "example", 0, fmt.Sprintf("Use example ingredient list 1-%d instead of arguments", len(domain.ExampleIngredients)))
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Do not save the result to the scan history")

	return cmd
}

func newScanCmd(app *app) *cobra.Command {
	var noSave bool

	cmd := &cobra.Command{
		Use:         "scan <image>",
		Short:       "Recognize the ingredient list in a photo and check it for allergens",
		Args:        cobra.ExactArgs(1),
		Annotations: routed(domain.RouteScan),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := openImage(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			var text string
			var result application.ScanResult
			err = resultsadapter.RunSteps(cmd.Context(), cmd.ErrOrStderr(),
				resultsadapter.Step{Label: "Recognizing text...", Run: func(ctx context.Context) error {
					var extractErr error
					text, extractErr = app.scans.ExtractText(ctx, backend.UploadFileName(), file)
					return extractErr
				}},
				checkStep(app, &text, !noSave, &result),
			)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Recognized text:\n%s\n\n", text)
			return printScan(cmd, app, result)
		},
	}

	cmd.Flags().BoolVar(&noSave, "no-save", false, "Do not save the result to the scan history")

	return cmd
}

func openImage(path string) (*os.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}
	if info.Size() > backend.MaxImageBytes {
		return nil, fmt.Errorf("%s: %w", path, backend.ErrImageTooLarge)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	return file, nil
}

// checkStep reads text when it runs, so it can follow the OCR step.
func checkStep(app *app, text *string, save bool, result *application.ScanResult) resultsadapter.Step {
	return resultsadapter.Step{Label: "Detecting allergens...", Run: func(ctx context.Context) error {
		var err error
		*result, err = app.scans.Check(ctx, *text, app.currentUser(), save)
		return err
	}}
}

func runCheck(cmd *cobra.Command, app *app, text string, save bool) error {
	var result application.ScanResult
	if err := resultsadapter.RunSteps(cmd.Context(), cmd.ErrOrStderr(), checkStep(app, &text, save, &result)); err != nil {
		return err
	}
	return printScan(cmd, app, result)
}

func printScan(cmd *cobra.Command, app *app, result application.ScanResult) error {
	output, err := app.renderer.scan(result)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
	return err
}

func ingredientsInput(args []string, example int) (string, error) {
	if example != 0 {
		if len(args) > 0 {
			return "", fmt.Errorf("%w: use either --example or ingredient arguments", domain.ErrInvalidInput)
		}
		if example < 1 || example > len(domain.ExampleIngredients) {
			return "", fmt.Errorf("%w: --example must be between 1 and %d", domain.ErrInvalidInput, len(domain.ExampleIngredients))
		}
		return domain.ExampleIngredients[example-1], nil
	}

	return domain.IngredientText(strings.Join(args, " "))
}

func newHistoryCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage saved scans",
	}

	cmd.AddCommand(newHistoryListCmd(app), newHistorySaveCmd(app), newHistoryDeleteCmd(app))

	return cmd
}

func newHistoryListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:         "list",
		Short:       "List saved scans",
		Args:        cobra.NoArgs,
		Annotations: routed(domain.RouteHistory),
		RunE: func(cmd *cobra.Command, _ []string) error {
			scans, err := app.scans.History(cmd.Context())
			if err != nil {
				return err
			}

			output, err := app.renderer.history(scans)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
			return err
		},
	}
}

func newHistorySaveCmd(app *app) *cobra.Command {
	var productName string

	cmd := &cobra.Command{
		Use:         "save <ingredients...>",
		Short:       "Check an ingredient list and save it under a product name",
		Args:        cobra.MinimumNArgs(1),
		Annotations: routed(domain.RouteHistory),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := ingredientsInput(args, 0)
			if err != nil {
				return err
			}

			result, err := app.scans.Check(cmd.Context(), text, app.currentUser(), false)
			if err != nil {
				return err
			}
			if err := app.scans.Save(cmd.Context(), productName, result.Text, result.Allergens); err != nil {
				return fmt.Errorf("save scan: %w", err)
			}

			name := strings.TrimSpace(productName)
			if name == "" {
				name = domain.DefaultProductName
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved %s with %d allergens\n", name, len(result.Allergens))
			return nil
		},
	}

	cmd.Flags().StringVar(&productName, "product", "", "Product name (default \""+domain.DefaultProductName+"\")")

	return cmd
}

func newHistoryDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:         "delete <id>",
		Aliases:     []string{"rm"},
		Short:       "Delete a saved scan",
		Args:        cobra.ExactArgs(1),
		Annotations: routed(domain.RouteHistory),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := app.scans.DeleteScan(cmd.Context(), id); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted scan %d\n", id)
			return nil
		},
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id must be a positive integer, got %q", domain.ErrInvalidInput, raw)
	}
	return id, nil
}
