package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/bnema/allergyscan-cli/internal/config"
	"github.com/bnema/allergyscan-cli/internal/domain"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// routeAnnotation names the screen a command stands for. Commands
	// carrying it restore the session and pass the navigation guard first.
	routeAnnotation      = "allergyscan/route"
	skipWiringAnnotation = "allergyscan/skip-wiring"
)

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	app := &app{}

	rootCmd := &cobra.Command{
		Use:           "ascan",
		Short:         "AllergyScan CLI (ascan): check ingredient lists against your allergy profile",
		Long:          "ascan (AllergyScan CLI) logs in to an AllergyScan server, scans ingredient lists for allergens, and manages your allergy profile, scan history and medicines from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipWiringAnnotation] != "" {
				return nil
			}

			if err := wireApp(app, v, cmd.ErrOrStderr()); err != nil {
				return err
			}

			route, ok := cmd.Annotations[routeAnnotation]
			if !ok {
				return nil
			}
			return app.enter(cmd.Context(), domain.Route(route))
		},
	}

	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (default \"warn\")")
	rootCmd.PersistentFlags().String("api-url", "", "AllergyScan API base URL (overrides the active environment)")
	_ = v.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag(config.KeyAPIBaseURL, rootCmd.PersistentFlags().Lookup("api-url"))

	rootCmd.AddCommand(
		newVersionCmd(),
		newLoginCmd(app),
		newSignupCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newAllergiesCmd(app),
		newCheckCmd(app),
		newScanCmd(app),
		newHistoryCmd(app),
		newMedicineCmd(app),
		newEnvCmd(app),
		newEmergencyCmd(app),
	)

	return rootCmd
}

func routed(route domain.Route) map[string]string {
	return map[string]string{routeAnnotation: string(route)}
}
