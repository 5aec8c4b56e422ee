package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bnema/allergyscan-cli/internal/domain"
	"github.com/spf13/cobra"
)

var errPasswordStdinConflict = errors.New("--password and --password-stdin are mutually exclusive")

func newLoginCmd(app *app) *cobra.Command {
	var username string
	var password string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:         "login",
		Short:       "Log in and remember the session",
		Args:        cobra.NoArgs,
		Annotations: routed(domain.RouteLogin),
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := resolvePassword(cmd.InOrStdin(), password, passwordStdin)
			if err != nil {
				return err
			}

			credentials := domain.Credentials{Username: strings.TrimSpace(username), Password: secret}
			if err := credentials.Validate(); err != nil {
				return err
			}

			if err := app.session.Login(cmd.Context(), credentials.Username, credentials.Password); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", displayName(app.currentUser(), credentials.Username))
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username or email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")

	return cmd
}

func newSignupCmd(app *app) *cobra.Command {
	var registration domain.Registration
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:         "signup",
		Short:       "Create an account and log in",
		Args:        cobra.NoArgs,
		Annotations: routed(domain.RouteSignup),
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := resolvePassword(cmd.InOrStdin(), registration.Password, passwordStdin)
			if err != nil {
				return err
			}
			registration.Password = secret
			if passwordStdin && registration.ConfirmPassword == "" {
				registration.ConfirmPassword = secret
			}
			registration.Email = strings.TrimSpace(registration.Email)
			registration.Username = strings.TrimSpace(registration.Username)

			if err := registration.Validate(); err != nil {
				return err
			}

			if err := app.session.Signup(cmd.Context(), registration.Email, registration.Username, registration.Password); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Account created, logged in as %s\n", displayName(app.currentUser(), registration.Username))
			return nil
		},
	}

	cmd.Flags().StringVar(&registration.Email, "email", "", "Email address")
	cmd.Flags().StringVarP(&registration.Username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&registration.Password, "password", "p", "", "Password")
	cmd.Flags().StringVar(&registration.ConfirmPassword, "confirm-password", "", "Repeat the password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")

	return cmd
}

func newLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app.session.Logout(cmd.Context())
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:         "whoami",
		Short:       "Show the logged-in user and allergy profile",
		Args:        cobra.NoArgs,
		Annotations: routed(domain.RouteHome),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printProfile(cmd, app)
		},
	}
}

func printProfile(cmd *cobra.Command, app *app) error {
	user := app.currentUser()
	if user == nil {
		return errLoginRequired
	}

	output, err := app.renderer.profile(*user)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
	return err
}

func resolvePassword(stdin io.Reader, flagValue string, fromStdin bool) (string, error) {
	if !fromStdin {
		return flagValue, nil
	}
	if flagValue != "" {
		return "", errPasswordStdinConflict
	}

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func displayName(user *domain.User, fallback string) string {
	if user != nil && user.Username != "" {
		return user.Username
	}
	return fallback
}
