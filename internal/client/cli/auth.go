package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veristamp/veristamp/internal/client/store"
)

func (a *App) newRegisterCmd() *cobra.Command {
	var fullName string

	cmd := &cobra.Command{
		Use:   "register <email>",
		Short: "Create a new VeriStamp account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := getPassword(cmd.OutOrStdout(), "Choose a password: ")
			if err != nil {
				return err
			}

			if err := a.api.Register(cmd.Context(), args[0], password, fullName); err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Account %s created, you can now log in\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&fullName, "name", "", "full name shown on the account")
	return cmd
}

func (a *App) newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <email>",
		Short: "Log in and store tokens locally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			password, err := getPassword(cmd.OutOrStdout(), "Enter password: ")
			if err != nil {
				return err
			}

			pair, err := a.api.Login(ctx, args[0], password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			if err := a.saveTokens(ctx, pair); err != nil {
				return err
			}
			if err := a.store.Metadata.Set(ctx, store.KeyEmail, []byte(args[0])); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", args[0])
			return nil
		},
	}
}

func (a *App) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget stored tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.store.Metadata.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (a *App) newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account and its attestation count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withAuth(cmd.Context(), func(ctx context.Context) error {
				profile, err := a.api.Profile(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s), %d attestation(s)\n",
					profile.Email, profile.FullName, profile.AttestationCount)
				return nil
			})
		},
	}
}
