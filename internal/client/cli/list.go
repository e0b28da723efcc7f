package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) newListCmd() *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your attestations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			if cached {
				recs, err := a.store.Receipts.List(ctx)
				if err != nil {
					return err
				}
				if len(recs) == 0 {
					fmt.Fprintln(w, "No cached receipts")
					return nil
				}
				for _, r := range recs {
					fmt.Fprintf(w, "%s  %s  %s\n",
						r.CreatedAt.Format("2006-01-02 15:04"), r.Identifier, r.DisplayName)
				}
				return nil
			}

			return a.withAuth(ctx, func(ctx context.Context) error {
				list, err := a.api.List(ctx)
				if err != nil {
					return err
				}
				if len(list) == 0 {
					fmt.Fprintln(w, "No attestations yet")
					return nil
				}
				for _, d := range list {
					fmt.Fprintf(w, "%s  %s  %s (%d bytes)\n",
						d.CreatedAt.Format("2006-01-02 15:04"), d.Identifier, d.DisplayName, d.ContentSize)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&cached, "cached", false, "list locally cached receipts without contacting the server")
	return cmd
}

func (a *App) newShareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "share <attestation-id>",
		Short: "Print the shareable verification link for an attestation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// cached receipts answer without a round trip
			rec, err := a.store.Receipts.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if rec != nil {
				fmt.Fprintln(cmd.OutOrStdout(), rec.VerifyURL)
				return nil
			}

			res, err := a.api.VerifyIdentifier(ctx, args[0])
			if err != nil {
				return err
			}
			if !res.Verified {
				return fmt.Errorf("no attestation with id %s", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s/verify?id=%s\n", a.config.ServerURL, args[0])
			return nil
		},
	}
}
