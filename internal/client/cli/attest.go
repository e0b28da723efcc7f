package cli

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/veristamp/veristamp/internal/client/api"
	"github.com/veristamp/veristamp/internal/client/store"
)

func (a *App) newAttestCmd() *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "attest [file]",
		Short: "Attest a file or a piece of text",
		Long: `Attest registers the content's SHA-256 digest with the service and
prints a receipt with the attestation identifier and a shareable
verification link. Use either a file argument or --text.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (text == "") {
				return fmt.Errorf("provide either a file or --text")
			}

			return a.withAuth(cmd.Context(), func(ctx context.Context) error {
				var rec *api.Receipt
				var err error

				if text != "" {
					rec, err = a.api.AttestText(ctx, text)
				} else {
					rec, err = a.attestFile(ctx, args[0])
				}
				if err != nil {
					return err
				}

				if err := a.cacheReceipt(ctx, rec); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Attested %s\n", rec.DisplayName)
				fmt.Fprintf(cmd.OutOrStdout(), "  ID:     %s\n", rec.Identifier)
				fmt.Fprintf(cmd.OutOrStdout(), "  SHA256: %s\n", rec.Digest)
				fmt.Fprintf(cmd.OutOrStdout(), "  Share:  %s\n", rec.VerifyURL)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "attest this text instead of a file")
	return cmd
}

func (a *App) attestFile(ctx context.Context, path string) (*api.Receipt, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	kind := mime.TypeByExtension(filepath.Ext(path))
	return a.api.AttestFile(ctx, filepath.Base(path), kind, f)
}

func (a *App) cacheReceipt(ctx context.Context, rec *api.Receipt) error {
	return a.store.Receipts.Save(ctx, &store.Receipt{
		Identifier:  rec.Identifier,
		DisplayName: rec.DisplayName,
		Digest:      rec.Digest,
		VerifyURL:   rec.VerifyURL,
		CreatedAt:   rec.CreatedAt,
	})
}
