package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veristamp/veristamp/internal/client/api"
	"github.com/veristamp/veristamp/internal/hashx"
)

func (a *App) newVerifyCmd() *cobra.Command {
	var (
		text       string
		digest     string
		identifier string
	)

	cmd := &cobra.Command{
		Use:   "verify [file]",
		Short: "Check whether content is attested",
		Long: `Verify digests the given file or text locally and asks the service
whether the digest is attested. With --digest or --id the lookup is
performed directly. No account is needed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			sources := 0
			for _, set := range []bool{len(args) == 1, text != "", digest != "", identifier != ""} {
				if set {
					sources++
				}
			}
			if sources != 1 {
				return fmt.Errorf("provide exactly one of: a file, --text, --digest, --id")
			}

			var res *api.VerifyResult
			var err error

			switch {
			case identifier != "":
				res, err = a.api.VerifyIdentifier(ctx, identifier)
			case digest != "":
				res, err = a.api.VerifyDigest(ctx, digest)
			case text != "":
				res, err = a.api.VerifyDigest(ctx, hashx.SumText(text))
			default:
				var d string
				d, err = digestFile(args[0])
				if err != nil {
					return err
				}
				res, err = a.api.VerifyDigest(ctx, d)
			}
			if err != nil {
				return fmt.Errorf("verification failed: %w", err)
			}

			printVerifyResult(cmd, res)
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "verify this text")
	cmd.Flags().StringVar(&digest, "digest", "", "verify a known SHA-256 digest")
	cmd.Flags().StringVar(&identifier, "id", "", "verify by attestation identifier")
	return cmd
}

func digestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	d, _, err := hashx.SumReader(f, info.Size())
	return d, err
}

func printVerifyResult(cmd *cobra.Command, res *api.VerifyResult) {
	w := cmd.OutOrStdout()
	if res.Verified && res.Data != nil {
		fmt.Fprintln(w, "VERIFIED")
		fmt.Fprintf(w, "  ID:        %s\n", res.Data.Identifier)
		fmt.Fprintf(w, "  Name:      %s\n", res.Data.DisplayName)
		fmt.Fprintf(w, "  SHA256:    %s\n", res.Data.Digest)
		fmt.Fprintf(w, "  Attested:  %s\n", res.Data.CreatedAt.Format("2006-01-02 15:04:05 MST"))
		return
	}

	fmt.Fprintln(w, "NOT FOUND")
	if res.ComputedHash != "" {
		fmt.Fprintf(w, "  SHA256: %s\n", res.ComputedHash)
	}
}
