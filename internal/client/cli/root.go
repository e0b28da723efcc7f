package cli

import (
	"github.com/spf13/cobra"
)

func (a *App) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "veristamp",
		Short:         "VeriStamp attests documents and verifies them against the service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.AddCommand(
		a.newRegisterCmd(),
		a.newLoginCmd(),
		a.newLogoutCmd(),
		a.newAttestCmd(),
		a.newVerifyCmd(),
		a.newListCmd(),
		a.newShareCmd(),
		a.newWhoamiCmd(),
	)

	return cmd
}
