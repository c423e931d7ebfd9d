package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/BeArt-PDD/beart-labs/internal/wallet"
)

type keygenOptions struct {
	Out     string
	ChainID int64
}

// NewKeygenCommand creates the keygen command.
func NewKeygenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &keygenOptions{}

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a local signing key for testing",
		Long: `Generate a secp256k1 key and write it hex-encoded to --out (mode 0600).

The key is for development wallets only; it is stored unencrypted.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeygen(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "siwe.key", "key file to write")
	cmd.Flags().Int64Var(&opts.ChainID, "chain-id", 1, "chain the wallet reports")

	return cmd
}

func runKeygen(rootOpts *RootOptions, opts *keygenOptions, cmd *cobra.Command) error {
	w, err := wallet.Generate(opts.ChainID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to generate key", err)
	}
	if err := w.SaveKeyFile(opts.Out); err != nil {
		return WrapExitError(ExitCommandError, "failed to write key file", err)
	}

	address, _ := w.Address(cmd.Context())
	formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
	return formatter.Success(map[string]interface{}{
		"address":  address,
		"key_file": opts.Out,
	}, func(out io.Writer) {
		fmt.Fprintf(out, "✓ Wrote %s\n", opts.Out)
		fmt.Fprintf(out, "  Address: %s\n", address)
	})
}
