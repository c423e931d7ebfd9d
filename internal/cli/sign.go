package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/BeArt-PDD/beart-labs/internal/nonce"
	"github.com/BeArt-PDD/beart-labs/internal/siwe"
	"github.com/BeArt-PDD/beart-labs/internal/wallet"
)

type signOptions struct {
	KeyFile     string
	MessageFile string
	Nonce       string
	Statement   string
	Domain      string
	URI         string
	ChainID     int64
	ExpiresIn   time.Duration
	RequestID   string
	Resources   []string
}

// SignResult is the output of the sign command.
type SignResult struct {
	Address   string `json:"address"`
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

// NewSignCommand creates the sign command.
func NewSignCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &signOptions{}

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a sign-in message with a local key",
		Long: `Sign a Sign-In with Ethereum message with the key in --key.

With --message-file the file is signed byte for byte. Otherwise a message is
built from the flags and the configured domain, URI and chain; pass the nonce
handed out by the server with --nonce so the server will accept it.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSign(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.KeyFile, "key", "k", "siwe.key", "key file written by keygen")
	cmd.Flags().StringVarP(&opts.MessageFile, "message-file", "m", "", "sign this message instead of building one")
	cmd.Flags().StringVar(&opts.Nonce, "nonce", "", "nonce issued by the server (random when empty)")
	cmd.Flags().StringVar(&opts.Statement, "statement", "", "statement line (default from config)")
	cmd.Flags().StringVar(&opts.Domain, "domain", "", "domain (default from config)")
	cmd.Flags().StringVar(&opts.URI, "uri", "", "URI (default from config)")
	cmd.Flags().Int64Var(&opts.ChainID, "chain-id", 0, "chain ID (default from config)")
	cmd.Flags().DurationVar(&opts.ExpiresIn, "expires-in", 0, "set Expiration Time this far in the future")
	cmd.Flags().StringVar(&opts.RequestID, "request-id", "", "request ID line")
	cmd.Flags().StringSliceVar(&opts.Resources, "resource", nil, "resource URI (repeatable)")

	return cmd
}

func runSign(rootOpts *RootOptions, opts *signOptions, cmd *cobra.Command) error {
	cfg, err := rootOpts.LoadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	chainID := opts.ChainID
	if chainID == 0 {
		chainID = cfg.SIWE.ChainID
	}
	w, err := wallet.FromKeyFile(opts.KeyFile, chainID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load key", err)
	}
	address, _ := w.Address(ctx)

	var text string
	if opts.MessageFile != "" {
		data, err := os.ReadFile(opts.MessageFile)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read message file", err)
		}
		text = string(data)
	} else {
		fields := siwe.Fields{
			Domain:    firstNonEmpty(opts.Domain, cfg.SIWE.Domain),
			Address:   address,
			Statement: firstNonEmpty(opts.Statement, cfg.SIWE.Statement),
			URI:       firstNonEmpty(opts.URI, cfg.SIWE.URI),
			ChainID:   chainID,
			Nonce:     opts.Nonce,
			RequestID: opts.RequestID,
			Resources: opts.Resources,
		}
		if opts.ExpiresIn > 0 {
			expiration := time.Now().Add(opts.ExpiresIn)
			fields.ExpirationTime = &expiration
		}
		// The nonce only has to be registered by the server that will verify
		// the message; locally a scratch store satisfies the builder.
		text, _, err = siwe.NewBuilder(nonce.NewMemoryStore()).Build(ctx, fields)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid message", err)
		}
	}

	signature, err := w.SignMessage(ctx, []byte(text))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to sign", err)
	}

	formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
	return formatter.Success(SignResult{
		Address:   address,
		Message:   text,
		Signature: signature,
	}, func(out io.Writer) {
		fmt.Fprintln(out, text)
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Signature: %s\n", signature)
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
