package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/BeArt-PDD/beart-labs/internal/nonce"
	"github.com/BeArt-PDD/beart-labs/internal/siwe"
)

type verifyOptions struct {
	MessageFile string
	Signature   string
	Address     string
	Domain      string
	ChainID     int64
}

// VerifyResult is the output of the verify command.
type VerifyResult struct {
	Accepted bool   `json:"accepted"`
	Address  string `json:"address,omitempty"`
	ChainID  int64  `json:"chain_id,omitempty"`
	Nonce    string `json:"nonce,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &verifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a signed sign-in message offline",
		Long: `Check a signed message against the configured domain and chain, its
validity window and its signature.

The nonce is treated as issued: replay protection needs the server's nonce
store and is not checked here. Exits 1 when the message is rejected.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.MessageFile, "message-file", "m", "", "file holding the exact signed text")
	cmd.Flags().StringVarP(&opts.Signature, "signature", "s", "", "0x-prefixed signature")
	cmd.Flags().StringVar(&opts.Address, "address", "", "address the signer claims (optional)")
	cmd.Flags().StringVar(&opts.Domain, "domain", "", "expected domain (default from config)")
	cmd.Flags().Int64Var(&opts.ChainID, "chain-id", 0, "expected chain ID (default: any configured chain)")
	_ = cmd.MarkFlagRequired("message-file")
	_ = cmd.MarkFlagRequired("signature")

	return cmd
}

func runVerify(rootOpts *RootOptions, opts *verifyOptions, cmd *cobra.Command) error {
	cfg, err := rootOpts.LoadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	data, err := os.ReadFile(opts.MessageFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read message file", err)
	}
	text := string(data)

	chainID := opts.ChainID
	if chainID == 0 {
		chainID = cfg.SIWE.ChainID
	}
	domain := firstNonEmpty(opts.Domain, cfg.SIWE.Domain)

	store := nonce.NewMemoryStore()
	if msg, err := siwe.ParseMessage(text); err == nil {
		if opts.ChainID == 0 && cfg.SIWE.AcceptsChain(msg.ChainID) {
			chainID = msg.ChainID
		}
		ttl := nonce.DefaultTTL
		if msg.ExpirationTime != nil {
			ttl = time.Until(*msg.ExpirationTime)
		}
		if ttl > 0 {
			if err := store.Issue(ctx, msg.Nonce, ttl); err != nil {
				return WrapExitError(ExitCommandError, "failed to stage nonce", err)
			}
		}
	}

	verifierOpts := []siwe.VerifierOption{}
	if cfg.SIWE.MaxMessageAge > 0 {
		verifierOpts = append(verifierOpts, siwe.WithMaxMessageAge(cfg.SIWE.MaxMessageAge, cfg.SIWE.ClockSkew))
	}
	result, err := siwe.NewVerifier(store, verifierOpts...).Verify(ctx, text, opts.Signature, opts.Address, domain, chainID)
	if err != nil {
		return WrapExitError(ExitCommandError, "verification failed", err)
	}

	out := VerifyResult{
		Accepted: result.Accepted,
		Address:  result.Address,
		ChainID:  result.ChainID,
		Nonce:    result.Nonce,
		Reason:   string(result.Reason),
		Detail:   result.Detail,
	}
	formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

	if !result.Accepted {
		if err := formatter.Failure(string(result.Reason), result.Detail, out); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "message rejected")
	}

	return formatter.Success(out, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Signed by %s on chain %d\n", result.Address, result.ChainID)
	})
}
