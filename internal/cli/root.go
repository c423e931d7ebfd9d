package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BeArt-PDD/beart-labs/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// LoadConfig reads the configuration named by --config and applies its
// logging settings.
func (o *RootOptions) LoadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(o.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if err := config.ConfigureLogging(cfg.Log); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid log configuration", err)
	}
	return cfg, nil
}

// NewRootCommand creates the root command for the siwe CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "siwe",
		Short: "Sign-In with Ethereum service and tools",
		Long:  "Serve Sign-In with Ethereum (EIP-4361) authentication, and build, sign and check sign-in messages from the command line.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default config.local.yaml or config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewKeygenCommand(opts))
	cmd.AddCommand(NewSignCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
