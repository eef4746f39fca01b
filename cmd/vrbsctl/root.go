package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mykcryptodev/vrbs-vote-frame/internal/chain"
	"github.com/mykcryptodev/vrbs-vote-frame/internal/cli"
	"github.com/mykcryptodev/vrbs-vote-frame/internal/config"
	"github.com/mykcryptodev/vrbs-vote-frame/internal/cultureindex"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	configPath string
	rpcURL     string
	contract   string
	timeout    time.Duration
	jsonOut    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "vrbsctl",
		Short: "Inspect CultureIndex art pieces and frame payloads",
		Long: `vrbsctl reads art pieces from the CultureIndex contract on Base, builds and
decodes vote transactions, and runs the frame's SVG optimizer.

Configuration is read the same way as the frame service: defaults, then the
YAML file named by --config or FRAME_CONFIG_FILE, then .env and the environment.
Flags override all of them.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML config file")
	flags.StringVar(&opts.rpcURL, "rpc-url", "", "Base JSON-RPC endpoint (overrides BASE_RPC_URL)")
	flags.StringVar(&opts.contract, "contract", "", "CultureIndex address (overrides CONTRACT_ADDRESS)")
	flags.DurationVar(&opts.timeout, "timeout", 30*time.Second, "timeout for network calls")
	flags.BoolVar(&opts.jsonOut, "json", false, "print machine-readable JSON")

	root.AddCommand(
		newPieceCmd(opts),
		newTopCmd(opts),
		newCountCmd(opts),
		newHasVotedCmd(opts),
		newVoteTxCmd(opts),
		newDecodeVoteCmd(opts),
		newOptimizeCmd(opts),
	)
	return root
}

// loadConfig applies flag overrides on top of the layered configuration.
func (o *options) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.rpcURL != "" {
		cfg.Chain.RPCURL = o.rpcURL
	}
	if o.contract != "" {
		cfg.Chain.ContractAddress = o.contract
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o *options) gateway() (*cultureindex.Gateway, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	rpc, err := chain.NewClient(chain.Config{RPCURL: cfg.Chain.RPCURL, Timeout: o.timeout})
	if err != nil {
		return nil, err
	}
	return cultureindex.NewGateway(rpc, cultureindex.Config{
		Address: cfg.Chain.ContractAddress,
		ChainID: cfg.Chain.ChainID,
	})
}

// withSpinner runs fn under a timeout with a spinner on stderr.
func (o *options) withSpinner(cmd *cobra.Command, label string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
	defer cancel()

	spinner := cli.NewSpinner(cmd.ErrOrStderr(), label)
	spinner.Start()
	if err := fn(ctx); err != nil {
		spinner.Error(fmt.Sprintf("%s: %v", label, err))
		return err
	}
	spinner.Stop()
	return nil
}
