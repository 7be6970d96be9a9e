package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"memepump/config"
	"memepump/internal/market/dashboard"
	"memepump/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgPath     string
	autoApprove bool

	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "memepump",
	Short: "memepump - live bonding-curve token dashboard client",
	Long: `memepump keeps a live view of the memepump token catalogue, trades and
comments, projects bonding-curve prices and manages the local identity and
wallet session.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		// viper config
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		// zap logger
		log, err = logger.New(cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "",
		"Path to config.yaml (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&autoApprove, "yes", "y", false,
		"Approve keypair connect and sign requests without prompting")
}

// openDashboard builds the client and restores the saved identity and wallet
// session without connecting to the stream.
func openDashboard(cmd *cobra.Command) (*dashboard.Dashboard, error) {
	d, err := dashboard.New(cfg, log, approver(cmd))
	if err != nil {
		return nil, err
	}
	d.Account.Restore()
	d.Wallet.RestoreSession()
	return d, nil
}

func approver(cmd *cobra.Command) dashboard.ApproveFunc {
	if autoApprove {
		return func(context.Context, string) bool { return true }
	}
	in := bufio.NewReader(cmd.InOrStdin())
	return func(_ context.Context, action string) bool {
		fmt.Fprintf(cmd.ErrOrStderr(), "Approve %s with local keypair? [y/N] ", action)
		line, _ := in.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}
