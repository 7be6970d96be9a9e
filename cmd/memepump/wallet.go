package main

import (
	"errors"
	"fmt"

	"memepump/internal/curve"
	"memepump/internal/wallet"

	"github.com/spf13/cobra"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Connect, inspect and sign with a Solana or EVM wallet",
	Long: `Manage the wallet session. Providers come from config: a Solana CLI keypair
file (wallet.solana_keypair) and an EIP-1193 JSON-RPC bridge (wallet.evm_rpc_url).
The session survives restarts.`,
}

var walletStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show available providers and the current session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDashboard(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		out := cmd.OutOrStdout()
		avail := d.Wallet.DetectAvailability()
		fmt.Fprintf(out, "solana provider: %s\n", availability(avail.Solana, wallet.PhantomInstallURL))
		fmt.Fprintf(out, "evm provider:    %s\n", availability(avail.EVM, wallet.MetaMaskInstallURL))

		if s, ok := d.Wallet.Session(); ok {
			fmt.Fprintf(out, "connected: %s (%s)\n", s.Address, s.Chain)
		} else {
			fmt.Fprintln(out, "not connected")
		}
		return nil
	},
}

func availability(ok bool, installURL string) string {
	if ok {
		return "available"
	}
	return "not installed, see " + installURL
}

var walletConnectCmd = &cobra.Command{
	Use:       "connect [solana|evm]",
	Short:     "Connect a wallet, auto-detecting the provider when no chain is given",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{string(wallet.ChainSolana), string(wallet.ChainEVM)},
	RunE: func(cmd *cobra.Command, args []string) error {
		var chain wallet.Chain
		if len(args) == 1 {
			chain = wallet.Chain(args[0])
			if chain != wallet.ChainSolana && chain != wallet.ChainEVM {
				return fmt.Errorf("%w %q", wallet.ErrUnknownChain, args[0])
			}
		}

		d, err := openDashboard(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		s, err := d.Wallet.Connect(cmd.Context(), chain)
		if err != nil {
			var notInstalled *wallet.NotInstalledError
			if errors.As(err, &notInstalled) {
				return fmt.Errorf("no %s wallet configured; install one from %s", notInstalled.Chain, notInstalled.InstallURL)
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "connected %s (%s)\n", curve.ShortAddress(s.Address), s.Chain)
		return nil
	},
}

var walletDisconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Disconnect the wallet and forget the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDashboard(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		if err := d.Wallet.Disconnect(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "disconnected")
		return nil
	},
}

var walletSignCmd = &cobra.Command{
	Use:   "sign [message]",
	Short: "Sign a message with the connected wallet",
	Long: `Sign a message with the connected wallet. Without a message the server's
ownership challenge for the connected address is fetched and signed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDashboard(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		var message string
		if len(args) == 1 {
			message = args[0]
		} else {
			s, ok := d.Wallet.Session()
			if !ok {
				return wallet.ErrNotConnected
			}
			ch, err := d.API.GetWalletChallenge(cmd.Context(), s.Address)
			if err != nil {
				return fmt.Errorf("fetch ownership challenge: %w", err)
			}
			message = ch.Message
		}

		sig, err := d.Wallet.SignMessage(cmd.Context(), message)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "address:   %s\n", sig.Address)
		fmt.Fprintf(out, "message:   %s\n", sig.Message)
		fmt.Fprintf(out, "signature: %s\n", sig.Signature)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletStatusCmd)
	walletCmd.AddCommand(walletConnectCmd)
	walletCmd.AddCommand(walletDisconnectCmd)
	walletCmd.AddCommand(walletSignCmd)
}
