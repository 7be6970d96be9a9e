package main

import (
	"fmt"
	"text/tabwriter"

	"memepump/internal/curve"
	"memepump/pkg/memepump"

	"github.com/spf13/cobra"
)

var (
	accountUsername string
	accountPin      string
	accountAvatar   string
	accountBio      string
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage the local memepump identity",
}

var accountRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDashboard(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		u, err := d.Account.Register(cmd.Context(), memepump.CreateUserRequest{
			Username: accountUsername,
			Pin:      accountPin,
			Avatar:   accountAvatar,
			Bio:      accountBio,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "registered and signed in as %s\n", u.Username)
		return nil
	},
}

var accountLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with username and PIN",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDashboard(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		u, err := d.Account.Login(cmd.Context(), accountUsername, accountPin)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", u.Username)
		return nil
	},
}

var accountUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update profile fields; the PIN confirms the change",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDashboard(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		u, err := d.Account.Update(cmd.Context(), memepump.UpdateUserRequest{
			Username: accountUsername,
			Pin:      accountPin,
			Avatar:   accountAvatar,
			Bio:      accountBio,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", u.Username)
		return nil
	},
}

var accountLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the local identity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDashboard(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		if err := d.Account.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "signed out")
		return nil
	},
}

var accountWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDashboard(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		out := cmd.OutOrStdout()
		u, ok := d.Account.Current()
		if !ok {
			fmt.Fprintln(out, "not signed in")
			return nil
		}
		fmt.Fprintf(out, "%s %s (id %s)\n", u.Avatar, u.Username, u.ID)
		if u.Bio != "" {
			fmt.Fprintln(out, u.Bio)
		}
		return nil
	},
}

var accountPortfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Show holdings with value and P&L",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDashboard(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		p, err := d.Account.Portfolio(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(p.Holdings) == 0 {
			fmt.Fprintln(out, "no holdings")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "COIN\tAMOUNT\tAVG PRICE\tVALUE\tP&L")
		for _, h := range p.Holdings {
			symbol := "?"
			if h.Coin != nil {
				symbol = h.Coin.Symbol
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t$%s\t$%s\n", symbol,
				h.Amount.StringFixed(2), curve.FormatPrice(h.AvgPrice.InexactFloat64()),
				h.Value.StringFixed(2), h.PnL.StringFixed(2))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(out, "\ntotal value $%s  cost $%s  P&L $%s (%s%%)\n",
			p.TotalValue.StringFixed(2), p.TotalCost.StringFixed(2),
			p.TotalPnL.StringFixed(2), p.PnLPercent().StringFixed(1))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountRegisterCmd)
	accountCmd.AddCommand(accountLoginCmd)
	accountCmd.AddCommand(accountUpdateCmd)
	accountCmd.AddCommand(accountLogoutCmd)
	accountCmd.AddCommand(accountWhoamiCmd)
	accountCmd.AddCommand(accountPortfolioCmd)

	for _, c := range []*cobra.Command{accountRegisterCmd, accountLoginCmd, accountUpdateCmd} {
		c.Flags().StringVarP(&accountUsername, "username", "u", "", "Username")
		c.Flags().StringVarP(&accountPin, "pin", "p", "", "PIN")
	}
	for _, c := range []*cobra.Command{accountRegisterCmd, accountUpdateCmd} {
		c.Flags().StringVar(&accountAvatar, "avatar", "", "Avatar emoji")
		c.Flags().StringVar(&accountBio, "bio", "", "Short bio")
	}
}
