package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"memepump/internal/account"
	"memepump/internal/curve"
	"memepump/internal/market/memorystore"
	"memepump/pkg/memepump"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	coinsQuery string
	coinsSort  string
	coinsAsc   bool
	coinsLimit int

	createReq memepump.CreateCoinRequest
)

var coinsCmd = &cobra.Command{
	Use:   "coins",
	Short: "List coins with search and sorting",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDashboard(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		if err := d.Sync(cmd.Context()); err != nil {
			return err
		}
		snap := d.Store.Snapshot()
		coins := snap.FilterCoins(coinsQuery)
		if coinsSort != "" {
			coins = memorystore.SortCoins(coins, memorystore.SortField(coinsSort), coinsAsc)
		}
		if coinsLimit > 0 && len(coins) > coinsLimit {
			coins = coins[:coinsLimit]
		}

		out := cmd.OutOrStdout()
		if king, ok := snap.KingOfTheHill(); ok {
			fmt.Fprintf(out, "king of the hill: %s %s (%s) %s\n\n", king.Image, king.Name, king.Symbol, curve.FormatMarketCap(king.MarketCap))
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSYMBOL\tNAME\tPRICE\tMARKET CAP\tPROGRESS\tHOLDERS\tCREATED")
		for _, c := range coins {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				c.ID, c.Symbol, c.Name, curve.FormatPrice(c.Price), curve.FormatMarketCap(c.MarketCap),
				curve.FormatProgress(c.Progress), curve.FormatHolders(c.Holders), humanize.Time(c.CreatedAt))
		}
		return tw.Flush()
	},
}

var tradesCmd = &cobra.Command{
	Use:   "trades [coin-id]",
	Short: "Show recent trades, optionally for one coin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDashboard(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		if err := d.Sync(cmd.Context()); err != nil {
			return err
		}
		snap := d.Store.Snapshot()
		trades := snap.Trades
		if len(args) == 1 {
			trades = snap.TradesFor(args[0])
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "WHEN\tSIDE\tCOIN\tAMOUNT\tPRICE\tTRADER")
		for _, t := range trades {
			symbol := t.CoinID
			if c, ok := snap.Coin(t.CoinID); ok {
				symbol = c.Symbol
			}
			trader := t.Username
			if trader == "" {
				trader = curve.ShortAddress(t.Wallet)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", humanize.Time(t.Timestamp), strings.ToUpper(string(t.Type)),
				symbol, humanize.Ftoa(t.Amount), curve.FormatPrice(t.Price), trader)
		}
		return tw.Flush()
	},
}

var coinCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Launch a new coin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDashboard(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		req := createReq
		if req.Creator == "" {
			if u, ok := d.Account.Current(); ok {
				req.Creator = u.Username
			} else if s, ok := d.Wallet.Session(); ok {
				req.Creator = s.Address
			}
		}
		coin, err := d.API.CreateCoin(cmd.Context(), req)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) id %s at %s\n", coin.Name, coin.Symbol, coin.ID, curve.FormatPrice(coin.Price))
		return nil
	},
}

var coinCmd = &cobra.Command{
	Use:   "coin",
	Short: "Coin operations",
}

var tradeCmd = &cobra.Command{
	Use:       "trade buy|sell [coin-id] [amount]",
	Short:     "Buy or sell a coin with the connected wallet",
	Args:      cobra.ExactArgs(3),
	ValidArgs: []string{string(memepump.SideBuy), string(memepump.SideSell)},
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[2], err)
		}

		d, err := openDashboard(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		req := memepump.TradeRequest{
			CoinID: args[1],
			Type:   memepump.TradeSide(args[0]),
			Amount: amount,
		}
		if s, ok := d.Wallet.Session(); ok {
			req.Wallet = s.Address
		}
		if u, ok := d.Account.Current(); ok {
			req.Username = u.Username
		}

		t, err := d.API.ExecuteTrade(cmd.Context(), req)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s of %s at %s (trade %s)\n",
			t.Type, humanize.Ftoa(t.Amount), t.CoinID, curve.FormatPrice(t.Price), t.ID)
		return nil
	},
}

var commentCmd = &cobra.Command{
	Use:   "comment [coin-id] [text]",
	Short: "Comment on a coin as the signed-in user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDashboard(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		u, ok := d.Account.Current()
		if !ok {
			return account.ErrNotLoggedIn
		}
		c, err := d.API.PostComment(cmd.Context(), memepump.CommentRequest{
			CoinID:   args[0],
			UserID:   u.ID,
			Username: u.Username,
			Avatar:   u.Avatar,
			Content:  args[1],
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "posted comment %s\n", c.ID)
		return nil
	},
}

var commentsCmd = &cobra.Command{
	Use:   "comments [coin-id]",
	Short: "Show the comment thread of a coin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDashboard(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		if err := d.LoadComments(cmd.Context(), args[0]); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, c := range d.Store.Snapshot().CommentsFor(args[0]) {
			fmt.Fprintf(out, "%s %s (%s): %s\n", c.Avatar, c.Username, humanize.Time(c.Timestamp), c.Content)
		}
		return nil
	},
}

func init() {
	coinsCmd.Flags().StringVarP(&coinsQuery, "query", "q", "", "Filter by name or symbol")
	coinsCmd.Flags().StringVar(&coinsSort, "sort", "", "Sort by marketCap, price, progress, holders or createdAt")
	coinsCmd.Flags().BoolVar(&coinsAsc, "asc", false, "Sort ascending")
	coinsCmd.Flags().IntVar(&coinsLimit, "limit", 0, "Show at most this many coins")

	f := coinCreateCmd.Flags()
	f.StringVar(&createReq.Name, "name", "", "Coin name")
	f.StringVar(&createReq.Symbol, "symbol", "", "Ticker symbol")
	f.StringVar(&createReq.Description, "description", "", "Description")
	f.StringVar(&createReq.Image, "image", "", "Emoji or image URL")
	f.StringVar(&createReq.Creator, "creator", "", "Creator (default: signed-in user or wallet)")
	f.StringVar(&createReq.Twitter, "twitter", "", "Twitter link")
	f.StringVar(&createReq.Telegram, "telegram", "", "Telegram link")
	f.StringVar(&createReq.Website, "website", "", "Website")
	f.Float64Var(&createReq.InitialBuyAmount, "initial-buy", 0, "Initial buy amount")

	coinCmd.AddCommand(coinCreateCmd)
	rootCmd.AddCommand(coinsCmd, coinCmd, tradesCmd, tradeCmd, commentCmd, commentsCmd)
}
