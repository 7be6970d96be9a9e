package main

import (
	"fmt"
	"text/tabwriter"

	"memepump/internal/curve"
	"memepump/pkg/memepump"

	"github.com/spf13/cobra"
)

var (
	curveSupply float64
	curvePoints int
	curveEvery  int
	curveAmount float64
	curveCoinID string
)

var curveCmd = &cobra.Command{
	Use:   "curve",
	Short: "Print a bonding-curve projection and trade estimates",
	Long: `Sample the configured bonding curve, or the curve of a listed coin with
--coin, and print price and market cap along it. With --amount the cost of
buying and the return of selling that many tokens at the current supply are
estimated. Projections never replace the live server price.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := curve.New(cfg.Curve.Type, cfg.Curve.K, cfg.Curve.Slope, cfg.Curve.BasePrice,
			cfg.Curve.MaxSupply, cfg.Curve.TargetMarketCap)
		supply := curveSupply

		var coin *memepump.Coin
		if curveCoinID != "" {
			d, err := openDashboard(cmd)
			if err != nil {
				return err
			}
			defer d.Close()

			coins, err := d.API.GetCoins(cmd.Context())
			if err != nil {
				return err
			}
			for i := range coins {
				if coins[i].ID == curveCoinID {
					coin = &coins[i]
					break
				}
			}
			if coin == nil {
				return fmt.Errorf("coin %s not found", curveCoinID)
			}
			c = c.WithParams(coin.CurveType, coin.CurveK, coin.CurveSlope, coin.BasePrice)
			if !cmd.Flags().Changed("supply") {
				supply = coin.TotalSupply
			}
		}

		n := curvePoints
		if n <= 0 {
			n = cfg.Curve.Points
		}
		points := c.Sample(supply, n)

		out := cmd.OutOrStdout()
		if coin != nil {
			fmt.Fprintf(out, "%s (%s)  live price %s  market cap %s  progress %s  holders %s\n",
				coin.Name, coin.Symbol, curve.FormatPrice(coin.Price), curve.FormatMarketCap(coin.MarketCap),
				curve.FormatProgress(coin.Progress), curve.FormatHolders(coin.Holders))
		}
		fmt.Fprintf(out, "%s curve, target %s\n\n", c.Type, curve.FormatMarketCap(c.TargetMarketCap))

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SUPPLY\tPRICE\tMARKET CAP\t")
		every := curveEvery
		if every <= 0 {
			every = 1
		}
		for i, p := range points {
			if i%every != 0 && i != len(points)-1 && !p.IsCurrent {
				continue
			}
			mark := ""
			if p.IsCurrent {
				mark = "<- current"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
				curve.FormatSupply(p.SupplyMillions()), curve.FormatPrice(p.Price), curve.FormatMarketCap(p.MarketCap), mark)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		if grad, ok := curve.GraduationPoint(points, c.TargetMarketCap); ok {
			fmt.Fprintf(out, "\ngraduates at %s supply\n", curve.FormatSupply(grad.SupplyMillions()))
		} else {
			fmt.Fprintln(out, "\ndoes not graduate within the plotted supply")
		}

		if curveAmount > 0 {
			fmt.Fprintf(out, "buy %g tokens: ~%s\n", curveAmount, curve.FormatPrice(c.BuyCost(supply, curveAmount)))
			fmt.Fprintf(out, "sell %g tokens: ~%s\n", curveAmount, curve.FormatPrice(c.SellReturn(supply, curveAmount)))
		}
		return nil
	},
}

func init() {
	curveCmd.Flags().Float64Var(&curveSupply, "supply", 0, "Current supply in tokens")
	curveCmd.Flags().IntVar(&curvePoints, "points", 0, "Number of sampled points (default from config)")
	curveCmd.Flags().IntVar(&curveEvery, "every", 10, "Print every Nth point")
	curveCmd.Flags().Float64Var(&curveAmount, "amount", 0, "Estimate buy cost and sell return for this many tokens")
	curveCmd.Flags().StringVar(&curveCoinID, "coin", "", "Use the curve and supply of a listed coin")
	rootCmd.AddCommand(curveCmd)
}
