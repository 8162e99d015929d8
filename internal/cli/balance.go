package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/yolodolo42/erdwallet/internal/tx"
	"github.com/yolodolo42/erdwallet/internal/ui"
)

const displayPlaces = 4

func newBalanceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance [address]",
		Short: "Show the EGLD balance of the active account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			all, _ := cmd.Flags().GetBool("all")

			s, err := a.openSession(ctx)
			if err != nil {
				return err
			}
			n := s.Network()

			if !all {
				addr, err := a.activeAddress(ctx, args)
				if err != nil {
					return err
				}
				raw, err := s.RefreshBalance(ctx, addr)
				if err != nil {
					return fmt.Errorf("fetch balance: %w", err)
				}
				fmt.Fprintf(a.out, "%s  %s\n", addr, ui.Amount(tx.FormatAmount(raw, n.Decimals), n.Ticker))
				return nil
			}

			results, err := s.RefreshAll(ctx)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(a.out, "No accounts found.")
				return nil
			}

			fmt.Fprintf(a.out, "Balances on %s\n", n.Name)
			fmt.Fprintln(a.out, "─────────────────────────────────────────────────────────")
			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
					fmt.Fprintf(a.out, "%s  %s\n", ui.ShortAddress(r.Address), ui.ErrorStyle.Render("⚠ "+r.Err.Error()))
					continue
				}
				fmt.Fprintf(a.out, "%s  %s\n", ui.ShortAddress(r.Address),
					ui.Amount(tx.FormatAmountFixed(r.Balance, n.Decimals, displayPlaces), n.Ticker))
			}
			fmt.Fprintln(a.out, "─────────────────────────────────────────────────────────")
			if failed > 0 {
				return fmt.Errorf("%d of %d balances could not be fetched", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().Bool("all", false, "refresh every stored account")
	return cmd
}

func newTokensCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tokens [address]",
		Short: "Show fungible token holdings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			addr, err := a.activeAddress(ctx, args)
			if err != nil {
				return err
			}
			s, err := a.openSession(ctx)
			if err != nil {
				return err
			}

			tokens, err := s.RefreshTokens(ctx, addr)
			if err != nil {
				return fmt.Errorf("fetch tokens: %w", err)
			}
			if len(tokens) == 0 {
				fmt.Fprintln(a.out, "No tokens.")
				return nil
			}
			for _, t := range tokens {
				ticker := t.Ticker
				if ticker == "" {
					ticker = t.Identifier
				}
				fmt.Fprintf(a.out, "%-20s %s\n", t.Identifier, ui.Amount(tx.FormatAmount(t.Balance, t.Decimals), ticker))
			}
			return nil
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [address]",
		Short: "Show recent transactions, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			limit, _ := cmd.Flags().GetInt("limit")

			addr, err := a.activeAddress(ctx, args)
			if err != nil {
				return err
			}
			s, err := a.openSession(ctx)
			if err != nil {
				return err
			}
			n := s.Network()

			entries, err := s.RefreshHistory(ctx, addr)
			if err != nil {
				return fmt.Errorf("fetch history: %w", err)
			}
			if len(entries) == 0 {
				fmt.Fprintln(a.out, "No transactions.")
				return nil
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}
			for _, e := range entries {
				fmt.Fprintf(a.out, "%s %s  %-18s %s  %s  %s\n",
					ui.DirectionSymbol(string(e.Direction)),
					e.Timestamp.Format(time.DateTime),
					ui.ShortAddress(e.Counterparty),
					ui.Amount(tx.FormatAmountFixed(e.Value, n.Decimals, displayPlaces), n.Ticker),
					e.Status,
					ui.SelectorDim.Render(ui.ShortAddress(e.Hash)),
				)
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "maximum number of transactions to show")
	return cmd
}
