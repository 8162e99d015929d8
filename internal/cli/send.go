package cli

import (
	"errors"
	"fmt"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
	"github.com/yolodolo42/erdwallet/internal/network"
	"github.com/yolodolo42/erdwallet/internal/tx"
	"github.com/yolodolo42/erdwallet/internal/ui"
)

func newSendCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Sign and submit an EGLD transfer",
		Long: `Sign and submit an EGLD transfer from the active account (or --from).

The amount is in EGLD ("1.5"), converted exactly to the smallest unit.
The sender's nonce is fetched from the gateway right before signing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			to, _ := cmd.Flags().GetString("to")
			amount, _ := cmd.Flags().GetString("amount")
			from, _ := cmd.Flags().GetString("from")
			yes, _ := cmd.Flags().GetBool("yes")

			if to == "" || amount == "" {
				return errors.New("--to and --amount are required")
			}
			from, err := a.activeAddress(ctx, []string{from})
			if err != nil {
				return err
			}
			s, err := a.openSession(ctx)
			if err != nil {
				return err
			}
			n := s.Network()

			// Parse up front so a bad amount never reaches the prompt.
			value, err := tx.ParseAmount(amount, n.Decimals)
			if err != nil {
				return err
			}

			if !yes {
				fmt.Fprintf(a.errOut, "From:    %s\n", from)
				fmt.Fprintf(a.errOut, "To:      %s\n", to)
				fmt.Fprintf(a.errOut, "Amount:  %s\n", ui.Amount(tx.FormatAmount(value.String(), n.Decimals), n.Ticker))
				fmt.Fprintf(a.errOut, "Network: %s (chain %s)\n", n.Name, n.ChainID)
				ok, err := a.confirm("Sign and submit this transfer?")
				if err != nil {
					return err
				}
				if !ok {
					return ui.ErrCancelled
				}
			}

			res, err := s.SendFrom(ctx, from, to, amount)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, ui.Success("Transaction submitted"))
			fmt.Fprintf(a.out, "Hash:     %s\n", res.Hash)
			fmt.Fprintf(a.out, "Nonce:    %d\n", res.Nonce)
			fmt.Fprintf(a.out, "Max fee:  %s %s\n", tx.FormatAmount(res.Fee.String(), n.Decimals), n.Ticker)
			fmt.Fprintf(a.out, "Explorer: %s\n", n.ExplorerTxURL(res.Hash))
			return nil
		},
	}
	cmd.Flags().String("to", "", "recipient address (erd1...)")
	cmd.Flags().String("amount", "", "amount in EGLD, e.g. 1.5")
	cmd.Flags().String("from", "", "sender address (default: active account)")
	cmd.Flags().BoolP("yes", "y", false, "skip confirmation")
	return cmd
}

func newReceiveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receive [address]",
		Short: "Show an address and its QR code for receiving funds",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			noQR, _ := cmd.Flags().GetBool("no-qr")
			addr, err := a.activeAddress(cmd.Context(), args)
			if err != nil {
				return err
			}

			fmt.Fprintln(a.out, ui.AddressStyle.Render(addr))
			if noQR {
				return nil
			}
			qr, err := qrcode.New(addr, qrcode.Medium)
			if err != nil {
				return fmt.Errorf("failed to create QR code: %w", err)
			}
			fmt.Fprint(a.out, qr.ToSmallString(false))
			return nil
		},
	}
	cmd.Flags().Bool("no-qr", false, "print only the address")
	return cmd
}

func newNetworksCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "networks",
		Short: "List known networks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all := network.DefaultNetworks()
			for _, id := range network.IDs() {
				n := all[id]
				marker := " "
				if id == a.cfg.Network {
					marker = ui.SuccessStyle.Render(ui.SymbolBullet)
				}
				fmt.Fprintf(a.out, "%s %-8s chain %-2s %-6s %s\n", marker, n.ID, n.ChainID, n.Ticker, n.APIURL)
			}
			return nil
		},
	}
}
