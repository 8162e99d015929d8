package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/yolodolo42/erdwallet/internal/account"
	"github.com/yolodolo42/erdwallet/internal/ui"
)

func newWalletCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Manage wallets and accounts",
		Long:  `Create, import, select and back up MultiversX accounts.`,
	}

	cmd.AddCommand(
		newWalletCreateCmd(a),
		newWalletImportCmd(a),
		newWalletImportKeyCmd(a),
		newWalletListCmd(a),
		newWalletUseCmd(a),
		newWalletRenameCmd(a),
		newWalletDeleteCmd(a),
		newWalletClearCmd(a),
		newWalletLogoutCmd(a),
		newWalletShowCmd(a),
		newWalletExportCmd(a),
		newWalletRestoreCmd(a),
		newWalletSealCmd(a),
		newWalletUnsealCmd(a),
	)
	return cmd
}

func newWalletCreateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new account from a fresh recovery phrase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}

			rec, err := s.Generate(cmd.Context(), name)
			if err != nil {
				return fmt.Errorf("create account: %w", err)
			}

			fmt.Fprintln(a.out, ui.Success("Account created and selected"))
			fmt.Fprintf(a.out, "Name:    %s\n", rec.Name)
			fmt.Fprintf(a.out, "Address: %s\n", ui.AddressStyle.Render(rec.Address))
			fmt.Fprintln(a.out)
			fmt.Fprintln(a.out, ui.WarningStyle.Render("Recovery phrase (write it down, it is the only way to restore this account):"))
			fmt.Fprintln(a.out, rec.RecoveryPhrase)
			return nil
		},
	}
	cmd.Flags().String("name", "", "display name (default \"Wallet N\")")
	return cmd
}

func newWalletImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import an account from a recovery phrase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			phrase, err := a.readSecret("Enter recovery phrase: ")
			if err != nil {
				return err
			}
			if phrase == "" {
				return errors.New("recovery phrase is required")
			}

			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			rec, err := s.ImportPhrase(cmd.Context(), phrase, name)
			if err != nil {
				return fmt.Errorf("import account: %w", err)
			}
			printSelected(a, rec)
			return nil
		},
	}
	cmd.Flags().String("name", "", "display name (default \"Wallet N\")")
	return cmd
}

func newWalletImportKeyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-key",
		Short: "Import an account from a hex private key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			key, err := a.readSecret("Enter private key (hex): ")
			if err != nil {
				return err
			}
			if key == "" {
				return errors.New("private key is required")
			}

			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			rec, err := s.ImportKey(cmd.Context(), key, name)
			if err != nil {
				return fmt.Errorf("import key: %w", err)
			}
			printSelected(a, rec)
			return nil
		},
	}
	cmd.Flags().String("name", "", "display name (default \"Wallet N\")")
	return cmd
}

func printSelected(a *app, rec account.Record) {
	fmt.Fprintln(a.out, ui.Success("Account imported and selected"))
	fmt.Fprintf(a.out, "Name:    %s\n", rec.Name)
	fmt.Fprintf(a.out, "Address: %s\n", ui.AddressStyle.Render(rec.Address))
}

func newWalletListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			newest, _ := cmd.Flags().GetBool("newest")
			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}

			order := account.Ascending
			if newest {
				order = account.Descending
			}
			records, err := s.Accounts(cmd.Context(), order)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(a.out, "No accounts found.")
				fmt.Fprintln(a.out, "Use 'erdwallet wallet create' or 'erdwallet wallet import' to add one.")
				return nil
			}

			active, _ := s.Active()
			for _, r := range records {
				marker := " "
				if r.Address == active {
					marker = ui.SuccessStyle.Render(ui.SymbolBullet)
				}
				fmt.Fprintf(a.out, "%s %-16s %s  %s\n", marker, r.Name, r.Address,
					ui.SelectorDim.Render(r.Created().Format(time.DateOnly)))
			}
			return nil
		},
	}
	cmd.Flags().Bool("newest", false, "list newest accounts first")
	return cmd
}

func newWalletUseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "use [address]",
		Short: "Select the active account",
		Long:  `Select the active account. Without an address an interactive picker is shown.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.openSession(ctx)
			if err != nil {
				return err
			}

			var address string
			if len(args) == 1 {
				address = args[0]
			} else {
				if !a.isInteractive() {
					return errors.New("address is required when not running in a terminal")
				}
				records, err := s.Accounts(ctx, account.Ascending)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					return errors.New("no accounts to choose from")
				}
				active, _ := s.Active()
				items := make([]ui.SelectorItem, 0, len(records))
				for _, r := range records {
					items = append(items, ui.SelectorItem{
						ID:          r.Address,
						Label:       r.Name,
						Description: ui.ShortAddress(r.Address),
						Current:     r.Address == active,
					})
				}
				address, err = ui.RunSelector("Select account", items)
				if err != nil {
					return err
				}
				if address == "" {
					return ui.ErrCancelled
				}
			}

			if err := s.Switch(ctx, address); err != nil {
				return err
			}
			fmt.Fprintln(a.out, ui.Success("Active account: "+address))
			return nil
		},
	}
}

func newWalletRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <address> <name>",
		Short: "Change an account's display name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			rec, err := s.Rename(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, ui.Success(fmt.Sprintf("Renamed %s to %q", rec.Address, rec.Name)))
			return nil
		},
	}
}

func newWalletDeleteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <address>",
		Short: "Remove a stored account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				ok, err := a.confirm("Delete " + args[0] + "? Without a backup it cannot be recovered.")
				if err != nil {
					return err
				}
				if !ok {
					return ui.ErrCancelled
				}
			}

			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(a.out, ui.Success("Account deleted"))
			if active, ok := s.Active(); ok {
				fmt.Fprintf(a.out, "Active account: %s\n", active)
			}
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "skip confirmation")
	return cmd
}

func newWalletClearCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every stored account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				ok, err := a.confirm("Remove ALL stored accounts?")
				if err != nil {
					return err
				}
				if !ok {
					return ui.ErrCancelled
				}
			}

			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, ui.Success("All accounts removed"))
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "skip confirmation")
	return cmd
}

func newWalletLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Deselect the active account (stored accounts are kept)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, ui.Success("Logged out"))
			return nil
		},
	}
}

func newWalletShowCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [address]",
		Short: "Show an account (the active one by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			reveal, _ := cmd.Flags().GetBool("reveal")

			addr, err := a.activeAddress(ctx, args)
			if err != nil {
				return err
			}
			s, err := a.openSession(ctx)
			if err != nil {
				return err
			}
			rec, ok, err := s.Repository().FindByAddress(ctx, addr)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("unknown account: %s", addr)
			}

			fmt.Fprintf(a.out, "Name:     %s\n", rec.Name)
			fmt.Fprintf(a.out, "Address:  %s\n", ui.AddressStyle.Render(rec.Address))
			fmt.Fprintf(a.out, "Created:  %s\n", rec.Created().Format(time.RFC3339))
			fmt.Fprintf(a.out, "Explorer: %s\n", s.Network().ExplorerAccountURL(rec.Address))
			if !reveal {
				return nil
			}

			ok, err = a.confirm("Print secret material to the terminal?")
			if err != nil {
				return err
			}
			if !ok {
				return ui.ErrCancelled
			}
			fmt.Fprintf(a.out, "Private key: %s\n", rec.SecretKey)
			if rec.HasPhrase() {
				fmt.Fprintf(a.out, "Recovery phrase: %s\n", rec.RecoveryPhrase)
			}
			return nil
		},
	}
	cmd.Flags().Bool("reveal", false, "also print the private key and recovery phrase")
	return cmd
}

func newWalletExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [address]",
		Short: "Write a password-encrypted backup of an account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out, _ := cmd.Flags().GetString("out")

			addr, err := a.activeAddress(ctx, args)
			if err != nil {
				return err
			}
			s, err := a.openSession(ctx)
			if err != nil {
				return err
			}
			pw, err := a.readNewPassword("Backup password: ")
			if err != nil {
				return err
			}

			data, err := s.ExportBackup(ctx, addr, pw)
			if err != nil {
				return err
			}
			if out == "" {
				out = addr + ".json"
			}
			if err := os.WriteFile(out, data, 0600); err != nil {
				return fmt.Errorf("write backup: %w", err)
			}
			fmt.Fprintln(a.out, ui.Success("Backup written to "+out))
			return nil
		},
	}
	cmd.Flags().StringP("out", "o", "", "output file (default <address>.json)")
	return cmd
}

func newWalletRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore an account from a backup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read backup: %w", err)
			}
			pw, err := a.readPassword("Backup password: ")
			if err != nil {
				return err
			}

			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			rec, err := s.ImportBackup(cmd.Context(), data, pw)
			if err != nil {
				return err
			}
			printSelected(a, rec)
			return nil
		},
	}
}

func newWalletSealCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seal [address]",
		Short: "Keep a password-encrypted copy of an account's key in storage",
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

			if sealed, err := s.HasSealed(ctx); err != nil {
				return err
			} else if sealed {
				ok, err := a.confirm("A sealed key already exists. Replace it?")
				if err != nil {
					return err
				}
				if !ok {
					return ui.ErrCancelled
				}
			}

			pw, err := a.readNewPassword("Seal password: ")
			if err != nil {
				return err
			}
			if err := s.Seal(ctx, addr, pw); err != nil {
				return err
			}
			fmt.Fprintln(a.out, ui.Success("Key sealed for "+addr))
			return nil
		},
	}
}

func newWalletUnsealCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unseal",
		Short: "Restore the sealed key as an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.openSession(ctx)
			if err != nil {
				return err
			}
			sealed, err := s.HasSealed(ctx)
			if err != nil {
				return err
			}
			if !sealed {
				return errors.New("no sealed key found")
			}

			pw, err := a.readPassword("Seal password: ")
			if err != nil {
				return err
			}
			rec, err := s.Unseal(ctx, pw)
			if err != nil {
				return err
			}
			printSelected(a, rec)

			if forget, _ := cmd.Flags().GetBool("forget"); forget {
				if err := s.ForgetSealed(ctx); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "Sealed key removed.")
			}
			return nil
		},
	}
	cmd.Flags().Bool("forget", false, "remove the sealed key after restoring it")
	return cmd
}
