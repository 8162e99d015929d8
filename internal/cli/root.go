package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/yolodolo42/erdwallet/internal/config"
	"github.com/yolodolo42/erdwallet/internal/gateway"
	"github.com/yolodolo42/erdwallet/internal/logging"
	"github.com/yolodolo42/erdwallet/internal/network"
	"github.com/yolodolo42/erdwallet/internal/signer"
	"github.com/yolodolo42/erdwallet/internal/storage"
	"github.com/yolodolo42/erdwallet/internal/ui"
	"github.com/yolodolo42/erdwallet/internal/wallet"
	"go.uber.org/zap"
)

// app holds what one command invocation needs. Everything past config is
// opened lazily so commands like "networks" never touch storage.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger

	store   storage.Store
	network *network.Network
	session *wallet.Session

	in     io.Reader
	lines  *bufio.Reader
	out    io.Writer
	errOut io.Writer

	// readSecret reads a line without echo when stdin is a terminal.
	readSecret func(prompt string) (string, error)
}

// Execute runs the CLI and prints any error in the error style.
func Execute() error {
	cmd := NewRootCmd()
	err := cmd.Execute()
	if ui.IsCancelled(err) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled.")
		return nil
	}
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), ui.Error(err))
	}
	return err
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{v: config.New()})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "erdwallet",
		Short: "Terminal wallet for MultiversX accounts",
		Long: `erdwallet manages MultiversX accounts from the terminal.

It derives and stores accounts from recovery phrases or private keys,
shows balances, tokens and history through a public gateway, and signs
and submits EGLD transfers. Accounts are kept under ~/.erdwallet.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.erdwallet/config.yaml)")
	flags.String("network", network.Default, "network to use ("+joinIDs()+")")
	flags.String("data-dir", config.DefaultDataDir(), "directory holding wallet data")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	_ = a.v.BindPFlag("network", flags.Lookup("network"))
	_ = a.v.BindPFlag("data_dir", flags.Lookup("data-dir"))
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))

	root.AddCommand(
		newWalletCmd(a),
		newBalanceCmd(a),
		newTokensCmd(a),
		newHistoryCmd(a),
		newSendCmd(a),
		newReceiveCmd(a),
		newNetworksCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	a.in = cmd.InOrStdin()
	a.out = cmd.OutOrStdout()
	a.errOut = cmd.ErrOrStderr()
	if a.readSecret == nil {
		a.readSecret = a.promptSecret
	}

	if err := config.LoadDotEnv(""); err != nil {
		return err
	}
	if err := config.ReadFile(a.v, a.cfgFile); err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Development: cfg.Log.Development})
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

// openSession wires storage, gateway and session on first use.
func (a *app) openSession(ctx context.Context) (*wallet.Session, error) {
	if a.session != nil {
		return a.session, nil
	}

	n, err := a.cfg.ResolveNetwork()
	if err != nil {
		return nil, err
	}
	opts := a.cfg.StorageOptions()
	opts.Logger = a.logger.Named("storage")
	store, err := storage.Open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	session := wallet.NewSession(wallet.Deps{
		Store:   store,
		Gateway: gateway.NewHTTPClient(n.APIURL, a.cfg.RequestTimeout, a.logger.Named("gateway")),
		Crypto:  signer.Ed25519{},
		Network: n,
		Logger:  a.logger.Named("wallet"),
	})
	if err := session.Load(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	a.store, a.network, a.session = store, n, session
	a.logger.Debug("session ready",
		zap.String("network", n.ID),
		zap.String("backend", a.cfg.Storage.Backend),
	)
	return session, nil
}

func (a *app) close() error {
	var err error
	if a.store != nil {
		err = a.store.Close()
		a.store, a.session = nil, nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return err
}

// activeAddress returns args[0] when given, otherwise the active account.
func (a *app) activeAddress(ctx context.Context, args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	s, err := a.openSession(ctx)
	if err != nil {
		return "", err
	}
	addr, ok := s.Active()
	if !ok {
		return "", errors.New("no active account: create, import or select one with 'erdwallet wallet use'")
	}
	return addr, nil
}

func joinIDs() string {
	return strings.Join(network.IDs(), ", ")
}
