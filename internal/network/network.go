package network

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

const (
	Mainnet = "mainnet"
	Testnet = "testnet"
	Devnet  = "devnet"

	// Default is used when no network is configured.
	Default = Testnet

	Decimals        = 18
	DefaultGasPrice = 1_000_000_000
	DefaultGasLimit = 50_000
	TxVersion       = 1
)

// Network describes one chain deployment and the gateway that fronts it.
type Network struct {
	ID          string `mapstructure:"id" yaml:"id"`
	Name        string `mapstructure:"name" yaml:"name"`
	ChainID     string `mapstructure:"chain_id" yaml:"chain_id"`
	APIURL      string `mapstructure:"api_url" yaml:"api_url"`
	ExplorerURL string `mapstructure:"explorer_url" yaml:"explorer_url"`
	Ticker      string `mapstructure:"ticker" yaml:"ticker"`
	Decimals    int    `mapstructure:"decimals" yaml:"decimals"`
	GasPrice    uint64 `mapstructure:"gas_price" yaml:"gas_price"`
	GasLimit    uint64 `mapstructure:"gas_limit" yaml:"gas_limit"`
	Version     uint32 `mapstructure:"version" yaml:"version"`
	IsTestnet   bool   `mapstructure:"is_testnet" yaml:"is_testnet"`
}

// DefaultNetworks returns the built-in network profiles.
func DefaultNetworks() map[string]*Network {
	return map[string]*Network{
		Mainnet: {
			ID:          Mainnet,
			Name:        "MultiversX Mainnet",
			ChainID:     "1",
			APIURL:      "https://api.multiversx.com",
			ExplorerURL: "https://explorer.multiversx.com",
			Ticker:      "EGLD",
			Decimals:    Decimals,
			GasPrice:    DefaultGasPrice,
			GasLimit:    DefaultGasLimit,
			Version:     TxVersion,
		},
		Testnet: {
			ID:          Testnet,
			Name:        "MultiversX Testnet",
			ChainID:     "T",
			APIURL:      "https://testnet-api.multiversx.com",
			ExplorerURL: "https://testnet-explorer.multiversx.com",
			Ticker:      "xEGLD",
			Decimals:    Decimals,
			GasPrice:    DefaultGasPrice,
			GasLimit:    DefaultGasLimit,
			Version:     TxVersion,
			IsTestnet:   true,
		},
		Devnet: {
			ID:          Devnet,
			Name:        "MultiversX Devnet",
			ChainID:     "D",
			APIURL:      "https://devnet-api.multiversx.com",
			ExplorerURL: "https://devnet-explorer.multiversx.com",
			Ticker:      "xEGLD",
			Decimals:    Decimals,
			GasPrice:    DefaultGasPrice,
			GasLimit:    DefaultGasLimit,
			Version:     TxVersion,
			IsTestnet:   true,
		},
	}
}

// Lookup returns a copy of the named built-in profile.
func Lookup(id string) (*Network, error) {
	n, ok := DefaultNetworks()[strings.ToLower(id)]
	if !ok {
		return nil, fmt.Errorf("unknown network: %s (known: %s)", id, strings.Join(IDs(), ", "))
	}
	return n, nil
}

// IDs lists the built-in network IDs in a stable order.
func IDs() []string {
	ids := make([]string, 0, 3)
	for id := range DefaultNetworks() {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Validate checks that a (possibly user supplied) profile is usable.
func (n *Network) Validate() error {
	if n.ChainID == "" {
		return fmt.Errorf("network %s: chain id is required", n.ID)
	}
	u, err := url.Parse(n.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("network %s: invalid api url %q", n.ID, n.APIURL)
	}
	if n.Decimals < 0 || n.Decimals > 36 {
		return fmt.Errorf("network %s: decimals out of range", n.ID)
	}
	if n.GasLimit == 0 || n.GasPrice == 0 {
		return fmt.Errorf("network %s: gas price and limit must be positive", n.ID)
	}
	return nil
}

// ExplorerAccountURL links to an account page on the network explorer.
func (n *Network) ExplorerAccountURL(address string) string {
	return strings.TrimRight(n.ExplorerURL, "/") + "/accounts/" + address
}

// ExplorerTxURL links to a transaction page on the network explorer.
func (n *Network) ExplorerTxURL(hash string) string {
	return strings.TrimRight(n.ExplorerURL, "/") + "/transactions/" + hash
}
