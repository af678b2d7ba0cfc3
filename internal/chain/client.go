// Package chain looks up wallet balances on Ethereum. Balances reported by
// the user's own wallet client are preferred; JSON-RPC is the last resort,
// with endpoint failover across public providers.
package chain

import (
	"context"
	"errors"
	"math/big"
	"strconv"
	"sync"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/StakePool-Labs/staking_layer/internal/app/storage"
	"github.com/StakePool-Labs/staking_layer/pkg/logger"
)

// USDTAddress is the USDT (Tether) contract on Ethereum mainnet.
const USDTAddress = "0xdAC17F958D2ee523a2206206994597C13D831ec7"

// DefaultEndpoints are public JSON-RPC providers tried in rotation.
var DefaultEndpoints = []string{
	"https://eth.llamarpc.com",
	"https://rpc.ankr.com/eth",
	"https://ethereum.publicnode.com",
	"https://1rpc.io/eth",
	"https://cloudflare-eth.com",
}

// ErrInvalidAddress is returned for strings that are not hex addresses.
var ErrInvalidAddress = errors.New("invalid wallet address")

const (
	reportedFreshFor = 5 * time.Minute
	cacheTTL         = time.Minute
	rpcTimeout       = 5 * time.Second
)

// BalancePair is a wallet's ETH and USDT balance as display strings, tagged
// with where the numbers came from.
type BalancePair struct {
	Address string `json:"address"`
	ETH     string `json:"eth"`
	USDT    string `json:"usdt"`
	Source  string `json:"source"`
}

// Fetcher retrieves balances from one RPC endpoint.
type Fetcher interface {
	Fetch(ctx context.Context, address string) (eth string, usdt string, err error)
}

// Client resolves wallet balances with the precedence: fresh user-reported,
// cached, stale user-reported, then RPC.
type Client struct {
	endpoints []string
	reported  storage.WalletStore
	cache     Cache
	log       *logger.Logger

	mu         sync.Mutex
	idx        int
	newFetcher func(endpoint string) Fetcher
	now        func() time.Time
}

// NewClient builds a balance client. Nil endpoints use the default public
// providers; a nil cache falls back to an in-process map.
func NewClient(endpoints []string, reported storage.WalletStore, cache Cache, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewDefault("chain")
	}
	if len(endpoints) == 0 {
		endpoints = DefaultEndpoints
	}
	if cache == nil {
		cache = NewMemoryCache(cacheTTL)
	}
	return &Client{
		endpoints:  endpoints,
		reported:   reported,
		cache:      cache,
		log:        log,
		newFetcher: newRPCFetcher,
		now:        time.Now,
	}
}

// WithFetcherFactory overrides RPC fetcher construction.
func (c *Client) WithFetcherFactory(f func(endpoint string) Fetcher) {
	if f != nil {
		c.newFetcher = f
	}
}

// ValidAddress reports whether the string is a hex Ethereum address.
func ValidAddress(address string) bool {
	return common.IsHexAddress(address)
}

// WalletBalance resolves one wallet's balances.
func (c *Client) WalletBalance(ctx context.Context, address string) (BalancePair, error) {
	if !ValidAddress(address) {
		return BalancePair{}, ErrInvalidAddress
	}

	var reported BalancePair
	var haveReported bool
	if c.reported != nil {
		bal, ok, err := c.reported.GetReportedBalance(ctx, address)
		if err != nil {
			c.log.WithError(err).Warn("reported balance lookup failed")
		} else if ok {
			haveReported = true
			reported = BalancePair{Address: address, ETH: bal.ETH, USDT: bal.USDT, Source: "user-reported"}
			if c.now().Sub(bal.ReportedAt) < reportedFreshFor {
				return reported, nil
			}
		}
	}

	if cached, ok := c.cache.Get(ctx, address); ok {
		return cached, nil
	}

	if haveReported {
		reported.Source = "user-reported-stale"
		return reported, nil
	}

	result := c.fetchRPC(ctx, address)
	c.cache.Set(ctx, address, result)
	return result, nil
}

// BulkBalances resolves balances for many wallets over RPC. Failed lookups
// yield zero balances rather than errors.
func (c *Client) BulkBalances(ctx context.Context, addresses []string) map[string]BalancePair {
	result := make(map[string]BalancePair, len(addresses))
	for _, address := range addresses {
		if !ValidAddress(address) {
			result[address] = BalancePair{Address: address, ETH: "0.00", USDT: "0.00", Source: "rpc"}
			continue
		}
		result[address] = c.fetchRPC(ctx, address)
	}
	return result
}

func (c *Client) fetchRPC(ctx context.Context, address string) BalancePair {
	fetchCtx, cancel := context.WithTimeout(ctx, rpcTimeout)
	defer cancel()

	eth, usdt, err := c.currentFetcher().Fetch(fetchCtx, address)
	if err != nil {
		c.log.WithError(err).Warnf("balance fetch failed for %s", address)
		c.rotateEndpoint()
		eth, usdt = "0.0000", "0.00"
	}
	return BalancePair{Address: address, ETH: eth, USDT: usdt, Source: "rpc"}
}

func (c *Client) currentFetcher() Fetcher {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.newFetcher(c.endpoints[c.idx])
}

func (c *Client) rotateEndpoint() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.idx = (c.idx + 1) % len(c.endpoints)
	c.log.Infof("switched to RPC endpoint %s", c.endpoints[c.idx])
}

// rpcFetcher talks to one Ethereum JSON-RPC endpoint via ethclient.
type rpcFetcher struct {
	endpoint string
}

func newRPCFetcher(endpoint string) Fetcher {
	return &rpcFetcher{endpoint: endpoint}
}

var (
	balanceOfSelector = []byte{0x70, 0xa0, 0x82, 0x31}
	decimalsSelector  = []byte{0x31, 0x3c, 0xe5, 0x67}
)

func (f *rpcFetcher) Fetch(ctx context.Context, address string) (string, string, error) {
	client, err := ethclient.DialContext(ctx, f.endpoint)
	if err != nil {
		return "", "", err
	}
	defer client.Close()

	addr := common.HexToAddress(address)
	wei, err := client.BalanceAt(ctx, addr, nil)
	if err != nil {
		return "", "", err
	}
	eth := formatUnits(wei, 18, 4)

	// USDT failures are tolerated; the ETH figure is still useful.
	usdt := "0.00"
	if raw, err := f.callUSDT(ctx, client, addr); err == nil {
		usdt = raw
	}
	return eth, usdt, nil
}

func (f *rpcFetcher) callUSDT(ctx context.Context, client *ethclient.Client, addr common.Address) (string, error) {
	contract := common.HexToAddress(USDTAddress)
	data := append(append([]byte(nil), balanceOfSelector...), common.LeftPadBytes(addr.Bytes(), 32)...)
	out, err := client.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return "", err
	}

	decimals := 6
	if raw, err := client.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: decimalsSelector}, nil); err == nil && len(raw) > 0 {
		decimals = int(raw[len(raw)-1])
	}

	return formatUnits(new(big.Int).SetBytes(out), decimals, 2), nil
}

func formatUnits(value *big.Int, decimals, precision int) string {
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	scaled := new(big.Float).Quo(new(big.Float).SetInt(value), scale)
	out, _ := scaled.Float64()
	return strconv.FormatFloat(out, 'f', precision, 64)
}
