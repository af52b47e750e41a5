package params

import (
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

// EIP-712 domain constants. The signature binds orders to this exact
// domain, so changing any of these invalidates every stored order.
const (
	DomainName    = "MonadDelegatedTransfers"
	DomainVersion = "1"
)

// Monad testnet chain parameters.
const (
	MonadTestnetChainID = 10143
	MonadTestnetRPCURL  = "https://rpc.ankr.com/monad_testnet"
	NativeSymbol        = "MON"
	NativeDecimals      = 18
)

// Deployed contract addresses on Monad testnet.
var (
	EntryPoint        = common.HexToAddress("0x0000000071727De22E5E9d8BAf0edAc6f37da032")
	DelegationManager = common.HexToAddress("0xFA90aEBb2fF807110bCC87Df7409d8620b31Db4D")
	TimestampEnforcer = common.HexToAddress("0xeDb50A2eBAE418A4e7Cc44f5d5b233CB2eb318bF")
	AmountEnforcer    = common.HexToAddress("0x94Cc25F0d8C20EB22820a1a8b5EDEb104c6DB5Ff")
)

type Chain struct {
	ChainID           int64
	RPCURL            string
	DelegationManager common.Address
	// DefaultDelegate is the smart account funds move from when no
	// delegate is designated explicitly. The EntryPoint stands in as
	// the delegate on testnet.
	DefaultDelegate common.Address
}

type Engine struct {
	// TickInterval paces the readiness re-evaluation of stored orders.
	// The readiness pass is O(n) per tick; 1s matches order activation
	// granularity (whole seconds).
	TickInterval time.Duration
	DataDir      string
	APIAddr      string
}

type Config struct {
	Chain  Chain
	Engine Engine
}

func Default() Config {
	return Config{
		Chain: Chain{
			ChainID:           MonadTestnetChainID,
			RPCURL:            MonadTestnetRPCURL,
			DelegationManager: DelegationManager,
			DefaultDelegate:   EntryPoint,
		},
		Engine: Engine{
			TickInterval: 1 * time.Second,
			DataDir:      "data",
			APIAddr:      ":8080",
		},
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	// Try to load .env file (optional - won't fail if not exists)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load() // loads .env from current directory
	}

	if rpc := os.Getenv("RPC_URL"); rpc != "" {
		cfg.Chain.RPCURL = rpc
	}
	if id := os.Getenv("CHAIN_ID"); id != "" {
		if v, err := strconv.ParseInt(id, 10, 64); err == nil {
			cfg.Chain.ChainID = v
		}
	}
	if addr := os.Getenv("DELEGATION_MANAGER"); common.IsHexAddress(addr) {
		cfg.Chain.DelegationManager = common.HexToAddress(addr)
	}
	if addr := os.Getenv("DELEGATE_ACCOUNT"); common.IsHexAddress(addr) {
		cfg.Chain.DefaultDelegate = common.HexToAddress(addr)
	}

	if tick := os.Getenv("TICK_INTERVAL_MS"); tick != "" {
		if ms, err := strconv.Atoi(tick); err == nil && ms > 0 {
			cfg.Engine.TickInterval = time.Duration(ms) * time.Millisecond
		}
	}
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		cfg.Engine.DataDir = dir
	}
	if addr := os.Getenv("API_ADDR"); addr != "" {
		cfg.Engine.APIAddr = addr
	}

	return cfg
}
