package main

import (
	"context"
	"log"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/minwoo-j/delegator/params"
	"github.com/minwoo-j/delegator/pkg/api"
	"github.com/minwoo-j/delegator/pkg/chain"
	"github.com/minwoo-j/delegator/pkg/crypto"
	"github.com/minwoo-j/delegator/pkg/engine"
	"github.com/minwoo-j/delegator/pkg/storage"
	"github.com/minwoo-j/delegator/pkg/util"
)

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("") // "" means load from .env in current directory

	// Setup logging (write to both console and file)
	// Default lives outside the store directory: Pebble owns DataDir
	// and foreign files do not belong in it.
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "logs/orderd.log"
	}

	logger, err := util.NewLoggerWithFile(logFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", logFile)

	// ---- Owner key ----
	// PRIVATE_KEY identifies the wallet that signs delegations. Without
	// one a throwaway dev key is generated; orders signed with it are
	// unreachable after restart even though the store keeps them.
	var signer *crypto.Signer
	if hexKey := os.Getenv("PRIVATE_KEY"); hexKey != "" {
		signer, err = crypto.FromPrivateKeyHex(hexKey)
		if err != nil {
			sugar.Fatalw("private_key_invalid", "err", err)
		}
	} else {
		signer, err = crypto.GenerateKey()
		if err != nil {
			sugar.Fatalw("keygen_failed", "err", err)
		}
		sugar.Warnw("dev_key_generated", "address", signer.Address().Hex())
	}

	// ---- Storage ----
	store, err := storage.NewPebbleStore(cfg.Engine.DataDir, sugar)
	if err != nil {
		sugar.Fatalw("store_open_failed", "dir", cfg.Engine.DataDir, "err", err)
	}
	defer store.Close()

	// ---- Chain ----
	client, err := ethclient.Dial(cfg.Chain.RPCURL)
	if err != nil {
		sugar.Fatalw("rpc_dial_failed", "url", cfg.Chain.RPCURL, "err", err)
	}
	defer client.Close()

	submitter, err := chain.NewTxSubmitter(client, signer, cfg.Chain.DelegationManager, cfg.Chain.ChainID, sugar)
	if err != nil {
		sugar.Fatalw("submitter_init_failed", "err", err)
	}

	// ---- Engine ----
	domain := crypto.EIP712Domain{
		Name:              params.DomainName,
		Version:           params.DomainVersion,
		ChainID:           big.NewInt(cfg.Chain.ChainID),
		VerifyingContract: cfg.Chain.DelegationManager,
	}

	eng := engine.New(store, submitter, util.RealClock{}, sugar)
	if err := eng.Connect(engine.NewLocalSigner(signer, domain), signer.Address()); err != nil {
		sugar.Fatalw("connect_failed", "owner", signer.Address().Hex(), "err", err)
	}
	eng.UseDelegate(cfg.Chain.DefaultDelegate)

	sugar.Infow("engine_connected",
		"owner", signer.Address().Hex(),
		"delegate", cfg.Chain.DefaultDelegate.Hex(),
		"chain_id", cfg.Chain.ChainID,
		"manager", cfg.Chain.DelegationManager.Hex())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- API Server ----
	apiServer := api.NewServer(eng, sugar)
	eng.SetOnChange(apiServer.BroadcastOrder)

	go func() {
		sugar.Infow("api_server_starting", "addr", cfg.Engine.APIAddr)
		if err := apiServer.Start(cfg.Engine.APIAddr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	// ---- Readiness ticker ----
	stopTicker := eng.StartTicker(ctx, cfg.Engine.TickInterval)
	defer stopTicker()

	sugar.Infow("orderd_running", "tick_interval_ms", cfg.Engine.TickInterval.Milliseconds())

	<-ctx.Done()
	sugar.Info("shutting down")
}
