package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pohchain/blockstore"
	"pohchain/chain"
	"pohchain/config"
	"pohchain/events"
	"pohchain/interfaces"
	"pohchain/jsonrpc"
	"pohchain/ledger"
	"pohchain/logx"
	"pohchain/mempool"
	"pohchain/network"
	"pohchain/pgstore"
	"pohchain/pipeline"
	"pohchain/poh"
	"pohchain/wallet"
)

const (
	defaultNodeConfig = "config/node.yml"
	defaultTuningPath = "config/tuning.ini"
	defaultStoreDir   = "data/blocks"
)

var (
	nodeConfigPath string
	tuningPath     string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the ledger node",
	Run: func(cmd *cobra.Command, args []string) {
		runNode()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&nodeConfigPath, "config", "c", defaultNodeConfig, "Path to the node YAML config")
	runCmd.Flags().StringVarP(&tuningPath, "tuning", "t", defaultTuningPath, "Path to the tuning INI file")
}

func runNode() {
	cfg := loadNodeConfig()

	persister := openPersister(cfg)
	if persister != nil {
		defer persister.Close()
	}

	mempoolCfg := loadMempoolConfig()
	pipelineCfg := loadPipelineConfig()

	bus := events.NewEventBus()
	mp := mempool.NewMempool(mempoolCfg.MaxTxs, wallet.NewEd25519Verifier(), bus)
	clock, ch := restoreTip(persister)
	applyTickRate(clock)

	ld := ledger.NewLedger(mp, clock, ch, bus, network.NewLogBroadcaster(), persister)

	pipe := pipeline.NewPipeline(pipelineCfg.Capacity, ld)
	pipe.Start()
	defer pipe.Stop()

	server := jsonrpc.NewServer(cfg.RPCAddr, pipe, ld)
	if cors, okCors := jsonrpc.CORSFromEnv(); okCors {
		server.SetCORSConfig(cors)
	}
	server.Start()

	logx.Info("NODE", "Ledger node started | rpc_addr=", cfg.RPCAddr)

	// Block forever
	select {}
}

func loadNodeConfig() *config.NodeConfig {
	cfg, err := config.LoadNodeConfig(nodeConfigPath)
	if err != nil {
		logx.Warn("NODE", "Falling back to defaults, config load failed: ", err)
		return &config.NodeConfig{
			RPCAddr: ":8545",
			Store:   *blockstore.NewLevelDBConfig(defaultStoreDir),
		}
	}
	return cfg
}

func loadMempoolConfig() *config.MempoolConfig {
	cfg, err := config.LoadMempoolConfig(tuningPath)
	if err != nil {
		return &config.MempoolConfig{MaxTxs: config.DefaultMempoolMaxTxs}
	}
	return cfg
}

func loadPipelineConfig() *config.PipelineConfig {
	cfg, err := config.LoadPipelineConfig(tuningPath)
	if err != nil {
		return &config.PipelineConfig{Capacity: config.DefaultPipelineCapacity}
	}
	return cfg
}

// restoreTip resumes the clock and chain from the persisted tip when one
// exists, so counts keep increasing across restarts. Otherwise both start
// from genesis.
func restoreTip(persister interfaces.BlockPersister) (*poh.Clock, *chain.Chain) {
	if persister != nil {
		tip, err := persister.LatestBlock()
		if err != nil {
			logx.Warn("NODE", "Tip restore failed, starting from genesis: ", err)
		} else if tip != nil {
			logx.Info("NODE", fmt.Sprintf("Resuming from persisted tip | hash=%s poh_count=%d", tip.Hash, tip.PohCount))
			return poh.NewClockAt(tip.PohHash, tip.PohCount), chain.NewChainFrom(tip)
		}
	}
	return poh.NewClock(), chain.NewChain()
}

func applyTickRate(clock *poh.Clock) {
	if pohCfg, err := config.LoadPohConfig(tuningPath); err == nil && pohCfg.TickRate > 0 {
		clock.SetTickRate(pohCfg.TickRate)
	}
}

// openPersister picks Postgres when a DSN is configured, otherwise the
// key-value backend from the store config.
func openPersister(cfg *config.NodeConfig) interfaces.BlockPersister {
	if cfg.PostgresDSN != "" {
		store, err := pgstore.Open(cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("Failed to open postgres store: %v", err)
		}
		return store
	}

	storeCfg := cfg.Store
	if storeCfg.Directory == "" {
		storeCfg = *blockstore.NewLevelDBConfig(defaultStoreDir)
	}

	currentDir, err := os.Getwd()
	if err != nil {
		log.Fatalf("Failed to get current directory: %v", err)
	}
	absDir := filepath.Join(currentDir, storeCfg.Directory)
	if err := os.MkdirAll(absDir, 0755); err != nil {
		log.Printf("Warning: Failed to create directory %s: %v", absDir, err)
	}
	storeCfg.Directory = absDir

	store, err := blockstore.CreateStore(&storeCfg)
	if err != nil {
		log.Fatalf("Failed to initialize block store: %v", err)
	}
	return store
}
