// Command indexer runs the C5 indexing loop for a single chain, wiring
// together configuration, the RPC fetch/retry/failover layer (C2), a
// storage backend (C4), and the Prometheus metrics server (spec §6).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/lgingerich/evm-indexer/internal/config"
	"github.com/lgingerich/evm-indexer/internal/indexer"
	"github.com/lgingerich/evm-indexer/internal/logx"
	"github.com/lgingerich/evm-indexer/internal/metrics"
	"github.com/lgingerich/evm-indexer/internal/retry"
	"github.com/lgingerich/evm-indexer/internal/rpcclient"
	"github.com/lgingerich/evm-indexer/internal/storage"
	"github.com/lgingerich/evm-indexer/internal/storage/columnar"
	"github.com/lgingerich/evm-indexer/internal/storage/sqlitestore"
	"github.com/lgingerich/evm-indexer/internal/storage/warehouse"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the indexer's YAML configuration file")
	dev := flag.Bool("dev", false, "use human-readable (non-JSON) logging")
	flag.Parse()

	if err := run(*configPath, *dev); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string, dev bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("indexer: %w", err)
	}

	logger, err := logx.New(dev)
	if err != nil {
		return fmt.Errorf("indexer: build logger: %w", err)
	}
	defer logger.Sync()
	logger = logx.WithChain(logger, cfg.Chain.Name)

	reg := metrics.New()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	metricsServer := metrics.NewServer(cfg.Metrics.Addr, reg)
	go func() {
		if err := metricsServer.Start(ctx); err != nil {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	mgr, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("indexer: %w", err)
	}
	defer mgr.Close()

	client, err := rpcclient.Dial(ctx, cfg.Chain.Name, cfg.Chain.RPCURLs, retry.DefaultOptions(), logger, reg)
	if err != nil {
		return fmt.Errorf("indexer: dial rpc: %w", err)
	}

	driver, err := indexer.New(client, mgr, indexer.Config{
		ChainType:    cfg.ChainType(),
		ChainName:    cfg.Chain.Name,
		Datasets:     cfg.ActiveDatasets,
		BatchSize:    cfg.Indexer.BatchSize,
		TipBuffer:    cfg.Indexer.TipBuffer,
		TipHardLimit: cfg.Indexer.TipHardLimit,
	}, logger, reg)
	if err != nil {
		return fmt.Errorf("indexer: %w", err)
	}

	logger.Info("starting indexer",
		zap.String("chain", cfg.Chain.Name),
		zap.String("storage", cfg.Storage.Type),
		zap.Int("batch_size", cfg.Indexer.BatchSize))

	if err := driver.Run(ctx); err != nil {
		return fmt.Errorf("indexer: %w", err)
	}
	return nil
}

// openStorage dispatches to the configured storage.Manager backend. The
// set of backends is closed (spec §4.4 names exactly three), so an
// unrecognized type is a configuration error, not a runtime one.
func openStorage(ctx context.Context, cfg config.StorageConfig) (storage.Manager, error) {
	switch cfg.Type {
	case "sqlite":
		path := cfg.Options["path"]
		if path == "" {
			return nil, fmt.Errorf("storage.options.path is required for type=sqlite")
		}
		return sqlitestore.Open(path)
	case "columnar":
		dataDir := cfg.Options["data_dir"]
		chainName := cfg.Options["chain_name"]
		if dataDir == "" || chainName == "" {
			return nil, fmt.Errorf("storage.options.data_dir and chain_name are required for type=columnar")
		}
		return columnar.Open(dataDir, chainName)
	case "warehouse":
		dsn := cfg.Options["dsn"]
		if dsn == "" {
			return nil, fmt.Errorf("storage.options.dsn is required for type=warehouse")
		}
		return warehouse.Open(ctx, dsn)
	default:
		return nil, fmt.Errorf("unrecognized storage.type %q", cfg.Type)
	}
}
