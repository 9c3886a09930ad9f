// Command ocpd runs the pipeline actor and proof worker described in spec
// §4.9/§4.11 against an on-disk state store and event log. Consensus,
// gossip, and the seeder/aggregator wire protocols are out of scope (spec
// §1): this binary wires the in-scope core to the simplest collaborators
// that satisfy pipeline.SeedSource/pipeline.Aggregator, the same way
// apps/cosmos/cmd/ocpd wires a cobra root command around depinject-built
// dependencies.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"cosmossdk.io/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ocpengine/internal/config"
	"ocpengine/internal/domain"
	"ocpengine/internal/mempool"
	"ocpengine/internal/pipeline"
	"ocpengine/internal/seedlock"
	"ocpengine/internal/store"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd builds ocpd's cobra root command, binding spf13/viper to the
// flags spec §6 enumerates.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	config.Bind(v)

	var home string
	cmd := &cobra.Command{
		Use:   "ocpd",
		Short: "ocpengine pipeline actor node",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath := filepath.Join(home, "config.toml")
			v.SetConfigFile(cfgPath)
			if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("read config: %w", err)
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), home, cfg)
		},
	}
	cmd.Flags().StringVar(&home, "home", filepath.Join(os.Getenv("HOME"), ".ocpd"), "node home directory")
	return cmd
}

func run(ctx context.Context, home string, cfg config.Config) error {
	logger := log.NewLogger(os.Stdout)

	stateDir := filepath.Join(home, cfg.PartitionPrefix+"-state")
	eventsDir := filepath.Join(home, cfg.PartitionPrefix+"-events")

	st, err := store.Open(stateDir)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer st.Close()

	ev, err := store.OpenEventLog(eventsDir)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer ev.Close()

	committedHeight := uint64(0)
	if meta, ok, err := st.GetMetadata(); err != nil {
		return fmt.Errorf("read commit metadata: %w", err)
	} else if ok {
		committedHeight = uint64(meta.Height)
	}

	mp := mempool.New(cfg.MempoolMaxTransactions, cfg.MempoolMaxBacklog)
	marshal := pipeline.NewMemMarshal()
	ancestry, err := pipeline.NewAncestryCache(cfg.AncestryCacheEntries)
	if err != nil {
		return fmt.Errorf("build ancestry cache: %w", err)
	}
	metrics := pipeline.NewMetrics(prometheus.DefaultRegisterer)

	masterPublic, err := cfg.MasterPublicKey()
	if err != nil {
		return err
	}
	if _, err := cfg.AdminPublicKey(); err != nil {
		return err
	}

	actorCfg := pipeline.Config{
		Namespace:             cfg.SeedNamespace,
		MasterPublic:          masterPublic,
		MaxBlockTransactions:  domain.MaxBlockTransactions,
		ExecutionConcurrency:  cfg.ExecutionConcurrency,
		AncestryCacheEntries:  cfg.AncestryCacheEntries,
		MailboxSize:           cfg.MailboxSize,
		ProofQueueSize:        cfg.ProofQueueSize,
		GenesisDigest:         genesisDigest(cfg),
		CommittedHeightAtOpen: committedHeight,
	}

	aggregator := loggingAggregator{log: logger.With("module", "aggregator")}
	seedSource := unavailableSeedSource{}

	actor := pipeline.NewActor(actorCfg, logger, st, ev, mp, marshal, ancestry, seedSource, aggregator, metrics)
	worker := pipeline.NewProofWorker(logger, st, ev, actor.ProofJobs(), aggregator, metrics, actor.FatalChan(), cfg.PruneInterval)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go worker.Run(ctx)
	logger.Info("ocpd pipeline actor starting", "home", home, "committed_height", committedHeight)
	return actor.Run(ctx)
}

func genesisDigest(cfg config.Config) [32]byte {
	var d [32]byte
	copy(d[:], cfg.PartitionPrefix)
	return d
}

// loggingAggregator logs proof results; a real deployment forwards them to
// the aggregator component named in spec §6.
type loggingAggregator struct {
	log log.Logger
}

func (a loggingAggregator) SubmitProof(r pipeline.ProofResult) {
	a.log.Info("proof generated", "height", r.Block.Height)
}

// unavailableSeedSource is a placeholder for the seeder component (spec
// §1: out of scope, referenced only by interface). A real node supplies a
// SeedSource backed by the threshold-signing seeder.
type unavailableSeedSource struct{}

func (unavailableSeedSource) FetchSeed(ctx context.Context, view uint64) (seedlock.Seed, bool, error) {
	return seedlock.Seed{}, false, fmt.Errorf("seeder not configured for view %d", view)
}
