// Package config defines ocpd's runtime configuration: every knob
// enumerated in spec §6, loaded with spf13/viper and bound to a
// spf13/cobra root command, the same pairing apps/cosmos's cmd/ocpd and
// AKJUS-bsc-erigon's cmd use for daemon configuration.
package config

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Config is the full set of configuration fields from spec §6.
type Config struct {
	PartitionPrefix string `mapstructure:"partition_prefix"`

	MMRItemsPerBlob    int `mapstructure:"mmr_items_per_blob"`
	MMRWriteBuffer     int `mapstructure:"mmr_write_buffer"`
	LogItemsPerSection int `mapstructure:"log_items_per_section"`
	LogWriteBuffer     int `mapstructure:"log_write_buffer"`

	ExecutionConcurrency int `mapstructure:"execution_concurrency"`

	MempoolMaxBacklog         int `mapstructure:"mempool_max_backlog"`
	MempoolMaxTransactions    int `mapstructure:"mempool_max_transactions"`
	MempoolStreamBufferSize   int `mapstructure:"mempool_stream_buffer_size"`
	MempoolInclusionSLAMillis int `mapstructure:"mempool_inclusion_sla_ms"`

	NonceCacheCapacity int           `mapstructure:"nonce_cache_capacity"`
	NonceCacheTTL      time.Duration `mapstructure:"nonce_cache_ttl"`

	PruneInterval       time.Duration `mapstructure:"prune_interval"`
	AncestryCacheEntries int          `mapstructure:"ancestry_cache_entries"`
	ProofQueueSize      int           `mapstructure:"proof_queue_size"`
	MailboxSize         int           `mapstructure:"mailbox_size"`

	// SeedNamespace is the domain-separation tag seed signatures are
	// verified under. TxNamespace is loaded but not applied to signing:
	// transactions are always signed and verified under the constant
	// domain.TxNamespace.
	TxNamespace   string `mapstructure:"tx_namespace"`
	SeedNamespace string `mapstructure:"seed_namespace"`

	// AdminPublicKeyHex is decoded exactly once at startup (spec §6
	// "Admin identity"). Use Config.AdminPublicKey, never this field
	// directly, so the decode-once guard is enforced.
	AdminPublicKeyHex string `mapstructure:"admin_public_key_hex"`

	// MasterPublicKeyHex is the consensus threshold scheme's master public
	// key, used to verify per-view seed signatures (spec §4.4).
	MasterPublicKeyHex string `mapstructure:"master_public_key_hex"`

	adminOnce    sync.Once
	adminKey     ed25519.PublicKey
	adminKeyErr  error
	masterOnce   sync.Once
	masterKey    []byte
	masterKeyErr error
}

// Defaults returns a Config populated with the same defaults Bind installs
// into viper; Bind is its only caller.
func Defaults() Config {
	return Config{
		PartitionPrefix: "ocpengine",

		MMRItemsPerBlob:    1 << 16,
		MMRWriteBuffer:     1 << 20,
		LogItemsPerSection: 1 << 16,
		LogWriteBuffer:     1 << 20,

		ExecutionConcurrency: 4,

		MempoolMaxBacklog:         64,
		MempoolMaxTransactions:    50_000,
		MempoolStreamBufferSize:   1024,
		MempoolInclusionSLAMillis: 5_000,

		NonceCacheCapacity: 10_000,
		NonceCacheTTL:      5 * time.Minute,

		PruneInterval:        time.Minute,
		AncestryCacheEntries: 256,
		ProofQueueSize:       64,
		MailboxSize:          256,

		TxNamespace:   "ocpengine/v1/tx",
		SeedNamespace: "ocpengine/v1/seed",
	}
}

// Bind registers every Config field as a viper default and flag-bindable
// key, mirroring apps/cosmos's viper-backed AppOptions.
func Bind(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("partition_prefix", d.PartitionPrefix)
	v.SetDefault("mmr_items_per_blob", d.MMRItemsPerBlob)
	v.SetDefault("mmr_write_buffer", d.MMRWriteBuffer)
	v.SetDefault("log_items_per_section", d.LogItemsPerSection)
	v.SetDefault("log_write_buffer", d.LogWriteBuffer)
	v.SetDefault("execution_concurrency", d.ExecutionConcurrency)
	v.SetDefault("mempool_max_backlog", d.MempoolMaxBacklog)
	v.SetDefault("mempool_max_transactions", d.MempoolMaxTransactions)
	v.SetDefault("mempool_stream_buffer_size", d.MempoolStreamBufferSize)
	v.SetDefault("mempool_inclusion_sla_ms", d.MempoolInclusionSLAMillis)
	v.SetDefault("nonce_cache_capacity", d.NonceCacheCapacity)
	v.SetDefault("nonce_cache_ttl", d.NonceCacheTTL)
	v.SetDefault("prune_interval", d.PruneInterval)
	v.SetDefault("ancestry_cache_entries", d.AncestryCacheEntries)
	v.SetDefault("proof_queue_size", d.ProofQueueSize)
	v.SetDefault("mailbox_size", d.MailboxSize)
	v.SetDefault("tx_namespace", d.TxNamespace)
	v.SetDefault("seed_namespace", d.SeedNamespace)
	v.SetDefault("admin_public_key_hex", "")
	v.SetDefault("master_public_key_hex", "")
}

// Load reads the bound viper instance into a Config.
func Load(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return c, nil
}

// AdminPublicKey decodes AdminPublicKeyHex exactly once. A second call
// returns the cached result (or the cached error) rather than re-parsing,
// matching the teacher's constructor guards (apps/cosmos keepers panic on
// "nil" dependencies supplied twice) — here expressed as a fail-fast decode
// guard instead of a panic, since this runs at startup before any keeper
// exists to panic inside.
func (c *Config) AdminPublicKey() (ed25519.PublicKey, error) {
	c.adminOnce.Do(func() {
		raw, err := hex.DecodeString(c.AdminPublicKeyHex)
		if err != nil {
			c.adminKeyErr = fmt.Errorf("config: admin_public_key_hex: %w", err)
			return
		}
		if len(raw) != ed25519.PublicKeySize {
			c.adminKeyErr = fmt.Errorf("config: admin_public_key_hex: want %d bytes, got %d", ed25519.PublicKeySize, len(raw))
			return
		}
		c.adminKey = ed25519.PublicKey(raw)
	})
	return c.adminKey, c.adminKeyErr
}

// MasterPublicKey decodes MasterPublicKeyHex exactly once, same guard as
// AdminPublicKey.
func (c *Config) MasterPublicKey() ([]byte, error) {
	c.masterOnce.Do(func() {
		raw, err := hex.DecodeString(c.MasterPublicKeyHex)
		if err != nil {
			c.masterKeyErr = fmt.Errorf("config: master_public_key_hex: %w", err)
			return
		}
		c.masterKey = raw
	})
	return c.masterKey, c.masterKeyErr
}
