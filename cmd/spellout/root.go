package main

import (
	"fmt"
	"os"

	"github.com/aretw0/spellout/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "spellout",
	Short: "Spellout is a step-by-step syntactic derivation engine",
	Long: `Spellout builds a syntactic tree by repeated external merge and movement,
checking after every round that the tree can be spelled out by the lexicon.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("store", cli.StoreFile, "Session store: file, memory, redis or badger")
	flags.String("store-dir", ".spellout", "Directory of the file and badger stores")
	flags.String("redis-addr", "localhost:6379", "Redis address (with --store redis)")
	flags.String("redis-password", "", "Redis password")
	flags.Int("redis-db", 0, "Redis database")
	flags.String("log-level", "", "Log level on stderr: debug, info, warn or error (default off)")
	flags.String("series-policy", "intersecting", "Conceptual series policy: intersecting or exact")
	flags.String("encryption-key", os.Getenv("SPELLOUT_ENCRYPTION_KEY"), "Base64 AES-256 key sealing stored snapshots (env SPELLOUT_ENCRYPTION_KEY)")
}

// config reads the persistent flags.
func config(cmd *cobra.Command) cli.Config {
	flags := cmd.Flags()
	var c cli.Config
	c.Store, _ = flags.GetString("store")
	c.StoreDir, _ = flags.GetString("store-dir")
	c.RedisAddr, _ = flags.GetString("redis-addr")
	c.RedisPassword, _ = flags.GetString("redis-password")
	c.RedisDB, _ = flags.GetInt("redis-db")
	c.LogLevel, _ = flags.GetString("log-level")
	c.SeriesPolicy, _ = flags.GetString("series-policy")
	c.EncryptionKey, _ = flags.GetString("encryption-key")
	return c
}
