package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/adapters/redis"
	"github.com/aretw0/arbor/pkg/persistence/middleware"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Arbor is an observable document state engine",
	Long:  `Arbor serves path-addressable state documents with change events and undo/redo over a JSON API.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("redis", "", "Redis address for persistence (empty = in-memory)")
	rootCmd.PersistentFlags().String("redis-password", "", "Redis password")
	rootCmd.PersistentFlags().Int("redis-db", 0, "Redis database number")
	rootCmd.PersistentFlags().Duration("ttl", 0, "Document expiration in the store (0 = never)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("encrypt-key", "", "32-byte key enabling AES-256 encryption at rest")
	rootCmd.PersistentFlags().StringSlice("mask", nil, "Key patterns to redact from persisted documents")
}

// newLogger builds the application logger from the --log-level flag.
func newLogger(cmd *cobra.Command) *slog.Logger {
	levelName, _ := cmd.Flags().GetString("log-level")
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		level = slog.LevelInfo
	}
	return logging.New(level)
}

// newStore builds the document store from the persistence flags, wrapping it
// with the configured middleware layers.
func newStore(cmd *cobra.Command) ports.DocumentStore {
	addr, _ := cmd.Flags().GetString("redis")

	var store ports.DocumentStore
	if addr == "" {
		store = memory.NewStore()
	} else {
		password, _ := cmd.Flags().GetString("redis-password")
		db, _ := cmd.Flags().GetInt("redis-db")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		var opts []redis.Option
		if ttl > time.Duration(0) {
			opts = append(opts, redis.WithTTL(ttl))
		}
		store = redis.New(addr, password, db, opts...)
	}

	if encKey, _ := cmd.Flags().GetString("encrypt-key"); encKey != "" {
		store = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey: []byte(encKey),
		})(store)
	}
	if patterns, _ := cmd.Flags().GetStringSlice("mask"); len(patterns) > 0 {
		store = middleware.NewMaskingMiddleware(patterns)(store)
	}
	return store
}
