// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/transcriptdb"
	"github.com/poiesic/transcriptdb/config"
	"github.com/poiesic/transcriptdb/lock"
	redislock "github.com/poiesic/transcriptdb/lock/redis"
	"github.com/poiesic/transcriptdb/storage"
	"github.com/poiesic/transcriptdb/storage/badger"
	"github.com/poiesic/transcriptdb/storage/pinecone"
)

const configKey = "config"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "transcriptdb",
		Usage: "Ingest interview transcripts into a vector store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
				Value:   "transcriptdb.yaml",
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Load environment variables from these files",
				Value: cli.NewStringSlice(".env"),
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "Vector store (pinecone, badger)",
			},
			&cli.StringFlag{
				Name:  "badger-path",
				Usage: "Path to BadgerDB database directory (badger store)",
			},
			&cli.StringFlag{
				Name:    "namespace",
				Aliases: []string{"n"},
				Usage:   "Vector store namespace",
			},
			&cli.StringFlag{
				Name:  "redis-addr",
				Usage: "Redis address for the cross-process write lock",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Ingest every transcript in a directory",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "dir",
						Aliases: []string{"d"},
						Usage:   "Directory holding transcript documents",
					},
					&cli.StringSliceFlag{
						Name:  "files",
						Usage: "Ingest only these documents instead of the directory",
					},
					&cli.StringFlag{
						Name:  "pattern",
						Usage: "Glob pattern selecting documents",
					},
					&cli.StringFlag{
						Name:  "id-strategy",
						Usage: "Record id strategy (random, source)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Documents processed concurrently",
					},
					&cli.BoolFlag{
						Name:  "no-progress",
						Usage: "Do not report progress on stderr",
					},
				},
			},
			{
				Name:   "watch",
				Usage:  "Ingest a directory, then ingest new transcripts as they appear",
				Action: watchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "dir",
						Aliases: []string{"d"},
						Usage:   "Directory holding transcript documents",
					},
					&cli.DurationFlag{
						Name:  "settle",
						Usage: "Wait this long after the last write before ingesting a file",
						Value: 500 * time.Millisecond,
					},
					&cli.BoolFlag{
						Name:  "skip-existing",
						Usage: "Do not ingest documents already in the directory",
					},
				},
			},
			{
				Name:   "delete-namespace",
				Usage:  "Delete every record in the namespace",
				Action: deleteNamespaceCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Do not ask for confirmation",
					},
				},
			},
			{
				Name:   "update-metadata",
				Usage:  "Set metadata fields on an existing record",
				Action: updateMetadataCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Record id",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:     "set",
						Usage:    "Field assignment as key=value (repeatable)",
						Required: true,
					},
				},
			},
			{
				Name:   "search",
				Usage:  "Find transcript records similar to a query",
				Action: searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Search query",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 5,
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum similarity score",
					},
				},
			},
		},
	}
}

// setup loads configuration and installs the logger. Precedence is defaults,
// then the config file, then the environment, then global flags.
func setup(c *cli.Context) error {
	if err := config.LoadDotEnv(c.StringSlice("env-file")...); err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg.ApplyEnv(os.Getenv)

	if c.IsSet("log-level") || cfg.LogLevel == "" {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("store") {
		cfg.Store.Type = c.String("store")
	}
	if c.IsSet("badger-path") {
		cfg.Store.Badger.Path = c.String("badger-path")
		if !c.IsSet("store") {
			cfg.Store.Type = config.StoreBadger
		}
	}
	if c.IsSet("namespace") {
		cfg.Ingest.Namespace = c.String("namespace")
	}
	if c.IsSet("redis-addr") {
		cfg.Lock.Type = config.LockRedis
		cfg.Lock.RedisAddr = c.String("redis-addr")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := setupLogger(cfg.LogLevel); err != nil {
		return err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func setupLogger(levelStr string) error {
	var level slog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return nil
}

func appConfig(c *cli.Context) (*config.AppConfig, error) {
	cfg, ok := c.App.Metadata[configKey].(*config.AppConfig)
	if !ok {
		return nil, errors.New("configuration not loaded")
	}
	return cfg, nil
}

// session is an open database plus the resources the CLI created for it.
type session struct {
	cfg     *config.AppConfig
	db      *transcriptdb.Database
	closers []func() error
}

func (s *session) Close() {
	if err := s.db.Close(); err != nil {
		slog.Error("error closing database", "err", err)
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			slog.Error("error releasing resource", "err", err)
		}
	}
}

func openSession(ctx context.Context, c *cli.Context) (*session, error) {
	cfg, err := appConfig(c)
	if err != nil {
		return nil, err
	}
	aiConfig, err := cfg.AIServiceConfig(os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	s := &session{cfg: cfg}
	locker, err := openLocker(ctx, cfg, s)
	if err != nil {
		s.release()
		return nil, err
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		s.release()
		return nil, err
	}
	db, err := transcriptdb.NewDatabase(store,
		transcriptdb.WithAIConfig(aiConfig),
		transcriptdb.WithLocker(locker),
	)
	if err != nil {
		store.Close()
		s.release()
		return nil, err
	}
	s.db = db
	return s, nil
}

func (s *session) release() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
}

func openStore(ctx context.Context, cfg *config.AppConfig) (storage.VectorStore, error) {
	switch cfg.Store.Type {
	case config.StoreBadger:
		store, err := badger.OpenStore(cfg.Store.Badger.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return store, nil
	default:
		pcConfig, err := cfg.PineconeStoreConfig(os.Getenv)
		if err != nil {
			return nil, fmt.Errorf("invalid Pinecone configuration: %w", err)
		}
		store, err := pinecone.NewStore(ctx, pcConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Pinecone: %w", err)
		}
		return store, nil
	}
}

func openLocker(ctx context.Context, cfg *config.AppConfig, s *session) (lock.Locker, error) {
	if cfg.Lock.Type != config.LockRedis {
		return lock.NewLocal(), nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Lock.RedisAddr})
	l := redislock.NewLock(client, redislock.WithTTL(time.Duration(cfg.Lock.TTLSecs)*time.Second))
	s.closers = append(s.closers, client.Close, func() error {
		l.Close()
		return nil
	})
	if err := l.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Lock.RedisAddr, err)
	}
	return l, nil
}

func storeLabel(cfg *config.AppConfig) string {
	if cfg.Store.Type == config.StoreBadger {
		return "badger (" + cfg.Store.Badger.Path + ")"
	}
	return "pinecone (index " + cfg.Store.Pinecone.IndexName + ")"
}
