// Copyright 2026 Hearthlight Labs
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
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hearthlight/quiver"
	"github.com/hearthlight/quiver/ai"
	"github.com/hearthlight/quiver/ai/openai"
	"github.com/hearthlight/quiver/chunker"
	"github.com/hearthlight/quiver/config"
	"github.com/hearthlight/quiver/core"
	"github.com/hearthlight/quiver/reembed"
	"github.com/hearthlight/quiver/retrieve"
	"github.com/hearthlight/quiver/search"
	"github.com/hearthlight/quiver/storage/badger"
)

func main() {
	callerFlags := []cli.Flag{
		&cli.StringFlag{
			Name:     "caller-id",
			Usage:    "Identity of the caller",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "caller-label",
			Usage: "Human-readable caller identity (e.g. email)",
		},
		&cli.StringSliceFlag{
			Name:  "caller-group",
			Usage: "Group the caller belongs to (repeatable)",
		},
		&cli.BoolFlag{
			Name:  "admin",
			Usage: "Run as an admin caller (sees every document)",
		},
	}

	app := &cli.App{
		Name:  "quiver",
		Usage: "Multi-tenant hybrid retrieval engine",
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
				Usage:   "Path to YAML configuration file",
				Value:   "quiver.yaml",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest a document and make it searchable",
				Action:    ingestCommand,
				ArgsUsage: "FILE",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "title",
						Usage: "Document title",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Document origin (URL or connector name)",
					},
					&cli.StringSliceFlag{
						Name:  "meta",
						Usage: "Metadata entry as key=value (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "public",
						Usage: "Make the document visible to everyone",
					},
					&cli.StringSliceFlag{
						Name:  "share-with",
						Usage: "Identity to share the document with (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "group",
						Usage: "Group to share the document with (repeatable)",
					},
				}, callerFlags...),
			},
			{
				Name:      "search",
				Usage:     "Run a single search pass",
				Action:    searchCommand,
				ArgsUsage: "QUERY",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "type",
						Usage: "Search strategy (semantic, text, hybrid)",
						Value: "hybrid",
					},
					&cli.IntFlag{
						Name:  "match-count",
						Usage: "Maximum number of results",
						Value: 10,
					},
					&cli.StringSliceFlag{
						Name:  "filter",
						Usage: "Metadata filter as key=value (repeatable)",
					},
				}, callerFlags...),
			},
			{
				Name:      "query",
				Usage:     "Answer a question with corrective retrieval",
				Action:    queryCommand,
				ArgsUsage: "QUESTION",
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:  "match-count",
						Usage: "Maximum results per sub-query",
						Value: 10,
					},
					&cli.StringSliceFlag{
						Name:  "filter",
						Usage: "Metadata filter as key=value (repeatable)",
					},
				}, callerFlags...),
			},
			{
				Name:   "share",
				Usage:  "Update a document's sharing settings",
				Action: shareCommand,
				Flags: append([]cli.Flag{
					&cli.Uint64Flag{
						Name:     "id",
						Usage:    "Document ID",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "public",
						Usage: "Make the document public",
					},
					&cli.BoolFlag{
						Name:  "private",
						Usage: "Make the document private",
					},
					&cli.StringSliceFlag{
						Name:  "share-with",
						Usage: "Identity to share the document with (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "group",
						Usage: "Group to share the document with (repeatable)",
					},
				}, callerFlags...),
			},
			{
				Name:   "delete",
				Usage:  "Delete a document and all its chunks",
				Action: deleteCommand,
				Flags: append([]cli.Flag{
					&cli.Uint64Flag{
						Name:     "id",
						Usage:    "Document ID",
						Required: true,
					},
				}, callerFlags...),
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all chunks with new embeddings",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL (overrides config)",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name (overrides config)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context) (*config.AppConfig, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func openEngine(cfg *config.AppConfig) (*quiver.Engine, error) {
	searchType, err := search.ParseType(cfg.Retrieval.SearchType)
	if err != nil {
		return nil, err
	}

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(cfg.AI.EmbeddingHost),
		ai.WithChatHost(cfg.AI.ChatHost),
		ai.WithEmbeddingModel(cfg.AI.EmbeddingModel),
		ai.WithChatModel(cfg.AI.ChatModel),
		ai.WithMaxEmbedTokens(cfg.AI.MaxEmbedTokens),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	chunkerCfg := chunker.DefaultConfig()
	chunkerCfg.ChunkSize = cfg.Chunker.ChunkSize
	chunkerCfg.ChunkOverlap = cfg.Chunker.Overlap
	chunkerCfg.MaxChunkSize = cfg.Chunker.MaxChunkSize

	return quiver.NewEngine(cfg.DBPath,
		quiver.WithAIConfig(aiConfig),
		quiver.WithChunkerConfig(chunkerCfg),
		quiver.WithContextualization(cfg.Ingest.Contextualize),
		quiver.WithEmbedBatchSize(cfg.Ingest.BatchSize),
		quiver.WithSearchType(searchType),
		quiver.WithMaxConcurrency(cfg.Retrieval.MaxConcurrency),
	)
}

func callerFromFlags(c *cli.Context) core.Caller {
	return core.Caller{
		Id:      c.String("caller-id"),
		Label:   c.String("caller-label"),
		Groups:  c.StringSlice("caller-group"),
		IsAdmin: c.Bool("admin"),
	}
}

func parseKeyValues(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	result := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid key=value pair %q", pair)
		}
		result[key] = value
	}
	return result, nil
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one FILE argument")
	}

	content, err := os.ReadFile(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	metadata, err := parseKeyValues(c.StringSlice("meta"))
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	document, err := engine.Ingest(context.Background(), quiver.IngestRequest{
		Content:    string(content),
		Title:      c.String("title"),
		Source:     c.String("source"),
		Metadata:   metadata,
		IsPublic:   c.Bool("public"),
		SharedWith: c.StringSlice("share-with"),
		GroupIds:   c.StringSlice("group"),
	}, callerFromFlags(c))
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("Ingested document %d (%s)\n", document.Id, document.Title)
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one QUERY argument")
	}
	query := c.Args().First()

	searchType, err := search.ParseType(c.String("type"))
	if err != nil {
		return err
	}

	fieldFilter, err := parseKeyValues(c.StringSlice("filter"))
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	results, err := engine.Search(context.Background(), searchType, query, c.Int("match-count"), fieldFilter, callerFromFlags(c))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for i, result := range results {
		fmt.Printf("%d. [doc %d, score %.3f] %s\n", i+1, result.DocumentId, result.Similarity, result.Content)
	}
	return nil
}

func queryCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one QUESTION argument")
	}
	question := c.Args().First()

	fieldFilter, err := parseKeyValues(c.StringSlice("filter"))
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	result, err := engine.Query(context.Background(), question, c.Int("match-count"), fieldFilter, callerFromFlags(c))
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	fmt.Println(result.Answer)
	if len(result.Citations) > 0 {
		fmt.Println()
		fmt.Println(retrieve.FormatCitations(result.Citations))
	}
	return nil
}

func shareCommand(c *cli.Context) error {
	if c.Bool("public") && c.Bool("private") {
		return fmt.Errorf("cannot set both --public and --private")
	}

	var isPublic *bool
	if c.Bool("public") {
		v := true
		isPublic = &v
	}
	if c.Bool("private") {
		v := false
		isPublic = &v
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	document, err := engine.Share(context.Background(), core.ID(c.Uint64("id")), isPublic,
		c.StringSlice("share-with"), c.StringSlice("group"), callerFromFlags(c))
	if err != nil {
		return fmt.Errorf("share failed: %w", err)
	}

	fmt.Printf("Updated sharing for document %d (public: %v, shared with: %v, groups: %v)\n",
		document.Id, document.Access.IsPublic, document.Access.SharedWith, document.Access.GroupIds)
	return nil
}

func deleteCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	id := core.ID(c.Uint64("id"))
	if err := engine.Delete(context.Background(), id, callerFromFlags(c)); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	fmt.Printf("Deleted document %d\n", id)
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	embeddingHost := c.String("embedding-host")
	if embeddingHost == "" {
		embeddingHost = cfg.AI.EmbeddingHost
	}
	embeddingModel := c.String("embedding-model")
	if embeddingModel == "" {
		embeddingModel = cfg.AI.EmbeddingModel
	}

	backend, err := badger.OpenBackend(cfg.DBPath, false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo := badger.NewChunkRepository(backend)

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(embeddingHost),
		ai.WithEmbeddingModel(embeddingModel),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		ModelName:      embeddingModel,
	}

	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reembedder := reembed.NewReembedder(repo, embedder, reembedConfig, os.Stderr)

	fmt.Fprintf(os.Stderr, "Database: %s\n", cfg.DBPath)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", embeddingHost)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", embeddingModel)
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}

	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
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
