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
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/poiesic/corpus"
	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/embedding"
	"github.com/poiesic/corpus/safety"
	"github.com/poiesic/corpus/vectorstore"
	"github.com/urfave/cli/v2"

	// Register provider and store variants.
	_ "github.com/poiesic/corpus/embedding/mock"
	_ "github.com/poiesic/corpus/embedding/openai"
	_ "github.com/poiesic/corpus/vectorstore/badger"
	_ "github.com/poiesic/corpus/vectorstore/milvus"
)

func main() {
	// Credentials and endpoints can live in a .env file.
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded")
	}

	app := &cli.App{
		Name:  "corpus",
		Usage: "Knowledge base for retrieval-augmented generation",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "provider",
				Usage: fmt.Sprintf("Embedding provider (%s)", strings.Join(embedding.Names(), ", ")),
				Value: "openai",
			},
			&cli.StringFlag{
				Name:    "embedding-host",
				Usage:   "Embedding service host URL",
				Value:   "http://localhost:11434/v1",
				EnvVars: []string{"CORPUS_EMBEDDING_HOST"},
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				Value:   "embeddinggemma",
				EnvVars: []string{"CORPUS_EMBEDDING_MODEL"},
			},
			&cli.IntFlag{
				Name:  "dimension",
				Usage: "Embedding vector dimension",
				Value: 768,
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "Embedding provider API key",
				EnvVars: []string{"OPENAI_API_KEY", "CORPUS_API_KEY"},
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: fmt.Sprintf("Vector store (%s)", strings.Join(vectorstore.Names(), ", ")),
				Value: "badger",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				Value:   "./corpus-db",
			},
			&cli.StringFlag{
				Name:    "milvus-address",
				Usage:   "Milvus server address",
				Value:   "localhost:19530",
				EnvVars: []string{"CORPUS_MILVUS_ADDRESS"},
			},
			&cli.StringFlag{
				Name:  "collection",
				Usage: "Vector store collection name",
				Value: "corpus",
			},
			&cli.StringSliceFlag{
				Name:  "block-term",
				Usage: "Term that blocks a chunk or result (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "flag-term",
				Usage: "Term that flags a chunk or result (repeatable)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Chunk, embed, and store text files",
				ArgsUsage: "FILE...",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "max-tokens",
						Usage: "Maximum tokens per chunk",
						Value: corpus.DefaultMaxTokens,
					},
					&cli.IntFlag{
						Name:  "overlap-tokens",
						Usage: "Tokens shared between adjacent chunks",
						Value: corpus.DefaultOverlapTokens,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Chunks per embedding request (0 = provider maximum)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrently ingested documents (0 = default)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Retrieve the most similar stored chunks",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Maximum number of results",
						Value:   5,
					},
					&cli.StringSliceFlag{
						Name:  "filter",
						Usage: "Payload equality filter as key=value (repeatable)",
					},
				},
			},
			{
				Name:      "delete",
				Usage:     "Remove all stored chunks of a document",
				ArgsUsage: "DOCUMENT_ID",
				Action:    deleteCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
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

// buildKnowledgeBase assembles the provider, store, and gate from CLI
// flags. The returned cleanup closes the store.
func buildKnowledgeBase(c *cli.Context) (*corpus.KnowledgeBase, func(), error) {
	provider, err := embedding.New(c.String("provider"), embedding.NewConfig(
		embedding.WithHost(c.String("embedding-host")),
		embedding.WithAPIKey(c.String("api-key")),
		embedding.WithModel(c.String("embedding-model")),
		embedding.WithDimension(c.Int("dimension")),
	))
	if err != nil {
		return nil, nil, err
	}

	store, err := vectorstore.New(c.Context, c.String("store"), &vectorstore.Config{
		Path:       c.String("db"),
		Address:    c.String("milvus-address"),
		Collection: c.String("collection"),
	})
	if err != nil {
		return nil, nil, err
	}

	var opts []corpus.Option
	if blocked, flagged := c.StringSlice("block-term"), c.StringSlice("flag-term"); len(blocked) > 0 || len(flagged) > 0 {
		opts = append(opts, corpus.WithSafetyGate(safety.NewGate(
			safety.WithBlockedTerms(blocked...),
			safety.WithFlaggedTerms(flagged...),
		)))
	}

	kb, err := corpus.NewKnowledgeBase(c.Context, provider, store, opts...)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	cleanup := func() {
		kb.Close()
		if err := store.Close(); err != nil {
			slog.Error("error closing store", "err", err)
		}
	}
	return kb, cleanup, nil
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}

	documents := make([]core.Document, 0, c.NArg())
	for _, path := range c.Args().Slice() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		documents = append(documents, core.Document{
			ID:     strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Text:   string(data),
			Source: path,
		})
	}

	kb, cleanup, err := buildKnowledgeBase(c)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := kb.Ingest(c.Context, documents, &corpus.IngestConfig{
		MaxTokens:      c.Int("max-tokens"),
		OverlapTokens:  c.Int("overlap-tokens"),
		EmbedBatchSize: c.Int("batch-size"),
		WorkerLimit:    c.Int("workers"),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Documents processed: %d\n", report.DocumentsProcessed)
	fmt.Printf("Chunks embedded:     %d\n", report.ChunksEmbedded)
	fmt.Printf("Chunks blocked:      %d\n", report.ChunksBlocked)
	fmt.Printf("Chunks flagged:      %d\n", report.ChunksFlagged)
	for docID, docErr := range report.Errors {
		fmt.Printf("Error in %s: %v\n", docID, docErr)
	}
	if len(report.Errors) > 0 {
		return fmt.Errorf("%d of %d documents failed", len(report.Errors), len(documents))
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one query argument is required")
	}

	filters, err := parseFilters(c.StringSlice("filter"))
	if err != nil {
		return err
	}

	kb, cleanup, err := buildKnowledgeBase(c)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := kb.Retrieve(c.Context, c.Args().First(), c.Int("top-k"), filters)
	if err != nil {
		return err
	}

	if len(result.Entries) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for i, entry := range result.Entries {
		marker := ""
		if entry.Flagged {
			marker = fmt.Sprintf("  [flagged: %s]", entry.FlagReason)
		}
		fmt.Printf("%2d. score=%.4f document=%s%s\n    %s\n",
			i+1, entry.Score, entry.Payload[core.PayloadDocumentID], marker, entry.Text)
	}
	return nil
}

func deleteCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one document ID argument is required")
	}

	kb, cleanup, err := buildKnowledgeBase(c)
	if err != nil {
		return err
	}
	defer cleanup()

	deleted, err := kb.Delete(c.Context, c.Args().First())
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d records\n", deleted)
	return nil
}

// parseFilters turns key=value strings into equality filters.
func parseFilters(raw []string) ([]vectorstore.Filter, error) {
	filters := make([]vectorstore.Filter, 0, len(raw))
	for _, pair := range raw {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid filter %q: expected key=value", pair)
		}
		filters = append(filters, vectorstore.Eq(key, value))
	}
	return filters, nil
}
