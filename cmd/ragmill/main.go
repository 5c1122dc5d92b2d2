// Copyright 2026 Chalkpath Labs
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
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/chalkpath/ragmill"
	"github.com/chalkpath/ragmill/config"
	"github.com/chalkpath/ragmill/ingestion"
	"github.com/chalkpath/ragmill/search"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "ragmill",
		Usage: "Incremental RAG ingestion and retrieval over local documents and web pages",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Aliases: []string{"d"},
				Usage:   "Knowledge base directory (overrides config)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest files and URLs into the knowledge base",
				ArgsUsage: "[source ...]",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "sources-file",
						Aliases: []string{"f"},
						Usage:   "File listing one source per line (# starts a comment)",
					},
					&cli.BoolFlag{
						Name:  "transform",
						Usage: "Enrich chunks with LLM refinement and metadata extraction",
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Target chunk size in characters",
					},
					&cli.IntFlag{
						Name:  "chunk-overlap",
						Usage: "Overlap between adjacent chunks",
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Number of sources processed in parallel",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of texts per embedding call",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for enrichment calls",
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
					},
					&cli.IntFlag{
						Name:  "hash-limit",
						Usage: "Maximum stored content hashes consulted for dedup",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Find chunks similar to a query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "max-hits",
						Aliases: []string{"k"},
						Usage:   "Maximum number of results",
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Answer a question from the knowledge base (interactive without arguments)",
				ArgsUsage: "[question]",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "max-hits",
						Aliases: []string{"k"},
						Usage:   "Number of chunks used as context",
					},
					&cli.BoolFlag{
						Name:  "sources",
						Usage: "Print the chunks the answer was grounded on",
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
	var cfg *config.AppConfig
	var err error
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, _, err = config.LoadDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dir := c.String("data-dir"); dir != "" {
		cfg.DataDir = dir
	}
	return cfg, nil
}

func openKnowledgeBase(cfg *config.AppConfig) (*ragmill.KnowledgeBase, error) {
	kb, err := ragmill.Open(cfg.DataDir, ragmill.WithAIConfig(cfg.AIConfig()))
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge base at %s: %w", cfg.DataDir, err)
	}
	return kb, nil
}

func ingestCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	// CLI flags override the config file.
	if c.IsSet("transform") {
		cfg.Ingestion.Transform = c.Bool("transform")
	}
	if c.IsSet("chunk-size") {
		cfg.Ingestion.ChunkSize = c.Int("chunk-size")
	}
	if c.IsSet("chunk-overlap") {
		overlap := c.Int("chunk-overlap")
		cfg.Ingestion.ChunkOverlap = &overlap
	}
	if c.IsSet("concurrency") {
		cfg.Ingestion.Concurrency = c.Int("concurrency")
	}
	if c.IsSet("batch-size") {
		cfg.Ingestion.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("max-retries") {
		cfg.Ingestion.MaxRetries = c.Int("max-retries")
	}
	if c.IsSet("retry-delay") {
		cfg.Ingestion.RetryDelaySecs = int(c.Duration("retry-delay").Seconds())
	}
	if c.IsSet("hash-limit") {
		cfg.Ingestion.HashLimit = c.Int("hash-limit")
	}

	sources := c.Args().Slice()
	if path := c.String("sources-file"); path != "" {
		fromFile, err := readSourcesFile(path)
		if err != nil {
			return err
		}
		sources = append(sources, fromFile...)
	}
	if len(sources) == 0 {
		return fmt.Errorf("no sources given: pass them as arguments or via --sources-file")
	}

	kb, err := openKnowledgeBase(cfg)
	if err != nil {
		return err
	}
	defer kb.Close()

	opts := append(cfg.PipelineOptions(),
		ingestion.WithMonitor(newProgressMonitor(os.Stderr)))
	pipeline, err := kb.NewIngestionPipeline(opts...)
	if err != nil {
		return err
	}

	pipeline.ProcessSources(context.Background(), sources)
	return nil
}

// readSourcesFile parses a sources list: one file path or URL per line,
// blank lines and #-comments ignored.
func readSourcesFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sources file: %w", err)
	}
	defer f.Close()

	var sources []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sources = append(sources, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}
	return sources, nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: ragmill search <query>")
	}
	query := strings.Join(c.Args().Slice(), " ")

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	maxHits := cfg.Search.MaxHits
	if c.IsSet("max-hits") {
		maxHits = c.Int("max-hits")
	}

	kb, err := openKnowledgeBase(cfg)
	if err != nil {
		return err
	}
	defer kb.Close()

	searcher, err := kb.NewSearcher()
	if err != nil {
		return err
	}

	results, err := searcher.FindSimilar(context.Background(), query, maxHits)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("no results")
		return nil
	}

	for i, r := range results {
		fmt.Printf("%d. [%.3f] %s\n", i+1, r.Score, r.Chunk.SourcePath())
		fmt.Printf("   %s\n", firstLine(r.Chunk.Content))
	}
	return nil
}

func askCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	maxHits := cfg.Search.MaxHits
	if c.IsSet("max-hits") {
		maxHits = c.Int("max-hits")
	}

	kb, err := openKnowledgeBase(cfg)
	if err != nil {
		return err
	}
	defer kb.Close()

	searcher, err := kb.NewSearcher()
	if err != nil {
		return err
	}

	if c.NArg() > 0 {
		question := strings.Join(c.Args().Slice(), " ")
		return answerOne(searcher, question, maxHits, c.Bool("sources"))
	}

	// No question given: interactive loop until EOF or "exit".
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("question> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			return nil
		}
		if err := answerOne(searcher, question, maxHits, c.Bool("sources")); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
	}
}

func answerOne(searcher *search.Searcher, question string, maxHits int, showSources bool) error {
	answer, results, err := searcher.Answer(context.Background(), question, maxHits)
	if err != nil {
		return err
	}

	fmt.Println(answer)
	if showSources {
		fmt.Println()
		for i, r := range results {
			fmt.Printf("[%d] %s (%.3f)\n", i+1, r.Chunk.SourcePath(), r.Score)
		}
	}
	return nil
}

// firstLine truncates chunk content to a single preview line.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if runes := []rune(s); len(runes) > 120 {
		s = string(runes[:120]) + "…"
	}
	return s
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
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

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
