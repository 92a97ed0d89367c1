package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/medhansh29/ia-agent/internal/config"
	"github.com/medhansh29/ia-agent/internal/model"
	"github.com/medhansh29/ia-agent/internal/retrieval"
	"github.com/medhansh29/ia-agent/internal/server"
	"github.com/medhansh29/ia-agent/internal/storage"
	"github.com/medhansh29/ia-agent/internal/textgen"
	"github.com/medhansh29/ia-agent/internal/workflow"
)

var (
	rootCmd = &cobra.Command{
		Use:   "ia-agent",
		Short: "AI-powered impact assessment workflow agent",
	}
	configPath string
	dbPath     string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the local SQLite database (overrides config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(reconcileCmd)
}

// initEngine wires the full workflow stack from configuration: completion
// provider, retrieval corpus, SQLite store, and the step engine.
func initEngine(ctx context.Context, logger *slog.Logger) (*workflow.Engine, *config.Config, *storage.SQLiteStore, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbPath != "" {
		cfg.Storage.DBPath = dbPath
	}
	if cfg.AI.APIKey == "" {
		return nil, nil, nil, fmt.Errorf("AI API key not configured (set IA_API_KEY env or in config.yaml)")
	}

	completer, err := textgen.NewCompleter(ctx, textgen.Options{
		Provider: cfg.AI.Provider,
		APIKey:   cfg.AI.APIKey,
		Model:    cfg.AI.Model,
		BaseURL:  cfg.AI.BaseURL,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create completion client: %w", err)
	}

	store, err := storage.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	retriever, err := initRetriever(ctx, cfg, store, logger)
	if err != nil {
		store.Close()
		return nil, nil, nil, err
	}
	// A typed nil in the interface would dodge the engine's nil check.
	var contextProvider workflow.ContextProvider
	if retriever != nil {
		contextProvider = retriever
	}

	engine := workflow.NewEngine(textgen.NewService(completer), textgen.NewRefiner(completer), contextProvider, store, logger)
	return engine, cfg, store, nil
}

// initRetriever sets up historical-context retrieval. The corpus is embedded
// once; subsequent runs reuse the chunks already stored in SQLite. Without a
// configured corpus the workflow runs with no historical grounding.
func initRetriever(ctx context.Context, cfg *config.Config, store *storage.SQLiteStore, logger *slog.Logger) (*retrieval.Retriever, error) {
	if cfg.Storage.CorpusPath == "" {
		logger.Info("no corpus configured, running without historical context")
		return nil, nil
	}

	embedder, err := retrieval.NewEmbedder(ctx, retrieval.EmbedderOptions{
		Provider:  cfg.AI.Provider,
		APIKey:    cfg.AI.APIKey,
		Model:     cfg.AI.EmbeddingModel,
		Dimension: cfg.AI.Dimension,
		BaseURL:   cfg.AI.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	retriever := retrieval.NewRetriever(embedder, store, cfg.AI.TopK, logger)

	count, err := store.CountChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect chunk store: %w", err)
	}
	if count == 0 {
		docs, err := retrieval.LoadCorpus(cfg.Storage.CorpusPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load corpus: %w", err)
		}
		logger.Info("embedding corpus", "documents", len(docs))
		if err := retriever.Ingest(ctx, docs); err != nil {
			return nil, fmt.Errorf("failed to ingest corpus: %w", err)
		}
	}
	return retriever, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP step server",
	Run: func(cmd *cobra.Command, args []string) {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		engine, cfg, store, err := initEngine(ctx, logger)
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		defer store.Close()

		srv := server.NewServer(server.Config{
			Engine: engine,
			Addr:   cfg.Server.Addr,
			Logger: logger,
		})
		if err := srv.Serve(ctx); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	},
}

// analyzeCmd and reconcileCmd run offline against a saved snapshot file;
// neither touches the LLM provider or the database.
var analyzeCmd = &cobra.Command{
	Use:   "analyze [snapshot.json]",
	Short: "Rebuild the dependency graph for a saved state file and print the result",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		snap := loadSnapshot(args[0])

		engine := workflow.NewEngine(nil, nil, nil, nil, logger)
		snap = engine.AnalyzeDependencies(context.Background(), snap)

		printSnapshot(snap)
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile [snapshot.json]",
	Short: "Dry-run the questionnaire coverage scan over a saved state file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		snap := loadSnapshot(args[0])

		// A nil generator makes the pass scan-only: gaps are reported,
		// remediation is skipped.
		engine := workflow.NewEngine(nil, nil, nil, nil, logger)
		snap = engine.AnalyzeImpact(context.Background(), snap)

		printSnapshot(snap)
		if snap.Error != "" {
			os.Exit(1)
		}
	},
}

func loadSnapshot(path string) model.Snapshot {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read snapshot: %v", err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		log.Fatalf("Failed to parse snapshot: %v", err)
	}
	return snap
}

func printSnapshot(snap model.Snapshot) {
	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode snapshot: %v", err)
	}
	fmt.Println(string(out))
}
