// File path: cmd/querypilot/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/querypilot/querypilot/internal/api"
	"github.com/querypilot/querypilot/internal/common"
	"github.com/querypilot/querypilot/internal/database"
	"github.com/querypilot/querypilot/internal/llm"
	"github.com/querypilot/querypilot/internal/rag"
	"github.com/querypilot/querypilot/internal/sqlgen"
	"github.com/querypilot/querypilot/internal/vector"
)

func main() {
	logger := common.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil {
		logger.Warn("querypilot: .env file not loaded", "error", err)
	} else {
		logger.Info("querypilot: environment loaded from .env")
	}

	addr := flag.String("addr", ":8080", "listen address")
	dbPath := flag.String("db", "", "path to the SQLite database (overrides DATABASE_PATH)")
	backendName := flag.String("backend", "", "generation backend: model or rules (default auto)")
	skipIndex := flag.Bool("skip-index", false, "skip schema indexing at startup")
	flag.Parse()

	logger.Info("querypilot: startup initiated", "addr", *addr)

	dbCfg, err := database.LoadConfig()
	if err != nil {
		logger.Error("querypilot: database config load failed", "error", err)
		fmt.Println("database config error:", err)
		os.Exit(1)
	}
	if trimmed := strings.TrimSpace(*dbPath); trimmed != "" {
		dbCfg.Path = trimmed
	}
	connector := database.NewConnector(dbCfg)
	if err := connector.Connect(ctx); err != nil {
		logger.Error("querypilot: database connection failed", "error", err)
		fmt.Println("database error:", err)
		os.Exit(1)
	}
	defer connector.Close()

	vecCfg, err := vector.LoadConfig()
	if err != nil {
		logger.Error("querypilot: vector config load failed", "error", err)
		fmt.Println("vector config error:", err)
		os.Exit(1)
	}
	store, err := vector.New(ctx, vecCfg)
	if err != nil {
		logger.Error("querypilot: vector client init failed", "error", err)
		fmt.Println("vector error:", err)
		os.Exit(1)
	}
	if store.Available() {
		logger.Info("querypilot: chromadb available", "collection", store.Collection())
	} else {
		logger.Warn("querypilot: chromadb unreachable", "collection", store.Collection())
	}

	engine := rag.NewEngine(connector, store)
	if !*skipIndex && store.Available() {
		result := engine.IndexSchema(ctx, false)
		if result.Success {
			logger.Info("querypilot: schema index ready",
				"tables", result.TablesIndexed, "documents", result.DocumentsAdded)
		} else {
			logger.Warn("querypilot: schema indexing failed", "error", result.Err)
		}
	}

	provider := llm.NewProvider()
	backend := pickBackend(*backendName, provider)
	logger.Info("querypilot: generation backend ready", "backend", backend.Name())

	explainer := sqlgen.NewExplainer(provider)
	orch := sqlgen.NewOrchestrator(backend, engine, connector, sqlgen.WithExplainer(explainer))

	server := api.NewServer(orch, engine, explainer, connector)

	logger.Info("querypilot: server listening", "addr", *addr, "health", "/healthz")
	fmt.Printf("Serving on %s\n", *addr)
	if err := http.ListenAndServe(*addr, server); err != nil {
		logger.Error("querypilot: server stopped", "error", err)
		fmt.Println("server stopped:", err)
	}
}

// pickBackend resolves the generation backend. An explicit flag wins; with no
// flag the model backend is used when a provider is configured, otherwise the
// deterministic rule backend.
func pickBackend(name string, provider llm.Provider) sqlgen.Backend {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "model":
		return sqlgen.NewModelBackend(provider)
	case "rules":
		return sqlgen.NewRuleBackend()
	}
	if provider != nil {
		return sqlgen.NewModelBackend(provider)
	}
	return sqlgen.NewRuleBackend()
}
