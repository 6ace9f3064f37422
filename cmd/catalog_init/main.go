package main

import (
	"context"
	"flag"
	"log"

	"persona-quest/internal/config"
	"persona-quest/internal/logger"

	sdk "github.com/matrixorigin/moi-go-sdk"
)

func main() {
	configFile := flag.String("config", "etc/config-dev.yaml", "config file")
	flag.Parse()

	logger.Init(config.LogConfig{Level: "info", Console: true})

	cfg := config.Load(*configFile)
	client, err := cfg.NewRawClient()
	if err != nil {
		log.Fatal(err)
	}
	if client == nil {
		log.Fatal("moi.api_key is not configured")
	}
	ctx := context.Background()
	catalogID := sdk.CatalogID(cfg.MOI.CatalogID)
	if catalogID == 0 {
		catalogID = 1
	}

	// Step 1: catalog database + tables
	dbID, tableIDs, err := initCatalog(ctx, client, catalogID, cfg.Database.Name)
	if err != nil {
		log.Fatal("catalog init failed:", err)
	}

	// Step 2: NL2SQL knowledge
	if err := initKnowledge(ctx, client); err != nil {
		log.Fatal("knowledge init failed:", err)
	}

	logger.Info("=== all done ===", "database_id", dbID, "tables", tableIDs)
	logger.Info("set moi.database_id and the moi.*_table_id ids in the server config")
}
