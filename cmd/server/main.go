package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"persona-quest/internal/config"
	"persona-quest/internal/handler"
	"persona-quest/internal/llm"
	"persona-quest/internal/logger"
	"persona-quest/internal/middleware"
	"persona-quest/internal/model"
	"persona-quest/internal/service"
	"persona-quest/internal/store"

	"github.com/gin-gonic/gin"
)

func main() {
	configFile := flag.String("config", "", "config file path (e.g. etc/config-dev.yaml)")
	flag.Parse()

	cfg := config.Load(*configFile)
	logger.Init(cfg.Log)
	if cfg.InsecureSessionSecret() {
		logger.Warn("session tokens are signed with the built-in dev secret, set SESSION_SECRET", "db_driver", cfg.Database.Driver)
	}

	db, err := cfg.OpenGormDB()
	if err != nil {
		logger.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(model.AllTables()...); err != nil {
		logger.Error("db migrate failed", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	completer, err := llm.New(ctx, llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Model:    cfg.LLM.Model,
		Timeout:  cfg.LLMTimeout(),
	})
	if err != nil {
		logger.Error("llm client init failed", "err", err)
		os.Exit(1)
	}

	policy, err := service.ParsePolicy(cfg.Quest.Policy)
	if err != nil {
		logger.Error("invalid quest policy", "err", err)
		os.Exit(1)
	}

	pipeline := service.NewPipeline(completer,
		store.NewPersonaStore(db), store.NewContentStore(db), store.NewQuestStore(db),
		policy, cfg.Quest.Count)

	raw, err := cfg.NewRawClient()
	if err != nil {
		logger.Warn("sdk client init failed", "err", err)
	}
	if raw != nil {
		pipeline.SetMirror(service.NewCatalogSync(raw, cfg.MOI.DatabaseID, service.CatalogTables{
			Persona:    cfg.MOI.PersonaTableID,
			Quest:      cfg.MOI.QuestTableID,
			QuestEvent: cfg.MOI.QuestEventTableID,
		}))
		logger.Info("catalog sync enabled", "database_id", cfg.MOI.DatabaseID)
	}

	gin.SetMode(gin.ReleaseMode)
	r := handler.NewRouter(handler.RouterConfig{
		Pipeline:     pipeline,
		Tokens:       middleware.NewSessionTokens(cfg.Session.Secret, cfg.SessionTTL()),
		DB:           db,
		AllowOrigins: cfg.Server.AllowOrigins,
	})

	srv := &http.Server{Addr: cfg.Addr(), Handler: r}
	go func() {
		logger.Info("server starting", "addr", cfg.Addr(), "llm", cfg.LLM.Provider, "model", cfg.LLM.Model, "quest_policy", policy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "err", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
