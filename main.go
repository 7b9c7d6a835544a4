package main

import (
	"context"

	"github.com/rs/zerolog/log"

	llmx "github.com/datagora/datagora/agent/llm"
	orchestratorx "github.com/datagora/datagora/agent/orchestrator"
	configx "github.com/datagora/datagora/pkg/config"
	logx "github.com/datagora/datagora/pkg/logger"
	storex "github.com/datagora/datagora/store"
)

func main() {
	logCfg := configx.MustNew[logx.Config]("LOG")
	logx.Init(*logCfg)

	ctx := context.Background()

	// The generative client is optional: without it every agent runs on
	// its deterministic fallback.
	var client llmx.Client
	if llmCfg, err := configx.New[llmx.Config]("OPENAI"); err != nil {
		log.Warn().Err(err).Msg("generative client not configured, running with fallbacks only")
	} else if c, err := llmx.NewOpenAIClient(*llmCfg); err != nil {
		log.Warn().Err(err).Msg("generative client rejected config, running with fallbacks only")
	} else {
		client = c
	}

	pgCfg := configx.MustNew[storex.PostgresConfig]("POSTGRES")
	var st storex.Store
	if pgCfg.DSN != "" {
		bunStore, err := storex.OpenPostgres(*pgCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("open postgres")
		}
		if err := bunStore.CreateSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("create schema")
		}
		st = bunStore
	} else {
		mem := storex.NewMemoryStore()
		storex.SeedDemo(mem)
		st = mem
		log.Info().Msg("no postgres dsn configured, using seeded in-memory store")
	}

	orch := orchestratorx.New(st, client)
	for _, task := range orch.ListAgents() {
		log.Info().Str("task", task).Strs("capabilities", orch.ListCapabilities()[task]).Msg("capability registered")
	}
}
