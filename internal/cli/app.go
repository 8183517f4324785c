package cli

import (
	"fmt"
	"os"

	"github.com/syui/aigpt/internal/config"
	"github.com/syui/aigpt/internal/fortune"
	"github.com/syui/aigpt/internal/llm"
	"github.com/syui/aigpt/internal/memory"
	"github.com/syui/aigpt/internal/persona"
	"github.com/syui/aigpt/internal/relationship"
	"github.com/syui/aigpt/internal/scheduler"
	"github.com/syui/aigpt/internal/store"
	"github.com/syui/aigpt/internal/transmission"
)

// app wires the full engine stack for CLI commands and the server.
type app struct {
	cfg        config.Config
	db         *store.DB
	persona    *persona.Engine
	sched      *scheduler.Scheduler
	controller *transmission.Controller
}

func openApp() (*app, error) {
	cfgPath := os.Getenv("AIGPT_CONFIG")
	if cfgPath == "" {
		var err error
		cfgPath, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	mem := memory.New(db)
	rels := relationship.New(db, relationship.Defaults{
		Threshold:  cfg.Relationship.Threshold,
		DecayRate:  cfg.Relationship.DecayRate,
		DailyLimit: cfg.Relationship.DailyLimit,
	})
	fort := fortune.New(db)

	eng, err := persona.New(db, cfg.Persona.Name, mem, rels, fort)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init persona: %w", err)
	}

	if cfg.LLM.Provider != "none" && cfg.LLM.Provider != "" {
		client, err := llm.NewClient(cfg.LLM)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: LLM not configured (%v), using templates\n", err)
		} else {
			eng.LLM = client
			mem.LLM = client
		}
	}

	controller := transmission.New(eng, db)
	sched := scheduler.New(db, eng, controller)

	return &app{
		cfg:        cfg,
		db:         db,
		persona:    eng,
		sched:      sched,
		controller: controller,
	}, nil
}

func (a *app) Close() {
	a.db.Close()
}
