package main

import (
	"context"
	"fmt"
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"GoLetterAI/app/clients"
	"GoLetterAI/app/configs"
	"GoLetterAI/app/metrics"
	"GoLetterAI/app/models"
	"GoLetterAI/app/rag"
	"GoLetterAI/app/services"
	"GoLetterAI/app/storage"
	"GoLetterAI/app/utils"
	"GoLetterAI/app/workflow"
)

const (
	defaultConfigPath = "config.yaml"

	workflowLog = "workflow"
	serviceLog  = "service"
)

// application holds everything built from a Config; Close releases it in reverse order.
type application struct {
	cfg       *configs.Config
	store     *storage.SQLiteStorage
	completer models.Completer
	flow      *workflow.Workflow
	service   *services.Service
	registry  *clients.Registry
	guides    *rag.Client
	audits    map[string]*utils.AuditLogger
	metrics   *prometheus.Registry
}

func newApplication(ctx context.Context, cfg *configs.Config) (*application, error) {
	app := &application{
		cfg:      cfg,
		registry: clients.NewRegistry(),
		audits:   make(map[string]*utils.AuditLogger),
		metrics:  prometheus.NewRegistry(),
	}
	app.metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	for name, color := range map[string]string{workflowLog: utils.ColorWorkflow, serviceLog: utils.ColorService} {
		audit, err := utils.NewAuditLogger(name, color, cfg.Server.LogsDir, cfg.Server.AuditBuffer)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("audit logger %s: %w", name, err)
		}
		app.audits[name] = audit
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.Path)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.store = store

	completer, err := cfg.LLM.BuildCompleter()
	if err != nil {
		app.Close()
		return nil, err
	}
	app.completer = completer

	team, err := cfg.BuildTeam()
	if err != nil {
		app.Close()
		return nil, err
	}

	recorder := metrics.NewPrometheusRecorder(app.metrics)
	generator := models.WithTimeout(
		metrics.InstrumentGenerator(models.NewChatGenerator(completer), recorder),
		cfg.LLM.Timeout,
	)
	flowOpts := []workflow.Option{
		workflow.WithAuditLogger(app.audits[workflowLog]),
		workflow.WithRecorder(recorder),
	}

	if cfg.RAG.Enabled {
		guides, err := initGuidelines(ctx, cfg)
		if err != nil {
			log.Printf("⚠️ Guidelines disabled: %v", err)
		} else {
			app.guides = guides
			flowOpts = append(flowOpts, workflow.WithRetriever(guides))
		}
	}

	if err = clients.Initialize(app.registry, cfg.Clients); err != nil {
		log.Printf("⚠️ Some clients failed to start: %v", err)
	}

	app.flow = workflow.New(team, generator, flowOpts...)
	app.service = services.NewService(app.flow, completer, store,
		services.Settings{
			DefaultMaxRounds:    cfg.Workflow.MaxRounds,
			PersistConversation: cfg.Workflow.PersistConversation,
			NotifyOnReview:      cfg.Workflow.NotifyOnReview,
		},
		services.WithNotifier(app.registry),
		services.WithAuditLogger(app.audits[serviceLog]),
	)
	return app, nil
}

// initGuidelines embeds the guideline folder through the OpenAI-compatible endpoint, whatever
// provider serves completions.
func initGuidelines(ctx context.Context, cfg *configs.Config) (*rag.Client, error) {
	embedder := models.NewLLMClient(cfg.LLM.Options())
	guides, err := rag.NewClient(embedder, cfg.RAG.Options())
	if err != nil {
		return nil, err
	}
	if err = guides.InitContext(ctx); err != nil {
		_ = guides.Close()
		return nil, err
	}
	log.Printf("📚 Guidelines loaded from %s", cfg.RAG.Folder)
	return guides, nil
}

func (a *application) Close() {
	a.registry.CloseAll()
	if a.guides != nil {
		if err := a.guides.Close(); err != nil {
			log.Printf("⚠️ Error closing guidelines store: %v", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Printf("⚠️ Error closing database: %v", err)
		}
	}
	for name, audit := range a.audits {
		if err := audit.Close(); err != nil {
			log.Printf("⚠️ Error closing %s log: %v", name, err)
		}
	}
}
