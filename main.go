package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"GoLetterAI/app/api"
	"GoLetterAI/app/configs"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if len(os.Args) > 1 && os.Args[1] == "draft" {
		if err := runDraft(os.Args[2:]); err != nil {
			log.Fatalf("❌ %v", err)
		}
		return
	}

	configPath := flag.String("config", defaultConfigPath, "path to the YAML configuration")
	flag.Parse()

	if err := serve(*configPath); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func serve(configPath string) error {
	cfg, err := configs.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	opts := []api.Option{
		api.WithMetrics(promhttp.HandlerFor(app.metrics, promhttp.HandlerOpts{})),
	}
	for name, audit := range app.audits {
		opts = append(opts, api.WithAudit(name, audit))
	}
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewServer(app.service, opts...).Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("🚀 Letter API listening on %s (model %s)", cfg.Server.Addr, app.completer.ModelName())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("🛑 Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
