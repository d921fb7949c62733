package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"potato-check/api/internal/config"
	"potato-check/api/internal/gemini"
	"potato-check/api/internal/handle"
	"potato-check/api/internal/httpserver"
	"potato-check/api/internal/metrics"
	"potato-check/api/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analyze HTTP endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg, log)
	},
}

func init() {
	serveCmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
}

func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if cfg.GeminiAPIKey == "" {
		log.Warn().Msg("GOOGLE_API_KEY is not set; analyze requests will fail with 500")
	} else if cfg.VerifyModel {
		pctx, cancel := context.WithTimeout(ctx, 15*time.Second)
		info, err := gemini.Probe(pctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("model", cfg.GeminiModel).Msg("model probe failed")
		} else {
			log.Info().Str("model", info.Name).Int32("input_token_limit", info.InputTokenLimit).Msg("model probe ok")
		}
	}

	var rec store.Recorder = store.Nop{}
	if cfg.DatabaseURL != "" {
		db, err := openAudit(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return err
		}
		defer db.Close()
		rec = store.NewAnalysisRepo(db)
	}

	client := gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL, &http.Client{})
	h, mux := newServer(cfg, client, rec, prometheus.DefaultRegisterer, prometheus.DefaultGatherer, log)

	log.Info().Str("model", cfg.GeminiModel).Str("endpoint", client.Endpoint()).Msg("potato-check starting")
	err := httpserver.Run(ctx, ":"+cfg.Port, mux, cfg.RequestTimeout+5*time.Second, log)
	h.Wait()
	return err
}

// newServer wires the handler, its metrics and the routes.
func newServer(cfg *config.Config, gen handle.Generator, rec store.Recorder, reg prometheus.Registerer, g prometheus.Gatherer, log zerolog.Logger) (*handle.Handle, http.Handler) {
	h := handle.New(cfg, gen, rec, metrics.New(reg), log)
	return h, httpserver.NewMux(h, promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}

func openAudit(ctx context.Context, dsn string, log zerolog.Logger) (*sql.DB, error) {
	db, err := store.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	repo := store.NewAnalysisRepo(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info().Str("db", store.SafeDSNSummary(dsn)).Msg("audit store connected")
	return db, nil
}
