package handle

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"potato-check/api/internal/config"
	"potato-check/api/internal/gemini"
	"potato-check/api/internal/metrics"
	"potato-check/api/internal/store"
)

// Generator is the provider side of the relay.
type Generator interface {
	GetModel() string
	GenerateContent(ctx context.Context, in gemini.GenerateContentRequest) (*gemini.Result, error)
}

type Handle struct {
	cfg     *config.Config
	gen     Generator
	rec     store.Recorder
	metrics *metrics.Metrics
	log     zerolog.Logger

	pending sync.WaitGroup // audit inserts in flight
}

// New wires a handler. rec and m may be nil.
func New(cfg *config.Config, gen Generator, rec store.Recorder, m *metrics.Metrics, log zerolog.Logger) *Handle {
	if rec == nil {
		rec = store.Nop{}
	}
	return &Handle{
		cfg:     cfg,
		gen:     gen,
		rec:     rec,
		metrics: m,
		log:     log,
	}
}

// Wait blocks until queued audit records are written.
func (h *Handle) Wait() { h.pending.Wait() }

func (h *Handle) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func requestID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-Request-ID")); id != "" && len(id) <= 128 {
		return id
	}
	return uuid.NewString()
}

// record hands the audit row to the recorder without holding up the response.
func (h *Handle) record(ctx context.Context, log zerolog.Logger, rec store.AnalysisRecord) {
	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := h.rec.Record(ctx, rec); err != nil {
			log.Warn().Err(err).Msg("audit: record failed")
		}
	}()
}
