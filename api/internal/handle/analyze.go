package handle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"potato-check/api/internal/apperr"
	"potato-check/api/internal/gemini"
	"potato-check/api/internal/store"
	"potato-check/api/internal/util"
)

var errNoImage = errors.New("no image data")

// maxRequestTimeout bounds a per-request override when no default is configured.
const maxRequestTimeout = 5 * time.Minute

type AnalyzeRequest struct {
	ImageData string `json:"imageData"`

	// DeclaredMIME comes from a data URL prefix; the upload is still sent as image/png.
	DeclaredMIME string `json:"-"`
}

// decodeAnalyzeRequest accepts exactly one JSON object with a non-empty imageData.
func decodeAnalyzeRequest(body io.Reader) (AnalyzeRequest, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return AnalyzeRequest{}, &apperr.ValidationError{Source: "request", Reason: "unreadable body", Err: err}
	}
	var req AnalyzeRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return AnalyzeRequest{}, &apperr.ValidationError{Source: "request", Reason: "invalid JSON", Err: err}
	}
	req.ImageData, req.DeclaredMIME = util.StripDataURL(req.ImageData)
	if req.ImageData == "" {
		return AnalyzeRequest{}, &apperr.ValidationError{Source: "request", Field: "imageData", Err: errNoImage}
	}
	return req, nil
}

// requestTimeout reads X-Request-Timeout or ?timeoutSec (seconds), else def.
// A caller may shorten the provider deadline but never extend it past def.
func requestTimeout(r *http.Request, def time.Duration) time.Duration {
	ts := r.Header.Get("X-Request-Timeout")
	if ts == "" {
		ts = r.URL.Query().Get("timeoutSec")
	}
	v, _ := strconv.Atoi(strings.TrimSpace(ts))
	if v <= 0 {
		return def
	}
	limit := def
	if limit <= 0 {
		limit = maxRequestTimeout
	}
	if int64(v) >= int64(limit/time.Second) {
		return limit
	}
	return time.Duration(v) * time.Second
}

// verdictLabel keeps the verdicts metric to the three known values plus "unknown".
func verdictLabel(v string) string {
	if v == "" || gemini.Verdict(v).Valid() {
		return v
	}
	return "unknown"
}

// Analyze relays one image to the provider and returns its JSON verbatim.
// Every failure ends as an apperr envelope; nothing escapes to net/http.
func (h *Handle) Analyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := requestID(r)
	w.Header().Set("X-Request-ID", reqID)
	log := h.log.With().Str("request_id", reqID).Logger()

	rec := store.AnalysisRecord{RequestID: reqID, Model: h.gen.GetModel()}
	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic", p).Str("stack", string(debug.Stack())).Msg("analyze: recovered")
			e := apperr.Internal(fmt.Errorf("panic: %v", p))
			apperr.Write(w, e)
			rec.StatusCode, rec.Kind = e.Status, string(e.Kind)
		}
		rec.DurationMS = time.Since(start).Milliseconds()
		h.metrics.ObserveRequest(rec.Kind, rec.StatusCode)
		h.metrics.ObserveVerdict(verdictLabel(rec.Verdict))
		h.record(r.Context(), log, rec)
	}()

	res, err := h.analyze(w, r, log, &rec)
	if err != nil {
		e := apperr.From(err)
		ev := log.Warn()
		if e.Status >= http.StatusInternalServerError || e.Kind == apperr.KindDownstream {
			ev = log.Error()
		}
		ev.Str("kind", string(e.Kind)).Int("status", e.Status).Err(err).Msg("analyze failed")
		apperr.Write(w, e)
		rec.StatusCode, rec.Kind = e.Status, string(e.Kind)
		return
	}

	if a, ok := res.Response.Assessment(); ok {
		rec.Verdict = string(a.Verdict)
		if !a.Verdict.Valid() {
			log.Warn().Str("verdict", rec.Verdict).Msg("model returned an unknown verdict")
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Body)
	rec.StatusCode, rec.Kind = http.StatusOK, "ok"

	log.Info().
		Str("verdict", rec.Verdict).
		Str("image_sha256", rec.ImageHash).
		Dur("took", time.Since(start)).
		Msg("analyze done")
}

func (h *Handle) analyze(w http.ResponseWriter, r *http.Request, log zerolog.Logger, rec *store.AnalysisRecord) (*gemini.Result, error) {
	if r.Method != http.MethodPost {
		return nil, apperr.MethodNotAllowed()
	}
	if h.cfg == nil || h.cfg.GeminiAPIKey == "" {
		return nil, apperr.ConfigMissing("API key not found.")
	}

	var body io.Reader = r.Body
	if h.cfg.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	}
	in, err := decodeAnalyzeRequest(body)
	if err != nil {
		var mbe *http.MaxBytesError
		switch {
		case errors.As(err, &mbe):
			return nil, apperr.BadRequest(fmt.Sprintf("Request body exceeds %d bytes.", mbe.Limit), err)
		case errors.Is(err, errNoImage):
			return nil, apperr.BadRequest("No image data provided.", err)
		default:
			return nil, apperr.BadRequest("Invalid request body: "+err.Error(), err)
		}
	}
	rec.ImageHash = util.ImageHash(in.ImageData)

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout(r, h.cfg.RequestTimeout))
	defer cancel()

	log.Debug().
		Str("image", util.ShortHash(in.ImageData)).
		Int("b64_len", len(in.ImageData)).
		Str("declared_mime", in.DeclaredMIME).
		Msg("calling provider")

	started := time.Now()
	res, err := h.gen.GenerateContent(ctx, gemini.NewAnalyzeRequest(in.ImageData))
	if err != nil {
		var se *gemini.StatusError
		if errors.As(err, &se) {
			h.metrics.ObserveProvider("status_"+strconv.Itoa(se.StatusCode), time.Since(started))
			return nil, apperr.Downstream(se.StatusCode, se.Body)
		}
		outcome := "error"
		if apperr.IsValidation(err) {
			outcome = "invalid_response"
		}
		h.metrics.ObserveProvider(outcome, time.Since(started))
		return nil, apperr.Internal(err)
	}
	h.metrics.ObserveProvider("ok", time.Since(started))
	return res, nil
}
