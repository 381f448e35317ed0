package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-sod/tiebreak/internal/httputil"
	"github.com/go-sod/tiebreak/internal/logging"
	"github.com/go-sod/tiebreak/internal/predict"
	"github.com/go-sod/tiebreak/internal/run"
	"github.com/gomarkdown/markdown"
	mhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/google/uuid"
	"github.com/uptrace/bunrouter"
)

// RunStore is the read side of the run store used by the routes.
type RunStore interface {
	List(ctx context.Context, filter run.FilterFn) ([]run.Run, error)
	Get(ctx context.Context, id uuid.UUID) (run.Run, error)
}

type Handlers struct {
	Predict http.Handler
	Metrics http.Handler
	Runs    RunStore
	Models  predict.ModelsProvider
}

type runItem struct {
	ID            uuid.UUID `json:"id"`
	CreatedAt     time.Time `json:"createdAt"`
	Features      []string  `json:"features"`
	TrainSize     int       `json:"trainSize"`
	TestSize      int       `json:"testSize"`
	KNNAccuracy   float64   `json:"knnAccuracy"`
	KKNNAccuracy  float64   `json:"kknnAccuracy"`
	KNNTies       int       `json:"knnTies"`
	KKNNTies      int       `json:"kknnTies"`
	Disagreements int       `json:"disagreements"`
}

// NewRouter mounts every route of the service behind the logging and rate
// limit middlewares.
func NewRouter(ctx context.Context, cfg *Config, h Handlers) (http.Handler, error) {
	limit, err := limitMiddleware(cfg.RateLimit)
	if err != nil {
		return nil, err
	}
	router := bunrouter.New(
		bunrouter.Use(loggingMiddleware(logging.FromContext(ctx))),
		bunrouter.Use(limit),
	)
	router.POST("/predict", bunrouter.HTTPHandler(h.Predict))
	router.GET("/metrics", bunrouter.HTTPHandler(h.Metrics))
	router.GET("/health", h.health)
	router.GET("/runs", h.listRuns)
	router.GET("/runs/:id", h.getRun)
	router.GET("/runs/:id/report", h.getReport)
	return router, nil
}

func (h Handlers) health(w http.ResponseWriter, req bunrouter.Request) error {
	m, err := h.Models.Current()
	if err != nil {
		httputil.RespJSON(req.Context(), w, http.StatusServiceUnavailable, map[string]string{"status": err.Error()})
		return nil
	}
	httputil.RespJSON(req.Context(), w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"run":      m.RunID,
		"features": m.Features,
	})
	return nil
}

func (h Handlers) listRuns(w http.ResponseWriter, req bunrouter.Request) error {
	ctx := req.Context()
	runs, err := h.Runs.List(ctx, nil)
	if err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "unable to list runs %v"}`, err)
		return nil
	}
	items := make([]runItem, len(runs))
	for i, r := range runs {
		items[i] = runItem{
			ID:            r.ID,
			CreatedAt:     r.CreatedAt,
			Features:      r.Features,
			TrainSize:     r.TrainSize,
			TestSize:      r.TestSize,
			KNNAccuracy:   r.Summary.KNN.Accuracy,
			KKNNAccuracy:  r.Summary.KKNN.Accuracy,
			KNNTies:       len(r.Summary.KNN.Ties),
			KKNNTies:      len(r.Summary.KKNN.Ties),
			Disagreements: len(r.Summary.Disagreements),
		}
	}
	httputil.RespJSON(ctx, w, http.StatusOK, items)
	return nil
}

func (h Handlers) getRun(w http.ResponseWriter, req bunrouter.Request) error {
	r, ok := h.lookup(w, req)
	if !ok {
		return nil
	}
	httputil.RespJSON(req.Context(), w, http.StatusOK, r)
	return nil
}

func (h Handlers) getReport(w http.ResponseWriter, req bunrouter.Request) error {
	r, ok := h.lookup(w, req)
	if !ok {
		return nil
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>run %s</title></head><body>\n%s</body></html>\n",
		r.ID, mdToHTML([]byte(r.Report)))
	return nil
}

func (h Handlers) lookup(w http.ResponseWriter, req bunrouter.Request) (run.Run, bool) {
	ctx := req.Context()
	id, err := uuid.Parse(req.Param("id"))
	if err != nil {
		httputil.RespBadRequest(ctx, w, `{"error": "invalid run id %q"}`, req.Param("id"))
		return run.Run{}, false
	}
	r, err := h.Runs.Get(ctx, id)
	if errors.Is(err, run.ErrRunNotFound) {
		httputil.RespNotFound(ctx, w, `{"error": "run %s not found"}`, id)
		return run.Run{}, false
	}
	if err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "unable to read run %v"}`, err)
		return run.Run{}, false
	}
	return r, true
}

func mdToHTML(md []byte) []byte {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse(md)

	opts := mhtml.RendererOptions{Flags: mhtml.CommonFlags | mhtml.HrefTargetBlank}
	return markdown.Render(doc, mhtml.NewRenderer(opts))
}
