package predict

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-sod/tiebreak/internal/classifier"
	"github.com/go-sod/tiebreak/internal/dataset"
	"github.com/go-sod/tiebreak/internal/httputil"
	"github.com/go-sod/tiebreak/internal/logging"
	"github.com/go-sod/tiebreak/internal/metrics"
	"github.com/go-sod/tiebreak/internal/util"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
)

const maxBodyBytes = 1 * 1024 * 1024

type request struct {
	Data []struct {
		ID           string             `json:"id"`
		Measurements map[string]float64 `json:"measurements"`
	} `json:"data"`
}

type item struct {
	ID     string                `json:"id,omitempty"`
	Vector []float64             `json:"vector"`
	KNN    classifier.Prediction `json:"knn"`
	KKNN   classifier.Prediction `json:"kknn"`
	Cached bool                  `json:"cached"`
}

type response struct {
	RunID    uuid.UUID `json:"run"`
	Features []string  `json:"features"`
	Data     []item    `json:"data"`
}

type cacheKey struct {
	run  uuid.UUID
	hash [32]byte
}

type cached struct {
	knn, kknn classifier.Prediction
}

type ModelsProvider interface {
	Current() (*Models, error)
}

func NewHandler(cfg *Config, models ModelsProvider) (http.Handler, error) {
	cache, err := lru.New[cacheKey, cached](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("unable to create predict cache: %w", err)
	}
	return &handler{
		cfg:    cfg,
		models: models,
		cache:  cache,
	}, nil
}

type handler struct {
	models ModelsProvider
	cfg    *Config
	cache  *lru.Cache[cacheKey, cached]
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()
	logger := logging.FromContext(ctx)

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		logger.Debug(fmt.Sprintf(`{"error": "method %v is not allowed"}`, r.Method))
		_, _ = fmt.Fprintf(w, `{"error": "method %v is not allowed"}`, r.Method)
		return
	}

	if t := r.Header.Get("content-type"); len(t) < 16 || t[:16] != "application/json" {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		logger.Debug(fmt.Sprintf(`{"error": "%v"}`, "content-type is not application/json"))
		_, _ = fmt.Fprintf(w, `{"error": "%v"}`, "content-type is not application/json")
		return
	}

	defer r.Body.Close()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	d := json.NewDecoder(r.Body)
	d.DisallowUnknownFields()
	if err := d.Decode(&req); err != nil {
		httputil.DecodeErr(ctx, w, err)
		return
	}

	if len(req.Data) == 0 {
		httputil.RespBadRequest(ctx, w, `{"error": "data items are empty"}`)
		return
	}
	if len(req.Data) > h.cfg.MaxDataItemsLen {
		httputil.RespBadRequest(ctx, w, `{"error": "data items is too large, max allowed len is %d"}`, h.cfg.MaxDataItemsLen)
		return
	}

	models, err := h.models.Current()
	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = fmt.Fprintf(w, `{"error": "%v"}`, err)
		return
	}

	items := make([]item, len(req.Data))
	for i, dat := range req.Data {
		vec, err := models.Vector(dat.Measurements)
		if err != nil {
			httputil.RespBadRequest(ctx, w, `{"error": "item %d: %v"}`, i, err)
			return
		}
		items[i] = item{ID: dat.ID, Vector: vec}
	}

	var pending []int
	for i := range items {
		key := cacheKey{run: models.RunID, hash: util.HashVector(items[i].Vector)}
		if c, ok := h.cache.Get(key); ok {
			items[i].KNN, items[i].KKNN, items[i].Cached = c.knn, c.kknn, true
			metrics.Record(ctx, "cache", metrics.PredictCacheHit.M(1))
			continue
		}
		pending = append(pending, i)
	}

	errGrp, grpCtx := errgroup.WithContext(ctx)
	// tie coin flips are drawn in item order
	errGrp.Go(func() error {
		for _, i := range pending {
			p, err := classify(grpCtx, models.KNN, dataset.Observation{Values: items[i].Vector})
			if err != nil {
				return err
			}
			items[i].KNN = p
		}
		return nil
	})
	for _, i := range pending {
		i := i
		errGrp.Go(func() error {
			p, err := classify(grpCtx, models.KKNN, dataset.Observation{Values: items[i].Vector})
			items[i].KKNN = p
			return err
		})
	}
	if err := errGrp.Wait(); err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "predict processing error, %v"}`, err)
		return
	}
	for i := range items {
		if !items[i].Cached {
			key := cacheKey{run: models.RunID, hash: util.HashVector(items[i].Vector)}
			h.cache.Add(key, cached{knn: items[i].KNN, kknn: items[i].KKNN})
		}
	}

	httputil.RespJSON(ctx, w, http.StatusOK, response{
		RunID:    models.RunID,
		Features: models.Features,
		Data:     items,
	})
}

func classify(ctx context.Context, c classifier.Classifier, obs dataset.Observation) (classifier.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return classifier.Prediction{}, err
	}
	start := time.Now()
	p, err := c.Predict(obs)
	if err != nil {
		return classifier.Prediction{}, fmt.Errorf("%s: %w", c.Name(), err)
	}
	metrics.Record(ctx, string(c.Name()), metrics.PredictLatency.M(float64(time.Since(start))/float64(time.Millisecond)))
	return p, nil
}
