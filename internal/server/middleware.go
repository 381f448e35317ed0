package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-sod/tiebreak/internal/logging"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// loggingMiddleware carries logger in the request context and logs every
// request once it is served.
func loggingMiddleware(logger *zap.SugaredLogger) bunrouter.MiddlewareFunc {
	return func(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
		return func(w http.ResponseWriter, req bunrouter.Request) error {
			start := time.Now()
			ctx := logging.WithLogger(req.Context(), logger)
			sw := &statusWriter{ResponseWriter: w}
			err := next(sw, req.WithContext(ctx))
			status := sw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("request served",
				"method", req.Method, "route", req.Route(), "path", req.URL.Path,
				"status", status, "duration", time.Since(start), "error", err)
			return err
		}
	}
}

// limitMiddleware applies one in-memory rate per client address.
func limitMiddleware(rate string) (bunrouter.MiddlewareFunc, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", rate, err)
	}
	mw := stdlib.NewMiddleware(limiter.New(memory.NewStore(), r))
	return func(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
		return func(w http.ResponseWriter, req bunrouter.Request) error {
			key := mw.KeyGetter(req.Request)
			if mw.ExcludedKey != nil && mw.ExcludedKey(key) {
				return next(w, req)
			}
			lctx, err := mw.Limiter.Get(req.Context(), key)
			if err != nil {
				mw.OnError(w, req.Request, err)
				return nil
			}
			w.Header().Add("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			w.Header().Add("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			w.Header().Add("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))
			if lctx.Reached {
				mw.OnLimitReached(w, req.Request)
				return nil
			}
			return next(w, req)
		}
	}, nil
}
