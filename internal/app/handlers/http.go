package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vmikell/urlapi/internal/app/logger"
	"github.com/vmikell/urlapi/internal/app/metrics"
	"github.com/vmikell/urlapi/internal/app/middlewares"
)

const maxBodySize = 1 << 20

// ServeHTTP adapts a net/http request to Dispatch
func (h Handlers) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeResponse(w, BuildResponse(
			http.StatusBadRequest,
			ErrorBody{Message: "failed to read request body: " + err.Error()},
		))
		return
	}

	query := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			query[key] = values[0]
		}
	}

	writeResponse(w, h.Dispatch(r.Context(), Request{
		Method:                r.Method,
		Path:                  r.URL.Path,
		QueryStringParameters: query,
		Body:                  string(body),
	}))
}

func writeResponse(w http.ResponseWriter, resp Response) {
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body == "" {
		return
	}
	if _, err := io.WriteString(w, resp.Body); err != nil {
		logger.Log.Info("failed to write response", zap.Error(err))
	}
}

// NewRouter serves the dispatcher on every path. A non-nil recorder adds /metrics.
func NewRouter(h Handlers, recorder *metrics.Recorder) chi.Router {
	router := chi.NewRouter()
	router.Use(
		middleware.Recoverer,
		middlewares.ResponseLogger,
		middlewares.RequestLogger,
		middlewares.GzipCompress,
	)
	if recorder != nil {
		router.Method(
			http.MethodGet,
			"/metrics",
			promhttp.HandlerFor(recorder.Registry(), promhttp.HandlerOpts{DisableCompression: true}),
		)
	}
	router.Handle("/*", h)

	return router
}
