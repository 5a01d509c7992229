package middlewares

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vmikell/urlapi/internal/app/compress"
	"github.com/vmikell/urlapi/internal/app/logger"
)

// GzipCompress decompresses gzip request bodies and compresses responses for
// clients accepting gzip
func GzipCompress(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") ||
			strings.Contains(r.Header.Get("Content-Type"), "gzip") {
			compressReader, err := compress.NewReader(r.Body)
			if err != nil {
				http.Error(w, "invalid gzip body", http.StatusBadRequest)
				return
			}
			r.Body = compressReader
			defer compressReader.Close()
		}

		if strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			responseWriterWithCompress := compress.NewWriter(w)
			w = responseWriterWithCompress
			defer responseWriterWithCompress.Close()
		}

		h.ServeHTTP(w, r)
	})
}

func ResponseLogger(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lw := logger.LoggingResponseWriter{ResponseWriter: w}
		h.ServeHTTP(&lw, r)
		logger.Log.Info(
			"response",
			zap.Int("status", lw.ResponseStatus),
			zap.Int("size", lw.ResponseSize),
		)
	})
}

func RequestLogger(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		h.ServeHTTP(w, r)
		logger.Log.Info("got incoming HTTP request",
			zap.String("method", r.Method),
			zap.String("URI", r.RequestURI),
			zap.String("duration", time.Since(start).String()),
		)
	})
}
