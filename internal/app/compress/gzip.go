package compress

import (
	"compress/gzip"
	"io"
	"net/http"
)

// Response writer with gzip compression. Only 2xx responses are compressed.
type Writer struct {
	w           http.ResponseWriter
	zw          *gzip.Writer
	wroteHeader bool
}

// Creates response writer with gzip compression
func NewWriter(w http.ResponseWriter) *Writer {
	return &Writer{w: w}
}

// Header
func (cw *Writer) Header() http.Header {
	return cw.w.Header()
}

// Write compresses data when the response status allows it
func (cw *Writer) Write(p []byte) (int, error) {
	if !cw.wroteHeader {
		cw.WriteHeader(http.StatusOK)
	}
	if cw.zw == nil {
		return cw.w.Write(p)
	}

	return cw.zw.Write(p)
}

// WriteHeader
func (cw *Writer) WriteHeader(statusCode int) {
	if cw.wroteHeader {
		return
	}
	cw.wroteHeader = true

	if statusCode >= 200 && statusCode < 300 {
		cw.w.Header().Set("Content-Encoding", "gzip")
		cw.w.Header().Del("Content-Length")
		cw.zw = gzip.NewWriter(cw.w)
	}
	cw.w.WriteHeader(statusCode)
}

// Close flushes the gzip stream if one was started
func (cw *Writer) Close() error {
	if cw.zw == nil {
		return nil
	}

	return cw.zw.Close()
}

// Reader for compressed data
type Reader struct {
	r  io.ReadCloser
	zr *gzip.Reader
}

// Creates reader for compressed data
func NewReader(r io.ReadCloser) (*Reader, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}

	return &Reader{
		r:  r,
		zr: zr,
	}, nil
}

// Read uncompressed data
func (cr *Reader) Read(p []byte) (int, error) {
	return cr.zr.Read(p)
}

// Close
func (cr *Reader) Close() error {
	if err := cr.r.Close(); err != nil {
		return err
	}
	return cr.zr.Close()
}
