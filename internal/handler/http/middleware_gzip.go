package http

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Pooled codecs: push batches from field devices arrive in bursts after a
// reconnection, so the per-request allocation would dominate.
var (
	gzipWriters = sync.Pool{New: func() any { return gzip.NewWriter(io.Discard) }}
	gzipReaders = sync.Pool{New: func() any { return new(gzip.Reader) }}
)

// withCompression inflates gzip request bodies and deflates responses for
// clients that ask for it. Operation payloads are JSON with long repeated
// keys and compress well over the slow links construction sites tend to have.
func withCompression(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") && r.Body != nil {
			zr := gzipReaders.Get().(*gzip.Reader)
			if err := zr.Reset(r.Body); err != nil {
				gzipReaders.Put(zr)
				http.Error(w, "malformed gzip body", http.StatusBadRequest)
				return
			}
			r.Body = &inflatedBody{zr: zr}
			r.Header.Del("Content-Encoding")
		}

		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		zw := gzipWriters.Get().(*gzip.Writer)
		zw.Reset(w)
		defer func() {
			zw.Close()
			gzipWriters.Put(zw)
		}()

		w.Header().Set("Vary", "Accept-Encoding")
		w.Header().Set("Content-Encoding", "gzip")
		next.ServeHTTP(&deflatedWriter{ResponseWriter: w, zw: zw}, r)
	})
}

// inflatedBody reads through a pooled gzip.Reader and returns it to the pool
// on Close. Close is idempotent; chi and the stdlib server may both call it.
type inflatedBody struct {
	zr     *gzip.Reader
	closed bool
}

func (b *inflatedBody) Read(p []byte) (int, error) {
	return b.zr.Read(p)
}

func (b *inflatedBody) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	err := b.zr.Close()
	gzipReaders.Put(b.zr)
	return err
}

// deflatedWriter routes every body write through the gzip stream.
type deflatedWriter struct {
	http.ResponseWriter
	zw *gzip.Writer
}

func (w *deflatedWriter) Write(p []byte) (int, error) {
	return w.zw.Write(p)
}
