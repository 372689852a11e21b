// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Antoine Berthet

package http

import (
	"bufio"
	"net"
	"net/http"
)

// responseWriter decorates [http.ResponseWriter] so the logging middleware
// can report the status and body size after the handler returns, without
// buffering the response. WriteHeader is forwarded exactly once; body keeps
// only the slice of the most recent Write, not a concatenation.
type responseWriter struct {
	http.ResponseWriter

	status      int
	wroteHeader bool
	size        int
	body        []byte
}

func (w *responseWriter) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.status = statusCode
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	w.body = b
	return n, err
}

// Hijack forwards to the underlying writer so the realtime WebSocket upgrade
// still works behind the logging decorator. Struct embedding alone would hide
// the optional [http.Hijacker] interface.
func (w *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return hijacker.Hijack()
}
