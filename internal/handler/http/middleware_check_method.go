// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Antoine Berthet

package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// CheckHTTPMethod replaces chi's MethodNotAllowed handler. A wrong method on
// a known route answers 404 instead of 405, so an unauthenticated caller
// cannot map the sync API by spraying verbs. Registered methods fall through
// to the normal pipeline untouched.
func CheckHTTPMethod(router *chi.Mux) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var matched chi.Route
		for _, route := range router.Routes() {
			if route.Pattern == r.URL.Path {
				matched = route
				break
			}
		}

		if _, ok := matched.Handlers[r.Method]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		router.ServeHTTP(w, r)
	}
}
