// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"net/http"
	"time"
)

// Middleware stores the requested API version in the request context and
// echoes it in the response header. A missing header selects LatestVersion;
// a header that is not a YYYY-MM-DD date is rejected with 400.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		version := r.Header.Get(Header)
		if version == "" {
			version = LatestVersion
		} else if !Valid(version) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"code":"BAD_REQUEST","message":"malformed ` + Header + ` header"}}`))
			return
		}

		w.Header().Set(Header, version)
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), version)))
	})
}

// Valid reports whether v is a date-formatted API version.
func Valid(v string) bool {
	_, err := time.Parse(time.DateOnly, v)
	return err == nil
}
