// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMiddleware_DefaultsToLatest(t *testing.T) {
	var seen string
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/logs", nil))

	assert.Equal(t, LatestVersion, seen)
	assert.Equal(t, LatestVersion, rec.Header().Get(Header))
}

func TestMiddleware_HonorsHeader(t *testing.T) {
	var seen string
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/api/v1/logs", nil)
	req.Header.Set(Header, "2026-01-01")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "2026-01-01", seen)
	assert.Equal(t, "2026-01-01", rec.Header().Get(Header))
}

func TestFromContext_Empty(t *testing.T) {
	assert.Equal(t, LatestVersion, FromContext(context.Background()))
	assert.Equal(t, "x", FromContext(WithContext(context.Background(), "x")))
}

func TestMiddleware_RejectsMalformed(t *testing.T) {
	called := false
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest("GET", "/api/v1/logs", nil)
	req.Header.Set(Header, "latest")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "BAD_REQUEST")
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(Version20261018))
	assert.False(t, Valid("2026-13-01"))
	assert.False(t, Valid("v1"))
}
