package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/rollout/internal/api/response"
)

// newRequest builds a request whose body is v encoded as JSON, or empty when v is nil.
func newRequest(method, target string, v any) *http.Request {
	body := ""
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			panic(err)
		}
		body = string(b)
	}
	return newRequestRaw(method, target, body)
}

func newRequestRaw(method, target, body string) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// withChiURLParam sets a route parameter the way the router would.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// errorMessage returns the "error" field of a JSON error response.
func errorMessage(rec *httptest.ResponseRecorder) string {
	var body response.ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return body.Error
}

func boolPtr(b bool) *bool { return &b }
