package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	token := strings.Repeat("ab", 32)

	tests := []struct {
		path string
		want string
	}{
		{"/api/limits", "/api/limits"},
		{"/api/shares/6f1c2a3e-93d4-4a51-9e0f-0c7d1b2a3c4d", "/api/shares/{id}"},
		{"/api/shares/6F1C2A3E-93D4-4A51-9E0F-0C7D1B2A3C4D/permissions", "/api/shares/{id}/permissions"},
		{"/api/invitations/" + token + "/accept", "/api/invitations/{token}/accept"},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, normalizePath(tc.path))
		})
	}
}

func TestMiddleware_CapturesStatus(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/limits", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestResponseWriter_FirstStatusWins(t *testing.T) {
	rw := newResponseWriter(httptest.NewRecorder())

	_, err := rw.Write([]byte("ok"))
	assert.NoError(t, err)
	rw.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, http.StatusOK, rw.statusCode)
	assert.Equal(t, 2, rw.bytesWritten)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "allowed", outcome(true, nil))
	assert.Equal(t, "denied", outcome(false, nil))
	assert.Equal(t, "error", outcome(true, assert.AnError))
}

func TestRouteLabel(t *testing.T) {
	mux := http.NewServeMux()
	var got string
	mux.HandleFunc("DELETE /api/shares/{id}", func(w http.ResponseWriter, r *http.Request) {})
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := newResponseWriter(w)
		mux.ServeHTTP(rw, r)
		got = routeLabel(r, rw.statusCode)
	})

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("DELETE", "/api/shares/6f1c2a3e-93d4-4a51-9e0f-0c7d1b2a3c4d", nil))
	assert.Equal(t, "/api/shares/{id}", got)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/wp-admin/"+strings.Repeat("x", 40), nil))
	assert.Equal(t, unmatchedRoute, got)

	r := httptest.NewRequest("GET", "/api/shares/6f1c2a3e-93d4-4a51-9e0f-0c7d1b2a3c4d", nil)
	assert.Equal(t, "/api/shares/{id}", routeLabel(r, http.StatusOK))
}
