package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/codeduel/platform/internal/auth/jwt"
	"github.com/codeduel/platform/internal/config"
)

type staticValidator struct{ claims *jwt.Claims }

func (v staticValidator) ValidateToken(token string) (*jwt.Claims, error) {
	if token != "good" {
		return nil, jwt.ErrInvalidToken
	}
	return v.claims, nil
}

func testConfig() *config.App {
	return &config.App{
		HTTPAddr: ":0",
		CORS: config.CORS{
			AllowedOrigins: []string{"https://app.codeduel.dev"},
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
			MaxAge:         600,
		},
	}
}

func serve(srv *http.Server, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, r)
	return rec
}

func TestPrivateRoutesRequireAuth(t *testing.T) {
	id := uuid.New()
	var seen uuid.UUID
	srv := NewHTTPServer(testConfig(), zerolog.Nop(), staticValidator{&jwt.Claims{UserID: id}}, nil, Routes{
		Profile: func(w http.ResponseWriter, r *http.Request) {
			c, _ := jwt.FromContext(r.Context())
			seen = c.UserID
			w.WriteHeader(http.StatusOK)
		},
	})

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/v1/profile/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/profile/me", nil)
	req.Header.Set("Authorization", "Bearer bad")
	assert.Equal(t, http.StatusUnauthorized, serve(srv, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/profile/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	assert.Equal(t, http.StatusOK, serve(srv, req).Code)
	assert.Equal(t, id, seen)
}

func TestPublicRoutesAndHealth(t *testing.T) {
	srv := NewHTTPServer(testConfig(), zerolog.Nop(), staticValidator{}, nil, Routes{
		Problems: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) },
	})

	assert.Equal(t, http.StatusTeapot, serve(srv, httptest.NewRequest(http.MethodGet, "/v1/problems", nil)).Code)

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	assert.Equal(t, http.StatusNotImplemented, serve(srv, httptest.NewRequest(http.MethodGet, "/ws/matches", nil)).Code)
}

func TestPingReportsDependencyFailure(t *testing.T) {
	down := PingFunc(func(ctx context.Context) error { return errors.New("refused") })
	up := PingFunc(func(ctx context.Context) error { return nil })

	srv := NewHTTPServer(testConfig(), zerolog.Nop(), staticValidator{}, []Pinger{up}, Routes{})
	assert.Equal(t, http.StatusOK, serve(srv, httptest.NewRequest(http.MethodGet, "/v1/ping", nil)).Code)

	srv = NewHTTPServer(testConfig(), zerolog.Nop(), staticValidator{}, []Pinger{up, down}, Routes{})
	assert.Equal(t, http.StatusBadGateway, serve(srv, httptest.NewRequest(http.MethodGet, "/v1/ping", nil)).Code)
}

func TestCORS(t *testing.T) {
	srv := NewHTTPServer(testConfig(), zerolog.Nop(), staticValidator{}, nil, Routes{})

	req := httptest.NewRequest(http.MethodOptions, "/v1/auth/login", nil)
	req.Header.Set("Origin", "https://app.codeduel.dev")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := serve(srv, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.codeduel.dev", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = serve(srv, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
