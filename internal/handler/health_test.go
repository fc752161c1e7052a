package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"seequence/internal/config"
)

type stubStorage struct {
	existsErr error
}

func (s *stubStorage) Save(_ context.Context, key string, _ io.Reader, _ string) (string, error) {
	return "/static/images/" + key, nil
}

func (s *stubStorage) Exists(_ context.Context, _ string) (bool, error) {
	return false, s.existsErr
}

func (s *stubStorage) Type() string { return "stub" }

func getReady(cfg *config.Config, store *stubStorage) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	h := NewHealthHandler(cfg, store)

	r := gin.New()
	r.GET("/ready", h.Ready)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	return w
}

func replicateConfig(token string) *config.Config {
	cfg := &config.Config{}
	cfg.Image.Provider = "replicate"
	cfg.Image.Replicate.APIToken = token
	return cfg
}

func TestReady_OK(t *testing.T) {
	w := getReady(replicateConfig("r8_token"), &stubStorage{})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestReady_MissingCredentials(t *testing.T) {
	w := getReady(replicateConfig(""), &stubStorage{})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("missing credentials should yield 503, got %d", w.Code)
	}
}

func TestReady_StorageUnreachable(t *testing.T) {
	store := &stubStorage{existsErr: errors.New("connection refused")}
	w := getReady(replicateConfig("r8_token"), store)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("storage failure should yield 503, got %d", w.Code)
	}
}
