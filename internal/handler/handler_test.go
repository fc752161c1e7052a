package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"seequence/internal/config"
	"seequence/internal/imagegen"
	"seequence/internal/service"
)

type stubImages struct {
	err error
}

func (s *stubImages) Generate(_ context.Context, prompt string, _ *int64) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "http://cdn.example.com/" + prompt + ".png", nil
}

func newImageRouter(images *stubImages) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewVisualsService(nil, nil, images, nil, nil, nil, nil, nil, &config.PipelineConfig{})
	h := NewHandler(svc)

	r := gin.New()
	r.POST("/api/generate_image", h.GenerateImage)
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGenerateImage_Success(t *testing.T) {
	w := postJSON(newImageRouter(&stubImages{}), "/api/generate_image", `{"prompt": "a fish"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["image_url"] == "" {
		t.Error("image_url missing in response")
	}
}

func TestGenerateImage_BillingMapsTo402(t *testing.T) {
	images := &stubImages{err: &imagegen.BillingCreditError{Msg: "no credit"}}
	w := postJSON(newImageRouter(images), "/api/generate_image", `{"prompt": "a fish"}`)

	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("billing error should map to 402, got %d", w.Code)
	}
}

func TestGenerateImage_UpstreamMapsTo502(t *testing.T) {
	images := &stubImages{err: errors.New("model exploded")}
	w := postJSON(newImageRouter(images), "/api/generate_image", `{"prompt": "a fish"}`)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("upstream error should map to 502, got %d", w.Code)
	}
}

func TestGenerateImage_MissingPromptRejected(t *testing.T) {
	w := postJSON(newImageRouter(&stubImages{}), "/api/generate_image", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing prompt should map to 400, got %d", w.Code)
	}
}
