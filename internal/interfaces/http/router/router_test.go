package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"leadgen-api/internal/application/auth"
	"leadgen-api/internal/application/principal"
	"leadgen-api/internal/config"
	"leadgen-api/internal/interfaces/http/handler"
	apperrors "leadgen-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuthenticator struct{}

func (stubAuthenticator) Authenticate(_ context.Context, token string) (*principal.Principal, error) {
	if token == "good" {
		return &principal.Principal{UserID: "u1"}, nil
	}
	return nil, apperrors.ErrTokenInvalid
}

func newTestRouter() *gin.Engine {
	cfg := &config.Config{}
	cfg.App.Name = "leadgen-api"
	cfg.Auth.CookieName = "leadgen.session-token"
	cfg.Observability.Metrics.Enabled = true

	h := &Handlers{
		Health:     handler.NewHealthHandler(nil, nil, nil, "test"),
		Auth:       handler.NewAuthHandler(nil, handler.AuthHandlerConfig{CookieName: cfg.Auth.CookieName}),
		User:       handler.NewUserHandler(nil, handler.UploadLimits{}),
		Collection: handler.NewCollectionHandler(nil),
		History:    handler.NewHistoryHandler(nil),
		Lead:       handler.NewLeadHandler(nil, handler.UploadLimits{}),
		Mail:       handler.NewMailHandler(nil),
	}
	return New(cfg, h, stubAuthenticator{}, nil).Engine()
}

func TestRouter_SystemEndpoints(t *testing.T) {
	r := newTestRouter()

	tests := []struct {
		path string
		want int
	}{
		{"/health", http.StatusOK},
		{"/live", http.StatusOK},
		{"/ready", http.StatusServiceUnavailable},
		{"/metrics", http.StatusOK},
		{"/v1/unknown", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRouter_ProtectedRoutesRequireSession(t *testing.T) {
	r := newTestRouter()

	routes := []struct{ method, path string }{
		{http.MethodGet, "/v1/users/me"},
		{http.MethodGet, "/v1/collections"},
		{http.MethodPost, "/v1/history"},
		{http.MethodPost, "/v1/search/companies"},
		{http.MethodGet, "/v1/companies/employees"},
		{http.MethodPost, "/v1/contacts/e1/unlock"},
		{http.MethodPost, "/v1/mails"},
		{http.MethodGet, "/v1/sites/preview"},
		{http.MethodGet, "/v1/auth/secret"},
		{http.MethodPost, "/v1/auth/signout"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(rt.method, rt.path, nil))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRouter_SecretWithSession(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/auth/secret", nil)
	req.AddCookie(&http.Cookie{Name: "leadgen.session-token", Value: "good"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), auth.SecretMessage)
}

func TestRouter_SessionIsPublic(t *testing.T) {
	r := newTestRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/auth/session", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
