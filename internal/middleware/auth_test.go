package middleware

import (
	"context"
	"errors"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/service"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type fakeResolver struct {
	identities map[string]*service.Identity
	err        error
	seen       string
}

func (f *fakeResolver) ResolveUser(_ context.Context, credential string) (*service.Identity, error) {
	f.seen = credential
	if f.err != nil {
		return nil, f.err
	}
	id, ok := f.identities[credential]
	if !ok {
		return nil, service.ErrUnauthenticated
	}
	return id, nil
}

func newRouter(resolver IdentityResolver, roles ...model.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := []gin.HandlerFunc{AuthMiddleware(resolver)}
	if len(roles) > 0 {
		handlers = append(handlers, RoleMiddleware(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		id := CurrentIdentity(c)
		if id == nil {
			c.Status(http.StatusTeapot)
			return
		}
		c.Status(http.StatusOK)
	})
	r.GET("/protected", handlers...)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	resolver := &fakeResolver{identities: map[string]*service.Identity{
		"student":  {UserID: 1, Role: model.Student, IsActive: true},
		"disabled": {UserID: 2, Role: model.Student, IsActive: false},
	}}
	r := newRouter(resolver)

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{name: "missing credential", want: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "inactive account", header: "Bearer disabled", want: http.StatusForbidden},
		{name: "bearer header", header: "Bearer student", want: http.StatusOK},
		{name: "query token", query: "?token=student", want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestAuthMiddlewareStorageFailure(t *testing.T) {
	resolver := &fakeResolver{err: &service.Error{Kind: service.KindTransient, Code: "storage_unavailable", Err: errors.New("db down")}}
	r := newRouter(resolver)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer student")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status %d, want 500", w.Code)
	}
	if resolver.seen != "student" {
		t.Errorf("bearer prefix not stripped: %q", resolver.seen)
	}
}

func TestRoleMiddleware(t *testing.T) {
	resolver := &fakeResolver{identities: map[string]*service.Identity{
		"student":    {UserID: 1, Role: model.Student, IsActive: true},
		"instructor": {UserID: 2, Role: model.Instructor, IsActive: true},
		"admin":      {UserID: 3, Role: model.Admin, IsActive: true},
	}}
	r := newRouter(resolver, model.Instructor)

	tests := []struct {
		token string
		want  int
	}{
		{token: "student", want: http.StatusForbidden},
		{token: "instructor", want: http.StatusOK},
		{token: "admin", want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status %d, want %d", w.Code, tt.want)
			}
		})
	}
}
