package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/MacJediWizard/certvault/internal/api/middleware"
	"github.com/MacJediWizard/certvault/internal/auth"
	"github.com/MacJediWizard/certvault/internal/models"
	"github.com/gin-gonic/gin"
)

func testIdentity(id int64, role models.UserRole) *auth.Identity {
	return &auth.Identity{UserID: id, Email: "user@example.com", Role: role, Active: true}
}

// setupTestRouter builds a router that injects identity (when non-nil) the
// way AuthMiddleware would, then lets register attach routes under /api.
func setupTestRouter(identity *auth.Identity, register func(api *gin.RouterGroup)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if identity != nil {
			c.Set(string(middleware.IdentityContextKey), identity)
		}
		c.Next()
	})
	register(r.Group("/api"))
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.10:54321"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) string {
	var resp struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return resp.Error
}
