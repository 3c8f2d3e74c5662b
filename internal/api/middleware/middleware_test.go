package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vida-collector/internal/config"
	"vida-collector/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(), Logger())
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"type":"InternalServerError"`)
}

func TestServiceAuthRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	config.Set(&config.Config{
		App: config.AppConfig{Name: "vida-collector"},
		JWT: config.JWTConfig{Secret: "mw-secret", ExpireHours: 1},
	})
	t.Cleanup(func() { config.Set(nil) })

	r := gin.New()
	r.GET("/who", ServiceAuthRequired(), func(c *gin.Context) {
		c.String(http.StatusOK, GetSubject(c))
	})

	token, _, err := utils.GenerateServiceToken("worker")
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		code   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"invalid", "Bearer nope", http.StatusUnauthorized},
		{"valid", "bearer " + token, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/who", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.code, w.Code)
			if tc.code == http.StatusOK {
				assert.Equal(t, "worker", w.Body.String())
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tok, ok := bearerToken("Bearer  abc ")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	_, ok = bearerToken("Bearer ")
	assert.False(t, ok)
	_, ok = bearerToken("abc")
	assert.False(t, ok)
}

func TestServiceAuthRequired_Expired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	config.Set(&config.Config{
		App: config.AppConfig{Name: "vida-collector"},
		JWT: config.JWTConfig{Secret: "mw-secret", ExpireHours: 1},
	})
	t.Cleanup(func() { config.Set(nil) })

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, utils.ServiceClaims{
		Scope: utils.ScopeCrawler,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "worker",
			Issuer:    "vida-collector",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte("mw-secret"))
	require.NoError(t, err)

	r := gin.New()
	r.GET("/who", ServiceAuthRequired(), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "已过期")
}
