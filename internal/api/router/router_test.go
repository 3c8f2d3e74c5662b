package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"vida-collector/internal/api/dto"
	"vida-collector/internal/api/handler"
	"vida-collector/internal/api/middleware"
	"vida-collector/internal/config"
	"vida-collector/internal/credential"
	"vida-collector/internal/model"
	"vida-collector/internal/service"
	"vida-collector/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memTaskRepo struct {
	tasks []*model.CrawlerTask
}

func (r *memTaskRepo) Create(_ context.Context, t *model.CrawlerTask) error {
	t.ID = int64(len(r.tasks) + 1)
	r.tasks = append(r.tasks, t)
	return nil
}

func (r *memTaskRepo) GetByID(_ context.Context, id int64) (*model.CrawlerTask, error) {
	if id < 1 || int(id) > len(r.tasks) {
		return nil, gorm.ErrRecordNotFound
	}
	return r.tasks[id-1], nil
}

func (r *memTaskRepo) List(context.Context, int, int, string) ([]model.CrawlerTask, int64, error) {
	out := make([]model.CrawlerTask, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, *t)
	}
	return out, int64(len(out)), nil
}

func (r *memTaskRepo) MarkFailed(context.Context, int64, string) error { return nil }

type testEnv struct {
	engine     *gin.Engine
	repo       *memTaskRepo
	dispatched []*model.TaskMessage
	creds      *credential.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.Set(&config.Config{
		App: config.AppConfig{Name: "vida-collector"},
		JWT: config.JWTConfig{Secret: "router-secret", ExpireHours: 1},
	})
	t.Cleanup(func() { config.Set(nil) })

	hash, err := utils.HashSecret("admin-key-123")
	require.NoError(t, err)

	env := &testEnv{repo: &memTaskRepo{}, creds: credential.NewStore(credential.Credential{Cookie: "SESSDATA=old"})}
	taskService := service.NewTaskService(env.repo, func(_ context.Context, msg *model.TaskMessage) error {
		env.dispatched = append(env.dispatched, msg)
		return nil
	}, nil, nil)
	crawlerService := service.NewCrawlerService(nil, env.creds, nil)
	searchService := service.NewSearchService(nil)

	r := gin.New()
	r.Use(middleware.Recovery())
	Setup(r,
		handler.NewAuthHandler(service.NewAuthService(hash)),
		handler.NewCrawlerHandler(taskService, crawlerService),
		handler.NewSearchHandler(searchService),
	)
	env.engine = r
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *testEnv) token(t *testing.T) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/auth/token", "", dto.TokenRequest{Service: "analysis", AdminKey: "admin-key-123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data dto.TokenData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data.Token
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp struct {
		Error map[string]any `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestAuthToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/auth/token", "", dto.TokenRequest{Service: "analysis", AdminKey: "wrong-key-123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/auth/token", "", map[string]string{"service": "analysis"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.NotEmpty(t, env.token(t))
}

func TestCrawlerRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/crawler/bilibili/bv_to_aid?bv_id=BV17x411w7KC", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "/api/v1/crawler/bilibili/bv_to_aid", errorBody(t, w)["router"])

	w = env.do(t, http.MethodGet, "/api/v1/crawler/bilibili/bv_to_aid?bv_id=BV17x411w7KC", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateAndGetTask(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t)

	w := env.do(t, http.MethodPost, "/api/v1/crawler/tasks", token, dto.CreateTaskRequest{InputContent: "BV18x411c74Q", StartPage: 2})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	require.Len(t, env.dispatched, 1)
	assert.Equal(t, 2, env.dispatched[0].StartPage)

	w = env.do(t, http.MethodGet, "/api/v1/crawler/tasks/1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Code int          `json:"code"`
		Data dto.TaskInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "BV18x411c74Q", resp.Data.ResourceID)
	assert.Equal(t, model.TaskPending, resp.Data.Status)

	w = env.do(t, http.MethodGet, "/api/v1/crawler/tasks/42", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/crawler/tasks/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/crawler/tasks", token, dto.CreateTaskRequest{InputContent: "no video here"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/crawler/tasks", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)
}

func TestBVToAIDRoute(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t)

	w := env.do(t, http.MethodGet, "/api/v1/crawler/bilibili/bv_to_aid?bv_id=BV17x411w7KC", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"aid":170001`)

	w = env.do(t, http.MethodGet, "/api/v1/crawler/bilibili/bv_to_aid?bv_id=BV1", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/crawler/bilibili/bv_to_aid", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCookieWebhook(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t)

	w := env.do(t, http.MethodPut, "/api/v1/crawler/platforms/bilibili/cookie", token, dto.CookieUpdateRequest{Test: true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Test successful")
	assert.Equal(t, "SESSDATA=old", env.creds.Load().Cookie)

	w = env.do(t, http.MethodPut, "/api/v1/crawler/platforms/bilibili/cookie", token, dto.CookieUpdateRequest{Cookie: "SESSDATA=new", Timestamp: "1714550400"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "SESSDATA=new", env.creds.Load().Cookie)

	w = env.do(t, http.MethodPut, "/api/v1/crawler/platforms/tiktok/cookie", token, dto.CookieUpdateRequest{Cookie: "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchDisabled(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/crawler/bilibili/comments/search?q=hi", env.token(t), nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
