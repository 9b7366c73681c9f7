package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"favlinks/internal/config"
	"favlinks/internal/models"
	"favlinks/internal/repository"
	"favlinks/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	return config.Config{
		AppEnv:        "test",
		SessionSecret: "test-secret-12345678901234567890123456789012",
		SessionStore:  "database",
		SessionMaxAge: 24 * time.Hour,
	}
}

func setupTestHandler(t *testing.T) (*Handler, *repository.Pool) {
	t.Helper()
	return setupTestHandlerWithConfig(t, testConfig())
}

func setupTestHandlerWithConfig(t *testing.T, cfg config.Config) (*Handler, *repository.Pool) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	pool, err := repository.Open(config.Config{DBDriver: "sqlite", DBName: ":memory:"}, logger)
	require.NoError(t, err)
	require.NoError(t, pool.Migrate())
	t.Cleanup(func() { pool.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	audit := services.NewAuditService(pool.DB(context.Background()), logger)
	go audit.Start(ctx)

	userRepo := repository.NewUserRepository(pool)
	h := NewHandler(
		cfg,
		logger,
		pool,
		services.NewUserService(userRepo, audit),
		services.NewLocalStrategy(userRepo),
		services.NewLinkService(repository.NewLinkRepository(pool), audit),
		audit,
	)
	return h, pool
}

func setupTestRouter(t *testing.T, h *Handler) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := NewSessionStore(h.cfg, h.pool.DB(context.Background()))
	r, err := h.SetupRouter(nil, nil, store)
	require.NoError(t, err)
	return r
}

// testClient replays cookies between requests like a browser.
type testClient struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
}

func newTestClient(t *testing.T, handler http.Handler) *testClient {
	return &testClient{t: t, handler: handler, cookies: map[string]*http.Cookie{}}
}

func (tc *testClient) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	tc.t.Helper()
	if form == nil {
		return tc.send(method, target, "", nil)
	}
	return tc.send(method, target, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
}

func (tc *testClient) send(method, target, contentType string, body io.Reader) *httptest.ResponseRecorder {
	tc.t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, ck := range tc.cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	tc.handler.ServeHTTP(w, req)

	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(tc.cookies, ck.Name)
			continue
		}
		tc.cookies[ck.Name] = ck
	}
	return w
}

func (tc *testClient) get(target string) *httptest.ResponseRecorder {
	return tc.do(http.MethodGet, target, nil)
}

func (tc *testClient) post(target string, form url.Values) *httptest.ResponseRecorder {
	return tc.do(http.MethodPost, target, form)
}

func (tc *testClient) postJSON(target string, payload interface{}) *httptest.ResponseRecorder {
	tc.t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(tc.t, err)
	return tc.send(http.MethodPost, target, "application/json", bytes.NewReader(body))
}

// follow requests the Location of a redirect response.
func (tc *testClient) follow(w *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	tc.t.Helper()
	require.Equal(tc.t, http.StatusFound, w.Code)
	return tc.get(w.Header().Get("Location"))
}

func registerForm(username, password string) url.Values {
	return url.Values{
		"username":         {username},
		"password":         {password},
		"confirm_password": {password},
	}
}

func loginForm(username, password string) url.Values {
	return url.Values{"username": {username}, "password": {password}}
}

// loggedInClient registers username and returns a client holding its session.
func loggedInClient(t *testing.T, r http.Handler, username string) *testClient {
	t.Helper()
	tc := newTestClient(t, r)
	w := tc.post("/auth/register", registerForm(username, "secret1"))
	require.Equal(t, "/auth/login", w.Header().Get("Location"))
	w = tc.post("/auth/login", loginForm(username, "secret1"))
	require.Equal(t, "/links", w.Header().Get("Location"))
	return tc
}

type mockStrategy struct {
	mock.Mock
}

func (m *mockStrategy) Verify(ctx context.Context, username, password string) (*models.SessionUser, error) {
	args := m.Called(ctx, username, password)
	user, _ := args.Get(0).(*models.SessionUser)
	return user, args.Error(1)
}

func (m *mockStrategy) LoadByID(ctx context.Context, id uint) (*models.SessionUser, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.SessionUser)
	return user, args.Error(1)
}
