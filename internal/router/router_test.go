package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"agri-advisor-backend/internal/handlers"
	"agri-advisor-backend/internal/middleware"
	"agri-advisor-backend/internal/models"
	"agri-advisor-backend/internal/services"
	"agri-advisor-backend/internal/simulation"
	"agri-advisor-backend/internal/websocket"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestRouter(t *testing.T, chatPerMin int) http.Handler {
	t.Helper()
	jwtAuth := middleware.NewJWTAuth("router-secret")
	relay := services.NewChatRelay(services.NewOfflineGenerator(), services.ChatOptions{Timeout: time.Second})
	rng := simulation.NewRand(1)
	activities := services.NewActivityService(nil)

	h, closeLimiters := New(jwtAuth, Handlers{
		Auth:    handlers.NewAuthHandler(services.NewAuthService(nil, nil, jwtAuth)),
		User:    handlers.NewUserHandler(services.NewAuthService(nil, nil, jwtAuth)),
		Chat:    handlers.NewChatHandler(relay),
		Farm:    handlers.NewFarmHandler(simulation.NewWeather(rng), simulation.NewMarket(rng), simulation.NewFertilizer(), activities),
		Disease: handlers.NewDiseaseHandler(nil),
		Reports: handlers.NewReportsHandler(activities, nil),
		Contact: handlers.NewContactHandler(nil),
		Hub:     websocket.NewHub(nil, jwtAuth),
	}, Options{FrontendURL: "http://localhost:3000", ChatRequestsPerMin: chatPerMin})
	t.Cleanup(closeLimiters)
	return h
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	rr := do(newTestRouter(t, 0), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestChatRoute(t *testing.T) {
	h := newTestRouter(t, 0)

	rr := do(h, http.MethodPost, "/api/chat", `{"message":"How do I control pests in wheat?"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp models.ChatResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Response)
	assert.False(t, resp.Timestamp.IsZero())

	rr = do(h, http.MethodPost, "/api/chat", `{"message":""}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"Message is required"}`, rr.Body.String())

	rr = do(h, http.MethodGet, "/api/chat/quick-replies", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestChatRouteIsRateLimited(t *testing.T) {
	h := newTestRouter(t, 2)

	var codes []int
	for i := 0; i < 3; i++ {
		codes = append(codes, do(h, http.MethodPost, "/api/chat", `{"message":"hello"}`).Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	h := newTestRouter(t, 0)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/user/me"},
		{http.MethodGet, "/api/v1/dashboard"},
		{http.MethodGet, "/api/v1/reports"},
		{http.MethodPost, "/api/v1/disease-detection"},
		{http.MethodPost, "/api/v1/auth/logout"},
		{http.MethodGet, "/api/v1/ws"},
	} {
		rr := do(h, route.method, route.path, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, route.path)
	}
}

func TestPublicToolsWorkAnonymously(t *testing.T) {
	h := newTestRouter(t, 0)

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/v1/weather?location=Pune", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/v1/market-prices", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/api/v1/fertilizer/recommendation",
		`{"soilType":"Clay","pH":7.2,"crop":"rice"}`).Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(t, 0)

	tests := []struct {
		name        string
		origin      string
		headers     string
		wantOrigin  string
		wantHeaders bool
	}{
		{"frontend with content-type", "http://localhost:3000", "content-type", "http://localhost:3000", true},
		{"frontend with auth", "http://localhost:3000", "authorization,content-type", "http://localhost:3000", true},
		{"unknown origin", "http://evil.example", "content-type", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			req.Header.Set("Access-Control-Request-Headers", tt.headers)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantOrigin, rr.Header().Get("Access-Control-Allow-Origin"))
			allowed := strings.ToLower(rr.Header().Get("Access-Control-Allow-Headers"))
			assert.Equal(t, tt.wantHeaders, strings.Contains(allowed, "content-type"))
		})
	}
}
