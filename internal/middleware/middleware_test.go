package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	j := NewJWTAuth("test-secret")
	id := uuid.New()

	token, err := j.GenerateAccessToken(id, "ravi@example.com", "farmer")
	require.NoError(t, err)

	session, err := j.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, Session{UserID: id, Email: "ravi@example.com", Role: "farmer"}, *session)
}

func TestParseAccessTokenRejects(t *testing.T) {
	j := NewJWTAuth("test-secret")
	id := uuid.New()

	other := NewJWTAuth("other-secret")
	forged, err := other.GenerateAccessToken(id, "a@b.co", "farmer")
	require.NoError(t, err)
	_, err = j.ParseAccessToken(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	past := NewJWTAuth("test-secret")
	past.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, err := past.GenerateAccessToken(id, "a@b.co", "farmer")
	require.NoError(t, err)
	_, err = j.ParseAccessToken(expired)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = j.ParseAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	j := NewJWTAuth("test-secret")
	id := uuid.New()
	token, err := j.GenerateAccessToken(id, "a@b.co", "expert")
	require.NoError(t, err)

	var got Session
	h := j.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = SessionFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantError  string
	}{
		{"valid", "Bearer " + token, http.StatusNoContent, ""},
		{"missing", "", http.StatusUnauthorized, "Missing authorization header"},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized, "Invalid authorization format"},
		{"garbage", "Bearer nope", http.StatusUnauthorized, "Invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/user/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantError != "" {
				var body map[string]string
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
				assert.Equal(t, tt.wantError, body["error"])
			} else {
				assert.Equal(t, id, got.UserID)
				assert.Equal(t, "expert", got.Role)
			}
		})
	}
}

func TestOptionalMiddlewareAllowsAnonymous(t *testing.T) {
	j := NewJWTAuth("test-secret")
	var hasSession bool
	h := j.OptionalMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasSession = SessionFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.False(t, hasSession)
	assert.Equal(t, uuid.Nil, GetUserID(req.Context()))
}

func TestRateLimiterRejectsBurst(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Close()

	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
		req.RemoteAddr = "10.0.0.7:5123" // port changes must not matter
		if i%2 == 1 {
			req.RemoteAddr = "10.0.0.7:6000"
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{200, 200, 200, 429, 429}, codes)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.RemoteAddr = "10.0.0.8:5123"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)
}
