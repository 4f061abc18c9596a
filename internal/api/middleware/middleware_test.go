package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func whoami(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(UserID(r.Context())))
}

func signed(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuthHeaderMode(t *testing.T) {
	require := require.New(t)
	h := Auth("")(http.HandlerFunc(whoami))

	req := httptest.NewRequest(http.MethodGet, "/api/trips/t1/schedule", nil)
	req.Header.Set(UserIDHeader, "alice")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(http.StatusOK, rec.Code)
	require.Equal("alice", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ws?userId=bob", nil))
	require.Equal("bob", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trips/t1/schedule", nil))
	require.Equal(http.StatusUnauthorized, rec.Code)
	var body ErrorResponse
	require.NoError(json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(ErrUnauthorized, body.Error)
}

func TestAuthJWTMode(t *testing.T) {
	require := require.New(t)
	const secret = "s3cret"
	h := Auth(secret)(http.HandlerFunc(whoami))

	serve := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/trips/t1/schedule", nil)
		req.Header.Set(UserIDHeader, "mallory")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := serve(signed(t, secret, jwt.RegisteredClaims{Subject: "alice"}))
	require.Equal(http.StatusOK, rec.Code)
	require.Equal("alice", rec.Body.String())

	require.Equal(http.StatusUnauthorized, serve("").Code)
	require.Equal(http.StatusUnauthorized, serve(signed(t, "other", jwt.RegisteredClaims{Subject: "alice"})).Code)
	require.Equal(http.StatusUnauthorized, serve(signed(t, secret, jwt.RegisteredClaims{})).Code)
	require.Equal(http.StatusUnauthorized, serve(signed(t, secret, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/ws?access_token="+signed(t, secret, jwt.RegisteredClaims{Subject: "bob"}), nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal("bob", rec.Body.String())
}

func TestErrorRecovery(t *testing.T) {
	require := require.New(t)
	h := ErrorRecovery(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(http.StatusInternalServerError, rec.Code)
	var body ErrorResponse
	require.NoError(json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(ErrInternalError, body.Error)
}

type recordedRequest struct {
	method, route string
	status        int
}

type requestRecorder struct{ got []recordedRequest }

func (r *requestRecorder) ObserveRequest(method, route string, status int, _ time.Duration) {
	r.got = append(r.got, recordedRequest{method, route, status})
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	require := require.New(t)
	obs := &requestRecorder{}

	r := mux.NewRouter()
	r.Use(Logging(zap.NewNop()))
	r.Use(Metrics(obs))
	r.HandleFunc("/api/trips/{tripId}/lock", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}).Methods(http.MethodPost)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/trips/t1/lock", nil))
	require.Equal(http.StatusTeapot, rec.Code)
	require.Equal([]recordedRequest{{http.MethodPost, "/api/trips/{tripId}/lock", http.StatusTeapot}}, obs.got)
}
