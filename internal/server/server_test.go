package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kapu/linkedin-profile-edge/internal/config"
	"github.com/kapu/linkedin-profile-edge/internal/domain"
	"github.com/kapu/linkedin-profile-edge/internal/service/cache"
	"github.com/kapu/linkedin-profile-edge/internal/service/chat"
	"github.com/kapu/linkedin-profile-edge/internal/service/profile"
	apperrors "github.com/kapu/linkedin-profile-edge/pkg/errors"
)

type stubFetcher struct {
	mu      sync.Mutex
	records map[string]domain.ProfileRecord
	err     error
	calls   []string
}

func (f *stubFetcher) Fetch(_ context.Context, username string) (domain.ProfileRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, username)
	if f.err != nil {
		return nil, f.err
	}
	return f.records[username], nil
}

type stubProvider struct {
	turn     *chat.Turn
	startErr error
	final    string
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Start(context.Context, string) (*chat.Turn, error) {
	return p.turn, p.startErr
}

func (p *stubProvider) Resume(context.Context, string, *chat.Turn, string) (string, error) {
	return p.final, nil
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("store unavailable")
}
func (brokenStore) Put(context.Context, string, string) error { return errors.New("store unavailable") }
func (brokenStore) Ping(context.Context) error               { return errors.New("store unavailable") }
func (brokenStore) Name() string                             { return "broken" }
func (brokenStore) Close() error                             { return nil }

type testEnv struct {
	store   cache.Store
	fetcher *stubFetcher
	handler http.Handler
}

func newTestEnv(t *testing.T, store cache.Store, provider chat.Provider) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	fetcher := &stubFetcher{records: map[string]domain.ProfileRecord{
		"johndoe": domain.ProfileRecord(`{"username":"johndoe","firstName":"John"}`),
		"janedoe": domain.ProfileRecord(`{"username":"janedoe","firstName":"Jane"}`),
	}}
	gateway := profile.NewCacheGateway(store, logger)
	scraper := profile.NewScraper(gateway, fetcher, logger)
	if provider == nil {
		provider = &stubProvider{turn: &chat.Turn{Text: "Hello!"}}
	}
	bridge := chat.NewBridge(provider, scraper, logger)

	srv := NewServer(scraper, gateway, bridge, config.ServerConfig{Port: "8787", AllowedOrigin: "*"}, logger)
	return &testEnv{store: store, fetcher: fetcher, handler: srv.Router()}
}

func (e *testEnv) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec, decoded
}

func TestLinkedInProfileFetchesAndCaches(t *testing.T) {
	env := newTestEnv(t, cache.NewMemoryStore(), nil)

	rec, body := env.do(t, http.MethodGet, "/api/linkedin-profile?linkedinUrl=https://www.linkedin.com/in/johndoe/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "John", body["firstName"])
	require.Equal(t, []string{"johndoe"}, env.fetcher.calls)

	cached, found, err := env.store.Get(context.Background(), "johndoe")
	require.NoError(t, err)
	require.True(t, found)
	require.JSONEq(t, `{"username":"johndoe","firstName":"John"}`, cached)

	rec, _ = env.do(t, http.MethodGet, "/api/linkedin-profile?linkedinUrl=linkedin.com/in/johndoe", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, env.fetcher.calls, 1, "second request should be served from cache")
}

func TestLinkedInProfileValidation(t *testing.T) {
	env := newTestEnv(t, cache.NewMemoryStore(), nil)

	rec, body := env.do(t, http.MethodGet, "/api/linkedin-profile", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "linkedinUrl query parameter is required", body["error"])

	rec, body = env.do(t, http.MethodGet, "/api/linkedin-profile?linkedinUrl=https://example.com/people/john", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Could not extract a valid LinkedIn username.", body["error"])
	require.Empty(t, env.fetcher.calls)
}

func TestLinkedInProfileUpstreamFailure(t *testing.T) {
	env := newTestEnv(t, cache.NewMemoryStore(), nil)
	env.fetcher.err = apperrors.NewUpstreamError("rapidapi", "Failed to fetch data from LinkedIn API: Profile not found", http.StatusNotFound, "Profile not found")

	rec, body := env.do(t, http.MethodGet, "/api/linkedin-profile?linkedinUrl=ghost", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, body["error"], "Profile not found")
}

func TestLinkedInProfileMissingCredential(t *testing.T) {
	env := newTestEnv(t, cache.NewMemoryStore(), nil)
	env.fetcher.err = apperrors.NewConfigError("API key is not configured on the server.", "RAPIDAPI_KEY")

	rec, body := env.do(t, http.MethodGet, "/api/linkedin-profile?linkedinUrl=johndoe", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "API key is not configured on the server.", body["error"])
}

func TestLinkedInProfileSurvivesBrokenStore(t *testing.T) {
	env := newTestEnv(t, brokenStore{}, nil)

	rec, body := env.do(t, http.MethodGet, "/api/linkedin-profile?linkedinUrl=johndoe", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "johndoe", body["username"])
}

func TestCachedProfile(t *testing.T) {
	store := cache.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "johndoe", `{"username":"johndoe"}`))
	require.NoError(t, store.Put(context.Background(), "corrupt", `{not json`))
	env := newTestEnv(t, store, nil)

	rec, body := env.do(t, http.MethodGet, "/api/cached-profile?username=johndoe", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "johndoe", body["username"])

	rec, body = env.do(t, http.MethodGet, "/api/cached-profile?username=nouser", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, map[string]any{"error": "Profile not found in cache for the given username."}, body)

	rec, body = env.do(t, http.MethodGet, "/api/cached-profile", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "username query parameter is required", body["error"])

	rec, body = env.do(t, http.MethodGet, "/api/cached-profile?username=corrupt", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Failed to retrieve profile from cache.", body["error"])
	require.NotEmpty(t, body["details"])
	require.Empty(t, env.fetcher.calls)
}

func TestCachedProfileNormalizesUsername(t *testing.T) {
	env := newTestEnv(t, cache.NewMemoryStore(), nil)

	rec, _ := env.do(t, http.MethodGet, "/api/linkedin-profile?linkedinUrl=https://www.linkedin.com/in/JohnDoe", "")
	require.Equal(t, http.StatusOK, rec.Code)

	for _, username := range []string{"JohnDoe", "%20johndoe/", "https://www.linkedin.com/in/JohnDoe/"} {
		rec, body := env.do(t, http.MethodGet, "/api/cached-profile?username="+username, "")
		require.Equal(t, http.StatusOK, rec.Code, username)
		require.Equal(t, "johndoe", body["username"], username)
	}

	rec, body := env.do(t, http.MethodGet, "/api/cached-profile?username=john%20doe!", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Could not extract a valid LinkedIn username.", body["error"])
	require.Len(t, env.fetcher.calls, 1)
}

func TestCachedProfileStoreError(t *testing.T) {
	env := newTestEnv(t, brokenStore{}, nil)

	rec, body := env.do(t, http.MethodGet, "/api/cached-profile?username=johndoe", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Failed to retrieve profile from cache.", body["error"])
	require.Equal(t, "store unavailable", body["details"])
}

func TestDebugEndpoint(t *testing.T) {
	store := cache.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "johndoe", `{"username":"johndoe"}`))
	env := newTestEnv(t, store, nil)

	rec, body := env.do(t, http.MethodGet, "/api/debug?url=https://www.linkedin.com/in/JohnDoe/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "johndoe", body["username"])
	require.Equal(t, "HIT", body["cache_status"])
	require.EqualValues(t, len(`{"username":"johndoe"}`), body["cache_data_length"])
	require.NotEmpty(t, body["timestamp"])

	rec, body = env.do(t, http.MethodGet, "/api/debug?url=janedoe", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "MISS", body["cache_status"])
	require.EqualValues(t, 0, body["cache_data_length"])

	rec, body = env.do(t, http.MethodGet, "/api/debug?url=https://example.com/nobody", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, body, "username")
	require.Nil(t, body["username"])
	require.Equal(t, "N/A", body["cache_status"])
	require.Equal(t, "Could not extract username from URL", body["error"])

	rec, body = env.do(t, http.MethodGet, "/api/debug", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "/api/debug?url=https://linkedin.com/in/example", body["example"])
	require.Empty(t, env.fetcher.calls)
}

func TestDebugEndpointStoreError(t *testing.T) {
	env := newTestEnv(t, brokenStore{}, nil)

	rec, body := env.do(t, http.MethodGet, "/api/debug?url=johndoe", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ERROR", body["cache_status"])
	require.Equal(t, "store unavailable", body["error"])
}

func TestDebugCache(t *testing.T) {
	env := newTestEnv(t, cache.NewMemoryStore(), nil)

	rec, body := env.do(t, http.MethodGet, "/api/debug/cache", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Cache debug endpoint", body["message"])
	require.Equal(t, "memory", body["store"])
}

func TestChatToolScenario(t *testing.T) {
	provider := &stubProvider{
		turn: &chat.Turn{ToolCall: &chat.ToolCall{
			ID:   "toolu_1",
			Name: "scrape_linkedin_profile",
			URL:  "https://linkedin.com/in/janedoe",
		}},
		final: "Jane Doe works as an engineer.",
	}
	env := newTestEnv(t, cache.NewMemoryStore(), provider)

	rec, body := env.do(t, http.MethodPost, "/api/chat", `{"message":"Look up https://linkedin.com/in/janedoe"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["tool_used"])
	require.Equal(t, "Jane Doe works as an engineer.", body["response"])
	require.NotEmpty(t, body["profile_data"])
	require.NotContains(t, body, "error")
	require.Equal(t, []string{"janedoe"}, env.fetcher.calls)
}

func TestChatPlainAndErrors(t *testing.T) {
	env := newTestEnv(t, cache.NewMemoryStore(), nil)

	rec, body := env.do(t, http.MethodPost, "/api/chat", `{"message":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Hello!", body["response"])
	require.Equal(t, false, body["tool_used"])
	require.NotContains(t, body, "profile_data")

	rec, body = env.do(t, http.MethodPost, "/api/chat", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Message is required", body["error"])

	rec, _ = env.do(t, http.MethodPost, "/api/chat", `{not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	env = newTestEnv(t, cache.NewMemoryStore(), &stubProvider{
		startErr: apperrors.NewConfigError("Anthropic API key is not configured", "ANTHROPIC_API_KEY"),
	})
	rec, body = env.do(t, http.MethodPost, "/api/chat", `{"message":"hi"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Anthropic API key is not configured", body["error"])

	env = newTestEnv(t, cache.NewMemoryStore(), &stubProvider{
		startErr: apperrors.NewUpstreamError("anthropic", "Failed to get response from chat API", http.StatusUnauthorized, ""),
	})
	rec, body = env.do(t, http.MethodPost, "/api/chat", `{"message":"hi"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Failed to get response from chat API", body["error"])
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t, cache.NewMemoryStore(), nil)

	rec, body := env.do(t, http.MethodGet, "/api/unknown", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Not Found", body["error"])
	require.Equal(t, "The resource /api/unknown was not found.", body["message"])

	rec, _ = env.do(t, http.MethodDelete, "/api/chat", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, cache.NewMemoryStore(), nil)

	rec, body := env.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", body["status"])

	rec, body = env.do(t, http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", body["status"])

	env = newTestEnv(t, brokenStore{}, nil)
	rec, body = env.do(t, http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "degraded", body["status"])
}

func TestMiddlewareHeaders(t *testing.T) {
	env := newTestEnv(t, cache.NewMemoryStore(), nil)

	rec, _ := env.do(t, http.MethodGet, "/health", "")
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec, _ = env.do(t, http.MethodOptions, "/api/chat", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRecovererReturnsJSON(t *testing.T) {
	handler := recoverer(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Internal Server Error", body["error"])
	require.Equal(t, "boom", body["message"])
}

func TestStartReturnsAfterCancel(t *testing.T) {
	logger := zap.NewNop()
	gateway := profile.NewCacheGateway(cache.NewMemoryStore(), logger)
	srv := NewServer(nil, gateway, nil, config.ServerConfig{Port: "0"}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, srv.Start(ctx, "127.0.0.1:0"))
}
