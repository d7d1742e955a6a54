package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bilgisen/newshub/internal/ai"
	"github.com/bilgisen/newshub/internal/metrics"
	"github.com/bilgisen/newshub/internal/middleware"
	"github.com/bilgisen/newshub/internal/models"
)

type fakeBoard struct {
	snap *models.Snapshot
}

func (f *fakeBoard) Snapshot() *models.Snapshot { return f.snap }

type fakeRefresher struct {
	calls int
	snap  *models.Snapshot
}

func (f *fakeRefresher) RefreshNow(ctx context.Context) *models.Snapshot {
	f.calls++
	return f.snap
}

type fakeResolver struct{}

func (fakeResolver) Resolve(ctx context.Context, link string) string {
	return "https://publisher.example.com/story"
}

type fakeSummarizer struct {
	text   string
	err    error
	prompt string
}

func (f *fakeSummarizer) Summarize(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.text, f.err
}

func testSnapshot() *models.Snapshot {
	now := time.Date(2026, 10, 19, 0, 30, 0, 0, time.UTC)
	return &models.Snapshot{
		CycleID:     "cycle-1",
		CompletedAt: now,
		Categories: []models.CategoryResult{
			{
				Category: "AI & Tech",
				Kind:     models.KindSearch,
				Status:   models.StatusOK,
				Items: []models.NewsItem{
					{ID: "aaa", Category: "AI & Tech", Title: "NVIDIA posts record revenue", Link: "https://news.google.com/rss/articles/1", Source: "Reuters", PublishedAt: now.Add(-time.Minute)},
					{ID: "bbb", Category: "AI & Tech", Title: "Tesla unveils robot", Link: "https://news.google.com/rss/articles/2", Source: "Bloomberg", PublishedAt: now.Add(-5 * time.Minute)},
				},
			},
			{
				Category: "Market",
				Kind:     models.KindAPI,
				Status:   models.StatusConfigError,
				Message:  "Source is not configured",
			},
		},
	}
}

func newTestApp(t *testing.T, snap *models.Snapshot, summarizer Summarizer, cfg RouteConfig) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	h := NewHandlers(Options{
		Board:      &fakeBoard{snap: snap},
		Refresher:  &fakeRefresher{snap: snap},
		Resolver:   fakeResolver{},
		Summarizer: summarizer,
		ChatURL:    "https://chat.example.com/",
	})
	SetupRoutes(app, h, cfg)
	return app
}

func call(t *testing.T, app *fiber.App, method, target string, headers map[string]string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var payload map[string]any
	if len(body) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(body, &payload))
	}
	return resp.StatusCode, payload
}

func TestHealthCheck(t *testing.T) {
	app := newTestApp(t, testSnapshot(), nil, RouteConfig{})
	status, body := call(t, app, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "cycle-1", body["cycle_id"])
}

func TestListNews(t *testing.T) {
	app := newTestApp(t, testSnapshot(), nil, RouteConfig{})

	status, body := call(t, app, http.MethodGet, "/api/v1/news?limit=1", nil)
	require.Equal(t, fiber.StatusOK, status)
	categories := body["categories"].([]any)
	require.Len(t, categories, 2)

	first := categories[0].(map[string]any)
	assert.Equal(t, "AI & Tech", first["category"])
	assert.Len(t, first["items"], 1)

	second := categories[1].(map[string]any)
	assert.Equal(t, "config_error", second["status"])
	assert.Equal(t, []any{}, second["items"])

	status, _ = call(t, app, http.MethodGet, "/api/v1/news?limit=9999", nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
}

func TestListNewsBeforeFirstCycle(t *testing.T) {
	app := newTestApp(t, nil, nil, RouteConfig{})
	status, body := call(t, app, http.MethodGet, "/api/v1/news", nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "news board is not ready yet", body["error"])
}

func TestGetCategory(t *testing.T) {
	app := newTestApp(t, testSnapshot(), nil, RouteConfig{})

	status, body := call(t, app, http.MethodGet, "/api/v1/news/"+url.PathEscape("AI & Tech"), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["items"], 2)

	status, _ = call(t, app, http.MethodGet, "/api/v1/news/Nope", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestHandoff(t *testing.T) {
	app := newTestApp(t, testSnapshot(), nil, RouteConfig{})

	status, body := call(t, app, http.MethodGet, "/api/v1/news/"+url.PathEscape("AI & Tech")+"/aaa/handoff", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "https://publisher.example.com/story", body["resolved_link"])

	prompt := body["prompt"].(string)
	assert.Contains(t, prompt, "Title: NVIDIA posts record revenue")
	assert.Contains(t, prompt, "Link: https://publisher.example.com/story")

	chat, err := url.Parse(body["chat_url"].(string))
	require.NoError(t, err)
	assert.Equal(t, "chat.example.com", chat.Host)
	assert.Equal(t, prompt, chat.Query().Get("q"))

	status, _ = call(t, app, http.MethodGet, "/api/v1/news/"+url.PathEscape("AI & Tech")+"/zzz/handoff", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestSummarize(t *testing.T) {
	target := "/api/v1/news/" + url.PathEscape("AI & Tech") + "/bbb/summary"

	status, _ := call(t, newTestApp(t, testSnapshot(), nil, RouteConfig{}), http.MethodPost, target, nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)

	summarizer := &fakeSummarizer{text: "```\n테슬라가 휴머노이드 로봇을 공개했다.\n```"}
	status, body := call(t, newTestApp(t, testSnapshot(), summarizer, RouteConfig{}), http.MethodPost, target, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "테슬라가 휴머노이드 로봇을 공개했다.", body["summary"])
	assert.Contains(t, summarizer.prompt, "Title: Tesla unveils robot")

	failing := &fakeSummarizer{err: errors.New("quota exceeded")}
	status, _ = call(t, newTestApp(t, testSnapshot(), failing, RouteConfig{}), http.MethodPost, target, nil)
	assert.Equal(t, fiber.StatusBadGateway, status)

	unconfigured := &fakeSummarizer{err: ai.ErrNotConfigured}
	status, _ = call(t, newTestApp(t, testSnapshot(), unconfigured, RouteConfig{}), http.MethodPost, target, nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
}

func TestAccessTokenGuardsNews(t *testing.T) {
	app := newTestApp(t, testSnapshot(), nil, RouteConfig{AccessToken: "viewer"})

	status, _ := call(t, app, http.MethodGet, "/api/v1/news", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = call(t, app, http.MethodGet, "/api/v1/news", map[string]string{"X-API-Key": "viewer"})
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = call(t, app, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestAdminRefresh(t *testing.T) {
	refresher := &fakeRefresher{snap: testSnapshot()}
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	SetupRoutes(app, NewHandlers(Options{Board: &fakeBoard{}, Refresher: refresher}), RouteConfig{AdminAPIKey: "admin"})

	status, _ := call(t, app, http.MethodPost, "/api/v1/admin/refresh", map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, 0, refresher.calls)

	status, body := call(t, app, http.MethodPost, "/api/v1/admin/refresh", map[string]string{"X-API-Key": "admin"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 1, refresher.calls)
	assert.Equal(t, "cycle-1", body["cycle_id"])
	assert.EqualValues(t, 2, body["items"])
	assert.Equal(t, map[string]any{"AI & Tech": "ok", "Market": "config_error"}, body["statuses"])
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.ObserveCategory("AI & Tech", "ok", 2)

	app := newTestApp(t, testSnapshot(), nil, RouteConfig{Gatherer: reg})
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "newshub_")
}

func TestUnknownEndpoint(t *testing.T) {
	app := newTestApp(t, testSnapshot(), nil, RouteConfig{})
	status, body := call(t, app, http.MethodGet, "/nope", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "Endpoint not found", body["error"])
}
