package api

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/bilgisen/newshub/internal/ai"
	"github.com/bilgisen/newshub/internal/logger"
	"github.com/bilgisen/newshub/internal/middleware"
	"github.com/bilgisen/newshub/internal/models"
)

const version = "1.0.0"

// BoardReader exposes the latest published snapshot.
type BoardReader interface {
	Snapshot() *models.Snapshot
}

// Refresher runs a refresh cycle on demand.
type Refresher interface {
	RefreshNow(ctx context.Context) *models.Snapshot
}

// LinkResolver turns redirect links into publisher URLs.
type LinkResolver interface {
	Resolve(ctx context.Context, link string) string
}

// Summarizer produces a server-side summary for a prompt.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// NewsQuery are the query parameters accepted by the news endpoints.
type NewsQuery struct {
	Limit int `query:"limit" validate:"gte=0,lte=500"`
}

// Options wires the handler dependencies. Resolver and Summarizer are optional.
type Options struct {
	Board          BoardReader
	Refresher      Refresher
	Resolver       LinkResolver
	Summarizer     Summarizer
	ChatURL        string
	PromptLanguage string
	RefreshTimeout time.Duration
}

type Handlers struct {
	board          BoardReader
	refresher      Refresher
	resolver       LinkResolver
	summarizer     Summarizer
	postProc       *ai.PostProcessor
	chatURL        string
	promptLanguage string
	refreshTimeout time.Duration
}

func NewHandlers(opts Options) *Handlers {
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = 2 * time.Minute
	}
	return &Handlers{
		board:          opts.Board,
		refresher:      opts.Refresher,
		resolver:       opts.Resolver,
		summarizer:     opts.Summarizer,
		postProc:       ai.NewPostProcessor(),
		chatURL:        opts.ChatURL,
		promptLanguage: opts.PromptLanguage,
		refreshTimeout: opts.RefreshTimeout,
	}
}

// HealthCheck handles GET /api/v1/health
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	resp := fiber.Map{
		"status":  "ok",
		"version": version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}
	if snap := h.board.Snapshot(); snap != nil {
		resp["cycle_id"] = snap.CycleID
		resp["last_cycle"] = snap.CompletedAt.Format(time.RFC3339)
	}
	return c.JSON(resp)
}

// ListNews handles GET /api/v1/news
func (h *Handlers) ListNews(c *fiber.Ctx) error {
	snap, err := h.snapshot()
	if err != nil {
		return err
	}
	limit := middleware.Query[NewsQuery](c).Limit

	categories := make([]models.CategoryResult, 0, len(snap.Categories))
	for _, res := range snap.Categories {
		categories = append(categories, limitItems(res, limit))
	}

	return c.JSON(fiber.Map{
		"cycle_id":     snap.CycleID,
		"completed_at": snap.CompletedAt,
		"categories":   categories,
	})
}

// GetCategory handles GET /api/v1/news/:category
func (h *Handlers) GetCategory(c *fiber.Ctx) error {
	snap, err := h.snapshot()
	if err != nil {
		return err
	}

	res, ok := snap.Category(param(c, "category"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "category not found")
	}
	return c.JSON(limitItems(res, middleware.Query[NewsQuery](c).Limit))
}

// Handoff handles GET /api/v1/news/:category/:id/handoff. It resolves the
// article link and returns the prompt and the chat URL carrying it.
func (h *Handlers) Handoff(c *fiber.Ctx) error {
	item, err := h.findItem(c)
	if err != nil {
		return err
	}

	link := h.resolve(c.UserContext(), item.Link)
	prompt := ai.BuildHandoffPrompt(item, link, h.promptLanguage)
	chatURL, err := ai.ChatLink(h.chatURL, prompt)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"item":          item,
		"resolved_link": link,
		"prompt":        prompt,
		"chat_url":      chatURL,
	})
}

// Summarize handles POST /api/v1/news/:category/:id/summary
func (h *Handlers) Summarize(c *fiber.Ctx) error {
	if h.summarizer == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, ai.ErrNotConfigured.Error())
	}

	item, err := h.findItem(c)
	if err != nil {
		return err
	}

	log := logger.With("api")
	link := h.resolve(c.UserContext(), item.Link)
	prompt := ai.BuildHandoffPrompt(item, link, h.promptLanguage)

	text, err := h.summarizer.Summarize(c.UserContext(), prompt)
	if errors.Is(err, ai.ErrNotConfigured) {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	if err != nil {
		log.Error().Err(err).Str("id", item.ID).Msg("Summary request failed")
		return fiber.NewError(fiber.StatusBadGateway, "summary request failed")
	}

	summary, err := h.postProc.ProcessSummary(text)
	if err != nil {
		log.Warn().Err(err).Str("id", item.ID).Msg("Discarding unusable summary")
		return fiber.NewError(fiber.StatusBadGateway, "summary was empty")
	}

	return c.JSON(fiber.Map{
		"id":            item.ID,
		"category":      item.Category,
		"resolved_link": link,
		"summary":       summary,
	})
}

// Refresh handles POST /api/v1/admin/refresh
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	log := logger.With("api")
	log.Info().Str("ip", c.IP()).Msg("Manual refresh requested")

	ctx, cancel := context.WithTimeout(c.UserContext(), h.refreshTimeout)
	defer cancel()

	snap := h.refresher.RefreshNow(ctx)
	if snap == nil {
		return fiber.NewError(fiber.StatusInternalServerError, "refresh produced no snapshot")
	}

	statuses := make(map[string]models.Status, len(snap.Categories))
	items := 0
	for _, res := range snap.Categories {
		statuses[res.Category] = res.Status
		items += len(res.Items)
	}

	return c.JSON(fiber.Map{
		"cycle_id":     snap.CycleID,
		"completed_at": snap.CompletedAt,
		"items":        items,
		"statuses":     statuses,
	})
}

func (h *Handlers) snapshot() (*models.Snapshot, error) {
	snap := h.board.Snapshot()
	if snap == nil {
		return nil, fiber.NewError(fiber.StatusServiceUnavailable, "news board is not ready yet")
	}
	return snap, nil
}

func (h *Handlers) findItem(c *fiber.Ctx) (models.NewsItem, error) {
	snap, err := h.snapshot()
	if err != nil {
		return models.NewsItem{}, err
	}
	item, ok := snap.FindItem(param(c, "category"), param(c, "id"))
	if !ok {
		return models.NewsItem{}, fiber.NewError(fiber.StatusNotFound, "news item not found")
	}
	return item, nil
}

func (h *Handlers) resolve(ctx context.Context, link string) string {
	if h.resolver == nil {
		return link
	}
	return h.resolver.Resolve(ctx, link)
}

// param returns a path parameter with percent-escapes decoded.
func param(c *fiber.Ctx, name string) string {
	raw := c.Params(name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func limitItems(res models.CategoryResult, limit int) models.CategoryResult {
	if limit > 0 && len(res.Items) > limit {
		res.Items = res.Items[:limit]
	}
	if res.Items == nil {
		res.Items = []models.NewsItem{}
	}
	return res
}
