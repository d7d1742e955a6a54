package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bilgisen/newshub/internal/logger"
	"github.com/bilgisen/newshub/internal/metrics"
	"github.com/bilgisen/newshub/internal/models"
	"github.com/google/uuid"
)

const (
	emptyMessage       = "No new articles match the current conditions."
	configErrorMessage = "Source is not configured: %v"
	failureMessage     = "Could not load this category: %v"
)

// ProcessorOptions tunes a Processor. Zero values pick defaults.
type ProcessorOptions struct {
	MaxConcurrency int
	// ShareSeen dedupes across categories within a cycle; earlier categories
	// in configuration order win.
	ShareSeen bool
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

// Processor runs refresh cycles over a fixed set of categories
type Processor struct {
	parser     *Parser
	categories []models.Category
	sources    map[string]Source
	opts       ProcessorOptions
}

func NewProcessor(parser *Parser, categories []models.Category, sources map[string]Source, opts ProcessorOptions) *Processor {
	if parser == nil {
		parser = NewParser(time.UTC)
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 4
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Processor{
		parser:     parser,
		categories: categories,
		sources:    sources,
		opts:       opts,
	}
}

// BuildSources creates one Source per category.
func BuildSources(categories []models.Category, deps SourceDeps) (map[string]Source, error) {
	sources := make(map[string]Source, len(categories))
	for _, cat := range categories {
		src, err := NewSource(cat, deps)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", cat.Name, err)
		}
		sources[cat.Name] = src
	}
	return sources, nil
}

type fetchOutcome struct {
	entries []models.RawEntry
	err     error
}

// RunCycle fetches every category concurrently, then filters them in
// configuration order. A failing category yields an empty result with a
// status; it never affects the others and RunCycle itself never fails.
func (p *Processor) RunCycle(ctx context.Context) *models.Snapshot {
	start := p.opts.Now()
	cycleID := uuid.NewString()
	log := logger.With("processor").With().Str("cycle_id", cycleID).Logger()

	log.Info().
		Int("categories", len(p.categories)).
		Msg("Starting refresh cycle")

	outcomes := p.fetchAll(ctx)

	var shared *SeenSet
	if p.opts.ShareSeen {
		shared = NewSeenSet()
	}

	now := p.opts.Now()
	snap := &models.Snapshot{
		CycleID:    cycleID,
		StartedAt:  start,
		Categories: make([]models.CategoryResult, 0, len(p.categories)),
	}

	for i, cat := range p.categories {
		res := models.CategoryResult{
			Category:  cat.Name,
			Kind:      cat.Kind,
			Items:     []models.NewsItem{},
			FetchedAt: now,
		}

		out := outcomes[i]
		if out.err != nil {
			res.Status = StatusFor(out.err)
			if res.Status == models.StatusConfigError {
				res.Message = fmt.Sprintf(configErrorMessage, out.err)
				log.Warn().Err(out.err).Str("category", cat.Name).Msg("Category is misconfigured")
			} else {
				res.Message = fmt.Sprintf(failureMessage, out.err)
				log.Error().Err(out.err).Str("category", cat.Name).Msg("Category fetch failed")
			}
			p.opts.Metrics.ObserveCategory(cat.Name, string(res.Status), 0)
			snap.Categories = append(snap.Categories, res)
			continue
		}

		seen := shared
		if seen == nil {
			seen = NewSeenSet()
		}
		filtered := p.parser.Filter(cat.Name, out.entries, p.filterOptions(cat, now), seen)

		res.Items = filtered.Items
		if res.Items == nil {
			res.Items = []models.NewsItem{}
		}
		res.Skipped = filtered.Skipped()
		res.Status = models.StatusOK
		if len(res.Items) == 0 {
			res.Status = StatusFor(ErrEmptyResult)
			res.Message = emptyMessage
		}

		p.opts.Metrics.ObserveCategory(cat.Name, string(res.Status), len(res.Items))
		p.opts.Metrics.ObserveSkipped(cat.Name, "malformed", filtered.Malformed)
		p.opts.Metrics.ObserveSkipped(cat.Name, "stale", filtered.Stale)
		p.opts.Metrics.ObserveSkipped(cat.Name, "irrelevant", filtered.Irrelevant)
		p.opts.Metrics.ObserveSkipped(cat.Name, "duplicate", filtered.Duplicates)

		log.Debug().
			Str("category", cat.Name).
			Int("entries", len(out.entries)).
			Int("items", len(res.Items)).
			Int("malformed", filtered.Malformed).
			Int("stale", filtered.Stale).
			Int("irrelevant", filtered.Irrelevant).
			Int("duplicates", filtered.Duplicates).
			Msg("Filtered category")

		snap.Categories = append(snap.Categories, res)
	}

	snap.CompletedAt = p.opts.Now()
	elapsed := snap.CompletedAt.Sub(start)
	p.opts.Metrics.ObserveCycle(elapsed)

	log.Info().
		Dur("duration", elapsed).
		Msg("Finished refresh cycle")

	return snap
}

func (p *Processor) filterOptions(cat models.Category, now time.Time) FilterOptions {
	window := cat.Window.Std()
	if window <= 0 {
		window = models.DefaultWindow(cat.Kind)
	}
	opts := FilterOptions{
		Now:    now,
		Window: window,
		Limit:  cat.Limit,
	}
	if cat.Kind == models.KindAPI {
		opts.Keywords = cat.Keywords
	}
	return opts
}

// fetchAll runs every category source with bounded concurrency. Results are
// indexed like p.categories.
func (p *Processor) fetchAll(ctx context.Context) []fetchOutcome {
	outcomes := make([]fetchOutcome, len(p.categories))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, p.opts.MaxConcurrency)

	for i, cat := range p.categories {
		wg.Add(1)
		go func(i int, cat models.Category) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
			case <-ctx.Done():
				outcomes[i] = fetchOutcome{err: fmt.Errorf("%w: %v", ErrTransport, ctx.Err())}
				return
			}
			defer func() { <-semaphore }()

			outcomes[i] = p.fetchCategory(ctx, cat)
		}(i, cat)
	}

	wg.Wait()
	return outcomes
}

// fetchCategory is the category boundary: errors and panics stop here.
func (p *Processor) fetchCategory(ctx context.Context, cat models.Category) (out fetchOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = fetchOutcome{err: fmt.Errorf("category %s panicked: %v", cat.Name, r)}
		}
	}()

	src, ok := p.sources[cat.Name]
	if !ok || src == nil {
		return fetchOutcome{err: fmt.Errorf("%w: no source for category %s", ErrConfiguration, cat.Name)}
	}

	entries, err := src.Fetch(ctx)
	if err != nil {
		return fetchOutcome{err: err}
	}
	return fetchOutcome{entries: entries}
}
