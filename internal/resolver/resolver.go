package resolver

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/bilgisen/newshub/internal/cache"
	"github.com/bilgisen/newshub/internal/logger"
	"github.com/bilgisen/newshub/internal/utils"
	"github.com/go-resty/resty/v2"
)

const (
	maxRedirects = 10
	browserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Resolver follows redirect chains (e.g. news.google.com article links) to
// the publisher URL. It is best effort: any failure yields the input URL.
type Resolver struct {
	client *resty.Client
	cache  cache.Store
	ttl    time.Duration
}

func New(timeout time.Duration, store cache.Store, ttl time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Resolver{
		client: resty.New().
			SetTimeout(timeout).
			SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects)).
			SetHeader("User-Agent", browserAgent).
			SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"),
		cache: store,
		ttl:   ttl,
	}
}

// Resolve returns the canonical article URL for link, or link itself.
func (r *Resolver) Resolve(ctx context.Context, link string) string {
	log := logger.With("resolver")

	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return link
	}

	key := utils.Hash(link)
	if r.cache != nil {
		if target, ok, err := r.cache.GetResolvedLink(ctx, key); err != nil {
			log.Warn().Err(err).Str("url", link).Msg("Resolved link cache lookup failed")
		} else if ok {
			return target
		}
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(link)
	if resp != nil && resp.RawBody() != nil {
		defer resp.RawBody().Close()
	}
	if err != nil {
		log.Debug().Err(err).Str("url", link).Msg("Link resolution failed")
		return link
	}
	if resp.StatusCode() >= http.StatusBadRequest || resp.RawResponse == nil || resp.RawResponse.Request == nil {
		return link
	}

	target := resp.RawResponse.Request.URL.String()
	if r.cache != nil {
		if err := r.cache.SetResolvedLink(ctx, key, target, r.ttl); err != nil {
			log.Warn().Err(err).Str("url", link).Msg("Failed to cache resolved link")
		}
	}

	log.Debug().Str("original", link).Str("final", target).Msg("Resolved link")
	return target
}
