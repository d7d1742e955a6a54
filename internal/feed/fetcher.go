package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const userAgent = "newshub/1.0 (+https://github.com/bilgisen/newshub)"

// Fetcher performs the bounded HTTP GETs behind every source. It never
// retries; the next refresh cycle is the retry.
type Fetcher struct {
	client *resty.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", userAgent),
	}
}

// RequestOptions adds query parameters and headers to a Get.
type RequestOptions struct {
	Query   map[string]string
	Headers map[string]string
	Accept  string
}

// Get retrieves url and returns the body. Network failures and non-200
// answers are reported as ErrTransport.
func (f *Fetcher) Get(ctx context.Context, url string, opts RequestOptions) ([]byte, error) {
	req := f.client.R().SetContext(ctx)
	if opts.Accept != "" {
		req.SetHeader("Accept", opts.Accept)
	}
	if len(opts.Headers) > 0 {
		req.SetHeaders(opts.Headers)
	}
	if len(opts.Query) > 0 {
		req.SetQueryParams(opts.Query)
	}

	resp, err := req.Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", ErrTransport, url, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code %d from %s", ErrTransport, resp.StatusCode(), url)
	}

	return resp.Body(), nil
}
