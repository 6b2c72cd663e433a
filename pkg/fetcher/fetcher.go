package fetcher

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

type Fetcher struct {
	client *resty.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		client: resty.New().SetHeader("Accept", "text/html,application/xhtml+xml"),
	}
}

// NewFetcherWithClient sends requests through hc.
func NewFetcherWithClient(hc *http.Client) *Fetcher {
	return &Fetcher{
		client: resty.NewWithClient(hc).SetHeader("Accept", "text/html,application/xhtml+xml"),
	}
}

// GetHtmlBytes returns the body of a 200 response to a GET of url.
func (f *Fetcher) GetHtmlBytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch HTML, status code: %d", resp.StatusCode())
	}
	return resp.Body(), nil
}
