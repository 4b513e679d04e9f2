package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Fetcher retrieves playlist and segment resources over HTTP. Each fetch is
// a single GET with no retries.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

func NewFetcher(client *http.Client, userAgent string, headers map[string]string) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if len(headers) > 0 {
		base := client.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		wrapped := *client
		wrapped.Transport = &headerTransport{headers: headers, base: base}
		client = &wrapped
	}
	return &Fetcher{client: client, userAgent: userAgent}
}

// Fetch downloads the resource at url in full. The body is read into memory
// in one piece; callers stop an in-flight request through ctx.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}
