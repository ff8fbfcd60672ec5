package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/npratt/loanpoll/internal/config"
	"github.com/npratt/loanpoll/internal/status"
)

// maxBody caps how much of a response is read.
const maxBody = 4 << 20

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URL  string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("GET %s: %d %s: %s", e.URL, e.Code, http.StatusText(e.Code), e.Body)
	}
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// HTTPFetcher GETs the status document from a URL.
type HTTPFetcher struct {
	URL      string
	Header   http.Header
	Envelope string
	Client   *http.Client
}

// NewHTTPFetcher builds an HTTPFetcher from the source config.
func NewHTTPFetcher(cfg config.SourceConfig) (*HTTPFetcher, error) {
	header := make(http.Header)
	for _, h := range cfg.Headers {
		name, value, ok := config.SplitHeader(h)
		if !ok {
			return nil, fmt.Errorf("invalid header %q", h)
		}
		header.Add(name, value)
	}
	return &HTTPFetcher{
		URL:      cfg.URL,
		Header:   header,
		Envelope: cfg.Envelope,
		Client:   &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context) (status.RawPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for name, values := range f.Header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", f.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200] + "..."
		}
		return nil, &StatusError{URL: f.URL, Code: resp.StatusCode, Body: snippet}
	}

	return Decode(body, f.Envelope)
}
