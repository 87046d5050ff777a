package spec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/swagger2ts/internal/errs"
)

// Credential carries optional authentication for remote documents.
type Credential struct {
	Cookie string
	Token  string
}

// Settings configures fetcher behavior.
type Settings struct {
	// HTTPTimeout bounds each HTTP request.
	HTTPTimeout time.Duration
	// MaxRetries is how often a transient failure (>=500, 429, or a network
	// error) is retried after the first attempt.
	MaxRetries int
	// BackoffBase is the base delay for exponential backoff.
	BackoffBase time.Duration
	// MaxBytes caps the accepted document size.
	MaxBytes int64
}

// DefaultSettings returns recommended defaults.
func DefaultSettings() Settings {
	return Settings{
		HTTPTimeout: 10 * time.Second,
		MaxRetries:  3,
		BackoffBase: 200 * time.Millisecond,
		MaxBytes:    32 << 20,
	}
}

// Option mutates Settings.
type Option func(*Settings)

func WithHTTPTimeout(d time.Duration) Option  { return func(s *Settings) { s.HTTPTimeout = d } }
func WithMaxRetries(n int) Option            { return func(s *Settings) { s.MaxRetries = n } }
func WithBackoffBase(d time.Duration) Option { return func(s *Settings) { s.BackoffBase = d } }

// HTTPFetcher retrieves description documents over http/https.
type HTTPFetcher struct {
	settings Settings
	client   *http.Client
}

// NewHTTPFetcher builds a fetcher from DefaultSettings adjusted by opts.
func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}
	return &HTTPFetcher{settings: settings, client: &http.Client{Timeout: settings.HTTPTimeout}}
}

// Fetch returns the raw document bytes at locator. Every failure is an
// errs.FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, locator string, cred Credential) ([]byte, error) {
	u, err := url.Parse(strings.TrimSpace(locator))
	if err != nil || u.Host == "" {
		return nil, errs.New(errs.FetchError, locator, "invalid document URL")
	}
	if scheme := strings.ToLower(u.Scheme); scheme != "http" && scheme != "https" {
		return nil, errs.New(errs.FetchError, locator, "unsupported URL scheme %q (only http/https allowed)", u.Scheme)
	}
	raw, err := f.fetchWithRetry(ctx, u.String(), cred)
	if err != nil {
		return nil, errs.Wrap(errs.FetchError, locator, err, "fetch document")
	}
	return raw, nil
}

func (f *HTTPFetcher) fetchWithRetry(ctx context.Context, rawURL string, cred Credential) ([]byte, error) {
	backoff := f.settings.BackoffBase
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	// One initial attempt plus MaxRetries retries.
	attempts := 1
	if f.settings.MaxRetries > 0 {
		attempts += f.settings.MaxRetries
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		body, retry, err := f.fetchOnce(ctx, rawURL, cred)
		if err == nil {
			return body, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	if lastErr == nil {
		lastErr = errors.New("fetch failed")
	}
	return nil, lastErr
}

// fetchOnce performs one request and reports whether a failure is transient.
func (f *HTTPFetcher) fetchOnce(ctx context.Context, rawURL string, cred Credential) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.8")
	if c := strings.TrimSpace(cred.Cookie); c != "" {
		req.Header.Set("Cookie", c)
	}
	if t := strings.TrimSpace(cred.Token); t != "" {
		req.Header.Set("Authorization", "Bearer "+t)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
		limit := f.settings.MaxBytes
		if limit <= 0 {
			limit = DefaultSettings().MaxBytes
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
		if err != nil {
			return nil, true, err
		}
		if int64(len(body)) > limit {
			return nil, false, fmt.Errorf("document exceeds %d bytes", limit)
		}
		return body, false, nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, fmt.Errorf("transient http error %d", resp.StatusCode)
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, false, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
}
