package client

import (
	"bytes"
	"context"
	"io"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"financials/config"
	"financials/customerrors"
	"financials/middleware"
)

// Static pool of desktop browser User-Agent strings; one is picked per
// client instance. Configuration data, not logic.
var userAgents = []string{
	"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/119.0",
	"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (X11; Linux x86_64; rv:122.0) Gecko/20100101 Firefox/122.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
}

// RequestOptions are the per-call extras a source adapter may send along.
// A non-nil Body turns the call into a POST.
type RequestOptions struct {
	Headers map[string]string
	Cookies []*http.Cookie
	Body    any
}

// BaseClient is the HTTP session every source adapter shares: pooled
// keep-alive connections, one cookie jar across all requests, a bounded
// redirect budget, gzip/brotli decompression and charset normalization, and
// a single retry masking CloudFront cache-origin errors.
type BaseClient struct {
	client     *resty.Client
	noRedirect *resty.Client
	jar        http.CookieJar
	limiter    *rate.Limiter

	maxRedirects int

	mu        sync.Mutex
	lastURL   string
	redirects int
}

func NewBaseClient(cfg *config.Config) *BaseClient {
	jar, _ := cookiejar.New(nil)

	b := &BaseClient{
		jar:          jar,
		limiter:      rate.NewLimiter(rate.Limit(cfg.ScrapeRate), cfg.ScrapeBurst),
		maxRedirects: cfg.MaxRedirects,
	}

	defaultHeaders := map[string]string{
		"User-Agent":      userAgents[rand.Intn(len(userAgents))],
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Encoding": "gzip, deflate",
		"Accept-Language": "en-US,en;q=0.5",
		"Connection":      "keep-alive",
		"Cache-Control":   "max-age=0",
	}

	newClient := func() *resty.Client {
		c := resty.New().
			SetCookieJar(jar).
			SetTimeout(cfg.HTTPTimeout).
			SetHeaders(defaultHeaders).
			SetRetryCount(1).
			AddRetryCondition(cloudfrontRetryCondition)
		c.OnAfterResponse(middleware.DecompressMiddleware)
		return c
	}

	b.client = newClient().SetRedirectPolicy(b.redirectPolicy())
	b.noRedirect = newClient().SetRedirectPolicy(stopRedirectPolicy())

	return b
}

// cloudfrontRetryCondition allows exactly one replay when an error response
// carries CloudFront's cache-origin error marker. Everything else surfaces
// immediately.
func cloudfrontRetryCondition(resp *resty.Response, err error) bool {
	if resp == nil {
		return false
	}
	return resp.StatusCode() >= 400 &&
		strings.Contains(resp.Header().Get("X-Cache"), "Error from cloudfront")
}

// stopRedirectPolicy hands back the 3xx response itself instead of
// following it, so the caller can classify the refusal.
func stopRedirectPolicy() resty.RedirectPolicy {
	return resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	})
}

func (b *BaseClient) redirectPolicy() resty.RedirectPolicy {
	return resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		if len(via) > b.maxRedirects {
			return http.ErrUseLastResponse
		}
		b.mu.Lock()
		b.redirects = len(via)
		b.mu.Unlock()
		return nil
	})
}

// FetchText performs a GET (or POST when opts.Body is set), follows up to the
// configured number of redirects, and returns the decompressed, charset
// decoded body.
func (b *BaseClient) FetchText(ctx context.Context, rawURL string, opts *RequestOptions) (string, error) {
	return b.fetch(ctx, b.client, rawURL, opts)
}

// FetchTextNoRedirect is FetchText with redirects disabled; a 3xx response
// fails with ErrRedirectNotAllowed.
func (b *BaseClient) FetchTextNoRedirect(ctx context.Context, rawURL string, opts *RequestOptions) (string, error) {
	return b.fetch(ctx, b.noRedirect, rawURL, opts)
}

func (b *BaseClient) fetch(ctx context.Context, c *resty.Client, rawURL string, opts *RequestOptions) (string, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return "", customerrors.FetchError{URL: rawURL, Err: err}
	}

	b.mu.Lock()
	b.lastURL = rawURL
	b.redirects = 0
	b.mu.Unlock()

	req := c.R().SetContext(ctx)

	if opts != nil {
		if len(opts.Cookies) > 0 {
			if u, err := url.Parse(rawURL); err == nil {
				b.jar.SetCookies(u, opts.Cookies)
			}
		}
		for k, v := range opts.Headers {
			req.Header.Set(k, v)
		}
	}

	var resp *resty.Response
	var err error

	if opts != nil && opts.Body != nil {
		resp, err = req.SetBody(opts.Body).Post(rawURL)
	} else {
		resp, err = req.Get(rawURL)
	}

	if err != nil {
		log.Error().Err(err).Str("url", rawURL).Msg("fetch failed")
		return "", customerrors.FetchError{URL: rawURL, Err: err}
	}

	status := resp.StatusCode()

	if status >= 300 && status < 400 {
		if c == b.noRedirect {
			return "", customerrors.ErrRedirectNotAllowed
		}
		return "", customerrors.HttpError{URL: rawURL, Status: status}
	}

	if status >= 400 {
		return "", customerrors.HttpError{URL: rawURL, Status: status}
	}

	return decodeBody(resp.Body(), resp.Header().Get("Content-Type")), nil
}

// decodeBody converts the raw body to UTF-8 per the declared charset,
// replacing undecodable input rather than failing. Unknown charsets fall
// back to treating the body as UTF-8.
func decodeBody(body []byte, contentType string) string {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return string(body)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}

// LastURL reports the most recently requested URL, for diagnostics.
func (b *BaseClient) LastURL() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastURL
}

// Redirects reports how many redirect hops the last fetch followed.
func (b *BaseClient) Redirects() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.redirects
}

// Close releases the pooled connections. Call at host teardown.
func (b *BaseClient) Close() {
	b.client.GetClient().CloseIdleConnections()
	b.noRedirect.GetClient().CloseIdleConnections()
}
