package client

import (
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financials/config"
	"financials/customerrors"
)

func testClientConfig() *config.Config {
	return &config.Config{
		HTTPTimeout:  5 * time.Second,
		MaxRedirects: 5,
		ScrapeRate:   1000,
		ScrapeBurst:  1000,
	}
}

func TestFetchTextFollowsRelativeRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/b", http.StatusFound)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("landed"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewBaseClient(testClientConfig())
	defer c.Close()

	body, err := c.FetchText(context.Background(), srv.URL+"/a", nil)
	require.NoError(t, err)
	assert.Equal(t, "landed", body)
	assert.Equal(t, 1, c.Redirects())
	assert.Equal(t, srv.URL+"/a", c.LastURL())
}

func TestFetchTextNoRedirectRefuses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusMovedPermanently)
	}))
	defer srv.Close()

	c := NewBaseClient(testClientConfig())
	defer c.Close()

	_, err := c.FetchTextNoRedirect(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, customerrors.ErrRedirectNotAllowed)
}

func TestFetchTextGzipBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte("compressed payload"))
		gz.Close()
	}))
	defer srv.Close()

	c := NewBaseClient(testClientConfig())
	defer c.Close()

	body, err := c.FetchText(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "compressed payload", body)
}

func TestFetchTextBrotliBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		br := brotli.NewWriter(w)
		br.Write([]byte("brotli payload"))
		br.Close()
	}))
	defer srv.Close()

	c := NewBaseClient(testClientConfig())
	defer c.Close()

	body, err := c.FetchText(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "brotli payload", body)
}

func TestFetchTextCharsetDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		// "café" in Latin-1
		w.Write([]byte{'c', 'a', 'f', 0xe9})
	}))
	defer srv.Close()

	c := NewBaseClient(testClientConfig())
	defer c.Close()

	body, err := c.FetchText(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "café", body)
}

func TestFetchTextCloudfrontRetry(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.Header().Set("X-Cache", "Error from cloudfront")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	c := NewBaseClient(testClientConfig())
	defer c.Close()

	body, err := c.FetchText(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "recovered", body)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestFetchTextErrorStatusNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewBaseClient(testClientConfig())
	defer c.Close()

	_, err := c.FetchText(context.Background(), srv.URL, nil)
	require.Error(t, err)

	var httpErr customerrors.HttpError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestFetchTextCookiesPersistAcrossRequests(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/set", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/check", func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie("session"); err == nil {
			w.Write([]byte("got " + cookie.Value))
			return
		}
		w.Write([]byte("no cookie"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewBaseClient(testClientConfig())
	defer c.Close()

	_, err := c.FetchText(context.Background(), srv.URL+"/set", nil)
	require.NoError(t, err)

	body, err := c.FetchText(context.Background(), srv.URL+"/check", nil)
	require.NoError(t, err)
	assert.Equal(t, "got abc", body)
}

func TestFetchTextExplicitCookiesSent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie("consent"); err == nil {
			w.Write([]byte(cookie.Value))
			return
		}
		w.Write([]byte("missing"))
	}))
	defer srv.Close()

	c := NewBaseClient(testClientConfig())
	defer c.Close()

	body, err := c.FetchText(context.Background(), srv.URL, &RequestOptions{
		Cookies: []*http.Cookie{{Name: "consent", Value: "granted", Path: "/"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "granted", body)
}

func TestFetchTextBodyTurnsPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.Method))
	}))
	defer srv.Close()

	c := NewBaseClient(testClientConfig())
	defer c.Close()

	method, err := c.FetchText(context.Background(), srv.URL, &RequestOptions{
		Body: map[string]string{"q": "IBM"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, method)
}
